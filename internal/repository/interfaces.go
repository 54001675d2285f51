package repository

import (
	"context"
	"errors"

	"github.com/medicare-hq/medicare-api/internal/model"
)

// Sentinel errors the storage layer reports; services translate them into
// the HTTP error taxonomy.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Get(ctx context.Context, id model.AccountID) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	List(ctx context.Context) ([]*model.Account, error)
	UpdateRole(ctx context.Context, id model.AccountID, role model.Role) error
}

type DoctorRepository interface {
	Get(ctx context.Context, id model.DoctorID) (*model.DoctorProfile, error)
	// GetByAccountID resolves a doctor's Account to their Doctor Profile.
	// Every doctor-scoped appointment query goes through this first.
	GetByAccountID(ctx context.Context, accountID model.AccountID) (*model.DoctorProfile, error)
	List(ctx context.Context) ([]*model.DoctorProfile, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	Get(ctx context.Context, id int64) (*model.Appointment, error)
	Update(ctx context.Context, appointment *model.Appointment) error
	// SetPaid flips only the paid flag so the payment path does not clobber
	// status written concurrently by a human action.
	SetPaid(ctx context.Context, id int64, paid bool) error
	Delete(ctx context.Context, id int64) error
	ListByPatient(ctx context.Context, userID model.AccountID) ([]*model.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID model.DoctorID) ([]*model.Appointment, error)
	ListAll(ctx context.Context) ([]*model.Appointment, error)
	CountByStatus(ctx context.Context) (map[model.AppointmentStatus]int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	Get(ctx context.Context, id int64) (*model.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error)
	// Upsert inserts a payment keyed by transaction id, updating the existing
	// row on replayed deliveries. Replays must never create a second row.
	Upsert(ctx context.Context, payment *model.Payment) error
	Update(ctx context.Context, payment *model.Payment) error
	Delete(ctx context.Context, id int64) error
	GetByAppointment(ctx context.Context, appointmentID int64) (*model.Payment, error)
	ListByPatient(ctx context.Context, userID model.AccountID) ([]*model.Payment, error)
	SumCompleted(ctx context.Context) (float64, error)
}

type PrescriptionRepository interface {
	// Create reports ErrDuplicate when a prescription already references the
	// appointment; the unique index is the correctness backstop for
	// concurrent creation.
	Create(ctx context.Context, prescription *model.Prescription) error
	Get(ctx context.Context, id int64) (*model.Prescription, error)
	GetByAppointment(ctx context.Context, appointmentID int64) (*model.Prescription, error)
	ListByPatient(ctx context.Context, patientID model.AccountID) ([]*model.Prescription, error)
	ListByDoctor(ctx context.Context, doctorID model.DoctorID) ([]*model.Prescription, error)
}

type ComplaintRepository interface {
	Create(ctx context.Context, complaint *model.Complaint) error
	Get(ctx context.Context, id int64) (*model.Complaint, error)
	ListByUser(ctx context.Context, userID model.AccountID) ([]*model.Complaint, error)
	ListAll(ctx context.Context) ([]*model.Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status model.ComplaintStatus) error
	AddMessage(ctx context.Context, message *model.ComplaintMessage) error
	ListMessages(ctx context.Context, complaintID int64) ([]*model.ComplaintMessage, error)
}
