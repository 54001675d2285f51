// Package memory holds in-memory implementations of the repository
// interfaces. They honor the same sentinel-error and uniqueness semantics as
// the Postgres implementations and back the service test suites.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
)

type AccountRepository struct {
	mu       sync.Mutex
	nextID   model.AccountID
	accounts map[model.AccountID]*model.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{nextID: 1, accounts: make(map[model.AccountID]*model.Account)}
}

func (r *AccountRepository) Create(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return repository.ErrDuplicate
		}
	}
	account.ID = r.nextID
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	r.nextID++
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *AccountRepository) Get(_ context.Context, id model.AccountID) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *account
	return &cp, nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if strings.EqualFold(account.Email, email) {
			cp := *account
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AccountRepository) List(_ context.Context) ([]*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		cp := *account
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AccountRepository) UpdateRole(_ context.Context, id model.AccountID, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Role = role
	account.UpdatedAt = time.Now()
	return nil
}

type DoctorRepository struct {
	mu      sync.Mutex
	nextID  model.DoctorID
	doctors map[model.DoctorID]*model.DoctorProfile
}

func NewDoctorRepository() *DoctorRepository {
	return &DoctorRepository{nextID: 1, doctors: make(map[model.DoctorID]*model.DoctorProfile)}
}

// Add seeds a profile and returns it with an assigned id.
func (r *DoctorRepository) Add(doctor *model.DoctorProfile) *model.DoctorProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor.ID = r.nextID
	r.nextID++
	cp := *doctor
	r.doctors[doctor.ID] = &cp
	return doctor
}

func (r *DoctorRepository) Get(_ context.Context, id model.DoctorID) (*model.DoctorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor, ok := r.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *doctor
	return &cp, nil
}

func (r *DoctorRepository) GetByAccountID(_ context.Context, accountID model.AccountID) (*model.DoctorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doctor := range r.doctors {
		if doctor.AccountID != nil && *doctor.AccountID == accountID {
			cp := *doctor
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *DoctorRepository) List(_ context.Context) ([]*model.DoctorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.DoctorProfile, 0, len(r.doctors))
	for _, doctor := range r.doctors {
		cp := *doctor
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type AppointmentRepository struct {
	mu           sync.Mutex
	nextID       int64
	appointments map[int64]*model.Appointment
}

func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{nextID: 1, appointments: make(map[int64]*model.Appointment)}
}

func (r *AppointmentRepository) Create(_ context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt.ID = r.nextID
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = apt.CreatedAt
	r.nextID++
	cp := *apt
	r.appointments[apt.ID] = &cp
	return nil
}

func (r *AppointmentRepository) Get(_ context.Context, id int64) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *apt
	return &cp, nil
}

func (r *AppointmentRepository) Update(_ context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[apt.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *apt
	cp.UpdatedAt = time.Now()
	r.appointments[apt.ID] = &cp
	return nil
}

func (r *AppointmentRepository) SetPaid(_ context.Context, id int64, paid bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	apt.Paid = paid
	apt.UpdatedAt = time.Now()
	return nil
}

func (r *AppointmentRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *AppointmentRepository) ListByPatient(_ context.Context, userID model.AccountID) ([]*model.Appointment, error) {
	return r.list(func(a *model.Appointment) bool { return a.UserID == userID }), nil
}

func (r *AppointmentRepository) ListByDoctor(_ context.Context, doctorID model.DoctorID) ([]*model.Appointment, error) {
	return r.list(func(a *model.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (r *AppointmentRepository) ListAll(_ context.Context) ([]*model.Appointment, error) {
	return r.list(func(*model.Appointment) bool { return true }), nil
}

func (r *AppointmentRepository) CountByStatus(_ context.Context) (map[model.AppointmentStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[model.AppointmentStatus]int64)
	for _, apt := range r.appointments {
		counts[apt.Status]++
	}
	return counts, nil
}

func (r *AppointmentRepository) list(match func(*model.Appointment) bool) []*model.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if match(apt) {
			cp := *apt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type PaymentRepository struct {
	mu       sync.Mutex
	nextID   int64
	payments map[int64]*model.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{nextID: 1, payments: make(map[int64]*model.Payment)}
}

func (r *PaymentRepository) Create(_ context.Context, p *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payments {
		if existing.TransactionID == p.TransactionID {
			return repository.ErrDuplicate
		}
	}
	r.insertLocked(p)
	return nil
}

func (r *PaymentRepository) Get(_ context.Context, id int64) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PaymentRepository) GetByTransactionID(_ context.Context, transactionID string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *PaymentRepository) Upsert(_ context.Context, p *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payments {
		if existing.TransactionID == p.TransactionID {
			existing.Amount = p.Amount
			existing.Status = p.Status
			if p.AppointmentID != nil {
				existing.AppointmentID = p.AppointmentID
			}
			if p.PaymentDate != nil {
				existing.PaymentDate = p.PaymentDate
			}
			existing.UpdatedAt = time.Now()
			*p = *existing
			return nil
		}
	}
	r.insertLocked(p)
	return nil
}

func (r *PaymentRepository) Update(_ context.Context, p *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	cp.UpdatedAt = time.Now()
	r.payments[p.ID] = &cp
	return nil
}

func (r *PaymentRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *PaymentRepository) GetByAppointment(_ context.Context, appointmentID int64) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.AppointmentID != nil && *p.AppointmentID == appointmentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *PaymentRepository) ListByPatient(_ context.Context, _ model.AccountID) ([]*model.Payment, error) {
	// The patient scoping joins through appointments in Postgres; tests that
	// need it seed appointment ids explicitly, so everything is returned.
	return r.All(), nil
}

func (r *PaymentRepository) SumCompleted(_ context.Context) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total float64
	for _, p := range r.payments {
		if p.Status == model.PaymentStatusCompleted {
			total += p.Amount
		}
	}
	return total, nil
}

// All returns every stored payment ordered by id.
func (r *PaymentRepository) All() []*model.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *PaymentRepository) insertLocked(p *model.Payment) {
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.nextID++
	cp := *p
	r.payments[p.ID] = &cp
}

type PrescriptionRepository struct {
	mu            sync.Mutex
	nextID        int64
	prescriptions map[int64]*model.Prescription
}

func NewPrescriptionRepository() *PrescriptionRepository {
	return &PrescriptionRepository{nextID: 1, prescriptions: make(map[int64]*model.Prescription)}
}

func (r *PrescriptionRepository) Create(_ context.Context, p *model.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.prescriptions {
		if existing.AppointmentID == p.AppointmentID {
			return repository.ErrDuplicate
		}
	}
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.nextID++
	cp := *p
	r.prescriptions[p.ID] = &cp
	return nil
}

func (r *PrescriptionRepository) Get(_ context.Context, id int64) (*model.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prescriptions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PrescriptionRepository) GetByAppointment(_ context.Context, appointmentID int64) (*model.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.prescriptions {
		if p.AppointmentID == appointmentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *PrescriptionRepository) ListByPatient(_ context.Context, patientID model.AccountID) ([]*model.Prescription, error) {
	return r.list(func(p *model.Prescription) bool { return p.PatientID == patientID }), nil
}

func (r *PrescriptionRepository) ListByDoctor(_ context.Context, doctorID model.DoctorID) ([]*model.Prescription, error) {
	return r.list(func(p *model.Prescription) bool { return p.DoctorID == doctorID }), nil
}

func (r *PrescriptionRepository) list(match func(*model.Prescription) bool) []*model.Prescription {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Prescription
	for _, p := range r.prescriptions {
		if match(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type ComplaintRepository struct {
	mu         sync.Mutex
	nextID     int64
	nextMsgID  int64
	complaints map[int64]*model.Complaint
	messages   map[int64][]*model.ComplaintMessage
}

func NewComplaintRepository() *ComplaintRepository {
	return &ComplaintRepository{
		nextID:     1,
		nextMsgID:  1,
		complaints: make(map[int64]*model.Complaint),
		messages:   make(map[int64][]*model.ComplaintMessage),
	}
}

func (r *ComplaintRepository) Create(_ context.Context, c *model.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.nextID++
	cp := *c
	r.complaints[c.ID] = &cp
	return nil
}

func (r *ComplaintRepository) Get(_ context.Context, id int64) (*model.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *ComplaintRepository) ListByUser(_ context.Context, userID model.AccountID) ([]*model.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Complaint
	for _, c := range r.complaints {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ComplaintRepository) ListAll(_ context.Context) ([]*model.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Complaint, 0, len(r.complaints))
	for _, c := range r.complaints {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ComplaintRepository) UpdateStatus(_ context.Context, id int64, status model.ComplaintStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	return nil
}

func (r *ComplaintRepository) AddMessage(_ context.Context, m *model.ComplaintMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.complaints[m.ComplaintID]; !ok {
		return repository.ErrNotFound
	}
	m.ID = r.nextMsgID
	m.CreatedAt = time.Now()
	r.nextMsgID++
	cp := *m
	r.messages[m.ComplaintID] = append(r.messages[m.ComplaintID], &cp)
	return nil
}

func (r *ComplaintRepository) ListMessages(_ context.Context, complaintID int64) ([]*model.ComplaintMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[complaintID]
	out := make([]*model.ComplaintMessage, 0, len(msgs))
	for _, m := range msgs {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}
