package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
)

func (r *prescriptionRepository) Create(ctx context.Context, prescription *model.Prescription) error {
	query := `
		INSERT INTO prescriptions (
			appointment_id, doctor_id, patient_id, medicines,
			notes, issued_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING prescription_id
	`
	prescription.CreatedAt = time.Now()
	prescription.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		prescription.AppointmentID,
		prescription.DoctorID,
		prescription.PatientID,
		prescription.Medicines,
		prescription.Notes,
		prescription.IssuedAt,
		prescription.CreatedAt,
		prescription.UpdatedAt,
	).Scan(&prescription.ID)
	if err != nil {
		// The unique index on appointment_id turns a lost race between two
		// concurrent creations into a reported conflict.
		if translated := translateError(err); errors.Is(translated, repository.ErrDuplicate) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id int64) (*model.Prescription, error) {
	query := `
		SELECT prescription_id, appointment_id, doctor_id, patient_id,
			   medicines, notes, issued_at, created_at, updated_at
		FROM prescriptions
		WHERE prescription_id = $1
	`
	var prescription model.Prescription
	if err := r.db.GetContext(ctx, &prescription, query, id); err != nil {
		return nil, translateError(err)
	}
	return &prescription, nil
}

func (r *prescriptionRepository) GetByAppointment(ctx context.Context, appointmentID int64) (*model.Prescription, error) {
	query := `
		SELECT prescription_id, appointment_id, doctor_id, patient_id,
			   medicines, notes, issued_at, created_at, updated_at
		FROM prescriptions
		WHERE appointment_id = $1
	`
	var prescription model.Prescription
	if err := r.db.GetContext(ctx, &prescription, query, appointmentID); err != nil {
		return nil, translateError(err)
	}
	return &prescription, nil
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID model.AccountID) ([]*model.Prescription, error) {
	query := `
		SELECT prescription_id, appointment_id, doctor_id, patient_id,
			   medicines, notes, issued_at, created_at, updated_at
		FROM prescriptions
		WHERE patient_id = $1
		ORDER BY issued_at DESC
	`
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list patient prescriptions: %w", err)
	}
	return prescriptions, nil
}

func (r *prescriptionRepository) ListByDoctor(ctx context.Context, doctorID model.DoctorID) ([]*model.Prescription, error) {
	query := `
		SELECT prescription_id, appointment_id, doctor_id, patient_id,
			   medicines, notes, issued_at, created_at, updated_at
		FROM prescriptions
		WHERE doctor_id = $1
		ORDER BY issued_at DESC
	`
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor prescriptions: %w", err)
	}
	return prescriptions, nil
}
