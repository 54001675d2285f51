package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
)

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			user_id, doctor_id, appointment_date, time_slot,
			total_amount, appointment_status, paid, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING appointment_id
	`
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		appointment.UserID,
		appointment.DoctorID,
		appointment.AppointmentDate,
		appointment.TimeSlot,
		appointment.TotalAmount,
		appointment.Status,
		appointment.Paid,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	).Scan(&appointment.ID)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `
		SELECT appointment_id, user_id, doctor_id, appointment_date, time_slot,
			   total_amount, appointment_status, paid, diagnosis, treatment,
			   medications, notes, created_at, updated_at
		FROM appointments
		WHERE appointment_id = $1
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, translateError(err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET appointment_status = $1, total_amount = $2, paid = $3,
			diagnosis = $4, treatment = $5, medications = $6, notes = $7,
			updated_at = $8
		WHERE appointment_id = $9
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.Status,
		appointment.TotalAmount,
		appointment.Paid,
		appointment.Diagnosis,
		appointment.Treatment,
		appointment.Medications,
		appointment.Notes,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) SetPaid(ctx context.Context, id int64, paid bool) error {
	query := `UPDATE appointments SET paid = $1, updated_at = $2 WHERE appointment_id = $3`
	result, err := r.db.ExecContext(ctx, query, paid, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set paid flag: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM appointments WHERE appointment_id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, userID model.AccountID) ([]*model.Appointment, error) {
	query := `
		SELECT appointment_id, user_id, doctor_id, appointment_date, time_slot,
			   total_amount, appointment_status, paid, diagnosis, treatment,
			   medications, notes, created_at, updated_at
		FROM appointments
		WHERE user_id = $1
		ORDER BY appointment_date DESC, appointment_id DESC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list patient appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID model.DoctorID) ([]*model.Appointment, error) {
	query := `
		SELECT appointment_id, user_id, doctor_id, appointment_date, time_slot,
			   total_amount, appointment_status, paid, diagnosis, treatment,
			   medications, notes, created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY appointment_date DESC, appointment_id DESC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListAll(ctx context.Context) ([]*model.Appointment, error) {
	query := `
		SELECT appointment_id, user_id, doctor_id, appointment_date, time_slot,
			   total_amount, appointment_status, paid, diagnosis, treatment,
			   medications, notes, created_at, updated_at
		FROM appointments
		ORDER BY appointment_date DESC, appointment_id DESC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) CountByStatus(ctx context.Context) (map[model.AppointmentStatus]int64, error) {
	query := `
		SELECT appointment_status, COUNT(*) AS total
		FROM appointments
		GROUP BY appointment_status
	`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.AppointmentStatus]int64)
	for rows.Next() {
		var status model.AppointmentStatus
		var total int64
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("failed to scan appointment counts: %w", err)
		}
		counts[status] = total
	}
	return counts, rows.Err()
}
