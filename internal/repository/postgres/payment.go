package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
)

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (
			appointment_id, amount, payment_status, transaction_id,
			payment_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING payment_id
	`
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		payment.AppointmentID,
		payment.Amount,
		payment.Status,
		payment.TransactionID,
		payment.PaymentDate,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		if translated := translateError(err); errors.Is(translated, repository.ErrDuplicate) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id int64) (*model.Payment, error) {
	query := `
		SELECT payment_id, appointment_id, amount, payment_status,
			   transaction_id, payment_date, created_at, updated_at
		FROM payments
		WHERE payment_id = $1
	`
	var payment model.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, translateError(err)
	}
	return &payment, nil
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	query := `
		SELECT payment_id, appointment_id, amount, payment_status,
			   transaction_id, payment_date, created_at, updated_at
		FROM payments
		WHERE transaction_id = $1
	`
	var payment model.Payment
	if err := r.db.GetContext(ctx, &payment, query, transactionID); err != nil {
		return nil, translateError(err)
	}
	return &payment, nil
}

// Upsert collapses replayed deliveries bearing the same transaction id into a
// single row. The unique index on transaction_id is the backstop against
// concurrent replays racing the existence check.
func (r *paymentRepository) Upsert(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (
			appointment_id, amount, payment_status, transaction_id,
			payment_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (transaction_id) DO UPDATE SET
			appointment_id = COALESCE(EXCLUDED.appointment_id, payments.appointment_id),
			amount = EXCLUDED.amount,
			payment_status = EXCLUDED.payment_status,
			payment_date = EXCLUDED.payment_date,
			updated_at = EXCLUDED.updated_at
		RETURNING payment_id
	`
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		payment.AppointmentID,
		payment.Amount,
		payment.Status,
		payment.TransactionID,
		payment.PaymentDate,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	query := `
		UPDATE payments
		SET appointment_id = $1, amount = $2, payment_status = $3,
			payment_date = $4, updated_at = $5
		WHERE payment_id = $6
	`
	payment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		payment.AppointmentID,
		payment.Amount,
		payment.Status,
		payment.PaymentDate,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
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

func (r *paymentRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM payments WHERE payment_id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
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

func (r *paymentRepository) GetByAppointment(ctx context.Context, appointmentID int64) (*model.Payment, error) {
	query := `
		SELECT payment_id, appointment_id, amount, payment_status,
			   transaction_id, payment_date, created_at, updated_at
		FROM payments
		WHERE appointment_id = $1
		ORDER BY payment_id DESC
		LIMIT 1
	`
	var payment model.Payment
	if err := r.db.GetContext(ctx, &payment, query, appointmentID); err != nil {
		return nil, translateError(err)
	}
	return &payment, nil
}

func (r *paymentRepository) ListByPatient(ctx context.Context, userID model.AccountID) ([]*model.Payment, error) {
	query := `
		SELECT p.payment_id, p.appointment_id, p.amount, p.payment_status,
			   p.transaction_id, p.payment_date, p.created_at, p.updated_at
		FROM payments p
		JOIN appointments a ON a.appointment_id = p.appointment_id
		WHERE a.user_id = $1
		ORDER BY p.created_at DESC
	`
	var payments []*model.Payment
	if err := r.db.SelectContext(ctx, &payments, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *paymentRepository) SumCompleted(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE payment_status = $1
	`
	var total float64
	err := r.db.GetContext(ctx, &total, query, model.PaymentStatusCompleted)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}
	return total, nil
}
