package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
)

func (r *complaintRepository) Create(ctx context.Context, complaint *model.Complaint) error {
	query := `
		INSERT INTO complaints (
			user_id, related_appointment_id, subject, description,
			category, priority, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING complaint_id
	`
	complaint.CreatedAt = time.Now()
	complaint.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		complaint.UserID,
		complaint.RelatedAppointmentID,
		complaint.Subject,
		complaint.Description,
		complaint.Category,
		complaint.Priority,
		complaint.Status,
		complaint.CreatedAt,
		complaint.UpdatedAt,
	).Scan(&complaint.ID)
	if err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}
	return nil
}

func (r *complaintRepository) Get(ctx context.Context, id int64) (*model.Complaint, error) {
	query := `
		SELECT complaint_id, user_id, related_appointment_id, subject,
			   description, category, priority, status, created_at, updated_at
		FROM complaints
		WHERE complaint_id = $1
	`
	var complaint model.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		return nil, translateError(err)
	}
	return &complaint, nil
}

func (r *complaintRepository) ListByUser(ctx context.Context, userID model.AccountID) ([]*model.Complaint, error) {
	query := `
		SELECT complaint_id, user_id, related_appointment_id, subject,
			   description, category, priority, status, created_at, updated_at
		FROM complaints
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	var complaints []*model.Complaint
	if err := r.db.SelectContext(ctx, &complaints, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return complaints, nil
}

func (r *complaintRepository) ListAll(ctx context.Context) ([]*model.Complaint, error) {
	query := `
		SELECT complaint_id, user_id, related_appointment_id, subject,
			   description, category, priority, status, created_at, updated_at
		FROM complaints
		ORDER BY created_at DESC
	`
	var complaints []*model.Complaint
	if err := r.db.SelectContext(ctx, &complaints, query); err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return complaints, nil
}

func (r *complaintRepository) UpdateStatus(ctx context.Context, id int64, status model.ComplaintStatus) error {
	query := `UPDATE complaints SET status = $1, updated_at = $2 WHERE complaint_id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update complaint status: %w", err)
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

func (r *complaintRepository) AddMessage(ctx context.Context, message *model.ComplaintMessage) error {
	query := `
		INSERT INTO complaint_messages (
			complaint_id, sender_id, sender_role, message, created_at
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING message_id
	`
	message.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		message.ComplaintID,
		message.SenderID,
		message.SenderRole,
		message.Message,
		message.CreatedAt,
	).Scan(&message.ID)
	if err != nil {
		return fmt.Errorf("failed to add complaint message: %w", err)
	}
	return nil
}

func (r *complaintRepository) ListMessages(ctx context.Context, complaintID int64) ([]*model.ComplaintMessage, error) {
	query := `
		SELECT message_id, complaint_id, sender_id, sender_role, message, created_at
		FROM complaint_messages
		WHERE complaint_id = $1
		ORDER BY created_at ASC
	`
	var messages []*model.ComplaintMessage
	if err := r.db.SelectContext(ctx, &messages, query, complaintID); err != nil {
		return nil, fmt.Errorf("failed to list complaint messages: %w", err)
	}
	return messages, nil
}
