package model

import (
	"time"
)

type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "Open"
	ComplaintStatusInProgress ComplaintStatus = "In Progress"
	ComplaintStatusResolved   ComplaintStatus = "Resolved"
	ComplaintStatusClosed     ComplaintStatus = "Closed"
)

type Complaint struct {
	ID                   int64           `db:"complaint_id" json:"complaint_id"`
	UserID               AccountID       `db:"user_id" json:"user_id"`
	RelatedAppointmentID *int64          `db:"related_appointment_id" json:"related_appointment_id,omitempty"`
	Subject              string          `db:"subject" json:"subject"`
	Description          string          `db:"description" json:"description"`
	Category             string          `db:"category" json:"category"`
	Priority             string          `db:"priority" json:"priority"`
	Status               ComplaintStatus `db:"status" json:"status"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

// ComplaintMessage is one entry in a complaint's append-only thread.
type ComplaintMessage struct {
	ID          int64     `db:"message_id" json:"message_id"`
	ComplaintID int64     `db:"complaint_id" json:"complaint_id"`
	SenderID    AccountID `db:"sender_id" json:"sender_id"`
	SenderRole  Role      `db:"sender_role" json:"sender_role"`
	Message     string    `db:"message" json:"message"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type SubmitComplaintRequest struct {
	RelatedAppointmentID *int64 `json:"related_appointment_id"`
	Subject              string `json:"subject" binding:"required,max=150"`
	Description          string `json:"description" binding:"required"`
	Category             string `json:"category" binding:"max=50"`
	Priority             string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
}

type UpdateComplaintStatusRequest struct {
	Status ComplaintStatus `json:"status" binding:"required,oneof=Open 'In Progress' Resolved Closed"`
}

type AddComplaintMessageRequest struct {
	Message string `json:"message" binding:"required"`
}
