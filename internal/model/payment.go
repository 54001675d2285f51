package model

import (
	"time"
)

// PaymentStatus is the internal vocabulary. Gateway strings ("paid",
// "succeeded", "completed") are normalized by each gateway adapter before a
// Payment ever reaches the store.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment records one payment attempt. TransactionID is the gateway's
// identifier and the idempotency key for webhook replays; the appointment
// reference is nullable because a mobile-money result can land before it is
// resolved.
type Payment struct {
	ID            int64         `db:"payment_id" json:"payment_id"`
	AppointmentID *int64        `db:"appointment_id" json:"appointment_id,omitempty"`
	Amount        float64       `db:"amount" json:"amount"`
	Status        PaymentStatus `db:"payment_status" json:"payment_status"`
	TransactionID string        `db:"transaction_id" json:"transaction_id"`
	PaymentDate   *time.Time    `db:"payment_date" json:"payment_date,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

type CreateCheckoutRequest struct {
	AppointmentID int64   `json:"appointment_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
}

type ConfirmPaymentRequest struct {
	AppointmentID int64   `json:"appointment_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	TransactionID string  `json:"transaction_id" binding:"required,max=100"`
	PaymentStatus string  `json:"payment_status" binding:"required"`
}

type InitiateMobilePaymentRequest struct {
	AppointmentID int64   `json:"appointment_id" binding:"required"`
	Phone         string  `json:"phone" binding:"required,min=9,max=13"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
}

type UpdatePaymentRequest struct {
	Amount *float64       `json:"amount"`
	Status *PaymentStatus `json:"payment_status" binding:"omitempty,oneof=pending completed failed"`
}
