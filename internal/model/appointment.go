package model

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "Pending"
	AppointmentStatusConfirmed AppointmentStatus = "Confirmed"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "No Show"
)

// Terminal reports whether human-facing mutation and payment callbacks should
// leave the appointment alone.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

type Appointment struct {
	ID              int64             `db:"appointment_id" json:"appointment_id"`
	UserID          AccountID         `db:"user_id" json:"user_id"`
	DoctorID        DoctorID          `db:"doctor_id" json:"doctor_id"`
	AppointmentDate time.Time         `db:"appointment_date" json:"appointment_date"`
	TimeSlot        string            `db:"time_slot" json:"time_slot"`
	TotalAmount     float64           `db:"total_amount" json:"total_amount"`
	Status          AppointmentStatus `db:"appointment_status" json:"appointment_status"`
	Paid            bool              `db:"paid" json:"paid"`
	Diagnosis       *string           `db:"diagnosis" json:"diagnosis,omitempty"`
	Treatment       *string           `db:"treatment" json:"treatment,omitempty"`
	Medications     *string           `db:"medications" json:"medications,omitempty"`
	Notes           *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

type BookAppointmentRequest struct {
	DoctorID        DoctorID `json:"doctor_id" binding:"required"`
	AppointmentDate string   `json:"appointment_date" binding:"required,datetime=2006-01-02"`
	TimeSlot        string   `json:"time_slot" binding:"required,max=50"`
}

// UpdateStatusRequest is the doctor path: clinical fields are only persisted
// when the appointment is being completed.
type UpdateStatusRequest struct {
	Status    AppointmentStatus `json:"status" binding:"required,oneof=Completed 'No Show' Cancelled"`
	Diagnosis *string           `json:"diagnosis"`
	Treatment *string           `json:"treatment"`
	Notes     *string           `json:"notes"`
}

// OverrideStatusRequest is the admin path; Pending is reachable again here.
type OverrideStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=Pending Confirmed Completed 'No Show' Cancelled"`
}

type UpdateAmountRequest struct {
	TotalAmount float64 `json:"total_amount" binding:"required,gt=0"`
}
