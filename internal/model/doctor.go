package model

import (
	"time"
)

// DoctorProfile is the clinical-facing record for a doctor. The AccountID
// back-reference is nullable: profiles can exist before the doctor has a
// login.
type DoctorProfile struct {
	ID             DoctorID   `db:"doctor_id" json:"doctor_id"`
	AccountID      *AccountID `db:"user_id" json:"user_id,omitempty"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Specialization string     `db:"specialization" json:"specialization"`
	ContactPhone   string     `db:"contact_phone" json:"contact_phone"`
	AvailableDays  string     `db:"available_days" json:"available_days"`
	Fee            *float64   `db:"fee" json:"fee,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
