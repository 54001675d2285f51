package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Medicine struct {
	Name         string `json:"name" binding:"required,max=100"`
	Dosage       string `json:"dosage" binding:"required,max=100"`
	Instructions string `json:"instructions" binding:"max=500"`
}

// Medicines is stored as a JSON document in a text column.
type Medicines []Medicine

func (m Medicines) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *Medicines) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = nil
		return nil
	}
	return fmt.Errorf("unsupported medicines column type %T", src)
}

type Prescription struct {
	ID            int64     `db:"prescription_id" json:"prescription_id"`
	AppointmentID int64     `db:"appointment_id" json:"appointment_id"`
	DoctorID      DoctorID  `db:"doctor_id" json:"doctor_id"`
	PatientID     AccountID `db:"patient_id" json:"patient_id"`
	Medicines     Medicines `db:"medicines" json:"medicines"`
	Notes         string    `db:"notes" json:"notes"`
	IssuedAt      time.Time `db:"issued_at" json:"issued_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type CreatePrescriptionRequest struct {
	AppointmentID int64      `json:"appointment_id" binding:"required"`
	Medicines     []Medicine `json:"medicines" binding:"required,min=1,dive"`
	Notes         string     `json:"notes" binding:"max=2000"`
}
