package model

import (
	"time"
)

// AccountID identifies a row in the users table. DoctorID identifies a row in
// the doctors table. Appointments reference a DoctorID, not the doctor's
// AccountID, so the two must never be conflated.
type AccountID int64

type DoctorID int64

type Role string

const (
	RoleUser   Role = "user"
	RoleDoctor Role = "doctor"
	RoleAdmin  Role = "admin"
)

type Account struct {
	ID           AccountID `db:"user_id" json:"user_id"`
	FirstName    string    `db:"firstname" json:"firstname"`
	LastName     string    `db:"lastname" json:"lastname"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	ContactPhone string    `db:"contact_phone" json:"contact_phone"`
	Address      string    `db:"address" json:"address"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type RegisterRequest struct {
	FirstName    string `json:"firstname" binding:"required,max=100"`
	LastName     string `json:"lastname" binding:"required,max=100"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	ContactPhone string `json:"contact_phone" binding:"max=20"`
	Address      string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenClaims is the decoded payload of an access token.
type TokenClaims struct {
	AccountID AccountID `json:"account_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
}

type UpdateRoleRequest struct {
	Role Role `json:"role" binding:"required,oneof=user doctor admin"`
}

type TokenResponse struct {
	Token   string   `json:"token"`
	Account *Account `json:"user"`
}
