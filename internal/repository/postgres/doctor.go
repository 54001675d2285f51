package postgres

import (
	"context"
	"fmt"

	"github.com/medicare-hq/medicare-api/internal/model"
)

func (r *doctorRepository) Get(ctx context.Context, id model.DoctorID) (*model.DoctorProfile, error) {
	query := `
		SELECT doctor_id, user_id, first_name, last_name, specialization,
			   contact_phone, available_days, fee, created_at, updated_at
		FROM doctors
		WHERE doctor_id = $1
	`
	var doctor model.DoctorProfile
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, translateError(err)
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByAccountID(ctx context.Context, accountID model.AccountID) (*model.DoctorProfile, error) {
	query := `
		SELECT doctor_id, user_id, first_name, last_name, specialization,
			   contact_phone, available_days, fee, created_at, updated_at
		FROM doctors
		WHERE user_id = $1
	`
	var doctor model.DoctorProfile
	if err := r.db.GetContext(ctx, &doctor, query, accountID); err != nil {
		return nil, translateError(err)
	}
	return &doctor, nil
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.DoctorProfile, error) {
	query := `
		SELECT doctor_id, user_id, first_name, last_name, specialization,
			   contact_phone, available_days, fee, created_at, updated_at
		FROM doctors
		ORDER BY last_name ASC, first_name ASC
	`
	var doctors []*model.DoctorProfile
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}
