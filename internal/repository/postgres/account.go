package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
)

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO users (
			firstname, lastname, email, password,
			contact_phone, address, role, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING user_id
	`
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		account.FirstName,
		account.LastName,
		account.Email,
		account.PasswordHash,
		account.ContactPhone,
		account.Address,
		account.Role,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		if err := translateError(err); err == repository.ErrDuplicate {
			return err
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id model.AccountID) (*model.Account, error) {
	query := `
		SELECT user_id, firstname, lastname, email, password,
			   contact_phone, address, role, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`
	var account model.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `
		SELECT user_id, firstname, lastname, email, password,
			   contact_phone, address, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var account model.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *accountRepository) List(ctx context.Context) ([]*model.Account, error) {
	query := `
		SELECT user_id, firstname, lastname, email, password,
			   contact_phone, address, role, created_at, updated_at
		FROM users
		ORDER BY user_id ASC
	`
	var accounts []*model.Account
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (r *accountRepository) UpdateRole(ctx context.Context, id model.AccountID, role model.Role) error {
	query := `UPDATE users SET role = $1, updated_at = $2 WHERE user_id = $3`
	result, err := r.db.ExecContext(ctx, query, role, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
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
