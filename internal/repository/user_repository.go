package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"property-portal/internal/apperr"
	"property-portal/internal/model"
)

const userColumns = `id, auth_id, email, name, role, agency_id, active, created_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :auth_id, :email, :name, :role, :agency_id, :active, :created_at)
	`, u)
	if err != nil {
		return fmt.Errorf("UserRepository.Create: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByAuthID resolves an identity provider subject to the internal user.
func (r *UserRepository) GetByAuthID(ctx context.Context, authID string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE auth_id = $1`, authID)
}

func (r *UserRepository) CountAgents(ctx context.Context, agencyID string) (int, error) {
	var count int
	var err error
	if agencyID == "" {
		err = r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM users WHERE role = $1`, string(model.RoleAgent))
	} else {
		err = r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM users WHERE role = $1 AND agency_id = $2`,
			string(model.RoleAgent), agencyID)
	}
	if err != nil {
		return 0, fmt.Errorf("UserRepository.CountAgents: %w", err)
	}
	return count, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("UserRepository.getOne: %w", err)
	}
	return &u, nil
}
