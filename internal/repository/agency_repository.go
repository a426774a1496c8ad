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

type AgencyRepository struct {
	db *sqlx.DB
}

func NewAgencyRepository(db *sqlx.DB) *AgencyRepository {
	return &AgencyRepository{db: db}
}

func (r *AgencyRepository) Create(ctx context.Context, a *model.Agency) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO agencies (id, name, active, created_at)
		VALUES (:id, :name, :active, :created_at)
	`, a)
	if err != nil {
		return fmt.Errorf("AgencyRepository.Create: %w", err)
	}
	return nil
}

func (r *AgencyRepository) GetByID(ctx context.Context, id string) (*model.Agency, error) {
	var a model.Agency
	err := r.db.GetContext(ctx, &a, `SELECT id, name, active, created_at FROM agencies WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("agency not found")
	}
	if err != nil {
		return nil, fmt.Errorf("AgencyRepository.GetByID: %w", err)
	}
	return &a, nil
}

func (r *AgencyRepository) Count(ctx context.Context, activeOnly bool) (int, error) {
	query := `SELECT COUNT(1) FROM agencies`
	if activeOnly {
		query += ` WHERE active`
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("AgencyRepository.Count: %w", err)
	}
	return count, nil
}
