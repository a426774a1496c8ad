package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"property-portal/internal/model"
)

// FloorRepository stores the floor plans of project listings.
type FloorRepository struct {
	db *sqlx.DB
}

func NewFloorRepository(db *sqlx.DB) *FloorRepository {
	return &FloorRepository{db: db}
}

// FloorsByListing returns floors ordered by position, each with its
// quadrants ordered by position.
func (r *FloorRepository) FloorsByListing(ctx context.Context, listingID string) ([]model.Floor, error) {
	var floors []model.Floor
	const floorsQuery = `
		SELECT id, listing_id, position, name
		FROM project_floors
		WHERE listing_id = $1
		ORDER BY position
	`
	if err := r.db.SelectContext(ctx, &floors, floorsQuery, listingID); err != nil {
		return nil, fmt.Errorf("FloorRepository.FloorsByListing floors: %w", err)
	}

	var quadrants []model.Quadrant
	const quadrantsQuery = `
		SELECT q.id, q.floor_id, q.position, q.label, q.area, q.price, q.status
		FROM floor_quadrants q
		JOIN project_floors f ON f.id = q.floor_id
		WHERE f.listing_id = $1
		ORDER BY q.position
	`
	if err := r.db.SelectContext(ctx, &quadrants, quadrantsQuery, listingID); err != nil {
		return nil, fmt.Errorf("FloorRepository.FloorsByListing quadrants: %w", err)
	}

	byFloor := make(map[string]int, len(floors))
	for i := range floors {
		floors[i].Quadrants = []model.Quadrant{}
		byFloor[floors[i].ID] = i
	}
	for _, q := range quadrants {
		if i, ok := byFloor[q.FloorID]; ok {
			floors[i].Quadrants = append(floors[i].Quadrants, q)
		}
	}
	return floors, nil
}

func (r *FloorRepository) UpdateQuadrantStatus(ctx context.Context, listingID, floorID, quadrantID string, status model.UnitStatus) error {
	const updateQuery = `
		UPDATE floor_quadrants q
		SET status = $1
		FROM project_floors f
		WHERE q.id = $2 AND q.floor_id = $3 AND f.id = q.floor_id AND f.listing_id = $4
	`
	res, err := r.db.ExecContext(ctx, updateQuery, string(status), quadrantID, floorID, listingID)
	if err != nil {
		return fmt.Errorf("FloorRepository.UpdateQuadrantStatus: %w", err)
	}
	return expectRow(res, "quadrant not found")
}

// replaceFloors deletes the current plan of listingID and inserts floors.
// Quadrants go with their floor via ON DELETE CASCADE.
func replaceFloors(ctx context.Context, tx *sqlx.Tx, listingID string, floors []model.Floor) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM project_floors WHERE listing_id = $1`, listingID); err != nil {
		return fmt.Errorf("delete floors: %w", err)
	}
	if err := insertFloors(ctx, tx, floors); err != nil {
		return fmt.Errorf("insert floors: %w", err)
	}
	return nil
}

func insertFloors(ctx context.Context, tx *sqlx.Tx, floors []model.Floor) error {
	for _, f := range floors {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO project_floors (id, listing_id, position, name)
			VALUES (:id, :listing_id, :position, :name)
		`, f); err != nil {
			return err
		}
		for _, q := range f.Quadrants {
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO floor_quadrants (id, floor_id, position, label, area, price, status)
				VALUES (:id, :floor_id, :position, :label, :area, :price, :status)
			`, q); err != nil {
				return err
			}
		}
	}
	return nil
}
