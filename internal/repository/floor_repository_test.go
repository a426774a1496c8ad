package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-portal/internal/apperr"
	"property-portal/internal/model"
)

func project(floors ...model.Floor) *model.Listing {
	return &model.Listing{ID: "p1", Kind: model.KindProject, Status: model.StatusPending, Floors: floors}
}

func TestListingRepositoryUpdateReplacesFloors(t *testing.T) {
	db, mock := newMock(t)
	repo := NewListingRepository(db)
	l := project(model.Floor{ID: "f1", ListingID: "p1", Name: "Ground", Quadrants: []model.Quadrant{
		{ID: "q1", FloorID: "f1", Label: "G1", Status: model.UnitAvailable},
	}})

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE listings SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM project_floors WHERE listing_id = $1`)).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO project_floors`).
		WithArgs("f1", "p1", 0, "Ground").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO floor_quadrants`).
		WithArgs("q1", "f1", 0, "G1", 0.0, 0.0, string(model.UnitAvailable)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), l))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositoryUpdateRollsBackOnFloorFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewListingRepository(db)
	l := project(model.Floor{ID: "f1", ListingID: "p1", Name: "Ground"})

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE listings SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM project_floors`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO project_floors`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Update(context.Background(), l)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositoryUpdateRollsBackOnDeleteFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewListingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE listings SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM project_floors`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Update(context.Background(), project())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositoryUpdateProperty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewListingRepository(db)
	l := &model.Listing{ID: "h1", Kind: model.KindProperty, Status: model.StatusPending}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE listings SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Update(context.Background(), l))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE listings SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	err := repo.Update(context.Background(), l)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFloorRepositoryFloorsByListing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFloorRepository(db)

	mock.ExpectQuery(`FROM project_floors\s+WHERE listing_id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "listing_id", "position", "name"}).
			AddRow("f1", "p1", 0, "Ground").
			AddRow("f2", "p1", 1, "First"))
	mock.ExpectQuery(`FROM floor_quadrants q\s+JOIN project_floors f`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "floor_id", "position", "label", "area", "price", "status"}).
			AddRow("q1", "f2", 0, "101", 55.0, 90000.0, "RESERVED"))

	floors, err := repo.FloorsByListing(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, floors, 2)
	assert.Empty(t, floors[0].Quadrants)
	require.Len(t, floors[1].Quadrants, 1)
	assert.Equal(t, model.UnitReserved, floors[1].Quadrants[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFloorRepositoryUpdateQuadrantStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFloorRepository(db)

	mock.ExpectExec(`UPDATE floor_quadrants q\s+SET status = \$1\s+FROM project_floors f\s+WHERE q.id = \$2 AND q.floor_id = \$3 AND f.id = q.floor_id AND f.listing_id = \$4`).
		WithArgs("RESERVED", "q1", "f1", "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateQuadrantStatus(context.Background(), "p1", "f1", "q1", model.UnitReserved))

	mock.ExpectExec(`UPDATE floor_quadrants`).
		WithArgs("AVAILABLE", "q1", "f1", "other").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateQuadrantStatus(context.Background(), "other", "f1", "q1", model.UnitAvailable)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
