// Package store declares the persistence contracts of the service. The
// postgres and in-memory implementations live in internal/repository.
package store

import (
	"context"

	"property-portal/internal/model"
	"property-portal/internal/visibility"
)

// MediaColumn names a listing column holding uploaded file URLs.
type MediaColumn string

const (
	MediaImages    MediaColumn = "images"
	MediaDocuments MediaColumn = "documents"
)

type ListingStore interface {
	// Create inserts l and, for projects, its floors.
	Create(ctx context.Context, l *model.Listing) error
	// GetByID returns a NotFound error when no listing has id.
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	// UpdateStatus writes status, rejection reason and updated_at only.
	UpdateStatus(ctx context.Context, l *model.Listing) error
	// Update writes every editable field plus the status columns. For
	// projects the floor plan is replaced by l.Floors in the same transaction.
	Update(ctx context.Context, l *model.Listing) error
	List(ctx context.Context, p visibility.Predicate, sort visibility.Sort, limit, offset int) ([]*model.Listing, error)
	Count(ctx context.Context, p visibility.Predicate) (int, error)
	AppendMedia(ctx context.Context, id string, col MediaColumn, url string) error
}

type FloorStore interface {
	FloorsByListing(ctx context.Context, listingID string) ([]model.Floor, error)
	UpdateQuadrantStatus(ctx context.Context, listingID, floorID, quadrantID string, status model.UnitStatus) error
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByAuthID(ctx context.Context, authID string) (*model.User, error)
	// CountAgents counts users with role AGENT, in agencyID when non-empty.
	CountAgents(ctx context.Context, agencyID string) (int, error)
}

type AgencyStore interface {
	Create(ctx context.Context, a *model.Agency) error
	GetByID(ctx context.Context, id string) (*model.Agency, error)
	Count(ctx context.Context, activeOnly bool) (int, error)
}
