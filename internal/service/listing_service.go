package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"property-portal/internal/apperr"
	"property-portal/internal/lifecycle"
	"property-portal/internal/media"
	"property-portal/internal/model"
	"property-portal/internal/store"
	"property-portal/internal/validation"
	"property-portal/internal/visibility"
)

// ListingService runs listing reads through the visibility rules and
// listing writes through the lifecycle rules.
type ListingService struct {
	listings store.ListingStore
	floors   store.FloorStore
	media    media.Store
	log      *slog.Logger
	now      func() time.Time
}

// NewListingService wires the service. m may be nil when no media backend
// is configured.
func NewListingService(ls store.ListingStore, fs store.FloorStore, m media.Store, logger *slog.Logger) *ListingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingService{
		listings: ls,
		floors:   fs,
		media:    m,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Feed is one page of a listing query.
type Feed struct {
	Listings   []*model.Listing      `json:"listings"`
	TotalCount int                   `json:"totalCount"`
	HasMore    bool                  `json:"hasMore"`
	Pagination visibility.Pagination `json:"pagination"`
}

// List returns the page of listings r may see under f.
func (s *ListingService) List(ctx context.Context, r visibility.Requester, f visibility.Filters) (*Feed, error) {
	p := visibility.Scope(r, f)

	var (
		total int
		page  []*model.Listing
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.listings.Count(gctx, p)
		total = n
		return err
	})
	g.Go(func() error {
		ls, err := s.listings.List(gctx, p, f.Sort, f.Limit, f.Offset)
		page = ls
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ListingService.List: %w", err)
	}

	pagination, hasMore := visibility.Paginate(total, f.Limit, f.Offset)
	return &Feed{
		Listings:   visibility.ExposeAll(r, page),
		TotalCount: total,
		HasMore:    hasMore,
		Pagination: pagination,
	}, nil
}

// Get returns one listing as r may see it. Listings r cannot see are
// reported as not found.
func (s *ListingService) Get(ctx context.Context, r visibility.Requester, id string) (*model.Listing, error) {
	l, err := s.visible(ctx, r, id)
	if err != nil {
		return nil, err
	}
	if l.Kind == model.KindProject {
		floors, err := s.floors.FloorsByListing(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("ListingService.Get floors: %w", err)
		}
		l.Floors = floors
	}
	return visibility.Expose(r, l), nil
}

func (s *ListingService) Create(ctx context.Context, r visibility.Requester, d validation.ListingDraft) (*model.Listing, error) {
	l, err := lifecycle.Create(r, d, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.listings.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("ListingService.Create: %w", err)
	}
	s.log.InfoContext(ctx, "listing created",
		slog.String("listing_id", l.ID),
		slog.String("kind", string(l.Kind)),
		slog.String("agent_id", l.OwnerAgentID),
		slog.String("agency_id", l.OwnerAgencyID),
	)
	return l, nil
}

func (s *ListingService) Approve(ctx context.Context, r visibility.Requester, id string) (*model.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := l.Status
	if err := lifecycle.Approve(l, r, s.now()); err != nil {
		return nil, err
	}
	if err := s.listings.UpdateStatus(ctx, l); err != nil {
		return nil, fmt.Errorf("ListingService.Approve: %w", err)
	}
	s.logTransition(ctx, l, from, r)
	return l, nil
}

func (s *ListingService) Reject(ctx context.Context, r visibility.Requester, id, reason string) (*model.Listing, error) {
	if _, err := validation.RejectionReason(reason); err != nil {
		return nil, err
	}
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := l.Status
	if err := lifecycle.Reject(l, r, reason, s.now()); err != nil {
		return nil, err
	}
	if err := s.listings.UpdateStatus(ctx, l); err != nil {
		return nil, fmt.Errorf("ListingService.Reject: %w", err)
	}
	s.logTransition(ctx, l, from, r)
	return l, nil
}

// Resubmit returns a rejected listing to the review queue, applying d
// first when it is non-nil.
func (s *ListingService) Resubmit(ctx context.Context, r visibility.Requester, id string, d *validation.ListingDraft) (*model.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := l.Status
	if err := lifecycle.Resubmit(l, r, d, s.now()); err != nil {
		return nil, err
	}

	if d == nil {
		err = s.listings.UpdateStatus(ctx, l)
	} else {
		err = s.listings.Update(ctx, l)
	}
	if err != nil {
		return nil, fmt.Errorf("ListingService.Resubmit: %w", err)
	}
	s.logTransition(ctx, l, from, r)
	return l, nil
}

// AttachMedia uploads a file for a listing owned by r and records its URL.
func (s *ListingService) AttachMedia(ctx context.Context, r visibility.Requester, id string, col store.MediaColumn, name, contentType string, body io.Reader) (*model.Listing, error) {
	if s.media == nil {
		return nil, apperr.Internal("media storage is not configured", nil)
	}
	if col != store.MediaImages && col != store.MediaDocuments {
		return nil, apperr.Validation("invalid media kind", apperr.FieldErrors{"kind": "must be image or document"})
	}
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.Owns(l) {
		if !visibility.CanView(r, l) {
			return nil, apperr.NotFound("listing not found")
		}
		return nil, apperr.Authorization("only the owning agent can upload media")
	}

	url, err := s.media.Put(ctx, media.SafeName(name), contentType, body)
	if err != nil {
		return nil, fmt.Errorf("ListingService.AttachMedia upload: %w", err)
	}
	if err := s.listings.AppendMedia(ctx, l.ID, col, url); err != nil {
		return nil, fmt.Errorf("ListingService.AttachMedia: %w", err)
	}
	return s.listings.GetByID(ctx, l.ID)
}

// Floors returns the floor plan of a project r can see. Properties have none.
func (s *ListingService) Floors(ctx context.Context, r visibility.Requester, id string) ([]model.Floor, error) {
	l, err := s.visible(ctx, r, id)
	if err != nil {
		return nil, err
	}
	if l.Kind != model.KindProject {
		return []model.Floor{}, nil
	}
	floors, err := s.floors.FloorsByListing(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("ListingService.Floors: %w", err)
	}
	if floors == nil {
		floors = []model.Floor{}
	}
	return floors, nil
}

// SetQuadrantStatus is a direct edit by a reviewer of the owning agency; unit
// availability has no transition rules.
func (s *ListingService) SetQuadrantStatus(ctx context.Context, r visibility.Requester, listingID, floorID, quadrantID, status string) error {
	st, err := validation.UnitStatus(status)
	if err != nil {
		return err
	}
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if !r.CanReview(l) {
		if !visibility.CanView(r, l) {
			return apperr.NotFound("listing not found")
		}
		return apperr.Authorization("not allowed to edit units of this listing")
	}
	if l.Kind != model.KindProject {
		return apperr.NotFound("quadrant not found")
	}
	if err := s.floors.UpdateQuadrantStatus(ctx, listingID, floorID, quadrantID, st); err != nil {
		return fmt.Errorf("ListingService.SetQuadrantStatus: %w", err)
	}
	return nil
}

func (s *ListingService) visible(ctx context.Context, r visibility.Requester, id string) (*model.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibility.CanView(r, l) {
		return nil, apperr.NotFound("listing not found")
	}
	return l, nil
}

func (s *ListingService) logTransition(ctx context.Context, l *model.Listing, from model.Status, r visibility.Requester) {
	s.log.InfoContext(ctx, "listing status changed",
		slog.String("listing_id", l.ID),
		slog.String("from", string(from)),
		slog.String("to", string(l.Status)),
		slog.String("actor_id", r.UserID),
		slog.String("actor_role", string(r.Role)),
	)
}
