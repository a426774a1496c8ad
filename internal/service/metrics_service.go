package service

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"property-portal/internal/apperr"
	"property-portal/internal/model"
	"property-portal/internal/store"
	"property-portal/internal/visibility"
)

// RecentLimit is the number of newest listings shown on a dashboard.
const RecentLimit = 5

// Dashboard holds the counters shown to a signed-in user. Counts cover the
// listings that user's role can see with no filters applied.
type Dashboard struct {
	Role         model.Role       `json:"role"`
	Total        int              `json:"totalListings"`
	Pending      int              `json:"pendingListings"`
	Approved     int              `json:"approvedListings"`
	Rejected     int              `json:"rejectedListings"`
	ApprovalRate int              `json:"approvalRate"`
	Recent       []*model.Listing `json:"recentListings"`

	Agencies *AgencyTotals `json:"agencies,omitempty"`
	Agents   *int          `json:"agents,omitempty"`
}

type AgencyTotals struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type MetricsService struct {
	listings store.ListingStore
	users    store.UserStore
	agencies store.AgencyStore
}

func NewMetricsService(ls store.ListingStore, us store.UserStore, as store.AgencyStore) *MetricsService {
	return &MetricsService{listings: ls, users: us, agencies: as}
}

// ApprovalRate is approved/total as a rounded percentage, 0 when total is 0.
func ApprovalRate(approved, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(approved) / float64(total) * 100))
}

// Dashboard issues the independent counts concurrently and joins them.
func (s *MetricsService) Dashboard(ctx context.Context, r visibility.Requester) (*Dashboard, error) {
	if r.IsAnonymous() {
		return nil, apperr.Authentication("sign in to see metrics")
	}
	base := visibility.Scope(r, visibility.DefaultFilters())
	d := &Dashboard{Role: r.Role}

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, p visibility.Predicate) {
		g.Go(func() error {
			n, err := s.listings.Count(gctx, p)
			*dst = n
			return err
		})
	}
	count(&d.Total, base)
	count(&d.Pending, base.WithStatus(model.StatusPending))
	count(&d.Approved, base.WithStatus(model.StatusApproved))
	count(&d.Rejected, base.WithStatus(model.StatusRejected))

	g.Go(func() error {
		recent, err := s.listings.List(gctx, base, visibility.Sort{Field: visibility.SortCreatedAt, Desc: true}, RecentLimit, 0)
		d.Recent = visibility.ExposeAll(r, recent)
		return err
	})

	switch {
	case r.IsSuperAdmin():
		d.Agencies = &AgencyTotals{}
		agents := 0
		d.Agents = &agents
		g.Go(func() error {
			n, err := s.agencies.Count(gctx, false)
			d.Agencies.Total = n
			return err
		})
		g.Go(func() error {
			n, err := s.agencies.Count(gctx, true)
			d.Agencies.Active = n
			return err
		})
		g.Go(func() error {
			n, err := s.users.CountAgents(gctx, "")
			*d.Agents = n
			return err
		})
	case r.IsAgencyAdmin():
		agents := 0
		d.Agents = &agents
		g.Go(func() error {
			n, err := s.users.CountAgents(gctx, r.AgencyID)
			*d.Agents = n
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("MetricsService.Dashboard: %w", err)
	}
	d.ApprovalRate = ApprovalRate(d.Approved, d.Total)
	return d, nil
}
