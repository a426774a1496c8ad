package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"property-portal/internal/apperr"
	"property-portal/internal/model"
	"property-portal/internal/store"
	"property-portal/internal/visibility"
)

// Memory is an in-process backend used by `serve --store memory` and tests.
// Reads and writes copy values so callers never share state with the store.
type Memory struct {
	Listings *MemoryListings
	Users    *MemoryUsers
	Agencies *MemoryAgencies
}

func NewMemory() *Memory {
	return &Memory{
		Listings: &MemoryListings{rows: map[string]*model.Listing{}},
		Users:    &MemoryUsers{rows: map[string]*model.User{}},
		Agencies: &MemoryAgencies{rows: map[string]*model.Agency{}},
	}
}

// MemoryListings implements store.ListingStore and store.FloorStore.
type MemoryListings struct {
	mu   sync.RWMutex
	rows map[string]*model.Listing
}

func (m *MemoryListings) Create(_ context.Context, l *model.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[l.ID] = l.Clone()
	return nil
}

func (m *MemoryListings) GetByID(_ context.Context, id string) (*model.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.rows[id]
	if !ok {
		return nil, apperr.NotFound("listing not found")
	}
	c := l.Clone()
	c.Floors = nil
	return c, nil
}

func (m *MemoryListings) UpdateStatus(_ context.Context, l *model.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[l.ID]
	if !ok {
		return apperr.NotFound("listing not found")
	}
	next := cur.Clone()
	next.Status = l.Status
	next.RejectionReason = nil
	if l.RejectionReason != nil {
		r := *l.RejectionReason
		next.RejectionReason = &r
	}
	next.UpdatedAt = l.UpdatedAt
	m.rows[l.ID] = next
	return nil
}

func (m *MemoryListings) Update(_ context.Context, l *model.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[l.ID]
	if !ok {
		return apperr.NotFound("listing not found")
	}
	next := l.Clone()
	next.Kind = cur.Kind
	next.OwnerAgentID = cur.OwnerAgentID
	next.OwnerAgencyID = cur.OwnerAgencyID
	next.CreatedAt = cur.CreatedAt
	if next.Kind != model.KindProject {
		next.Floors = nil
	}
	m.rows[l.ID] = next
	return nil
}

func (m *MemoryListings) List(_ context.Context, p visibility.Predicate, s visibility.Sort, limit, offset int) ([]*model.Listing, error) {
	m.mu.RLock()
	matched := make([]*model.Listing, 0, len(m.rows))
	for _, l := range m.rows {
		if p.Match(l) {
			c := l.Clone()
			c.Floors = nil
			matched = append(matched, c)
		}
	}
	m.mu.RUnlock()

	less := lessBy(s.Field)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if s.Desc {
			a, b = b, a
		}
		if c := less(a, b); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})

	if offset >= len(matched) {
		return []*model.Listing{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m *MemoryListings) Count(_ context.Context, p visibility.Predicate) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, l := range m.rows {
		if p.Match(l) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryListings) AppendMedia(_ context.Context, id string, col store.MediaColumn, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[id]
	if !ok {
		return apperr.NotFound("listing not found")
	}
	next := cur.Clone()
	switch col {
	case store.MediaImages:
		next.Images = append(next.Images, url)
	case store.MediaDocuments:
		next.Documents = append(next.Documents, url)
	default:
		return apperr.Validation("unknown media column", apperr.FieldErrors{"kind": "must be image or document"})
	}
	next.UpdatedAt = time.Now().UTC()
	m.rows[id] = next
	return nil
}

func (m *MemoryListings) FloorsByListing(_ context.Context, listingID string) ([]model.Floor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.rows[listingID]
	if !ok {
		return nil, nil
	}
	return l.Clone().Floors, nil
}

func (m *MemoryListings) UpdateQuadrantStatus(_ context.Context, listingID, floorID, quadrantID string, status model.UnitStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[listingID]
	if !ok {
		return apperr.NotFound("quadrant not found")
	}
	next := cur.Clone()
	for i := range next.Floors {
		if next.Floors[i].ID != floorID {
			continue
		}
		for j := range next.Floors[i].Quadrants {
			if next.Floors[i].Quadrants[j].ID == quadrantID {
				next.Floors[i].Quadrants[j].Status = status
				m.rows[listingID] = next
				return nil
			}
		}
	}
	return apperr.NotFound("quadrant not found")
}

// lessBy returns a three-way comparison on field.
func lessBy(field visibility.SortField) func(a, b *model.Listing) int {
	switch field {
	case visibility.SortUpdatedAt:
		return func(a, b *model.Listing) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case visibility.SortPrice:
		return func(a, b *model.Listing) int { return cmpOrdered(a.Price, b.Price) }
	case visibility.SortBedrooms:
		return func(a, b *model.Listing) int { return cmpOrdered(a.Bedrooms, b.Bedrooms) }
	case visibility.SortBathrooms:
		return func(a, b *model.Listing) int { return cmpOrdered(a.Bathrooms, b.Bathrooms) }
	case visibility.SortArea:
		return func(a, b *model.Listing) int { return cmpOrdered(a.Area, b.Area) }
	case visibility.SortTitle:
		return func(a, b *model.Listing) int { return strings.Compare(a.Title, b.Title) }
	default:
		return func(a, b *model.Listing) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

func cmpOrdered[T int | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type MemoryUsers struct {
	mu   sync.RWMutex
	rows map[string]*model.User
}

func (m *MemoryUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.rows {
		if cur.AuthID == u.AuthID {
			return apperr.Validation("user already registered", apperr.FieldErrors{"authId": "already in use"})
		}
	}
	c := *u
	m.rows[u.ID] = &c
	return nil
}

func (m *MemoryUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	c := *u
	return &c, nil
}

func (m *MemoryUsers) GetByAuthID(_ context.Context, authID string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.rows {
		if u.AuthID == authID {
			c := *u
			return &c, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (m *MemoryUsers) CountAgents(_ context.Context, agencyID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, u := range m.rows {
		if u.Role != model.RoleAgent {
			continue
		}
		if agencyID == "" || (u.AgencyID != nil && *u.AgencyID == agencyID) {
			n++
		}
	}
	return n, nil
}

type MemoryAgencies struct {
	mu   sync.RWMutex
	rows map[string]*model.Agency
}

func (m *MemoryAgencies) Create(_ context.Context, a *model.Agency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *a
	m.rows[a.ID] = &c
	return nil
}

func (m *MemoryAgencies) GetByID(_ context.Context, id string) (*model.Agency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, apperr.NotFound("agency not found")
	}
	c := *a
	return &c, nil
}

func (m *MemoryAgencies) Count(_ context.Context, activeOnly bool) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.rows {
		if !activeOnly || a.Active {
			n++
		}
	}
	return n, nil
}

var (
	_ store.ListingStore = (*MemoryListings)(nil)
	_ store.FloorStore   = (*MemoryListings)(nil)
	_ store.UserStore    = (*MemoryUsers)(nil)
	_ store.AgencyStore  = (*MemoryAgencies)(nil)
	_ store.ListingStore = (*ListingRepository)(nil)
	_ store.FloorStore   = (*FloorRepository)(nil)
	_ store.UserStore    = (*UserRepository)(nil)
	_ store.AgencyStore  = (*AgencyRepository)(nil)
)
