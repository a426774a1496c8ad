// Package visibility decides which listings, and which of their fields, a
// requester may read.
package visibility

import (
	"strings"

	"property-portal/internal/model"
)

// Predicate is a conjunction of listing conditions. Zero-valued fields do not
// restrict. The repository compiles it to SQL; Match evaluates it in memory.
type Predicate struct {
	Status          *model.Status
	OwnerAgentID    string
	OwnerAgencyID   string
	Kind            *model.Kind
	Type            *model.PropertyType
	TransactionType *model.TransactionType

	City     string
	State    string
	Location string

	MinPrice     *float64
	MaxPrice     *float64
	MinBedrooms  *int
	MaxBedrooms  *int
	MinBathrooms *int
	MaxBathrooms *int
	MinArea      *float64
	MaxArea      *float64

	Features []string
	Search   string
}

// WithStatus returns a copy of p restricted to s.
func (p Predicate) WithStatus(s model.Status) Predicate {
	p.Status = &s
	p.Features = append([]string(nil), p.Features...)
	return p
}

// Scope applies the role rule for r on top of the caller supplied criteria.
func Scope(r Requester, f Filters) Predicate {
	p := f.Predicate
	p.Features = append([]string(nil), f.Features...)

	switch {
	case r.IsSuperAdmin():
	case r.IsAgencyAdmin():
		p.OwnerAgencyID = r.AgencyID
	case r.IsAgent():
		if f.OwnerAgentID != "" && f.OwnerAgentID != r.UserID {
			// someone else's listings: public view
			return p.WithStatus(model.StatusApproved)
		}
		p.OwnerAgentID = r.UserID
	default:
		return p.WithStatus(model.StatusApproved)
	}
	return p
}

// Match reports whether l satisfies every condition of p.
func (p Predicate) Match(l *model.Listing) bool {
	if p.Status != nil && l.Status != *p.Status {
		return false
	}
	if p.OwnerAgentID != "" && l.OwnerAgentID != p.OwnerAgentID {
		return false
	}
	if p.OwnerAgencyID != "" && l.OwnerAgencyID != p.OwnerAgencyID {
		return false
	}
	if p.Kind != nil && l.Kind != *p.Kind {
		return false
	}
	if p.Type != nil && l.Type != *p.Type {
		return false
	}
	if p.TransactionType != nil && l.TransactionType != *p.TransactionType {
		return false
	}
	if p.City != "" && !containsFold(l.City, p.City) {
		return false
	}
	if p.State != "" && !containsFold(l.State, p.State) {
		return false
	}
	if p.Location != "" && !containsFold(l.Address, p.Location) &&
		!containsFold(l.City, p.Location) && !containsFold(l.State, p.Location) {
		return false
	}
	if !inRange(l.Price, p.MinPrice, p.MaxPrice) || !inRange(l.Area, p.MinArea, p.MaxArea) {
		return false
	}
	if !inRange(l.Bedrooms, p.MinBedrooms, p.MaxBedrooms) || !inRange(l.Bathrooms, p.MinBathrooms, p.MaxBathrooms) {
		return false
	}
	for _, want := range p.Features {
		if !hasFeature(l.Features, want) {
			return false
		}
	}
	if p.Search != "" && !containsFold(l.Title, p.Search) && !containsFold(l.Description, p.Search) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func inRange[T int | float64](v T, lo, hi *T) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

func hasFeature(features []string, want string) bool {
	for _, f := range features {
		if f == want {
			return true
		}
	}
	return false
}
