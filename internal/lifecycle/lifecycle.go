// Package lifecycle owns the legal approval transitions of a listing.
//
// Every function mutates the listing it is given and leaves persistence to the
// caller. A failed call leaves the listing untouched.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"property-portal/internal/apperr"
	"property-portal/internal/model"
	"property-portal/internal/validation"
	"property-portal/internal/visibility"
)

// Approved listings are final: nothing leaves APPROVED.
var transitions = map[model.Status][]model.Status{
	model.StatusPending:  {model.StatusApproved, model.StatusRejected},
	model.StatusRejected: {model.StatusPending, model.StatusApproved},
	model.StatusApproved: nil,
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to model.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func checkTransition(l *model.Listing, to model.Status) error {
	if !CanTransition(l.Status, to) {
		return apperr.InvalidState(fmt.Sprintf("listing is %s and cannot become %s", l.Status, to))
	}
	return nil
}

// Create builds a new PENDING listing owned by the agent in actor. Any status
// in the draft is ignored.
func Create(actor visibility.Requester, d validation.ListingDraft, now time.Time) (*model.Listing, error) {
	if !actor.IsAgent() {
		return nil, apperr.Authorization("only agents can create listings")
	}
	if actor.AgencyID == "" {
		return nil, apperr.Authorization("agent does not belong to an agency")
	}
	d, err := validation.Listing(d)
	if err != nil {
		return nil, err
	}

	l := &model.Listing{
		ID:            uuid.NewString(),
		OwnerAgentID:  actor.UserID,
		OwnerAgencyID: actor.AgencyID,
		Status:        model.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	d.ApplyTo(l)
	if l.Kind == model.KindProject {
		l.Floors = BuildFloors(l.ID, d.Floors)
	}
	return l, nil
}

// Approve moves l to APPROVED and clears any rejection reason.
func Approve(l *model.Listing, reviewer visibility.Requester, now time.Time) error {
	if !reviewer.CanReview(l) {
		return apperr.Authorization("not allowed to review this listing")
	}
	if err := checkTransition(l, model.StatusApproved); err != nil {
		return err
	}
	l.Status = model.StatusApproved
	l.RejectionReason = nil
	l.UpdatedAt = now
	return nil
}

// Reject moves l to REJECTED with a mandatory reason.
func Reject(l *model.Listing, reviewer visibility.Requester, reason string, now time.Time) error {
	reason, err := validation.RejectionReason(reason)
	if err != nil {
		return err
	}
	if !reviewer.CanReview(l) {
		return apperr.Authorization("not allowed to review this listing")
	}
	if err := checkTransition(l, model.StatusRejected); err != nil {
		return err
	}
	l.Status = model.StatusRejected
	l.RejectionReason = &reason
	l.UpdatedAt = now
	return nil
}

// Resubmit sends a rejected listing back to review. When d is non-nil its
// fields replace the listing's editable fields; the kind cannot change.
func Resubmit(l *model.Listing, actor visibility.Requester, d *validation.ListingDraft, now time.Time) error {
	if !actor.Owns(l) {
		return apperr.Authorization("only the owning agent can resubmit")
	}
	if err := checkTransition(l, model.StatusPending); err != nil {
		return err
	}
	if d != nil {
		in := *d
		if in.Kind == "" {
			in.Kind = string(l.Kind)
		}
		draft, err := validation.Listing(in)
		if err != nil {
			return err
		}
		if model.Kind(draft.Kind) != l.Kind {
			return apperr.Validation("invalid listing", apperr.FieldErrors{"kind": "cannot be changed"})
		}
		draft.ApplyTo(l)
		if l.Kind == model.KindProject {
			l.Floors = BuildFloors(l.ID, draft.Floors)
		}
	}
	l.Status = model.StatusPending
	l.RejectionReason = nil
	l.UpdatedAt = now
	return nil
}

// BuildFloors assigns ids and positions to the floors of a project draft.
func BuildFloors(listingID string, drafts []validation.FloorDraft) []model.Floor {
	floors := make([]model.Floor, 0, len(drafts))
	for i, fd := range drafts {
		f := model.Floor{
			ID:        uuid.NewString(),
			ListingID: listingID,
			Position:  i,
			Name:      fd.Name,
			Quadrants: make([]model.Quadrant, 0, len(fd.Quadrants)),
		}
		for j, qd := range fd.Quadrants {
			f.Quadrants = append(f.Quadrants, model.Quadrant{
				ID:       uuid.NewString(),
				FloorID:  f.ID,
				Position: j,
				Label:    qd.Label,
				Area:     qd.Area,
				Price:    qd.Price,
				Status:   model.UnitStatus(qd.Status),
			})
		}
		floors = append(floors, f)
	}
	return floors
}
