package visibility

import "property-portal/internal/model"

// Requester is the identity a core operation runs on behalf of. The zero
// value is the anonymous public user.
type Requester struct {
	UserID   string
	Role     model.Role
	AgencyID string
}

func Anonymous() Requester { return Requester{} }

func Agent(userID, agencyID string) Requester {
	return Requester{UserID: userID, Role: model.RoleAgent, AgencyID: agencyID}
}

func AgencyAdmin(userID, agencyID string) Requester {
	return Requester{UserID: userID, Role: model.RoleAgencyAdmin, AgencyID: agencyID}
}

func SuperAdmin(userID string) Requester {
	return Requester{UserID: userID, Role: model.RoleSuperAdmin}
}

// FromUser builds the requester for an authenticated user.
func FromUser(u *model.User) Requester {
	if u == nil {
		return Anonymous()
	}
	r := Requester{UserID: u.ID, Role: u.Role}
	if u.AgencyID != nil && u.Role != model.RoleSuperAdmin {
		r.AgencyID = *u.AgencyID
	}
	return r
}

func (r Requester) IsAnonymous() bool { return r.UserID == "" }

func (r Requester) IsAgent() bool { return r.Role == model.RoleAgent && r.UserID != "" }

func (r Requester) IsSuperAdmin() bool { return r.Role == model.RoleSuperAdmin && r.UserID != "" }

func (r Requester) IsAgencyAdmin() bool {
	return r.Role == model.RoleAgencyAdmin && r.UserID != "" && r.AgencyID != ""
}

// CanReview reports whether r may approve or reject l.
func (r Requester) CanReview(l *model.Listing) bool {
	if r.IsSuperAdmin() {
		return true
	}
	return r.IsAgencyAdmin() && r.AgencyID == l.OwnerAgencyID
}

// Owns reports whether r is the agent that submitted l.
func (r Requester) Owns(l *model.Listing) bool {
	return r.IsAgent() && r.UserID == l.OwnerAgentID
}

// Manages reports whether r sees l in full regardless of its status.
func (r Requester) Manages(l *model.Listing) bool {
	return r.Owns(l) || r.CanReview(l)
}
