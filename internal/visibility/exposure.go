package visibility

import "property-portal/internal/model"

// CanView reports whether r may read l at all. Approved listings are public.
func CanView(r Requester, l *model.Listing) bool {
	return l.Status == model.StatusApproved || r.Manages(l)
}

// Expose returns the view of l that r is allowed to see. Managers get the
// listing as stored; everyone else gets a copy without review notes or
// private documents.
func Expose(r Requester, l *model.Listing) *model.Listing {
	if r.Manages(l) {
		return l
	}
	pub := l.Clone()
	pub.RejectionReason = nil
	pub.Documents = nil
	return pub
}

// ExposeAll applies Expose to every listing in ls.
func ExposeAll(r Requester, ls []*model.Listing) []*model.Listing {
	out := make([]*model.Listing, 0, len(ls))
	for _, l := range ls {
		out = append(out, Expose(r, l))
	}
	return out
}
