package visibility

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"property-portal/internal/apperr"
	"property-portal/internal/model"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// SortField is a sortable scalar listing field, named as it appears in JSON.
type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortPrice     SortField = "price"
	SortBedrooms  SortField = "bedrooms"
	SortBathrooms SortField = "bathrooms"
	SortArea      SortField = "area"
	SortTitle     SortField = "title"
)

var sortColumns = map[SortField]string{
	SortCreatedAt: "created_at",
	SortUpdatedAt: "updated_at",
	SortPrice:     "price",
	SortBedrooms:  "bedrooms",
	SortBathrooms: "bathrooms",
	SortArea:      "area",
	SortTitle:     "title",
}

// Column returns the SQL column for f, or "" if f is not sortable.
func (f SortField) Column() string { return sortColumns[f] }

type Sort struct {
	Field SortField
	Desc  bool
}

// Filters is a parsed listing query: caller criteria plus ordering and paging.
// The embedded predicate holds what the caller asked for before any role rule.
type Filters struct {
	Predicate
	Sort   Sort
	Limit  int
	Offset int
}

// DefaultFilters returns an unfiltered first page, newest first.
func DefaultFilters() Filters {
	return Filters{Sort: Sort{Field: SortCreatedAt, Desc: true}, Limit: DefaultLimit}
}

// ParseFilters reads a listing query string. Any malformed value fails the
// whole query.
func ParseFilters(q url.Values) (Filters, error) {
	f := DefaultFilters()
	p := &parser{q: q, errs: apperr.FieldErrors{}}

	if s := p.enum("status"); s != "" {
		st := model.Status(s)
		if !st.Valid() {
			p.errs["status"] = "must be one of PENDING, APPROVED, REJECTED"
		}
		f.Status = &st
	}
	if s := p.enum("kind"); s != "" {
		k := model.Kind(s)
		if !k.Valid() {
			p.errs["kind"] = "must be one of PROPERTY, PROJECT"
		}
		f.Kind = &k
	}
	if s := p.enum("type"); s != "" {
		t := model.PropertyType(s)
		if !t.Valid() {
			p.errs["type"] = "must be one of HOUSE, APARTMENT, LAND, COMMERCIAL, OFFICE"
		}
		f.Type = &t
	}
	if s := p.enum("transactionType"); s != "" {
		t := model.TransactionType(s)
		if !t.Valid() {
			p.errs["transactionType"] = "must be one of SALE, RENT"
		}
		f.TransactionType = &t
	}

	f.City = p.str("city")
	f.State = p.str("state")
	f.Location = p.str("location")
	f.Search = p.str("search")
	f.OwnerAgentID = p.str("agentId")
	f.OwnerAgencyID = p.str("agencyId")

	f.MinPrice = p.float("minPrice")
	f.MaxPrice = p.float("maxPrice")
	f.MinArea = p.float("minArea")
	f.MaxArea = p.float("maxArea")
	f.MinBedrooms = p.int("minBedrooms")
	f.MaxBedrooms = p.int("maxBedrooms")
	f.MinBathrooms = p.int("minBathrooms")
	f.MaxBathrooms = p.int("maxBathrooms")

	for _, key := range []string{"features", "features[]"} {
		for _, v := range q[key] {
			for _, feat := range strings.Split(v, ",") {
				if feat = strings.TrimSpace(feat); feat != "" {
					f.Features = append(f.Features, feat)
				}
			}
		}
	}

	if s := p.str("sortBy"); s != "" {
		f.Sort.Field = SortField(s)
		if f.Sort.Field.Column() == "" {
			p.errs["sortBy"] = "unknown sort field"
		}
	}
	switch strings.ToLower(p.str("sortOrder")) {
	case "":
	case "asc":
		f.Sort.Desc = false
	case "desc":
		f.Sort.Desc = true
	default:
		p.errs["sortOrder"] = "must be asc or desc"
	}

	if v := p.int("limit"); v != nil {
		switch {
		case *v <= 0:
			p.errs["limit"] = "must be positive"
		case *v > MaxLimit:
			f.Limit = MaxLimit
		default:
			f.Limit = *v
		}
	}
	if v := p.int("offset"); v != nil {
		if *v < 0 {
			p.errs["offset"] = "must not be negative"
		}
		f.Offset = *v
	}

	if len(p.errs) > 0 {
		return Filters{}, apperr.Validation("invalid listing filters", p.errs)
	}
	return f, nil
}

type parser struct {
	q    url.Values
	errs apperr.FieldErrors
}

func (p *parser) str(key string) string {
	return strings.TrimSpace(p.q.Get(key))
}

func (p *parser) enum(key string) string {
	return strings.ToUpper(p.str(key))
}

func (p *parser) float(key string) *float64 {
	s := p.str(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.errs[key] = "must be a number"
		return nil
	}
	return &v
}

func (p *parser) int(key string) *int {
	s := p.str(key)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.errs[key] = "must be an integer"
		return nil
	}
	return &v
}
