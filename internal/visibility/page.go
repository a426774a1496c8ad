package visibility

// Pagination describes the window returned by a listing query.
type Pagination struct {
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

// Paginate computes the page metadata for total matching rows.
func Paginate(total, limit, offset int) (Pagination, bool) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	p := Pagination{
		Limit:      limit,
		Offset:     offset,
		Page:       offset/limit + 1,
		TotalPages: (total + limit - 1) / limit,
	}
	return p, offset+limit < total
}
