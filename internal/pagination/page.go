package pagination

// DefaultLimit is applied when a caller supplies no limit.
const DefaultLimit = 20

// MaxLimit caps a single page to keep list queries bounded.
const MaxLimit = 100

// Page represents offset-based pagination parameters.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page parameters to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// PageResult represents an offset-paginated result set.
type PageResult[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// NewPageResult computes HasMore from the page window and the total count of
// the filtered result set.
func NewPageResult[T any](items []T, total int, page Page) PageResult[T] {
	return PageResult[T]{
		Items:   items,
		Total:   total,
		HasMore: page.Offset+len(items) < total,
	}
}
