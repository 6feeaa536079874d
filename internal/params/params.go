package params

import (
	"net/url"
	"strconv"
	"strings"
)

// Pagination is the parsed, clamped ?page=&limit= pair forwarded to the
// commerce API as pageNumber/pageSize.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

const (
	defaultLimit = 20
	maxLimit     = 50
)

// ParsePagination parses ?page=...&limit=... safely. Keys are case sensitive.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{Page: 1, Limit: defaultLimit}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case limit <= 0:
				p.Limit = defaultLimit
			case limit > maxLimit:
				p.Limit = maxLimit
			default:
				p.Limit = limit
			}
		}
	}

	if pageStr := strings.TrimSpace(q.Get("page")); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			p.Page = page
		}
	}

	return p
}
