// internal/app/system/paging/paging.go

// Package paging parses the limit/offset query parameters shared by the
// JSON list endpoints.
package paging

import (
	"net/http"
	"strconv"
)

// DefaultLimit is the page size used when the client does not ask for one.
const DefaultLimit = 50

// MaxLimit caps what a client may request in one page.
const MaxLimit = 500

// Page holds parsed pagination parameters.
type Page struct {
	Limit  int64
	Offset int64
}

// Parse reads limit/offset from the request query, clamping to sane bounds.
func Parse(r *http.Request) Page {
	p := Page{Limit: DefaultLimit}

	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			if n > MaxLimit {
				n = MaxLimit
			}
			p.Limit = int64(n)
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Offset = int64(n)
		}
	}
	return p
}
