package httpx

import (
	"net/http"
	"strconv"

	"github.com/escolafut/escola-api/internal/domain/model"
	"github.com/escolafut/escola-api/internal/service"
)

// reservedQueryParams are never treated as column filters.
var reservedQueryParams = map[string]struct{}{ //nolint:gochecknoglobals // read-only set
	"limit":  {},
	"offset": {},
}

// parseIntQuery returns the integer value of a query param or a default.
// It is tolerant of missing/invalid values.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// parseListOptions reads paging and equality filters. Paging is normalized
// here so the limit echoed to the client is the one the store applies;
// unknown columns are rejected by the scoped store.
func parseListOptions(r *http.Request) model.ListOptions {
	opts := service.NormalizePage(model.ListOptions{
		Limit:  parseIntQuery(r, "limit", 0),
		Offset: parseIntQuery(r, "offset", 0),
	})
	for key, vals := range r.URL.Query() {
		if _, reserved := reservedQueryParams[key]; reserved || len(vals) == 0 {
			continue
		}
		if opts.Filters == nil {
			opts.Filters = make(map[string]string)
		}
		opts.Filters[key] = vals[0]
	}
	return opts
}
