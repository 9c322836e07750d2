package listquery

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dentflow/dentflow/pkg/civil"
)

// Params carries the list-query inputs extracted from a request.
type Params struct {
	Search  string
	Filters map[string][]string
}

// FromContext pulls the search term and every filter_<field> query parameter
// from the request. Filter keys keep their field name without the prefix;
// whether a field is actually filterable is decided later against the
// entity's whitelist.
func FromContext(c echo.Context) Params {
	p := Params{
		Search:  c.QueryParam("search"),
		Filters: make(map[string][]string),
	}

	for key, values := range c.QueryParams() {
		field := strings.TrimPrefix(key, "filter_")
		if field == key || field == "" {
			continue
		}
		for _, v := range values {
			if v == "" {
				continue
			}
			p.Filters[field] = append(p.Filters[field], v)
		}
	}

	return p
}

// PruneDates drops filter values for the named fields that are not valid
// ISO dates. A malformed filter_date is treated as if it were absent rather
// than handed to the database, where it would fail as a type error.
func (p Params) PruneDates(fields ...string) Params {
	for _, field := range fields {
		values, ok := p.Filters[field]
		if !ok {
			continue
		}
		kept := values[:0]
		for _, v := range values {
			if _, err := civil.ParseDate(v); err == nil {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			delete(p.Filters, field)
		} else {
			p.Filters[field] = kept
		}
	}
	return p
}
