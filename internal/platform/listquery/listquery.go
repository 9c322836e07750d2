// Package listquery builds the SQL behind list endpoints: free-text search
// over a whitelisted column set, field filters, deterministic ordering and
// pagination, all sharing one predicate set so the page and the total count
// can never disagree.
package listquery

import (
	"fmt"
	"strings"
)

// Builder accumulates predicates for a list query. Placeholders are numbered
// incrementally so the generated SQL runs against pgx as-is.
type Builder struct {
	columns string
	from    string
	joins   []string
	conds   []string
	args    []interface{}
	orderBy string
}

// New creates a Builder selecting columns from the given FROM clause
// (table name, optionally aliased).
func New(columns, from string) *Builder {
	return &Builder{columns: columns, from: from}
}

// Join appends a join clause, e.g. "JOIN patients p ON p.id = a.patient_id".
func (b *Builder) Join(clause string) *Builder {
	b.joins = append(b.joins, clause)
	return b
}

// Search adds a case-insensitive substring match OR-ed across the given
// columns. Empty terms and empty column sets are no-ops. Columns are the
// caller's whitelist; nothing outside it is ever touched.
func (b *Builder) Search(term string, columns []string) *Builder {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return b
	}

	b.args = append(b.args, "%"+term+"%")
	n := len(b.args)

	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, n)
	}
	b.conds = append(b.conds, "("+strings.Join(parts, " OR ")+")")
	return b
}

// Filter adds exact-match predicates for the given request filters. The
// whitelist maps request field names to SQL columns; filters whose key is not
// in the whitelist are silently ignored. A filter with several values matches
// any of them.
func (b *Builder) Filter(filters map[string][]string, whitelist map[string]string) *Builder {
	for field, values := range filters {
		col, ok := whitelist[field]
		if !ok || len(values) == 0 {
			continue
		}

		if len(values) == 1 {
			b.args = append(b.args, values[0])
			b.conds = append(b.conds, fmt.Sprintf("%s = $%d", col, len(b.args)))
		} else {
			b.args = append(b.args, values)
			b.conds = append(b.conds, fmt.Sprintf("%s = ANY($%d)", col, len(b.args)))
		}
	}
	return b
}

// OrderBy sets the ORDER BY clause (without the keyword). List queries must
// always set one so page boundaries are stable.
func (b *Builder) OrderBy(clause string) *Builder {
	b.orderBy = clause
	return b
}

func (b *Builder) whereClause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

func (b *Builder) fromClause() string {
	from := " FROM " + b.from
	for _, j := range b.joins {
		from += " " + j
	}
	return from
}

// Query returns the page query and its arguments. LIMIT and OFFSET are
// appended after every predicate, so pagination always applies to the
// filtered result set.
func (b *Builder) Query(limit, offset int) (string, []interface{}) {
	q := "SELECT " + b.columns + b.fromClause() + b.whereClause()
	if b.orderBy != "" {
		q += " ORDER BY " + b.orderBy
	}

	args := make([]interface{}, len(b.args), len(b.args)+2)
	copy(args, b.args)
	args = append(args, limit, offset)
	q += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return q, args
}

// CountQuery returns the COUNT query over the same predicates as Query.
func (b *Builder) CountQuery() (string, []interface{}) {
	q := "SELECT COUNT(*)" + b.fromClause() + b.whereClause()
	return q, b.args
}
