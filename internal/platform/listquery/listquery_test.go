package listquery

import (
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestPlainQuery(t *testing.T) {
	b := New("id, name", "patients").OrderBy("name")
	sql, args := b.Query(10, 0)

	want := "SELECT id, name FROM patients ORDER BY name LIMIT $1 OFFSET $2"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []interface{}{10, 0}) {
		t.Errorf("args = %v", args)
	}
}

func TestSearchORsWhitelistedColumns(t *testing.T) {
	b := New("id", "patients").Search("ann", []string{"first_name", "last_name"})
	sql, args := b.Query(10, 0)

	if !strings.Contains(sql, "(first_name ILIKE $1 OR last_name ILIKE $1)") {
		t.Errorf("sql = %q", sql)
	}
	if args[0] != "%ann%" {
		t.Errorf("args[0] = %v, want %%ann%%", args[0])
	}
}

func TestSearchEmptyTermIsNoop(t *testing.T) {
	b := New("id", "patients").Search("  ", []string{"first_name"})
	sql, _ := b.Query(10, 0)
	if strings.Contains(sql, "WHERE") {
		t.Errorf("empty search added a predicate: %q", sql)
	}
}

func TestFilterIgnoresUnknownFields(t *testing.T) {
	whitelist := map[string]string{"status": "status"}
	b := New("id", "invoices").Filter(map[string][]string{
		"status":  {"paid"},
		"deleted": {"true"}, // not whitelisted; must vanish
	}, whitelist)

	sql, args := b.Query(10, 0)
	if !strings.Contains(sql, "status = $1") {
		t.Errorf("sql = %q", sql)
	}
	if strings.Contains(sql, "deleted") {
		t.Errorf("unwhitelisted filter leaked into sql: %q", sql)
	}
	if len(args) != 3 { // filter value + limit + offset
		t.Errorf("args = %v", args)
	}
}

func TestFilterMultiValueUsesAny(t *testing.T) {
	b := New("id", "invoices").Filter(map[string][]string{
		"status": {"paid", "unpaid"},
	}, map[string]string{"status": "status"})

	sql, args := b.Query(10, 0)
	if !strings.Contains(sql, "status = ANY($1)") {
		t.Errorf("sql = %q", sql)
	}
	if !reflect.DeepEqual(args[0], []string{"paid", "unpaid"}) {
		t.Errorf("args[0] = %v", args[0])
	}
}

func TestSearchAndFiltersCompose(t *testing.T) {
	b := New("i.id", "invoices i").
		Join("JOIN patients p ON p.id = i.patient_id").
		Search("root canal", []string{"i.notes", "p.first_name"}).
		Filter(map[string][]string{"status": {"unpaid"}}, map[string]string{"status": "i.status"}).
		OrderBy("i.date DESC, i.id DESC")

	sql, args := b.Query(5, 10)
	wantParts := []string{
		"FROM invoices i JOIN patients p ON p.id = i.patient_id",
		"(i.notes ILIKE $1 OR p.first_name ILIKE $1)",
		"i.status = $2",
		"ORDER BY i.date DESC, i.id DESC",
		"LIMIT $3 OFFSET $4",
	}
	for _, part := range wantParts {
		if !strings.Contains(sql, part) {
			t.Errorf("sql missing %q: %q", part, sql)
		}
	}
	if len(args) != 4 {
		t.Errorf("args = %v", args)
	}
	// Pagination is appended after every predicate.
	if !strings.HasSuffix(sql, "LIMIT $3 OFFSET $4") {
		t.Errorf("limit/offset not last: %q", sql)
	}
}

func TestCountQuerySharesPredicates(t *testing.T) {
	b := New("id", "patients").
		Search("ann", []string{"first_name"}).
		Filter(map[string][]string{"gender": {"female"}}, map[string]string{"gender": "gender"}).
		OrderBy("last_name")

	countSQL, countArgs := b.CountQuery()
	pageSQL, pageArgs := b.Query(10, 0)

	if !strings.HasPrefix(countSQL, "SELECT COUNT(*)") {
		t.Errorf("count sql = %q", countSQL)
	}
	if strings.Contains(countSQL, "ORDER BY") || strings.Contains(countSQL, "LIMIT") {
		t.Errorf("count sql carries ordering or paging: %q", countSQL)
	}
	// Same predicates, same argument prefix.
	wantWhere := pageSQL[strings.Index(pageSQL, "WHERE"):strings.Index(pageSQL, " ORDER BY")]
	if !strings.Contains(countSQL, wantWhere) {
		t.Errorf("count sql %q missing %q", countSQL, wantWhere)
	}
	if !reflect.DeepEqual(countArgs, pageArgs[:len(pageArgs)-2]) {
		t.Errorf("count args %v != page args %v", countArgs, pageArgs)
	}
}

func TestFromContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("GET", "/?search=smith&filter_status=unpaid&filter_status=paid&filter_date=2025-01-01&filter_=x&page=2", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	p := FromContext(c)
	if p.Search != "smith" {
		t.Errorf("search = %q", p.Search)
	}
	if !reflect.DeepEqual(p.Filters["status"], []string{"unpaid", "paid"}) {
		t.Errorf("status filter = %v", p.Filters["status"])
	}
	if !reflect.DeepEqual(p.Filters["date"], []string{"2025-01-01"}) {
		t.Errorf("date filter = %v", p.Filters["date"])
	}
	if _, ok := p.Filters["page"]; ok {
		t.Error("non-filter param captured as filter")
	}
	if _, ok := p.Filters[""]; ok {
		t.Error("empty filter field captured")
	}
}

func TestPruneDatesDropsMalformedValues(t *testing.T) {
	p := Params{Filters: map[string][]string{
		"date":   {"not-a-date"},
		"status": {"unpaid"},
	}}

	p = p.PruneDates("date")
	if _, ok := p.Filters["date"]; ok {
		t.Errorf("malformed date survived: %v", p.Filters["date"])
	}
	if !reflect.DeepEqual(p.Filters["status"], []string{"unpaid"}) {
		t.Errorf("unrelated filter touched: %v", p.Filters["status"])
	}
}

func TestPruneDatesKeepsValidValues(t *testing.T) {
	p := Params{Filters: map[string][]string{
		"date": {"2025-01-01", "01/02/2025", "2025-02-03"},
	}}

	p = p.PruneDates("date")
	if !reflect.DeepEqual(p.Filters["date"], []string{"2025-01-01", "2025-02-03"}) {
		t.Errorf("date filter = %v", p.Filters["date"])
	}
}

func TestPruneDatesIgnoresAbsentField(t *testing.T) {
	p := Params{Filters: map[string][]string{"status": {"paid"}}}
	p = p.PruneDates("date")
	if !reflect.DeepEqual(p.Filters["status"], []string{"paid"}) {
		t.Errorf("filters = %v", p.Filters)
	}
}
