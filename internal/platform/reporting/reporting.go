// Package reporting serves the dashboard and summary-report aggregates. The
// queries run directly against the pool; nothing here goes through the domain
// repositories.
package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/dentflow/dentflow/internal/platform/auth"
)

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"sql"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
}

// PredefinedMeasures is the list of standalone reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "patients-by-recall",
		Name:        "Patients by Recall",
		Description: "Number of patients grouped by recall interval",
		SQL:         `SELECT COALESCE(NULLIF(recall, ''), 'none') AS recall, COUNT(*) AS total FROM patients GROUP BY 1 ORDER BY total DESC`,
	},
	{
		ID:          "appointments-by-status",
		Name:        "Appointments by Status",
		Description: "Number of appointments grouped by status",
		SQL:         `SELECT status, COUNT(*) AS total FROM appointments GROUP BY status ORDER BY total DESC`,
	},
	{
		ID:          "appointments-by-treatment",
		Name:        "Appointments by Treatment",
		Description: "Number of appointments grouped by treatment type",
		SQL:         `SELECT COALESCE(NULLIF(treatment_type, ''), 'unspecified') AS treatment, COUNT(*) AS total FROM appointments GROUP BY 1 ORDER BY total DESC`,
	},
	{
		ID:          "invoices-by-status",
		Name:        "Invoices by Status",
		Description: "Number and value of invoices grouped by status",
		SQL:         `SELECT status, COUNT(*) AS total, COALESCE(SUM(total_amount), 0) AS amount FROM invoices GROUP BY status ORDER BY total DESC`,
	},
}

// Handler provides the reporting HTTP endpoints.
type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.Dashboard, auth.RequireRole("admin", "dentist", "receptionist"))

	reports := api.Group("/reports", auth.RequireRole("admin", "dentist"))
	reports.GET("/summary", h.Summary)
	reports.GET("/measures", h.ListMeasures)
	reports.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// dashboardSQL computes the landing-page counters in one round trip.
const dashboardSQL = `SELECT
	(SELECT COUNT(*) FROM patients) AS total_patients,
	(SELECT COUNT(*) FROM patients WHERE created_at >= date_trunc('month', NOW())) AS new_patients_this_month,
	(SELECT COUNT(*) FROM appointments) AS total_appointments,
	(SELECT COUNT(*) FROM appointments WHERE date = CURRENT_DATE) AS appointments_today,
	(SELECT COUNT(*) FROM appointments WHERE date > CURRENT_DATE AND date <= CURRENT_DATE + 7) AS appointments_next_7_days,
	(SELECT COUNT(*) FROM appointments WHERE status = 'scheduled' AND date >= CURRENT_DATE) AS pending_appointments,
	(SELECT COUNT(*) FROM invoices) AS total_invoices,
	(SELECT COALESCE(SUM(paid_amount), 0) FROM invoices WHERE status <> 'cancelled') AS revenue_total,
	(SELECT COALESCE(SUM(total_amount - paid_amount), 0) FROM invoices WHERE status IN ('unpaid', 'partially_paid')) AS outstanding_amount,
	(SELECT COUNT(*) FROM invoices WHERE status IN ('unpaid', 'partially_paid') AND due_date < CURRENT_DATE) AS overdue_invoices,
	(SELECT CASE WHEN COUNT(*) = 0 THEN 0
		ELSE ROUND(100.0 * COUNT(*) FILTER (WHERE status = 'paid') / COUNT(*), 1)
	END FROM invoices WHERE status <> 'cancelled') AS payment_rate`

// summarySQL extends the dashboard with the figures on the printable report.
const summarySQL = `SELECT
	(SELECT COALESCE(SUM(paid_amount), 0) FROM invoices WHERE status <> 'cancelled' AND date >= CURRENT_DATE - 30) AS revenue_last_30_days,
	(SELECT COUNT(*) FROM appointments WHERE date >= CURRENT_DATE - 30) AS appointments_last_30_days,
	(SELECT CASE WHEN COUNT(*) = 0 THEN 0
		ELSE ROUND(100.0 * COUNT(*) FILTER (WHERE status = 'completed') / COUNT(*), 1)
	END FROM appointments WHERE date < CURRENT_DATE) AS completion_rate,
	(SELECT CASE WHEN COUNT(*) = 0 THEN 0
		ELSE ROUND(100.0 * COUNT(*) FILTER (WHERE status = 'cancelled') / COUNT(*), 1)
	END FROM appointments) AS cancellation_rate,
	(SELECT CASE WHEN COUNT(DISTINCT patient_id) = 0 THEN 0
		ELSE ROUND(SUM(paid_amount) / COUNT(DISTINCT patient_id), 2)
	END FROM invoices WHERE status <> 'cancelled') AS avg_revenue_per_patient,
	(SELECT CASE WHEN COUNT(*) = 0 THEN 0
		ELSE ROUND(SUM(paid_amount) / COUNT(*), 2)
	END FROM invoices WHERE status <> 'cancelled') AS avg_revenue_per_invoice`

// revenueTrendSQL returns paid revenue per calendar month for the last six
// months, oldest first.
const revenueTrendSQL = `SELECT to_char(date_trunc('month', date), 'YYYY-MM') AS month,
	COALESCE(SUM(paid_amount), 0) AS revenue
FROM invoices
WHERE status <> 'cancelled' AND date >= date_trunc('month', CURRENT_DATE) - INTERVAL '5 months'
GROUP BY 1 ORDER BY 1`

func (h *Handler) Dashboard(c echo.Context) error {
	rows, err := h.executeSQL(c.Request().Context(), dashboardSQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}
	return c.JSON(http.StatusOK, rows[0])
}

func (h *Handler) Summary(c echo.Context) error {
	ctx := c.Request().Context()

	dash, err := h.executeSQL(ctx, dashboardSQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}
	extra, err := h.executeSQL(ctx, summarySQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}
	trend, err := h.executeSQL(ctx, revenueTrendSQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	out := map[string]interface{}{"generated_at": time.Now().UTC()}
	for k, v := range dash[0] {
		out[k] = v
	}
	for k, v := range extra[0] {
		out[k] = v
	}
	out["revenue_trend"] = trend
	return c.JSON(http.StatusOK, out)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now().UTC(),
		Results:     results,
	})
}

// executeSQL runs a query and returns the rows as a slice of maps. Single-row
// aggregates always yield at least one row.
func (h *Handler) executeSQL(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	rows, err := h.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var results []map[string]interface{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if results == nil {
		results = []map[string]interface{}{}
	}
	return results, nil
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
