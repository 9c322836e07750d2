package mail

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dentflow/dentflow/internal/platform/auth"
)

// Handler exposes the delivery log over HTTP so an administrator can inspect
// outgoing mail and re-attempt failed deliveries.
type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin"))
	g.GET("/mail/stats", h.Stats)
	g.GET("/mail/records", h.ListByRef)
	g.GET("/mail/records/:id", h.Get)
	g.POST("/mail/records/:id/retry", h.Retry)
}

func (h *Handler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.mgr.Stats())
}

// ListByRef lists delivery records tagged with a domain entity, e.g.
// ?ref_kind=appointment&ref_id=42.
func (h *Handler) ListByRef(c echo.Context) error {
	kind := c.QueryParam("ref_kind")
	refID, err := strconv.ParseInt(c.QueryParam("ref_id"), 10, 64)
	if kind == "" || err != nil || refID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ref_kind and ref_id are required")
	}
	records := h.mgr.ByRef(kind, refID)
	if records == nil {
		records = []*Record{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": records})
}

func (h *Handler) Get(c echo.Context) error {
	rec, ok := h.mgr.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "mail record not found")
	}
	return c.JSON(http.StatusOK, rec)
}

// Retry re-attempts delivery of a logged record. The updated record is
// returned either way; a failed re-attempt keeps its failed status.
func (h *Handler) Retry(c echo.Context) error {
	rec, err := h.mgr.Retry(c.Request().Context(), c.Param("id"))
	if rec == nil {
		return echo.NewHTTPError(http.StatusNotFound, "mail record not found")
	}
	if err != nil {
		return c.JSON(http.StatusBadGateway, rec)
	}
	return c.JSON(http.StatusOK, rec)
}
