package reports

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"governance-backend/internal/shared/server/respond"
)

// Handler serves published reports.
type Handler struct {
	Store *Store
}

// NewHandler constructs a Handler.
func NewHandler(store *Store) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes mounts the report endpoints on a router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports/latest", h.getLatest)
	rg.GET("/reports/:id", h.getByID)
}

func (h *Handler) getLatest(c *gin.Context) {
	report, err := h.Store.GetLatest(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "no_reports", "no report has been published yet", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load latest report", nil)
		return
	}
	respond.OK(c, report)
}

func (h *Handler) getByID(c *gin.Context) {
	id := c.Param("id")
	report, err := h.Store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "report_not_found", "no report with that id", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load report", nil)
		return
	}
	respond.OK(c, report)
}
