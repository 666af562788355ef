package discovery

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"governance-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the discovery adapter.
type Handler struct {
	Adapter *Adapter
}

// NewHandler constructs a Handler.
func NewHandler(adapter *Adapter) *Handler {
	return &Handler{Adapter: adapter}
}

// RegisterRoutes attaches discovery routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/discovered-services", h.listDiscovered)
}

func (h *Handler) listDiscovered(c *gin.Context) {
	pass := h.Adapter.Last()

	descriptors := pass.Descriptors
	if namespace := c.Query("namespace"); namespace != "" {
		filtered := make([]ServiceDescriptor, 0, len(descriptors))
		for _, d := range descriptors {
			if d.Namespace == namespace {
				filtered = append(filtered, d)
			}
		}
		descriptors = filtered
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"services":          descriptors,
		"count":             len(descriptors),
		"namespaceFailures": pass.NamespaceFailures,
	})
}
