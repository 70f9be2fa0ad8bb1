package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/catalog-backend/internal/http/response"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/refresh"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/snapshot"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/services"
)

const maxSnapshotBytes = 32 << 20

type AdminHandler struct {
	log     *logger.Logger
	catalog services.CatalogService
}

func NewAdminHandler(log *logger.Logger, catalog services.CatalogService) *AdminHandler {
	return &AdminHandler{
		log:     log.With("handler", "AdminHandler"),
		catalog: catalog,
	}
}

// POST /api/admin/refresh?prune=true
// The body is a snapshot document in YAML or JSON.
func (h *AdminHandler) Refresh(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSnapshotBytes))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	snap, err := snapshot.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_snapshot", err)
		return
	}
	src := snapshot.StaticSource{Label: "http", Snapshot: snap}
	rep, err := h.catalog.Refresh(c.Request.Context(), src, refresh.Options{Prune: c.Query("prune") == "true"})
	if err != nil {
		h.log.Error("Refresh failed", "error", err)
		response.RespondCatalogError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": rep})
}

type resetRequest struct {
	Keep []int64 `json:"keep"`
}

// POST /api/admin/reset
func (h *AdminHandler) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	deleted, err := h.catalog.RemoveAllExcept(c.Request.Context(), req.Keep)
	if err != nil {
		response.RespondCatalogError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": deleted})
}
