package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"polywatch/internal/service"
)

// AdminHandler exposes manual triggers for the background sync jobs.
type AdminHandler struct {
	CatalogSync    *service.CatalogSyncService
	ResolutionSync *service.ResolutionSyncService
}

func (h *AdminHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/admin")
	group.POST("/sync/catalog", h.syncCatalog)
	group.POST("/sync/resolutions", h.syncResolutions)
}

func (h *AdminHandler) syncCatalog(c *gin.Context) {
	if h.CatalogSync == nil {
		Error(c, http.StatusInternalServerError, "catalog sync unavailable", nil)
		return
	}
	opts := service.SyncOptions{
		Scope:    strings.TrimSpace(c.Query("scope")),
		Limit:    intQuery(c, "limit", 0),
		MaxPages: intQuery(c, "max_pages", 0),
		Resume:   c.Query("resume") != "false",
	}
	switch strings.ToLower(strings.TrimSpace(c.Query("closed"))) {
	case "true":
		v := true
		opts.Closed = &v
	case "false":
		v := false
		opts.Closed = &v
	}
	result, err := h.CatalogSync.Sync(c.Request.Context(), opts)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *AdminHandler) syncResolutions(c *gin.Context) {
	if h.ResolutionSync == nil {
		Error(c, http.StatusInternalServerError, "resolution sync unavailable", nil)
		return
	}
	result, err := h.ResolutionSync.RunOnce(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}
