package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"polywatch/internal/repository"
	"polywatch/internal/service"
)

type WatchHandler struct {
	Repo  repository.Repository
	Watch *service.WatchService
}

func (h *WatchHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/watchlist")
	group.GET("", h.list)
	group.POST("/run", h.run)
}

func (h *WatchHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 25)
	items, err := h.Repo.ListMarketWatches(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (h *WatchHandler) run(c *gin.Context) {
	if h.Watch == nil {
		Error(c, http.StatusInternalServerError, "watch service unavailable", nil)
		return
	}
	result, err := h.Watch.RunOnce(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}
