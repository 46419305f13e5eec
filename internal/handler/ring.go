package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"polywatch/internal/service"
)

type RingHandler struct {
	Ring *service.RingService
}

func (h *RingHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/rings/:wallet", h.build)
}

func (h *RingHandler) build(c *gin.Context) {
	if h.Ring == nil {
		Error(c, http.StatusInternalServerError, "ring service unavailable", nil)
		return
	}
	wallet := strings.TrimSpace(c.Param("wallet"))
	if wallet == "" {
		Error(c, http.StatusBadRequest, "wallet is required", nil)
		return
	}
	result, err := h.Ring.BuildRing(c.Request.Context(), wallet)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, map[string]any{"members": len(result.Members)})
}
