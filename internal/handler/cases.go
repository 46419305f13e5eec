package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"polywatch/internal/repository"
	"polywatch/internal/service"
)

type ReferenceCaseHandler struct {
	Repo repository.Repository
	Scan *service.ReferenceScanService
}

func (h *ReferenceCaseHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/cases")
	group.POST("", h.create)
	group.GET("", h.list)
	group.GET("/:id", h.get)
	group.POST("/:id/scan", h.scan)
}

func (h *ReferenceCaseHandler) create(c *gin.Context) {
	if h.Scan == nil {
		Error(c, http.StatusInternalServerError, "scan service unavailable", nil)
		return
	}
	var input service.CreateCaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := h.Scan.CreateCase(c.Request.Context(), input)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *ReferenceCaseHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	items, err := h.Repo.ListReferenceCases(c.Request.Context(), limit, offset)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	meta := paginationMeta(limit, offset, int64(len(items)))
	Ok(c, items, meta)
}

func (h *ReferenceCaseHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	item, err := h.Repo.GetReferenceCaseByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "case not found", nil)
		return
	}
	Ok(c, item, nil)
}

func (h *ReferenceCaseHandler) scan(c *gin.Context) {
	if h.Scan == nil {
		Error(c, http.StatusInternalServerError, "scan service unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	result, err := h.Scan.ScanCase(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, map[string]any{
		"markets": len(result.Markets),
		"wallets": len(result.Wallets),
	})
}
