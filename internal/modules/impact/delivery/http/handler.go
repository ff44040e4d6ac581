package http

import (
	"net/http"

	"anoa.com/ecotrack/internal/modules/impact/dto"
	impactService "anoa.com/ecotrack/internal/modules/impact/service"
	"anoa.com/ecotrack/pkg/response"
	"github.com/gin-gonic/gin"
)

type ImpactHandler struct {
	service impactService.ImpactService
}

func NewImpactHandler(service impactService.ImpactService) *ImpactHandler {
	return &ImpactHandler{service: service}
}

func (h *ImpactHandler) GetMyImpact(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var q dto.ImpactQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	impact, err := h.service.GetImpact(c.Request.Context(), userID, q.Period)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, impact)
}
