package http

import (
	"net/http"

	streakService "anoa.com/ecotrack/internal/modules/streak/service"
	"anoa.com/ecotrack/pkg/response"
	"github.com/gin-gonic/gin"
)

type StreakHandler struct {
	service streakService.StreakService
}

func NewStreakHandler(service streakService.StreakService) *StreakHandler {
	return &StreakHandler{service: service}
}

func (h *StreakHandler) GetMyStreak(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	status, err := h.service.Status(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, status)
}
