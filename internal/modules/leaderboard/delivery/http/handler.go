package http

import (
	"net/http"

	leaderboardDto "anoa.com/ecotrack/internal/modules/leaderboard/dto"
	leaderboardService "anoa.com/ecotrack/internal/modules/leaderboard/service"
	"anoa.com/ecotrack/pkg/response"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var q leaderboardDto.LeaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	leaderboard, err := h.service.GetLeaderboard(c.Request.Context(), userID, q.Board, q.Limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, leaderboard)
}
