package http

import (
	"net/http"

	"anoa.com/ecotrack/internal/modules/challenge/dto"
	challengeService "anoa.com/ecotrack/internal/modules/challenge/service"
	"anoa.com/ecotrack/pkg/response"
	"github.com/gin-gonic/gin"
)

type ChallengeHandler struct {
	service challengeService.ChallengeService
}

func NewChallengeHandler(service challengeService.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{service: service}
}

func (h *ChallengeHandler) ListActive(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	challenges, err := h.service.ListActive(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, challenges)
}

func (h *ChallengeHandler) MyChallenges(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.MyChallenges(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

func (h *ChallengeHandler) Join(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	challengeID, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result, err := h.service.Join(c.Request.Context(), userID, challengeID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	message := "joined challenge"
	if result.Completed != nil {
		message = "joined and completed challenge"
	}
	response.Success(c, http.StatusOK, dto.JoinResponse{Message: message, Result: result})
}

func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	var req dto.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	challenge, err := h.service.CreateChallenge(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, challenge)
}

func (h *ChallengeHandler) UpdateChallenge(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	challenge, err := h.service.UpdateChallenge(c.Request.Context(), id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, challenge)
}

func (h *ChallengeHandler) DeactivateChallenge(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeactivateChallenge(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "challenge deactivated"})
}
