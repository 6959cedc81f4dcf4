package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studypilot/assessment-service/internal/grading"
	"github.com/studypilot/assessment-service/internal/services"
	"github.com/studypilot/assessment-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// GradeShortAnswer scores one free-text answer with the semantic grader
// @Summary Grade short answer
// @Description Same contract the session grader uses: user_answer, expected_answer, key_points, question
// @Tags grading
// @Accept json
// @Produce json
// @Param body body grading.ShortAnswerRequest true "Answer to grade"
// @Success 200 {object} models.GradeRecord
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /grading/short-answer [post]
func (h *GradingHandler) GradeShortAnswer(c *gin.Context) {
	var req grading.ShortAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Grading short answer", "key_points", len(req.KeyPoints))

	record, err := h.gradingService.GradeShortAnswer(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}
