package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/studypilot/assessment-service/internal/services"
	"github.com/studypilot/assessment-service/internal/utils"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv"
)

type SessionHandler struct {
	BaseHandler
	sessionService      services.SessionService
	importExportService services.ImportExportService
}

// SetAnswerRequest carries one learner answer. An empty string clears the
// answer.
type SetAnswerRequest struct {
	Answer string `json:"answer"`
}

func NewSessionHandler(
	sessionService services.SessionService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:         NewBaseHandler(logger),
		sessionService:      sessionService,
		importExportService: importExportService,
	}
}

// CreateSession opens a session, configured when the body names a quiz
// @Summary Create session
// @Tags sessions
// @Accept json
// @Produce json
// @Param body body services.ConfigureSessionRequest false "quiz_id or inline quiz"
// @Success 201 {object} models.SessionSnapshot
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	// An empty body creates an unconfigured session.
	var req services.ConfigureSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
			return
		}
	}

	h.LogRequest(c, "Creating session", "quiz_id", req.QuizID, "inline_quiz", req.Quiz != nil)

	snapshot, err := h.sessionService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, snapshot)
}

// ConfigureSession loads a quiz into a session in the configuring state
// @Summary Configure session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body services.ConfigureSessionRequest true "quiz_id or inline quiz"
// @Success 200 {object} models.SessionSnapshot
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/configure [post]
func (h *SessionHandler) ConfigureSession(c *gin.Context) {
	id := ParseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	var req services.ConfigureSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	snapshot, err := h.sessionService.Configure(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetSession returns the session state, answers and, once graded, the result
// @Summary Get session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionSnapshot
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	snapshot, err := h.sessionService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// SetAnswer records the answer for one question
// @Summary Set answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param index path int true "Question index"
// @Param body body SetAnswerRequest true "Answer"
// @Success 200 {object} models.SessionSnapshot
// @Failure 409 {object} ErrorResponse "answers are frozen"
// @Router /sessions/{id}/answers/{index} [put]
func (h *SessionHandler) SetAnswer(c *gin.Context) {
	id := ParseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}
	index := ParseIndexParam(c, "index")
	if index < 0 {
		return
	}

	var req SetAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	snapshot, err := h.sessionService.SetAnswer(c.Request.Context(), id, index, req.Answer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// SubmitSession freezes the answers and starts grading. With wait=true the
// call blocks until the result is ready or the optional timeout passes.
// @Summary Submit session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param wait query bool false "Wait for the result"
// @Param timeout query string false "Maximum wait, e.g. 30s"
// @Success 200 {object} services.SubmitResponse "graded"
// @Success 202 {object} services.SubmitResponse "grading in progress"
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	id := ParseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	wait, err := strconv.ParseBool(c.DefaultQuery("wait", "false"))
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid wait parameter", err, err.Error())
		return
	}

	ctx := c.Request.Context()
	if raw := c.Query("timeout"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid timeout parameter", err, fmt.Sprintf("%q is not a positive duration", raw))
			return
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	h.LogRequest(c, "Submitting session", "session_id", id, "wait", wait)

	resp, err := h.sessionService.Submit(ctx, id, wait)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if resp.Pending {
		c.JSON(http.StatusAccepted, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetResult returns the graded result
// @Summary Get session result
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.GradingResult
// @Failure 409 {object} ErrorResponse "not graded yet"
// @Router /sessions/{id}/result [get]
func (h *SessionHandler) GetResult(c *gin.Context) {
	id := ParseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	result, err := h.sessionService.Result(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ResetSession discards quiz, answers and result, cancelling any grading
// @Summary Reset session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionSnapshot
// @Router /sessions/{id}/reset [post]
func (h *SessionHandler) ResetSession(c *gin.Context) {
	id := ParseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	h.LogRequest(c, "Resetting session", "session_id", id)

	snapshot, err := h.sessionService.Reset(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// DeleteSession drops a session
// @Summary Delete session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := ParseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	if err := h.sessionService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportReport downloads the graded result as a spreadsheet
// @Summary Export session report
// @Tags sessions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Param format query string false "xlsx (default) or csv"
// @Success 200 {file} file
// @Failure 409 {object} ErrorResponse "not graded yet"
// @Router /sessions/{id}/report [get]
func (h *SessionHandler) ExportReport(c *gin.Context) {
	id := ParseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	var (
		data        []byte
		err         error
		contentType string
		format      = c.DefaultQuery("format", "xlsx")
	)

	switch format {
	case "xlsx":
		data, err = h.importExportService.ExportSessionResultsToExcel(c.Request.Context(), id)
		contentType = xlsxContentType
	case "csv":
		data, err = h.importExportService.ExportSessionResultsToCSV(c.Request.Context(), id)
		contentType = csvContentType
	default:
		h.RespondWithError(c, http.StatusBadRequest, "Unsupported report format", nil, format)
		return
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%s.%s"`, id, format))
	c.Data(http.StatusOK, contentType, data)
}
