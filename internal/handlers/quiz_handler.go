package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/studypilot/assessment-service/internal/models"
	"github.com/studypilot/assessment-service/internal/repositories"
	"github.com/studypilot/assessment-service/internal/services"
	"github.com/studypilot/assessment-service/internal/utils"
)

// maxImportSize bounds uploaded quiz spreadsheets.
const maxImportSize = 5 << 20

type QuizHandler struct {
	BaseHandler
	quizService         services.QuizService
	importExportService services.ImportExportService
}

func NewQuizHandler(
	quizService services.QuizService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *QuizHandler {
	return &QuizHandler{
		BaseHandler:         NewBaseHandler(logger),
		quizService:         quizService,
		importExportService: importExportService,
	}
}

// RegisterQuiz stores a generated quiz with its generation parameters
// @Summary Register quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.RegisterQuizRequest true "Generated quiz"
// @Success 201 {object} services.QuizResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) RegisterQuiz(c *gin.Context) {
	var req services.RegisterQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Registering quiz", "document_id", req.Params.DocumentID, "questions", len(req.Questions))

	quiz, err := h.quizService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz retrieves a stored quiz with its questions
// @Summary Get quiz
// @Tags quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} services.QuizResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	id := ParseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	quiz, err := h.quizService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// ListQuizzes lists stored quizzes without their questions
// @Summary List quizzes
// @Tags quizzes
// @Produce json
// @Param document_id query string false "Source document"
// @Param difficulty query string false "easy, medium or hard"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Param sort query string false "asc or desc by creation time"
// @Success 200 {object} services.QuizListResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size := repositories.NormalizeLimit(parseIntQuery(c, "size", repositories.DefaultListLimit))

	filters := repositories.QuizFilters{
		DocumentID: c.Query("document_id"),
		Limit:      size,
		Offset:     (page - 1) * size,
		SortOrder:  c.DefaultQuery("sort", "desc"),
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		d := models.Difficulty(difficulty)
		filters.Difficulty = &d
	}

	quizzes, err := h.quizService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quizzes)
}

// DeleteQuiz removes a stored quiz. Sessions already configured with it
// keep their copy.
// @Summary Delete quiz
// @Tags quizzes
// @Param id path string true "Quiz ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	id := ParseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	h.LogRequest(c, "Deleting quiz", "quiz_id", id)

	if err := h.quizService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ImportQuiz parses a CSV or XLSX upload into a quiz payload
// @Summary Import quiz from spreadsheet
// @Tags quizzes
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /quizzes/import [post]
func (h *QuizHandler) ImportQuiz(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	header, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "A file upload named 'file' is required", err, err.Error())
		return
	}

	h.LogRequest(c, "Importing quiz", "filename", header.Filename, "size", header.Size)

	file, err := header.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Uploaded file could not be read", err)
		return
	}
	defer file.Close()

	result, err := h.importExportService.ImportQuizFromFile(c.Request.Context(), file, header.Filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
