package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/studypilot/assessment-service/internal/models"
	"github.com/studypilot/assessment-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

// listSeparator splits options and key points inside one spreadsheet cell.
const listSeparator = "|"

var (
	importRequiredColumns = []string{"type", "question"}
	reviewHeaders         = []string{
		"#", "Type", "Question", "Your Answer", "Correct Answer", "Result",
		"Score", "Band", "Feedback", "Credit", "Explanation",
	}
)

type importExportService struct {
	sessions  SessionService
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(sessions SessionService, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &importExportService{
		sessions:  sessions,
		logger:    logger,
		validator: validator,
	}
}

// ===== IMPORT OPERATIONS =====

func (s *importExportService) ImportQuizFromFile(ctx context.Context, reader io.Reader, filename string) (*ImportResult, error) {
	s.logger.Info("Starting quiz import", "filename", filename)

	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".csv":
		return s.ImportQuizFromCSV(ctx, reader)
	case ".xlsx":
		return s.ImportQuizFromExcel(ctx, reader)
	default:
		return nil, ValidationErrors{*NewValidationError("file", "unsupported file format", ext)}
	}
}

func (s *importExportService) ImportQuizFromCSV(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV: %v", ErrValidationFailed, err)
	}

	result, err := s.importRows(records)
	if err != nil {
		return nil, err
	}

	s.logger.Info("CSV import completed",
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)
	return result, nil
}

func (s *importExportService) ImportQuizFromExcel(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrValidationFailed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ValidationErrors{*NewValidationError("file", "Excel file has no sheets", nil)}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}

	result, err := s.importRows(rows)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Excel import completed",
		"sheet", sheets[0],
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)
	return result, nil
}

// importRows turns a header row plus data rows into a quiz. Rows that fail
// content validation are reported and left out; the remaining rows keep
// their relative order.
func (s *importExportService) importRows(rows [][]string) (*ImportResult, error) {
	if len(rows) < 2 {
		return nil, ValidationErrors{*NewValidationError("file", "file must have a header row and at least one data row", len(rows))}
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range importRequiredColumns {
		if _, exists := headerMap[col]; !exists {
			return nil, ValidationErrors{*NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)}
		}
	}

	result := &ImportResult{
		TotalRows: len(rows) - 1,
		Quiz:      models.QuizPayload{Questions: []models.QuestionPayload{}},
	}

	for rowIndex, row := range rows[1:] {
		payload, rowErrors := s.parseRow(row, headerMap, rowIndex+2)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorCount++
			continue
		}
		result.Quiz.Questions = append(result.Quiz.Questions, payload)
		result.SuccessCount++
	}

	return result, nil
}

func (s *importExportService) parseRow(row []string, headerMap map[string]int, rowNum int) (models.QuestionPayload, ValidationErrors) {
	cell := func(name string) string {
		i, ok := headerMap[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	payload := models.QuestionPayload{
		Type:           models.QuestionType(strings.ToLower(cell("type"))),
		Question:       cell("question"),
		Explanation:    cell("explanation"),
		Options:        splitList(cell("options")),
		CorrectAnswer:  cell("correct_answer"),
		ExpectedAnswer: cell("expected_answer"),
		KeyPoints:      splitList(cell("key_points")),
	}

	prefix := fmt.Sprintf("row[%d]", rowNum)
	if !payload.Type.IsValid() {
		return payload, ValidationErrors{*NewValidationError(prefix+".type",
			"must be a valid question type (mcq, fill_blank, short_answer)", payload.Type)}
	}

	question, err := payload.ToQuestion()
	if err != nil {
		return payload, ValidationErrors{*NewValidationError(prefix, err.Error(), nil)}
	}
	return payload, s.validator.Question().ValidateQuestion(prefix, question)
}

func splitList(cell string) []string {
	if cell == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(cell, listSeparator) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ===== EXPORT OPERATIONS =====

func (s *importExportService) ExportSessionResultsToExcel(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	result, err := s.sessions.Result(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "Summary"
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel style: %w", err)
	}

	summaryRows := [][]any{
		{"Session", sessionID.String()},
		{"Correct", result.Summary.Correct},
		{"Total", result.Summary.Total},
		{"Percentage", percentageCell(result.Summary)},
		{"Score", result.Summary.String()},
		{"Graded At", result.GradedAt.Format("2006-01-02 15:04:05")},
	}
	for rowIndex, row := range summaryRows {
		if err := setRow(f, summarySheet, rowIndex+1, row); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summaryRows)), boldStyle); err != nil {
		return nil, fmt.Errorf("failed to style Excel cells: %w", err)
	}

	reviewSheet := "Review"
	index, err := f.NewSheet(reviewSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	header := make([]any, len(reviewHeaders))
	for i, h := range reviewHeaders {
		header[i] = h
	}
	if err := setRow(f, reviewSheet, 1, header); err != nil {
		return nil, err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(reviewHeaders), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to address Excel cell: %w", err)
	}
	if err := f.SetCellStyle(reviewSheet, "A1", lastHeader, boldStyle); err != nil {
		return nil, fmt.Errorf("failed to style Excel cells: %w", err)
	}

	for rowIndex, review := range result.Review {
		if err := setRow(f, reviewSheet, rowIndex+2, reviewRow(review)); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported session results", "session_id", sessionID, "format", "xlsx", "questions", len(result.Review))
	return buf.Bytes(), nil
}

func (s *importExportService) ExportSessionResultsToCSV(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	result, err := s.sessions.Result(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(reviewHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, review := range result.Review {
		row := reviewRow(review)
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = fmt.Sprint(v)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	s.logger.Info("Exported session results", "session_id", sessionID, "format", "csv", "questions", len(result.Review))
	return buf.Bytes(), nil
}

// ===== HELPERS =====

func setRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to address Excel cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write Excel row %d: %w", rowNum, err)
	}
	return nil
}

func percentageCell(summary models.ScoreSummary) any {
	if p, ok := summary.PercentageValue(); ok {
		return p
	}
	return "n/a"
}

func reviewRow(r models.QuestionReview) []any {
	answerKey := r.CorrectAnswer
	if r.Type == models.QuestionTypeShortAnswer {
		answerKey = r.ExpectedAnswer
	}

	score, feedback := "", ""
	if r.Grade != nil {
		score = strconv.Itoa(r.Grade.Score)
		feedback = r.Grade.Feedback
	}

	return []any{
		r.Index + 1,
		string(r.Type),
		r.Question,
		r.UserAnswer,
		answerKey,
		reviewStatus(r),
		score,
		string(r.Band),
		feedback,
		r.Credit,
		r.Explanation,
	}
}

func reviewStatus(r models.QuestionReview) string {
	switch {
	case !r.Answered:
		return "unanswered"
	case r.Fallback:
		return "not graded"
	case r.IsCorrect != nil && *r.IsCorrect:
		return "correct"
	case r.IsCorrect != nil:
		return "incorrect"
	case r.Grade != nil:
		return "scored"
	default:
		return "pending"
	}
}
