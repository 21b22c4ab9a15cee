package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/response"
	"github.com/teachexamhub/examhub-backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves submissions, analytics and exports for an exam.
type ReportHandler struct {
	submissionService *service.SubmissionService
	reportService     *service.ReportService
	log               zerolog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(submissionService *service.SubmissionService, reportService *service.ReportService, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		submissionService: submissionService,
		reportService:     reportService,
		log:               log.With().Str("component", "report_handler").Logger(),
	}
}

// ListSubmissions godoc
// GET /api/v1/teacher/exams/:exam_id/submissions
// Lists graded submissions, newest first.
func (h *ReportHandler) ListSubmissions(c *gin.Context) {
	claims, examID, ok := examRequest(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	subs, pagination, err := h.submissionService.List(c.Request.Context(), claims.UserID, examID, page, perPage)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"submissions": subs}, pagination)
}

// GetSubmission godoc
// GET /api/v1/teacher/exams/:exam_id/submissions/:submission_id
// Returns one submission with its per-question answers.
func (h *ReportHandler) GetSubmission(c *gin.Context) {
	claims, examID, ok := examRequest(c)
	if !ok {
		return
	}

	submissionID, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.submissionService.Get(c.Request.Context(), claims.UserID, examID, submissionID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": detail})
}

// GetReport godoc
// GET /api/v1/teacher/exams/:exam_id/report
func (h *ReportHandler) GetReport(c *gin.Context) {
	claims, examID, ok := examRequest(c)
	if !ok {
		return
	}

	report, err := h.reportService.ExamReport(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": report})
}

// ExportResults godoc
// GET /api/v1/teacher/exams/:exam_id/export
// Downloads every submission as an XLSX workbook.
func (h *ReportHandler) ExportResults(c *gin.Context) {
	claims, examID, ok := examRequest(c)
	if !ok {
		return
	}

	data, filename, err := h.reportService.ExportResults(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
