package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/response"
	"github.com/teachexamhub/examhub-backend/internal/service"
)

// PublicHandler serves unauthenticated student-facing lookups.
type PublicHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

func NewPublicHandler(examService *service.ExamService, log zerolog.Logger) *PublicHandler {
	return &PublicHandler{
		examService: examService,
		log:         log.With().Str("component", "public_handler").Logger(),
	}
}

// GetExam godoc
// GET /api/v1/public/exams/:code
// Returns the student view of a published exam. Correct options are never included.
func (h *PublicHandler) GetExam(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.GetPublicExam(c.Request.Context(), code)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}
