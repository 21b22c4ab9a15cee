package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/teachexamhub/examhub-backend/internal/service"
)

func TestFailService(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err      error
		wantCode int
		wantBody string
	}{
		{service.ErrExamNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("load: %w", service.ErrSubmissionNotFound), http.StatusNotFound, "NOT_FOUND"},
		{service.ErrNotExamOwner, http.StatusForbidden, "NOT_EXAM_OWNER"},
		{service.ErrExamNotDraft, http.StatusConflict, "EXAM_NOT_DRAFT"},
		{service.ErrExamNotPublished, http.StatusConflict, "EXAM_NOT_PUBLISHED"},
		{service.ErrExamNotAvailable, http.StatusGone, "EXAM_NOT_AVAILABLE"},
		{service.ErrNoQuestions, http.StatusUnprocessableEntity, "NO_QUESTIONS"},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{service.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
		{service.ErrWrongPassword, http.StatusBadRequest, "WRONG_PASSWORD"},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.wantBody, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/teacher/exams", nil)

			failService(c, zerolog.Nop(), tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
