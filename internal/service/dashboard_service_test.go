package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

type stubDashboard struct {
	stats     model.DashboardStats
	recent    []model.ExamSummary
	gotLimit  int
	recentErr error
}

func (s *stubDashboard) GetSummary(context.Context, int) (*model.DashboardStats, error) {
	stats := s.stats
	return &stats, nil
}

func (s *stubDashboard) GetRecentExams(_ context.Context, _ int, limit int) ([]model.ExamSummary, error) {
	s.gotLimit = limit
	return s.recent, s.recentErr
}

func TestGetDashboardData(t *testing.T) {
	repo := &stubDashboard{
		stats:  model.DashboardStats{TotalExams: 4, ActiveExams: 1, StudentsTested: 12, CompletionRate: 87.456},
		recent: []model.ExamSummary{{ID: uuid.New(), Title: "Cell Biology", Status: model.ExamStatusPublished}},
	}

	stats, err := NewDashboardService(repo).GetDashboardData(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 87.46, stats.CompletionRate)
	assert.Equal(t, 12, stats.StudentsTested)
	assert.Len(t, stats.RecentExams, 1)
	assert.Equal(t, recentExamsLimit, repo.gotLimit)
}

func TestGetDashboardDataWrapsErrors(t *testing.T) {
	boom := errors.New("db down")
	_, err := NewDashboardService(&stubDashboard{recentErr: boom}).GetDashboardData(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}
