package service

import (
	"context"
	"fmt"

	"github.com/teachexamhub/examhub-backend/internal/model"
)

const recentExamsLimit = 5

// DashboardStore is the persistence DashboardService depends on.
type DashboardStore interface {
	GetSummary(ctx context.Context, teacherID int) (*model.DashboardStats, error)
	GetRecentExams(ctx context.Context, teacherID, limit int) ([]model.ExamSummary, error)
}

// DashboardService handles the teacher dashboard.
type DashboardService struct {
	repo DashboardStore
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo DashboardStore) *DashboardService {
	return &DashboardService{repo: repo}
}

// GetDashboardData gathers the overview metrics and the latest exams.
func (s *DashboardService) GetDashboardData(ctx context.Context, teacherID int) (*model.DashboardStats, error) {
	stats, err := s.repo.GetSummary(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	stats.CompletionRate = round2(stats.CompletionRate)

	recent, err := s.repo.GetRecentExams(ctx, teacherID, recentExamsLimit)
	if err != nil {
		return nil, fmt.Errorf("get recent exams: %w", err)
	}
	stats.RecentExams = recent
	return stats, nil
}
