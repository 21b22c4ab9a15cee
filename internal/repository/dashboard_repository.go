package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

// DashboardRepository handles teacher dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetSummary retrieves the high-level metrics for a teacher's dashboard.
func (r *DashboardRepository) GetSummary(ctx context.Context, teacherID int) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM exams WHERE teacher_id = $1),
			(SELECT COUNT(*) FROM exams WHERE teacher_id = $1 AND status = $2),
			(SELECT COUNT(DISTINCT LOWER(s.student_email))
			   FROM submissions s JOIN exams e ON e.id = s.exam_id WHERE e.teacher_id = $1),
			(SELECT COALESCE(AVG(s.progress), 0)
			   FROM submissions s JOIN exams e ON e.id = s.exam_id WHERE e.teacher_id = $1)`,
		teacherID, model.ExamStatusPublished,
	).Scan(&stats.TotalExams, &stats.ActiveExams, &stats.StudentsTested, &stats.CompletionRate)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// GetRecentExams retrieves the teacher's latest exams.
func (r *DashboardRepository) GetRecentExams(ctx context.Context, teacherID, limit int) ([]model.ExamSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, e.status, e.created_at,
		        (SELECT COUNT(*) FROM submissions s WHERE s.exam_id = e.id)
		 FROM exams e
		 WHERE e.teacher_id = $1
		 ORDER BY e.created_at DESC LIMIT $2`,
		teacherID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := []model.ExamSummary{}
	for rows.Next() {
		var e model.ExamSummary
		if err := rows.Scan(&e.ID, &e.Title, &e.Status, &e.CreatedAt, &e.SubmissionCount); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
