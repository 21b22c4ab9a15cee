package model

import (
	"time"

	"github.com/google/uuid"
)

// Bucket is one bar of a distribution chart.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// QuestionPerformance aggregates results for one multiple-choice question.
type QuestionPerformance struct {
	QuestionID uuid.UUID `json:"question_id"`
	OrderNum   int       `json:"order_num"`
	Text       string    `json:"text"`
	Correct    int       `json:"correct"`
	Incorrect  int       `json:"incorrect"`
	Unanswered int       `json:"unanswered"`
}

// TopStudent is a row of the best-performing students table.
type TopStudent struct {
	SubmissionID    uuid.UUID `json:"submission_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Score           float64   `json:"score"`
	DurationMinutes int       `json:"duration_minutes"`
	Passed          bool      `json:"passed"`
}

// ExamReport is the analytics view of a single exam.
type ExamReport struct {
	ExamID                 uuid.UUID             `json:"exam_id"`
	Title                  string                `json:"title"`
	SubmissionCount        int                   `json:"submission_count"`
	AverageScore           float64               `json:"average_score"`
	PassingRate            float64               `json:"passing_rate"`
	PassingScore           float64               `json:"passing_score"`
	AverageDurationMinutes float64               `json:"average_duration_minutes"`
	ForcedCount            int                   `json:"forced_count"`
	AverageProgress        float64               `json:"average_progress"`
	ScoreDistribution      []Bucket              `json:"score_distribution"`
	TimeDistribution       []Bucket              `json:"time_distribution"`
	QuestionPerformance    []QuestionPerformance `json:"question_performance"`
	TopStudents            []TopStudent          `json:"top_students"`
}

// ExamSummary is a compact exam row for the dashboard.
type ExamSummary struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Status          ExamStatus `json:"status"`
	SubmissionCount int        `json:"submission_count"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DashboardStats holds the teacher's overview metrics.
type DashboardStats struct {
	TotalExams     int           `json:"total_exams"`
	ActiveExams    int           `json:"active_exams"`
	StudentsTested int           `json:"students_tested"`
	CompletionRate float64       `json:"completion_rate"`
	RecentExams    []ExamSummary `json:"recent_exams"`
}
