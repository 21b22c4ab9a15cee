package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

const topStudentsLimit = 5

var (
	scoreBuckets = []string{"0-20", "21-40", "41-60", "61-80", "81-100"}
	timeBuckets  = []string{"<30min", "30-45min", "45-60min", ">60min"}
)

// ReportService builds exam analytics from persisted submissions.
type ReportService struct {
	exams        *ExamService
	subs         SubmissionStore
	passingScore float64
	log          zerolog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(exams *ExamService, subs SubmissionStore, passingScore float64, log zerolog.Logger) *ReportService {
	return &ReportService{
		exams:        exams,
		subs:         subs,
		passingScore: passingScore,
		log:          log.With().Str("component", "report_service").Logger(),
	}
}

// ExamReport computes the analytics of one of the teacher's exams.
func (s *ReportService) ExamReport(ctx context.Context, teacherID int, examID uuid.UUID) (*model.ExamReport, error) {
	exam, err := s.exams.owned(ctx, teacherID, examID)
	if err != nil {
		return nil, err
	}

	subs, err := s.subs.ListAllByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	stats, err := s.subs.QuestionStats(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("question stats: %w", err)
	}

	report := BuildReport(subs, s.passingScore)
	report.ExamID = exam.ID
	report.Title = exam.Title
	if stats != nil {
		report.QuestionPerformance = stats
	}
	return report, nil
}

// BuildReport aggregates submissions. Submissions without a score (exams
// with no multiple-choice questions) count toward everything except the
// score figures.
func BuildReport(subs []model.SubmissionRecord, passingScore float64) *model.ExamReport {
	report := &model.ExamReport{
		SubmissionCount:     len(subs),
		PassingScore:        passingScore,
		ScoreDistribution:   newBuckets(scoreBuckets),
		TimeDistribution:    newBuckets(timeBuckets),
		QuestionPerformance: []model.QuestionPerformance{},
		TopStudents:         []model.TopStudent{},
	}
	if len(subs) == 0 {
		return report
	}

	var (
		scoreSum    float64
		scored      int
		passed      int
		progressSum int
		durationSum int
	)
	for _, sub := range subs {
		progressSum += sub.Progress
		durationSum += sub.DurationTakenSeconds
		if sub.Forced {
			report.ForcedCount++
		}
		report.TimeDistribution[timeBucket(sub.DurationTakenSeconds)].Count++

		if sub.Score == nil {
			continue
		}
		scored++
		scoreSum += *sub.Score
		if *sub.Score >= passingScore {
			passed++
		}
		report.ScoreDistribution[scoreBucket(*sub.Score)].Count++
	}

	report.AverageProgress = round2(float64(progressSum) / float64(len(subs)))
	report.AverageDurationMinutes = round2(float64(durationSum) / float64(len(subs)) / 60)
	if scored > 0 {
		report.AverageScore = round2(scoreSum / float64(scored))
		report.PassingRate = round2(float64(passed) / float64(scored) * 100)
	}
	report.TopStudents = topStudents(subs, passingScore)
	return report
}

func topStudents(subs []model.SubmissionRecord, passingScore float64) []model.TopStudent {
	ranked := make([]model.SubmissionRecord, 0, len(subs))
	for _, sub := range subs {
		if sub.Score != nil {
			ranked = append(ranked, sub)
		}
	}
	// Higher score first, then the faster attempt.
	sort.SliceStable(ranked, func(i, j int) bool {
		if *ranked[i].Score != *ranked[j].Score {
			return *ranked[i].Score > *ranked[j].Score
		}
		return ranked[i].DurationTakenSeconds < ranked[j].DurationTakenSeconds
	})
	if len(ranked) > topStudentsLimit {
		ranked = ranked[:topStudentsLimit]
	}

	top := make([]model.TopStudent, 0, len(ranked))
	for _, sub := range ranked {
		top = append(top, model.TopStudent{
			SubmissionID:    sub.ID,
			Name:            sub.StudentName,
			Email:           sub.StudentEmail,
			Score:           *sub.Score,
			DurationMinutes: int(math.Round(float64(sub.DurationTakenSeconds) / 60)),
			Passed:          *sub.Score >= passingScore,
		})
	}
	return top
}

func newBuckets(labels []string) []model.Bucket {
	buckets := make([]model.Bucket, len(labels))
	for i, l := range labels {
		buckets[i] = model.Bucket{Label: l}
	}
	return buckets
}

func scoreBucket(score float64) int {
	switch {
	case score <= 20:
		return 0
	case score <= 40:
		return 1
	case score <= 60:
		return 2
	case score <= 80:
		return 3
	default:
		return 4
	}
}

func timeBucket(seconds int) int {
	switch minutes := float64(seconds) / 60; {
	case minutes < 30:
		return 0
	case minutes < 45:
		return 1
	case minutes < 60:
		return 2
	default:
		return 3
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
