package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/config"
	"github.com/teachexamhub/examhub-backend/internal/model"
	"github.com/teachexamhub/examhub-backend/internal/response"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// SubmissionStore is the persistence SubmissionService depends on.
type SubmissionStore interface {
	SaveBatch(ctx context.Context, batch []model.SubmissionDetail) error
	Save(ctx context.Context, sub *model.SubmissionDetail) error
	ListByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]model.SubmissionRecord, int, error)
	ListAllByExam(ctx context.Context, examID uuid.UUID) ([]model.SubmissionRecord, error)
	GetDetail(ctx context.Context, examID, id uuid.UUID) (*model.SubmissionDetail, error)
	QuestionStats(ctx context.Context, examID uuid.UUID) ([]model.QuestionPerformance, error)
}

// SubmissionService queues captured submissions for persistence and serves
// the persisted results to their exam's teacher.
type SubmissionService struct {
	subs  SubmissionStore
	exams ExamStore
	rdb   *redis.Client
	log   zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(subs SubmissionStore, exams ExamStore, rdb *redis.Client, log zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		subs:  subs,
		exams: exams,
		rdb:   rdb,
		log:   log.With().Str("component", "submission_service").Logger(),
	}
}

// Submit pushes the submission onto the persistence queue. The push is the
// durable hand-off; grading and storage happen in the submission worker.
func (s *SubmissionService) Submit(ctx context.Context, sub model.Submission) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, raw).Err(); err != nil {
		return fmt.Errorf("queue submission: %w", err)
	}

	s.log.Debug().
		Str("submission_id", sub.ID.String()).
		Str("exam_id", sub.ExamID.String()).
		Bool("forced", sub.Forced).
		Msg("Submission queued")
	return nil
}

// List retrieves a page of an exam's submissions.
func (s *SubmissionService) List(ctx context.Context, teacherID int, examID uuid.UUID, page, perPage int) ([]model.SubmissionRecord, *response.Pagination, error) {
	if err := s.authorize(ctx, teacherID, examID); err != nil {
		return nil, nil, err
	}

	pagination := response.NewPagination(page, perPage, 0)
	subs, total, err := s.subs.ListByExam(ctx, examID, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, response.NewPagination(pagination.Page, pagination.PerPage, total), nil
}

// Get retrieves one submission with its answers.
func (s *SubmissionService) Get(ctx context.Context, teacherID int, examID, id uuid.UUID) (*model.SubmissionDetail, error) {
	if err := s.authorize(ctx, teacherID, examID); err != nil {
		return nil, err
	}

	detail, err := s.subs.GetDetail(ctx, examID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return detail, nil
}

func (s *SubmissionService) authorize(ctx context.Context, teacherID int, examID uuid.UUID) error {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrExamNotFound
		}
		return fmt.Errorf("get exam: %w", err)
	}
	if exam.TeacherID != teacherID {
		return ErrNotExamOwner
	}
	return nil
}

// Grade scores the multiple-choice answers of sub against key. The score is
// the percentage of correctly answered multiple-choice questions, rounded to
// two decimals, and nil when the exam has none. Long answers are stored
// ungraded.
func Grade(sub model.Submission, key model.AnswerKey) model.SubmissionDetail {
	detail := model.SubmissionDetail{
		SubmissionRecord: model.SubmissionRecord{
			ID:                   sub.ID,
			ExamID:               sub.ExamID,
			StudentName:          sub.Student.Name,
			StudentEmail:         sub.Student.Email,
			StudentID:            sub.Student.StudentID,
			MultipleChoiceCount:  len(key),
			Progress:             sub.Progress,
			Forced:               sub.Forced,
			DurationTakenSeconds: sub.DurationTakenSeconds,
			StartedAt:            sub.StartedAt,
			SubmittedAt:          sub.SubmittedAt,
		},
		Answers: make([]model.SubmissionAnswerRecord, 0, len(sub.Answers)),
	}

	for qid, answer := range sub.Answers {
		rec := model.SubmissionAnswerRecord{SubmissionID: sub.ID, QuestionID: qid}

		switch a := answer.(type) {
		case model.OptionAnswer:
			rec.Kind = model.QuestionKindMultipleChoice
			rec.SelectedOption = a.Index
			if correct, ok := key[qid]; ok {
				isCorrect := a.Index != nil && *a.Index == correct
				rec.IsCorrect = &isCorrect
				if isCorrect {
					detail.CorrectCount++
				}
			}
		case model.TextAnswer:
			rec.Kind = model.QuestionKindLongAnswer
			if model.IsAnswered(a) {
				text := a.Text
				rec.TextAnswer = &text
			}
		default:
			continue
		}
		detail.Answers = append(detail.Answers, rec)
	}

	sort.Slice(detail.Answers, func(i, j int) bool {
		return detail.Answers[i].QuestionID.String() < detail.Answers[j].QuestionID.String()
	})

	if len(key) > 0 {
		score := math.Round(float64(detail.CorrectCount)/float64(len(key))*10000) / 100
		detail.Score = &score
	}
	return detail
}
