package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

// SubmissionRepository handles graded submission data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

var (
	submissionCopyColumns = []string{
		"id", "exam_id", "student_name", "student_email", "student_id", "score", "correct_count",
		"multiple_choice_count", "progress", "forced", "duration_taken_seconds", "started_at", "submitted_at",
	}
	answerCopyColumns = []string{
		"submission_id", "question_id", "question_type", "selected_option", "text_answer", "is_correct",
	}
)

const submissionColumns = `id, exam_id, student_name, student_email, student_id, score, correct_count,
	multiple_choice_count, progress, forced, duration_taken_seconds, started_at, submitted_at`

func submissionRow(s *model.SubmissionRecord) []interface{} {
	return []interface{}{
		s.ID, s.ExamID, s.StudentName, s.StudentEmail, s.StudentID, s.Score, s.CorrectCount,
		s.MultipleChoiceCount, s.Progress, s.Forced, s.DurationTakenSeconds, s.StartedAt, s.SubmittedAt,
	}
}

func answerRow(a *model.SubmissionAnswerRecord) []interface{} {
	return []interface{}{a.SubmissionID, a.QuestionID, string(a.Kind), a.SelectedOption, a.TextAnswer, a.IsCorrect}
}

// SaveBatch bulk-inserts graded submissions and their answers in one transaction.
func (r *SubmissionRepository) SaveBatch(ctx context.Context, batch []model.SubmissionDetail) error {
	subRows := make([][]interface{}, 0, len(batch))
	var ansRows [][]interface{}
	for i := range batch {
		subRows = append(subRows, submissionRow(&batch[i].SubmissionRecord))
		for j := range batch[i].Answers {
			ansRows = append(ansRows, answerRow(&batch[i].Answers[j]))
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"submissions"}, submissionCopyColumns, pgx.CopyFromRows(subRows)); err != nil {
		return err
	}
	if len(ansRows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"submission_answers"}, answerCopyColumns, pgx.CopyFromRows(ansRows)); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Save inserts a single graded submission. Re-saving an existing
// submission is a no-op.
func (r *SubmissionRepository) Save(ctx context.Context, sub *model.SubmissionDetail) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO submissions (`+submissionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO NOTHING`,
		submissionRow(&sub.SubmissionRecord)...,
	)
	if err != nil {
		return err
	}

	for i := range sub.Answers {
		_, err := tx.Exec(ctx,
			`INSERT INTO submission_answers (submission_id, question_id, question_type, selected_option, text_answer, is_correct)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (submission_id, question_id) DO NOTHING`,
			answerRow(&sub.Answers[i])...,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func scanSubmission(row pgx.Row) (*model.SubmissionRecord, error) {
	s := &model.SubmissionRecord{}
	err := row.Scan(&s.ID, &s.ExamID, &s.StudentName, &s.StudentEmail, &s.StudentID, &s.Score, &s.CorrectCount,
		&s.MultipleChoiceCount, &s.Progress, &s.Forced, &s.DurationTakenSeconds, &s.StartedAt, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByExam retrieves a page of an exam's submissions, newest first.
func (r *SubmissionRepository) ListByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]model.SubmissionRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM submissions WHERE exam_id = $1`, examID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE exam_id = $1
		 ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`,
		examID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	subs := []model.SubmissionRecord{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, err
		}
		subs = append(subs, *s)
	}
	return subs, total, rows.Err()
}

// ListAllByExam retrieves every submission of an exam, oldest first.
func (r *SubmissionRepository) ListAllByExam(ctx context.Context, examID uuid.UUID) ([]model.SubmissionRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE exam_id = $1 ORDER BY submitted_at`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []model.SubmissionRecord{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

// GetDetail retrieves one submission of an exam with its answers.
func (r *SubmissionRepository) GetDetail(ctx context.Context, examID, id uuid.UUID) (*model.SubmissionDetail, error) {
	rec, err := scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1 AND exam_id = $2`, id, examID))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT sa.submission_id, sa.question_id, sa.question_type, sa.selected_option, sa.text_answer, sa.is_correct
		 FROM submission_answers sa
		 JOIN questions q ON q.id = sa.question_id
		 WHERE sa.submission_id = $1
		 ORDER BY q.order_num`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	detail := &model.SubmissionDetail{SubmissionRecord: *rec, Answers: []model.SubmissionAnswerRecord{}}
	for rows.Next() {
		var a model.SubmissionAnswerRecord
		if err := rows.Scan(&a.SubmissionID, &a.QuestionID, &a.Kind, &a.SelectedOption, &a.TextAnswer, &a.IsCorrect); err != nil {
			return nil, err
		}
		detail.Answers = append(detail.Answers, a)
	}
	return detail, rows.Err()
}

// QuestionStats returns correct/incorrect/unanswered counts per
// multiple-choice question of an exam.
func (r *SubmissionRepository) QuestionStats(ctx context.Context, examID uuid.UUID) ([]model.QuestionPerformance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.order_num, q.question_text,
		        COUNT(sa.*) FILTER (WHERE sa.is_correct),
		        COUNT(sa.*) FILTER (WHERE sa.is_correct = FALSE AND sa.selected_option IS NOT NULL),
		        COUNT(sa.*) FILTER (WHERE sa.selected_option IS NULL)
		 FROM questions q
		 LEFT JOIN submission_answers sa ON sa.question_id = q.id
		 WHERE q.exam_id = $1 AND q.question_type = $2
		 GROUP BY q.id, q.order_num, q.question_text
		 ORDER BY q.order_num`,
		examID, model.QuestionKindMultipleChoice)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []model.QuestionPerformance{}
	for rows.Next() {
		var p model.QuestionPerformance
		if err := rows.Scan(&p.QuestionID, &p.OrderNum, &p.Text, &p.Correct, &p.Incorrect, &p.Unanswered); err != nil {
			return nil, err
		}
		stats = append(stats, p)
	}
	return stats, rows.Err()
}
