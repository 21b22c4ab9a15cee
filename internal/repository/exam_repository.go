package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

var ErrDuplicateShareCode = errors.New("share code already in use")

// ExamRepository handles exam and question data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `e.id, e.teacher_id, e.title, e.description, e.instructions, e.duration_minutes,
	e.scheduled_at, e.closes_at, e.status, e.share_code, e.published_at, e.created_at, e.updated_at,
	(SELECT COUNT(*) FROM questions q WHERE q.exam_id = e.id),
	(SELECT COUNT(*) FROM submissions s WHERE s.exam_id = e.id)`

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.TeacherID, &e.Title, &e.Description, &e.Instructions, &e.DurationMinutes,
		&e.ScheduledAt, &e.ClosesAt, &e.Status, &e.ShareCode, &e.PublishedAt, &e.CreatedAt, &e.UpdatedAt,
		&e.QuestionCount, &e.SubmissionCount)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID retrieves an exam by its UUID, without questions.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams e WHERE e.id = $1`, id))
}

// GetByShareCode retrieves an exam by its public share code, without questions.
func (r *ExamRepository) GetByShareCode(ctx context.Context, code string) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams e WHERE e.share_code = $1`, code))
}

// ListByTeacher retrieves a teacher's exams with search, status filter and pagination.
func (r *ExamRepository) ListByTeacher(ctx context.Context, teacherID int, filter model.ExamFilter, limit, offset int) ([]model.Exam, int, error) {
	where := []string{"e.teacher_id = $1"}
	args := []interface{}{teacherID}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(e.title ILIKE $%d OR e.description ILIKE $%d)", len(args), len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("e.status = $%d", len(args)))
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams e`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + examColumns + ` FROM exams e` + clause +
		fmt.Sprintf(` ORDER BY e.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	exams := []model.Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, 0, err
		}
		exams = append(exams, *e)
	}
	return exams, total, rows.Err()
}

// ListPublished returns all exams with PUBLISHED status.
// Used for cache prewarming on application startup.
func (r *ExamRepository) ListPublished(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams e WHERE e.status = $1 ORDER BY e.created_at DESC`,
		model.ExamStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// ListExpired returns published exams whose closes_at is at or before now.
func (r *ExamRepository) ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM exams WHERE status = $1 AND closes_at IS NOT NULL AND closes_at <= $2`,
		model.ExamStatusPublished, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Create inserts a new exam together with its questions.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO exams (teacher_id, title, description, instructions, duration_minutes, scheduled_at, closes_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		e.TeacherID, e.Title, e.Description, e.Instructions, e.DurationMinutes, e.ScheduledAt, e.ClosesAt, e.Status,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return err
	}

	if err := insertQuestions(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update replaces a draft exam's fields and its whole question list.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`UPDATE exams SET title = $1, description = $2, instructions = $3, duration_minutes = $4,
		        scheduled_at = $5, closes_at = $6, updated_at = NOW()
		 WHERE id = $7 RETURNING updated_at`,
		e.Title, e.Description, e.Instructions, e.DurationMinutes, e.ScheduledAt, e.ClosesAt, e.ID,
	).Scan(&e.UpdatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE exam_id = $1`, e.ID); err != nil {
		return err
	}
	if err := insertQuestions(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertQuestions(ctx context.Context, tx pgx.Tx, e *model.Exam) error {
	if len(e.Questions) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(e.Questions))
	for i := range e.Questions {
		q := &e.Questions[i]
		q.ID = uuid.New()
		q.ExamID = e.ID
		q.OrderNum = i + 1
		options, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{
			q.ID, q.ExamID, string(q.Kind), q.Text, options, q.CorrectOption, q.Marks, q.OrderNum,
		})
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{"id", "exam_id", "question_type", "question_text", "options", "correct_option", "marks", "order_num"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// ListQuestions retrieves all questions for a given exam, ordered by order_num.
func (r *ExamRepository) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.ExamQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, question_type, question_text, options, correct_option, marks, order_num
		 FROM questions WHERE exam_id = $1
		 ORDER BY order_num`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.ExamQuestion{}
	for rows.Next() {
		var q model.ExamQuestion
		var options []byte
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Kind, &q.Text, &options, &q.CorrectOption, &q.Marks, &q.OrderNum); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of %s: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Publish moves a draft to PUBLISHED with the given share code.
func (r *ExamRepository) Publish(ctx context.Context, id uuid.UUID, shareCode string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, share_code = $2, published_at = NOW(), updated_at = NOW()
		 WHERE id = $3 AND status = $4`,
		model.ExamStatusPublished, shareCode, id, model.ExamStatusDraft)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateShareCode
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateStatus updates an exam's status.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

// Delete removes an exam and, by cascade, its questions.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}
