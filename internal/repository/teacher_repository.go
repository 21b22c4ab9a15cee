package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

var ErrDuplicateEmail = errors.New("email already registered")

// TeacherRepository handles teacher account data access.
type TeacherRepository struct {
	pool *pgxpool.Pool
}

// NewTeacherRepository creates a new TeacherRepository.
func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

const teacherColumns = `id, name, email, password_hash, subject, institute,
	notify_on_submission, email_reports, created_at, updated_at`

func scanTeacher(row interface{ Scan(...any) error }) (*model.Teacher, error) {
	t := &model.Teacher{}
	err := row.Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.Subject, &t.Institute,
		&t.NotifyOnSubmission, &t.EmailReports, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByID retrieves a teacher by ID.
func (r *TeacherRepository) GetByID(ctx context.Context, id int) (*model.Teacher, error) {
	return scanTeacher(r.pool.QueryRow(ctx,
		`SELECT `+teacherColumns+` FROM teachers WHERE id = $1`, id))
}

// GetByEmail retrieves a teacher by login email.
func (r *TeacherRepository) GetByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	return scanTeacher(r.pool.QueryRow(ctx,
		`SELECT `+teacherColumns+` FROM teachers WHERE LOWER(email) = LOWER($1)`, email))
}

// Create inserts a new teacher.
func (r *TeacherRepository) Create(ctx context.Context, t *model.Teacher) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO teachers (name, email, password_hash, subject, institute)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, notify_on_submission, email_reports, created_at, updated_at`,
		t.Name, t.Email, t.PasswordHash, t.Subject, t.Institute,
	).Scan(&t.ID, &t.NotifyOnSubmission, &t.EmailReports, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// UpdateProfile modifies name, subject and institute.
func (r *TeacherRepository) UpdateProfile(ctx context.Context, t *model.Teacher) error {
	return r.pool.QueryRow(ctx,
		`UPDATE teachers SET name = $1, subject = $2, institute = $3, updated_at = NOW()
		 WHERE id = $4 RETURNING updated_at`,
		t.Name, t.Subject, t.Institute, t.ID,
	).Scan(&t.UpdatedAt)
}

// UpdatePassword replaces the password hash.
func (r *TeacherRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE teachers SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id)
	return err
}

// UpdatePreferences stores the notification preferences.
func (r *TeacherRepository) UpdatePreferences(ctx context.Context, t *model.Teacher) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE teachers SET notify_on_submission = $1, email_reports = $2, updated_at = NOW()
		 WHERE id = $3`,
		t.NotifyOnSubmission, t.EmailReports, t.ID)
	return err
}
