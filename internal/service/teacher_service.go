package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/model"
	"github.com/teachexamhub/examhub-backend/internal/repository"
)

var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrWrongPassword   = errors.New("current password is incorrect")
	ErrTeacherNotFound = errors.New("teacher not found")
)

// TeacherStore is the persistence TeacherService depends on.
type TeacherStore interface {
	GetByID(ctx context.Context, id int) (*model.Teacher, error)
	GetByEmail(ctx context.Context, email string) (*model.Teacher, error)
	Create(ctx context.Context, t *model.Teacher) error
	UpdateProfile(ctx context.Context, t *model.Teacher) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	UpdatePreferences(ctx context.Context, t *model.Teacher) error
}

// TeacherService handles teacher accounts and authentication.
type TeacherService struct {
	repo TeacherStore
	auth *AuthService
	log  zerolog.Logger
}

// NewTeacherService creates a new TeacherService.
func NewTeacherService(repo TeacherStore, auth *AuthService, log zerolog.Logger) *TeacherService {
	return &TeacherService{
		repo: repo,
		auth: auth,
		log:  log.With().Str("component", "teacher_service").Logger(),
	}
}

// Signup registers a teacher and logs them in.
func (s *TeacherService) Signup(ctx context.Context, req model.SignupRequest) (*model.LoginResponse, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	t := &model.Teacher{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Subject:      strings.TrimSpace(req.Subject),
		Institute:    strings.TrimSpace(req.Institute),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create teacher: %w", err)
	}

	s.log.Info().Int("teacher_id", t.ID).Msg("Teacher registered")
	return s.issue(t)
}

// Login verifies credentials and returns a token.
func (s *TeacherService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	t, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if err := s.auth.CheckPassword(t.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	return s.issue(t)
}

// Logout revokes the presented token.
func (s *TeacherService) Logout(ctx context.Context, claims *Claims) error {
	return s.auth.Revoke(ctx, claims)
}

func (s *TeacherService) issue(t *model.Teacher) (*model.LoginResponse, error) {
	token, err := s.auth.GenerateTeacherToken(t.ID, t.Email)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, Teacher: *t}, nil
}

// GetByID retrieves a teacher profile.
func (s *TeacherService) GetByID(ctx context.Context, id int) (*model.Teacher, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeacherNotFound
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return t, nil
}

// UpdateProfile edits the display fields of a teacher.
func (s *TeacherService) UpdateProfile(ctx context.Context, id int, req model.UpdateProfileRequest) (*model.Teacher, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Name = strings.TrimSpace(req.Name)
	t.Subject = strings.TrimSpace(req.Subject)
	t.Institute = strings.TrimSpace(req.Institute)

	if err := s.repo.UpdateProfile(ctx, t); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return t, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *TeacherService) ChangePassword(ctx context.Context, id int, req model.ChangePasswordRequest) error {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.auth.CheckPassword(t.PasswordHash, req.CurrentPassword); err != nil {
		return ErrWrongPassword
	}

	hash, err := s.auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.log.Info().Int("teacher_id", id).Msg("Password changed")
	return nil
}

// UpdatePreferences toggles the notification preferences that were provided.
func (s *TeacherService) UpdatePreferences(ctx context.Context, id int, req model.UpdatePreferencesRequest) (*model.Teacher, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.NotifyOnSubmission != nil {
		t.NotifyOnSubmission = *req.NotifyOnSubmission
	}
	if req.EmailReports != nil {
		t.EmailReports = *req.EmailReports
	}
	if err := s.repo.UpdatePreferences(ctx, t); err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return t, nil
}
