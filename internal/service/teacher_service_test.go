package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

func newTeacherService(t *testing.T) (*TeacherService, *fakeTeacherStore) {
	t.Helper()
	_, rdb := newTestRedis(t)
	store := newFakeTeacherStore()
	return NewTeacherService(store, NewAuthService(testConfig(), rdb), zerolog.Nop()), store
}

func signup(t *testing.T, svc *TeacherService) *model.LoginResponse {
	t.Helper()
	res, err := svc.Signup(context.Background(), model.SignupRequest{
		Name:      "  Grace Hopper ",
		Email:     " Grace@Navy.TEST ",
		Password:  "compiler1952",
		Subject:   "Computing",
		Institute: "Navy School",
	})
	require.NoError(t, err)
	return res
}

func TestSignupNormalizesAndIssuesToken(t *testing.T) {
	svc, _ := newTeacherService(t)

	res := signup(t, svc)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Grace Hopper", res.Teacher.Name)
	assert.Equal(t, "grace@navy.test", res.Teacher.Email)
	assert.NotEqual(t, "compiler1952", res.Teacher.PasswordHash)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTeacherService(t)
	signup(t, svc)

	_, err := svc.Signup(context.Background(), model.SignupRequest{
		Name: "Imposter", Email: "GRACE@navy.test", Password: "whatever123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc, _ := newTeacherService(t)
	signup(t, svc)
	ctx := context.Background()

	res, err := svc.Login(ctx, model.LoginRequest{Email: "Grace@Navy.test", Password: "compiler1952"})
	require.NoError(t, err)
	assert.Equal(t, "grace@navy.test", res.Teacher.Email)

	_, err = svc.Login(ctx, model.LoginRequest{Email: "grace@navy.test", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, model.LoginRequest{Email: "nobody@navy.test", Password: "compiler1952"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTeacherService(t)
	res := signup(t, svc)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, res.Teacher.ID, model.ChangePasswordRequest{
		CurrentPassword: "not-it", NewPassword: "cobol1959", ConfirmPassword: "cobol1959",
	})
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = svc.ChangePassword(ctx, res.Teacher.ID, model.ChangePasswordRequest{
		CurrentPassword: "compiler1952", NewPassword: "cobol1959", ConfirmPassword: "cobol1959",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, model.LoginRequest{Email: "grace@navy.test", Password: "cobol1959"})
	assert.NoError(t, err)
}

func TestUpdatePreferencesLeavesNilFieldsUnchanged(t *testing.T) {
	svc, store := newTeacherService(t)
	res := signup(t, svc)
	ctx := context.Background()

	on := true
	teacher, err := svc.UpdatePreferences(ctx, res.Teacher.ID, model.UpdatePreferencesRequest{EmailReports: &on})
	require.NoError(t, err)
	assert.True(t, teacher.EmailReports)
	assert.False(t, teacher.NotifyOnSubmission)

	stored, _ := store.GetByID(ctx, res.Teacher.ID)
	assert.True(t, stored.EmailReports)
}

func TestGetByIDUnknownTeacher(t *testing.T) {
	svc, _ := newTeacherService(t)
	_, err := svc.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrTeacherNotFound)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newTeacherService(t)
	res := signup(t, svc)
	ctx := context.Background()

	claims, err := svc.auth.ValidateToken(res.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))
	assert.ErrorIs(t, svc.auth.CheckRevoked(ctx, claims), ErrTokenRevoked)
}
