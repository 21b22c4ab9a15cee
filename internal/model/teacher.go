package model

import "time"

// Teacher is an account that authors exams.
type Teacher struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	Subject            string    `json:"subject"`
	Institute          string    `json:"institute"`
	NotifyOnSubmission bool      `json:"notify_on_submission"`
	EmailReports       bool      `json:"email_reports"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// SignupRequest is the payload for creating a teacher account.
type SignupRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=255"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	Subject   string `json:"subject" binding:"max=255"`
	Institute string `json:"institute" binding:"max=255"`
}

// LoginRequest is the payload for teacher authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after successful login or signup.
type LoginResponse struct {
	Token   string  `json:"token"`
	Teacher Teacher `json:"teacher"`
}

// UpdateProfileRequest is the payload for editing the teacher profile.
type UpdateProfileRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=255"`
	Subject   string `json:"subject" binding:"max=255"`
	Institute string `json:"institute" binding:"max=255"`
}

// ChangePasswordRequest is the payload for changing the account password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// UpdatePreferencesRequest toggles notification preferences. Nil fields are left unchanged.
type UpdatePreferencesRequest struct {
	NotifyOnSubmission *bool `json:"notify_on_submission"`
	EmailReports       *bool `json:"email_reports"`
}
