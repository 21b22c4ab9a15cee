package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// StudentInfo identifies the student taking an exam.
type StudentInfo struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentID string `json:"student_id,omitempty"`
}

// Validate requires a name and a well-formed email.
func (s StudentInfo) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&s.Email, validation.Required, is.EmailFormat),
		validation.Field(&s.StudentID, validation.Length(0, 64)),
	)
}

// Submission is the immutable record captured when a session is submitted.
type Submission struct {
	ID                   uuid.UUID   `json:"id"`
	ExamID               uuid.UUID   `json:"exam_id"`
	Student              StudentInfo `json:"student"`
	Answers              AnswerMap   `json:"answers"`
	StartedAt            time.Time   `json:"started_at"`
	SubmittedAt          time.Time   `json:"submitted_at"`
	Forced               bool        `json:"forced"`
	Progress             int         `json:"progress"`
	DurationTakenSeconds int         `json:"duration_taken_seconds"`
}

// SubmissionRecord is a persisted, graded submission.
type SubmissionRecord struct {
	ID                   uuid.UUID `json:"id"`
	ExamID               uuid.UUID `json:"exam_id"`
	StudentName          string    `json:"student_name"`
	StudentEmail         string    `json:"student_email"`
	StudentID            string    `json:"student_id,omitempty"`
	Score                *float64  `json:"score"`
	CorrectCount         int       `json:"correct_count"`
	MultipleChoiceCount  int       `json:"multiple_choice_count"`
	Progress             int       `json:"progress"`
	Forced               bool      `json:"forced"`
	DurationTakenSeconds int       `json:"duration_taken_seconds"`
	StartedAt            time.Time `json:"started_at"`
	SubmittedAt          time.Time `json:"submitted_at"`
}

// SubmissionAnswerRecord is one persisted answer of a submission.
type SubmissionAnswerRecord struct {
	SubmissionID   uuid.UUID    `json:"submission_id"`
	QuestionID     uuid.UUID    `json:"question_id"`
	Kind           QuestionKind `json:"type"`
	SelectedOption *int         `json:"selected_option,omitempty"`
	TextAnswer     *string      `json:"text_answer,omitempty"`
	IsCorrect      *bool        `json:"is_correct,omitempty"`
}

// SubmissionDetail is a submission with its answers, for the teacher view.
type SubmissionDetail struct {
	SubmissionRecord
	Answers []SubmissionAnswerRecord `json:"answers"`
}
