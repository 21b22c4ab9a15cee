package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusClosed    ExamStatus = "CLOSED"
)

// Exam represents an exam entity owned by a teacher.
type Exam struct {
	ID              uuid.UUID      `json:"id"`
	TeacherID       int            `json:"teacher_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Instructions    string         `json:"instructions"`
	DurationMinutes int            `json:"duration_minutes"`
	ScheduledAt     *time.Time     `json:"scheduled_at,omitempty"`
	ClosesAt        *time.Time     `json:"closes_at,omitempty"`
	Status          ExamStatus     `json:"status"`
	ShareCode       *string        `json:"share_code,omitempty"`
	ShareLink       string         `json:"share_link,omitempty"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
	QuestionCount   int            `json:"question_count"`
	SubmissionCount int            `json:"submission_count"`
	Questions       []ExamQuestion `json:"questions,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ExamDefinition is the student-facing, immutable description of an exam.
// It is cached in Redis on publish and never carries correct answers.
type ExamDefinition struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Institute       string    `json:"institute"`
	TeacherName     string    `json:"teacher_name"`
	Description     string    `json:"description"`
	DurationSeconds int       `json:"duration_seconds"`
	Instructions    string    `json:"instructions"`
	Questions       Questions `json:"questions"`
}

// PublicExam is the intro-screen view of a published exam.
type PublicExam struct {
	ExamDefinition
	ShareCode           string `json:"share_code"`
	MultipleChoiceCount int    `json:"multiple_choice_count"`
	LongAnswerCount     int    `json:"long_answer_count"`
}

// AnswerKey maps multiple-choice question ids to their correct option.
type AnswerKey map[uuid.UUID]int

// ExamFilter narrows the teacher's exam list.
type ExamFilter struct {
	Search  string     `form:"search" binding:"omitempty,max=255"`
	Status  ExamStatus `form:"status" binding:"omitempty,oneof=DRAFT PUBLISHED CLOSED"`
	Page    int        `form:"page" binding:"omitempty,min=1"`
	PerPage int        `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// QuestionDraft is one authored question in a create/update payload.
type QuestionDraft struct {
	Type          QuestionKind `json:"type" binding:"required,oneof=MULTIPLE_CHOICE LONG_ANSWER"`
	Text          string       `json:"text" binding:"required,max=2000"`
	Options       []string     `json:"options"`
	CorrectOption *int         `json:"correct_option"`
	Marks         int          `json:"marks"`
}

// ExamDraft is the payload for creating or replacing a draft exam.
type ExamDraft struct {
	Title           string          `json:"title" binding:"required,min=3,max=255"`
	Description     string          `json:"description" binding:"max=2000"`
	Instructions    string          `json:"instructions" binding:"max=5000"`
	DurationMinutes int             `json:"duration_minutes" binding:"required,min=1,max=480"`
	ScheduledAt     *time.Time      `json:"scheduled_at"`
	ClosesAt        *time.Time      `json:"closes_at"`
	Questions       []QuestionDraft `json:"questions" binding:"dive"`
}

// Validate checks the variant-specific rules that struct tags cannot express.
func (q QuestionDraft) Validate() error {
	isMCQ := q.Type == QuestionKindMultipleChoice
	return validation.ValidateStruct(&q,
		validation.Field(&q.Text, validation.Required),
		validation.Field(&q.Options,
			validation.When(isMCQ, validation.Required, validation.Length(2, 10), validation.Each(validation.Required)).
				Else(validation.Empty)),
		validation.Field(&q.CorrectOption,
			validation.When(isMCQ, validation.NotNil, validation.By(optionInRange(len(q.Options)))).
				Else(validation.Nil)),
		validation.Field(&q.Marks,
			validation.When(!isMCQ, validation.Required, validation.Min(1), validation.Max(100))),
	)
}

// Validate checks the draft as a whole, including each question.
func (d ExamDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required, validation.Length(3, 255)),
		validation.Field(&d.DurationMinutes, validation.Required, validation.Min(1), validation.Max(480)),
		validation.Field(&d.ClosesAt, validation.By(closesAfter(d.ScheduledAt))),
		validation.Field(&d.Questions),
	)
}

// ReadyToPublish reports why a draft cannot be published, or nil.
func (e *Exam) ReadyToPublish() error {
	return validation.Validate(e.Questions,
		validation.Required.Error("an exam needs at least one question to be published"))
}

func optionInRange(n int) validation.RuleFunc {
	return func(value interface{}) error {
		idx, _ := value.(*int)
		if idx == nil {
			return nil
		}
		if *idx < 0 || *idx >= n {
			return errors.New("must reference one of the options")
		}
		return nil
	}
}

func closesAfter(start *time.Time) validation.RuleFunc {
	return func(value interface{}) error {
		end, _ := value.(*time.Time)
		if end == nil || start == nil {
			return nil
		}
		if !end.After(*start) {
			return errors.New("must be after scheduled_at")
		}
		return nil
	}
}

// Definition builds the student-facing definition of the exam.
func (e *Exam) Definition(teacher *Teacher) *ExamDefinition {
	questions := make(Questions, 0, len(e.Questions))
	for _, q := range e.Questions {
		questions = append(questions, q.ForStudent())
	}
	def := &ExamDefinition{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		DurationSeconds: e.DurationMinutes * 60,
		Instructions:    e.Instructions,
		Questions:       questions,
	}
	if teacher != nil {
		def.TeacherName = teacher.Name
		def.Institute = teacher.Institute
	}
	return def
}

// AnswerKey extracts the correct options of every multiple-choice question.
func (e *Exam) AnswerKey() AnswerKey {
	key := make(AnswerKey)
	for _, q := range e.Questions {
		if q.Kind == QuestionKindMultipleChoice && q.CorrectOption != nil {
			key[q.ID] = *q.CorrectOption
		}
	}
	return key
}
