package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/mail"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

// NotificationService sends the emails that follow a persisted submission.
type NotificationService struct {
	sender mail.Sender
	log    zerolog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(sender mail.Sender, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		sender: sender,
		log:    log.With().Str("component", "notification_service").Logger(),
	}
}

// SubmissionPersisted emails the student a receipt and, when the teacher
// opted in, notifies the teacher. Delivery failures are logged, not returned.
func (s *NotificationService) SubmissionPersisted(ctx context.Context, exam *model.Exam, teacher *model.Teacher, detail *model.SubmissionDetail) {
	answered := 0
	for _, a := range detail.Answers {
		if a.SelectedOption != nil || a.TextAnswer != nil {
			answered++
		}
	}

	receipt := mail.SubmissionReceipt{
		StudentName:  detail.StudentName,
		StudentEmail: detail.StudentEmail,
		ExamTitle:    exam.Title,
		SubmittedAt:  detail.SubmittedAt,
		Forced:       detail.Forced,
		Answered:     answered,
		Total:        len(detail.Answers),
	}
	if teacher != nil {
		receipt.TeacherName = teacher.Name
	}
	s.send(ctx, mail.ConfirmationMessage(receipt), detail)

	if teacher == nil || !teacher.NotifyOnSubmission {
		return
	}
	s.send(ctx, mail.TeacherNotificationMessage(mail.SubmissionNotice{
		TeacherName:  teacher.Name,
		TeacherEmail: teacher.Email,
		ExamTitle:    exam.Title,
		StudentName:  detail.StudentName,
		StudentEmail: detail.StudentEmail,
		Score:        detail.Score,
		Forced:       detail.Forced,
	}), detail)
}

func (s *NotificationService) send(ctx context.Context, msg *mail.Message, detail *model.SubmissionDetail) {
	if !msg.HasRecipients() {
		return
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.log.Warn().
			Err(err).
			Str("submission_id", detail.ID.String()).
			Str("subject", msg.Subject).
			Msg("Failed to send email")
	}
}
