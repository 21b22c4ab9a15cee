package mail

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationMessage(t *testing.T) {
	msg := ConfirmationMessage(SubmissionReceipt{
		StudentName:  "Ada",
		StudentEmail: "ada@school.edu",
		ExamTitle:    "Biology Midterm",
		TeacherName:  "Ms. Frizzle",
		SubmittedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Forced:       true,
		Answered:     2,
		Total:        3,
	})

	require.Len(t, msg.To, 1)
	assert.Equal(t, "ada@school.edu", msg.To[0].Address)
	assert.Equal(t, "Submission received: Biology Midterm", msg.Subject)
	assert.Contains(t, msg.Text, "automatically")
	assert.Contains(t, msg.Text, "2 of 3")
}

func TestTeacherNotificationMessage(t *testing.T) {
	score := 66.7
	msg := TeacherNotificationMessage(SubmissionNotice{
		TeacherName:  "Ms. Frizzle",
		TeacherEmail: "frizzle@school.edu",
		ExamTitle:    "Biology Midterm",
		StudentName:  "Ada",
		StudentEmail: "ada@school.edu",
		Score:        &score,
	})

	assert.Equal(t, "frizzle@school.edu", msg.To[0].Address)
	assert.Contains(t, msg.Text, "66.7%")
	assert.NotContains(t, msg.Text, "automatically")
}

func TestLogSenderSkipsEmptyRecipients(t *testing.T) {
	s := NewLogSender(zerolog.Nop())
	assert.NoError(t, s.Send(context.Background(), &Message{Subject: "x"}))
	assert.NoError(t, s.Send(context.Background(), ConfirmationMessage(SubmissionReceipt{StudentEmail: "a@b.c"})))
}
