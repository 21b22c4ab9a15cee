package mail

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// SubmissionReceipt is the data for a student's confirmation email.
type SubmissionReceipt struct {
	StudentName  string
	StudentEmail string
	ExamTitle    string
	TeacherName  string
	SubmittedAt  time.Time
	Forced       bool
	Answered     int
	Total        int
}

// ConfirmationMessage builds the email telling a student their answers arrived.
func ConfirmationMessage(r SubmissionReceipt) *Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", r.StudentName)
	fmt.Fprintf(&b, "Your answers for %q were received on %s.\n", r.ExamTitle, r.SubmittedAt.UTC().Format(time.RFC1123))
	if r.Forced {
		b.WriteString("The exam was submitted automatically when the time ran out.\n")
	}
	fmt.Fprintf(&b, "You answered %d of %d questions.\n", r.Answered, r.Total)
	if r.TeacherName != "" {
		fmt.Fprintf(&b, "\n%s will share your results once grading is complete.\n", r.TeacherName)
	}

	return &Message{
		To:      []mail.Address{{Name: r.StudentName, Address: r.StudentEmail}},
		Subject: "Submission received: " + r.ExamTitle,
		Text:    b.String(),
	}
}

// SubmissionNotice is the data for a teacher's new-submission email.
type SubmissionNotice struct {
	TeacherName  string
	TeacherEmail string
	ExamTitle    string
	StudentName  string
	StudentEmail string
	Score        *float64
	Forced       bool
}

// TeacherNotificationMessage builds the email telling a teacher a student submitted.
func TeacherNotificationMessage(n SubmissionNotice) *Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", n.TeacherName)
	fmt.Fprintf(&b, "%s <%s> submitted %q.\n", n.StudentName, n.StudentEmail, n.ExamTitle)
	if n.Score != nil {
		fmt.Fprintf(&b, "Multiple-choice score: %.1f%%\n", *n.Score)
	}
	if n.Forced {
		b.WriteString("The submission was made automatically when time ran out.\n")
	}

	return &Message{
		To:      []mail.Address{{Name: n.TeacherName, Address: n.TeacherEmail}},
		Subject: "New submission: " + n.ExamTitle,
		Text:    b.String(),
	}
}
