package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/model"
	"github.com/teachexamhub/examhub-backend/internal/repository"
)

// MonitorEventType names a live monitor update.
type MonitorEventType string

const (
	MonitorJoined    MonitorEventType = "joined"
	MonitorProgress  MonitorEventType = "progress"
	MonitorSubmitted MonitorEventType = "submitted"
	MonitorLeft      MonitorEventType = "left"
	MonitorGraded    MonitorEventType = "graded"
)

// LiveSession is the monitor's view of one in-flight session.
type LiveSession struct {
	SessionID        uuid.UUID `json:"session_id"`
	ExamID           uuid.UUID `json:"exam_id"`
	StudentName      string    `json:"student_name"`
	StudentEmail     string    `json:"student_email"`
	Phase            string    `json:"phase"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Progress         int       `json:"progress"`
	Forced           bool      `json:"forced"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// MonitorEvent is published on the exam monitor channel.
type MonitorEvent struct {
	Type       MonitorEventType        `json:"type"`
	Session    *LiveSession            `json:"session,omitempty"`
	Submission *model.SubmissionRecord `json:"submission,omitempty"`
}

// MonitorSnapshot is sent when a teacher attaches to the live monitor.
type MonitorSnapshot struct {
	ExamID          uuid.UUID     `json:"exam_id"`
	Title           string        `json:"title"`
	DurationMinutes int           `json:"duration_minutes"`
	QuestionCount   int           `json:"question_count"`
	SubmissionCount int           `json:"submission_count"`
	Sessions        []LiveSession `json:"sessions"`
}

// MonitorService publishes session activity and serves the live monitor.
type MonitorService struct {
	repo  *repository.MonitorRepository
	exams *ExamService
	log   zerolog.Logger
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(repo *repository.MonitorRepository, exams *ExamService, log zerolog.Logger) *MonitorService {
	return &MonitorService{
		repo:  repo,
		exams: exams,
		log:   log.With().Str("component", "monitor_service").Logger(),
	}
}

// Track records a session update. Joined and progress updates refresh the
// live entry; submitted and left remove it.
func (s *MonitorService) Track(ctx context.Context, typ MonitorEventType, live LiveSession) error {
	event, err := json.Marshal(MonitorEvent{Type: typ, Session: &live})
	if err != nil {
		return fmt.Errorf("marshal monitor event: %w", err)
	}

	switch typ {
	case MonitorSubmitted, MonitorLeft:
		err = s.repo.Remove(ctx, live.ExamID, live.SessionID, event)
	default:
		status, merr := json.Marshal(live)
		if merr != nil {
			return fmt.Errorf("marshal live session: %w", merr)
		}
		err = s.repo.Upsert(ctx, live.ExamID, live.SessionID, status, event)
	}
	if err != nil {
		return fmt.Errorf("track session: %w", err)
	}
	return nil
}

// Graded announces a persisted submission.
func (s *MonitorService) Graded(ctx context.Context, rec model.SubmissionRecord) error {
	event, err := json.Marshal(MonitorEvent{Type: MonitorGraded, Submission: &rec})
	if err != nil {
		return fmt.Errorf("marshal monitor event: %w", err)
	}
	if err := s.repo.Publish(ctx, rec.ExamID, event); err != nil {
		return fmt.Errorf("publish graded: %w", err)
	}
	return nil
}

// Snapshot returns the teacher's exam with its live sessions. The exam and
// the live hash are fetched concurrently.
func (s *MonitorService) Snapshot(ctx context.Context, teacherID int, examID uuid.UUID) (*MonitorSnapshot, error) {
	var (
		exam    *model.Exam
		live    map[string]string
		examErr error
		liveErr error
		wg      sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		exam, examErr = s.exams.owned(ctx, teacherID, examID)
	}()
	go func() {
		defer wg.Done()
		live, liveErr = s.repo.ListLive(ctx, examID)
	}()
	wg.Wait()

	if examErr != nil {
		return nil, examErr
	}

	snap := &MonitorSnapshot{
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		QuestionCount:   exam.QuestionCount,
		SubmissionCount: exam.SubmissionCount,
		Sessions:        []LiveSession{},
	}

	// Live sessions are best-effort.
	if liveErr != nil {
		s.log.Warn().Err(liveErr).Str("exam_id", examID.String()).Msg("Failed to list live sessions")
		return snap, nil
	}
	for sid, raw := range live {
		var ls LiveSession
		if err := json.Unmarshal([]byte(raw), &ls); err != nil {
			s.log.Warn().Err(err).Str("session_id", sid).Msg("Skipping malformed live session")
			continue
		}
		snap.Sessions = append(snap.Sessions, ls)
	}
	sort.Slice(snap.Sessions, func(i, j int) bool {
		return snap.Sessions[i].StudentName < snap.Sessions[j].StudentName
	})
	return snap, nil
}

// Subscribe attaches to the exam's live update channel. The caller closes it.
func (s *MonitorService) Subscribe(ctx context.Context, examID uuid.UUID) *redis.PubSub {
	return s.repo.Subscribe(ctx, examID)
}
