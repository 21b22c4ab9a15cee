package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/config"
	"github.com/teachexamhub/examhub-backend/internal/model"
	"github.com/teachexamhub/examhub-backend/internal/repository"
	"github.com/teachexamhub/examhub-backend/internal/response"
)

// Domain Errors
var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrNotExamOwner     = errors.New("not the owner of this exam")
	ErrNoQuestions      = errors.New("exam has no questions, cannot publish")
	ErrExamNotDraft     = errors.New("exam status is not DRAFT")
	ErrExamNotPublished = errors.New("exam status is not PUBLISHED")
	ErrExamNotAvailable = errors.New("exam is not open for submissions")
)

const (
	shareCodeLength   = 8
	shareCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	shareCodeAttempts = 5
)

// ExamStore is the persistence ExamService depends on.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	GetByShareCode(ctx context.Context, code string) (*model.Exam, error)
	ListByTeacher(ctx context.Context, teacherID int, filter model.ExamFilter, limit, offset int) ([]model.Exam, int, error)
	ListPublished(ctx context.Context) ([]model.Exam, error)
	ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	Create(ctx context.Context, e *model.Exam) error
	Update(ctx context.Context, e *model.Exam) error
	ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.ExamQuestion, error)
	Publish(ctx context.Context, id uuid.UUID, shareCode string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExamService handles exam authoring, publishing and the Redis exam cache.
type ExamService struct {
	cfg      *config.Config
	exams    ExamStore
	teachers TeacherStore
	rdb      *redis.Client
	log      zerolog.Logger
	now      func() time.Time
}

// NewExamService creates a new ExamService.
func NewExamService(
	cfg *config.Config,
	exams ExamStore,
	teachers TeacherStore,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		cfg:      cfg,
		exams:    exams,
		teachers: teachers,
		rdb:      rdb,
		log:      log.With().Str("component", "exam_service").Logger(),
		now:      time.Now,
	}
}

// Get retrieves one of the teacher's exams with its questions.
func (s *ExamService) Get(ctx context.Context, teacherID int, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.owned(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	exam.Questions, err = s.exams.ListQuestions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return exam, nil
}

// List retrieves the teacher's exams, filtered and paginated.
func (s *ExamService) List(ctx context.Context, teacherID int, filter model.ExamFilter) ([]model.Exam, *response.Pagination, error) {
	pagination := response.NewPagination(filter.Page, filter.PerPage, 0)

	exams, total, err := s.exams.ListByTeacher(ctx, teacherID, filter, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("list exams: %w", err)
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	for i := range exams {
		s.decorate(&exams[i])
	}

	return exams, response.NewPagination(pagination.Page, pagination.PerPage, total), nil
}

// Create inserts a new exam as DRAFT.
func (s *ExamService) Create(ctx context.Context, teacherID int, draft model.ExamDraft) (*model.Exam, error) {
	exam := &model.Exam{TeacherID: teacherID, Status: model.ExamStatusDraft}
	applyDraft(exam, draft)

	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	exam.QuestionCount = len(exam.Questions)

	s.log.Info().Str("exam_id", exam.ID.String()).Int("teacher_id", teacherID).Msg("Exam created")
	return exam, nil
}

// Update replaces the fields and questions of a draft exam.
func (s *ExamService) Update(ctx context.Context, teacherID int, id uuid.UUID, draft model.ExamDraft) (*model.Exam, error) {
	exam, err := s.owned(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}

	applyDraft(exam, draft)
	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}
	exam.QuestionCount = len(exam.Questions)
	return exam, nil
}

// Delete removes a draft exam.
func (s *ExamService) Delete(ctx context.Context, teacherID int, id uuid.UUID) error {
	exam, err := s.owned(ctx, teacherID, id)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	if err := s.exams.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return nil
}

// Duplicate copies an exam of any status into a new draft.
func (s *ExamService) Duplicate(ctx context.Context, teacherID int, id uuid.UUID) (*model.Exam, error) {
	src, err := s.Get(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}

	questions := make([]model.ExamQuestion, len(src.Questions))
	copy(questions, src.Questions)

	dup := &model.Exam{
		TeacherID:       teacherID,
		Title:           src.Title + " (Copy)",
		Description:     src.Description,
		Instructions:    src.Instructions,
		DurationMinutes: src.DurationMinutes,
		Status:          model.ExamStatusDraft,
		Questions:       questions,
	}
	if err := s.exams.Create(ctx, dup); err != nil {
		return nil, fmt.Errorf("duplicate exam: %w", err)
	}
	dup.QuestionCount = len(dup.Questions)

	s.log.Info().Str("exam_id", dup.ID.String()).Str("source_id", id.String()).Msg("Exam duplicated")
	return dup, nil
}

// Publish makes a draft available under a fresh share code and warms its cache.
func (s *ExamService) Publish(ctx context.Context, teacherID int, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.Get(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}
	if err := exam.ReadyToPublish(); err != nil {
		return nil, ErrNoQuestions
	}

	var code string
	for attempt := 0; attempt < shareCodeAttempts; attempt++ {
		code, err = newShareCode()
		if err != nil {
			return nil, err
		}
		err = s.exams.Publish(ctx, id, code)
		if !errors.Is(err, repository.ErrDuplicateShareCode) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotDraft
		}
		return nil, fmt.Errorf("publish exam: %w", err)
	}

	published := s.now()
	exam.Status = model.ExamStatusPublished
	exam.ShareCode = &code
	exam.PublishedAt = &published
	s.decorate(exam)

	if err := s.WarmExamCache(ctx, exam); err != nil {
		// The store is the source of truth; a cold cache self-heals on first access.
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to warm cache after publish")
	}

	s.log.Info().Str("exam_id", id.String()).Str("share_code", code).Msg("Exam published")
	return exam, nil
}

// Close stops a published exam from accepting new sessions.
func (s *ExamService) Close(ctx context.Context, teacherID int, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.owned(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}
	if err := s.close(ctx, exam.ID, exam.ShareCode); err != nil {
		return nil, err
	}
	exam.Status = model.ExamStatusClosed
	return exam, nil
}

// CloseExpired closes every published exam whose closing time has passed.
// It returns how many exams were closed.
func (s *ExamService) CloseExpired(ctx context.Context) (int, error) {
	ids, err := s.exams.ListExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list expired exams: %w", err)
	}

	closed := 0
	for _, id := range ids {
		exam, err := s.exams.GetByID(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to load expired exam, skipping")
			continue
		}
		if err := s.close(ctx, id, exam.ShareCode); err != nil {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to close expired exam, skipping")
			continue
		}
		closed++
	}
	return closed, nil
}

func (s *ExamService) close(ctx context.Context, id uuid.UUID, shareCode *string) error {
	if err := s.exams.UpdateStatus(ctx, id, model.ExamStatusClosed); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	keys := []string{
		config.CacheKey.ExamPayloadKey(id.String()),
		config.CacheKey.ExamAnswerKey(id.String()),
	}
	if shareCode != nil {
		keys = append(keys, config.CacheKey.ShareCodeKey(*shareCode))
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to evict exam cache")
	}

	s.log.Info().Str("exam_id", id.String()).Msg("Exam closed")
	return nil
}

// WarmExamCache stores the student payload, the answer key and the share
// code mapping of a published exam in Redis. exam.Questions must be loaded.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.Exam) error {
	if len(exam.Questions) == 0 {
		return ErrNoQuestions
	}
	if exam.ShareCode == nil {
		return fmt.Errorf("warm cache: exam %s has no share code", exam.ID)
	}

	teacher, err := s.teachers.GetByID(ctx, exam.TeacherID)
	if err != nil {
		return fmt.Errorf("get teacher: %w", err)
	}

	public := publicExam(exam, teacher)
	payloadJSON, err := json.Marshal(public)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	answerKey := make(map[string]interface{})
	for qid, idx := range exam.AnswerKey() {
		answerKey[qid.String()] = idx
	}

	id := exam.ID.String()
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.ExamPayloadKey(id), payloadJSON, 0)
	pipe.Set(ctx, config.CacheKey.ShareCodeKey(*exam.ShareCode), id, 0)
	pipe.Del(ctx, config.CacheKey.ExamAnswerKey(id))
	if len(answerKey) > 0 {
		pipe.HSet(ctx, config.CacheKey.ExamAnswerKey(id), answerKey)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", id).
		Int("questions", len(exam.Questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all published exams into Redis on application startup.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.exams.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published exams: %w", err)
	}

	if len(exams) == 0 {
		s.log.Info().Msg("No published exams to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(exams)).Msg("Prewarming published exams...")

	warmed := 0
	for i := range exams {
		exam := &exams[i]
		exam.Questions, err = s.exams.ListQuestions(ctx, exam.ID)
		if err == nil {
			err = s.WarmExamCache(ctx, exam)
		}
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exam.ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// GetPublicExam resolves a share code to the student-facing exam. Redis is
// tried first; on a miss the exam is loaded from PostgreSQL and re-cached.
func (s *ExamService) GetPublicExam(ctx context.Context, code string) (*model.PublicExam, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrExamNotFound
	}

	public, err := s.cachedPublicExam(ctx, code)
	if err == nil {
		return public, nil
	}
	if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("share_code", code).Msg("Exam cache read failed, falling back to database")
	}

	exam, err := s.exams.GetByShareCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotAvailable
	}
	if exam.ClosesAt != nil && !s.now().Before(*exam.ClosesAt) {
		return nil, ErrExamNotAvailable
	}

	exam.Questions, err = s.exams.ListQuestions(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	teacher, err := s.teachers.GetByID(ctx, exam.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}

	if err := s.WarmExamCache(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Failed to self-heal exam cache")
	}
	return publicExam(exam, teacher), nil
}

func (s *ExamService) cachedPublicExam(ctx context.Context, code string) (*model.PublicExam, error) {
	id, err := s.rdb.Get(ctx, config.CacheKey.ShareCodeKey(code)).Result()
	if err != nil {
		return nil, err
	}
	data, err := s.rdb.Get(ctx, config.CacheKey.ExamPayloadKey(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var public model.PublicExam
	if err := json.Unmarshal(data, &public); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &public, nil
}

// GetAnswerKey retrieves the multiple-choice answer key of an exam, from
// Redis when cached.
func (s *ExamService) GetAnswerKey(ctx context.Context, examID uuid.UUID) (model.AnswerKey, error) {
	result, err := s.rdb.HGetAll(ctx, config.CacheKey.ExamAnswerKey(examID.String())).Result()
	if err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Answer key cache read failed")
	}

	if len(result) > 0 {
		key := make(model.AnswerKey, len(result))
		for qid, raw := range result {
			id, err := uuid.Parse(qid)
			if err != nil {
				return nil, fmt.Errorf("parse answer key: %w", err)
			}
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("parse answer key: %w", err)
			}
			key[id] = idx
		}
		return key, nil
	}

	questions, err := s.exams.ListQuestions(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	exam := &model.Exam{ID: examID, Questions: questions}
	return exam.AnswerKey(), nil
}

// WithTeacher loads an exam and its author, for notifications.
func (s *ExamService) WithTeacher(ctx context.Context, examID uuid.UUID) (*model.Exam, *model.Teacher, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrExamNotFound
		}
		return nil, nil, fmt.Errorf("get exam: %w", err)
	}
	teacher, err := s.teachers.GetByID(ctx, exam.TeacherID)
	if err != nil {
		return nil, nil, fmt.Errorf("get teacher: %w", err)
	}
	return exam, teacher, nil
}

func (s *ExamService) owned(ctx context.Context, teacherID int, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.TeacherID != teacherID {
		return nil, ErrNotExamOwner
	}
	s.decorate(exam)
	return exam, nil
}

func (s *ExamService) decorate(exam *model.Exam) {
	if exam.ShareCode != nil {
		exam.ShareLink = s.cfg.ShareLink(*exam.ShareCode)
	}
}

func applyDraft(exam *model.Exam, draft model.ExamDraft) {
	exam.Title = strings.TrimSpace(draft.Title)
	exam.Description = strings.TrimSpace(draft.Description)
	exam.Instructions = strings.TrimSpace(draft.Instructions)
	exam.DurationMinutes = draft.DurationMinutes
	exam.ScheduledAt = draft.ScheduledAt
	exam.ClosesAt = draft.ClosesAt

	exam.Questions = make([]model.ExamQuestion, 0, len(draft.Questions))
	for _, q := range draft.Questions {
		eq := model.ExamQuestion{Kind: q.Type, Text: strings.TrimSpace(q.Text)}
		switch q.Type {
		case model.QuestionKindMultipleChoice:
			eq.Options = q.Options
			eq.CorrectOption = q.CorrectOption
			eq.Marks = 1
		case model.QuestionKindLongAnswer:
			eq.Marks = q.Marks
		}
		exam.Questions = append(exam.Questions, eq)
	}
}

func publicExam(exam *model.Exam, teacher *model.Teacher) *model.PublicExam {
	def := exam.Definition(teacher)
	mcq, long := def.Questions.Counts()
	public := &model.PublicExam{
		ExamDefinition:      *def,
		MultipleChoiceCount: mcq,
		LongAnswerCount:     long,
	}
	if exam.ShareCode != nil {
		public.ShareCode = *exam.ShareCode
	}
	return public
}

func newShareCode() (string, error) {
	buf := make([]byte, shareCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share code: %w", err)
	}
	for i, b := range buf {
		buf[i] = shareCodeAlphabet[int(b)%len(shareCodeAlphabet)]
	}
	return string(buf), nil
}
