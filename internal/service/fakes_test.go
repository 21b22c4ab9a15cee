package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/config"
	"github.com/teachexamhub/examhub-backend/internal/model"
	"github.com/teachexamhub/examhub-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiry:     time.Hour,
		BcryptCost:    bcrypt.MinCost,
		PublicBaseURL: "https://exams.test",
		PassingScore:  60,
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

// ─── Teachers ───────────────────────────────────────────────────────

type fakeTeacherStore struct {
	mu       sync.Mutex
	nextID   int
	teachers map[int]*model.Teacher
}

func newFakeTeacherStore() *fakeTeacherStore {
	return &fakeTeacherStore{teachers: make(map[int]*model.Teacher)}
}

func (f *fakeTeacherStore) GetByID(_ context.Context, id int) (*model.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teachers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTeacherStore) GetByEmail(_ context.Context, email string) (*model.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.teachers {
		if t.Email == email {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTeacherStore) Create(_ context.Context, t *model.Teacher) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.teachers {
		if strings.EqualFold(existing.Email, t.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	f.nextID++
	t.ID = f.nextID
	cp := *t
	f.teachers[t.ID] = &cp
	return nil
}

func (f *fakeTeacherStore) UpdateProfile(_ context.Context, t *model.Teacher) error {
	return f.put(t)
}

func (f *fakeTeacherStore) UpdatePassword(_ context.Context, id int, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teachers[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.PasswordHash = hash
	return nil
}

func (f *fakeTeacherStore) UpdatePreferences(_ context.Context, t *model.Teacher) error {
	return f.put(t)
}

func (f *fakeTeacherStore) put(t *model.Teacher) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teachers[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *t
	f.teachers[t.ID] = &cp
	return nil
}

// ─── Exams ──────────────────────────────────────────────────────────

type fakeExamStore struct {
	mu        sync.Mutex
	exams     map[uuid.UUID]*model.Exam
	questions map[uuid.UUID][]model.ExamQuestion
	// collisions is how many Publish calls report a share code collision.
	collisions int
}

func newFakeExamStore() *fakeExamStore {
	return &fakeExamStore{
		exams:     make(map[uuid.UUID]*model.Exam),
		questions: make(map[uuid.UUID][]model.ExamQuestion),
	}
}

func (f *fakeExamStore) get(id uuid.UUID) (*model.Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	cp.Questions = nil
	cp.QuestionCount = len(f.questions[id])
	return &cp, nil
}

func (f *fakeExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *fakeExamStore) GetByShareCode(_ context.Context, code string) (*model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, e := range f.exams {
		if e.ShareCode != nil && *e.ShareCode == code {
			return f.get(id)
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeExamStore) ListByTeacher(_ context.Context, teacherID int, filter model.ExamFilter, limit, offset int) ([]model.Exam, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Exam
	for id, e := range f.exams {
		if e.TeacherID != teacherID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(filter.Search)) {
			continue
		}
		cp, _ := f.get(id)
		all = append(all, *cp)
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	return all[offset:min(offset+limit, total)], total, nil
}

func (f *fakeExamStore) ListPublished(_ context.Context) ([]model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Exam
	for id, e := range f.exams {
		if e.Status == model.ExamStatusPublished {
			cp, _ := f.get(id)
			out = append(out, *cp)
		}
	}
	return out, nil
}

func (f *fakeExamStore) ListExpired(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uuid.UUID
	for id, e := range f.exams {
		if e.Status == model.ExamStatusPublished && e.ClosesAt != nil && !now.Before(*e.ClosesAt) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeExamStore) Create(_ context.Context, e *model.Exam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	f.storeQuestions(e)
	cp := *e
	f.exams[e.ID] = &cp
	return nil
}

func (f *fakeExamStore) Update(_ context.Context, e *model.Exam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.exams[e.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.storeQuestions(e)
	cp := *e
	f.exams[e.ID] = &cp
	return nil
}

func (f *fakeExamStore) storeQuestions(e *model.Exam) {
	qs := make([]model.ExamQuestion, len(e.Questions))
	for i, q := range e.Questions {
		q.ID = uuid.New()
		q.ExamID = e.ID
		q.OrderNum = i + 1
		e.Questions[i] = q
		qs[i] = q
	}
	f.questions[e.ID] = qs
}

func (f *fakeExamStore) ListQuestions(_ context.Context, examID uuid.UUID) ([]model.ExamQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	qs := make([]model.ExamQuestion, len(f.questions[examID]))
	copy(qs, f.questions[examID])
	return qs, nil
}

func (f *fakeExamStore) Publish(_ context.Context, id uuid.UUID, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.exams[id]
	if !ok || e.Status != model.ExamStatusDraft {
		return pgx.ErrNoRows
	}
	if f.collisions > 0 {
		f.collisions--
		return repository.ErrDuplicateShareCode
	}
	now := time.Now()
	e.Status = model.ExamStatusPublished
	e.ShareCode = &code
	e.PublishedAt = &now
	return nil
}

func (f *fakeExamStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.ExamStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.exams[id]
	if !ok {
		return pgx.ErrNoRows
	}
	e.Status = status
	return nil
}

func (f *fakeExamStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.exams, id)
	delete(f.questions, id)
	return nil
}

// ─── Submissions ────────────────────────────────────────────────────

type fakeSubmissionStore struct {
	mu      sync.Mutex
	details []model.SubmissionDetail
	stats   []model.QuestionPerformance
}

func (f *fakeSubmissionStore) SaveBatch(_ context.Context, batch []model.SubmissionDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details = append(f.details, batch...)
	return nil
}

func (f *fakeSubmissionStore) Save(_ context.Context, sub *model.SubmissionDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details = append(f.details, *sub)
	return nil
}

func (f *fakeSubmissionStore) ListByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]model.SubmissionRecord, int, error) {
	all, _ := f.ListAllByExam(ctx, examID)
	if offset >= len(all) {
		return []model.SubmissionRecord{}, len(all), nil
	}
	return all[offset:min(offset+limit, len(all))], len(all), nil
}

func (f *fakeSubmissionStore) ListAllByExam(_ context.Context, examID uuid.UUID) ([]model.SubmissionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.SubmissionRecord{}
	for _, d := range f.details {
		if d.ExamID == examID {
			out = append(out, d.SubmissionRecord)
		}
	}
	return out, nil
}

func (f *fakeSubmissionStore) GetDetail(_ context.Context, examID, id uuid.UUID) (*model.SubmissionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.details {
		if d.ExamID == examID && d.ID == id {
			cp := d
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSubmissionStore) QuestionStats(_ context.Context, _ uuid.UUID) ([]model.QuestionPerformance, error) {
	return f.stats, nil
}

// ─── Fixtures ───────────────────────────────────────────────────────

type examFixture struct {
	cfg      *config.Config
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	teachers *fakeTeacherStore
	exams    *fakeExamStore
	svc      *ExamService
	teacher  *model.Teacher
}

func newExamFixture(t *testing.T) *examFixture {
	t.Helper()
	mr, rdb := newTestRedis(t)
	fx := &examFixture{
		cfg:      testConfig(),
		mr:       mr,
		rdb:      rdb,
		teachers: newFakeTeacherStore(),
		exams:    newFakeExamStore(),
	}
	fx.svc = NewExamService(fx.cfg, fx.exams, fx.teachers, rdb, zerolog.Nop())

	fx.teacher = &model.Teacher{Name: "Ada Lovelace", Email: "ada@school.test", Institute: "Analytical High"}
	if err := fx.teachers.Create(context.Background(), fx.teacher); err != nil {
		t.Fatal(err)
	}
	return fx
}

func intPtr(i int) *int { return &i }

func sampleDraft() model.ExamDraft {
	return model.ExamDraft{
		Title:           "Cell Biology",
		DurationMinutes: 30,
		Questions: []model.QuestionDraft{
			{Type: model.QuestionKindMultipleChoice, Text: "Powerhouse of the cell?", Options: []string{"Nucleus", "Mitochondria", "Ribosome"}, CorrectOption: intPtr(1)},
			{Type: model.QuestionKindMultipleChoice, Text: "Site of protein synthesis?", Options: []string{"Ribosome", "Golgi"}, CorrectOption: intPtr(0)},
			{Type: model.QuestionKindLongAnswer, Text: "Describe osmosis.", Marks: 5},
		},
	}
}

func (fx *examFixture) published(t *testing.T) *model.Exam {
	t.Helper()
	ctx := context.Background()
	exam, err := fx.svc.Create(ctx, fx.teacher.ID, sampleDraft())
	if err != nil {
		t.Fatal(err)
	}
	exam, err = fx.svc.Publish(ctx, fx.teacher.ID, exam.ID)
	if err != nil {
		t.Fatal(err)
	}
	return exam
}
