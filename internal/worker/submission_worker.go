package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/config"
	"github.com/teachexamhub/examhub-backend/internal/metrics"
	"github.com/teachexamhub/examhub-backend/internal/model"
	"github.com/teachexamhub/examhub-backend/internal/service"
)

const (
	SubmissionBatchSize    = 50
	SubmissionBatchTimeout = 2 * time.Second
	SubmissionPollTimeout  = 1 * time.Second
)

// SubmissionSaver persists graded submissions.
type SubmissionSaver interface {
	SaveBatch(ctx context.Context, batch []model.SubmissionDetail) error
	Save(ctx context.Context, sub *model.SubmissionDetail) error
}

// ExamLookup resolves what grading and notifications need about an exam.
type ExamLookup interface {
	GetAnswerKey(ctx context.Context, examID uuid.UUID) (model.AnswerKey, error)
	WithTeacher(ctx context.Context, examID uuid.UUID) (*model.Exam, *model.Teacher, error)
}

// GradedPublisher announces persisted submissions to the live monitor.
type GradedPublisher interface {
	Graded(ctx context.Context, rec model.SubmissionRecord) error
}

// SubmissionNotifier emails the people interested in a submission.
type SubmissionNotifier interface {
	SubmissionPersisted(ctx context.Context, exam *model.Exam, teacher *model.Teacher, detail *model.SubmissionDetail)
}

// SubmissionWorker consumes persist_submissions_queue, grades each
// submission and writes it to PostgreSQL in batches.
type SubmissionWorker struct {
	rdb      *redis.Client
	saver    SubmissionSaver
	exams    ExamLookup
	monitor  GradedPublisher
	notifier SubmissionNotifier
	log      zerolog.Logger
}

// NewSubmissionWorker creates a new SubmissionWorker.
func NewSubmissionWorker(
	rdb *redis.Client,
	saver SubmissionSaver,
	exams ExamLookup,
	monitor GradedPublisher,
	notifier SubmissionNotifier,
	log zerolog.Logger,
) *SubmissionWorker {
	return &SubmissionWorker{
		rdb:      rdb,
		saver:    saver,
		exams:    exams,
		monitor:  monitor,
		notifier: notifier,
		log:      log.With().Str("component", "submission_worker").Logger(),
	}
}

type queuedSubmission struct {
	raw string
	sub model.Submission
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start begins the worker loop. Call in a goroutine; it returns after
// flushing the pending batch once ctx is cancelled.
func (w *SubmissionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SubmissionWorker started")

	batch := make([]queuedSubmission, 0, SubmissionBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= SubmissionBatchSize || time.Since(lastFlush) >= SubmissionBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, SubmissionPollTimeout, config.WorkerKey.PersistSubmissionsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var sub model.Submission
			if err := json.Unmarshal([]byte(item[1]), &sub); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, queuedSubmission{raw: item[1], sub: sub})
		}
	}
}

// ----------------------------------------------------------------
// Grade + batch insert with single-row fallback
// ----------------------------------------------------------------

func (w *SubmissionWorker) flushSafe(ctx context.Context, batch []queuedSubmission) {
	if len(batch) == 0 {
		return
	}

	keys := make(map[uuid.UUID]model.AnswerKey)
	graded := make([]model.SubmissionDetail, 0, len(batch))
	sources := make([]queuedSubmission, 0, len(batch))

	for _, q := range batch {
		key, ok := keys[q.sub.ExamID]
		if !ok {
			var err error
			key, err = w.exams.GetAnswerKey(ctx, q.sub.ExamID)
			if err != nil {
				w.log.Error().Err(err).Str("exam_id", q.sub.ExamID.String()).Msg("Answer key unavailable, requeueing")
				w.requeue(ctx, q)
				continue
			}
			keys[q.sub.ExamID] = key
		}
		graded = append(graded, service.Grade(q.sub, key))
		sources = append(sources, q)
	}
	if len(graded) == 0 {
		return
	}

	if err := w.saver.SaveBatch(ctx, graded); err != nil {
		w.log.Warn().Err(err).Int("size", len(graded)).Msg("batch insert failed, using fallback")

		saved := make([]model.SubmissionDetail, 0, len(graded))
		for i := range graded {
			if err := w.saver.Save(ctx, &graded[i]); err != nil {
				w.log.Error().Err(err).Str("submission_id", graded[i].ID.String()).Msg("Save failed, requeueing")
				w.requeue(ctx, sources[i])
				continue
			}
			saved = append(saved, graded[i])
		}
		graded = saved
	}

	w.afterPersist(ctx, graded)
}

func (w *SubmissionWorker) requeue(ctx context.Context, q queuedSubmission) {
	if err := w.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, q.raw).Err(); err != nil {
		w.log.Error().Err(err).Str("submission_id", q.sub.ID.String()).Msg("Requeue failed, submission lost")
	}
}

// afterPersist updates metrics, the live monitor and sends emails.
func (w *SubmissionWorker) afterPersist(ctx context.Context, saved []model.SubmissionDetail) {
	type examInfo struct {
		exam    *model.Exam
		teacher *model.Teacher
	}
	exams := make(map[uuid.UUID]*examInfo)

	for i := range saved {
		detail := &saved[i]
		metrics.SubmissionsPersisted.Inc()

		if err := w.monitor.Graded(ctx, detail.SubmissionRecord); err != nil {
			w.log.Warn().Err(err).Str("submission_id", detail.ID.String()).Msg("Failed to publish graded event")
		}

		info, ok := exams[detail.ExamID]
		if !ok {
			exam, teacher, err := w.exams.WithTeacher(ctx, detail.ExamID)
			if err != nil {
				w.log.Warn().Err(err).Str("exam_id", detail.ExamID.String()).Msg("Skipping notifications")
				exams[detail.ExamID] = nil
				continue
			}
			info = &examInfo{exam: exam, teacher: teacher}
			exams[detail.ExamID] = info
		}
		if info == nil {
			continue
		}
		w.notifier.SubmissionPersisted(ctx, info.exam, info.teacher, detail)
	}

	w.log.Debug().Int("count", len(saved)).Msg("Submissions persisted")
}
