package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/teachexamhub/examhub-backend/internal/config"
)

// MonitorRepository holds the live monitoring state of exams in Redis: a
// hash of in-flight sessions per exam and a pub/sub channel of updates.
type MonitorRepository struct {
	rdb *redis.Client
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(rdb *redis.Client) *MonitorRepository {
	return &MonitorRepository{rdb: rdb}
}

// Upsert stores a session's latest status and publishes event in one round trip.
func (r *MonitorRepository) Upsert(ctx context.Context, examID, sessionID uuid.UUID, status, event []byte) error {
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, config.CacheKey.ExamLiveSessionsKey(examID.String()), sessionID.String(), status)
	pipe.Publish(ctx, config.CacheKey.ExamMonitorChannel(examID.String()), event)
	_, err := pipe.Exec(ctx)
	return err
}

// Remove drops a session from the live hash and publishes event.
func (r *MonitorRepository) Remove(ctx context.Context, examID, sessionID uuid.UUID, event []byte) error {
	pipe := r.rdb.Pipeline()
	pipe.HDel(ctx, config.CacheKey.ExamLiveSessionsKey(examID.String()), sessionID.String())
	pipe.Publish(ctx, config.CacheKey.ExamMonitorChannel(examID.String()), event)
	_, err := pipe.Exec(ctx)
	return err
}

// Publish sends event to the exam's monitor channel.
func (r *MonitorRepository) Publish(ctx context.Context, examID uuid.UUID, event []byte) error {
	return r.rdb.Publish(ctx, config.CacheKey.ExamMonitorChannel(examID.String()), event).Err()
}

// ListLive returns the raw status of every live session of an exam.
func (r *MonitorRepository) ListLive(ctx context.Context, examID uuid.UUID) (map[string]string, error) {
	return r.rdb.HGetAll(ctx, config.CacheKey.ExamLiveSessionsKey(examID.String())).Result()
}

// Subscribe attaches to the exam's monitor channel.
func (r *MonitorRepository) Subscribe(ctx context.Context, examID uuid.UUID) *redis.PubSub {
	return r.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID.String()))
}
