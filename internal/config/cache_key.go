package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamPayloadKey returns the cache key for an exam's student-facing definition
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ExamAnswerKey returns the cache key for an exam's MCQ answer key
func (r *CacheKeyStruct) ExamAnswerKey(examID string) string {
	return fmt.Sprintf("exam:%s:key", examID)
}

// ShareCodeKey maps a public share code to its exam ID
func (r *CacheKeyStruct) ShareCodeKey(shareCode string) string {
	return fmt.Sprintf("share:%s", shareCode)
}

// ExamLiveSessionsKey returns the hash of live sessions (session ID -> status JSON) for an exam
func (r *CacheKeyStruct) ExamLiveSessionsKey(examID string) string {
	return fmt.Sprintf("exam:%s:live_sessions", examID)
}

// ExamMonitorChannel returns the Redis PubSub channel name for an exam monitor
func (r *CacheKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

// RevokedTokenKey marks a logged-out JWT by its ID until the token expires
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

var CacheKey = NewCacheKeyStruct()
