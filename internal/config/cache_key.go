package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// AssignmentPayloadKey returns the cache key for an assignment's payload
func (r *CacheKeyStruct) AssignmentPayloadKey(assignmentID string) string {
	return fmt.Sprintf("assignment:%s:payload", assignmentID)
}

// SessionAnswersKey returns the cache key for a session's fast-lane answers
func (r *CacheKeyStruct) SessionAnswersKey(sessionID string) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

// AssignmentMonitorChannel returns the Redis PubSub channel name for an
// assignment's live session monitor
func (r *CacheKeyStruct) AssignmentMonitorChannel(assignmentID string) string {
	return fmt.Sprintf("assignment:%s:monitor", assignmentID)
}

var CacheKey = NewCacheKeyStruct()
