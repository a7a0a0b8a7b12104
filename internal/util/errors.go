package util

import "errors"

var (
	ErrProfileNotFound    = errors.New("档案不存在")
	ErrNicknameTaken      = errors.New("昵称已被使用")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrExerciseNotFound   = errors.New("exercise not found")
	ErrNoExercises        = errors.New("no exercises for requested theme and level")
	ErrLevelNotAccessible = errors.New("level not accessible")
	ErrNoActiveSession    = errors.New("no active session")
	ErrLevelFailed        = errors.New("level failed, restart required")
	ErrOperationInFlight  = errors.New("operation already in flight")
	ErrPersistence        = errors.New("persistence failure")
)
