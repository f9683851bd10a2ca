package scheduler

import "errors"

var (
	// ErrSchedulerRunning is returned when tasks are registered after Start
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
