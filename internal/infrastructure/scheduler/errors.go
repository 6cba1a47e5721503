package scheduler

import "errors"

var (
	// ErrWorkerNotRunning is returned when scheduling against a stopped worker
	ErrWorkerNotRunning = errors.New("settlement worker is not running")

	// ErrQueueFull is returned when the settlement queue is full. The entry
	// stays pending and the periodic sweep picks it up.
	ErrQueueFull = errors.New("settlement queue is full")
)
