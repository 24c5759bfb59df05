package connection

import "time"

// Task is a pending deferred call.
type Task interface {
	// Stop cancels the call. Returns false if it already ran or was stopped.
	Stop() bool
}

// Scheduler runs deferred calls. The default uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}
