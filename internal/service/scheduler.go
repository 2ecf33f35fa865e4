package service

import "time"

// Scheduler runs fn once after d. Scheduled work is never cancelled;
// callbacks re-validate the session when they fire.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// TimerScheduler schedules on the runtime timer heap
type TimerScheduler struct{}

func (TimerScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
