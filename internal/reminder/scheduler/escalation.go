package scheduler

import (
	"time"

	"devnudge-backend/internal/reminder/domain"
)

// MaxFollowUpDays caps the escalation interval.
const MaxFollowUpDays = 14

const day = 24 * time.Hour

// Schedule is the escalation state the scheduler assigns to a reminder
type Schedule struct {
	NextFollowUpAt   time.Time
	FollowUpAttempts int
}

// NextInterval returns min(base * 2^(attempts-1), MaxFollowUpDays) in days.
// attempts is the count after the current firing, so attempts <= 1 yields base.
func NextInterval(base, attempts int) int {
	interval := base
	for i := 1; i < attempts && interval < MaxFollowUpDays; i++ {
		interval *= 2
	}
	if interval > MaxFollowUpDays {
		return MaxFollowUpDays
	}
	return interval
}

// ValidFollowUpDays reports whether days can be used as a base interval.
func ValidFollowUpDays(days int) bool {
	return days >= 1 && days <= MaxFollowUpDays
}

// Enable turns on automatic follow-up with the given base interval.
// On a reminder that is already enabled it only changes the base: attempts are
// kept and the next follow-up is recomputed from them.
func Enable(r *domain.Reminder, days int, now time.Time) (Schedule, error) {
	if !ValidFollowUpDays(days) {
		return Schedule{}, domain.ErrInvalidFollowUpDays
	}
	attempts := 0
	if r.AutoFollowUp {
		attempts = r.FollowUpAttempts
	}
	next := now.Add(time.Duration(NextInterval(days, attempts)) * day)
	r.AutoFollowUp = true
	r.FollowUpDays = &days
	r.NextFollowUpAt = &next
	r.FollowUpAttempts = attempts
	return Schedule{NextFollowUpAt: next, FollowUpAttempts: attempts}, nil
}

// Disable stops automatic follow-up and clears the schedule.
// The attempt counter resets only here.
func Disable(r *domain.Reminder) {
	r.AutoFollowUp = false
	r.NextFollowUpAt = nil
	r.FollowUpAttempts = 0
}

// ScheduleNext computes the schedule after a firing at now without mutating r.
func ScheduleNext(r *domain.Reminder, now time.Time) Schedule {
	base := MaxFollowUpDays
	if r.FollowUpDays != nil && *r.FollowUpDays > 0 {
		base = *r.FollowUpDays
	}
	attempts := r.FollowUpAttempts + 1
	interval := NextInterval(base, attempts)
	return Schedule{
		NextFollowUpAt:   now.Add(time.Duration(interval) * day),
		FollowUpAttempts: attempts,
	}
}

// Escalate applies ScheduleNext to r.
func Escalate(r *domain.Reminder, now time.Time) Schedule {
	s := ScheduleNext(r, now)
	next := s.NextFollowUpAt
	r.NextFollowUpAt = &next
	r.FollowUpAttempts = s.FollowUpAttempts
	return s
}
