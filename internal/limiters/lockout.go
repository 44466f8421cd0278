package limiters

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Step is one row of the escalation table: reaching Attempts consecutive
// failures locks the account for Duration.
type Step struct {
	Attempts int
	Duration time.Duration
}

// Escalation is the lockout table, ordered by ascending Attempts.
type Escalation []Step

var (
	// ErrEmptyEscalation is returned when the table has no rows.
	ErrEmptyEscalation = errors.New("lockout escalation table is empty")
	// ErrEscalationOrder is returned for non-ascending or non-positive rows.
	ErrEscalationOrder = errors.New("lockout escalation table must have strictly ascending positive attempts and positive durations")
)

// DefaultEscalation returns {3→5m, 5→15m, 10→60m, 15→24h}.
func DefaultEscalation() Escalation {
	return Escalation{
		{Attempts: 3, Duration: 5 * time.Minute},
		{Attempts: 5, Duration: 15 * time.Minute},
		{Attempts: 10, Duration: 60 * time.Minute},
		{Attempts: 15, Duration: 1440 * time.Minute},
	}
}

// Validate checks table ordering.
func (e Escalation) Validate() error {
	if len(e) == 0 {
		return ErrEmptyEscalation
	}
	for i, step := range e {
		if step.Attempts <= 0 || step.Duration <= 0 {
			return fmt.Errorf("%w: row %d", ErrEscalationOrder, i)
		}
		if i > 0 && step.Attempts <= e[i-1].Attempts {
			return fmt.Errorf("%w: row %d", ErrEscalationOrder, i)
		}
	}
	return nil
}

// Sorted returns a copy ordered by Attempts.
func (e Escalation) Sorted() Escalation {
	out := make(Escalation, len(e))
	copy(out, e)
	sort.Slice(out, func(i, j int) bool { return out[i].Attempts < out[j].Attempts })
	return out
}

// DurationFor returns the duration of the largest threshold not above
// attempts. The table must be sorted.
func (e Escalation) DurationFor(attempts int) (time.Duration, bool) {
	for i := len(e) - 1; i >= 0; i-- {
		if e[i].Attempts <= attempts {
			return e[i].Duration, true
		}
	}
	return 0, false
}

// LockoutState is the per-identity counter as stored on the identity
// record. Zero times mean absent.
type LockoutState struct {
	Failures      int
	LastFailureAt time.Time
	LockedUntil   time.Time
}

// Locked reports whether the state is locked at now.
func (s LockoutState) Locked(now time.Time) bool {
	return !s.LockedUntil.IsZero() && now.Before(s.LockedUntil)
}

// Expired reports whether a lockout is recorded but has passed at now.
func (s LockoutState) Expired(now time.Time) bool {
	return !s.LockedUntil.IsZero() && !now.Before(s.LockedUntil)
}

// PrecheckOutcome is the result of [Precheck].
type PrecheckOutcome int

const (
	// PrecheckOpen means no lockout is recorded.
	PrecheckOpen PrecheckOutcome = iota
	// PrecheckLocked means the lockout is active; skip credential verification.
	PrecheckLocked
	// PrecheckExpired means a recorded lockout has passed; reset before continuing.
	PrecheckExpired
)

// Precheck classifies state at now.
func Precheck(state LockoutState, now time.Time) PrecheckOutcome {
	switch {
	case state.Locked(now):
		return PrecheckLocked
	case state.Expired(now):
		return PrecheckExpired
	default:
		return PrecheckOpen
	}
}

// FailureOutcome is the result of [ApplyFailure].
type FailureOutcome struct {
	State LockoutState
	// Applied is set when this failure set a new lockout.
	Applied  bool
	Duration time.Duration
}

// ApplyFailure increments the counter and applies the largest matching
// escalation step. Counters never decay; only a reset clears them.
func ApplyFailure(state LockoutState, table Escalation, now time.Time) FailureOutcome {
	next := state
	next.Failures++
	next.LastFailureAt = now

	out := FailureOutcome{State: next}
	if d, ok := table.DurationFor(next.Failures); ok {
		out.State.LockedUntil = now.Add(d)
		out.Applied = true
		out.Duration = d
	}
	return out
}

// ClearExpired returns the state after a passed lockout is noticed. Only
// the window is cleared, so the next failure escalates from the accumulated
// count; resetCount zeroes the whole state instead.
func ClearExpired(state LockoutState, resetCount bool) LockoutState {
	if resetCount {
		return LockoutState{}
	}
	state.LockedUntil = time.Time{}
	return state
}

// RemainingMinutes returns ceil((until-now)/1m), never below 1 while locked.
func RemainingMinutes(until, now time.Time) int {
	left := until.Sub(now)
	if left <= 0 {
		return 0
	}
	minutes := int(left / time.Minute)
	if left%time.Minute != 0 {
		minutes++
	}
	return minutes
}
