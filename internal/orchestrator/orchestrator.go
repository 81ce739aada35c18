// Package orchestrator decides what a standup round should do next.
// The decision is a pure function of the session state and the clock;
// the only mutation it performs is marking a stuck participant as
// reported when it decides to skip them.
package orchestrator

import (
	"fmt"
	"time"

	"github.com/openclaw/standup/internal/logging"
	"github.com/openclaw/standup/internal/session"
)

// DecisionKind enumerates the possible progression outcomes.
type DecisionKind string

const (
	// KindDone means there is nothing to drive: no active session, or
	// the session is already wrapping up.
	KindDone DecisionKind = "done"
	// KindWrapUp means every participant has reported and the round
	// should move to synthesis.
	KindWrapUp DecisionKind = "wrap_up"
	// KindSkip means the expected participant went silent past the
	// inactivity window and has been skipped.
	KindSkip DecisionKind = "skip"
	// KindCallNext means the next participant should be called.
	KindCallNext DecisionKind = "call_next"
)

// Decision is the outcome of one Progress call. Next is set for
// KindCallNext and for KindSkip when another participant remains.
// Stuck is set only for KindSkip.
type Decision struct {
	Kind  DecisionKind
	Next  string
	Stuck string
}

// Orchestrator drives session progression decisions.
type Orchestrator struct {
	sessions  *session.Manager
	skipAfter time.Duration
	log       *logging.Logger
}

// New creates an orchestrator over the given session manager.
// skipAfter is the inactivity window after which the currently
// expected participant is force-skipped.
func New(sessions *session.Manager, skipAfter time.Duration, log *logging.Logger) *Orchestrator {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Orchestrator{
		sessions:  sessions,
		skipAfter: skipAfter,
		log:       log,
	}
}

// Progress decides the next step for the active session. Calling it
// again against unchanged state and clock yields the same decision;
// the skip path is the one exception, since skipping marks the stuck
// participant reported.
func (o *Orchestrator) Progress() Decision {
	if !o.sessions.Active() {
		return Decision{Kind: KindDone}
	}
	if o.sessions.WrappingUp() {
		return Decision{Kind: KindDone}
	}

	if o.sessions.AllReported() {
		o.sessions.MarkWrappingUp()
		return Decision{Kind: KindWrapUp}
	}

	next, ok := o.sessions.NextUnreported()
	if !ok {
		// Raced with expiry between the checks above.
		return Decision{Kind: KindDone}
	}

	if since, ok := o.sessions.SinceActivity(); ok && since > o.skipAfter {
		// The expected participant went quiet. Skip them so the round
		// keeps moving; a skip counts as reported, not as a success.
		if err := o.sessions.MarkReported(next); err != nil {
			o.log.Warn("failed to mark skipped participant", "participant", next, "error", err)
			return Decision{Kind: KindDone}
		}
		o.log.Info("skipped inactive participant", "participant", next, "inactive_for", since.Round(time.Second).String())

		after, ok := o.sessions.NextUnreported()
		if !ok {
			o.sessions.MarkWrappingUp()
			return Decision{Kind: KindWrapUp, Stuck: next}
		}
		return Decision{Kind: KindSkip, Stuck: next, Next: after}
	}

	return Decision{Kind: KindCallNext, Next: next}
}

// HealthIssue describes one problem found by a health check.
type HealthIssue struct {
	Kind   string
	Detail string
}

// Health inspects the active session for signs of trouble: a session
// near its hard lifetime, a stalled activity clock, or reporting
// progress far behind elapsed time. A session that is simply absent is
// healthy (nothing to watch).
func (o *Orchestrator) Health(sessionTimeout time.Duration) []HealthIssue {
	var issues []HealthIssue

	st, ok := o.sessions.Status()
	if !ok {
		return nil
	}

	age, _ := o.sessions.SinceStart()
	if age > sessionTimeout*3/4 {
		issues = append(issues, HealthIssue{
			Kind:   "near_timeout",
			Detail: fmt.Sprintf("session %s old, lifetime %s", age.Round(time.Second), sessionTimeout),
		})
	}

	if since, ok := o.sessions.SinceActivity(); ok && since > o.skipAfter {
		issues = append(issues, HealthIssue{
			Kind:   "stalled",
			Detail: fmt.Sprintf("no activity for %s", since.Round(time.Second)),
		})
	}

	// Slow progress: past half the lifetime with under half the roster
	// heard from.
	if age > sessionTimeout/2 && len(st.Reported)*2 < len(st.TurnOrder) {
		issues = append(issues, HealthIssue{
			Kind:   "slow_progress",
			Detail: fmt.Sprintf("%d of %d reported after %s", len(st.Reported), len(st.TurnOrder), age.Round(time.Second)),
		})
	}

	return issues
}
