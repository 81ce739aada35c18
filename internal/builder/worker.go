package builder

import (
	"context"
	"errors"

	"github.com/openclaw/standup/internal/items"
	"github.com/openclaw/standup/internal/logging"
)

// ErrNothingPending is returned by ProcessNext when no item is waiting.
var ErrNothingPending = errors.New("builder: nothing pending")

// Worker runs the claim -> execute -> verify -> record loop over the
// action item store, one item at a time.
type Worker struct {
	store     *items.Store
	builder   *Builder
	learnings *items.Learnings
	log       *logging.Logger
}

// NewWorker wires a worker over the store and builder.
func NewWorker(store *items.Store, b *Builder, learnings *items.Learnings, log *logging.Logger) *Worker {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Worker{store: store, builder: b, learnings: learnings, log: log}
}

// ProcessNext claims the highest-priority pending item, executes it,
// verifies the result, and records the outcome. A verification failure
// leaves the item in_progress rather than marking it done. Returns the
// item as it ended up, or ErrNothingPending.
func (w *Worker) ProcessNext(ctx context.Context) (items.Item, error) {
	ranked := items.Prioritize(w.store.Pending())
	if len(ranked) == 0 {
		return items.Item{}, ErrNothingPending
	}
	next := ranked[0]

	// Claim first so a crash mid-execution is visible in the store.
	inProgress := items.StatusInProgress
	claimed, err := w.store.Update(next.ID, items.Patch{Status: &inProgress, Priority: &next.Priority})
	if err != nil {
		return items.Item{}, err
	}
	w.log.Info("working item", "item", claimed.ID, "type", claimed.Type, "what", claimed.What)

	result, err := w.builder.Execute(ctx, claimed)
	if err != nil {
		// Infrastructure failure, not a content failure: mark failed.
		failed := items.StatusFailed
		outcome := err.Error()
		updated, uerr := w.store.Update(claimed.ID, items.Patch{Status: &failed, Outcome: &outcome})
		if uerr != nil {
			return claimed, uerr
		}
		w.recordLearning(updated, outcome)
		return updated, nil
	}

	v := Verify(claimed, result)
	if !v.OK {
		// Not done. The item stays in_progress for a later attempt;
		// false completion is the one outcome we refuse to record.
		w.log.Warn("verification failed", "item", claimed.ID, "reason", v.Message)
		return claimed, nil
	}

	done := items.StatusDone
	updated, err := w.store.Update(claimed.ID, items.Patch{Status: &done, Outcome: &v.Message})
	if err != nil {
		return claimed, err
	}
	w.recordLearning(updated, v.Message)
	w.log.Info("item done", "item", updated.ID, "outcome", v.Message)
	return updated, nil
}

// ProcessAll drains the pending queue until empty or the context ends.
// Returns how many items reached a terminal state.
func (w *Worker) ProcessAll(ctx context.Context) int {
	completed := 0
	for ctx.Err() == nil {
		item, err := w.ProcessNext(ctx)
		if errors.Is(err, ErrNothingPending) {
			break
		}
		if err != nil {
			w.log.Warn("worker pass failed", "error", err)
			break
		}
		if item.Status.Terminal() {
			completed++
			continue
		}
		// A non-terminal outcome means the same item would be picked
		// again; stop instead of spinning on it.
		break
	}
	return completed
}

func (w *Worker) recordLearning(item items.Item, outcome string) {
	if w.learnings == nil {
		return
	}
	if err := w.learnings.Append(item, outcome, ""); err != nil {
		w.log.Warn("learning append failed", "item", item.ID, "error", err)
	}
}
