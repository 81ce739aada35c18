package conductor

import (
	"context"
	"time"

	"github.com/openclaw/standup/internal/logging"
	"github.com/openclaw/standup/internal/orchestrator"
)

// watchdog is a second, coarser recovery layer under the per-turn
// timeout: it periodically re-runs the progression check so that a
// turn which never even starts still gets skipped once the inactivity
// window passes.
type watchdog struct {
	orch     *orchestrator.Orchestrator
	interval time.Duration
	log      *logging.Logger
}

func newWatchdog(orch *orchestrator.Orchestrator, interval time.Duration, log *logging.Logger) *watchdog {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &watchdog{
		orch:     orch,
		interval: interval,
		log:      log,
	}
}

// run ticks until the context is cancelled. Only the skip outcome
// matters here; call_next is the conductor's job and done/wrap_up
// need no action.
func (w *watchdog) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d := w.orch.Progress(); d.Kind == orchestrator.KindSkip {
				w.log.Warn("watchdog skipped participant", "participant", d.Stuck, "next", d.Next)
			}
		}
	}
}
