// Package conductor drives one full standup round: it calls each
// participant in the canonical order, bounds the wait for every turn,
// and accumulates the round transcript. Exactly one invocation is
// outstanding at any time; each turn's context is the transcript of
// all turns before it.
package conductor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/openclaw/standup/internal/config"
	"github.com/openclaw/standup/internal/logging"
	"github.com/openclaw/standup/internal/orchestrator"
	"github.com/openclaw/standup/internal/roster"
	"github.com/openclaw/standup/internal/session"
)

// Result is the outcome of one completed round.
type Result struct {
	// Transcript is the full round text, kickoff included.
	Transcript string
	// Replies lists the ids of participants that produced an actual
	// reply. Silent or erroring participants still appear in the
	// transcript but not here.
	Replies []string
	// Summary describes the ended session.
	Summary session.Summary
}

// Conductor runs rounds over a participant directory.
type Conductor struct {
	cfg      *config.Config
	dir      roster.Directory
	sessions *session.Manager
	orch     *orchestrator.Orchestrator
	log      *logging.Logger

	// sleep is swappable so tests don't pay real pacing delays.
	sleep func(time.Duration)
}

// New creates a conductor. The canonical turn order comes from cfg;
// the directory is consulted only to resolve and invoke individual
// ids, never for sequence.
func New(cfg *config.Config, dir roster.Directory, sessions *session.Manager, orch *orchestrator.Orchestrator, log *logging.Logger) *Conductor {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Conductor{
		cfg:      cfg,
		dir:      dir,
		sessions: sessions,
		orch:     orch,
		log:      log,
		sleep:    time.Sleep,
	}
}

// Run executes one full round for the configured scope. It starts a
// session, walks the canonical order one participant at a time, and
// ends the session when everyone has reported or been skipped. A
// participant that errors or stays silent never blocks the round.
func (c *Conductor) Run(ctx context.Context, kickoff string) (Result, error) {
	order := c.cfg.Roster.Order
	if err := c.sessions.Start(c.cfg.Scope, order); err != nil {
		return Result{}, fmt.Errorf("conductor: %w", err)
	}
	c.log.Info("round started", "scope", c.cfg.Scope, "participants", len(order))
	return c.drive(ctx, kickoff), nil
}

// Resume drives an already-active session, restored after a crash, to
// completion. Turns taken before the crash stay marked as reported;
// their transcript is gone, so the round resumes with the kickoff only.
func (c *Conductor) Resume(ctx context.Context, kickoff string) (Result, error) {
	status, ok := c.sessions.Status()
	if !ok {
		return Result{}, fmt.Errorf("conductor: no active session to resume")
	}
	c.log.Info("round resumed",
		"scope", status.Scope,
		"reported", len(status.Reported),
		"expected", len(status.TurnOrder))
	return c.drive(ctx, kickoff), nil
}

func (c *Conductor) drive(ctx context.Context, kickoff string) Result {
	// Watchdog runs for the lifetime of the round only.
	wdCtx, stopWatchdog := context.WithCancel(ctx)
	defer stopWatchdog()
	wd := newWatchdog(c.orch, c.cfg.Timing.SkipInactivity()/2, c.log)
	go wd.run(wdCtx)

	var sb strings.Builder
	sb.WriteString(kickoff)
	var replies []string

round:
	for {
		if ctx.Err() != nil {
			break
		}

		d := c.orch.Progress()
		switch d.Kind {
		case orchestrator.KindDone, orchestrator.KindWrapUp:
			break round

		case orchestrator.KindSkip:
			// The watchdog or the progress check already counted the
			// stuck participant as reported; record the silence.
			sb.WriteString("\n\n")
			sb.WriteString(c.cfg.Roster.DisplayName(d.Stuck))
			sb.WriteString(": (no reply)")

		case orchestrator.KindCallNext:
			c.sessions.TouchActivity()
			line, replied := c.takeTurn(ctx, d.Next, sb.String())
			sb.WriteString("\n\n")
			sb.WriteString(line)
			if replied {
				replies = append(replies, d.Next)
			}
			if err := c.sessions.MarkReported(d.Next); err != nil {
				// The watchdog may have skipped them mid-turn, or the
				// session expired. Either way the loop re-checks.
				c.log.Debug("mark reported failed", "participant", d.Next, "error", err)
			}
			if delay := c.cfg.Timing.TurnDelay(); delay > 0 {
				c.sleep(delay)
			}
		}
	}

	stopWatchdog()
	summary, _ := c.sessions.End()
	c.log.Info("round finished",
		"scope", c.cfg.Scope,
		"reported", summary.Reported,
		"replies", len(replies),
		"duration", summary.Duration.Round(time.Second).String())

	return Result{
		Transcript: sb.String(),
		Replies:    replies,
		Summary:    summary,
	}
}

// takeTurn invokes one participant with the transcript so far and
// waits up to the per-turn timeout for their reply. The returned line
// is ready to append to the transcript.
func (c *Conductor) takeTurn(ctx context.Context, id, transcript string) (line string, replied bool) {
	name := c.cfg.Roster.DisplayName(id)

	if !c.dir.Resolve(id) {
		c.log.Warn("participant not resolvable", "participant", id)
		return name + ": (error)", false
	}

	replyCh := make(chan string, 1)
	errCh := make(chan error, 1)
	var once sync.Once

	msg := roster.Message{
		Text:  transcript + "\n\n" + c.callPrompt(id),
		Scope: c.cfg.Scope,
	}
	c.dir.Invoke(id, msg, roster.Callbacks{
		OnReply: func(text string) {
			once.Do(func() { replyCh <- text })
		},
		OnError: func(err error) {
			once.Do(func() { errCh <- err })
		},
	})

	select {
	case text := <-replyCh:
		c.log.Debug("turn reply", "participant", id, "chars", len(text))
		return name + ": " + text, true
	case err := <-errCh:
		c.log.Warn("turn failed", "participant", id, "error", err)
		return name + ": (error)", false
	case <-time.After(c.cfg.Timing.TurnTimeout()):
		// Abandoned, not cancelled: a late callback lands in the
		// buffered channel and is ignored.
		c.log.Warn("turn timed out", "participant", id, "timeout", c.cfg.Timing.TurnTimeout().String())
		return name + ": (no reply)", false
	case <-ctx.Done():
		return name + ": (no reply)", false
	}
}

// callPrompt builds the line that hands the floor to a participant.
// A configured mention id narrows delivery to that participant.
func (c *Conductor) callPrompt(id string) string {
	name := c.cfg.Roster.DisplayName(id)
	if mention, ok := c.cfg.Roster.MentionIDs[id]; ok && mention != "" {
		return fmt.Sprintf("<@%s> %s — you're up. Quick update: what you shipped, what's next, any blockers. GO:", mention, name)
	}
	return fmt.Sprintf("%s — you're up. Quick update: what you shipped, what's next, any blockers. GO:", name)
}
