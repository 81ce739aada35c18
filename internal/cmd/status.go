package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/openclaw/standup/internal/config"
	"github.com/openclaw/standup/internal/items"
	"github.com/openclaw/standup/internal/orchestrator"
	"github.com/openclaw/standup/internal/session"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session and action item status",
	Long:  `Display the active standup session, its health, and the action item queue.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	root := cfg.Deliverables.ResolveDir()

	sessions := session.NewManager(cfg.Timing.SessionTimeout(), filepath.Join(root, "session.json"))
	sessions.Restore(cfg.Scope)

	st, ok := sessions.Status()
	if !ok {
		fmt.Println("No active session")
	} else {
		fmt.Printf("Session: %s\n", st.Scope)
		fmt.Printf("Started: %s\n", st.StartedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Printf("Reported: %d/%d", len(st.Reported), len(st.TurnOrder))
		if len(st.Reported) > 0 {
			fmt.Printf(" (%s)", strings.Join(st.Reported, ", "))
		}
		fmt.Println()
		if st.WrappingUp {
			fmt.Println("Wrapping up")
		}

		orch := orchestrator.New(sessions, cfg.Timing.SkipInactivity(), nil)
		for _, issue := range orch.Health(cfg.Timing.SessionTimeout()) {
			fmt.Printf("Health: [%s] %s\n", issue.Kind, issue.Detail)
		}
	}

	store, err := items.NewStore(filepath.Join(root, "action-items.json"))
	if err != nil {
		return err
	}
	pending := store.Pending()
	fmt.Printf("\nPending action items: %d\n", len(pending))
	for _, it := range items.Prioritize(pending) {
		fmt.Printf("  [%d] (%s, %s) %s — %s\n", it.Priority, it.Urgency, it.Status, it.What, it.Owner)
	}

	wr := store.WinRate()
	if wr.Wins+wr.Losses > 0 {
		fmt.Printf("\nTrack record: %d wins / %d losses (%.0f%%)\n", wr.Wins, wr.Losses, wr.Rate*100)
	}
	return nil
}
