package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/openclaw/standup/internal/builder"
	"github.com/openclaw/standup/internal/config"
	"github.com/openclaw/standup/internal/generate"
	"github.com/openclaw/standup/internal/items"
	"github.com/openclaw/standup/internal/logging"
	"github.com/spf13/cobra"
)

var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Execute pending action items",
	Long: `Work through the pending action item queue in priority order:
execute each item, verify its output, and record the outcome with a
learning. Verification failures leave the item in progress.`,
	RunE: runWork,
}

var workOne bool

func init() {
	rootCmd.AddCommand(workCmd)
	workCmd.Flags().BoolVar(&workOne, "one", false, "process a single item instead of draining the queue")
}

func runWork(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	root := cfg.Deliverables.ResolveDir()

	logDir := ""
	if cfg.Logging.ToFile {
		logDir = root
	}
	log, err := logging.NewLogger(logDir, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer log.Close()

	store, err := items.NewStore(filepath.Join(root, "action-items.json"))
	if err != nil {
		return err
	}
	learnings, err := items.NewLearnings(filepath.Join(root, "learnings.md"))
	if err != nil {
		return err
	}

	gen := generate.NewClient(generate.Config{
		BaseURL: cfg.Generation.BaseURL,
		APIKey:  cfg.Generation.APIKey,
		Model:   cfg.Generation.LargeModel,
		Timeout: cfg.Generation.Timeout(),
	})
	b, err := builder.New(builder.Config{
		Root:          root,
		Generator:     gen,
		GatewayURL:    cfg.Build.GatewayURL,
		Fallback:      cfg.Build.Fallback,
		ApprovalTypes: cfg.Build.ApprovalTypes,
		Logger:        log,
	})
	if err != nil {
		return err
	}

	worker := builder.NewWorker(store, b, learnings, log)
	ctx := cmd.Context()

	if workOne {
		it, err := worker.ProcessNext(ctx)
		if errors.Is(err, builder.ErrNothingPending) {
			fmt.Println("Nothing pending")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Processed %s: %s (%s)\n", it.ID, it.What, it.Status)
		return nil
	}

	done := worker.ProcessAll(ctx)
	fmt.Printf("Processed %d item(s)\n", done)
	return nil
}
