package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/openclaw/standup/internal/config"
	"github.com/openclaw/standup/internal/predictions"
	"github.com/spf13/cobra"
)

var predictionsCmd = &cobra.Command{
	Use:   "predictions",
	Short: "Show the prediction scoreboard",
	RunE:  runPredictions,
}

var predictionsValidate bool

func init() {
	rootCmd.AddCommand(predictionsCmd)
	predictionsCmd.Flags().BoolVar(&predictionsValidate, "validate", false, "grade expired predictions against the price service first")
}

func runPredictions(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	tracker, err := predictions.NewTracker(filepath.Join(cfg.Deliverables.ResolveDir(), "predictions.json"))
	if err != nil {
		return err
	}

	if predictionsValidate {
		if cfg.Signals.PriceURL == "" {
			return fmt.Errorf("signals.price_url is not configured")
		}
		src := predictions.NewHTTPPriceSource(cfg.Signals.PriceURL, 30*time.Second)
		graded := tracker.ValidateExpired(cmd.Context(), src)
		fmt.Printf("Graded %d prediction(s)\n", graded)
	}

	ctx := tracker.Context()
	if ctx == "" {
		fmt.Println("No graded predictions yet")
		return nil
	}
	fmt.Println(ctx)

	if pending := tracker.Pending(); len(pending) > 0 {
		fmt.Printf("Pending: %d\n", len(pending))
	}
	return nil
}
