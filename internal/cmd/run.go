package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/openclaw/standup/internal/conductor"
	"github.com/openclaw/standup/internal/config"
	"github.com/openclaw/standup/internal/generate"
	"github.com/openclaw/standup/internal/items"
	"github.com/openclaw/standup/internal/logging"
	"github.com/openclaw/standup/internal/orchestrator"
	"github.com/openclaw/standup/internal/predictions"
	"github.com/openclaw/standup/internal/report"
	"github.com/openclaw/standup/internal/roster"
	"github.com/openclaw/standup/internal/session"
	"github.com/openclaw/standup/internal/signal"
	"github.com/openclaw/standup/internal/transcript"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one standup round",
	Long: `Run a full standup round: call every participant in canonical order,
parse the replies into action items, reconcile directional signals, and
write the day report and metrics under the deliverables directory.`,
	RunE: runRound,
}

var (
	runForce bool
	runWatch bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runForce, "force", false, "run even when standup is disabled in config")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "keep running, one round at each scheduled UTC hour")
}

func runRound(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if !cfg.Enabled && !runForce {
		fmt.Println("Standup is disabled (set enabled: true or pass --force)")
		return nil
	}
	if cfg.Roster.DirectoryURL == "" {
		return fmt.Errorf("roster.directory_url is not configured")
	}

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
	log = log.WithScope(cfg.Scope)

	ctx := cmd.Context()
	if !runWatch {
		return executeRound(ctx, cfg, root, log)
	}

	for {
		next := nextRunTime(time.Now().UTC(), cfg.Timing.UTCHours)
		log.Info("waiting for next scheduled round", "at", next.Format(time.RFC3339))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}
		if err := executeRound(ctx, cfg, root, log); err != nil {
			log.Error("scheduled round failed", "error", err)
		}
	}
}

// nextRunTime returns the next top-of-hour instant at one of the
// scheduled UTC hours strictly after now.
func nextRunTime(now time.Time, hours []int) time.Time {
	if len(hours) == 0 {
		hours = []int{9}
	}
	sorted := make([]int, len(hours))
	copy(sorted, hours)
	sort.Ints(sorted)

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, h := range sorted {
		if at := day.Add(time.Duration(h) * time.Hour); at.After(now) {
			return at
		}
	}
	return day.Add(24 * time.Hour).Add(time.Duration(sorted[0]) * time.Hour)
}

// executeRound runs the full round pipeline against the configured
// external collaborators.
func executeRound(ctx context.Context, cfg *config.Config, root string, log *logging.Logger) error {
	store, err := items.NewStore(filepath.Join(root, "action-items.json"))
	if err != nil {
		return err
	}
	writer, err := report.NewWriter(root)
	if err != nil {
		return err
	}
	tracker, err := predictions.NewTracker(filepath.Join(root, "predictions.json"))
	if err != nil {
		return err
	}

	dir := roster.NewHTTPDirectory(cfg.Roster.DirectoryURL, cfg.Timing.TurnTimeout())
	smallGen := generate.NewClient(generate.Config{
		BaseURL: cfg.Generation.BaseURL,
		APIKey:  cfg.Generation.APIKey,
		Model:   cfg.Generation.SmallModel,
		Timeout: cfg.Generation.Timeout(),
	})
	largeGen := generate.NewClient(generate.Config{
		BaseURL: cfg.Generation.BaseURL,
		APIKey:  cfg.Generation.APIKey,
		Model:   cfg.Generation.LargeModel,
		Timeout: cfg.Generation.Timeout(),
	})

	sessions := session.NewManager(cfg.Timing.SessionTimeout(), filepath.Join(root, "session.json"))
	orch := orchestrator.New(sessions, cfg.Timing.SkipInactivity(), log)
	cond := conductor.New(cfg, dir, sessions, orch, log)

	// Grade predictions whose horizon has passed before the round, so
	// the kickoff's track record is current.
	var priceSrc predictions.PriceSource
	if cfg.Signals.PriceURL != "" {
		priceSrc = predictions.NewHTTPPriceSource(cfg.Signals.PriceURL, 30*time.Second)
		if graded := tracker.ValidateExpired(ctx, priceSrc); graded > 0 {
			log.Info("graded expired predictions", "count", graded)
		}
	}

	kickoff := buildKickoff(cfg, store, writer, tracker)

	var res conductor.Result
	if sessions.Restore(cfg.Scope) {
		res, err = cond.Resume(ctx, kickoff)
	} else {
		res, err = cond.Run(ctx, kickoff)
	}
	if err != nil {
		return err
	}

	// Post-round pipeline. Each stage degrades independently; a failed
	// parse or report never loses the transcript work already done.
	parser := transcript.NewParser(smallGen, cfg.Signals.TranscriptLimit, log)
	parsed := parser.Parse(ctx, res.Transcript)

	added := 0
	for _, d := range parsed.ActionItems {
		if strings.TrimSpace(d.What) == "" {
			continue
		}
		if _, err := store.Add(items.Draft{
			What:    d.What,
			How:     d.How,
			Why:     d.Why,
			Owner:   d.Owner,
			Urgency: items.NormalizeUrgency(d.Urgency),
			Type:    transcript.NormalizeType(d.Type),
		}); err != nil {
			log.Warn("failed to persist action item", "what", d.What, "error", err)
			continue
		}
		added++
	}

	signals := collectSignals(cfg, res.Transcript)
	results := signal.ValidateAll(signals, cfg.Signals.TrackedAssets)
	validationCtx := signal.BuildContext(results)
	divergences := 0
	for _, r := range results {
		if r.Consensus == signal.ConsensusDivergent {
			divergences++
		}
	}
	recordPredictions(ctx, tracker, priceSrc, signals, log)

	rpt := report.NewGenerator(largeGen, cfg.Signals.TrackedAssets, cfg.Signals.TranscriptLimit, log).
		Generate(ctx, res.Transcript, validationCtx, store.Context())
	reportPath, err := writer.SaveReport(rpt)
	if err != nil {
		log.Error("failed to save day report", "error", err)
	} else {
		log.Info("day report saved", "path", reportPath)
	}

	for _, d := range report.ParseTodoTable(rpt) {
		if _, err := store.Add(d); err != nil {
			log.Warn("failed to persist todo item", "what", d.What, "error", err)
			continue
		}
		added++
	}

	if insights := renderInsights(parsed); insights != "" {
		if _, err := writer.SaveInsights(insights); err != nil {
			log.Warn("failed to save insights", "error", err)
		}
	}
	if err := writer.AppendSuggestions(parsed.Suggestions); err != nil {
		log.Warn("failed to append suggestions", "error", err)
	}

	if err := writer.AppendMetrics(report.Metrics{
		Date:            time.Now().UTC().Format("2006-01-02"),
		DurationSeconds: res.Summary.Duration.Seconds(),
		Participants:    res.Summary.Expected,
		Replies:         len(res.Replies),
		ActionItems:     added,
		CrossLinks:      transcript.CountCrossLinks(res.Transcript, displayNames(cfg)),
		Divergences:     divergences,
	}); err != nil {
		log.Warn("failed to append metrics", "error", err)
	}

	fmt.Printf("Round complete: %d/%d reported, %d replies, %d action items, %d divergences\n",
		res.Summary.Reported, res.Summary.Expected, len(res.Replies), added, divergences)
	return nil
}

// buildKickoff assembles the opening message: today's date, the open
// action items with track record, yesterday's shared insights, and the
// prediction scoreboard.
func buildKickoff(cfg *config.Config, store *items.Store, writer *report.Writer, tracker *predictions.Tracker) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Daily standup — %s. Roster order: %s.\n",
		time.Now().UTC().Format("2006-01-02"), strings.Join(displayNames(cfg), ", "))
	sb.WriteString("One update each: what you shipped, what's next, any blockers. Mention teammates by name when your work touches theirs.\n")

	if itemsCtx := store.Context(); itemsCtx != "" {
		sb.WriteString("\n")
		sb.WriteString(itemsCtx)
	}
	if insights := writer.LoadInsights(); insights != "" {
		sb.WriteString("\n### Yesterday's Insights\n")
		sb.WriteString(insights)
		sb.WriteString("\n")
	}
	if predsCtx := tracker.Context(); predsCtx != "" {
		sb.WriteString("\n")
		sb.WriteString(predsCtx)
	}
	return sb.String()
}

// collectSignals extracts directional signals from each participant's
// own lines, attributed by display name.
func collectSignals(cfg *config.Config, transcriptText string) []signal.Signal {
	var all []signal.Signal
	for _, id := range cfg.Roster.Order {
		name := cfg.Roster.DisplayName(id)
		segment := participantSegment(transcriptText, name)
		if segment == "" {
			continue
		}
		all = append(all, signal.Extract(name, segment, cfg.Signals.TrackedAssets)...)
	}
	return all
}

// participantSegment concatenates every transcript line spoken by the
// given display name, without the "Name: " prefix.
func participantSegment(transcriptText, name string) string {
	prefix := name + ": "
	var lines []string
	for _, line := range strings.Split(transcriptText, "\n") {
		if strings.HasPrefix(line, prefix) {
			lines = append(lines, strings.TrimPrefix(line, prefix))
		}
	}
	return strings.Join(lines, "\n")
}

// recordPredictions turns structured signals into graded predictions
// with a 24h horizon. Heuristic signals are too noisy to grade.
func recordPredictions(ctx context.Context, tracker *predictions.Tracker, src predictions.PriceSource, signals []signal.Signal, log *logging.Logger) {
	if src == nil {
		return
	}
	for _, s := range signals {
		if s.Source != "structured" {
			continue
		}
		price, err := src.Price(ctx, s.Asset)
		if err != nil {
			log.Debug("skipping prediction, price unavailable", "asset", s.Asset, "error", err)
			continue
		}
		if _, err := tracker.Record(s.Participant, s.Asset, s.Direction, price, 24*time.Hour); err != nil {
			log.Debug("prediction not recorded", "asset", s.Asset, "error", err)
		}
	}
}

func renderInsights(parsed transcript.Parsed) string {
	if len(parsed.LessonsByParticipant) == 0 && len(parsed.Disagreements) == 0 {
		return ""
	}
	var sb strings.Builder
	if len(parsed.LessonsByParticipant) > 0 {
		sb.WriteString("## Lessons\n")
		for name, lessons := range parsed.LessonsByParticipant {
			for _, lesson := range lessons {
				fmt.Fprintf(&sb, "- **%s**: %s\n", name, lesson)
			}
		}
	}
	if len(parsed.Disagreements) > 0 {
		sb.WriteString("\n## Open Disagreements\n")
		for _, d := range parsed.Disagreements {
			fmt.Fprintf(&sb, "- %s\n", d)
		}
	}
	return sb.String()
}

func displayNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Roster.Order))
	for _, id := range cfg.Roster.Order {
		names = append(names, cfg.Roster.DisplayName(id))
	}
	return names
}
