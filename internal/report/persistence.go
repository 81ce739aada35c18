package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Writer persists the report file family under the deliverables root.
type Writer struct {
	root string
	now  func() time.Time
}

// NewWriter creates a writer rooted at the deliverables directory. An
// uncreatable root is operator-fatal.
func NewWriter(root string) (*Writer, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("report: create deliverables root: %w", err)
	}
	return &Writer{root: root, now: time.Now}, nil
}

// SaveReport writes the day report with front-matter under
// day-reports/ and appends its manifest line with the TL;DR.
// Returns the report path.
func (w *Writer) SaveReport(report string) (string, error) {
	date := w.now().UTC().Format("2006-01-02")
	dir := filepath.Join(w.root, "day-reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create day-reports dir: %w", err)
	}

	front := fmt.Sprintf("---\ndate: %s\ntype: day-report\ngenerated: %s\n---\n\n",
		date, w.now().UTC().Format(time.RFC3339))
	path := filepath.Join(dir, date+"-day-report.md")
	if err := os.WriteFile(path, []byte(front+report), 0o644); err != nil {
		return "", fmt.Errorf("report: write day report: %w", err)
	}

	if err := w.appendManifest(dir, date, ExtractTLDR(report)); err != nil {
		return path, fmt.Errorf("report: append manifest: %w", err)
	}
	return path, nil
}

const reportManifestHeader = `# Day Reports

| DATE | TL;DR | FILE |
|------|-------|------|
`

func (w *Writer) appendManifest(dir, date, tldr string) error {
	f, err := os.OpenFile(filepath.Join(dir, "manifest.md"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		if _, err := f.WriteString(reportManifestHeader); err != nil {
			return err
		}
	}
	tldr = strings.ReplaceAll(tldr, "|", "/")
	if len(tldr) > 120 {
		tldr = tldr[:119] + "…"
	}
	_, err = f.WriteString(fmt.Sprintf("| %s | %s | `%s-day-report.md` |\n", date, tldr, date))
	return err
}

// SaveInsights writes the shared pre-round insights file for the day.
// The next round's kickoff reads it back with LoadInsights.
func (w *Writer) SaveInsights(insights string) (string, error) {
	dir := filepath.Join(w.root, "daily-insights")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create daily-insights dir: %w", err)
	}
	date := w.now().UTC().Format("2006-01-02")
	path := filepath.Join(dir, date+"-shared-insights.md")
	if err := os.WriteFile(path, []byte(insights), 0o644); err != nil {
		return "", fmt.Errorf("report: write insights: %w", err)
	}
	return path, nil
}

// LoadInsights returns today's shared insights, or "" when absent.
func (w *Writer) LoadInsights() string {
	date := w.now().UTC().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(w.root, "daily-insights", date+"-shared-insights.md"))
	if err != nil {
		return ""
	}
	return string(data)
}

// AppendSuggestions adds open suggestions to the append-only
// suggestions file, one dated bullet per suggestion.
func (w *Writer) AppendSuggestions(suggestions []string) error {
	if len(suggestions) == 0 {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(w.root, "agent-suggestions.md"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("report: open suggestions: %w", err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		if _, err := f.WriteString("# Open Suggestions\n\n"); err != nil {
			return err
		}
	}
	date := w.now().UTC().Format("2006-01-02")
	for _, s := range suggestions {
		s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
		if s == "" {
			continue
		}
		if _, err := f.WriteString(fmt.Sprintf("- [%s] %s\n", date, s)); err != nil {
			return err
		}
	}
	return nil
}

// Metrics is one run's summary line in the metrics journal.
type Metrics struct {
	Date            string  `json:"date"`
	DurationSeconds float64 `json:"durationSeconds"`
	Participants    int     `json:"participants"`
	Replies         int     `json:"replies"`
	ActionItems     int     `json:"actionItems"`
	CrossLinks      int     `json:"crossLinks"`
	Divergences     int     `json:"divergences"`
}

// AppendMetrics appends one JSON line to standup-metrics.jsonl.
func (w *Writer) AppendMetrics(m Metrics) error {
	if m.Date == "" {
		m.Date = w.now().UTC().Format("2006-01-02")
	}
	f, err := os.OpenFile(filepath.Join(w.root, "standup-metrics.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("report: open metrics: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("report: marshal metrics: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("report: append metrics: %w", err)
	}
	return nil
}
