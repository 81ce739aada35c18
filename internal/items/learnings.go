package items

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const learningsHeader = `# Learnings Log

Outcome journal for completed action items. Append-only.

| DATE | STATUS | OWNER | WHAT | OUTCOME | LESSON |
|------|--------|-------|------|---------|--------|
`

// Learnings is the append-only outcome journal. Prior entries are
// never rewritten.
type Learnings struct {
	path string
	now  func() time.Time
}

// NewLearnings creates the journal at the given file path.
func NewLearnings(path string) (*Learnings, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("items: create learnings dir: %w", err)
	}
	return &Learnings{path: path, now: time.Now}, nil
}

// Append records one outcome. The backing file gets its header on
// first write. lesson may be empty.
func (l *Learnings) Append(item Item, outcome, lesson string) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("items: open learnings: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err == nil && info.Size() == 0 {
		if _, err := f.WriteString(learningsHeader); err != nil {
			return fmt.Errorf("items: write learnings header: %w", err)
		}
	}

	line := fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
		l.now().UTC().Format("2006-01-02"),
		item.Status,
		item.Owner,
		cell(item.What, 60),
		cell(outcome, 80),
		cell(lesson, 80))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("items: append learning: %w", err)
	}
	return nil
}

// cell makes text safe for a markdown table cell.
func cell(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "/")
	return truncate(strings.TrimSpace(s), n)
}
