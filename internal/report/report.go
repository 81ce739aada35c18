// Package report synthesizes a round's transcript and validation
// context into the day report, and persists the report family of
// files: the report itself, its manifest, shared insights, open
// suggestions and run metrics.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openclaw/standup/internal/generate"
	"github.com/openclaw/standup/internal/items"
	"github.com/openclaw/standup/internal/logging"
	"github.com/openclaw/standup/internal/transcript"
)

const reportTemplate = `You are writing the day report for a team standup of autonomous agents.

Today is %s. Tracked assets: %s.

Write, in order:
1. A short narrative paragraph (2-4 sentences) on how the standup went.
2. A structured block in exactly this shape:

## Day Report — %s

**TL;DR:** one sentence.

### Signals
| ASSET | CONSENSUS | CONFIDENCE |
|-------|-----------|------------|
(one row per tracked asset)

### Daily TODO
| WHAT | HOW | WHY | OWNER |
|------|-----|-----|-------|
(at most three rows, each with a named owner)

### Decisions
- [ ] checklist of decisions needing a human

### Risks
One short risk note.

Use only what is in the material below. No invented numbers.

=== SIGNAL VALIDATION ===
%s

=== PRIOR ACTION ITEMS ===
%s

=== TRANSCRIPT ===
%s`

// degradedReport is what the round publishes when synthesis fails.
const degradedReport = `## Day Report — %s

**TL;DR:** report generation failed; transcript preserved for manual review.

### Risks
The synthesis step errored, so today's signals and TODOs were not extracted.`

// Generator produces day reports.
type Generator struct {
	gen    generate.Generator
	assets []string
	limit  int
	log    *logging.Logger
}

// NewGenerator creates a report generator. limit caps the transcript
// characters included in the synthesis prompt.
func NewGenerator(gen generate.Generator, assets []string, limit int, log *logging.Logger) *Generator {
	if log == nil {
		log = logging.NopLogger()
	}
	if limit <= 0 {
		limit = 12000
	}
	return &Generator{gen: gen, assets: assets, limit: limit, log: log}
}

// Generate runs the single synthesis call. It never fails the round:
// a generation error yields the degraded report fragment.
func (g *Generator) Generate(ctx context.Context, transcriptText, validationCtx, itemsCtx string) string {
	date := time.Now().UTC().Format("2006-01-02")
	if validationCtx == "" {
		validationCtx = "(no notable signals this round)"
	}
	if itemsCtx == "" {
		itemsCtx = "(no open items)"
	}

	prompt := fmt.Sprintf(reportTemplate,
		date, strings.Join(g.assets, ", "), date,
		validationCtx, itemsCtx, tail(transcriptText, g.limit))

	text, err := g.gen.Generate(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		g.log.Warn("day report generation failed", "error", err)
		return fmt.Sprintf(degradedReport, date)
	}
	return text
}

// ParseTodoTable re-parses the report's Daily TODO rows into draft
// action items, using the same type normalization as transcript
// parsing. Header and separator rows are skipped; rows without a WHAT
// and OWNER are dropped.
func ParseTodoTable(report string) []items.Draft {
	var drafts []items.Draft
	inTable := false

	for _, line := range strings.Split(report, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.Contains(trimmed, "Daily TODO") {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}
		if !strings.HasPrefix(trimmed, "|") {
			if trimmed != "" {
				inTable = false
			}
			continue
		}

		cells := splitRow(trimmed)
		if len(cells) < 4 {
			continue
		}
		what, how, why, owner := cells[0], cells[1], cells[2], cells[3]
		if isHeaderCell(what) || strings.Trim(what, "-: ") == "" {
			continue
		}
		if what == "" || owner == "" {
			continue
		}
		drafts = append(drafts, items.Draft{
			What:    what,
			How:     how,
			Why:     why,
			Owner:   owner,
			Urgency: items.UrgencyToday,
			Type:    transcript.NormalizeType(""),
		})
	}
	return drafts
}

// ExtractTLDR pulls the TL;DR sentence out of a report, for the
// manifest. Falls back to the first non-empty line.
func ExtractTLDR(report string) string {
	for _, line := range strings.Split(report, "\n") {
		trimmed := strings.TrimSpace(line)
		if idx := strings.Index(trimmed, "TL;DR:"); idx >= 0 {
			tldr := strings.TrimSpace(trimmed[idx+len("TL;DR:"):])
			tldr = strings.Trim(tldr, "* ")
			if tldr != "" {
				return tldr
			}
		}
	}
	for _, line := range strings.Split(report, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return strings.TrimLeft(trimmed, "# ")
		}
	}
	return ""
}

func splitRow(row string) []string {
	row = strings.Trim(row, "|")
	parts := strings.Split(row, "|")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func isHeaderCell(s string) bool {
	switch strings.ToUpper(s) {
	case "WHAT", "ASSET", "DATE":
		return true
	}
	return false
}

func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
