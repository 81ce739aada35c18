// Package transcript turns a round's free text into structured
// follow-up work. Extraction is delegated to one generation call
// constrained to a strict four-key object; everything the model does
// wrong degrades to the all-empty default instead of failing the round.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/openclaw/standup/internal/generate"
	"github.com/openclaw/standup/internal/logging"
)

// Parse output errors. They never escape Parse itself; they exist so
// the extraction helpers compose cleanly.
var (
	ErrNoObject = errors.New("transcript: no JSON object found")
)

// ItemDraft is an action item as declared in a parsed transcript,
// before it enters the store.
type ItemDraft struct {
	What    string `json:"what"`
	How     string `json:"how"`
	Why     string `json:"why"`
	Owner   string `json:"owner"`
	Urgency string `json:"urgency"`
	Type    string `json:"type"`
}

// Parsed is the structured result of one round's transcript. All
// collections are non-nil; a failed parse yields Empty(), never an
// error.
type Parsed struct {
	ActionItems          []ItemDraft         `json:"actionItems"`
	LessonsByParticipant map[string][]string `json:"lessonsByParticipant"`
	Disagreements        []string            `json:"disagreements"`
	Suggestions          []string            `json:"suggestions"`
}

// Empty returns the all-empty parse result.
func Empty() Parsed {
	return Parsed{
		ActionItems:          []ItemDraft{},
		LessonsByParticipant: map[string][]string{},
		Disagreements:        []string{},
		Suggestions:          []string{},
	}
}

// ItemTypes is the closed set of action item types. Anything a
// transcript declares outside this set collapses to "remind".
var ItemTypes = []string{
	"essay",
	"tweets",
	"x_article",
	"trades",
	"good_life",
	"prd",
	"integration_instructions",
	"build",
	"remind",
}

// NormalizeType maps a declared item type into the closed set.
func NormalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = strings.ReplaceAll(t, "-", "_")
	t = strings.ReplaceAll(t, " ", "_")
	for _, known := range ItemTypes {
		if t == known {
			return known
		}
	}
	return "remind"
}

const parsePrompt = `Extract structured follow-up work from this standup transcript.

Respond with ONLY a JSON object with exactly these four keys:
{
  "actionItems": [{"what": "...", "how": "...", "why": "...", "owner": "...", "urgency": "now|today|this_week|backlog", "type": "essay|tweets|x_article|trades|good_life|prd|integration_instructions|build|remind"}],
  "lessonsByParticipant": {"ParticipantName": ["lesson"]},
  "disagreements": ["one line per disagreement"],
  "suggestions": ["one line per open suggestion"]
}

Rules: only include action items with a concrete WHAT and OWNER. Use empty
arrays/objects for anything absent. No prose outside the JSON object.

TRANSCRIPT:
`

// Parser extracts structure from round transcripts.
type Parser struct {
	gen   generate.Generator
	limit int
	log   *logging.Logger
}

// NewParser creates a parser. limit caps how many trailing transcript
// characters are sent to the generator.
func NewParser(gen generate.Generator, limit int, log *logging.Logger) *Parser {
	if log == nil {
		log = logging.NopLogger()
	}
	if limit <= 0 {
		limit = 8000
	}
	return &Parser{gen: gen, limit: limit, log: log}
}

// Parse extracts action items, lessons, disagreements and suggestions
// from a transcript. One retry on a malformed response; after that the
// all-empty default is returned. Parse never returns an error.
func (p *Parser) Parse(ctx context.Context, transcript string) Parsed {
	prompt := parsePrompt + tail(transcript, p.limit)

	for attempt := 0; attempt < 2; attempt++ {
		raw, err := p.gen.Generate(ctx, prompt)
		if err != nil {
			p.log.Warn("transcript parse generation failed", "attempt", attempt+1, "error", err)
			continue
		}
		parsed, err := decode(raw)
		if err != nil {
			p.log.Warn("transcript parse decode failed", "attempt", attempt+1, "error", err)
			continue
		}
		return parsed
	}

	p.log.Warn("transcript parse degraded to empty result")
	return Empty()
}

// decode extracts the first balanced JSON object from raw output and
// unmarshals it, normalizing item types and filling missing keys.
func decode(raw string) (Parsed, error) {
	obj, err := extractObject(raw)
	if err != nil {
		return Parsed{}, err
	}

	// The model sometimes emits the original key name for lessons;
	// accept both spellings.
	var wire struct {
		ActionItems          []ItemDraft         `json:"actionItems"`
		LessonsByParticipant map[string][]string `json:"lessonsByParticipant"`
		LessonsByAgentName   map[string][]string `json:"lessonsByAgentName"`
		Disagreements        []string            `json:"disagreements"`
		Suggestions          []string            `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(obj), &wire); err != nil {
		return Parsed{}, err
	}

	out := Empty()
	for _, item := range wire.ActionItems {
		item.Type = NormalizeType(item.Type)
		out.ActionItems = append(out.ActionItems, item)
	}
	lessons := wire.LessonsByParticipant
	if len(lessons) == 0 {
		lessons = wire.LessonsByAgentName
	}
	for name, ls := range lessons {
		out.LessonsByParticipant[name] = ls
	}
	if wire.Disagreements != nil {
		out.Disagreements = wire.Disagreements
	}
	if wire.Suggestions != nil {
		out.Suggestions = wire.Suggestions
	}
	return out, nil
}

// extractObject returns the first balanced {...} substring, tolerating
// prose wrapped around it. Braces inside JSON strings are skipped.
func extractObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrNoObject
}

// CountCrossLinks counts transcript lines where one participant's
// reply mentions another participant by display name. A rough
// engagement heuristic for the day report, nothing more.
func CountCrossLinks(transcript string, names []string) int {
	count := 0
	for _, line := range strings.Split(transcript, "\n") {
		speaker, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		speaker = strings.TrimSpace(speaker)
		for _, name := range names {
			if name == "" || name == speaker {
				continue
			}
			if strings.Contains(rest, name) {
				count++
				break
			}
		}
	}
	return count
}

// tail returns at most limit trailing characters of s. Rounds overrun
// forward, so the end of a transcript is the informative part.
func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
