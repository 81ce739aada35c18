// Package predictions keeps a durable record of participants'
// directional calls and grades them after expiry against an external
// price source, so the day report can cite an actual track record
// instead of vibes.
package predictions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openclaw/standup/internal/signal"
)

// Outcome of a graded prediction.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeFlat      Outcome = "flat"
)

// Prediction is one directional call on one asset.
type Prediction struct {
	ID           string           `json:"id"`
	Date         string           `json:"date"`
	Participant  string           `json:"participant"`
	Asset        string           `json:"asset"`
	Direction    signal.Direction `json:"direction"`
	PriceAtCall  float64          `json:"priceAtCall"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	Outcome      Outcome          `json:"outcome"`
	PriceAtCheck float64          `json:"priceAtCheck,omitempty"`
	CheckedAt    *time.Time       `json:"checkedAt,omitempty"`
}

// PriceSource supplies a current price for an asset. External
// collaborator; it may fail and grading just waits for the next pass.
type PriceSource interface {
	Price(ctx context.Context, asset string) (float64, error)
}

// Tracker is the file-backed prediction log. Same read-modify-write
// discipline as the action item store, same last-writer-wins caveat.
type Tracker struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

type trackerFile struct {
	Predictions []Prediction `json:"predictions"`
	LastUpdated time.Time    `json:"lastUpdated"`
}

// NewTracker creates a tracker backed by the given file.
func NewTracker(path string) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("predictions: create dir: %w", err)
	}
	return &Tracker{path: path, now: time.Now}, nil
}

// Record stores one directional call. Neutral signals are not
// predictions and are rejected.
func (t *Tracker) Record(participant, asset string, direction signal.Direction, priceAtCall float64, horizon time.Duration) (Prediction, error) {
	if direction != signal.Bullish && direction != signal.Bearish {
		return Prediction{}, fmt.Errorf("predictions: %q is not a directional call", direction)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	p := Prediction{
		ID:          uuid.NewString(),
		Date:        now.UTC().Format("2006-01-02"),
		Participant: participant,
		Asset:       strings.ToUpper(asset),
		Direction:   direction,
		PriceAtCall: priceAtCall,
		ExpiresAt:   now.Add(horizon),
		Outcome:     OutcomePending,
	}

	file := t.read()
	file.Predictions = append(file.Predictions, p)
	if err := t.write(file); err != nil {
		return Prediction{}, err
	}
	return p, nil
}

// Pending returns ungraded predictions.
func (t *Tracker) Pending() []Prediction {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Prediction
	for _, p := range t.read().Predictions {
		if p.Outcome == OutcomePending {
			out = append(out, p)
		}
	}
	return out
}

// ValidateExpired grades every pending prediction past its expiry
// against the price source. A price fetch failure skips that
// prediction until a later pass. Returns how many were graded.
func (t *Tracker) ValidateExpired(ctx context.Context, src PriceSource) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	file := t.read()
	now := t.now()
	graded := 0

	for i := range file.Predictions {
		p := &file.Predictions[i]
		if p.Outcome != OutcomePending || now.Before(p.ExpiresAt) {
			continue
		}
		price, err := src.Price(ctx, p.Asset)
		if err != nil {
			continue
		}

		p.PriceAtCheck = price
		checked := now
		p.CheckedAt = &checked
		switch {
		case price == p.PriceAtCall:
			p.Outcome = OutcomeFlat
		case p.Direction == signal.Bullish && price > p.PriceAtCall,
			p.Direction == signal.Bearish && price < p.PriceAtCall:
			p.Outcome = OutcomeCorrect
		default:
			p.Outcome = OutcomeIncorrect
		}
		graded++
	}

	if graded > 0 {
		if err := t.write(file); err != nil {
			return 0
		}
	}
	return graded
}

// Stats summarizes one participant's graded record.
type Stats struct {
	Participant string
	Correct     int
	Incorrect   int
	Accuracy    float64
}

// Accuracy computes per-participant accuracy over graded predictions.
// Flat outcomes count as neither. Sorted by accuracy descending, ties
// by name for stable output.
func (t *Tracker) Accuracy() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	byName := map[string]*Stats{}
	for _, p := range t.read().Predictions {
		switch p.Outcome {
		case OutcomeCorrect, OutcomeIncorrect:
		default:
			continue
		}
		s, ok := byName[p.Participant]
		if !ok {
			s = &Stats{Participant: p.Participant}
			byName[p.Participant] = s
		}
		if p.Outcome == OutcomeCorrect {
			s.Correct++
		} else {
			s.Incorrect++
		}
	}

	out := make([]Stats, 0, len(byName))
	for _, s := range byName {
		if total := s.Correct + s.Incorrect; total > 0 {
			s.Accuracy = float64(s.Correct) / float64(total)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Accuracy != out[j].Accuracy {
			return out[i].Accuracy > out[j].Accuracy
		}
		return out[i].Participant < out[j].Participant
	})
	return out
}

// Context renders the accuracy table for the report prompt. Empty when
// nothing has been graded yet.
func (t *Tracker) Context() string {
	stats := t.Accuracy()
	if len(stats) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("### Prediction Track Record\n")
	sb.WriteString("| PARTICIPANT | CORRECT | INCORRECT | ACCURACY |\n")
	sb.WriteString("|-------------|---------|-----------|----------|\n")
	for _, s := range stats {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.0f%% |\n",
			s.Participant, s.Correct, s.Incorrect, s.Accuracy*100))
	}
	return sb.String()
}

func (t *Tracker) read() trackerFile {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return trackerFile{}
	}
	var file trackerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return trackerFile{}
	}
	return file
}

func (t *Tracker) write(file trackerFile) error {
	file.LastUpdated = t.now()
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("predictions: marshal: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("predictions: write: %w", err)
	}
	return nil
}
