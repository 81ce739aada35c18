package items

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store errors.
var (
	ErrNotFound  = errors.New("items: item not found")
	ErrCompleted = errors.New("items: item already completed")
)

// Store is a file-backed action item log. Every call is a full
// read-modify-write of the backing file; a missing file means an empty
// store. There is no file lock — concurrent external writers race and
// the last writer wins.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// storeFile is the on-disk shape.
type storeFile struct {
	Items       []Item    `json:"items"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// NewStore creates a store backed by the given file, creating its
// directory. An uncreatable directory is the one infrastructure
// failure that surfaces to the operator.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("items: create store dir: %w", err)
	}
	return &Store{path: path, now: time.Now}, nil
}

// Add appends a new item built from the draft, assigning id, status
// and timestamps.
func (s *Store) Add(d Draft) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	item := Item{
		ID:        uuid.NewString(),
		Date:      now.UTC().Format("2006-01-02"),
		What:      d.What,
		How:       d.How,
		Why:       d.Why,
		Owner:     d.Owner,
		Urgency:   NormalizeUrgency(string(d.Urgency)),
		Type:      d.Type,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}

	file := s.read()
	file.Items = append(file.Items, item)
	if err := s.write(file); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Update merges a patch into the item and bumps updatedAt. Moving into
// done, failed or cancelled stamps completedAt; once stamped, the item
// is immutable and further updates fail with ErrCompleted.
func (s *Store) Update(id string, p Patch) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := s.read()
	for i := range file.Items {
		if file.Items[i].ID != id {
			continue
		}
		item := &file.Items[i]
		if item.CompletedAt != nil {
			return Item{}, fmt.Errorf("%w: %s", ErrCompleted, id)
		}

		if p.Status != nil {
			item.Status = *p.Status
		}
		if p.Outcome != nil {
			item.Outcome = *p.Outcome
		}
		if p.PnL != nil {
			item.PnL = p.PnL
		}
		if p.Priority != nil {
			item.Priority = *p.Priority
		}
		if p.Owner != nil {
			item.Owner = *p.Owner
		}
		if p.Urgency != nil {
			item.Urgency = NormalizeUrgency(string(*p.Urgency))
		}

		now := s.now()
		item.UpdatedAt = now
		if item.Status.Terminal() && item.CompletedAt == nil {
			completed := now
			item.CompletedAt = &completed
		}

		if err := s.write(file); err != nil {
			return Item{}, err
		}
		return *item, nil
	}
	return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Get returns one item by id.
func (s *Store) Get(id string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.read().Items {
		if item.ID == id {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// All returns every item in insertion order.
func (s *Store) All() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().Items
}

// ByStatus returns items with the given status, in insertion order.
func (s *Store) ByStatus(status Status) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Item
	for _, item := range s.read().Items {
		if item.Status == status {
			out = append(out, item)
		}
	}
	return out
}

// Pending returns items still waiting to be finished (new or
// in_progress), in insertion order.
func (s *Store) Pending() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Item
	for _, item := range s.read().Items {
		if item.Status == StatusNew || item.Status == StatusInProgress {
			out = append(out, item)
		}
	}
	return out
}

// WinRate summarizes numeric outcomes over done items that carry one.
type WinRate struct {
	Wins   int
	Losses int
	Rate   float64
}

// WinRate computes wins and losses over done items with a numeric
// result. Rate is wins / (wins + losses); all zero when no item
// qualifies. Zero-pnl items count as neither.
func (s *Store) WinRate() WinRate {
	s.mu.Lock()
	defer s.mu.Unlock()

	var wr WinRate
	for _, item := range s.read().Items {
		if item.Status != StatusDone || item.PnL == nil {
			continue
		}
		switch {
		case *item.PnL > 0:
			wr.Wins++
		case *item.PnL < 0:
			wr.Losses++
		}
	}
	if total := wr.Wins + wr.Losses; total > 0 {
		wr.Rate = float64(wr.Wins) / float64(total)
	}
	return wr
}

// Context renders the pending items and win rate as a kickoff block
// for the next round. Empty string when there is nothing pending and
// no track record.
func (s *Store) Context() string {
	pending := s.Pending()
	wr := s.WinRate()
	if len(pending) == 0 && wr.Wins+wr.Losses == 0 {
		return ""
	}

	var sb strings.Builder
	if len(pending) > 0 {
		sb.WriteString("### Open Action Items\n")
		sb.WriteString("| WHAT | OWNER | URGENCY | STATUS |\n")
		sb.WriteString("|------|-------|---------|--------|\n")
		for _, item := range pending {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				truncate(item.What, 60), item.Owner, item.Urgency, item.Status))
		}
	}
	if total := wr.Wins + wr.Losses; total > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("Track record: %d wins / %d losses (%.0f%% win rate)\n",
			wr.Wins, wr.Losses, wr.Rate*100))
	}
	return sb.String()
}

// read loads the backing file. Any read or parse failure is treated as
// an empty store; the log is best effort, never round-fatal.
func (s *Store) read() storeFile {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return storeFile{}
	}
	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return storeFile{}
	}
	return file
}

func (s *Store) write(file storeFile) error {
	file.LastUpdated = s.now()
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("items: marshal store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("items: write store: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
