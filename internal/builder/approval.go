package builder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openclaw/standup/internal/items"
)

// approvalEntry is one queued item awaiting a human decision, stored
// as newline-delimited JSON.
type approvalEntry struct {
	QueuedAt time.Time  `json:"queuedAt"`
	Item     items.Item `json:"item"`
}

// queueForApproval appends the item to pending-approval.ndjson under
// the deliverables root. The queue is append-only; consuming it is a
// human's job, not this system's.
func (b *Builder) queueForApproval(item items.Item) error {
	path := filepath.Join(b.root, "pending-approval.ndjson")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("builder: open approval queue: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(approvalEntry{QueuedAt: b.now().UTC(), Item: item})
	if err != nil {
		return fmt.Errorf("builder: marshal approval entry: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("builder: append approval entry: %w", err)
	}
	return nil
}
