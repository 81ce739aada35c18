// Package items is the durable log of follow-up work extracted from
// standup rounds, plus the pure prioritization over it and the
// append-only learnings journal derived from outcomes.
package items

import "time"

// Urgency orders how soon an item should be worked.
type Urgency string

const (
	UrgencyNow      Urgency = "now"
	UrgencyToday    Urgency = "today"
	UrgencyThisWeek Urgency = "this_week"
	UrgencyBacklog  Urgency = "backlog"
)

// urgencyRank maps urgency to sort rank; lower works sooner.
var urgencyRank = map[Urgency]int{
	UrgencyNow:      0,
	UrgencyToday:    1,
	UrgencyThisWeek: 2,
	UrgencyBacklog:  3,
}

// NormalizeUrgency maps free-text urgency into the closed set,
// defaulting to backlog.
func NormalizeUrgency(s string) Urgency {
	switch Urgency(s) {
	case UrgencyNow, UrgencyToday, UrgencyThisWeek, UrgencyBacklog:
		return Urgency(s)
	default:
		return UrgencyBacklog
	}
}

// Status is an item's lifecycle state. new -> in_progress -> one of
// the terminal states; terminal items are immutable once their
// completion timestamp is set.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status ends the lifecycle.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled || s == StatusFailed
}

// Item is one unit of follow-up work. Items are never deleted; the
// store is an append/patch-only log.
type Item struct {
	ID          string     `json:"id"`
	Date        string     `json:"date"` // YYYY-MM-DD of creation
	What        string     `json:"what"`
	How         string     `json:"how,omitempty"`
	Why         string     `json:"why,omitempty"`
	Owner       string     `json:"owner"`
	Urgency     Urgency    `json:"urgency"`
	Type        string     `json:"type"`
	Status      Status     `json:"status"`
	Outcome     string     `json:"outcome,omitempty"`
	PnL         *float64   `json:"pnl,omitempty"`
	Priority    int        `json:"priority,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Draft is the caller-supplied part of a new item.
type Draft struct {
	What    string
	How     string
	Why     string
	Owner   string
	Urgency Urgency
	Type    string
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Status   *Status
	Outcome  *string
	PnL      *float64
	Priority *int
	Owner    *string
	Urgency  *Urgency
}
