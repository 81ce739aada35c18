package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/openclaw/standup/internal/config"
	"github.com/openclaw/standup/internal/transcript"
)

func TestRootCommandRegistration(t *testing.T) {
	if rootCmd.Use != "standup" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "standup")
	}

	expected := []string{"run", "status", "items", "work", "predictions"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestParticipantSegment(t *testing.T) {
	transcriptText := strings.Join([]string{
		"kickoff line",
		"",
		"VINCE: BTC looking strong, accumulating",
		"",
		"Eliza: watching VINCE's levels",
		"",
		"VINCE: adding on dips",
	}, "\n")

	got := participantSegment(transcriptText, "VINCE")
	want := "BTC looking strong, accumulating\nadding on dips"
	if got != want {
		t.Errorf("participantSegment = %q, want %q", got, want)
	}

	if got := participantSegment(transcriptText, "Oracle"); got != "" {
		t.Errorf("absent participant segment = %q, want empty", got)
	}
}

func TestCollectSignalsAttributesByDisplayName(t *testing.T) {
	cfg := config.Default()
	cfg.Roster.Order = []string{"vince", "eliza"}
	cfg.Roster.DisplayNames = map[string]string{"vince": "VINCE", "eliza": "Eliza"}
	cfg.Signals.TrackedAssets = []string{"BTC"}

	transcriptText := "kickoff\n\nVINCE: BTC breakout incoming, going long\n\nEliza: no market view today"
	signals := collectSignals(cfg, transcriptText)

	if len(signals) != 1 {
		t.Fatalf("signals = %+v, want exactly one", signals)
	}
	if signals[0].Participant != "VINCE" || signals[0].Asset != "BTC" {
		t.Errorf("signal = %+v, want VINCE on BTC", signals[0])
	}
}

func TestRenderInsights(t *testing.T) {
	parsed := transcript.Parsed{
		LessonsByParticipant: map[string][]string{
			"VINCE": {"size down into weekends"},
		},
		Disagreements: []string{"Eliza and Oracle disagree on SOL exposure"},
	}

	out := renderInsights(parsed)
	for _, want := range []string{"## Lessons", "**VINCE**: size down into weekends", "## Open Disagreements", "SOL exposure"} {
		if !strings.Contains(out, want) {
			t.Errorf("insights missing %q:\n%s", want, out)
		}
	}

	if got := renderInsights(transcript.Empty()); got != "" {
		t.Errorf("empty parse should render no insights, got %q", got)
	}
}

func TestNextRunTime(t *testing.T) {
	tests := []struct {
		name  string
		now   time.Time
		hours []int
		want  time.Time
	}{
		{
			name:  "later hour today",
			now:   time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC),
			hours: []int{9, 17},
			want:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "between scheduled hours",
			now:   time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
			hours: []int{9, 17},
			want:  time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC),
		},
		{
			name:  "past all hours rolls to tomorrow",
			now:   time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
			hours: []int{9, 17},
			want:  time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "exactly on the hour picks the next",
			now:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			hours: []int{9},
			want:  time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "no hours defaults to nine",
			now:   time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC),
			hours: nil,
			want:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextRunTime(tt.now, tt.hours); !got.Equal(tt.want) {
				t.Errorf("nextRunTime = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisplayNamesFollowOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Roster.Order = []string{"b", "a"}
	cfg.Roster.DisplayNames = map[string]string{"a": "Alpha"}

	got := displayNames(cfg)
	if len(got) != 2 || got[0] != "b" || got[1] != "Alpha" {
		t.Errorf("displayNames = %v, want [b Alpha]", got)
	}
}
