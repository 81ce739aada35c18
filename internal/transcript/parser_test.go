package transcript

import (
	"context"
	"errors"
	"testing"

	"github.com/openclaw/standup/internal/generate"
)

func scripted(responses ...string) generate.Generator {
	i := 0
	return generate.Func(func(context.Context, string) (string, error) {
		if i >= len(responses) {
			return "", errors.New("no more responses")
		}
		r := responses[i]
		i++
		return r, nil
	})
}

func TestParseWellFormed(t *testing.T) {
	gen := scripted(`{
		"actionItems": [{"what": "write the weekly essay", "how": "draft then edit", "why": "audience growth", "owner": "Naval", "urgency": "today", "type": "essay"}],
		"lessonsByParticipant": {"VINCE": ["size down in chop"]},
		"disagreements": ["VINCE and Oracle disagree on SOL"],
		"suggestions": ["add a funding-rate feed"]
	}`)

	p := NewParser(gen, 8000, nil)
	got := p.Parse(context.Background(), "VINCE: stuff happened")

	if len(got.ActionItems) != 1 {
		t.Fatalf("ActionItems = %v, want 1 item", got.ActionItems)
	}
	item := got.ActionItems[0]
	if item.What != "write the weekly essay" || item.Owner != "Naval" || item.Type != "essay" {
		t.Errorf("item = %+v", item)
	}
	if len(got.LessonsByParticipant["VINCE"]) != 1 {
		t.Errorf("LessonsByParticipant = %v", got.LessonsByParticipant)
	}
	if len(got.Disagreements) != 1 || len(got.Suggestions) != 1 {
		t.Errorf("disagreements/suggestions = %v / %v", got.Disagreements, got.Suggestions)
	}
}

func TestParseToleratesSurroundingProse(t *testing.T) {
	gen := scripted("Sure! Here is the extraction you asked for:\n" +
		`{"actionItems": [], "lessonsByParticipant": {}, "disagreements": ["one"], "suggestions": []}` +
		"\nLet me know if you need anything else.")

	p := NewParser(gen, 8000, nil)
	got := p.Parse(context.Background(), "transcript")

	if len(got.Disagreements) != 1 {
		t.Errorf("Disagreements = %v, want the wrapped object parsed", got.Disagreements)
	}
}

func TestParseGarbageYieldsEmptyDefault(t *testing.T) {
	gen := scripted("no structured content here", "still nothing structured")

	p := NewParser(gen, 8000, nil)
	got := p.Parse(context.Background(), "no structured content here")

	if len(got.ActionItems) != 0 {
		t.Errorf("ActionItems = %v, want empty", got.ActionItems)
	}
	if got.LessonsByParticipant == nil || len(got.LessonsByParticipant) != 0 {
		t.Errorf("LessonsByParticipant = %v, want empty non-nil map", got.LessonsByParticipant)
	}
	if got.Disagreements == nil || got.Suggestions == nil {
		t.Error("collections must be non-nil even on failure")
	}
}

func TestParseRetriesOnceThenSucceeds(t *testing.T) {
	gen := scripted(
		"not json at all",
		`{"actionItems": [], "lessonsByParticipant": {}, "disagreements": [], "suggestions": ["retry worked"]}`,
	)

	p := NewParser(gen, 8000, nil)
	got := p.Parse(context.Background(), "transcript")

	if len(got.Suggestions) != 1 || got.Suggestions[0] != "retry worked" {
		t.Errorf("Suggestions = %v, want the retry result", got.Suggestions)
	}
}

func TestParseGenerationErrorYieldsEmptyDefault(t *testing.T) {
	gen := generate.Func(func(context.Context, string) (string, error) {
		return "", errors.New("model unavailable")
	})

	p := NewParser(gen, 8000, nil)
	got := p.Parse(context.Background(), "transcript")

	if len(got.ActionItems) != 0 || len(got.Suggestions) != 0 {
		t.Errorf("Parse on generation error = %+v, want empty", got)
	}
}

func TestParseAcceptsLegacyLessonsKey(t *testing.T) {
	gen := scripted(`{"actionItems": [], "lessonsByAgentName": {"Solus": ["hedge earlier"]}, "disagreements": [], "suggestions": []}`)

	p := NewParser(gen, 8000, nil)
	got := p.Parse(context.Background(), "transcript")

	if len(got.LessonsByParticipant["Solus"]) != 1 {
		t.Errorf("LessonsByParticipant = %v, want legacy key accepted", got.LessonsByParticipant)
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"essay", "essay"},
		{"Essay", "essay"},
		{"x-article", "x_article"},
		{"good life", "good_life"},
		{"BUILD", "build"},
		{"remind", "remind"},
		{"deploy_to_prod", "remind"},
		{"", "remind"},
		{"  trades  ", "trades"},
	}
	for _, tt := range tests {
		if got := NormalizeType(tt.in); got != tt.want {
			t.Errorf("NormalizeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractObject(t *testing.T) {
	t.Run("nested objects", func(t *testing.T) {
		got, err := extractObject(`prefix {"a": {"b": 1}} suffix {"c": 2}`)
		if err != nil {
			t.Fatalf("extractObject failed: %v", err)
		}
		if got != `{"a": {"b": 1}}` {
			t.Errorf("extractObject = %q", got)
		}
	})

	t.Run("braces inside strings", func(t *testing.T) {
		got, err := extractObject(`{"msg": "use {braces} freely"}`)
		if err != nil {
			t.Fatalf("extractObject failed: %v", err)
		}
		if got != `{"msg": "use {braces} freely"}` {
			t.Errorf("extractObject = %q", got)
		}
	})

	t.Run("unbalanced", func(t *testing.T) {
		if _, err := extractObject(`{"never": "closed"`); !errors.Is(err, ErrNoObject) {
			t.Errorf("err = %v, want ErrNoObject", err)
		}
	})

	t.Run("no object", func(t *testing.T) {
		if _, err := extractObject("plain prose"); !errors.Is(err, ErrNoObject) {
			t.Errorf("err = %v, want ErrNoObject", err)
		}
	})
}

func TestCountCrossLinks(t *testing.T) {
	transcript := "VINCE: agreeing with Oracle on BTC\n" +
		"Oracle: nothing to add\n" +
		"Solus: VINCE is wrong about funding\n" +
		"Naval: unrelated musing"
	names := []string{"VINCE", "Oracle", "Solus", "Naval"}

	if got := CountCrossLinks(transcript, names); got != 2 {
		t.Errorf("CountCrossLinks = %d, want 2", got)
	}
	if got := CountCrossLinks("", names); got != 0 {
		t.Errorf("CountCrossLinks on empty = %d, want 0", got)
	}
}
