package signal

import (
	"strings"
	"testing"
)

var testAssets = []string{"BTC", "SOL", "HYPE"}

func TestExtractStructuredFragmentWins(t *testing.T) {
	segment := `Quick update. BTC looking like a dump honestly.
{"signals": [{"asset": "BTC", "direction": "bullish", "confidence": 0.8}]}`

	sigs := Extract("VINCE", segment, testAssets)
	if len(sigs) != 1 {
		t.Fatalf("Extract = %v, want one structured signal", sigs)
	}
	s := sigs[0]
	if s.Asset != "BTC" || s.Direction != Bullish || s.Source != "structured" {
		t.Errorf("signal = %+v", s)
	}
	if s.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", s.Confidence)
	}
}

func TestExtractIgnoresOtherEmbeddedObjects(t *testing.T) {
	segment := `Metrics: {"latency_ms": 40} and then my call:
{"signals": [{"asset": "SOL", "direction": "bearish", "confidence": 0.6}]}`

	sigs := Extract("Oracle", segment, testAssets)
	if len(sigs) != 1 || sigs[0].Asset != "SOL" || sigs[0].Direction != Bearish {
		t.Errorf("Extract = %v, want the signals fragment only", sigs)
	}
}

func TestExtractHeuristicFallback(t *testing.T) {
	segment := "BTC holding support, I'd accumulate here. Rest of the desk is quiet, " +
		"nothing else notable on the majors, volumes are thin and the weekend " +
		"chop continues with no conviction either way from anyone on the desk. " +
		"SOL looks ready to dump."

	sigs := Extract("Solus", segment, testAssets)
	byAsset := map[string]Signal{}
	for _, s := range sigs {
		byAsset[s.Asset] = s
	}

	if s, ok := byAsset["BTC"]; !ok || s.Direction != Bullish || s.Source != "heuristic" {
		t.Errorf("BTC signal = %+v, %v", s, ok)
	}
	if s, ok := byAsset["SOL"]; !ok || s.Direction != Bearish {
		t.Errorf("SOL signal = %+v, %v", s, ok)
	}
	if _, ok := byAsset["HYPE"]; ok {
		t.Error("no HYPE mention should mean no HYPE signal")
	}
}

// Later indicators in the scan window override earlier ones.
func TestExtractHeuristicLastIndicatorWins(t *testing.T) {
	segment := "BTC was looking bullish early but now I'd sell."

	sigs := Extract("ECHO", segment, testAssets)
	if len(sigs) != 1 {
		t.Fatalf("Extract = %v, want one signal", sigs)
	}
	if sigs[0].Direction != Bearish {
		t.Errorf("Direction = %v, want bearish (last indicator authoritative)", sigs[0].Direction)
	}
}

func TestExtractNoMentionNoSignal(t *testing.T) {
	if sigs := Extract("Naval", "thinking about leverage and desire", testAssets); len(sigs) != 0 {
		t.Errorf("Extract = %v, want none", sigs)
	}
}

func TestValidateDivergent(t *testing.T) {
	sigs := []Signal{
		{Participant: "VINCE", Asset: "BTC", Direction: Bullish},
		{Participant: "Oracle", Asset: "BTC", Direction: Bearish},
	}
	r := Validate(sigs, "BTC")
	if r.Consensus != ConsensusDivergent || r.Confidence != ConfidenceLow {
		t.Errorf("Validate = %v/%v, want divergent/low", r.Consensus, r.Confidence)
	}
}

// Divergence overrides agreement count: 2 bulls + 1 bear is still divergent.
func TestValidateDivergenceOverridesAgreement(t *testing.T) {
	sigs := []Signal{
		{Participant: "VINCE", Asset: "BTC", Direction: Bullish},
		{Participant: "Solus", Asset: "BTC", Direction: Bullish},
		{Participant: "Oracle", Asset: "BTC", Direction: Bearish},
	}
	r := Validate(sigs, "BTC")
	if r.Consensus != ConsensusDivergent || r.Confidence != ConfidenceLow {
		t.Errorf("Validate = %v/%v, want divergent/low", r.Consensus, r.Confidence)
	}
}

func TestValidateAgreementHighConfidence(t *testing.T) {
	sigs := []Signal{
		{Participant: "VINCE", Asset: "SOL", Direction: Bearish},
		{Participant: "ECHO", Asset: "SOL", Direction: Bearish},
	}
	r := Validate(sigs, "SOL")
	if r.Consensus != ConsensusBearish || r.Confidence != ConfidenceHigh {
		t.Errorf("Validate = %v/%v, want bearish/high", r.Consensus, r.Confidence)
	}
}

func TestValidateSingleDirectionalMedium(t *testing.T) {
	t.Run("alone", func(t *testing.T) {
		sigs := []Signal{
			{Participant: "VINCE", Asset: "HYPE", Direction: Bullish},
		}
		r := Validate(sigs, "HYPE")
		if r.Consensus != ConsensusBullish || r.Confidence != ConfidenceMedium {
			t.Errorf("Validate = %v/%v, want bullish/medium", r.Consensus, r.Confidence)
		}
	})

	t.Run("with neutrals", func(t *testing.T) {
		sigs := []Signal{
			{Participant: "VINCE", Asset: "HYPE", Direction: Bullish},
			{Participant: "Oracle", Asset: "HYPE", Direction: Neutral},
			{Participant: "ECHO", Asset: "HYPE", Direction: Neutral},
		}
		r := Validate(sigs, "HYPE")
		if r.Consensus != ConsensusBullish || r.Confidence != ConfidenceMedium {
			t.Errorf("Validate = %v/%v, want bullish/medium", r.Consensus, r.Confidence)
		}
	})
}

func TestValidateNoSignalsNeutralLow(t *testing.T) {
	r := Validate(nil, "BTC")
	if r.Consensus != ConsensusNeutral || r.Confidence != ConfidenceLow {
		t.Errorf("Validate = %v/%v, want neutral/low", r.Consensus, r.Confidence)
	}
}

func TestValidateIgnoresOtherAssets(t *testing.T) {
	sigs := []Signal{
		{Participant: "VINCE", Asset: "SOL", Direction: Bullish},
		{Participant: "ECHO", Asset: "SOL", Direction: Bullish},
	}
	r := Validate(sigs, "BTC")
	if r.Consensus != ConsensusNeutral || len(r.Signals) != 0 {
		t.Errorf("Validate = %+v, want neutral with no signals", r)
	}
}

func TestValidateAllPreservesAssetOrder(t *testing.T) {
	results := ValidateAll(nil, testAssets)
	if len(results) != 3 {
		t.Fatalf("ValidateAll = %d results, want 3", len(results))
	}
	for i, asset := range testAssets {
		if results[i].Asset != asset {
			t.Errorf("results[%d].Asset = %q, want %q", i, results[i].Asset, asset)
		}
	}
}

func TestBuildContext(t *testing.T) {
	sigs := []Signal{
		{Participant: "VINCE", Asset: "BTC", Direction: Bullish, Confidence: 0.8, Source: "structured"},
		{Participant: "Oracle", Asset: "BTC", Direction: Bearish, Confidence: 0.5, Source: "heuristic"},
		{Participant: "VINCE", Asset: "SOL", Direction: Bearish},
		{Participant: "ECHO", Asset: "SOL", Direction: Bearish},
	}
	ctx := BuildContext(ValidateAll(sigs, testAssets))

	if !strings.Contains(ctx, "Divergences Detected") {
		t.Errorf("context missing divergence section:\n%s", ctx)
	}
	if !strings.Contains(ctx, "High Confidence (Aligned)") {
		t.Errorf("context missing aligned section:\n%s", ctx)
	}
	if !strings.Contains(ctx, "BTC") || !strings.Contains(ctx, "SOL") {
		t.Errorf("context missing assets:\n%s", ctx)
	}
}

func TestBuildContextEmptyWhenNothingNoteworthy(t *testing.T) {
	if ctx := BuildContext(ValidateAll(nil, testAssets)); ctx != "" {
		t.Errorf("BuildContext = %q, want empty", ctx)
	}
}
