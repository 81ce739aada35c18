package signal

import (
	"fmt"
	"strings"
)

// Validate reconciles all signals for one asset. The thresholds are
// exact: divergence (both directions present) always wins and flags
// for human review; two or more agreeing directional signals give high
// confidence; exactly one directional signal gives medium; anything
// else is neutral/low.
func Validate(signals []Signal, asset string) Result {
	asset = strings.ToUpper(asset)
	var mine []Signal
	for _, s := range signals {
		if s.Asset == asset {
			mine = append(mine, s)
		}
	}

	bulls, bears := 0, 0
	for _, s := range mine {
		switch s.Direction {
		case Bullish:
			bulls++
		case Bearish:
			bears++
		}
	}

	res := Result{Asset: asset, Signals: mine}
	switch {
	case bulls > 0 && bears > 0:
		res.Consensus = ConsensusDivergent
		res.Confidence = ConfidenceLow
		res.Recommendation = fmt.Sprintf("%s: participants disagree (%d bullish vs %d bearish) — flag for human review", asset, bulls, bears)

	case bulls >= 2:
		res.Consensus = ConsensusBullish
		res.Confidence = ConfidenceHigh
		res.Recommendation = fmt.Sprintf("%s: %d participants aligned bullish", asset, bulls)

	case bears >= 2:
		res.Consensus = ConsensusBearish
		res.Confidence = ConfidenceHigh
		res.Recommendation = fmt.Sprintf("%s: %d participants aligned bearish", asset, bears)

	case bulls == 1:
		res.Consensus = ConsensusBullish
		res.Confidence = ConfidenceMedium
		res.Recommendation = fmt.Sprintf("%s: single bullish call, unconfirmed", asset)

	case bears == 1:
		res.Consensus = ConsensusBearish
		res.Confidence = ConfidenceMedium
		res.Recommendation = fmt.Sprintf("%s: single bearish call, unconfirmed", asset)

	default:
		res.Consensus = ConsensusNeutral
		res.Confidence = ConfidenceLow
		res.Recommendation = fmt.Sprintf("%s: no directional conviction", asset)
	}
	return res
}

// ValidateAll runs Validate for every tracked asset, preserving the
// configured asset order.
func ValidateAll(signals []Signal, trackedAssets []string) []Result {
	out := make([]Result, 0, len(trackedAssets))
	for _, asset := range trackedAssets {
		out = append(out, Validate(signals, asset))
	}
	return out
}

// BuildContext renders the validation results as a report block,
// separating divergent assets (called out for human review) from
// high-confidence aligned ones. Empty when nothing noteworthy exists.
func BuildContext(results []Result) string {
	var divergent, aligned []Result
	for _, r := range results {
		switch {
		case r.Consensus == ConsensusDivergent:
			divergent = append(divergent, r)
		case r.Confidence == ConfidenceHigh:
			aligned = append(aligned, r)
		}
	}
	if len(divergent) == 0 && len(aligned) == 0 {
		return ""
	}

	var sb strings.Builder
	if len(divergent) > 0 {
		sb.WriteString("### ⚠️ Divergences Detected\n")
		for _, r := range divergent {
			sb.WriteString("- ")
			sb.WriteString(r.Recommendation)
			sb.WriteString("\n")
			for _, s := range r.Signals {
				sb.WriteString(fmt.Sprintf("  - %s: %s (%.1f, %s)\n", s.Participant, s.Direction, s.Confidence, s.Source))
			}
		}
	}
	if len(aligned) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("### ✅ High Confidence (Aligned)\n")
		for _, r := range aligned {
			sb.WriteString("- ")
			sb.WriteString(r.Recommendation)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
