// Package signal extracts directional calls from participant replies
// and reconciles them across the roster. Signals live for one
// validation pass; nothing here is persisted.
package signal

import (
	"encoding/json"
	"strings"
)

// Direction of a signal on an asset.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Consensus of a validation pass over one asset.
type Consensus string

const (
	ConsensusBullish   Consensus = "bullish"
	ConsensusBearish   Consensus = "bearish"
	ConsensusNeutral   Consensus = "neutral"
	ConsensusDivergent Consensus = "divergent"
)

// Confidence of a validation result.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Signal is one participant's directional call on one asset for the
// current round.
type Signal struct {
	Participant string
	Asset       string
	Direction   Direction
	Confidence  float64
	Source      string // "structured" or "heuristic"
}

// Result reconciles all signals for one asset.
type Result struct {
	Asset          string
	Signals        []Signal
	Consensus      Consensus
	Confidence     Confidence
	Recommendation string
}

// structuredFragment is the canonical machine-emitted block a
// participant may embed in their reply.
type structuredFragment struct {
	Signals []struct {
		Asset      string  `json:"asset"`
		Direction  string  `json:"direction"`
		Confidence float64 `json:"confidence"`
	} `json:"signals"`
}

// heuristicWindow is how far past an asset mention the fallback scan
// looks for sentiment indicators.
const heuristicWindow = 120

var bullishIndicators = []string{"bullish", "long", "buy", "accumulate", "upside", "breakout"}
var bearishIndicators = []string{"bearish", "short", "sell", "dump", "downside", "breakdown"}

// Extract pulls signals from one participant's reply segment. A
// machine-emitted structured fragment wins outright; without one, each
// tracked asset's mention is scanned heuristically, and the last
// indicator inside the window is authoritative.
func Extract(participant, segment string, trackedAssets []string) []Signal {
	if sigs, ok := extractStructured(participant, segment); ok {
		return sigs
	}
	return extractHeuristic(participant, segment, trackedAssets)
}

// extractStructured scans the segment for the first balanced JSON
// object that decodes into the canonical fragment shape. Any other
// embedded structured data is ignored.
func extractStructured(participant, segment string) ([]Signal, bool) {
	rest := segment
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			return nil, false
		}
		obj, length := balancedObject(rest[start:])
		if length == 0 {
			return nil, false
		}

		var frag structuredFragment
		if err := json.Unmarshal([]byte(obj), &frag); err == nil && len(frag.Signals) > 0 {
			out := make([]Signal, 0, len(frag.Signals))
			for _, s := range frag.Signals {
				dir := parseDirection(s.Direction)
				if dir == "" || s.Asset == "" {
					continue
				}
				conf := s.Confidence
				if conf <= 0 || conf > 1 {
					conf = 0.5
				}
				out = append(out, Signal{
					Participant: participant,
					Asset:       strings.ToUpper(s.Asset),
					Direction:   dir,
					Confidence:  conf,
					Source:      "structured",
				})
			}
			if len(out) > 0 {
				return out, true
			}
		}
		rest = rest[start+length:]
	}
}

// extractHeuristic scans a fixed window after each tracked asset's
// mention. Later indicators in the window override earlier ones.
func extractHeuristic(participant, segment string, trackedAssets []string) []Signal {
	lower := strings.ToLower(segment)
	var out []Signal

	for _, asset := range trackedAssets {
		idx := strings.Index(lower, strings.ToLower(asset))
		if idx < 0 {
			continue
		}
		end := idx + len(asset) + heuristicWindow
		if end > len(lower) {
			end = len(lower)
		}
		window := lower[idx+len(asset) : end]

		dir := Direction("")
		best := -1
		for _, ind := range bullishIndicators {
			if pos := strings.LastIndex(window, ind); pos > best {
				best = pos
				dir = Bullish
			}
		}
		for _, ind := range bearishIndicators {
			if pos := strings.LastIndex(window, ind); pos > best {
				best = pos
				dir = Bearish
			}
		}
		if dir == "" {
			continue
		}
		out = append(out, Signal{
			Participant: participant,
			Asset:       strings.ToUpper(asset),
			Direction:   dir,
			Confidence:  0.5,
			Source:      "heuristic",
		})
	}
	return out
}

// balancedObject returns the first balanced {...} prefix of s (which
// must start at '{') and its length, or ("", 0) when unbalanced.
func balancedObject(s string) (string, int) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
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
				return s[:i+1], i + 1
			}
		}
	}
	return "", 0
}

func parseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bullish":
		return Bullish
	case "bearish":
		return Bearish
	case "neutral":
		return Neutral
	default:
		return ""
	}
}
