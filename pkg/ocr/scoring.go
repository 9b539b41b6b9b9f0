package ocr

import "math"

// Tier classifies a match score.
type Tier string

const (
	TierReject  Tier = "REJECT"
	TierPartial Tier = "PARTIAL"
	TierAccept  Tier = "ACCEPT"
)

// Status returns the traffic-light label shown to reviewers.
func (t Tier) Status() string {
	switch t {
	case TierAccept:
		return "GREEN"
	case TierPartial:
		return "YELLOW"
	default:
		return "RED"
	}
}

// MatchResult is the outcome of scoring observed digits against a claim.
type MatchResult struct {
	// MatchedText echoes the claim for ACCEPT and PARTIAL, empty otherwise.
	MatchedText string  `json:"matched_text"`
	Score       float64 `json:"score"`
	MatchCount  int     `json:"match_count"`
	Tier        Tier    `json:"tier"`
}

// Match scores observed against claimed by multiset overlap: each claimed
// character consumes at most one equal character of observed, position is
// ignored. The score is the consumed share of claimed in percent, rounded
// to two decimals, and is tiered by cfg. An empty claim is a REJECT with
// score 0.
func Match(observed, claimed string, cfg ScoringConfig) MatchResult {
	if claimed == "" {
		return MatchResult{Tier: TierReject}
	}
	pool := make(map[rune]int, len(observed))
	for _, r := range observed {
		pool[r]++
	}
	total, matched := 0, 0
	for _, r := range claimed {
		total++
		if pool[r] > 0 {
			pool[r]--
			matched++
		}
	}
	score := math.Round(float64(matched)*100/float64(total)*100) / 100

	res := MatchResult{Score: score, MatchCount: matched}
	switch {
	case score >= cfg.Accept:
		res.Tier = TierAccept
		res.MatchedText = claimed
	case score >= cfg.Partial:
		res.Tier = TierPartial
		res.MatchedText = claimed
	default:
		res.Tier = TierReject
	}
	return res
}
