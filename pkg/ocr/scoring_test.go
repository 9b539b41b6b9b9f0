package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	cfg := DefaultConfig().Scoring
	tests := []struct {
		name      string
		observed  string
		claimed   string
		wantCount int
		wantScore float64
		wantTier  Tier
		wantText  string
	}{
		{name: "empty claim", observed: "123", claimed: "", wantScore: 0, wantTier: TierReject},
		{name: "multiset not substring", observed: "1123", claimed: "123", wantCount: 3, wantScore: 100, wantTier: TierAccept, wantText: "123"},
		{name: "no double counting", observed: "11", claimed: "111", wantCount: 2, wantScore: 66.67, wantTier: TierPartial, wantText: "111"},
		{name: "partial boundary inclusive", observed: "12", claimed: "1234", wantCount: 2, wantScore: 50, wantTier: TierPartial, wantText: "1234"},
		{name: "below partial", observed: "1", claimed: "1234", wantCount: 1, wantScore: 25, wantTier: TierReject},
		{name: "leading zero dropped", observed: "4521", claimed: "04521", wantCount: 4, wantScore: 80, wantTier: TierPartial, wantText: "04521"},
		{name: "reordered digits", observed: "21", claimed: "12", wantCount: 2, wantScore: 100, wantTier: TierAccept, wantText: "12"},
		{name: "nothing observed", observed: "", claimed: "987", wantCount: 0, wantScore: 0, wantTier: TierReject},
		{name: "non-digit claim chars never match", observed: "12", claimed: "1.2", wantCount: 2, wantScore: 66.67, wantTier: TierPartial, wantText: "1.2"},
		{name: "accept boundary", observed: "1234567", claimed: "12345670", wantCount: 7, wantScore: 87.5, wantTier: TierAccept, wantText: "12345670"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.observed, tt.claimed, cfg)
			assert.Equal(t, tt.wantCount, got.MatchCount)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.Equal(t, tt.wantText, got.MatchedText)
		})
	}
}

func TestMatchScoreBounds(t *testing.T) {
	cfg := DefaultConfig().Scoring
	cases := [][2]string{
		{"", "0"}, {"0000", "0"}, {"9", "99999999"}, {"1234567890", "0987654321"}, {"555", "5"},
	}
	for _, c := range cases {
		got := Match(c[0], c[1], cfg)
		if got.Score < 0 || got.Score > 100 {
			t.Fatalf("score out of range for observed=%q claimed=%q: %v", c[0], c[1], got.Score)
		}
	}
}

func TestMatchCustomThresholds(t *testing.T) {
	cfg := ScoringConfig{Accept: 100, Partial: 80}
	assert.Equal(t, TierPartial, Match("4521", "04521", cfg).Tier)
	assert.Equal(t, TierAccept, Match("04521", "04521", cfg).Tier)
	assert.Equal(t, TierReject, Match("45", "04521", cfg).Tier)
}

func TestTierStatus(t *testing.T) {
	assert.Equal(t, "GREEN", TierAccept.Status())
	assert.Equal(t, "YELLOW", TierPartial.Status())
	assert.Equal(t, "RED", TierReject.Status())
}
