package leadgen

import (
	"fmt"
	"strings"
)

const (
	maxScore      = 10
	fallbackScore = 5
)

type titleRule struct {
	keywords []string
	score    int
}

// titleRules are checked in order and the first match wins, so a title such as
// "VP of Engineering, Acting CEO" scores as a CEO.
var titleRules = []titleRule{
	{keywords: []string{"ceo", "founder"}, score: 9},
	{keywords: []string{"cto", "cmo"}, score: 8},
	{keywords: []string{"vp", "director"}, score: 7},
	{keywords: []string{"manager"}, score: 6},
}

// Score returns the lead quality score in [0,10].
func Score(lead Lead) int {
	score := titleScore(lead.Title)
	if lead.AnnualRevenue > HighRevenueThreshold {
		score = min(maxScore, score+1)
	}
	return score
}

func titleScore(title string) int {
	title = strings.ToLower(title)
	for _, rule := range titleRules {
		for _, kw := range rule.keywords {
			if strings.Contains(title, kw) {
				return rule.score
			}
		}
	}
	return fallbackScore
}

// ScoreAll scores every lead; out[i] is the score of leads[i].
func ScoreAll(leads []Lead) []int {
	out := make([]int, len(leads))
	for i, l := range leads {
		out[i] = Score(l)
	}
	return out
}

// ScoreBoard is ScoreAll paired back to the lead names for display.
func ScoreBoard(leads []Lead) []ScoreRow {
	rows := make([]ScoreRow, 0, len(leads))
	for i, score := range ScoreAll(leads) {
		l := leads[i]
		rows = append(rows, ScoreRow{
			Name:    l.Name,
			Company: l.Company,
			Score:   score,
			Label:   fmt.Sprintf("%s (%d/%d)", l.Name, score, maxScore),
			Band:    ScoreBand(score),
		})
	}
	d("scored %d leads", len(rows))
	return rows
}

func ScoreBand(score int) Band {
	switch {
	case score >= 8:
		return BandHigh
	case score >= 6:
		return BandMedium
	}
	return BandLow
}
