package leadgen

import (
	"fmt"
	"strings"
)

type TierScore struct {
	Lead       Lead   `json:"lead"`
	Score      string `json:"score"`
	ScoreValue int    `json:"score_value"`
}

type LeadPitch struct {
	Lead       Lead     `json:"lead"`
	Pitch      string   `json:"pitch"`
	Variations []string `json:"variations"`
}

type Campaign struct {
	Goal          string   `json:"goal"`
	Channels      []string `json:"channels"`
	CadenceDays   []int    `json:"cadence_days"`
	EmailSubjects []string `json:"email_subjects"`
	Steps         []string `json:"steps"`
}

type CampaignInsights struct {
	LeadsCount int      `json:"leads_count"`
	Campaign   Campaign `json:"campaign"`
}

type MarketInsights struct {
	Industry    string        `json:"industry"`
	Summary     string        `json:"summary"`
	TopTrends   []string      `json:"top_trends"`
	Competitors []interface{} `json:"competitors"`
}

type BusinessInsights struct {
	TotalLeads     int    `json:"total_leads"`
	HighValueLeads int    `json:"high_value_leads"`
	Recommendation string `json:"recommendation"`
	MarketNotes    string `json:"market_notes,omitempty"`
}

type LeadInsight struct {
	Lead    Lead     `json:"lead"`
	Score   string   `json:"score"`
	Pitch   string   `json:"pitch"`
	Tactics []string `json:"tactics"`
	Message string   `json:"message"`
}

// Analyze answers an analyze request with the offline heuristics. Unknown tasks get the
// per lead insights.
func Analyze(req AnalyzeRequest) (interface{}, error) {
	task := strings.ToLower(strings.TrimSpace(req.Task))
	d("analyze task=%q leads=%d", task, len(req.Leads))

	leads := make([]Lead, 0, len(req.Leads))
	for _, l := range req.Leads {
		n, err := l.Normalize()
		if err != nil {
			return nil, fmt.Errorf("lead %d: %w", len(leads), err)
		}
		leads = append(leads, n)
	}

	switch task {
	case TaskScore:
		return TierScores(leads), nil
	case TaskPitch:
		out := make([]LeadPitch, 0, len(leads))
		for _, l := range leads {
			out = append(out, CreatePitch(l))
		}
		return out, nil
	case TaskCampaign:
		return GenerateCampaign(leads, paramText(req.Params, "goal")), nil
	case TaskMarket:
		return AnalyzeMarket(req.Params), nil
	case TaskBusiness:
		return AnalyzeBusiness(leads, req.Params["market"]), nil
	}
	return LeadInsights(leads), nil
}

// RevenueTier buckets annual revenue into High/Medium/Low with the matching base score.
func RevenueTier(revenue int64) (string, int) {
	switch {
	case revenue > HighRevenueThreshold:
		return "High", 9
	case revenue > mediumRevenueThreshold:
		return "Medium", 6
	}
	return "Low", 1
}

var decisionMakerKeywords = []string{"ceo", "cmo", "founder", "vp"}

// TierScores is the revenue based scoring of the analyze service, a coarser sibling of Score.
func TierScores(leads []Lead) []TierScore {
	out := make([]TierScore, 0, len(leads))
	for _, l := range leads {
		tier, value := RevenueTier(l.AnnualRevenue)
		title := strings.ToLower(l.Title)
		for _, kw := range decisionMakerKeywords {
			if strings.Contains(title, kw) {
				value++
				break
			}
		}
		out = append(out, TierScore{Lead: l, Score: tier, ScoreValue: value})
	}
	return out
}

func CreatePitch(l Lead) LeadPitch {
	name := firstNonEmpty(l.Name, l.Company, "Customer")
	pitch := fmt.Sprintf("Hi %s, we help companies like yours increase revenue while reducing acquisition costs. Would you be open to a 10-minute call?", name)
	return LeadPitch{
		Lead:  l,
		Pitch: pitch,
		Variations: []string{
			pitch,
			fmt.Sprintf("%s, quick note — we've helped peers in your industry increase pipeline by 30%% in 6 months. Interested in a short chat?", name),
			fmt.Sprintf("Hello %s, can I share a short case study showing measurable ROI we delivered for similar companies?", name),
		},
	}
}

func GenerateCampaign(leads []Lead, goal string) CampaignInsights {
	if goal == "" {
		goal = "pipeline generation"
	}
	company := "companies"
	if len(leads) > 0 {
		company = leads[0].Company
	}
	return CampaignInsights{
		LeadsCount: len(leads),
		Campaign: Campaign{
			Goal:        goal,
			Channels:    []string{"email", "linkedin", "phone"},
			CadenceDays: []int{0, 3, 10},
			EmailSubjects: []string{
				fmt.Sprintf("How %s cut costs by 20%%", company),
				"Quick case study: pipeline lift in 90 days",
			},
			Steps: []string{
				"Send short case-study email (day 0)",
				"LinkedIn connection + message (day 3)",
				"Follow-up email with calendar link (day 10)",
			},
		},
	}
}

func AnalyzeMarket(params map[string]interface{}) MarketInsights {
	industry := firstNonEmpty(paramText(params, "industry"), "general")
	competitors, _ := params["competitors"].([]interface{})
	if competitors == nil {
		competitors = []interface{}{}
	}
	return MarketInsights{
		Industry:    industry,
		Summary:     fmt.Sprintf("Market summary for %s: %d competitors identified.", industry, len(competitors)),
		TopTrends:   []string{"pricing pressure", "digital transformation", "shorter buying cycles"},
		Competitors: competitors,
	}
}

func AnalyzeBusiness(leads []Lead, market interface{}) BusinessInsights {
	high := 0
	for _, l := range leads {
		if l.AnnualRevenue > HighRevenueThreshold {
			high++
		}
	}
	out := BusinessInsights{
		TotalLeads:     len(leads),
		HighValueLeads: high,
		Recommendation: "Prioritize high-value accounts for ABM and craft industry-specific case studies.",
	}
	if m, ok := market.(map[string]interface{}); ok {
		out.MarketNotes = paramText(m, "summary")
	}
	return out
}

func LeadInsights(leads []Lead) []LeadInsight {
	out := make([]LeadInsight, 0, len(leads))
	for _, l := range leads {
		tier, _ := RevenueTier(l.AnnualRevenue)
		out = append(out, LeadInsight{
			Lead:  l,
			Score: tier,
			Pitch: fmt.Sprintf("For %s, emphasize ROI and cost savings over 12 months.", firstNonEmpty(l.Company, l.Name)),
			Tactics: []string{
				"Email with a short case study and specific ROI numbers",
				"LinkedIn outreach referencing a mutual connection or recent news",
			},
			Message: fmt.Sprintf("Hi %s, we helped companies like %s reduce costs by 20%% while increasing pipeline. Can we share a 10-minute case study?",
				firstNonEmpty(l.Name, "there"), firstNonEmpty(l.Company, "yours")),
		})
	}
	return out
}

func paramText(params map[string]interface{}, key string) string {
	if params == nil {
		return ""
	}
	return strings.TrimSpace(CoerceText(params[key]))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
