package leadgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyName       = errors.New("lead name is required")
	ErrEmptyProduct    = errors.New("product is required")
	ErrEmptyAudience   = errors.New("target audience is required")
	ErrIndexOutOfRange = errors.New("lead index out of range")
	ErrUnknownListKind = errors.New("unknown lead list")
	ErrNoLeads         = errors.New("at least one lead is required")
)

const (
	DefaultLeadTitle   = "Business Owner"
	defaultEmailDomain = "example.com"

	// revenue above this earns the scoring bonus and the "High" tier
	HighRevenueThreshold   int64 = 1_000_000
	mediumRevenueThreshold int64 = 100_000

	DefaultPlanMetrics  = "Impressions, CTR, Conversion Rate, CPA"
	DefaultPlanChannels = "Social ads, Email, Organic posts"
)

// Lead is a prospect record. Use NewLead to build one so the defaults are applied.
type Lead struct {
	Name          string `json:"name" yaml:"name"`
	Company       string `json:"company" yaml:"company"`
	Title         string `json:"title" yaml:"title"`
	Email         string `json:"email" yaml:"email"`
	AnnualRevenue int64  `json:"annual_revenue" yaml:"annual_revenue"`
}

// ListKind names one of the three independent lead lists of a session
type ListKind string

const (
	ListCampaign ListKind = "campaign"
	ListPitch    ListKind = "pitch"
	ListScore    ListKind = "score"
)

// ListKinds is every list a session owns, in display order.
var ListKinds = []ListKind{ListCampaign, ListPitch, ListScore}

func ParseListKind(s string) (ListKind, error) {
	k := ListKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case ListCampaign, ListPitch, ListScore:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownListKind, s)
}

type CampaignRequest struct {
	Product  string `json:"product"`
	Audience string `json:"audience"`
	Platform string `json:"platform"`
}

type CampaignPlan struct {
	Summary    string   `json:"summary"`
	KeyMessage string   `json:"keyMessage"`
	Channels   string   `json:"channels"`
	CTA        string   `json:"cta"`
	Steps      []string `json:"steps"`
	Metrics    string   `json:"metrics"`
}

// Band is the display bucket of a lead score
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// ScoreRow pairs a score with the lead it was computed for.
type ScoreRow struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Score   int    `json:"score"`
	Label   string `json:"label"`
	Band    Band   `json:"band"`
}

// PitchCard is one rendered pitch, paired back to its lead by index.
type PitchCard struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Title   string `json:"title"`
	Revenue string `json:"revenue"`
	Pitch   string `json:"pitch"`
}

// AnalyzeRequest is the body accepted by the analyze endpoint. Campaign requests carry
// product/audience/platform, lead based tasks carry leads.
type AnalyzeRequest struct {
	Task     string                 `json:"task"`
	Product  string                 `json:"product"`
	Audience string                 `json:"audience"`
	Platform string                 `json:"platform"`
	Leads    []Lead                 `json:"leads,omitempty"`
	Params   map[string]interface{} `json:"params,omitempty"`
}

type campaignBody struct {
	Product  string `json:"product"`
	Audience string `json:"audience"`
	Platform string `json:"platform"`
	Task     string `json:"task"`
}

type leadsBody struct {
	Leads  []Lead                 `json:"leads"`
	Task   string                 `json:"task"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// MarshalJSON writes the two wire shapes of the analyze endpoint: campaign requests always send
// product, audience and platform (empty or not), every other task sends the leads list.
func (r AnalyzeRequest) MarshalJSON() ([]byte, error) {
	if r.Task == TaskCampaign {
		return json.Marshal(campaignBody{
			Product:  r.Product,
			Audience: r.Audience,
			Platform: r.Platform,
			Task:     r.Task,
		})
	}
	leads := r.Leads
	if leads == nil {
		leads = []Lead{}
	}
	return json.Marshal(leadsBody{Leads: leads, Task: r.Task, Params: r.Params})
}

const (
	TaskScore    = "score"
	TaskPitch    = "pitch"
	TaskCampaign = "campaign"
	TaskMarket   = "market"
	TaskBusiness = "business"
	TaskInsights = "insights"
)
