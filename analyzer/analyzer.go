// Package analyzer talks to the analyze service that backs campaign plans and pitches.
package analyzer

import (
	"context"
	"encoding/json"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
)

// Analyzer returns the insights for one analyze request, already unwrapped from the
// `{"insights": ...}` envelope.
type Analyzer interface {
	Analyze(ctx context.Context, req leadgen.AnalyzeRequest) (json.RawMessage, error)
}

// Local answers with the built in heuristics; used when no remote service is configured.
type Local struct{}

func (Local) Analyze(ctx context.Context, req leadgen.AnalyzeRequest) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := leadgen.Analyze(req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// Campaign is a helper that sends a campaign request and parses the answer for the planner.
func Campaign(ctx context.Context, a Analyzer, req leadgen.CampaignRequest) (leadgen.Insights, error) {
	raw, err := a.Analyze(ctx, leadgen.AnalyzeRequest{
		Task:     leadgen.TaskCampaign,
		Product:  req.Product,
		Audience: req.Audience,
		Platform: req.Platform,
	})
	if err != nil {
		return leadgen.NoInsights(), err
	}
	return leadgen.ParseInsights(raw), nil
}

// Pitches asks for one pitch per lead and pairs the answer back to the leads by index.
func Pitches(ctx context.Context, a Analyzer, leads []leadgen.Lead) ([]leadgen.PitchCard, error) {
	if len(leads) == 0 {
		return nil, leadgen.ErrNoLeads
	}
	raw, err := a.Analyze(ctx, leadgen.AnalyzeRequest{
		Task:  leadgen.TaskPitch,
		Leads: leads,
	})
	if err != nil {
		return nil, err
	}
	return leadgen.PairPitches(leads, raw), nil
}
