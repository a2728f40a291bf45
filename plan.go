package leadgen

import (
	"fmt"
	"strings"
)

// Validate is the caller side check for a campaign request. BuildPlan itself never rejects input.
func (r CampaignRequest) Validate() error {
	if strings.TrimSpace(r.Product) == "" {
		return ErrEmptyProduct
	}
	if strings.TrimSpace(r.Audience) == "" {
		return ErrEmptyAudience
	}
	return nil
}

// Trimmed returns the request with surrounding whitespace removed from every field
func (r CampaignRequest) Trimmed() CampaignRequest {
	return CampaignRequest{
		Product:  strings.TrimSpace(r.Product),
		Audience: strings.TrimSpace(r.Audience),
		Platform: strings.TrimSpace(r.Platform),
	}
}

// BuildPlan renders the campaign templates for req and merges in the analyze service's
// insights. The base steps always keep their relative order; a recommendation goes in front of
// them and content ideas go after them.
func BuildPlan(req CampaignRequest, in Insights) CampaignPlan {
	req = req.Trimmed()

	plan := CampaignPlan{
		Summary:    fmt.Sprintf("Launch a focused %s campaign targeting %s on %s.", req.Product, req.Audience, req.Platform),
		KeyMessage: fmt.Sprintf("Position %s as the must-have solution for %s — emphasize benefits and ease-of-use.", req.Product, req.Audience),
		Channels:   DefaultPlanChannels,
		CTA:        fmt.Sprintf("Try %s now — limited-time offer or demo sign-up.", req.Product),
		Steps:      baseSteps(req),
	}
	if req.Platform != "" {
		plan.Channels = req.Platform
	}

	if in.Kind == InsightsObject {
		if in.HasRecommendation {
			plan.Steps = append([]string{in.Recommendation}, plan.Steps...)
		}
		if in.HasContent {
			plan.Steps = append(plan.Steps, "Content ideas: "+in.Content)
		}
		plan.Metrics = in.Metrics
	}

	if plan.Metrics == "" {
		plan.Metrics = DefaultPlanMetrics
	}

	d("built plan for %q with %d steps", req.Product, len(plan.Steps))
	return plan
}

func baseSteps(req CampaignRequest) []string {
	return []string{
		fmt.Sprintf("Define target segments within %s and build a concise customer persona.", req.Audience),
		"Create 3 variations of ad copy: benefit-focused, social-proof, and urgency-driven.",
		fmt.Sprintf("Design visual assets sized for %s (carousel, short video, and static image).", req.Platform),
		"Set up a landing page with a single clear CTA and tracking parameters.",
		"Run an A/B test for headlines and CTAs for 2 weeks, then iterate.",
		"Allocate budget across awareness and conversion with daily monitoring.",
	}
}
