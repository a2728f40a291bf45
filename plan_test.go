package leadgen

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlanAcmeShoes(t *testing.T) {
	plan := BuildPlan(CampaignRequest{Product: "Acme Shoes", Audience: "runners", Platform: "Instagram"}, NoInsights())

	assert.Equal(t, "Launch a focused Acme Shoes campaign targeting runners on Instagram.", plan.Summary)
	assert.Equal(t, "Position Acme Shoes as the must-have solution for runners — emphasize benefits and ease-of-use.", plan.KeyMessage)
	assert.Equal(t, "Instagram", plan.Channels)
	assert.Equal(t, "Try Acme Shoes now — limited-time offer or demo sign-up.", plan.CTA)
	assert.Equal(t, DefaultPlanMetrics, plan.Metrics)

	require.Len(t, plan.Steps, 6)
	assert.Equal(t, "Define target segments within runners and build a concise customer persona.", plan.Steps[0])
	assert.Equal(t, "Design visual assets sized for Instagram (carousel, short video, and static image).", plan.Steps[2])
	assert.Equal(t, "Allocate budget across awareness and conversion with daily monitoring.", plan.Steps[5])
}

func TestBuildPlanEmptyPlatform(t *testing.T) {
	plan := BuildPlan(CampaignRequest{Product: "Acme Shoes", Audience: "runners"}, NoInsights())
	assert.Equal(t, "Social ads, Email, Organic posts", plan.Channels)
	assert.Equal(t, "Launch a focused Acme Shoes campaign targeting runners on .", plan.Summary)
}

func TestBuildPlanTrimsInput(t *testing.T) {
	plan := BuildPlan(CampaignRequest{Product: "  Acme Shoes ", Audience: " runners", Platform: "   "}, NoInsights())
	assert.Equal(t, "Try Acme Shoes now — limited-time offer or demo sign-up.", plan.CTA)
	assert.Equal(t, DefaultPlanChannels, plan.Channels)
}

func TestBuildPlanMergesInsights(t *testing.T) {
	in := ParseInsights(json.RawMessage(`{"recommendation":"Use video","content":["meme","poll"],"metrics":["CTR","ROAS"]}`))
	plan := BuildPlan(CampaignRequest{Product: "Acme Shoes", Audience: "runners", Platform: "TikTok"}, in)

	require.Len(t, plan.Steps, 8)
	assert.Equal(t, "Use video", plan.Steps[0])
	assert.True(t, strings.HasPrefix(plan.Steps[len(plan.Steps)-1], "Content ideas: meme, poll"))
	assert.Equal(t, "CTR, ROAS", plan.Metrics)

	// the base steps keep their order between the merged ones
	base := BuildPlan(CampaignRequest{Product: "Acme Shoes", Audience: "runners", Platform: "TikTok"}, NoInsights())
	assert.Equal(t, base.Steps, plan.Steps[1:7])
}

func TestBuildPlanPartialInsights(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		steps   int
		first   string
		last    string
		metrics string
	}{
		{
			name:    "recommendation only",
			raw:     `{"recommendation":"Lead with testimonials"}`,
			steps:   7,
			first:   "Lead with testimonials",
			last:    "Allocate budget across awareness and conversion with daily monitoring.",
			metrics: DefaultPlanMetrics,
		},
		{
			name:    "content as text",
			raw:     `{"content":"behind the scenes"}`,
			steps:   7,
			first:   "Define target segments within runners and build a concise customer persona.",
			last:    "Content ideas: behind the scenes",
			metrics: DefaultPlanMetrics,
		},
		{
			name:    "metrics as text",
			raw:     `{"metrics":"ROAS"}`,
			steps:   6,
			first:   "Define target segments within runners and build a concise customer persona.",
			last:    "Allocate budget across awareness and conversion with daily monitoring.",
			metrics: "ROAS",
		},
		{
			name:    "empty and null fields are skipped",
			raw:     `{"recommendation":"","content":null,"metrics":false}`,
			steps:   6,
			first:   "Define target segments within runners and build a concise customer persona.",
			last:    "Allocate budget across awareness and conversion with daily monitoring.",
			metrics: DefaultPlanMetrics,
		},
		{
			name:    "non text values are coerced",
			raw:     `{"recommendation":42,"content":[1,true,"x"],"metrics":{"primary":"CTR"}}`,
			steps:   8,
			first:   "42",
			last:    "Content ideas: 1, true, x",
			metrics: `{"primary":"CTR"}`,
		},
		{
			name:    "empty content list still adds a step",
			raw:     `{"content":[]}`,
			steps:   7,
			first:   "Define target segments within runners and build a concise customer persona.",
			last:    "Content ideas: ",
			metrics: DefaultPlanMetrics,
		},
		{
			name:    "content list of blanks",
			raw:     `{"content":[""]}`,
			steps:   7,
			first:   "Define target segments within runners and build a concise customer persona.",
			last:    "Content ideas: ",
			metrics: DefaultPlanMetrics,
		},
		{
			name:    "empty metrics list keeps the default",
			raw:     `{"metrics":[]}`,
			steps:   6,
			first:   "Define target segments within runners and build a concise customer persona.",
			last:    "Allocate budget across awareness and conversion with daily monitoring.",
			metrics: DefaultPlanMetrics,
		},
		{
			name:    "plain text is not merged",
			raw:     `"just run more ads"`,
			steps:   6,
			first:   "Define target segments within runners and build a concise customer persona.",
			last:    "Allocate budget across awareness and conversion with daily monitoring.",
			metrics: DefaultPlanMetrics,
		},
		{
			name:    "a list is not merged",
			raw:     `[{"recommendation":"ignored"}]`,
			steps:   6,
			first:   "Define target segments within runners and build a concise customer persona.",
			last:    "Allocate budget across awareness and conversion with daily monitoring.",
			metrics: DefaultPlanMetrics,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := BuildPlan(CampaignRequest{Product: "Acme Shoes", Audience: "runners"}, ParseInsights(json.RawMessage(tt.raw)))
			require.Len(t, plan.Steps, tt.steps)
			assert.Equal(t, tt.first, plan.Steps[0])
			assert.Equal(t, tt.last, plan.Steps[len(plan.Steps)-1])
			assert.Equal(t, tt.metrics, plan.Metrics)
		})
	}
}

func TestBuildPlanIsIdempotent(t *testing.T) {
	req := CampaignRequest{Product: "Acme Shoes", Audience: "runners", Platform: "Instagram"}
	in := ObjectInsights("Use video", "meme, poll", "CTR")

	first := BuildPlan(req, in)
	second := BuildPlan(req, in)
	assert.Equal(t, first, second)

	// mutating one result must not leak into the next
	first.Steps[0] = "changed"
	assert.Equal(t, "Use video", BuildPlan(req, in).Steps[0])
}

func TestCampaignRequestValidate(t *testing.T) {
	assert.NoError(t, CampaignRequest{Product: "Acme", Audience: "runners"}.Validate())
	assert.ErrorIs(t, CampaignRequest{Product: "  ", Audience: "runners"}.Validate(), ErrEmptyProduct)
	assert.ErrorIs(t, CampaignRequest{Product: "Acme", Audience: "\t"}.Validate(), ErrEmptyAudience)
}
