package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
	"github.com/osr-alliance/backend-lib-leadgen/analyzer"
	"github.com/osr-alliance/backend-lib-leadgen/store"
)

var (
	planProduct  string
	planAudience string
	planPlatform string
	analyzerURL  string
	analyzerKey  string
	jsonOutput   bool
	healthURL    string
)

var scoreCmd = &cobra.Command{
	Use:   "score <leads.yaml>",
	Short: "Score the leads of a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build a campaign plan",
	RunE:  runPlan,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that an analyze service is up",
	RunE:  runHealth,
}

func init() {
	planCmd.Flags().StringVar(&planProduct, "product", "", "product to promote (required)")
	planCmd.Flags().StringVar(&planAudience, "audience", "", "target audience (required)")
	planCmd.Flags().StringVar(&planPlatform, "platform", "", "ad platform, e.g. Instagram")
	planCmd.Flags().StringVar(&analyzerURL, "analyzer", "", "base URL of an analyze service; local heuristics when empty")
	planCmd.Flags().StringVar(&analyzerKey, "api-key", "", "X-API-Key for the analyze service")

	for _, c := range []*cobra.Command{scoreCmd, planCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	}

	healthCmd.Flags().StringVar(&healthURL, "url", "http://localhost:8000", "base URL of the service")
}

func runScore(cmd *cobra.Command, args []string) error {
	leads, err := store.LoadSeedLeads(args[0])
	if err != nil {
		return err
	}
	if len(leads) == 0 {
		return leadgen.ErrNoLeads
	}

	rows := leadgen.ScoreBoard(leads)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), rows)
	}
	return renderScores(cmd.OutOrStdout(), rows)
}

func runPlan(cmd *cobra.Command, args []string) error {
	req := leadgen.CampaignRequest{
		Product:  planProduct,
		Audience: planAudience,
		Platform: planPlatform,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	var an analyzer.Analyzer = analyzer.Local{}
	if analyzerURL != "" {
		an = analyzer.NewClient(analyzerURL, analyzerKey)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	in, err := analyzer.Campaign(ctx, an, req)
	if err != nil {
		return fmt.Errorf("campaign insights: %w", err)
	}

	plan := leadgen.BuildPlan(req, in)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), plan)
	}
	return renderPlan(cmd.OutOrStdout(), req.Trimmed(), plan)
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
	defer cancel()

	if err := analyzer.NewClient(healthURL, "").Health(ctx); err != nil {
		return fmt.Errorf("cannot reach %s: %w", healthURL, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is up\n", healthURL)
	return nil
}

func renderScores(w io.Writer, rows []leadgen.ScoreRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOMPANY\tSCORE\tBAND")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d/10\t%s\n", r.Name, r.Company, r.Score, r.Band)
	}
	return tw.Flush()
}

func renderPlan(w io.Writer, req leadgen.CampaignRequest, plan leadgen.CampaignPlan) error {
	b := &strings.Builder{}
	fmt.Fprintln(b, "Campaign Plan")
	fmt.Fprintf(b, "Product: %s\n", req.Product)
	fmt.Fprintf(b, "Target Audience: %s\n", req.Audience)
	if req.Platform != "" {
		fmt.Fprintf(b, "Platform: %s\n", req.Platform)
	}
	fmt.Fprintln(b)
	fmt.Fprintf(b, "Summary: %s\n", plan.Summary)
	fmt.Fprintf(b, "Key Message: %s\n", plan.KeyMessage)
	fmt.Fprintf(b, "Channels: %s\n", plan.Channels)
	fmt.Fprintf(b, "CTA: %s\n", plan.CTA)
	fmt.Fprintln(b, "Action Plan:")
	for i, step := range plan.Steps {
		fmt.Fprintf(b, "  %d. %s\n", i+1, step)
	}
	fmt.Fprintf(b, "KPIs: %s\n", plan.Metrics)

	_, err := io.WriteString(w, b.String())
	return err
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
