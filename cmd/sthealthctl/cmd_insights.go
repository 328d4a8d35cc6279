package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

var topLimit int

// topCmd ranks concepts by psychological significance
var topCmd = &cobra.Command{
	Use:   "top",
	Short: "List concepts ranked by psychological significance",
	RunE:  runTop,
}

// profileCmd shows the derived profile and behavior analysis
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the derived psychological profile",
	RunE:  runProfile,
}

// diagnosticsCmd shows the cross-context divergence signals
var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Show attention divergence and engagement spike signals",
	RunE:  runDiagnostics,
}

func runTop(cmd *cobra.Command, args []string) error {
	var resp models.ConceptsResponse
	if err := newClient().get("/insights/concepts?limit="+strconv.Itoa(topLimit), &resp); err != nil {
		return err
	}
	if len(resp.Concepts) == 0 {
		fmt.Println("No concepts scored yet.")
		return nil
	}

	fmt.Printf("%-30s %7s %7s %7s %7s %7s\n", "CONCEPT", "OVERALL", "ATTN", "EMOT", "CONS", "AVOID")
	for _, s := range resp.Concepts {
		fmt.Printf("%-30s %7.3f %7.3f %7.3f %7.3f %7.3f\n",
			s.Concept, s.OverallSignificance, s.AttentionScore,
			s.EmotionalIntensity, s.ConsistencyScore, s.AvoidanceScore)
	}
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	var resp models.ProfileResponse
	if err := newClient().get("/insights/profile", &resp); err != nil {
		return err
	}

	p, b := resp.Profile, resp.Behavior
	fmt.Printf("Narrative chapter: %s\n", p.NarrativeChapter)
	if len(p.ReflectionPatterns) > 0 {
		keys := make([]string, 0, len(p.ReflectionPatterns))
		for k := range p.ReflectionPatterns {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if p.ReflectionPatterns[keys[i]] != p.ReflectionPatterns[keys[j]] {
				return p.ReflectionPatterns[keys[i]] > p.ReflectionPatterns[keys[j]]
			}
			return keys[i] < keys[j]
		})
		fmt.Println("Reflection patterns:")
		for _, k := range keys {
			fmt.Printf("  %-30s %.3f\n", k, p.ReflectionPatterns[k])
		}
	}
	printList("Growth opportunities", p.GrowthOpportunities)
	printList("Strengths", p.Strengths)
	printList("Avoidance areas", p.AvoidanceAreas)
	if len(p.OptimalReceptivityHours) > 0 {
		hours := make([]string, len(p.OptimalReceptivityHours))
		for i, h := range p.OptimalReceptivityHours {
			hours[i] = fmt.Sprintf("%02d:00", h)
		}
		fmt.Printf("Optimal hours (UTC): %s\n", strings.Join(hours, ", "))
	}

	fmt.Println()
	fmt.Printf("Emotional state:  %s\n", b.EmotionalState)
	fmt.Printf("Sentiment:        %+.2f\n", b.LastReflectionSentiment)
	fmt.Printf("Engagement depth: %.2f\n", b.EngagementDepth)
	fmt.Printf("Receptivity:      %.2f\n", b.ReceptivityLevel)
	fmt.Printf("Time in app:      %.1f min\n", b.TimeInAppMinutes)
	return nil
}

func runDiagnostics(cmd *cobra.Command, args []string) error {
	var resp models.DiagnosticsResponse
	if err := newClient().get("/insights/diagnostics", &resp); err != nil {
		return err
	}
	fmt.Printf("Attention divergence:   %t\n", resp.AttentionDivergence)
	fmt.Printf("Contradictory evidence: %t\n", resp.ContradictoryEvidence)
	fmt.Printf("Engagement spike:       %t\n", resp.EngagementSpike)
	return nil
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, it := range items {
		fmt.Printf("  %s\n", it)
	}
}

func init() {
	topCmd.Flags().IntVar(&topLimit, "limit", 10, "maximum number of concepts to list")

	rootCmd.AddCommand(topCmd, profileCmd, diagnosticsCmd)
}
