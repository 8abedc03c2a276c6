package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seo-compare/engine/compare"
	"github.com/seo-compare/engine/pipeline"
)

var compareFlags crawlFlags

var compareCmd = &cobra.Command{
	Use:   "compare <url>",
	Short: "Compare a competitor site against the stored baseline",
	Long:  "Crawl and score a competitor site, then print its gaps against the stored baseline along with the AI narrative.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompare,
}

func init() {
	compareFlags.register(compareCmd)
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	compURL, err := pipeline.ValidateURL(args[0])
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, compareFlags.apply)
	if err != nil {
		return err
	}
	defer a.close()

	cmp, err := a.pipe.Compare(ctx, compURL, printProgress)
	if err != nil {
		return err
	}
	printComparison(cmp)
	return nil
}

func printComparison(cmp *compare.Result) {
	fmt.Printf("\nBaseline    %s  %.1f/100\n", cmp.Baseline.URL, cmp.Baseline.Overall)
	fmt.Printf("Competitor  %s  %.1f/100\n", cmp.Competitor.URL, cmp.Competitor.Overall)
	fmt.Printf("Gaps: %d   Technical debt: %s\n\n", cmp.Gaps, cmp.Competitor.TechDebt)

	keys := make([]string, 0, len(cmp.Baseline.Categories))
	for k := range cmp.Baseline.Categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-24s %5.1f  vs %5.1f\n", k, cmp.Baseline.Categories[k], cmp.Competitor.Categories[k])
	}

	if cmp.AIAnalysis != "" {
		fmt.Printf("\n%s\n", cmp.AIAnalysis)
	}
}
