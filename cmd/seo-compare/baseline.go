package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seo-compare/engine/config"
)

var (
	baselineURL   string
	baselineFlags crawlFlags
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Extract and store the baseline site",
	Long:  "Crawl the configured baseline site, score it across the full parameter schema and persist the result for later comparisons.",
	RunE:  runBaseline,
}

func init() {
	baselineCmd.Flags().StringVar(&baselineURL, "url", "", "baseline site URL (overrides BASELINE_URL)")
	baselineFlags.register(baselineCmd)
	rootCmd.AddCommand(baselineCmd)
}

func runBaseline(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, func(cfg *config.Config) {
		baselineFlags.apply(cfg)
		if baselineURL != "" {
			cfg.BaselineURL = baselineURL
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.pipe.ExtractBaseline(ctx, printProgress)
	if err != nil {
		return err
	}
	fmt.Printf("\nBaseline saved to %s\n", a.store.Path())
	fmt.Printf("%s scored %.1f/100 across %d pages\n", res.URL, res.Overall, res.PagesCrawled)
	return nil
}
