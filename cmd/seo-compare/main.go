// Package main is the entry point for the SEO comparison engine.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "seo-compare",
	Short: "SEO comparison engine",
	Long:  "seo-compare crawls a competitor site, scores it against a stored baseline site across the full SEO parameter schema and serves the comparison over HTTP.",
}

func loadEnv() {
	// Prefer .env.development for local runs, fall back to .env.
	if err := godotenv.Load(".env.development"); err != nil {
		_ = godotenv.Load()
	}
}

func main() {
	loadEnv()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
