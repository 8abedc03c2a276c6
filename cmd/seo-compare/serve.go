package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/seo-compare/engine/config"
	"github.com/seo-compare/engine/server"
)

var (
	servePort  string
	serveFlags crawlFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the comparison API server",
	Long:  "Start the HTTP server that exposes baseline extraction, competitor comparison and the live progress stream.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides PORT)")
	serveFlags.register(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func setupGinMode() {
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupGinMode()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, func(cfg *config.Config) {
		serveFlags.apply(cfg)
		if servePort != "" {
			cfg.Port = servePort
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	return server.New(a.cfg, a.pipe, a.store, a.usage).Run(ctx)
}
