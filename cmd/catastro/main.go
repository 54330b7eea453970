// Command catastro splits large cadastral XML extracts into size-bounded
// partitions and exports property records from XML files or ZIP archives to
// a flat table (CSV, Postgres, or SQLite).
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"catastro/internal/config"
	"catastro/internal/metrics"
	"catastro/internal/metrics/prompush"
)

var (
	flagQuiet          bool
	flagConfig         string
	flagMetricsBackend string
	flagPushGatewayURL string
)

var rootCmd = &cobra.Command{
	Use:   "catastro",
	Short: "Split and export cadastral XML extracts",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupMetrics(cmd.Name())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	},
}

// setupMetrics decides the metrics backend: flag → env → default (none).
func setupMetrics(command string) {
	backendName := flagMetricsBackend
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		// Decide Pushgateway URL: flag → env → default.
		gwURL := flagPushGatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend("catastro_"+command, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return
		}
		if !flagQuiet {
			log.Printf("metrics: url=%v, backend=%v", gwURL, backendName)
		}
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

// loadJob reads the optional job file and applies defaults. With no --config
// the zero Job plus defaults is the starting point and flags fill the rest.
func loadJob() (config.Job, error) {
	var job config.Job
	if flagConfig != "" {
		var err error
		job, err = config.Load(flagConfig)
		if err != nil {
			return job, err
		}
	}
	job.ApplyDefaults()
	return job, nil
}

// reportIssues prints validation findings and returns an error when any of
// them blocks execution.
func reportIssues(issues []config.Issue) error {
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if errs := config.Errors(issues); len(errs) > 0 {
		return fmt.Errorf("configuration is invalid (%d errors)", len(errs))
	}
	return nil
}

func main() {
	log.SetFlags(0)

	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "job config JSON path (flags override file values)")
	rootCmd.PersistentFlags().StringVar(&flagMetricsBackend, "metrics-backend", "", "metrics backend to use (pushgateway, none)")
	rootCmd.PersistentFlags().StringVar(&flagPushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")

	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(exportCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
