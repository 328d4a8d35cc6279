// Package main implements sthealthctl, the admin client for a running
// sthealth server. It records engagement events, inspects significance
// scores and the psychological profile, and drives the nudge scheduler
// by hand.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	serverAddr string
	apiKey     string
	timeout    time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sthealthctl",
	Short: "Admin client for the sthealth engagement service",
	Long: `sthealthctl talks to a running sthealth server over HTTP.

Record engagement events, list significance scores, inspect the derived
profile, and trigger or resolve nudges without a client app attached.`,
	SilenceUsage: true,
}

func init() {
	// Load .env before reading flag defaults from the environment.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", envOr("STHEALTH_ADDR", "http://localhost:8630"), "base URL of the sthealth server")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("API_KEY"), "bearer token for authenticated routes")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
