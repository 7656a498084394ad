// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Foodshare marketplace.
// It implements subcommands for signing in, browsing and requesting donations,
// the volunteer and admin panels and the AI helpers, using the Cobra CLI
// framework with pterm output.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodshare/cli/internal/config"
	"foodshare/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	// a is the application of the running command, set by initApp.
	a *app
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "foodshare",
	Short: "Share surplus food from the terminal",
	Long: `foodshare is a command-line client for the Foodshare marketplace: publish
donations, browse and request what others share, coordinate pickups as a
volunteer and ask the AI helpers about storage, nutrition and recipes.

Example usage:
  foodshare login                      # Sign in with email and password
  foodshare dashboard                  # Available donations and your requests
  foodshare donations create --title "Bread" --quantity 3 --unit loaf
  foodshare requests mine              # Requests you made
  foodshare ai recipe --ingredients "2 potatoes, 1 onion"`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApp,
}

// Execute runs the CLI application and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, pterm.Error.Sprint(logging.Mask(err.Error())))
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/foodshare/config.yaml)")
	pf.String("api-url", "", "backend base URL (default "+config.DefaultAPIURL+")")
	pf.Duration("timeout", 0, "per-request timeout (default "+config.DefaultTimeout.String()+")")
	pf.String("log-level", "", "diagnostic log level: error, warn, info, debug, trace")
	pf.BoolP("verbose", "v", false, "verbose diagnostic output")
	pf.Bool("no-keychain", false, "keep the session token in the file keyring instead of the OS keychain (encrypted with keyring.passphrase; without one only file permissions protect it)")
}

// initApp loads configuration, configures logging and prepares the app for
// the command about to run.
func initApp(cmd *cobra.Command, _ []string) error {
	cfg, used, err := config.Load(config.Options{File: cfgFile, Flags: cmd.Flags()})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel, cfg.Verbose)

	a = newApp(cfg, used, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	return nil
}

// requestContext bounds a whole command, which may span several backend calls
// each limited by the per-request timeout.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 5*time.Minute)
}
