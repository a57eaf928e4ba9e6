// Package cmd provides the CLI commands for deploybump.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/cameronsjo/deploybump/internal/config"
	"github.com/cameronsjo/deploybump/internal/ui"
)

const version = "0.1.0"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "deploybump",
	Short: "Propagate released versions into GitOps deployment repositories",
	Long: `deploybump - release automation for GitOps deployment repositories

Run from a CI pipeline after a release. Reads the release from the
environment, bumps the component's version in the deployment repository
manifest and pushes the change.

GLOBAL FLAGS
  --env-file <file>     Read inputs from a dotenv file; repeatable

COMMANDS
  trigger               Bump the released version in the deployment repository
    --dry-run, -n       Report the change without committing or pushing
  maven                 Assemble and run the Maven wrapper command
    --dir, -C <dir>     Project directory holding mvnw
  doctor                Check binaries and environment inputs
  update                Update deploybump to the latest release

ENVIRONMENT
  DEPLOYMENT_TYPE, TRIGGER_DEPLOYMENT, REPOSITORY_NAME, RELEASED_VERSION,
  BRANCH_NAME, GITHUB_APP_OWNER, GH_TOKEN
  LOG_LEVEL (debug|info|warn|error), LOG_FORMAT (text|json)`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

// setupLogging stores a logger configured from LOG_LEVEL and LOG_FORMAT in
// the command context.
func setupLogging(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	l, err := lookuper()
	if err != nil {
		return err
	}

	cfg, err := config.LoadLogging(ctx, l)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cmd.SetContext(clog.WithLogger(ctx, logger))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Read environment inputs from dotenv files (process environment wins)")
	rootCmd.SetVersionTemplate("deploybump version {{.Version}}\n")
}
