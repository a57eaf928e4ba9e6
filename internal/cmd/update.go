package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/deploybump/internal/ui"
	"github.com/cameronsjo/deploybump/internal/update"
)

var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"upgrade", "selfupdate"},
	Short:   "Update deploybump to the latest version",
	Long: `Update deploybump to the latest version from GitHub releases.

Examples:
  deploybump update           # Update to latest version
  deploybump update --check   # Check for updates without installing`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

var checkOnly bool

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "Only check for updates, don't install")
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ui.Info("Current version: %s (%s)", version, update.GetPlatformInfo())
	ui.Info("Checking for updates...")

	if checkOnly {
		release, available, err := update.CheckForUpdate(ctx, version)
		if err != nil {
			return err
		}
		if !available {
			ui.Success("You're running the latest version!")
			return nil
		}
		ui.Success("New version available: %s (released %s)", release.Version, release.PublishedAt)
		ui.Info("To update, run: deploybump update")
		printChangelog(release.Changelog)
		return nil
	}

	release, err := update.Update(ctx, version)
	if err != nil {
		return err
	}
	if release == nil {
		ui.Success("You're already running the latest version!")
		return nil
	}

	ui.Success("Successfully updated to version %s!", release.Version)
	printChangelog(release.Changelog)
	return nil
}

// printChangelog prints the first lines of release notes.
func printChangelog(changelog string) {
	if changelog == "" {
		return
	}

	const maxLines = 10
	ui.Header("What's new:")
	lines := strings.Split(changelog, "\n")
	for i, line := range lines {
		if i == maxLines {
			ui.Info("  ... (%d more lines)", len(lines)-maxLines)
			break
		}
		ui.Info("  %s", line)
	}
}
