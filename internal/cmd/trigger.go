package cmd

import (
	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/cameronsjo/deploybump/internal/preflight"
	"github.com/cameronsjo/deploybump/internal/trigger"
)

var triggerDryRun bool

// newGit picks the version-control backend; replaced in tests.
var newGit = trigger.NewGit

// triggerCmd represents the trigger command.
var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Bump the released version in the deployment repository",
	Long: `Bump a released component's version in the deployment repository.

The deployment repository and manifest directory come from the
TRIGGER_DEPLOYMENT block:

  repository: terragrunt-applications
  environment: sandbox/sandbox
  branch_pattern: main|release/.*   # optional

The entry named REPOSITORY_NAME under the DEPLOYMENT_TYPE section of
<environment>/<DEPLOYMENT_TYPE>.yaml is set to RELEASED_VERSION, committed
and pushed to BRANCH_NAME. Entries with skip_auto_version_bump: true are
left alone.

Examples:
  deploybump trigger            # Bump, commit and push
  deploybump trigger --dry-run  # Show what would change`,
	Args: cobra.NoArgs,
	RunE: runTrigger,
}

func init() {
	triggerCmd.Flags().BoolVarP(&triggerDryRun, "dry-run", "n", false, "Report the change without committing or pushing")
	rootCmd.AddCommand(triggerCmd)
}

func runTrigger(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	env, err := loadEnv(ctx)
	if err != nil {
		return err
	}

	if !triggerDryRun {
		if err := requireBinaries(preflight.ForBackend(env.GitBackend)); err != nil {
			return err
		}
	}

	t := trigger.New(
		trigger.WithGit(newGit(env)),
		trigger.WithDryRun(triggerDryRun),
	)

	outcome, err := t.Run(ctx, env)
	if err != nil {
		return err
	}

	clog.FromContext(ctx).Infof("Trigger finished: %s", outcome)
	return nil
}
