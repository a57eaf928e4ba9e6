package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/deploybump/internal/config"
	"github.com/cameronsjo/deploybump/internal/preflight"
	"github.com/cameronsjo/deploybump/internal/ui"
)

// doctorCmd runs pre-flight checks.
var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Aliases: []string{"checkup"},
	Short:   "Check binaries and environment inputs",
	Long:    "Verify the binaries deploybump shells out to and the environment a trigger run needs, without cloning anything.",
	Args:    cobra.NoArgs,
	RunE:    runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ui.Info("Running pre-flight checks...")

	passed, failed, warned := 0, 0, 0

	env, err := loadEnv(cmd.Context())
	if err != nil {
		ui.Error("  x Settings: %v", err)
		failed++
		env = &config.Env{GitBackend: config.BackendCLI}
	} else {
		ui.Success("  Settings valid (git backend: %s, push attempts: %d)", env.GitBackend, env.PushAttempts)
		passed++
	}

	checks := append(preflight.ForBackend(env.GitBackend), preflight.ForMaven()...)
	warnings, errs := checkBinaries(checks)
	for _, e := range errs {
		ui.Error("  x %s", e)
		failed++
	}
	for _, w := range warnings {
		ui.Warning("  %s", w)
		warned++
	}
	if missing := len(errs) + len(warnings); missing < len(checks) {
		ui.Success("  %d of %d binaries found", len(checks)-missing, len(checks))
		passed++
	}

	if req, err := config.Resolve(env); err != nil {
		ui.Error("  x Deployment request: %v", err)
		failed++
	} else {
		ui.Success("  Deployment request: %s %s in %s/%s", req.DeploymentType, req.RepositoryName, req.Repository, req.Environment)
		passed++
		if !req.Applicable {
			ui.Warning("  Branch '%s' does not match %s; trigger would do nothing", req.BranchName, req.BranchPattern)
			warned++
		}
	}

	if env.AppOwner == "" || env.Token == "" {
		ui.Error("  x GITHUB_APP_OWNER and GH_TOKEN must both be set")
		failed++
	} else {
		ui.Success("  Credentials present for %s on %s", env.AppOwner, env.GitHubHost)
		passed++
	}

	ui.Info("%d passed, %d failed, %d warnings", passed, failed, warned)
	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}
