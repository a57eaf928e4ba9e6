package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cameronsjo/deploybump/internal/maven"
	"github.com/cameronsjo/deploybump/internal/preflight"
)

var mavenDir string

// mavenRunner executes the assembled command. Nil streams to the command's
// output.
var mavenRunner maven.Runner

var mavenCmd = &cobra.Command{
	Use:   "maven",
	Short: "Assemble and run the Maven wrapper command",
	Long: `Assemble a ./mvnw command line from the environment and run it.

  MAVEN_GOAL                      goal to run (required)
  DEFAULT_ARGUMENTS               appended after the goal
  EXTRA_ARGUMENTS                 appended next; MAVEN_EXTRA_ARGUMENTS if unset
  IS_MAIN_BRANCH=true             adds -Dbuild.release
  IS_RELEASE_BRANCH=true          adds -Dbuild.release
  IS_RELEASE_CANDIDATE_BRANCH=true adds -Dbuild.candidate

Examples:
  MAVEN_GOAL=verify deploybump maven
  MAVEN_GOAL=deploy IS_MAIN_BRANCH=true deploybump maven -C service/`,
	Args: cobra.NoArgs,
	RunE: runMaven,
}

func init() {
	mavenCmd.Flags().StringVarP(&mavenDir, "dir", "C", ".", "Project directory holding mvnw")
	rootCmd.AddCommand(mavenCmd)
}

func runMaven(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	env, err := loadMavenEnv(ctx)
	if err != nil {
		return err
	}

	if err := requireBinaries(preflight.ForMaven()); err != nil {
		return err
	}

	runner := mavenRunner
	if runner == nil {
		runner = maven.StreamRunner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	}

	return maven.Run(ctx, runner, mavenDir, env)
}
