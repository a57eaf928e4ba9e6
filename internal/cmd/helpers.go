package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/cameronsjo/deploybump/internal/config"
	"github.com/cameronsjo/deploybump/internal/maven"
	"github.com/cameronsjo/deploybump/internal/preflight"
	"github.com/cameronsjo/deploybump/internal/ui"
)

// Seams replaced in tests.
var (
	envLookuper    envconfig.Lookuper = envconfig.OsLookuper()
	verifyBinaries                    = preflight.Verify
	checkBinaries                     = preflight.CheckAll
)

// envFiles are dotenv files named with --env-file.
var envFiles []string

// lookuper returns the source of environment inputs. Variables set in the
// process take precedence over those read from env files.
func lookuper() (envconfig.Lookuper, error) {
	if len(envFiles) == 0 {
		return envLookuper, nil
	}

	vars, err := godotenv.Read(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return envconfig.MultiLookuper(envLookuper, envconfig.MapLookuper(vars)), nil
}

func loadEnv(ctx context.Context) (*config.Env, error) {
	l, err := lookuper()
	if err != nil {
		return nil, err
	}
	return config.Load(ctx, l)
}

func loadMavenEnv(ctx context.Context) (*maven.Env, error) {
	l, err := lookuper()
	if err != nil {
		return nil, err
	}
	return maven.Load(ctx, l)
}

// requireBinaries fails when a required binary is missing and warns about
// optional ones.
func requireBinaries(checks []preflight.BinaryCheck) error {
	warnings, err := verifyBinaries(checks)
	for _, w := range warnings {
		ui.Warning("Optional binary missing: %s", w)
	}
	return err
}
