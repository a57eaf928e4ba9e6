package config

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/deploybump/internal/manifest"
)

// Resolution errors.
var (
	// ErrMissingKey indicates a mandatory environment variable is unset.
	ErrMissingKey = errors.New("missing required environment variable")

	// ErrInvalidDeploymentType indicates DEPLOYMENT_TYPE names no known manifest.
	ErrInvalidDeploymentType = errors.New("invalid deployment type")

	// ErrMalformedConfig indicates the trigger-deployment block is not a YAML mapping.
	ErrMalformedConfig = errors.New("error parsing invalid YAML for 'trigger-deployment' input")

	// ErrMissingRequiredField indicates a required value is absent.
	ErrMissingRequiredField = errors.New("missing required field")
)

// DeploymentRequest is a validated request to bump one component.
type DeploymentRequest struct {
	DeploymentType manifest.DeploymentType
	// Repository is the deployment repository name under the owner.
	Repository string
	// Environment is the directory holding the manifests.
	Environment string
	// BranchPattern restricts which branches may trigger a deployment.
	BranchPattern string
	// ReleasedVersion is the version to deploy.
	ReleasedVersion string
	// RepositoryName is the released component, used as the manifest key.
	RepositoryName string
	// BranchName is the current branch, also the push target.
	BranchName string
	// Applicable is false when BranchName does not match BranchPattern.
	Applicable bool
}

// triggerBlock is the TRIGGER_DEPLOYMENT input.
type triggerBlock struct {
	Repository    string `yaml:"repository"`
	Environment   string `yaml:"environment"`
	BranchPattern string `yaml:"branch_pattern"`
}

// Resolve validates env and builds the deployment request.
// A request whose branch does not match the configured pattern is returned
// with Applicable set to false and no error.
func Resolve(env *Env) (*DeploymentRequest, error) {
	if env.DeploymentType == nil {
		return nil, fmt.Errorf("%w DEPLOYMENT_TYPE", ErrMissingKey)
	}

	deploymentType, ok := manifest.ParseDeploymentType(*env.DeploymentType)
	if !ok {
		return nil, fmt.Errorf("%w %s (supported: %v)", ErrInvalidDeploymentType, *env.DeploymentType, manifest.DeploymentTypes)
	}

	if env.TriggerDeployment == nil {
		return nil, fmt.Errorf("%w TRIGGER_DEPLOYMENT", ErrMissingKey)
	}

	block, err := parseTriggerBlock(*env.TriggerDeployment)
	if err != nil {
		return nil, err
	}

	if block.Repository == "" || block.Environment == "" {
		return nil, fmt.Errorf("%w: the keys 'repository' and 'environment' are required for the 'trigger-deployment' input", ErrMissingRequiredField)
	}

	if env.ReleasedVersion == nil || *env.ReleasedVersion == "" {
		return nil, fmt.Errorf("%w: released version is required", ErrMissingRequiredField)
	}

	if env.RepositoryName == nil {
		return nil, fmt.Errorf("%w REPOSITORY_NAME", ErrMissingKey)
	}

	if env.BranchName == nil {
		return nil, fmt.Errorf("%w BRANCH_NAME", ErrMissingKey)
	}

	req := &DeploymentRequest{
		DeploymentType:  deploymentType,
		Repository:      block.Repository,
		Environment:     block.Environment,
		BranchPattern:   block.BranchPattern,
		ReleasedVersion: *env.ReleasedVersion,
		RepositoryName:  *env.RepositoryName,
		BranchName:      *env.BranchName,
		Applicable:      true,
	}

	if block.BranchPattern != "" {
		re, err := regexp.Compile("^(?:" + block.BranchPattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("%w: branch_pattern: %w", ErrMalformedConfig, err)
		}
		req.Applicable = re.MatchString(req.BranchName)
	}

	return req, nil
}

func parseTriggerBlock(text string) (*triggerBlock, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))

	var node yaml.Node
	if err := dec.Decode(&node); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrMalformedConfig, err)
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("expected a single document")
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedConfig, err)
	}

	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected a mapping", ErrMalformedConfig)
	}

	var block triggerBlock
	if err := node.Content[0].Decode(&block); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedConfig, err)
	}

	return &block, nil
}
