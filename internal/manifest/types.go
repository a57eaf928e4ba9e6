package manifest

import "path/filepath"

// DeploymentType selects which manifest file and section govern a
// component's deployed version.
type DeploymentType string

const (
	// Applications identifies the applications manifest.
	Applications DeploymentType = "applications"

	// Charts identifies the charts manifest.
	Charts DeploymentType = "charts"
)

// DeploymentTypes lists all valid deployment types.
var DeploymentTypes = []DeploymentType{Applications, Charts}

// Keys used inside a manifest entry.
const (
	versionKey  = "version"
	skipBumpKey = "skip_auto_version_bump"
)

// ParseDeploymentType returns the DeploymentType named by s.
func ParseDeploymentType(s string) (DeploymentType, bool) {
	for _, t := range DeploymentTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// FileName returns the manifest file name for the deployment type.
func (t DeploymentType) FileName() string {
	return string(t) + ".yaml"
}

// RelPath returns the manifest path relative to the repository root.
func RelPath(environment string, t DeploymentType) string {
	return filepath.Join(environment, t.FileName())
}

// Path returns the manifest path inside a cloned deployment repository.
func Path(workDir, environment string, t DeploymentType) string {
	return filepath.Join(workDir, RelPath(environment, t))
}
