package trigger

import (
	"github.com/cameronsjo/deploybump/internal/gitops"
	"github.com/cameronsjo/deploybump/internal/manifest"
)

// IdentityFor returns the commit author for a deployment type. Each type
// commits under its own fixed identity.
func IdentityFor(t manifest.DeploymentType) gitops.Identity {
	name := "deploybump-" + string(t)
	return gitops.Identity{
		Name:  name,
		Email: name + "@users.noreply.github.com",
	}
}
