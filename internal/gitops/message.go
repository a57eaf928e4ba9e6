package gitops

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultMessageTemplate renders the commit message used for version bumps.
const DefaultMessageTemplate = "Update {{ .RepositoryName }} to version {{ .ReleasedVersion }} on {{ .Environment }}"

// ErrInvalidTemplate indicates a commit message template that cannot be
// parsed or executed.
var ErrInvalidTemplate = errors.New("invalid commit message template")

// MessageData is the input to a commit message template.
type MessageData struct {
	RepositoryName  string
	ReleasedVersion string
	Environment     string
	DeploymentType  string
}

// RenderMessage executes tmpl with sprig functions available. An empty tmpl
// uses DefaultMessageTemplate.
func RenderMessage(tmpl string, data MessageData) (string, error) {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultMessageTemplate
	}

	t, err := template.New("commit-message").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	msg := strings.TrimSpace(buf.String())
	if msg == "" {
		return "", fmt.Errorf("%w: renders to an empty message", ErrInvalidTemplate)
	}
	return msg, nil
}
