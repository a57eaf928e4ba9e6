// Package preflight verifies that the binaries a command shells out to are
// installed before any work starts.
package preflight

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrMissingBinary indicates a required binary is not on PATH.
var ErrMissingBinary = errors.New("required binary not found")

// BinaryCheck represents a required binary and its purpose.
type BinaryCheck struct {
	Name        string
	Required    bool   // false = warning only
	InstallHint string // e.g., "apt-get install git" or "https://..."
}

// Git is needed by the CLI version-control backend.
var Git = BinaryCheck{
	Name:        "git",
	Required:    true,
	InstallHint: "Install git: https://git-scm.com/downloads",
}

// Shell runs assembled Maven command lines.
var Shell = BinaryCheck{
	Name:        "sh",
	Required:    true,
	InstallHint: "Install a POSIX shell",
}

// Java is used by the Maven wrapper. The wrapper reports a clearer error if
// it is missing, so it only warns.
var Java = BinaryCheck{
	Name:        "java",
	Required:    false,
	InstallHint: "Install a JDK: https://adoptium.net",
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// ForBackend returns the checks for a version-control backend. The go-git
// backend runs in-process and needs nothing.
func ForBackend(backend string) []BinaryCheck {
	if backend == "gogit" {
		return nil
	}
	return []BinaryCheck{Git}
}

// ForMaven returns the checks for the maven command.
func ForMaven() []BinaryCheck {
	return []BinaryCheck{Shell, Java}
}

// Missing returns the checks whose binary is not on PATH.
func Missing(checks []BinaryCheck) []BinaryCheck {
	var missing []BinaryCheck
	for _, bin := range checks {
		if !IsBinaryAvailable(bin.Name) {
			missing = append(missing, bin)
		}
	}
	return missing
}

// CheckAll performs all pre-flight checks and returns warnings and errors.
// Errors are for missing required binaries, warnings are for missing optional binaries.
func CheckAll(checks []BinaryCheck) (warnings []string, errors []string) {
	for _, bin := range Missing(checks) {
		line := bin.Name + ": " + bin.InstallHint
		if bin.Required {
			errors = append(errors, line)
		} else {
			warnings = append(warnings, line)
		}
	}
	return warnings, errors
}

// Verify returns an error wrapping ErrMissingBinary naming every missing
// required binary, and the warnings for missing optional ones.
func Verify(checks []BinaryCheck) ([]string, error) {
	warnings, errs := CheckAll(checks)
	if len(errs) > 0 {
		return warnings, fmt.Errorf("%w: %s", ErrMissingBinary, strings.Join(errs, "; "))
	}
	return warnings, nil
}

// IsBinaryAvailable checks if a specific binary is available in PATH.
func IsBinaryAvailable(name string) bool {
	_, err := lookPath(name)
	return err == nil
}
