package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// captureOutput runs fn with colors disabled and returns what was written
// to the status and error writers.
func captureOutput(t *testing.T, fn func()) (string, string) {
	t.Helper()

	oldNoColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = oldNoColor })

	var out, errOut bytes.Buffer
	restore := SetOutput(&out, &errOut)
	defer restore()

	fn()
	return out.String(), errOut.String()
}

func TestSuccess(t *testing.T) {
	out, _ := captureOutput(t, func() {
		Success("pushed %d commit", 1)
	})
	assert.Equal(t, "✓ pushed 1 commit\n", out)
}

func TestError_WritesToStderr(t *testing.T) {
	out, errOut := captureOutput(t, func() {
		Error("failed with code %d: %s", 128, "fatal")
	})
	assert.Empty(t, out)
	assert.Equal(t, "✗ failed with code 128: fatal\n", errOut)
}

func TestWarning(t *testing.T) {
	out, _ := captureOutput(t, func() {
		Warning("Git push failed on attempt %d/%d", 1, 3)
	})
	assert.Contains(t, out, "Git push failed on attempt 1/3")
	assert.Contains(t, out, "\n")
}

func TestInfo(t *testing.T) {
	out, _ := captureOutput(t, func() {
		Info("version: %s", "1.0.5")
	})
	assert.Equal(t, "version: 1.0.5\n", out)
}

func TestStep(t *testing.T) {
	out, _ := captureOutput(t, func() {
		Step(3, "processing %s", "applications.yaml")
	})
	assert.Contains(t, out, "[3]")
	assert.Contains(t, out, "processing applications.yaml")
}

func TestHeader(t *testing.T) {
	out, _ := captureOutput(t, func() {
		Header("Triggering %s", "deployment")
	})
	assert.Equal(t, "Triggering deployment\n", out)
}

func TestCommand(t *testing.T) {
	out, _ := captureOutput(t, func() {
		Command("./mvnw %s", "verify")
	})
	assert.Equal(t, "$ ./mvnw verify\n", out)
}

func TestSetOutput_Restores(t *testing.T) {
	var first, second bytes.Buffer

	restoreFirst := SetOutput(&first, &first)
	restoreSecond := SetOutput(&second, &second)
	Info("to second")
	restoreSecond()
	Info("to first")
	restoreFirst()

	assert.Contains(t, second.String(), "to second")
	assert.NotContains(t, second.String(), "to first")
	assert.Contains(t, first.String(), "to first")
}

func TestDiff(t *testing.T) {
	out, _ := captureOutput(t, func() {
		Diff("--- a/x.yaml\n+++ b/x.yaml\n@@ -1 +1 @@\n-version: 1\n+version: 2")
	})
	assert.Equal(t, "--- a/x.yaml\n+++ b/x.yaml\n@@ -1 +1 @@\n-version: 1\n+version: 2\n", out)
}
