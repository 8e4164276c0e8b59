package portapack

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifyArtifactPasses(t *testing.T) {
	dir := t.TempDir()
	artifact := writeStub(t, dir, "demo", `[ "$1" = "--smoke-test" ] || exit 2
exit 0
`)

	res := verifyArtifact(artifact, NewExecutor(context.Background()))
	require.True(t, res.Passed)
	require.False(t, res.TimedOut)
}

func TestVerifyArtifactFailureIsAdvisory(t *testing.T) {
	dir := t.TempDir()
	artifact := writeStub(t, dir, "demo", "exit 3\n")

	res := verifyArtifact(artifact, NewExecutor(context.Background()))
	require.False(t, res.Passed)
	require.False(t, res.TimedOut)
}

func TestVerifyArtifactMissingBinary(t *testing.T) {
	res := verifyArtifact("/nonexistent/demo", NewExecutor(context.Background()))
	require.False(t, res.Passed)
	require.False(t, res.TimedOut)
}

func TestVerifyArtifactTimeoutKillsSubprocess(t *testing.T) {
	dir := t.TempDir()
	artifact := writeStub(t, dir, "demo", "sleep 30\n")

	start := time.Now()
	res := verifyArtifactTimeout(artifact, NewExecutor(context.Background()), 200*time.Millisecond)
	require.False(t, res.Passed)
	require.True(t, res.TimedOut)
	require.Less(t, time.Since(start), 5*time.Second)
}
