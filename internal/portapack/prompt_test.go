package portapack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Test binaries run without a terminal on stdin, so destructive prompts must
// auto-decline instead of blocking or defaulting to yes.
func TestConfirmationDeclinesWithoutTerminal(t *testing.T) {
	require.False(t, askForConfirmation(colArrow, "Permanently delete %s?", "/tmp/dist"))
}
