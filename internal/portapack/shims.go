package portapack

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// emitShims writes the embedded JavaScript fallback shims into the workspace
// so the packaged artifact carries its own fallbacks. The launcher and the
// bundler both load _shims/register.js, which installs the resolution hook
// for the three capability names.
func emitShims(wsDir string) error {
	shimDir := filepath.Join(wsDir, "_shims")
	if err := os.MkdirAll(shimDir, 0o755); err != nil {
		return fmt.Errorf("failed to create shim dir: %w", err)
	}

	entries, err := fs.ReadDir(embeddedShims, "shims")
	if err != nil {
		return fmt.Errorf("embedded shims missing: %w", err)
	}

	for _, entry := range entries {
		data, err := embeddedShims.ReadFile("shims/" + entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read embedded shim %s: %w", entry.Name(), err)
		}
		dest := filepath.Join(shimDir, entry.Name())
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("failed to write shim %s: %w", dest, err)
		}
	}

	debugf("Emitted %d runtime shims into %s\n", len(entries), shimDir)
	return nil
}
