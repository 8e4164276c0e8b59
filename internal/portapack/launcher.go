package portapack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeLauncher emits the thin wrapper that changes into the build output
// directory and invokes the runtime on the packaged entry, forwarding all
// arguments. POSIX shell for unix targets, batch for Windows targets.
func writeLauncher(path, appDir, entry, target string) error {
	rel, err := filepath.Rel(filepath.Dir(path), appDir)
	if err != nil {
		rel = appDir
	}

	if isWindowsTarget(target) {
		winEntry := strings.ReplaceAll(entry, "/", `\`)
		winRel := strings.ReplaceAll(rel, "/", `\`)
		script := fmt.Sprintf("@echo off\r\n"+
			"cd /d \"%%~dp0%s\"\r\n"+
			"node -r .\\_shims\\register.js %s %%*\r\n", winRel, winEntry)
		return os.WriteFile(path, []byte(script), 0o644)
	}

	script := fmt.Sprintf("#!/bin/sh\n"+
		"cd \"$(dirname \"$0\")/%s\" || exit 1\n"+
		"exec node -r ./_shims/register.js %s \"$@\"\n", rel, entry)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return err
	}
	// WriteFile honors umask; force the executable bit explicitly.
	return os.Chmod(path, 0o755)
}
