package portapack

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteLauncherPosix(t *testing.T) {
	dir := t.TempDir()
	appDir := filepath.Join(dir, "dist", "demo-app")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	path := filepath.Join(dir, "demo")

	require.NoError(t, writeLauncher(path, appDir, "src/index.js", "linux-x64"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o111)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	require.True(t, strings.HasPrefix(content, "#!/bin/sh\n"))
	require.Contains(t, content, `cd "$(dirname "$0")/dist/demo-app"`)
	require.Contains(t, content, `exec node -r ./_shims/register.js src/index.js "$@"`)
}

func TestWriteLauncherBatch(t *testing.T) {
	dir := t.TempDir()
	appDir := filepath.Join(dir, "dist", "demo-app")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	path := filepath.Join(dir, "demo.exe")

	require.NoError(t, writeLauncher(path, appDir, "src/index.js", "win-x64"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	require.True(t, strings.HasPrefix(content, "@echo off\r\n"))
	require.Contains(t, content, `%~dp0dist\demo-app`)
	require.Contains(t, content, `node -r .\_shims\register.js src\index.js %*`)
}

func TestWriteLauncherRelativePath(t *testing.T) {
	dir := t.TempDir()
	appDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	path := filepath.Join(dir, "nested", "demo")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	require.NoError(t, writeLauncher(path, appDir, "bundle.js", "linux-x64"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `cd "$(dirname "$0")/../out"`)
}
