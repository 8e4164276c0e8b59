package portapack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func stageWorkspace(t *testing.T, root string, cfg *Config) *Workspace {
	t.Helper()
	ws := NewWorkspace(root, cfg, NewExecutor(context.Background()))
	require.NoError(t, ws.Setup())
	t.Cleanup(func() { ws.Cleanup() })
	require.NoError(t, emitShims(ws.Dir))
	return ws
}

func TestCascadeFallsThroughInOrder(t *testing.T) {
	root := setTestProject(t)
	bin := t.TempDir()
	logPath := filepath.Join(bin, "calls.log")
	esbuild := writeStub(t, bin, "esbuild", fmt.Sprintf("echo bundle >> %q\nexit 1\n", logPath))
	pkg := writeStub(t, bin, "pkg", fmt.Sprintf("echo pack >> %q\nexit 1\n", logPath))
	cfg := &Config{Values: map[string]string{
		"PORTAPACK_ESBUILD": esbuild,
		"PORTAPACK_PKG":     pkg,
	}}

	ws := stageWorkspace(t, root, cfg)
	opts := &BuildOptions{Target: "linux-x64", OutputName: "demo"}
	require.NoError(t, opts.normalize())

	res, err := runCascade(ws, opts, cfg, NewExecutor(context.Background()))
	require.NoError(t, err)
	require.Equal(t, StrategyBasic, res.Strategy)

	// Both earlier strategies ran, in order, before the terminal copy.
	calls, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Equal(t, "bundle\npack\n", string(calls))

	require.Equal(t, filepath.Join(root, "demo"), res.ArtifactPath)
	info, err := os.Stat(res.ArtifactPath)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o111)

	content, err := os.ReadFile(res.ArtifactPath)
	require.NoError(t, err)
	require.Contains(t, string(content), "exec node -r ./_shims/register.js")

	require.DirExists(t, filepath.Join(distDir, "demo-app"))
	require.FileExists(t, filepath.Join(distDir, "demo-app", "src", "index.js"))
	require.FileExists(t, filepath.Join(distDir, "demo-app", "_shims", "register.js"))
}

func TestCascadeMissingToolsStillProduceArtifact(t *testing.T) {
	root := setTestProject(t)
	cfg := &Config{Values: map[string]string{
		"PORTAPACK_ESBUILD": "/nonexistent/esbuild",
		"PORTAPACK_PKG":     "/nonexistent/pkg",
	}}

	ws := stageWorkspace(t, root, cfg)
	opts := &BuildOptions{Target: "linux-x64", OutputName: "demo"}
	require.NoError(t, opts.normalize())

	res, err := runCascade(ws, opts, cfg, NewExecutor(context.Background()))
	require.NoError(t, err)
	require.Equal(t, StrategyBasic, res.Strategy)
}

func TestCascadeBundleSuccess(t *testing.T) {
	root := setTestProject(t)
	bin := t.TempDir()
	esbuild := writeStub(t, bin, "esbuild", `out=""
for a in "$@"; do
  case "$a" in
    --outfile=*) out="${a#--outfile=}" ;;
  esac
done
[ -n "$out" ] || exit 1
mkdir -p "$(dirname "$out")"
echo "console.log('bundled')" > "$out"
`)
	cfg := &Config{Values: map[string]string{
		"PORTAPACK_ESBUILD": esbuild,
		"PORTAPACK_PKG":     "/nonexistent/pkg",
	}}

	ws := stageWorkspace(t, root, cfg)
	opts := &BuildOptions{Target: "linux-x64", OutputName: "demo"}
	require.NoError(t, opts.normalize())

	res, err := runCascade(ws, opts, cfg, NewExecutor(context.Background()))
	require.NoError(t, err)
	require.Equal(t, StrategyBundle, res.Strategy)

	bundleDir := filepath.Join(distDir, "demo-bundle")
	require.FileExists(t, filepath.Join(bundleDir, "bundle.js"))
	require.FileExists(t, filepath.Join(bundleDir, "package.json"))
	require.FileExists(t, filepath.Join(bundleDir, "_shims", "register.js"))

	content, err := os.ReadFile(res.ArtifactPath)
	require.NoError(t, err)
	require.Contains(t, string(content), "bundle.js")
}

func TestCascadePackSuccess(t *testing.T) {
	root := setTestProject(t)
	bin := t.TempDir()
	pkg := writeStub(t, bin, "pkg", `out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--out-path" ]; then out="$a"; fi
  prev="$a"
done
[ -n "$out" ] || exit 1
mkdir -p "$out"
printf '#!/bin/sh\nexit 0\n' > "$out/demo"
chmod +x "$out/demo"
`)
	cfg := &Config{Values: map[string]string{
		"PORTAPACK_ESBUILD": "/nonexistent/esbuild",
		"PORTAPACK_PKG":     pkg,
	}}

	ws := stageWorkspace(t, root, cfg)
	opts := &BuildOptions{Target: "linux-x64", OutputName: "demo"}
	require.NoError(t, opts.normalize())

	res, err := runCascade(ws, opts, cfg, NewExecutor(context.Background()))
	require.NoError(t, err)
	require.Equal(t, StrategyPack, res.Strategy)
	require.Equal(t, filepath.Join(root, "demo"), res.ArtifactPath)

	info, err := os.Stat(res.ArtifactPath)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o111)

	// The packer scratch output was relocated out of the workspace.
	require.NoFileExists(t, filepath.Join(ws.Dir, "pkgout", "demo"))
}

func TestCascadeWindowsBasicLauncher(t *testing.T) {
	root := setTestProject(t)
	cfg := &Config{Values: map[string]string{
		"PORTAPACK_ESBUILD": "/nonexistent/esbuild",
		"PORTAPACK_PKG":     "/nonexistent/pkg",
	}}

	ws := stageWorkspace(t, root, cfg)
	opts := &BuildOptions{Target: "win-x64", OutputName: "demo"}
	require.NoError(t, opts.normalize())
	require.Equal(t, "demo.exe", opts.OutputName)

	res, err := runCascade(ws, opts, cfg, NewExecutor(context.Background()))
	require.NoError(t, err)
	require.Equal(t, StrategyBasic, res.Strategy)
	require.Equal(t, filepath.Join(root, "demo.exe"), res.ArtifactPath)

	content, err := os.ReadFile(res.ArtifactPath)
	require.NoError(t, err)
	require.Contains(t, string(content), "@echo off\r\n")
	require.Contains(t, string(content), `src\index.js`)
}

func TestMoveFileAcrossDirs(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "sub", "dst.bin")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o755))

	require.NoError(t, moveFile(src, dst))
	require.NoFileExists(t, src)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}
