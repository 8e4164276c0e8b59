package portapack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigParsesKeyValueFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portapack.conf")
	content := `# build tool overrides
PORTAPACK_NODE = "node18"
PORTAPACK_PKG='pkg-beta'
not a valid line

PORTAPACK_DIST=out
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "node18", cfg.nodeBin())
	require.Equal(t, "pkg-beta", cfg.pkgBin())
	require.Equal(t, "out", cfg.Values["PORTAPACK_DIST"])

	// Unset keys fall back to the plain tool name.
	require.Equal(t, "esbuild", cfg.esbuildBin())
}

func TestLoadConfigMissingFileIsFine(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.conf"))
	require.NoError(t, err)
	require.Equal(t, "node", cfg.nodeBin())
	require.Equal(t, "npm", cfg.npmBin())
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portapack.conf")
	require.NoError(t, os.WriteFile(path, []byte("PORTAPACK_NPM=npm-from-file\n"), 0o644))

	t.Setenv("PORTAPACK_NPM", "pnpm")
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "pnpm", cfg.npmBin())
}

func TestInitConfigDefaults(t *testing.T) {
	oldRoot, oldDist, oldEntry, oldDebug := projectRoot, distDir, entryScript, Debug
	t.Cleanup(func() {
		projectRoot, distDir, entryScript, Debug = oldRoot, oldDist, oldEntry, oldDebug
	})

	tmp := t.TempDir()
	initConfig(&Config{Values: map[string]string{"PORTAPACK_ROOT": tmp}})
	require.Equal(t, tmp, projectRoot)
	require.Equal(t, filepath.Join("src", "index.js"), entryScript)
	require.Equal(t, filepath.Join(tmp, "dist"), distDir)

	initConfig(&Config{Values: map[string]string{
		"PORTAPACK_ROOT":  tmp,
		"PORTAPACK_ENTRY": "server.js",
		"PORTAPACK_DIST":  filepath.Join(tmp, "build"),
		"PORTAPACK_DEBUG": "1",
	}})
	require.Equal(t, "server.js", entryScript)
	require.Equal(t, filepath.Join(tmp, "build"), distDir)
	require.True(t, Debug)
}
