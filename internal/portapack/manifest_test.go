package portapack

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPatchManifestInjectsPackerConfig(t *testing.T) {
	root := setTestProject(t)

	opts := &BuildOptions{Target: "linux-x64", OutputName: "demo"}
	require.NoError(t, opts.normalize())
	require.NoError(t, patchManifest(root, opts))

	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	require.NoError(t, err)

	var manifest map[string]any
	require.NoError(t, json.Unmarshal(data, &manifest))

	// Original fields survive the rewrite.
	require.Equal(t, "demo-app", manifest["name"])
	require.Equal(t, entryScript, manifest["bin"])

	pkg, ok := manifest["pkg"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, entryScript, pkg["scripts"])
	require.Equal(t, []any{"node18-linux-x64"}, pkg["targets"])
	require.Equal(t, "pkgout", pkg["outputPath"])
	require.Contains(t, pkg["assets"], "node_modules/**/build/Release/**")
	require.Contains(t, pkg["assets"], "_shims/**/*")

	pp, ok := manifest["portapack"].(map[string]any)
	require.True(t, ok)
	for _, m := range []string{"better-sqlite3", "keytar", "bcrypt"} {
		require.Contains(t, pp["disabledModules"], m)
	}
}

func TestPatchManifestRejectsBrokenJSON(t *testing.T) {
	root := setTestProject(t)
	writeProjectFile(t, root, "package.json", "{not json")

	opts := &BuildOptions{Target: "linux-x64", OutputName: "demo"}
	require.NoError(t, opts.normalize())

	err := patchManifest(root, opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot parse manifest")
}

func TestPatchManifestMissingFile(t *testing.T) {
	root := setTestProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "package.json")))

	opts := &BuildOptions{Target: "linux-x64", OutputName: "demo"}
	require.NoError(t, opts.normalize())
	require.Error(t, patchManifest(root, opts))
}

func TestReadManifestName(t *testing.T) {
	root := setTestProject(t)
	require.Equal(t, "demo-app", readManifestName(root))

	writeProjectFile(t, root, "package.json", `{"version":"1.0.0"}`)
	require.Equal(t, "app", readManifestName(root))

	require.NoError(t, os.Remove(filepath.Join(root, "package.json")))
	require.Equal(t, "app", readManifestName(root))
}

func TestPkgTarget(t *testing.T) {
	require.Equal(t, "node18-linux-x64", pkgTarget("linux-x64"))
	require.Equal(t, "node18-win-x64", pkgTarget("win-x64"))
}
