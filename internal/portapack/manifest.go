package portapack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// disabledModules are third-party packages that bundlers must not attempt to
// statically analyze. They stay external and are resolved (or shimmed) at
// run time.
var disabledModules = []string{
	"better-sqlite3",
	"sqlite3",
	"keytar",
	"bcrypt",
	"node-gyp",
	"prebuild-install",
	"fsevents",
}

// assetGlobs are inclusion patterns injected into the packer configuration so
// native binding binaries and static assets are not silently dropped.
var assetGlobs = []string{
	"assets/**/*",
	"data/**/*",
	"migrations/**/*",
	"_shims/**/*",
	"node_modules/**/build/Release/**",
	"node_modules/**/prebuilds/**",
}

// patchManifest rewrites the staged package.json with the packaging-tool
// configuration. Parse or write failure is fatal to the build.
func patchManifest(wsDir string, opts *BuildOptions) error {
	manifestPath := filepath.Join(wsDir, "package.json")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("cannot read manifest %s: %w", manifestPath, err)
	}

	var manifest map[string]any
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("cannot parse manifest %s: %w", manifestPath, err)
	}

	manifest["bin"] = entryScript
	manifest["pkg"] = map[string]any{
		"scripts":    entryScript,
		"targets":    []string{pkgTarget(opts.Target)},
		"outputPath": "pkgout",
		"assets":     assetGlobs,
	}
	manifest["portapack"] = map[string]any{
		"disabledModules": disabledModules,
	}

	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot serialize manifest: %w", err)
	}
	out = append(out, '\n')

	if err := os.WriteFile(manifestPath, out, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest %s: %w", manifestPath, err)
	}

	debugf("Manifest patched for target %s\n", opts.Target)
	return nil
}

// pkgTarget maps a platform triple to the packer's target syntax.
func pkgTarget(target string) string {
	return "node18-" + target
}

// readManifestName returns the application name declared in the staged
// manifest, or a fallback when absent.
func readManifestName(wsDir string) string {
	data, err := os.ReadFile(filepath.Join(wsDir, "package.json"))
	if err != nil {
		return "app"
	}
	var manifest struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil || manifest.Name == "" {
		return "app"
	}
	return manifest.Name
}
