package portapack

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// The cascade is a small state machine: each strategy either terminates the
// build with an artifact or falls through to the next, simpler one. Only the
// final strategy is allowed to be fatal.
type buildState int

const (
	stateTryBundle buildState = iota
	stateTryPack
	stateTryBasic
	stateDone
	stateFatal
)

// Strategy names recorded in build results and the summary line.
const (
	StrategyBundle = "bundle"
	StrategyPack   = "pack"
	StrategyBasic  = "basic"
)

// BuildResult records which strategy produced the artifact.
type BuildResult struct {
	Strategy     string
	ArtifactPath string
}

var errCascadeExhausted = errors.New("all packaging strategies failed")

// runCascade tries bundle, pack and basic in strict order and keeps the first
// artifact produced. Strategy failures are warnings; only a failure of the
// final copy strategy is fatal.
func runCascade(ws *Workspace, opts *BuildOptions, cfg *Config, execCtx *Executor) (*BuildResult, error) {
	state := stateTryBundle
	var result *BuildResult
	var fatalErr error

	for {
		switch state {
		case stateTryBundle:
			colArrow.Print("-> ")
			colInfo.Println("Trying bundle-and-wrap")
			artifact, err := tryBundle(ws, opts, cfg, execCtx)
			if err != nil {
				warnf("Bundle strategy failed: %v\n", err)
				state = stateTryPack
				continue
			}
			result = &BuildResult{Strategy: StrategyBundle, ArtifactPath: artifact}
			state = stateDone

		case stateTryPack:
			colArrow.Print("-> ")
			colInfo.Println("Trying single-binary pack")
			artifact, err := tryPack(ws, opts, cfg, execCtx)
			if err != nil {
				warnf("Pack strategy failed: %v\n", err)
				state = stateTryBasic
				continue
			}
			result = &BuildResult{Strategy: StrategyPack, ArtifactPath: artifact}
			state = stateDone

		case stateTryBasic:
			colArrow.Print("-> ")
			colInfo.Println("Falling back to plain copy")
			artifact, err := tryBasic(ws, opts)
			if err != nil {
				fatalErr = fmt.Errorf("%w: copy strategy: %v", errCascadeExhausted, err)
				state = stateFatal
				continue
			}
			result = &BuildResult{Strategy: StrategyBasic, ArtifactPath: artifact}
			state = stateDone

		case stateDone:
			colArrow.Print("-> ")
			colSuccess.Printf("Build succeeded (method=%s): %s\n", result.Strategy, result.ArtifactPath)
			return result, nil

		case stateFatal:
			return nil, fatalErr
		}
	}
}

// tryBundle runs the JavaScript bundler with all native and problematic
// packages marked external, assembles the output directory and wraps it with
// a launcher.
func tryBundle(ws *Workspace, opts *BuildOptions, cfg *Config, execCtx *Executor) (string, error) {
	esbuild := cfg.esbuildBin()
	if _, err := exec.LookPath(esbuild); err != nil {
		return "", fmt.Errorf("bundler not found: %w", err)
	}

	outDir := filepath.Join(distDir, opts.OutputName+"-bundle")
	if err := os.RemoveAll(outDir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	bundlePath := filepath.Join(outDir, "bundle.js")
	args := []string{
		entryScript,
		"--bundle",
		"--platform=node",
		"--outfile=" + bundlePath,
		"--inject:" + filepath.Join("_shims", "register.js"),
	}
	for _, m := range disabledModules {
		args = append(args, "--external:"+m)
	}

	cmd := exec.Command(esbuild, args...)
	cmd.Dir = ws.Dir
	if err := execCtx.Run(cmd); err != nil {
		return "", fmt.Errorf("bundler failed: %w", err)
	}
	if !fileExists(bundlePath) {
		return "", fmt.Errorf("bundler reported success but %s is missing", bundlePath)
	}

	// Assemble bundle dir: manifest, assets and the runtime shims travel with
	// the bundle.
	if err := copyFile(filepath.Join(ws.Dir, "package.json"), filepath.Join(outDir, "package.json")); err != nil {
		return "", err
	}
	for _, entry := range []string{"assets", "data", "migrations", "_shims"} {
		srcPath := filepath.Join(ws.Dir, entry)
		if !fileExists(srcPath) {
			continue
		}
		if err := copyDir(srcPath, filepath.Join(outDir, entry)); err != nil {
			return "", err
		}
	}

	launcher := filepath.Join(projectRoot, opts.OutputName)
	if err := writeLauncher(launcher, outDir, "bundle.js", opts.Target); err != nil {
		return "", err
	}
	return launcher, nil
}

// tryPack runs the self-contained executable packer against the patched
// manifest and relocates the produced binary under the configured name.
func tryPack(ws *Workspace, opts *BuildOptions, cfg *Config, execCtx *Executor) (string, error) {
	pkgBin := cfg.pkgBin()
	if _, err := exec.LookPath(pkgBin); err != nil {
		return "", fmt.Errorf("packer not found: %w", err)
	}

	outDir := filepath.Join(ws.Dir, "pkgout")
	if err := os.RemoveAll(outDir); err != nil {
		return "", err
	}

	cmd := exec.Command(pkgBin, ".",
		"--no-bytecode",
		"--public",
		"--public-packages", "*",
		"--targets", pkgTarget(opts.Target),
		"--out-path", outDir,
	)
	cmd.Dir = ws.Dir
	if err := execCtx.Run(cmd); err != nil {
		return "", fmt.Errorf("packer failed: %w", err)
	}

	binary, err := findPackedBinary(outDir)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(projectRoot, opts.OutputName)
	if err := moveFile(binary, dest); err != nil {
		return "", fmt.Errorf("failed to relocate packed binary: %w", err)
	}
	if err := os.Chmod(dest, 0o755); err != nil {
		return "", err
	}
	return dest, nil
}

// findPackedBinary locates the single executable the packer wrote.
func findPackedBinary(outDir string) (string, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", fmt.Errorf("packer output missing: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			return filepath.Join(outDir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("packer produced no binary in %s", outDir)
}

// tryBasic copies the staged tree verbatim and wraps it with a launcher that
// runs the unbundled entry script. Only I/O failure can abort it.
func tryBasic(ws *Workspace, opts *BuildOptions) (string, error) {
	outDir := filepath.Join(distDir, opts.OutputName+"-app")
	if err := os.RemoveAll(outDir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(ws.Dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Name() == "pkgout" {
			continue
		}
		srcPath := filepath.Join(ws.Dir, e.Name())
		dstPath := filepath.Join(outDir, e.Name())
		if e.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return "", err
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return "", err
			}
		}
	}

	launcher := filepath.Join(projectRoot, opts.OutputName)
	if err := writeLauncher(launcher, outDir, entryScript, opts.Target); err != nil {
		return "", err
	}
	return launcher, nil
}

// moveFile renames src to dst, falling back to copy+remove across devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
