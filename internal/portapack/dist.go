package portapack

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// DistOptions configure the distribution packaging step.
type DistOptions struct {
	Target     string
	OutputName string
	Format     string // zst, gz or zip; empty picks by target
	InputDir   string // build output dir; empty resolves from OutputName
	Publish    bool
}

// runDist takes a successful build output, strips development cruft, drops a
// launcher next to the tree and compresses everything into a distributable
// archive with a checksum sidecar.
func runDist(opts *DistOptions, cfg *Config, execCtx *Executor) error {
	bopts := &BuildOptions{Target: opts.Target, OutputName: opts.OutputName}
	if err := bopts.normalize(); err != nil {
		return err
	}
	opts.Target = bopts.Target
	opts.OutputName = bopts.OutputName

	inputDir := opts.InputDir
	if inputDir == "" {
		inputDir = resolveBuildOutput(opts.OutputName)
	}
	if inputDir == "" || !fileExists(inputDir) {
		return fmt.Errorf("no build output found for %s, run a build first", opts.OutputName)
	}

	if err := pruneDevDependencies(inputDir, cfg, execCtx); err != nil {
		warnf("Dependency prune failed: %v\n", err)
	}

	launcherName := "run.sh"
	if isWindowsTarget(opts.Target) {
		launcherName = "run.bat"
	}
	entry := "bundle.js"
	if !fileExists(filepath.Join(inputDir, entry)) {
		entry = entryScript
	}
	if err := writeLauncher(filepath.Join(inputDir, launcherName), inputDir, entry, opts.Target); err != nil {
		return fmt.Errorf("failed to write launcher: %w", err)
	}

	if err := compressLogs(inputDir); err != nil {
		warnf("Log compression failed: %v\n", err)
	}

	format := opts.Format
	if format == "" {
		if isWindowsTarget(opts.Target) {
			format = "zip"
		} else {
			format = "zst"
		}
	}

	base := strings.TrimSuffix(opts.OutputName, ".exe") + "-" + opts.Target
	var archivePath string
	var err error

	// Archive creation and upload must not be interrupted halfway by a
	// single Ctrl+C.
	isCriticalAtomic.Store(1)
	defer isCriticalAtomic.Store(0)

	switch format {
	case "zst":
		archivePath = filepath.Join(distDir, base+".tar.zst")
		err = createArchiveZst(inputDir, archivePath, execCtx)
	case "gz":
		archivePath = filepath.Join(distDir, base+".tar.gz")
		err = createArchiveGz(inputDir, archivePath)
	case "zip":
		archivePath = filepath.Join(distDir, base+".zip")
		err = createArchiveZip(inputDir, archivePath)
	default:
		return fmt.Errorf("unknown archive format %q", format)
	}
	if err != nil {
		return fmt.Errorf("archive creation failed: %w", err)
	}

	sidecar, err := writeChecksumSidecar(archivePath, execCtx)
	if err != nil {
		return fmt.Errorf("checksum sidecar failed: %w", err)
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Distribution archive created: %s\n", archivePath)

	if opts.Publish {
		if err := publishArchive(archivePath, sidecar, cfg, execCtx); err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}
	}
	return nil
}

// resolveBuildOutput finds the directory a prior build assembled.
func resolveBuildOutput(outputName string) string {
	for _, suffix := range []string{"-bundle", "-app"} {
		dir := filepath.Join(distDir, outputName+suffix)
		if fileExists(dir) {
			return dir
		}
	}
	return ""
}

// pruneDevDependencies strips development packages from the dependency tree.
func pruneDevDependencies(dir string, cfg *Config, execCtx *Executor) error {
	if !fileExists(filepath.Join(dir, "node_modules")) {
		return nil
	}
	cmd := exec.Command(cfg.npmBin(), "prune", "--omit=dev")
	cmd.Dir = dir
	return execCtx.Run(cmd)
}

// compressLogs xz-compresses loose *.log files in the tree root so they ship
// small but stay inspectable.
func compressLogs(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return err
	}
	for _, logPath := range matches {
		if err := compressXZ(logPath, logPath+".xz"); err != nil {
			return err
		}
		if err := os.Remove(logPath); err != nil {
			return err
		}
		debugf("Compressed %s\n", logPath)
	}
	return nil
}

// compressXZ compresses a file using XZ.
func compressXZ(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dest.Close()

	xzWriter, err := xz.NewWriter(dest)
	if err != nil {
		return err
	}
	defer xzWriter.Close()

	_, err = io.Copy(xzWriter, src)
	return err
}

// createArchiveZst creates a .tar.zst of srcDir. It uses system tar if
// available, otherwise falls back to pure-Go tar+zstd.
func createArchiveZst(srcDir, destPath string, execCtx *Executor) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	// --- Try system tar first ---
	if _, err := exec.LookPath("tar"); err == nil {
		args := []string{"--zstd", "-cf", destPath, "-C", srcDir, "."}
		tarCmd := exec.Command("tar", args...)
		debugf("Creating archive with system tar: %s\n", destPath)
		if err := execCtx.Run(tarCmd); err == nil {
			return nil
		}
		// fall through to internal if tar fails
	}

	// --- Fallback: internal tar+zstd ---
	debugf("System tar not available, falling back to internal tar+zstd for %s\n", destPath)

	outFile, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	zw, err := zstd.NewWriter(outFile)
	if err != nil {
		return err
	}
	defer zw.Close()

	tw := tar.NewWriter(zw)
	defer tw.Close()
	return writeTarTree(tw, srcDir)
}

// createArchiveGz creates a .tar.gz of srcDir with parallel gzip.
func createArchiveGz(srcDir, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	outFile, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	gw := pgzip.NewWriter(outFile)
	defer gw.Close()

	tw := tar.NewWriter(gw)
	defer tw.Close()
	return writeTarTree(tw, srcDir)
}

// writeTarTree walks srcDir and adds every entry to the tar writer.
func writeTarTree(tw *tar.Writer, srcDir string) error {
	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		var linkTarget string
		if info.Mode()&os.ModeSymlink != 0 {
			linkTarget, err = os.Readlink(path)
			if err != nil {
				return fmt.Errorf("readlink %s: %w", path, err)
			}
		}

		hdr, err := tar.FileInfoHeader(info, linkTarget)
		if err != nil {
			return err
		}
		hdr.Name = rel

		// Archives must be portably root-owned.
		hdr.Uid, hdr.Gid = 0, 0
		hdr.Uname, hdr.Gname = "root", "root"

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}

// createArchiveZip creates a .zip of srcDir for Windows targets.
func createArchiveZip(srcDir, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	outFile, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	zw := zip.NewWriter(outFile)
	defer zw.Close()

	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		hdr.Method = zip.Deflate

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
}
