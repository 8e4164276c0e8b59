package portapack

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sys/unix"
)

// deployEntries are the top-level entries staged into the workspace.
// Entries that do not exist in the project are silently skipped.
var deployEntries = []string{
	"src",
	"package.json",
	"package-lock.json",
	"assets",
	"data",
	"migrations",
}

// Workspace is the exclusively-owned scratch directory one build runs in.
type Workspace struct {
	Root        string // project root the workspace is staged from
	Dir         string
	SkipCleanup bool

	cfg      *Config
	execCtx  *Executor
	lockFile *os.File
}

func NewWorkspace(root string, cfg *Config, execCtx *Executor) *Workspace {
	return &Workspace{
		Root:    root,
		Dir:     filepath.Join(root, workspaceDirName),
		cfg:     cfg,
		execCtx: execCtx,
	}
}

// Setup removes any stale workspace, recreates it and stages the deployable
// entries. An exclusive flock guards against two builds sharing one workspace.
func (w *Workspace) Setup() error {
	// Lock first: a second build must fail here instead of clearing a live
	// workspace.
	if err := w.acquireLock(); err != nil {
		return err
	}

	if err := os.RemoveAll(w.Dir); err != nil {
		w.discard()
		return fmt.Errorf("failed to clear workspace %s: %w", w.Dir, err)
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		w.discard()
		return fmt.Errorf("failed to create workspace %s: %w", w.Dir, err)
	}

	var bar *progressbar.ProgressBar
	if stdoutIsTTY() && !Debug {
		bar = progressbar.NewOptions(len(deployEntries),
			progressbar.OptionSetDescription("Staging files"),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, entry := range deployEntries {
		if bar != nil {
			bar.Add(1)
		}
		srcPath := filepath.Join(w.Root, entry)
		info, err := os.Stat(srcPath)
		if err != nil {
			debugf("Skipping missing entry %s\n", entry)
			continue
		}

		dstPath := filepath.Join(w.Dir, entry)
		if info.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				w.discard()
				return fmt.Errorf("failed to stage directory %s: %w", entry, err)
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				w.discard()
				return fmt.Errorf("failed to stage file %s: %w", entry, err)
			}
		}
	}
	if bar != nil {
		bar.Finish()
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Workspace staged at %s\n", w.Dir)
	return nil
}

// InstallDeps installs the application's production dependencies into the
// staged tree.
func (w *Workspace) InstallDeps() error {
	if !fileExists(filepath.Join(w.Dir, "package.json")) {
		return fmt.Errorf("no package.json in workspace %s", w.Dir)
	}

	cmd := exec.Command(w.cfg.npmBin(), "install", "--omit=dev", "--no-audit", "--no-fund")
	cmd.Dir = w.Dir
	if err := w.execCtx.Run(cmd); err != nil {
		return fmt.Errorf("dependency install failed: %w", err)
	}
	return nil
}

// Cleanup tears the workspace down. It is idempotent and safe to call on
// every exit path; SkipCleanup keeps the tree for post-mortem inspection.
func (w *Workspace) Cleanup() error {
	if w.SkipCleanup {
		colNote.Printf("Skipping cleanup, workspace kept at %s\n", w.Dir)
		w.releaseLock()
		return nil
	}
	w.releaseLock()
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("failed to remove workspace %s: %w", w.Dir, err)
	}
	_ = os.Remove(w.Dir + ".lock")
	debugf("Workspace %s removed\n", w.Dir)
	return nil
}

// discard removes partially staged state after a failed Setup. The caller
// gets the error before Cleanup is ever registered, so Setup must not leave
// a half-staged tree or a held lock behind.
func (w *Workspace) discard() {
	w.releaseLock()
	if err := os.RemoveAll(w.Dir); err != nil {
		warnf("Could not remove partial workspace %s: %v\n", w.Dir, err)
		return
	}
	_ = os.Remove(w.Dir + ".lock")
}

func (w *Workspace) acquireLock() error {
	lockPath := w.Dir + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open workspace lock: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return fmt.Errorf("workspace %s is in use by another build: %w", w.Dir, err)
	}
	w.lockFile = f
	return nil
}

func (w *Workspace) releaseLock() {
	if w.lockFile == nil {
		return
	}
	_ = unix.Flock(int(w.lockFile.Fd()), unix.LOCK_UN)
	w.lockFile.Close()
	w.lockFile = nil
}
