package portapack

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"lukechampine.com/blake3"
)

// b3sumFile computes the BLAKE3 checksum of a file, using the system b3sum
// binary if available and falling back to the pure-Go implementation.
func b3sumFile(path string, execCtx *Executor) (string, error) {
	if _, err := exec.LookPath("b3sum"); err == nil {
		cmd := exec.Command("b3sum", path)
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := execCtx.Run(cmd); err == nil {
			fields := strings.Fields(out.String())
			if len(fields) > 0 {
				return fields[0], nil
			}
		}
		// fall through to internal on any b3sum failure
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// writeChecksumSidecar writes "<sum>  <name>" next to the archive and returns
// the sidecar path.
func writeChecksumSidecar(archivePath string, execCtx *Executor) (string, error) {
	sum, err := b3sumFile(archivePath, execCtx)
	if err != nil {
		return "", err
	}
	sidecar := archivePath + ".b3"
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(archivePath))
	if err := os.WriteFile(sidecar, []byte(line), 0o644); err != nil {
		return "", err
	}
	return sidecar, nil
}
