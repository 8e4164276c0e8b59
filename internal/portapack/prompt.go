package portapack

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// interactiveMu ensures only one prompt reads stdin at a time.
var interactiveMu sync.Mutex

// askForConfirmation guards destructive actions (workspace and dist removal).
// Only an explicit yes proceeds: empty input, EOF and a non-interactive stdin
// all decline.
func askForConfirmation(p colorPrinter, format string, a ...any) bool {
	interactiveMu.Lock()
	defer interactiveMu.Unlock()

	question := fmt.Sprintf(format, a...)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		warnf("No terminal attached, declining: %s\n", question)
		return false
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrintf(p, "%s [y/N]: ", question)
		if !scanner.Scan() {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		}
		cPrintln(colWarn, "Please answer y or n.")
	}
}
