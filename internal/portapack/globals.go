package portapack

import (
	"embed"
	"runtime"
	"sync/atomic"

	"github.com/gookit/color"
)

// GLOBAL STATE
// We use a value of 1 for critical and 0 for non-critical/default.
var isCriticalAtomic atomic.Int32

// Global variables
var (
	projectRoot string
	entryScript string
	distDir     string
	Debug       bool
	ConfigFile  = "portapack.conf"
	version     = "dev"     // overridden at build time
	buildDate   = "unknown" // overridden at build time
	hostArch    = runtime.GOARCH
	// Global executor (declared, to be assigned in Main)
	Exec *Executor
	//go:embed shims/*.js
	embeddedShims embed.FS
)

// workspaceDirName is the fixed scratch directory under the project root.
const workspaceDirName = ".portapack-build"

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
	colNote    = color.Tag("notice")
)
