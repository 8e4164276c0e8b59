package portapack

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
)

// printHelp prints the commands table
func printHelp() {
	colSuccess.Println("Usage: portapack <command> [arguments]")
	colSuccess.Println("Run 'portapack <command> -h' for command options")
	fmt.Println()
	color.Info.Println("Available Commands:")

	type cmdInfo struct {
		Cmd  string
		Args string
		Desc string
	}
	cmds := []cmdInfo{
		{"build, b", "[--target <platform>] [--output <name>]", "Package the application for a target platform"},
		{"dist, d", "[--format <zst|gz|zip>] [--publish]", "Create a distributable archive from build output"},
		{"verify, v", "<artifact>", "Smoke-run an artifact under a timeout"},
		{"cleanup", "[options]", "Remove workspace and build output"},
		{"version, --version", "", "Version information"},
		{"help, -h", "", "Show this help"},
	}

	// Dynamic padding: size the first column to the longest usage string.
	maxLen := 0
	for _, c := range cmds {
		length := len(c.Cmd) + len(c.Args)
		if c.Args != "" {
			length++ // Account for the space
		}
		if length > maxLen {
			maxLen = length
		}
	}
	columnWidth := maxLen + 4

	for _, c := range cmds {
		var usageString string
		if c.Args != "" {
			usageString = fmt.Sprintf("  %s %s", c.Cmd, c.Args)
		} else {
			usageString = fmt.Sprintf("  %s", c.Cmd)
		}

		fmt.Print("  ")
		color.Bold.Print(c.Cmd)
		if c.Args != "" {
			fmt.Print(" ")
			color.Cyan.Print(c.Args)
		}

		pad := columnWidth - len(usageString)
		if pad < 1 {
			pad = 1
		}
		fmt.Print(strings.Repeat(" ", pad))
		color.Info.Println(c.Desc)
	}

	fmt.Println()
	color.Info.Println("Build flags:")
	fmt.Println("  --target <platform>   one of", strings.Join(knownTargets, ", "))
	fmt.Println("  --output <name>       artifact name (gets .exe for win targets)")
	fmt.Println("  -v, --verbose         verbose tool output")
	fmt.Println("  --skip-cleanup        keep the build workspace for inspection")
}

func newBuildFlagSet(opts *BuildOptions) *flag.FlagSet {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	fs.StringVar(&opts.Target, "target", "", "target platform triple")
	fs.StringVar(&opts.OutputName, "output", "", "output artifact name")
	fs.BoolVar(&opts.Verbose, "verbose", false, "verbose output")
	fs.BoolVar(&opts.Verbose, "v", false, "verbose output (shorthand)")
	fs.BoolVar(&opts.SkipCleanup, "skip-cleanup", false, "keep the build workspace")
	return fs
}

// Main is the CLI entrypoint.
func Main() {
	// 1. CONTEXT AND SIGNAL SETUP
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case <-sigs:
				if isCriticalAtomic.Load() == 1 {
					// --- CRITICAL PHASE: Block 1st signal, force exit on 2nd ---
					colArrow.Print("\n-> ")
					colError.Printf("Critical operation in progress (archive/upload). Press Ctrl+C AGAIN to force exit NOW.\n")
					select {
					case <-sigs:
						colArrow.Print("\n-> ")
						colError.Printf("Forced immediate exit.")
						os.Exit(130) // Common exit code for SIGINT
					case <-time.After(5 * time.Second):
						continue
					case <-ctx.Done():
						return
					}
				} else {
					colArrow.Print("\n-> ")
					colWarn.Println("Interrupted, cancelling build...")
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	cfg, err := loadConfig(ConfigFile)
	if err != nil {
		warnf("Config load problem: %v\n", err)
	}
	initConfig(cfg)

	Exec = NewExecutor(ctx)

	args := os.Args[1:]
	if len(args) == 0 {
		printHelp()
		return
	}

	// Bare flags mean build; `portapack --target linux-x64` works.
	command := args[0]
	if strings.HasPrefix(command, "-") && command != "-h" && command != "--help" && command != "--version" {
		command = "build"
	} else {
		args = args[1:]
	}

	switch command {
	case "build", "b":
		opts := &BuildOptions{}
		if err := newBuildFlagSet(opts).Parse(args); err != nil {
			os.Exit(1)
		}
		if opts.Verbose {
			Debug = true
		}
		// Tool output (npm, bundler, packer) is noise unless asked for;
		// failures still surface through the cascade warnings.
		Exec.Quiet = !opts.Verbose
		if err := runBuild(opts, cfg, Exec); err != nil {
			colError.Printf("Build failed: %v\n", err)
			os.Exit(1)
		}

	case "dist", "d":
		opts := &DistOptions{}
		fs := flag.NewFlagSet("dist", flag.ExitOnError)
		fs.StringVar(&opts.Target, "target", "", "target platform triple")
		fs.StringVar(&opts.OutputName, "output", "", "artifact name of the build to package")
		fs.StringVar(&opts.Format, "format", "", "archive format: zst, gz or zip")
		fs.StringVar(&opts.InputDir, "input", "", "build output directory to package")
		fs.BoolVar(&opts.Publish, "publish", false, "upload the archive to the configured mirror")
		if err := fs.Parse(args); err != nil {
			os.Exit(1)
		}
		if err := runDist(opts, cfg, Exec); err != nil {
			colError.Printf("Dist failed: %v\n", err)
			os.Exit(1)
		}

	case "verify", "v":
		if len(args) < 1 {
			fmt.Println("Usage: portapack verify <artifact>")
			os.Exit(1)
		}
		res := verifyArtifact(args[0], Exec)
		if !res.Passed {
			// Advisory command surface: still reports through the exit code
			// when invoked directly.
			os.Exit(1)
		}

	case "cleanup":
		if err := handleCleanupCommand(args, cfg); err != nil {
			colError.Printf("Cleanup failed: %v\n", err)
			os.Exit(1)
		}

	case "version", "--version":
		fmt.Printf("portapack %s (%s, %s)\n", version, hostArch, buildDate)

	case "help", "-h", "--help":
		printHelp()

	default:
		fmt.Println("Unknown command:", command)
		printHelp()
		os.Exit(1)
	}
}
