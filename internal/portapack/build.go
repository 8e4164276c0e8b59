package portapack

import (
	"fmt"
	"runtime"
	"strings"
)

// knownTargets are the platform triples the packer understands.
var knownTargets = []string{
	"linux-x64",
	"linux-arm64",
	"win-x64",
	"macos-x64",
	"macos-arm64",
}

// BuildOptions are the per-invocation settings of one build.
type BuildOptions struct {
	Target      string
	OutputName  string
	Verbose     bool
	SkipCleanup bool
}

func isWindowsTarget(target string) bool {
	return strings.HasPrefix(target, "win-")
}

// hostTarget maps the running host to a platform triple default.
func hostTarget() string {
	osName := runtime.GOOS
	switch osName {
	case "darwin":
		osName = "macos"
	case "windows":
		osName = "win"
	}
	arch := hostArch
	if arch == "amd64" {
		arch = "x64"
	}
	return osName + "-" + arch
}

// normalize fills defaults and enforces the output-name invariants: the name
// must be filesystem-safe and carries .exe exactly when the target is a
// Windows variant.
func (o *BuildOptions) normalize() error {
	if o.Target == "" {
		o.Target = hostTarget()
	}
	valid := false
	for _, t := range knownTargets {
		if o.Target == t {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unsupported target %q (known: %s)", o.Target, strings.Join(knownTargets, ", "))
	}

	if o.OutputName == "" {
		name := readManifestName(projectRoot)
		// Scoped names like @org/app keep only the final segment.
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		if name == "" || name == "app" {
			name = "app-" + strings.SplitN(o.Target, "-", 2)[0]
		}
		o.OutputName = name
	}
	if strings.ContainsAny(o.OutputName, "/\\:*?\"<>|") || o.OutputName == "." || o.OutputName == ".." {
		return fmt.Errorf("output name %q is not filesystem-safe", o.OutputName)
	}

	if isWindowsTarget(o.Target) {
		if !strings.HasSuffix(o.OutputName, ".exe") {
			o.OutputName += ".exe"
		}
	} else {
		o.OutputName = strings.TrimSuffix(o.OutputName, ".exe")
	}
	return nil
}

// runBuild is the sequential pipeline of one build invocation: stage, install,
// patch, emit shims, cascade, verify. Workspace cleanup runs on every exit
// path unless suppressed.
func runBuild(opts *BuildOptions, cfg *Config, execCtx *Executor) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	ws := NewWorkspace(projectRoot, cfg, execCtx)
	ws.SkipCleanup = opts.SkipCleanup

	if err := ws.Setup(); err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			warnf("Workspace cleanup failed: %v\n", cerr)
		}
	}()

	if err := ws.InstallDeps(); err != nil {
		return err
	}
	if err := patchManifest(ws.Dir, opts); err != nil {
		return err
	}
	if err := emitShims(ws.Dir); err != nil {
		return err
	}

	result, err := runCascade(ws, opts, cfg, execCtx)
	if err != nil {
		return err
	}

	vres := verifyArtifact(result.ArtifactPath, execCtx)

	// Resolve the capability registry once so degraded-security modes are
	// visible in the build summary, not discovered in production.
	registry := NewRegistry()
	printBuildSummary(opts, result, vres, registry)
	return nil
}

func printBuildSummary(opts *BuildOptions, result *BuildResult, vres VerificationResult, registry *Registry) {
	fmt.Println()
	colArrow.Print("-> ")
	colSuccess.Println("Build summary")
	fmt.Printf("  target:    %s\n", opts.Target)
	fmt.Printf("  artifact:  %s\n", result.ArtifactPath)
	fmt.Printf("  method:    %s\n", result.Strategy)

	switch {
	case vres.TimedOut:
		fmt.Printf("  verified:  timed out (advisory)\n")
	case vres.Passed:
		fmt.Printf("  verified:  ok\n")
	default:
		fmt.Printf("  verified:  failed (advisory)\n")
	}

	for name, variant := range registry.ActiveVariants() {
		fmt.Printf("  %-24s %s\n", name+":", variant)
	}
}
