package portapack

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Config holds key=value settings from portapack.conf plus PORTAPACK_* env
// overrides.
type Config struct {
	Values map[string]string
}

// loadConfig reads the config file (missing file is fine) and applies defaults.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge PORTAPACK_* env overrides
	mergeEnvOverrides(cfg)

	return cfg, nil
}

// Merge PORTAPACK_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "PORTAPACK_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

func initConfig(cfg *Config) {
	projectRoot = cfg.Values["PORTAPACK_ROOT"]
	if projectRoot == "" {
		if wd, err := os.Getwd(); err == nil {
			projectRoot = wd
		} else {
			projectRoot = "."
		}
	}

	entryScript = cfg.Values["PORTAPACK_ENTRY"]
	if entryScript == "" {
		entryScript = filepath.Join("src", "index.js")
	}

	distDir = cfg.Values["PORTAPACK_DIST"]
	if distDir == "" {
		distDir = filepath.Join(projectRoot, "dist")
	}

	if cfg.Values["PORTAPACK_DEBUG"] == "1" {
		Debug = true
	}
}

// tool returns the configured override for an external tool binary, or the
// default name (resolved through PATH at invocation time).
func (c *Config) tool(key, def string) string {
	if v := c.Values[key]; v != "" {
		return v
	}
	return def
}

func (c *Config) nodeBin() string    { return c.tool("PORTAPACK_NODE", "node") }
func (c *Config) npmBin() string     { return c.tool("PORTAPACK_NPM", "npm") }
func (c *Config) esbuildBin() string { return c.tool("PORTAPACK_ESBUILD", "esbuild") }
func (c *Config) pkgBin() string     { return c.tool("PORTAPACK_PKG", "pkg") }
