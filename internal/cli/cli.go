// Package cli implements the tachyview command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tachyview/pkg/cache"
	"github.com/matzehuels/tachyview/pkg/config"
	"github.com/matzehuels/tachyview/pkg/pipeline"
	"github.com/matzehuels/tachyview/pkg/toolkit"
	"github.com/matzehuels/tachyview/pkg/toolkit/paraview"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "tachyview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	// Out receives user-facing status lines.
	Out io.Writer

	configPath string
	noCache    bool

	// newToolkit builds the toolkit binding; replaced in tests.
	newToolkit func(config.ToolkitConfig, *log.Logger) toolkit.Toolkit
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(w, level),
		Config:     &config.Config{},
		Out:        os.Stdout,
		newToolkit: paraviewToolkit,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads --config or a project file in the working directory.
func (c *CLI) loadConfig() error {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	cfg, err := config.Resolve(c.configPath, wd)
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The toolkit binding is
// created lazily by pvpython itself, so building it here costs nothing.
// Cache keys are scoped by the toolkit executable.
func (c *CLI) newRunner() (*pipeline.Runner, error) {
	cc, err := c.newCache()
	if err != nil {
		return nil, err
	}
	exe := c.Config.Toolkit.Executable
	if exe == "" {
		exe = paraview.DefaultExecutable
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "pvpython:"+exe+":")
	r := pipeline.NewRunner(cc, keyer, c.Logger)
	r.Toolkit = c.newToolkit(c.Config.Toolkit, c.Logger)
	return r, nil
}

func (c *CLI) newCache() (cache.Cache, error) {
	if c.noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func paraviewToolkit(cfg config.ToolkitConfig, logger *log.Logger) toolkit.Toolkit {
	return paraview.New(paraview.Config{
		Executable: cfg.Executable,
		Args:       cfg.Args,
		Plugins:    cfg.Plugins,
		Logger:     logger,
	})
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the user cache
// directory (~/.cache/tachyview on Linux).
func (c *CLI) cacheDir() (string, error) {
	if c.Config != nil && c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Flag Helpers
// =============================================================================

// parseIntTriple parses "41,41,41" or "41x41x41". A single value is used
// for all three axes.
func parseIntTriple(s string) ([3]int, error) {
	var out [3]int
	parts, err := splitTriple(s)
	if err != nil {
		return out, err
	}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return out, fmt.Errorf("invalid integer %q in %q", p, s)
		}
		out[i] = v
	}
	return out, nil
}

// parseFloatTriple parses "-20.5,-20.5,-20.5". A single value is used for
// all three axes.
func parseFloatTriple(s string) ([3]float64, error) {
	var out [3]float64
	parts, err := splitTriple(s)
	if err != nil {
		return out, err
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return out, fmt.Errorf("invalid number %q in %q", p, s)
		}
		out[i] = v
	}
	return out, nil
}

func splitTriple(s string) ([3]string, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ',' || r == 'x' || r == ' '
	})
	switch len(fields) {
	case 1:
		return [3]string{fields[0], fields[0], fields[0]}, nil
	case 3:
		return [3]string{fields[0], fields[1], fields[2]}, nil
	}
	return [3]string{}, fmt.Errorf("expected 1 or 3 values, got %q", s)
}
