// Package paraview binds toolkit.Toolkit to ParaView's pvpython.
//
// Each operation runs pvpython once on an embedded driver script. Filter
// outputs come back as VTK XML files in a scratch directory and are decoded
// with the vtk package. The Topology ToolKit (TTK) filters are available when
// ParaView is built with TTK or the plugin is listed in Config.Plugins.
package paraview

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tachyview/pkg/observability"
	"github.com/matzehuels/tachyview/pkg/toolkit"
)

//go:embed driver.py
var driverScript []byte

// DefaultExecutable is the interpreter looked up on PATH.
const DefaultExecutable = "pvpython"

// Config configures the binding.
type Config struct {
	// Executable is the pvpython binary. Defaults to DefaultExecutable.
	Executable string
	// Args are passed before the driver script, e.g. "--force-offscreen-rendering".
	Args []string
	// Plugins are plugin libraries loaded before every operation.
	Plugins []string
	// Logger receives debug output. Defaults to log.Default().
	Logger *log.Logger
}

// Toolkit drives pvpython. It is safe for concurrent use, though each
// call starts its own interpreter.
type Toolkit struct {
	cfg Config

	mu      sync.Mutex
	sources []string
}

// New creates a binding. It does not start pvpython.
func New(cfg Config) *Toolkit {
	if cfg.Executable == "" {
		cfg.Executable = DefaultExecutable
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Toolkit{cfg: cfg}
}

// Check reports whether the executable can be found.
func (t *Toolkit) Check() error {
	if _, err := exec.LookPath(t.cfg.Executable); err != nil {
		return fmt.Errorf("%s not found; install ParaView with TTK or set toolkit.executable: %w", t.cfg.Executable, err)
	}
	return nil
}

// Sources implements toolkit.Toolkit. The list is fetched once.
func (t *Toolkit) Sources(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	cached := t.sources
	t.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	resp, err := t.run(ctx, job{Mode: "sources"})
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.sources = resp.Sources
	t.mu.Unlock()
	return resp.Sources, nil
}

// NewFilter implements toolkit.Toolkit. It asks pvpython for the filter's
// properties so SetProperty can reject bad names and values early.
func (t *Toolkit) NewFilter(ctx context.Context, name string, input toolkit.Input) (toolkit.Filter, error) {
	abs, err := filepath.Abs(input.Path)
	if err != nil {
		return nil, err
	}
	input.Path = abs

	resp, err := t.run(ctx, job{Mode: "describe", Filter: name, Input: &jobInput{Path: abs, Kind: string(input.Kind)}})
	if err != nil {
		return nil, err
	}
	return &Filter{tk: t, name: name, input: input, info: resp.Properties, ports: resp.Ports}, nil
}

type job struct {
	Mode       string    `json:"mode"`
	Plugins    []string  `json:"plugins,omitempty"`
	Filter     string    `json:"filter,omitempty"`
	Input      *jobInput `json:"input,omitempty"`
	Properties [][2]any  `json:"properties,omitempty"`
	Result     string    `json:"result"`
	OutputDir  string    `json:"output_dir,omitempty"`
}

type jobInput struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

type propertyInfo struct {
	Available []string `json:"available"`
}

type outputInfo struct {
	Port int    `json:"port"`
	Kind string `json:"kind"`
	Path string `json:"path"`
}

type scriptError struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Property string `json:"property"`
}

type response struct {
	Sources    []string                `json:"sources"`
	Properties map[string]propertyInfo `json:"properties"`
	Ports      int                     `json:"ports"`
	Outputs    []outputInfo            `json:"outputs"`
	Error      *scriptError            `json:"error"`
}

func (e *scriptError) err() error {
	switch e.Kind {
	case "unknown_source":
		return fmt.Errorf("%w: %s", toolkit.ErrUnknownSource, e.Message)
	case "unknown_property":
		return &toolkit.PropertyError{Property: e.Property, Detail: e.Message, Err: toolkit.ErrUnknownProperty}
	case "invalid_value":
		return &toolkit.PropertyError{Property: e.Property, Detail: e.Message, Err: toolkit.ErrInvalidValue}
	}
	return fmt.Errorf("pvpython %s: %s", e.Kind, e.Message)
}

// run executes one driver job in a fresh scratch directory. When keep is
// non-nil it is called with the parsed response before the directory is
// removed.
func (t *Toolkit) run(ctx context.Context, j job, keep ...func(*response) error) (*response, error) {
	hooks := observability.Toolkit()
	hooks.OnInvoke(ctx, j.Mode, j.Filter)
	start := time.Now()
	resp, err := t.invoke(ctx, j, keep...)
	hooks.OnComplete(ctx, j.Mode, j.Filter, time.Since(start), err)
	return resp, err
}

func (t *Toolkit) invoke(ctx context.Context, j job, keep ...func(*response) error) (*response, error) {
	dir, err := os.MkdirTemp("", "tachyview-pv-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, "driver.py")
	if err := os.WriteFile(script, driverScript, 0o644); err != nil {
		return nil, err
	}
	j.Plugins = t.cfg.Plugins
	j.Result = filepath.Join(dir, "result.json")
	if j.Mode == "run" {
		j.OutputDir = filepath.Join(dir, "out")
		if err := os.Mkdir(j.OutputDir, 0o755); err != nil {
			return nil, err
		}
	}
	jobPath := filepath.Join(dir, "job.json")
	data, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(jobPath, data, 0o644); err != nil {
		return nil, err
	}

	args := append(append([]string{}, t.cfg.Args...), script, jobPath)
	cmd := exec.CommandContext(ctx, t.cfg.Executable, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	t.cfg.Logger.Debug("pvpython finished", "mode", j.Mode, "filter", j.Filter, "duration", time.Since(start))

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var resp response
	raw, readErr := os.ReadFile(j.Result)
	if readErr == nil {
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decode pvpython result: %w", err)
		}
	}
	if resp.Error != nil {
		return nil, resp.Error.err()
	}
	if runErr != nil {
		var execErr *exec.Error
		if errors.As(runErr, &execErr) {
			return nil, fmt.Errorf("%s: %w", t.cfg.Executable, runErr)
		}
		return nil, fmt.Errorf("pvpython %s: %v: %s", j.Mode, runErr, tail(stderr.String(), 20))
	}
	if readErr != nil {
		return nil, fmt.Errorf("pvpython %s produced no result: %w", j.Mode, readErr)
	}

	for _, fn := range keep {
		if err := fn(&resp); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
