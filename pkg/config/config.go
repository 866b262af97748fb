// Package config loads the optional tachyview project file.
//
// A project file holds per-stage defaults so repeated runs over the same
// dataset do not need long flag lists. TOML and YAML are both accepted; the
// format is chosen by extension:
//
//	# tachyview.toml
//	[pack]
//	dims = [41, 41, 41]
//	spacing = [1, 1, 1]
//	origin = [-20.5, -20.5, -20.5]
//
//	[extract]
//	tree_type = "split"
//
//	[toolkit]
//	executable = "/opt/paraview/bin/pvpython"
//	plugins = ["/opt/ttk/lib/libTTKPlugin.so"]
//
// Command-line flags override file values. Values left out of the file fall
// back to the defaults in the pipeline package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/tachyview/pkg/errors"
	"github.com/matzehuels/tachyview/pkg/pipeline"
)

// FileNames are the project files looked up by Find, in order.
var FileNames = []string{"tachyview.toml", "tachyview.yaml", "tachyview.yml"}

// Config is the project file contents.
type Config struct {
	Pack     PackConfig     `toml:"pack" yaml:"pack"`
	Resample ResampleConfig `toml:"resample" yaml:"resample"`
	Extract  ExtractConfig  `toml:"extract" yaml:"extract"`
	Render   RenderConfig   `toml:"render" yaml:"render"`
	Toolkit  ToolkitConfig  `toml:"toolkit" yaml:"toolkit"`
	Cache    CacheConfig    `toml:"cache" yaml:"cache"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-" yaml:"-"`
}

// PackConfig holds raw volume geometry.
type PackConfig struct {
	SampleType string     `toml:"sample_type" yaml:"sample_type"`
	Dims       [3]int     `toml:"dims" yaml:"dims"`
	Spacing    [3]float64 `toml:"spacing" yaml:"spacing"`
	Origin     [3]float64 `toml:"origin" yaml:"origin"`
	Layout     string     `toml:"layout" yaml:"layout"`
	ScalarType string     `toml:"scalar_type" yaml:"scalar_type"`
	Format     string     `toml:"format" yaml:"format"`
}

// ResampleConfig holds mesh resampling settings.
type ResampleConfig struct {
	Dims      [3]int `toml:"dims" yaml:"dims"`
	Resampler string `toml:"resampler" yaml:"resampler"`
	Format    string `toml:"format" yaml:"format"`
}

// ExtractConfig holds merge-tree extraction settings.
type ExtractConfig struct {
	TreeType            string   `toml:"tree_type" yaml:"tree_type"`
	WithSegmentation    *bool    `toml:"with_segmentation" yaml:"with_segmentation"` // default true
	Tolerance           float64  `toml:"tolerance" yaml:"tolerance"`
	ClassificationNames []string `toml:"classification_names" yaml:"classification_names"`
	ScalarNames         []string `toml:"scalar_names" yaml:"scalar_names"`
	ParquetDir          string   `toml:"parquet_dir" yaml:"parquet_dir"`
}

// RenderConfig holds node-link rendering settings.
type RenderConfig struct {
	Detailed bool   `toml:"detailed" yaml:"detailed"`
	RankDir  string `toml:"rank_dir" yaml:"rank_dir"`
}

// ToolkitConfig configures the pvpython binding.
type ToolkitConfig struct {
	Executable string   `toml:"executable" yaml:"executable"`
	Args       []string `toml:"args" yaml:"args"`
	Plugins    []string `toml:"plugins" yaml:"plugins"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	// Dir overrides the user cache directory.
	Dir string `toml:"dir" yaml:"dir"`
	// Disabled turns caching off, like --no-cache.
	Disabled bool `toml:"disabled" yaml:"disabled"`
}

// Load reads a project file. Environment variables in the file are
// expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(filepath.Ext(path), []byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes project file contents. ext selects the syntax: ".toml",
// ".yaml" or ".yml".
func Parse(ext string, data []byte) (*Config, error) {
	cfg := &Config{}
	switch strings.ToLower(ext) {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse toml")
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown config key %q", undec[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse yaml")
		}
	default:
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unsupported config extension %q (want .toml, .yaml or .yml)", ext)
	}
	return cfg, nil
}

// Find looks for a project file in dir. It returns "" when there is none.
func Find(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Resolve loads path when set, otherwise the project file in dir if any.
// A missing project file is not an error; a missing explicit path is.
func Resolve(path, dir string) (*Config, error) {
	if path == "" {
		path = Find(dir)
	}
	if path == "" {
		return &Config{}, nil
	}
	return Load(path)
}

// PackOptions returns pipeline options seeded from the [pack] section.
func (c *Config) PackOptions() pipeline.Options {
	return pipeline.Options{
		SampleType:   c.Pack.SampleType,
		Dims:         c.Pack.Dims,
		Spacing:      c.Pack.Spacing,
		Origin:       c.Pack.Origin,
		Layout:       c.Pack.Layout,
		ScalarType:   c.Pack.ScalarType,
		VolumeFormat: c.Pack.Format,
	}
}

// ResampleOptions returns pipeline options seeded from the [resample] section.
func (c *Config) ResampleOptions() pipeline.Options {
	return pipeline.Options{
		Dims:         c.Resample.Dims,
		Resampler:    c.Resample.Resampler,
		VolumeFormat: c.Resample.Format,
	}
}

// ExtractOptions returns pipeline options seeded from the [extract] section.
func (c *Config) ExtractOptions() pipeline.Options {
	return pipeline.Options{
		TreeType:            c.Extract.TreeType,
		NoSegmentation:      c.Extract.WithSegmentation != nil && !*c.Extract.WithSegmentation,
		Tolerance:           c.Extract.Tolerance,
		ClassificationNames: c.Extract.ClassificationNames,
		ScalarNames:         c.Extract.ScalarNames,
		ParquetDir:          c.Extract.ParquetDir,
	}
}

// RenderOptions returns pipeline options seeded from the [render] section.
func (c *Config) RenderOptions() pipeline.Options {
	return pipeline.Options{
		Detailed: c.Render.Detailed,
		RankDir:  c.Render.RankDir,
	}
}
