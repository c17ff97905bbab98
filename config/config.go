// Package config loads lab configuration files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cse140l/digigrade/digital"
	"github.com/cse140l/digigrade/model"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Gradescope image locations.
const (
	GradescopeJar           = digital.DefaultJar
	GradescopeSubmissionDir = "/autograder/submission"
)

var (
	// ErrInvalidVisibility is returned for an unknown visibility value.
	ErrInvalidVisibility = errors.New("invalid visibility")
	// ErrInvalidConfig is returned when a configured value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Gate bounds the number of gates of one shape.
type Gate struct {
	Name   string `toml:"name" yaml:"name"`
	Inputs int    `toml:"inputs" yaml:"inputs"`
	// Defaults to 1 when omitted; 0 matches any width
	BitWidth  *int `toml:"bit_width" yaml:"bit_width"`
	MaxAmount *int `toml:"max_amount" yaml:"max_amount"`
	MinAmount *int `toml:"min_amount" yaml:"min_amount"`
}

// Width returns the configured bit width.
func (g Gate) Width() int {
	if g.BitWidth == nil {
		return 1
	}
	return *g.BitWidth
}

// Analyze is a group of top-level circuits sharing gate constraints.
type Analyze struct {
	TopLevels []string `toml:"top_levels" yaml:"top_levels"`
	Gates     []Gate   `toml:"gates" yaml:"gates"`
}

// Test is one graded test bench.
type Test struct {
	Name                string           `toml:"name" yaml:"name"`
	MaxScore            float64          `toml:"max_score" yaml:"max_score"`
	TestFile            string           `toml:"test_file" yaml:"test_file"`
	TopLevel            string           `toml:"top_level" yaml:"top_level"`
	VisibilityOnSuccess model.Visibility `toml:"visibility_on_success" yaml:"visibility_on_success"`
	VisibilityOnFailure model.Visibility `toml:"visibility_on_failure" yaml:"visibility_on_failure"`
}

// Lab is the configuration of one lab assignment.
type Lab struct {
	DigitalJar            string    `toml:"digital_jar" yaml:"digital_jar"`
	Java                  string    `toml:"java" yaml:"java"`
	LabNumber             int       `toml:"lab_number" yaml:"lab_number"`
	SubmissionDirectory   string    `toml:"submission_directory" yaml:"submission_directory"`
	HarnessErrorThreshold *int      `toml:"harness_error_threshold" yaml:"harness_error_threshold"`
	Timeout               Duration  `toml:"timeout" yaml:"timeout"`
	Tests                 []Test    `toml:"tests" yaml:"tests"`
	Analyze               []Analyze `toml:"analyze" yaml:"analyze"`
}

// Options override values of the configuration file.
type Options struct {
	// Use the Gradescope image locations
	Gradescope bool
	// Submission directory, takes precedence over Gradescope
	SubmissionDir string
	// Simulator jar, takes precedence over Gradescope
	DigitalJar string
}

// Load reads the TOML or YAML configuration at path. Relative paths in the
// file are resolved against the file's directory.
func Load(logger zerolog.Logger, path string, opts Options) (*Lab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	lab, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	lab.resolve(dir)

	if opts.Gradescope {
		lab.DigitalJar = GradescopeJar
		lab.SubmissionDirectory = GradescopeSubmissionDir
	}
	if opts.DigitalJar != "" {
		lab.DigitalJar = absolute(opts.DigitalJar)
	}
	if opts.SubmissionDir != "" {
		lab.SubmissionDirectory = absolute(opts.SubmissionDir)
	}

	if err := lab.Validate(logger); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("config", path).
		Int("lab", lab.LabNumber).
		Int("tests", len(lab.Tests)).
		Int("analyze", len(lab.Analyze)).
		Msg("Loaded lab configuration")
	return lab, nil
}

// Parse decodes a configuration in the format named by ext (".toml",
// ".yaml" or ".yml") and applies defaults. Paths are left as written.
func Parse(data []byte, ext string) (*Lab, error) {
	lab := &Lab{}
	switch strings.ToLower(ext) {
	case ".toml":
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(lab)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown keys %v", ErrInvalidConfig, undecoded)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(lab); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, ext)
	}

	if lab.Java == "" {
		lab.Java = "java"
	}
	if lab.DigitalJar == "" {
		lab.DigitalJar = digital.DefaultJar
	}
	if lab.HarnessErrorThreshold == nil {
		threshold := digital.DefaultHarnessErrorThreshold
		lab.HarnessErrorThreshold = &threshold
	}
	return lab, nil
}

func (l *Lab) resolve(dir string) {
	l.DigitalJar = relativeTo(dir, l.DigitalJar)
	l.SubmissionDirectory = relativeTo(dir, l.SubmissionDirectory)
	for i := range l.Tests {
		l.Tests[i].TestFile = relativeTo(dir, l.Tests[i].TestFile)
	}
}

func relativeTo(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func absolute(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Validate checks the configuration. Missing test benches are fatal since
// they are part of the lab; missing student circuits are only logged.
func (l *Lab) Validate(logger zerolog.Logger) error {
	if l.LabNumber <= 0 {
		return fmt.Errorf("%w: lab_number must be positive, got %d", ErrInvalidConfig, l.LabNumber)
	}
	if l.Threshold() < 0 {
		return fmt.Errorf("%w: harness_error_threshold must not be negative", ErrInvalidConfig)
	}
	if l.Timeout.Duration < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	if l.SubmissionDirectory != "" {
		info, err := os.Stat(l.SubmissionDirectory)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: submission directory does not exist: %s", ErrInvalidConfig, l.SubmissionDirectory)
		}
	}

	for _, t := range l.Tests {
		if t.Name == "" {
			return fmt.Errorf("%w: test without a name", ErrInvalidConfig)
		}
		if t.MaxScore <= 0 {
			return fmt.Errorf("%w: test %q: max_score must be positive", ErrInvalidConfig, t.Name)
		}
		for _, v := range []model.Visibility{t.VisibilityOnSuccess, t.VisibilityOnFailure} {
			if v != "" && !v.Valid() {
				return fmt.Errorf("%w: test %q: %q", ErrInvalidVisibility, t.Name, v)
			}
		}
		if t.TopLevel == "" {
			return fmt.Errorf("%w: test %q: top_level is required", ErrInvalidConfig, t.Name)
		}
		if _, err := os.Stat(t.TestFile); err != nil {
			return fmt.Errorf("%w: test file does not exist: %s", ErrInvalidConfig, t.TestFile)
		}
		if schematic := l.SchematicPath(t.TopLevel); !exists(schematic) {
			logger.Error().Str("top_level", schematic).Msg("Top level does not exist")
		}
	}

	for _, a := range l.Analyze {
		for _, g := range a.Gates {
			if g.Name == "" {
				return fmt.Errorf("%w: gate constraint without a name", ErrInvalidConfig)
			}
			if g.Inputs < 0 || g.Width() < 0 {
				return fmt.Errorf("%w: gate %q: inputs and bit_width must not be negative", ErrInvalidConfig, g.Name)
			}
			if (g.MaxAmount != nil && *g.MaxAmount < 0) || (g.MinAmount != nil && *g.MinAmount < 0) {
				return fmt.Errorf("%w: gate %q: amounts must not be negative", ErrInvalidConfig, g.Name)
			}
		}
	}
	return nil
}

// SchematicPath returns where the submission of topLevel is expected.
func (l *Lab) SchematicPath(topLevel string) string {
	return filepath.Join(l.SubmissionDirectory, topLevel+".dig")
}

// TopLevels returns the distinct top-level circuits of all tests, sorted.
func (l *Lab) TopLevels() []string {
	seen := map[string]bool{}
	var names []string
	for _, t := range l.Tests {
		if !seen[t.TopLevel] {
			seen[t.TopLevel] = true
			names = append(names, t.TopLevel)
		}
	}
	sort.Strings(names)
	return names
}

// Threshold returns the harness error exit code threshold.
func (l *Lab) Threshold() int {
	if l.HarnessErrorThreshold == nil {
		return digital.DefaultHarnessErrorThreshold
	}
	return *l.HarnessErrorThreshold
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
