// Package digital drives the Digital circuit simulator's command line
// interface and interprets what it prints.
package digital

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cse140l/digigrade/gatestats"
	"github.com/cse140l/digigrade/model"
	"github.com/cse140l/digigrade/simoutput"
	"github.com/cse140l/digigrade/testbench"
	"github.com/rs/zerolog"
)

// DefaultHarnessErrorThreshold is the exit code above which the simulator
// reports an environment problem (missing file, bad circuit) rather than
// test results.
const DefaultHarnessErrorThreshold = 100

// ErrMissingInput is returned when a required input path does not exist.
var ErrMissingInput = errors.New("input not found")

// Client runs simulator commands.
type Client struct {
	logger                zerolog.Logger
	runner                Runner
	parser                *simoutput.Parser
	harnessErrorThreshold int
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithHarnessErrorThreshold sets the exit code above which a test run is
// treated as a harness failure.
func WithHarnessErrorThreshold(code int) Option {
	return func(c *Client) {
		c.harnessErrorThreshold = code
	}
}

// New creates a client that launches the simulator through runner.
func New(logger zerolog.Logger, runner Runner, opts ...Option) *Client {
	c := &Client{
		logger:                logger,
		runner:                runner,
		parser:                simoutput.New(logger),
		harnessErrorThreshold: DefaultHarnessErrorThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunTest runs the test cases of testFile against schematic. Missing inputs
// and harness failures yield synthetic outcomes instead of parsed ones; an
// empty slice means the output held none of the expected test cases.
func (c *Client) RunTest(ctx context.Context, schematic, testFile string) []model.TestOutcome {
	var missing []model.TestOutcome
	for _, path := range []string{testFile, schematic} {
		if !exists(path) {
			c.logger.Warn().Str("file", path).Msg("Test input not found")
			missing = append(missing, model.Missing(path))
		}
	}
	if len(missing) > 0 {
		return missing
	}

	args := BuildTestArgs(TestOptions{Circuit: schematic, Tests: testFile, Verbose: true})
	res, err := c.runner.Run(ctx, args)
	if err != nil {
		c.logger.Error().Err(err).Str("tests", testFile).Msg("Failed to run simulator")
		return []model.TestOutcome{simoutput.HarnessError(testFile, string(res.Stdout), err.Error(), -1)}
	}

	if res.ExitCode > c.harnessErrorThreshold {
		c.logger.Debug().
			Str("tests", testFile).
			Int("exit_code", res.ExitCode).
			Msg("Simulator reported a harness error")
		return []model.TestOutcome{simoutput.HarnessError(testFile, string(res.Stdout), string(res.Stderr), res.ExitCode)}
	}

	labels := testbench.ExtractLabelsFile(testFile, c.logger)
	return c.parser.Parse(strings.TrimSpace(string(res.Stdout)), labels)
}

// Stats returns the gate statistics of schematic. A failing invocation is
// not an error: it yields a Result flagged Unavailable with no stats.
func (c *Client) Stats(ctx context.Context, schematic string) (gatestats.Result, error) {
	res, err := c.runner.Run(ctx, BuildStatsArgs(StatsOptions{Circuit: schematic}))
	if err != nil || res.ExitCode != 0 {
		c.logger.Warn().
			Err(err).
			Int("exit_code", res.ExitCode).
			Str("circuit", schematic).
			Msg("Gate statistics unavailable")
		return gatestats.Result{Stats: []gatestats.GateStat{}, Unavailable: true}, nil
	}

	stats, err := gatestats.Parse(bytes.NewReader(res.Stdout))
	if err != nil {
		return gatestats.Result{}, fmt.Errorf("failed to parse stats of %s: %w", schematic, err)
	}
	return gatestats.Result{Stats: stats}, nil
}

// ExportSVG returns an IEEE-style drawing of schematic.
func (c *Client) ExportSVG(ctx context.Context, schematic string) (string, error) {
	res, err := c.runner.Run(ctx, BuildSVGArgs(SVGOptions{Circuit: schematic, IEEE: true}))
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("svg export of %s failed with exit code %d: %s", schematic, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	return string(res.Stdout), nil
}

// Export is the outcome of exporting one schematic to verilog.
type Export struct {
	Schematic string
	Verilog   string
	ExitCode  int
	Err       error
}

// Succeeded reports whether the export produced a verilog file.
func (e Export) Succeeded() bool {
	return e.Err == nil && e.ExitCode == 0
}

// ExportVerilog exports a single schematic.
func (c *Client) ExportVerilog(ctx context.Context, schematic, output string) Export {
	exp := Export{Schematic: schematic, Verilog: output}
	res, err := c.runner.Run(ctx, BuildVerilogArgs(VerilogOptions{Circuit: schematic, Output: output}))
	exp.ExitCode = res.ExitCode
	exp.Err = err
	return exp
}

// ExportSchematics exports every .dig file in schematicDir into verilogDir.
// When topLevels is non-empty only schematics with those base names are
// exported.
func (c *Client) ExportSchematics(ctx context.Context, schematicDir, verilogDir string, topLevels []string) ([]Export, error) {
	info, err := os.Stat(schematicDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMissingInput, schematicDir)
	}
	if err := os.MkdirAll(verilogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create verilog directory: %w", err)
	}

	entries, err := os.ReadDir(schematicDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list schematics: %w", err)
	}

	wanted := make(map[string]bool, len(topLevels))
	for _, name := range topLevels {
		wanted[name] = true
	}

	var schematics []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".dig" {
			continue
		}
		stem := strings.TrimSuffix(name, ".dig")
		if len(wanted) > 0 && !wanted[stem] {
			continue
		}
		schematics = append(schematics, name)
	}
	sort.Strings(schematics)

	exports := make([]Export, 0, len(schematics))
	for _, name := range schematics {
		stem := strings.TrimSuffix(name, ".dig")
		exp := c.ExportVerilog(ctx, filepath.Join(schematicDir, name), filepath.Join(verilogDir, stem+".v"))
		if !exp.Succeeded() {
			c.logger.Warn().
				Err(exp.Err).
				Int("exit_code", exp.ExitCode).
				Str("schematic", exp.Schematic).
				Msg("Verilog export failed")
		}
		exports = append(exports, exp)
	}
	return exports, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
