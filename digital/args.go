package digital

// args.go contains utilities for building simulator CLI commands.

import (
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/urfave/cli/v2"
)

// DefaultJar is where the Gradescope image installs the simulator.
const DefaultJar = "/usr/local/bin/Digital.jar"

// TestOptions contains options for the test command.
type TestOptions struct {
	Circuit string // Circuit under test
	Tests   string // File holding the test cases
	Verbose bool   // Print failure tables (-verbose flag)
}

// StatsOptions contains options for the stats command.
type StatsOptions struct {
	Circuit string // Circuit to count gates of
	CSV     string // Optional file to also write the table to
}

// SVGOptions contains options for the svg export command.
type SVGOptions struct {
	Circuit string // Circuit to draw
	Output  string // Optional output file, stdout otherwise
	IEEE    bool   // Use IEEE gate shapes
}

// VerilogOptions contains options for the verilog export command.
type VerilogOptions struct {
	Circuit string // Circuit to export
	Output  string // Destination .v file
}

// BuildTestArgs builds arguments for running a circuit's test cases.
func BuildTestArgs(opts TestOptions) []string {
	args := []string{"test", "-circ", opts.Circuit, "-tests", opts.Tests}
	if opts.Verbose {
		args = append(args, "-verbose")
	}
	return args
}

// BuildStatsArgs builds arguments for printing gate statistics.
func BuildStatsArgs(opts StatsOptions) []string {
	args := []string{"stats", "-dig", opts.Circuit}
	if opts.CSV != "" {
		args = append(args, "-csv", opts.CSV)
	}
	return args
}

// BuildSVGArgs builds arguments for exporting a circuit drawing.
func BuildSVGArgs(opts SVGOptions) []string {
	args := []string{"svg"}
	if opts.IEEE {
		args = append(args, "-ieee")
	}
	args = append(args, "-dig", opts.Circuit)
	if opts.Output != "" {
		args = append(args, "-svg", opts.Output)
	}
	return args
}

// BuildVerilogArgs builds arguments for exporting a circuit to verilog.
func BuildVerilogArgs(opts VerilogOptions) []string {
	return []string{"verilog", "-dig", opts.Circuit, "-verilog", opts.Output}
}

// CommandLine joins argv with proper shell escaping, for logging.
func CommandLine(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, arg := range argv {
		parts = append(parts, shellescape.Quote(arg))
	}
	return strings.Join(parts, " ")
}

// JarFlag returns the flag selecting the simulator jar.
func JarFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "jar",
		Aliases: []string{"j"},
		Usage:   "Path to the Digital.jar simulator",
		Value:   DefaultJar,
		EnvVars: []string{"DIGITAL_JAR"},
	}
}

// JavaFlag returns the flag selecting the java executable.
func JavaFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "java",
		Usage: "Java executable used to launch the simulator",
		Value: "java",
	}
}

// TimeoutFlag returns the flag bounding each simulator invocation.
func TimeoutFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Abort a simulator invocation after this long (0 waits forever)",
	}
}
