package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/cse140l/digigrade/digital"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "digigrade"
const defaultArchive = "reports.db"

type App struct {
	logger  zerolog.Logger
	logFile *os.File
	cli     *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
	}
	app.cli = &cli.App{
		Name:  AppName,
		Usage: "Grade Digital circuit submissions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose (debug) logging",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write JSON log lines to this file instead of the console",
			},
		},
		Before: app.before,
		After:  app.after,
	}

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "grade",
		Usage:     "Run the test benches of a lab and write the autograder report",
		ArgsUsage: "CONFIG OUTPUT",
		Action:    app.grade,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "gradescope",
				Usage: "Use the Gradescope image locations for the simulator and submission",
			},
			&cli.StringSliceFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Existing report files whose tests are prepended to the report",
			},
			&cli.StringFlag{
				Name:  "submission-dir",
				Usage: "Directory holding the submitted circuits",
			},
			&cli.StringFlag{
				Name:    "jar",
				Usage:   "Path to the Digital.jar simulator (overrides the config)",
				EnvVars: []string{"DIGITAL_JAR"},
			},
			digital.TimeoutFlag(),
			&cli.BoolFlag{
				Name:  "images",
				Usage: "Embed a drawing of each submitted circuit in the report header",
			},
			&cli.StringFlag{
				Name:  "archive",
				Usage: "Also store the report in this archive database",
			},
			&cli.StringFlag{
				Name:  "student",
				Usage: "Student ID the archived report is stored under",
			},
			&cli.BoolFlag{
				Name:  "fail-on-error",
				Usage: "Exit with an error when a test could not be run",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "labels",
		Usage:     "Print the test case labels of a test bench",
		ArgsUsage: "TESTFILE",
		Action:    app.labels,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "stats",
		Usage:     "Print the gate statistics of a circuit",
		ArgsUsage: "CIRCUIT",
		Action:    app.stats,
		Flags: []cli.Flag{
			digital.JarFlag(),
			digital.JavaFlag(),
			digital.TimeoutFlag(),
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "verilog",
		Usage:  "Export the schematics of a directory to verilog",
		Action: app.verilog,
		Flags: []cli.Flag{
			digital.JarFlag(),
			digital.JavaFlag(),
			digital.TimeoutFlag(),
			&cli.StringFlag{
				Name:     "schematics",
				Aliases:  []string{"s"},
				Usage:    "Directory holding the .dig files",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "verilog",
				Aliases:  []string{"o"},
				Usage:    "Directory the .v files are written to",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "top-level",
				Aliases: []string{"t"},
				Usage:   "File listing the circuits to export, one per line",
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"r"},
				Usage:   "Write an autograder report of the export to this file",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:  "archive",
		Usage: "Manage the local report archive",
		Subcommands: []*cli.Command{
			{
				Name:      "put",
				Usage:     "Store a report file for a student",
				ArgsUsage: "LAB STUDENT REPORT",
				Action:    app.archivePut,
				Flags:     []cli.Flag{archiveFlag()},
			},
			{
				Name:      "get",
				Usage:     "Print the stored report of a student as JSON",
				ArgsUsage: "LAB STUDENT",
				Action:    app.archiveGet,
				Flags:     []cli.Flag{archiveFlag()},
			},
			{
				Name:   "list",
				Usage:  "List stored reports",
				Action: app.archiveList,
				Flags: []cli.Flag{
					archiveFlag(),
					&cli.IntFlag{
						Name:  "lab",
						Usage: "Only list reports of this lab",
					},
				},
			},
			{
				Name:   "runs",
				Usage:  "List previous grading runs",
				Action: app.list,
				Flags: []cli.Flag{
					archiveFlag(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Limit number of results (default: 20)",
						Value:   20,
					},
				},
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "view",
		Usage:     "Render a report in the terminal",
		ArgsUsage: "REPORT | LAB STUDENT",
		Action:    app.view,
		Flags: []cli.Flag{
			archiveFlag(),
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Print the markdown without terminal styling",
			},
		},
		Description: `Render a report in the terminal.

Arguments:
  REPORT         Render a report file written by grade
  LAB STUDENT    Render the archived report of a student

Examples:
  digigrade view results.json
  digigrade view --archive reports.db 3 A12345678`,
	})
	return app
}

func archiveFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "archive",
		Aliases: []string{"a"},
		Usage:   "Path to the report archive database",
		Value:   defaultArchive,
		EnvVars: []string{"DIGIGRADE_ARCHIVE"},
	}
}

func (a *App) before(ctx *cli.Context) error {
	if ctx.Bool("verbose") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if path := ctx.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = f
		a.logger = zerolog.New(f).With().Timestamp().Logger()
	}
	return nil
}

func (a *App) after(*cli.Context) error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		if len(commit) > 8 {
			commit = commit[:8]
		}
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	}
}

func (a *App) newClient(java, jar string, timeout time.Duration, threshold int) *digital.Client {
	runner := digital.NewExecRunner(a.logger, java, jar, timeout)
	return digital.New(a.logger, runner, digital.WithHarnessErrorThreshold(threshold))
}
