package cli

// This file contains the grade command that runs a lab's tests and
// writes the autograder report.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cse140l/digigrade/archive"
	"github.com/cse140l/digigrade/config"
	"github.com/cse140l/digigrade/grader"
	"github.com/cse140l/digigrade/model"
	"github.com/cse140l/digigrade/report"
	"github.com/urfave/cli/v2"
)

var errTestErrors = errors.New("some tests could not be run")

func (a *App) grade(ctx *cli.Context) error {
	startTime := time.Now()

	if ctx.NArg() != 2 {
		return fmt.Errorf("expected CONFIG and OUTPUT arguments, got %d", ctx.NArg())
	}
	configPath := ctx.Args().Get(0)
	outputPath := ctx.Args().Get(1)

	if ctx.String("archive") != "" && ctx.String("student") == "" {
		return fmt.Errorf("--archive requires --student")
	}

	lab, err := config.Load(a.logger, configPath, config.Options{
		Gradescope:    ctx.Bool("gradescope"),
		SubmissionDir: ctx.String("submission-dir"),
		DigitalJar:    ctx.String("jar"),
	})
	if err != nil {
		a.logger.Error().Err(err).Str("config", configPath).Msg("Failed to load lab configuration")
		return err
	}

	timeout := lab.Timeout.Duration
	if ctx.IsSet("timeout") {
		timeout = ctx.Duration("timeout")
	}
	client := a.newClient(lab.Java, lab.DigitalJar, timeout, lab.Threshold())

	a.logger.Info().
		Int("lab", lab.LabNumber).
		Str("submission", lab.SubmissionDirectory).
		Int("tests", len(lab.Tests)).
		Msg("Grading submission")

	res, err := grader.New(a.logger, lab, client,
		grader.WithImages(ctx.Bool("images")),
		grader.WithExistingResults(ctx.StringSlice("json")...),
	).Grade(ctx.Context)
	if err != nil {
		return err
	}

	if err := res.Report.WriteFile(outputPath); err != nil {
		return err
	}
	a.logger.Info().Str("path", outputPath).Msg("Report written")

	if err := report.PrintSummary(os.Stdout, res.Report.Tests()); err != nil {
		return err
	}

	if path := ctx.String("archive"); path != "" {
		if err := a.archiveGrade(ctx, path, configPath, lab, res, startTime); err != nil {
			a.logger.Warn().Err(err).Str("archive", path).Msg("Failed to archive report")
		}
	}

	if ctx.Bool("fail-on-error") && res.Errors > 0 {
		return fmt.Errorf("%w: %d of %d", errTestErrors, res.Errors, len(lab.Tests))
	}
	return nil
}

func (a *App) archiveGrade(ctx *cli.Context, path, configPath string, lab *config.Lab, res *grader.Result, startTime time.Time) error {
	store, err := archive.Open(a.logger, path)
	if err != nil {
		return err
	}
	defer store.Close()

	student := ctx.String("student")
	if err := store.PutReport(ctx.Context, lab.LabNumber, student, res.Report.View()); err != nil {
		return err
	}

	score, max := res.Report.Score()
	run := &model.Run{
		Timestamp:  startTime,
		Args:       os.Args,
		ConfigPath: configPath,
		LabNumber:  lab.LabNumber,
		Student:    student,
		Score:      score,
		MaxScore:   max,
		Errors:     res.Errors,
		Duration:   time.Since(startTime),
	}
	if abs, err := filepath.Abs(configPath); err == nil {
		run.ConfigPath = abs
	}

	// Capture git info of the lab repository (non-fatal if it fails)
	if git, err := a.getGitInfo(filepath.Dir(run.ConfigPath)); err == nil {
		run.Git = git
	} else {
		a.logger.Debug().Err(err).Msg("No git information for lab configuration")
	}

	return store.RecordRun(ctx.Context, run)
}
