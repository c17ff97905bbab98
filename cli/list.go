package cli

// This file contains the list command for displaying previous grading runs.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cse140l/digigrade/model"
	"github.com/urfave/cli/v2"
)

func (a *App) list(ctx *cli.Context) error {
	limit := ctx.Int("limit")

	store, err := a.openArchive(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(ctx.Context, limit)
	if err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No grading runs found")
		return nil
	}

	fmt.Printf("\n=== Runs (%d shown) ===\n\n", len(runs))
	for _, run := range runs {
		fmt.Print(formatRun(run))
	}
	return nil
}

func formatRun(run model.Run) string {
	var b strings.Builder

	timestamp := run.Timestamp.Local().Format("2006-01-02 15:04:05")
	duration := run.Duration.Round(time.Millisecond)

	// Determine status indicator
	status := "✓"
	if run.Errors > 0 {
		status = "✗"
	}

	// Show short ID (first 8 chars)
	shortID := run.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	fmt.Fprintf(&b, "%s  %s  [%s]  lab=%d  score=%s/%s  id=%s\n", status, timestamp, duration, run.LabNumber,
		formatFloat(run.Score), formatFloat(run.MaxScore), shortID)
	if run.Student != "" {
		fmt.Fprintf(&b, "   Student: %s\n", run.Student)
	}
	if run.Errors > 0 {
		fmt.Fprintf(&b, "   Errors: %d\n", run.Errors)
	}
	// Format args (skip the program name)
	if len(run.Args) > 1 {
		fmt.Fprintf(&b, "   Args: %s\n", strings.Join(run.Args[1:], " "))
	}
	if run.ConfigPath != "" {
		fmt.Fprintf(&b, "   Config: %s\n", run.ConfigPath)
	}
	if run.Git != nil && run.Git.Commit != "" {
		shortCommit := run.Git.Commit
		if len(shortCommit) > 8 {
			shortCommit = shortCommit[:8]
		}
		fmt.Fprintf(&b, "   Commit: %s", shortCommit)
		if run.Git.Branch != "" {
			fmt.Fprintf(&b, " (%s)", run.Git.Branch)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
