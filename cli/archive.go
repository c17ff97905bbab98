package cli

// This file contains the archive subcommands for storing and retrieving
// student reports.

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/cse140l/digigrade/archive"
	"github.com/cse140l/digigrade/report"
	"github.com/urfave/cli/v2"
)

func (a *App) openArchive(ctx *cli.Context) (*archive.Store, error) {
	return archive.Open(a.logger, ctx.String("archive"))
}

func parseLabStudent(args []string) (int, string, error) {
	if len(args) < 2 {
		return 0, "", fmt.Errorf("expected LAB and STUDENT arguments")
	}
	lab, err := strconv.Atoi(args[0])
	if err != nil || lab <= 0 {
		return 0, "", fmt.Errorf("invalid lab number: %s", args[0])
	}
	if args[1] == "" {
		return 0, "", fmt.Errorf("empty student ID")
	}
	return lab, args[1], nil
}

func (a *App) archivePut(ctx *cli.Context) error {
	args := ctx.Args().Slice()
	if len(args) != 3 {
		return fmt.Errorf("expected LAB STUDENT REPORT arguments, got %d", len(args))
	}
	lab, student, err := parseLabStudent(args)
	if err != nil {
		return err
	}

	doc, err := report.ReadFeedFile(args[2])
	if err != nil {
		return err
	}

	store, err := a.openArchive(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.PutReport(ctx.Context, lab, student, report.ViewFromFeed(doc))
}

func (a *App) archiveGet(ctx *cli.Context) error {
	lab, student, err := parseLabStudent(ctx.Args().Slice())
	if err != nil {
		return err
	}

	store, err := a.openArchive(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	view, err := store.GetReport(ctx.Context, lab, student)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func (a *App) archiveList(ctx *cli.Context) error {
	store, err := a.openArchive(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(ctx.Context, ctx.Int("lab"))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No reports found")
		return nil
	}

	fmt.Printf("\n=== Reports (%d total) ===\n\n", len(entries))
	for _, e := range entries {
		fmt.Printf("lab=%d  student=%s  updated=%s\n", e.LabNumber, e.Student, e.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Println()
	return nil
}
