package cli

// This file contains the view command for rendering reports in the terminal.

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/cse140l/digigrade/report"
	"github.com/urfave/cli/v2"
)

// viewTarget selects a report file or an archived report.
type viewTarget struct {
	path    string
	lab     int
	student string
}

func parseViewArgs(in []string) (viewTarget, error) {
	switch len(in) {
	case 1:
		if in[0] == "" {
			return viewTarget{}, fmt.Errorf("empty report path")
		}
		return viewTarget{path: in[0]}, nil
	case 2:
		lab, err := strconv.Atoi(in[0])
		if err != nil || lab <= 0 {
			return viewTarget{}, fmt.Errorf("invalid lab number: %s", in[0])
		}
		if in[1] == "" {
			return viewTarget{}, fmt.Errorf("empty student ID")
		}
		return viewTarget{lab: lab, student: in[1]}, nil
	default:
		return viewTarget{}, fmt.Errorf("expected REPORT or LAB STUDENT, got %d arguments", len(in))
	}
}

func (a *App) view(ctx *cli.Context) error {
	target, err := parseViewArgs(ctx.Args().Slice())
	if err != nil {
		return err
	}

	var doc report.ViewDocument
	if target.path != "" {
		feed, err := report.ReadFeedFile(target.path)
		if err != nil {
			return err
		}
		doc = report.ViewFromFeed(feed)
	} else {
		store, err := a.openArchive(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if doc, err = store.GetReport(ctx.Context, target.lab, target.student); err != nil {
			return err
		}
	}

	markdown := report.MarkdownRenderer{}.Document(doc)
	if ctx.Bool("plain") {
		fmt.Print(markdown)
		return nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		a.logger.Debug().Err(err).Msg("Failed to create markdown renderer")
		fmt.Print(markdown)
		return nil
	}

	out, err := renderer.Render(markdown)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = fmt.Fprint(os.Stdout, out)
	return err
}
