package cli

// This file contains the verilog command that exports schematics.

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cse140l/digigrade/digital"
	"github.com/cse140l/digigrade/model"
	"github.com/cse140l/digigrade/report"
	"github.com/urfave/cli/v2"
)

const verilogTestName = "Exporting Schematics to Verilog"

func (a *App) verilog(ctx *cli.Context) error {
	var topLevels []string
	if path := ctx.String("top-level"); path != "" {
		names, err := readLines(path)
		if err != nil {
			return fmt.Errorf("failed to read top level list: %w", err)
		}
		topLevels = names
	}

	client := a.newClient(ctx.String("java"), ctx.String("jar"), ctx.Duration("timeout"), digital.DefaultHarnessErrorThreshold)
	exports, err := client.ExportSchematics(ctx.Context, ctx.String("schematics"), ctx.String("verilog"), topLevels)
	if err != nil {
		return err
	}

	failed := 0
	for _, exp := range exports {
		status := "ok"
		if !exp.Succeeded() {
			status = "failed"
			failed++
		}
		fmt.Printf("%s -> %s: %s\n", exp.Schematic, exp.Verilog, status)
	}
	a.logger.Info().Int("exported", len(exports)-failed).Int("failed", failed).Msg("Verilog export finished")

	if path := ctx.String("report"); path != "" {
		b := report.NewBuilder(a.logger, report.MarkdownRenderer{})
		if err := b.Add(verilogResult(exports)); err != nil {
			return err
		}
		r, err := b.Build()
		if err != nil {
			return err
		}
		if err := r.WriteFile(path); err != nil {
			return err
		}
	}
	return nil
}

// verilogResult summarizes an export as a zero-point test. It fails when
// any schematic could not be exported.
func verilogResult(exports []digital.Export) model.TestResult {
	res := model.TestResult{
		Name:       verilogTestName,
		Status:     model.StatusPassed,
		Visibility: model.VisibilityVisible,
	}

	lines := make([]string, 0, len(exports))
	for _, exp := range exports {
		status := "Passed"
		if !exp.Succeeded() {
			status = "Failed"
			res.Status = model.StatusFailed
		}
		lines = append(lines, fmt.Sprintf("`%s`: %s", exp.Schematic, status))
	}
	if len(lines) > 0 {
		res.Output = strings.Join(lines, "\n\n")
		res.OutputFormat = model.FormatMarkdown
	}
	return res
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
