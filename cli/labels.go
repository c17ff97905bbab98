package cli

// This file contains the labels and stats commands for inspecting a
// single test bench or circuit.

import (
	"fmt"
	"strconv"

	"github.com/cse140l/digigrade/digital"
	"github.com/cse140l/digigrade/gatestats"
	"github.com/cse140l/digigrade/testbench"
	"github.com/urfave/cli/v2"
)

func (a *App) labels(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected one TESTFILE argument, got %d", ctx.NArg())
	}
	path := ctx.Args().First()

	labels := testbench.ExtractLabelsFile(path, a.logger)
	if len(labels) == 0 {
		fmt.Printf("No test cases found in %s\n", path)
		return nil
	}
	for _, label := range labels {
		fmt.Println(label)
	}
	return nil
}

func (a *App) stats(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected one CIRCUIT argument, got %d", ctx.NArg())
	}
	circuit := ctx.Args().First()

	client := a.newClient(ctx.String("java"), ctx.String("jar"), ctx.Duration("timeout"), digital.DefaultHarnessErrorThreshold)
	res, err := client.Stats(ctx.Context, circuit)
	if err != nil {
		return err
	}
	if res.Unavailable {
		return fmt.Errorf("gate statistics of %s are unavailable", circuit)
	}

	fmt.Print(formatStats(res.Stats))
	return nil
}

func formatStats(stats []gatestats.GateStat) string {
	out := fmt.Sprintf("%-16s %6s %5s %9s %6s\n", "NAME", "INPUTS", "BITS", "ADDR BITS", "COUNT")
	for _, s := range stats {
		out += fmt.Sprintf("%-16s %6s %5s %9s %6d\n", s.Name, optional(s.Inputs), optional(s.BitWidth), optional(s.AddrBitWidth), s.Count)
	}
	return out
}

func optional(v int) string {
	if v == 0 {
		return "-"
	}
	return strconv.Itoa(v)
}
