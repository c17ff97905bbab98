// Package gatestats parses the gate statistics table printed by the
// simulator and matches it against configured gate constraints.
package gatestats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column order of the stats table.
const (
	colName = iota
	colInputs
	colBitWidth
	colAddrBitWidth
	colCount
	numColumns
)

// GateStat is one row of the stats table. Zero means the cell was empty.
type GateStat struct {
	Name         string // upper-cased
	Count        int
	Inputs       int
	BitWidth     int
	AddrBitWidth int
}

// GateConstraint bounds how many gates of one shape a circuit may use.
// A zero Inputs or BitWidth matches any value.
type GateConstraint struct {
	Name      string
	Inputs    int
	BitWidth  int
	MaxAmount *int
	MinAmount *int
}

// Result is the outcome of fetching statistics for one circuit.
type Result struct {
	Stats []GateStat
	// Set when the stats invocation failed. Stats is then empty and
	// every constraint resolves to a count of zero.
	Unavailable bool
}

// Parse reads a stats table. The first row is a header and is discarded.
func Parse(r io.Reader) ([]GateStat, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []GateStat{}, nil
		}
		return nil, fmt.Errorf("failed to read stats header: %w", err)
	}

	stats := []GateStat{}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read stats row %d: %w", row, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		stat, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("invalid stats row %d: %w", row, err)
		}
		stats = append(stats, stat)
	}

	return stats, nil
}

func parseRecord(record []string) (GateStat, error) {
	if len(record) < numColumns {
		return GateStat{}, fmt.Errorf("expected %d columns, got %d", numColumns, len(record))
	}

	count, err := strconv.Atoi(strings.TrimSpace(record[colCount]))
	if err != nil {
		return GateStat{}, fmt.Errorf("invalid count %q", record[colCount])
	}

	stat := GateStat{
		Name:  strings.ToUpper(strings.TrimSpace(record[colName])),
		Count: count,
	}
	if stat.Inputs, err = optionalInt(record[colInputs]); err != nil {
		return GateStat{}, fmt.Errorf("invalid inputs: %w", err)
	}
	if stat.BitWidth, err = optionalInt(record[colBitWidth]); err != nil {
		return GateStat{}, fmt.Errorf("invalid bit width: %w", err)
	}
	if stat.AddrBitWidth, err = optionalInt(record[colAddrBitWidth]); err != nil {
		return GateStat{}, fmt.Errorf("invalid address bit width: %w", err)
	}
	return stat, nil
}

func optionalInt(cell string) (int, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, nil
	}
	return strconv.Atoi(cell)
}

// Matches reports whether s is a gate of the shape described by c.
func (s GateStat) Matches(c GateConstraint) bool {
	if !strings.EqualFold(s.Name, c.Name) {
		return false
	}
	if c.Inputs != 0 && c.Inputs != s.Inputs {
		return false
	}
	if c.BitWidth != 0 && c.BitWidth != s.BitWidth {
		return false
	}
	return true
}

// Count returns the number of gates in stats matching c. A constraint with
// a zero Inputs or BitWidth is a wildcard, so every row it matches is summed
// rather than taking the first one. A gate type that is absent counts zero.
func Count(stats []GateStat, c GateConstraint) int {
	total := 0
	for _, s := range stats {
		if s.Matches(c) {
			total += s.Count
		}
	}
	return total
}

// Shape describes the gates c applies to, e.g. "2-input 1 wide AND".
func (c GateConstraint) Shape() string {
	var b strings.Builder
	if c.Inputs != 0 {
		fmt.Fprintf(&b, "%d-input ", c.Inputs)
	}
	if c.BitWidth != 0 {
		fmt.Fprintf(&b, "%d wide ", c.BitWidth)
	}
	b.WriteString(strings.ToUpper(c.Name))
	return b.String()
}

// Violations returns a message for every bound of c that count breaks.
func (c GateConstraint) Violations(count int) []string {
	var msgs []string
	if c.MaxAmount != nil && count > *c.MaxAmount {
		msgs = append(msgs, fmt.Sprintf("uses %dx %s gates, more than the allowed %d", count, c.Shape(), *c.MaxAmount))
	}
	if c.MinAmount != nil && count < *c.MinAmount {
		msgs = append(msgs, fmt.Sprintf("uses %dx %s gates, fewer than the required %d", count, c.Shape(), *c.MinAmount))
	}
	return msgs
}
