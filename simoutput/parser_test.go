package simoutput

import (
	"testing"

	"github.com/cse140l/digigrade/model"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParser_ParseFailureTable(t *testing.T) {
	output := `test_1234+2341: failed (100%)
OPERAND_ONE OPERAND_TWO ERROR_FLAGS SUM
0x1234 0x2341 E: 7 / F: 0 3BDB

`

	outcomes := New(zerolog.Nop()).Parse(output, []string{"test_1234+2341"})

	require.Len(t, outcomes, 1)
	o := outcomes[0]
	require.Equal(t, "test_1234+2341", o.Name)
	require.Equal(t, model.StatusFailed, o.Status)
	require.False(t, o.Synthetic)
	require.Equal(t, []string{"OPERAND_ONE", "OPERAND_TWO", "ERROR_FLAGS", "SUM"}, o.Signals)
	require.Equal(t, []model.Step{{
		"OPERAND_ONE": "0x1234",
		"OPERAND_TWO": "0x2341",
		"ERROR_FLAGS": "7/0",
		"SUM":         "3BDB",
	}}, o.Steps)
}

func TestParser_ParsePassed(t *testing.T) {
	outcomes := New(zerolog.Nop()).Parse("test_999: passed", []string{"test_999"})

	require.Len(t, outcomes, 1)
	require.Equal(t, model.StatusPassed, outcomes[0].Status)
	require.Empty(t, outcomes[0].Steps)
	require.Empty(t, outcomes[0].Signals)
}

func TestParser_ParseMixed(t *testing.T) {
	output := `adder_basic: passed
adder_carry: failed (25%)
a b cin s cout
1 1 1 E: 1 / F: 0 1
0 1 1 0 E: 1 / F: 0

adder_overflow: passed`

	labels := []string{"adder_basic", "adder_carry", "adder_overflow"}
	outcomes := New(zerolog.Nop()).Parse(output, labels)

	require.Len(t, outcomes, 3)
	require.Equal(t, model.StatusPassed, outcomes[0].Status)
	require.Equal(t, model.StatusFailed, outcomes[1].Status)
	require.Equal(t, model.StatusPassed, outcomes[2].Status)

	require.Equal(t, []string{"A", "B", "CIN", "S", "COUT"}, outcomes[1].Signals)
	require.Equal(t, []model.Step{
		{"A": "1", "B": "1", "CIN": "1", "S": "1/0", "COUT": "1"},
		{"A": "0", "B": "1", "CIN": "1", "S": "0", "COUT": "1/0"},
	}, outcomes[1].Steps)
}

func TestParser_LabelOrderFollowsExpectations(t *testing.T) {
	output := "second: passed\nfirst: failed\n"
	outcomes := New(zerolog.Nop()).Parse(output, []string{"first", "second"})

	require.Len(t, outcomes, 2)
	require.Equal(t, "first", outcomes[0].Name)
	require.Equal(t, "second", outcomes[1].Name)
}

func TestParser_LabelIsLiteral(t *testing.T) {
	tests := []struct {
		name   string
		label  string
		output string
		found  bool
	}{
		{name: "plus sign", label: "test_1+2", output: "test_1+2: passed", found: true},
		{name: "plus is not a quantifier", label: "test_1+2", output: "test_112: passed", found: false},
		{name: "dot is not a wildcard", label: "a.b", output: "axb: passed", found: false},
		{name: "parentheses", label: "mux(4)", output: "mux(4): passed", found: true},
		{name: "brackets", label: "[edge]", output: "e: passed", found: false},
		{name: "prefix of another label", label: "test_1", output: "test_10: passed", found: false},
		{name: "leading whitespace", label: "t", output: "   t: passed", found: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcomes := New(zerolog.Nop()).Parse(tt.output, []string{tt.label})
			if tt.found {
				require.Len(t, outcomes, 1)
				require.Equal(t, model.StatusPassed, outcomes[0].Status)
			} else {
				require.Empty(t, outcomes)
			}
		})
	}
}

func TestParser_StatusClassification(t *testing.T) {
	tests := []struct {
		text string
		want model.Status
	}{
		{text: "passed", want: model.StatusPassed},
		{text: "  PASSED  ", want: model.StatusPassed},
		{text: "failed (50%)", want: model.StatusFailed},
		{text: "Failed", want: model.StatusFailed},
		{text: "passed with warnings", want: model.StatusError},
		{text: "Signal S not found in circuit", want: model.StatusError},
		{text: "", want: model.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			require.Equal(t, tt.want, classify(tt.text))
		})
	}
}

func TestParser_ErrorStatusIsSynthetic(t *testing.T) {
	outcomes := New(zerolog.Nop()).Parse("alu_test: Signal OUT not found", []string{"alu_test"})

	require.Len(t, outcomes, 1)
	require.Equal(t, model.StatusError, outcomes[0].Status)
	require.True(t, outcomes[0].Synthetic)
	require.Equal(t, "Signal OUT not found", outcomes[0].Output)
	require.Empty(t, outcomes[0].Steps)
}

func TestParser_MissingLabelsAreSkipped(t *testing.T) {
	outcomes := New(zerolog.Nop()).Parse("b: passed", []string{"a", "b", "c"})

	require.Len(t, outcomes, 1)
	require.Equal(t, "b", outcomes[0].Name)
}

func TestParser_NoTestCasesFound(t *testing.T) {
	p := New(zerolog.Nop())

	require.Empty(t, p.Parse("anything: passed", nil))
	require.Empty(t, p.Parse("", []string{"a"}))
}

func TestParser_UnevenRows(t *testing.T) {
	output := `t: failed
A B C
1 2
1 2 3 4
`
	outcomes := New(zerolog.Nop()).Parse(output, []string{"t"})

	require.Len(t, outcomes, 1)
	require.Equal(t, []model.Step{
		{"A": "1", "B": "2"},
		{"A": "1", "B": "2", "C": "3"},
	}, outcomes[0].Steps)
}

func TestParser_FailedWithoutTable(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{name: "end of output", output: "t: failed"},
		{name: "blank line", output: "t: failed\n\nA B\n1 0\n"},
		{name: "next status line", output: "t: failed\nu: passed\n"},
		{name: "header without rows", output: "t: failed\nA B\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcomes := New(zerolog.Nop()).Parse(tt.output, []string{"t"})
			require.Len(t, outcomes, 1)
			require.Equal(t, model.StatusFailed, outcomes[0].Status)
			require.Empty(t, outcomes[0].Signals)
			require.Empty(t, outcomes[0].Steps)
		})
	}
}

func TestParser_TableStopsAtNextStatusLine(t *testing.T) {
	output := "t: failed\nA B\n1 0\nu: passed\n"
	outcomes := New(zerolog.Nop()).Parse(output, []string{"t", "u"})

	require.Len(t, outcomes, 2)
	require.Equal(t, []model.Step{{"A": "1", "B": "0"}}, outcomes[0].Steps)
	require.Equal(t, model.StatusPassed, outcomes[1].Status)
}

func TestParser_Deterministic(t *testing.T) {
	output := "x: failed\nA B\nE: 1 / F: 0 1\n\ny: passed\nz: timeout\n"
	labels := []string{"x", "y", "z"}

	first := New(zerolog.Nop()).Parse(output, labels)
	second := New(zerolog.Nop()).Parse(output, labels)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Parse is not deterministic (-first +second):\n%s", diff)
	}
}

func TestHarnessError(t *testing.T) {
	o := HarnessError("tests/adder.dig", "out", "java.io.FileNotFoundException", 101)

	require.Equal(t, "tests/adder.dig", o.Name)
	require.Equal(t, model.StatusError, o.Status)
	require.True(t, o.Synthetic)
	require.Equal(t, "STDOUT: out\nSTDERR: java.io.FileNotFoundException\nERR:101", o.Output)
}
