package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cse140l/digigrade/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const existingFeed = `{"tests":[{"name":"Manual Review","number":"1.1","status":"passed","score":5,"max_score":5,"visibility":"visible","name_format":"text","tags":["manual"]}]}`

func failedResult() model.TestResult {
	return Score(adderTest, []model.TestOutcome{
		model.Passed("add_small", ""),
		model.Failed("add_carry", "raw", []string{"A", "S"}, []model.Step{{"A": "0xF", "S": "E: 1 / F: 0"}}),
	})
}

func TestBuilder_AppendsToExistingResults(t *testing.T) {
	b := NewBuilder(zerolog.Nop(), MarkdownRenderer{})
	require.NoError(t, b.Load(strings.NewReader(existingFeed)))
	require.NoError(t, b.Add(failedResult()))
	require.NoError(t, b.Add(model.TestResult{Name: "Manual Review", Status: model.StatusFailed, MaxScore: 5}))

	r, err := b.Build()
	require.NoError(t, err)

	tests := r.Tests()
	require.Len(t, tests, 3)
	assert.Equal(t, "Manual Review", tests[0].Name)
	assert.Equal(t, "1.1", tests[0].Number)
	assert.Equal(t, []string{"manual"}, tests[0].Tags)
	assert.Equal(t, "Adder", tests[1].Name)
	assert.Equal(t, "Manual Review", tests[2].Name)

	score, max := r.Score()
	assert.InDelta(t, 10.0, score, 1e-9)
	assert.InDelta(t, 20.0, max, 1e-9)
}

func TestBuilder_Merge(t *testing.T) {
	b := NewBuilder(zerolog.Nop(), MarkdownRenderer{})
	require.NoError(t, b.Load(strings.NewReader(existingFeed)))
	require.NoError(t, b.Merge(model.TestResult{Name: "Manual Review", Status: model.StatusFailed, MaxScore: 5}))
	require.NoError(t, b.Merge(model.TestResult{Name: "New", Status: model.StatusPassed, Score: 1, MaxScore: 1}))

	r, err := b.Build()
	require.NoError(t, err)
	tests := r.Tests()
	require.Len(t, tests, 2)
	assert.Equal(t, model.StatusFailed, tests[0].Status)
	assert.Equal(t, "New", tests[1].Name)
}

func TestBuilder_RendersFailureTables(t *testing.T) {
	b := NewBuilder(zerolog.Nop(), MarkdownRenderer{})
	require.NoError(t, b.Add(failedResult()))
	r, err := b.Build()
	require.NoError(t, err)

	res := r.Tests()[0]
	assert.Equal(t, model.FormatMarkdown, res.OutputFormat)
	assert.Equal(t, "#### add_carry\n\n| A | S |\n| --- | --- |\n| 0xF | E: 1 / F: 0 |\n", res.Output)
}

func TestBuilder_Sealed(t *testing.T) {
	b := NewBuilder(zerolog.Nop(), MarkdownRenderer{})
	_, err := b.Build()
	require.NoError(t, err)

	require.ErrorIs(t, b.Add(model.TestResult{}), ErrSealed)
	require.ErrorIs(t, b.Merge(model.TestResult{}), ErrSealed)
	require.ErrorIs(t, b.SetHeader(Header{}), ErrSealed)
	require.ErrorIs(t, b.SetDiagnostics(nil), ErrSealed)
	require.ErrorIs(t, b.Load(strings.NewReader(existingFeed)), ErrSealed)
	_, err = b.Build()
	require.ErrorIs(t, err, ErrSealed)
}

func TestBuilder_LoadErrors(t *testing.T) {
	b := NewBuilder(zerolog.Nop(), MarkdownRenderer{})
	require.Error(t, b.Load(strings.NewReader("{")))
	require.Error(t, b.LoadFile(filepath.Join(t.TempDir(), "missing.json")))
}

func TestBuilder_Header(t *testing.T) {
	b := NewBuilder(zerolog.Nop(), MarkdownRenderer{})
	require.NoError(t, b.SetDiagnostics(model.AnalysisFailures{"decoder": {"decoder not found!"}}, "decoder"))
	require.NoError(t, b.SetHeader(Header{
		LabNumber: 3,
		Circuits:  []Circuit{{Name: "alu"}},
	}))
	require.NoError(t, b.SetDiagnostics(model.AnalysisFailures{"alu": {"uses 5x AND gates, more than the allowed 4"}}, "decoder"))

	r, err := b.Build()
	require.NoError(t, err)

	feed := r.Feed()
	assert.Equal(t, model.FormatMarkdown, feed.OutputFormat)
	assert.Equal(t, `## Lab 3

### alu

- uses 5x AND gates, more than the allowed 4

### decoder

- decoder not found!

### Missing circuits

- decoder.dig
`, feed.Output)

	view := r.View()
	require.NotNil(t, view.Header)
	assert.Equal(t, []string{"decoder"}, view.Header.Missing)
	assert.Equal(t, model.AnalysisFailures{
		"alu":     {"uses 5x AND gates, more than the allowed 4"},
		"decoder": {"decoder not found!"},
	}, view.Header.Diagnostics)
}

func TestReport_View(t *testing.T) {
	b := NewBuilder(zerolog.Nop(), MarkdownRenderer{})
	require.NoError(t, b.Add(failedResult()))
	r, err := b.Build()
	require.NoError(t, err)

	view := r.View()
	require.Len(t, view.Tests, 1)
	require.Len(t, view.Tests[0].Outcomes, 1)
	outcome := view.Tests[0].Outcomes[0]
	assert.Equal(t, "add_carry", outcome.Name)
	assert.Empty(t, outcome.Output)
	assert.Equal(t, Value{Raw: "0xF", Bin: "1111", Dec: "15"}, outcome.Steps[0]["A"])
	assert.Equal(t, Value{Raw: "E: 1 / F: 0"}, outcome.Steps[0]["S"])

	doc := MarkdownRenderer{}.Document(view)
	assert.Contains(t, doc, "## Adder")
	assert.Contains(t, doc, "| 0xF (0b1111, 15) |")
}

func TestReport_WriteFile(t *testing.T) {
	b := NewBuilder(zerolog.Nop(), MarkdownRenderer{})
	require.NoError(t, b.Add(failedResult()))
	r, err := b.Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "failures")
	assert.NotContains(t, string(data), `"output_format": ""`)

	doc, err := ReadFeedFile(path)
	require.NoError(t, err)
	require.Len(t, doc.Tests, 1)
	assert.Equal(t, 5.0, doc.Tests[0].Score)
	assert.Equal(t, model.VisibilityAfterDueDate, doc.Tests[0].Visibility)
	assert.Empty(t, doc.Output)

	view := ViewFromFeed(doc)
	require.Len(t, view.Tests, 1)
	assert.Contains(t, MarkdownRenderer{}.Document(view), "#### add_carry")
}

func TestDocument_FailedWithoutTable(t *testing.T) {
	b := NewBuilder(zerolog.Nop(), MarkdownRenderer{})
	require.NoError(t, b.Add(Score(Test{Name: "Mux", MaxScore: 4},
		[]model.TestOutcome{model.Passed("sel0", ""), model.Failed("sel1", "sel1: failed", nil, nil)})))
	r, err := b.Build()
	require.NoError(t, err)

	doc := MarkdownRenderer{}.Document(r.View())
	assert.Contains(t, doc, "#### sel1\n\nNo failure details available.")
	assert.NotContains(t, doc, "```\n\n```")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	err := PrintSummary(&buf, []model.TestResult{
		{Name: "Adder", Status: model.StatusPassed, Score: 10, MaxScore: 10},
		{Name: "ALU", Status: model.StatusFailed, Score: 2.5, MaxScore: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "Adder: Passed (10/10)\nALU: Failed (2.5/5)\n", buf.String())
}

func TestHexConversions(t *testing.T) {
	tests := []struct{ in, bin, dec string }{
		{"0x1234", "1001000110100", "4660"},
		{"3BDB", "11101111011011", "15323"},
		{"0", "0", "0"},
		{"7/0", "7/0", "7/0"},
		{"Z", "Z", "Z"},
		{"", "", ""},
		{"0x", "0x", "0x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.bin, HexToBin(tt.in))
			assert.Equal(t, tt.dec, HexToDec(tt.in))
		})
	}
}
