package report

import (
	"testing"

	"github.com/cse140l/digigrade/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adderTest = Test{
	Name:      "Adder",
	MaxScore:  10,
	OnSuccess: model.VisibilityVisible,
	OnFailure: model.VisibilityAfterDueDate,
}

func TestScore(t *testing.T) {
	failing := model.Failed("carry", "out", []string{"A"}, []model.Step{{"A": "1"}})

	tests := []struct {
		name       string
		outcomes   []model.TestOutcome
		score      float64
		status     model.Status
		visibility model.Visibility
		output     string
		failures   int
	}{
		{
			name:       "all passed",
			outcomes:   []model.TestOutcome{model.Passed("a", ""), model.Passed("b", "")},
			score:      10,
			status:     model.StatusPassed,
			visibility: model.VisibilityVisible,
		},
		{
			name:       "one of four failed",
			outcomes:   []model.TestOutcome{model.Passed("a", ""), failing, model.Passed("b", ""), model.Passed("c", "")},
			score:      7.5,
			status:     model.StatusFailed,
			visibility: model.VisibilityAfterDueDate,
			failures:   1,
		},
		{
			name:       "all failed",
			outcomes:   []model.TestOutcome{failing, failing},
			score:      0,
			status:     model.StatusFailed,
			visibility: model.VisibilityAfterDueDate,
			failures:   2,
		},
		{
			name:       "no test cases",
			outcomes:   []model.TestOutcome{},
			status:     model.StatusFailed,
			visibility: model.VisibilityAfterDueDate,
			output:     CouldNotTestNotice,
		},
		{
			name:       "harness error first",
			outcomes:   []model.TestOutcome{model.Errored("tests.dig", "STDOUT: \nSTDERR: boom\nERR:101")},
			status:     model.StatusFailed,
			visibility: model.VisibilityAfterDueDate,
			output:     "STDOUT: \nSTDERR: boom\nERR:101",
		},
		{
			name:       "missing input",
			outcomes:   []model.TestOutcome{model.Missing("alu.dig"), model.Passed("a", "")},
			status:     model.StatusFailed,
			visibility: model.VisibilityAfterDueDate,
			output:     "alu.dig not found!",
		},
		{
			name:       "error after a passing case keeps credit",
			outcomes:   []model.TestOutcome{model.Passed("a", ""), model.Errored("b", "weird")},
			score:      10,
			status:     model.StatusPassed,
			visibility: model.VisibilityVisible,
		},
		{
			name: "error counts toward the total only",
			outcomes: []model.TestOutcome{
				model.Passed("a", ""),
				{Name: "b", Status: model.StatusError, Output: "b: weird"},
				model.Failed("c", "", nil, nil),
				model.Passed("d", ""),
			},
			score:      7.5,
			status:     model.StatusFailed,
			visibility: model.VisibilityAfterDueDate,
			failures:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(adderTest, tt.outcomes)
			assert.Equal(t, "Adder", got.Name)
			assert.Equal(t, 10.0, got.MaxScore)
			assert.InDelta(t, tt.score, got.Score, 1e-9)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.visibility, got.Visibility)
			assert.Equal(t, tt.output, got.Output)
			assert.Len(t, got.Failures, tt.failures)
			if tt.output != "" {
				assert.Equal(t, model.FormatText, got.OutputFormat)
			}
		})
	}
}

func TestScore_DefaultVisibilityIsHidden(t *testing.T) {
	got := Score(Test{Name: "x", MaxScore: 1}, []model.TestOutcome{model.Passed("a", "")})
	require.Equal(t, model.VisibilityHidden, got.Visibility)
}

func TestScore_StaysInRange(t *testing.T) {
	outcomes := []model.TestOutcome{model.Passed("a", ""), model.Passed("b", ""), model.Passed("c", "")}
	for _, max := range []float64{0, 1, 3, 100} {
		got := Score(Test{Name: "x", MaxScore: max}, outcomes)
		require.GreaterOrEqual(t, got.Score, 0.0)
		require.LessOrEqual(t, got.Score, max)
	}

	got := Score(Test{Name: "x", MaxScore: -5}, outcomes)
	require.Zero(t, got.Score)
}
