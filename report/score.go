// Package report scores test outcomes and assembles the grading report.
package report

import (
	"github.com/cse140l/digigrade/model"
)

// CouldNotTestNotice is the output of a test whose run produced no test cases.
const CouldNotTestNotice = "We could not test your circuit. This could be due to misnamed ports or other circuit bugs."

// Test is the scoring configuration of one graded test.
type Test struct {
	Name      string
	MaxScore  float64
	OnSuccess model.Visibility
	OnFailure model.Visibility
}

func (t Test) visibility(status model.Status) model.Visibility {
	v := t.OnFailure
	if status == model.StatusPassed {
		v = t.OnSuccess
	}
	if v == "" {
		return model.VisibilityHidden
	}
	return v
}

// Score turns the outcomes of one simulator run into a test result.
//
// A synthetic or errored first outcome scores zero with its diagnostic as
// output. An empty list scores zero with CouldNotTestNotice. Otherwise the
// score is MaxScore less its share for each Failed outcome, and the Failed
// outcomes are kept on the result for rendering.
func Score(test Test, outcomes []model.TestOutcome) model.TestResult {
	res := model.TestResult{
		Name:     test.Name,
		Status:   model.StatusFailed,
		MaxScore: test.MaxScore,
	}

	switch {
	case len(outcomes) > 0 && (outcomes[0].Synthetic || outcomes[0].Status == model.StatusError):
		res.Output = diagnostic(outcomes[0])
		res.OutputFormat = model.FormatText
	case len(outcomes) == 0:
		res.Output = CouldNotTestNotice
		res.OutputFormat = model.FormatText
	default:
		var failed []model.TestOutcome
		for _, o := range outcomes {
			if o.Failing() {
				failed = append(failed, o)
			}
		}
		res.Score = clamp(test.MaxScore*(1-float64(len(failed))/float64(len(outcomes))), test.MaxScore)
		if len(failed) == 0 {
			res.Status = model.StatusPassed
		} else {
			res.Failures = failed
		}
	}

	res.Visibility = test.visibility(res.Status)
	return res
}

func diagnostic(o model.TestOutcome) string {
	if o.Output != "" {
		return o.Output
	}
	return o.Name
}

func clamp(score, max float64) float64 {
	if score < 0 || max <= 0 {
		return 0
	}
	if score > max {
		return max
	}
	return score
}
