package model

// Status is the outcome classification of a single test case or test.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	StatusError  Status = "error"
)

// Step maps a signal name to its value for one mismatched simulation cycle.
// Combined expected/found values are encoded as "<expected>/<found>".
type Step map[string]string

// TestOutcome is the result of one test case label for one simulator invocation.
// Outcomes are values; use the constructors so the invariants hold.
type TestOutcome struct {
	// Test case label (or the missing file / test file for synthetic outcomes)
	Name string `json:"name"`
	// Classification of the label's status line
	Status Status `json:"status"`
	// Set when the simulator never produced a usable result for this label
	Synthetic bool `json:"synthetic,omitempty"`
	// Raw simulator text, or the diagnostic for synthetic outcomes
	Output string `json:"output,omitempty"`
	// Upper-cased signal names of the failure table, in column order
	Signals []string `json:"signals,omitempty"`
	// One entry per data row of the failure table
	Steps []Step `json:"steps,omitempty"`
}

// Passed returns a passing outcome.
func Passed(name, output string) TestOutcome {
	return TestOutcome{Name: name, Status: StatusPassed, Output: output}
}

// Failed returns a failing outcome with its failure table.
func Failed(name, output string, signals []string, steps []Step) TestOutcome {
	return TestOutcome{
		Name:    name,
		Status:  StatusFailed,
		Output:  output,
		Signals: signals,
		Steps:   steps,
	}
}

// Errored returns a synthetic error outcome carrying diagnostic text.
func Errored(name, diagnostic string) TestOutcome {
	return TestOutcome{Name: name, Status: StatusError, Synthetic: true, Output: diagnostic}
}

// Missing returns the synthetic outcome for an input file that does not exist.
func Missing(path string) TestOutcome {
	return TestOutcome{Name: path + " not found!", Status: StatusFailed, Synthetic: true}
}

// Failing reports whether the outcome should cost points. Error status
// lines after the first outcome count toward the total but not as failures.
func (o TestOutcome) Failing() bool {
	return o.Status == StatusFailed
}
