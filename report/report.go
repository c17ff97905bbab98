package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cse140l/digigrade/model"
)

// Circuit is a submitted top-level circuit listed in the report header.
type Circuit struct {
	Name string `json:"name"`
	// SVG drawing of the schematic, empty when images are disabled
	SVG string `json:"svg,omitempty"`
}

// Header is the summary shown above the test results.
type Header struct {
	LabNumber int       `json:"lab_number"`
	Circuits  []Circuit `json:"circuits,omitempty"`
	// Top-level circuits that were not submitted
	Missing []string `json:"missing,omitempty"`
	// Gate constraint failures keyed by circuit name
	Diagnostics model.AnalysisFailures `json:"diagnostics,omitempty"`
	// Circuits whose gate statistics could not be produced
	Unavailable []string `json:"stats_unavailable,omitempty"`
}

// FeedDocument is the machine-readable report consumed by the grading platform.
type FeedDocument struct {
	Tests        []model.TestResult `json:"tests"`
	Output       string             `json:"output,omitempty"`
	OutputFormat model.TextFormat   `json:"output_format,omitempty"`
}

// ReadFeed decodes a feed document.
func ReadFeed(r io.Reader) (FeedDocument, error) {
	var doc FeedDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return FeedDocument{}, fmt.Errorf("failed to decode report: %w", err)
	}
	if doc.Tests == nil {
		doc.Tests = []model.TestResult{}
	}
	return doc, nil
}

// ReadFeedFile decodes the feed document stored at path.
func ReadFeedFile(path string) (FeedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return FeedDocument{}, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()
	return ReadFeed(f)
}

// Value is a failure step value with its hexadecimal conversions.
// Bin and Dec are empty when the value is not hexadecimal.
type Value struct {
	Raw string `json:"raw"`
	Bin string `json:"bin,omitempty"`
	Dec string `json:"dec,omitempty"`
}

// NewValue annotates raw with its conversions.
func NewValue(raw string) Value {
	v := Value{Raw: raw}
	if _, ok := parseHex(raw); ok {
		v.Bin = HexToBin(raw)
		v.Dec = HexToDec(raw)
	}
	return v
}

// ViewOutcome is one failing test case in the human view.
type ViewOutcome struct {
	Name    string             `json:"name"`
	Status  model.Status       `json:"status"`
	Output  string             `json:"output,omitempty"`
	Signals []string           `json:"signals,omitempty"`
	Steps   []map[string]Value `json:"steps,omitempty"`
}

// ViewTest is one test result in the human view.
type ViewTest struct {
	model.TestResult
	Outcomes []ViewOutcome `json:"failures,omitempty"`
}

// ViewDocument is the structured report used for human rendering.
type ViewDocument struct {
	Header        *Header          `json:"header,omitempty"`
	Summary       string           `json:"summary,omitempty"`
	SummaryFormat model.TextFormat `json:"summary_format,omitempty"`
	Tests         []ViewTest       `json:"tests"`
}

// ViewFromFeed builds a view of a feed document. Failure tables are only
// available through the rendered test output.
func ViewFromFeed(doc FeedDocument) ViewDocument {
	view := ViewDocument{
		Summary:       doc.Output,
		SummaryFormat: doc.OutputFormat,
		Tests:         make([]ViewTest, 0, len(doc.Tests)),
	}
	for _, t := range doc.Tests {
		view.Tests = append(view.Tests, ViewTest{TestResult: t})
	}
	return view
}

// Report is a built grading report. It is never modified after Build.
type Report struct {
	tests        []model.TestResult
	header       *Header
	output       string
	outputFormat model.TextFormat
}

// Tests returns the results in report order.
func (r *Report) Tests() []model.TestResult {
	return append([]model.TestResult(nil), r.tests...)
}

// Score returns the total and maximum score of the report.
func (r *Report) Score() (score, max float64) {
	for _, t := range r.tests {
		score += t.Score
		max += t.MaxScore
	}
	return score, max
}

// Feed returns the projection consumed by the grading platform.
func (r *Report) Feed() FeedDocument {
	return FeedDocument{
		Tests:        r.Tests(),
		Output:       r.output,
		OutputFormat: r.outputFormat,
	}
}

// View returns the projection used for human rendering.
func (r *Report) View() ViewDocument {
	view := ViewDocument{
		Header:        r.header,
		Summary:       r.output,
		SummaryFormat: r.outputFormat,
		Tests:         make([]ViewTest, 0, len(r.tests)),
	}
	for _, t := range r.tests {
		vt := ViewTest{TestResult: t}
		for _, o := range t.Failures {
			vt.Outcomes = append(vt.Outcomes, viewOutcome(o))
		}
		view.Tests = append(view.Tests, vt)
	}
	return view
}

func viewOutcome(o model.TestOutcome) ViewOutcome {
	vo := ViewOutcome{Name: o.Name, Status: o.Status, Signals: o.Signals}
	if o.Status != model.StatusFailed || o.Synthetic {
		vo.Output = o.Output
	}
	for _, step := range o.Steps {
		values := make(map[string]Value, len(step))
		for signal, raw := range step {
			values[signal] = NewValue(raw)
		}
		vo.Steps = append(vo.Steps, values)
	}
	return vo
}

// Write encodes the feed document to w.
func (r *Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Feed()); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteFile writes the feed document to path.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
