package model

import "sort"

// AnalysisFailures maps a circuit name to its static-analysis failure messages.
type AnalysisFailures map[string][]string

// Add appends a failure message for circuit.
func (f AnalysisFailures) Add(circuit, message string) {
	f[circuit] = append(f[circuit], message)
}

// Circuits returns the circuit names with at least one failure, sorted.
func (f AnalysisFailures) Circuits() []string {
	names := make([]string, 0, len(f))
	for name, msgs := range f {
		if len(msgs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
