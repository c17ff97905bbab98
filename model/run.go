package model

import "time"

// Run records a single grading invocation.
type Run struct {
	// Unique ID for this run (UUID)
	ID string `json:"id"`
	// Timestamp when grading started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Lab configuration file used
	ConfigPath string `json:"config_path"`
	// Lab number from the configuration
	LabNumber int `json:"lab_number"`
	// Student identifier, when the report was archived for one
	Student string `json:"student,omitempty"`
	// Sum of all test scores in the report
	Score float64 `json:"score"`
	// Sum of all maximum scores in the report
	MaxScore float64 `json:"max_score"`
	// Number of tests whose first outcome was a harness error
	Errors int `json:"errors"`
	// Duration of the grading run
	Duration time.Duration `json:"duration"`
	// Git information of the lab configuration repository
	Git *Git `json:"git,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of execution
	Commit string `json:"commit,omitempty"`
	// Git branch at time of execution
	Branch string `json:"branch,omitempty"`
}
