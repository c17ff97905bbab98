// Package archive stores grading reports and the run log in SQLite.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cse140l/digigrade/model"
	"github.com/cse140l/digigrade/report"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	lab_number  INTEGER NOT NULL,
	student_id  TEXT NOT NULL,
	report_json TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	PRIMARY KEY (lab_number, student_id)
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	lab_number  INTEGER NOT NULL,
	student_id  TEXT NOT NULL DEFAULT '',
	score       REAL NOT NULL,
	max_score   REAL NOT NULL,
	errors      INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	config_path TEXT NOT NULL DEFAULT '',
	args_json   TEXT NOT NULL DEFAULT '[]',
	git_commit  TEXT NOT NULL DEFAULT '',
	git_branch  TEXT NOT NULL DEFAULT ''
);
`

// ErrNotFound is returned when no report is stored for a lab and student.
var ErrNotFound = errors.New("report not found")

// Entry describes one stored report.
type Entry struct {
	LabNumber int
	Student   string
	UpdatedAt time.Time
}

// Store is a report archive backed by one SQLite database.
type Store struct {
	logger zerolog.Logger
	db     *sql.DB
}

// Open opens or creates the archive at path. ":memory:" opens a private
// in-memory archive.
func Open(logger zerolog.Logger, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// a second connection would see a different in-memory database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Debug().Str("path", path).Msg("Opened report archive")
	return &Store{logger: logger, db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutReport stores the report of a student, replacing any earlier one.
func (s *Store) PutReport(ctx context.Context, lab int, student string, view report.ViewDocument) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (lab_number, student_id, report_json, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(lab_number, student_id) DO UPDATE SET
		   report_json = excluded.report_json,
		   updated_at = excluded.updated_at`,
		lab, student, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store report: %w", err)
	}

	s.logger.Info().Int("lab", lab).Str("student", student).Msg("Stored report")
	return nil
}

// GetReport returns the stored report of a student.
func (s *Store) GetReport(ctx context.Context, lab int, student string) (report.ViewDocument, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT report_json FROM reports WHERE lab_number = ? AND student_id = ?`,
		lab, student,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return report.ViewDocument{}, fmt.Errorf("%w: lab %d student %s", ErrNotFound, lab, student)
	}
	if err != nil {
		return report.ViewDocument{}, fmt.Errorf("query report: %w", err)
	}

	var view report.ViewDocument
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		return report.ViewDocument{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return view, nil
}

// List returns the stored reports ordered by lab and student. A lab of
// zero lists every lab.
func (s *Store) List(ctx context.Context, lab int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lab_number, student_id, updated_at FROM reports
		 WHERE ? = 0 OR lab_number = ?
		 ORDER BY lab_number, student_id`,
		lab, lab,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updated string
		if err := rows.Scan(&e.LabNumber, &e.Student, &updated); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			s.logger.Warn().Err(err).Str("student", e.Student).Msg("Invalid report timestamp")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordRun appends run to the run log, assigning an ID when it has none.
func (s *Store) RecordRun(ctx context.Context, run *model.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	args, err := json.Marshal(run.Args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}

	var commit, branch string
	if run.Git != nil {
		commit, branch = run.Git.Commit, run.Git.Branch
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, lab_number, student_id, score, max_score, errors, duration_ns, config_path, args_json, git_commit, git_branch)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Timestamp.UTC().Format(time.RFC3339Nano), run.LabNumber, run.Student,
		run.Score, run.MaxScore, run.Errors, int64(run.Duration), run.ConfigPath, string(args), commit, branch,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first. A limit of zero or
// less returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, lab_number, student_id, score, max_score, errors, duration_ns, config_path, args_json, git_commit, git_branch
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			run            model.Run
			started, args  string
			duration       int64
			commit, branch string
		)
		if err := rows.Scan(&run.ID, &started, &run.LabNumber, &run.Student, &run.Score, &run.MaxScore,
			&run.Errors, &duration, &run.ConfigPath, &args, &commit, &branch); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.Timestamp, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse run timestamp: %w", err)
		}
		if err := json.Unmarshal([]byte(args), &run.Args); err != nil {
			return nil, fmt.Errorf("unmarshal run args: %w", err)
		}
		run.Duration = time.Duration(duration)
		if commit != "" || branch != "" {
			run.Git = &model.Git{Commit: commit, Branch: branch}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
