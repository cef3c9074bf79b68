package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/mdxfix/internal/models"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("journal: run not found")

// RunRow represents a row in the runs table.
type RunRow struct {
	ID         string
	Operation  string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt *time.Time
	Total      int
	Updated    int
	Skipped    int
	Warned     int
}

// OutcomeRow represents a row in the outcomes table.
type OutcomeRow struct {
	RunID          string
	Path           string
	Status         models.Status
	Message        string
	ChecksumBefore string
	ChecksumAfter  string
	RecordedAt     time.Time
}

// StartRun inserts a new run and returns its id.
func (db *DB) StartRun(operation string, dryRun bool) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`
		INSERT INTO runs (id, operation, dry_run, started_at)
		VALUES (?, ?, ?, ?)
	`, id, operation, dryRun, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("journal: start run: %w", err)
	}
	return id, nil
}

// Record stores the outcome of one document within a run.
func (db *DB) Record(runID string, r models.Result) error {
	_, err := db.conn.Exec(`
		INSERT INTO outcomes (run_id, path, status, message, checksum_before, checksum_after, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, r.Path, string(r.Status), r.Message, r.ChecksumBefore, r.ChecksumAfter, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("journal: record %s: %w", r.Path, err)
	}
	return nil
}

// FinishRun stores the final counters of a run.
func (db *DB) FinishRun(runID string, s models.Summary) error {
	res, err := db.conn.Exec(`
		UPDATE runs
		SET finished_at = ?, total = ?, updated = ?, skipped = ?, warned = ?
		WHERE id = ?
	`, time.Now().UTC(), s.Total, s.Updated, s.Skipped, s.Warned, runID)
	if err != nil {
		return fmt.Errorf("journal: finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (db *DB) Runs(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, operation, dry_run, started_at, finished_at, total, updated, skipped, warned
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Operation, &r.DryRun, &r.StartedAt, &finished,
			&r.Total, &r.Updated, &r.Skipped, &r.Warned); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Outcomes returns the recorded outcomes of a run in insertion order.
func (db *DB) Outcomes(runID string) ([]OutcomeRow, error) {
	var exists int
	if err := db.conn.QueryRow(`SELECT count(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("journal: lookup run: %w", err)
	}
	if exists == 0 {
		return nil, ErrRunNotFound
	}

	rows, err := db.conn.Query(`
		SELECT run_id, path, status, message, checksum_before, checksum_after, recorded_at
		FROM outcomes
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		var o OutcomeRow
		var status string
		if err := rows.Scan(&o.RunID, &o.Path, &status, &o.Message,
			&o.ChecksumBefore, &o.ChecksumAfter, &o.RecordedAt); err != nil {
			return nil, err
		}
		o.Status = models.Status(status)
		out = append(out, o)
	}
	return out, rows.Err()
}

// LastChecksum returns the checksum a document had after the most recent
// update by operation, or empty string if it was never updated.
func (db *DB) LastChecksum(operation, path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`
		SELECT o.checksum_after
		FROM outcomes o JOIN runs r ON r.id = o.run_id
		WHERE r.operation = ? AND o.path = ? AND o.status = ? AND r.dry_run = 0
		ORDER BY o.rowid DESC
		LIMIT 1
	`, operation, path, string(models.StatusUpdated)).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("journal: last checksum: %w", err)
	}
	return cs, nil
}
