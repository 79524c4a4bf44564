package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one process lifetime of a galaxy. Events belong to a run.
type Run struct {
	ID         string
	Galaxy     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// CreateRun records the start of a run.
func (s *Store) CreateRun(galaxy string) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO runs (id, galaxy, started_at) VALUES (?, ?, ?)
	`, id, galaxy, now)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	return &Run{ID: id, Galaxy: galaxy, StartedAt: now}, nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, galaxy, started_at, finished_at FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListRuns returns all runs, oldest first.
func (s *Store) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT id, galaxy, started_at, finished_at FROM runs ORDER BY started_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FinishRun marks a run as finished.
func (s *Store) FinishRun(id string) error {
	result, err := s.db.Exec(`
		UPDATE runs SET finished_at = ? WHERE id = ?
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteRun removes a run and its events.
func (s *Store) DeleteRun(id string) error {
	_, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var finished sql.NullTime
	if err := row.Scan(&r.ID, &r.Galaxy, &r.StartedAt, &finished); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}
