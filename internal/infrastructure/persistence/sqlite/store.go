// Package sqlite implements the rating store on an embedded SQLite database.
// It is the single-file alternative to the PostgreSQL store for local runs
// and small deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/alem-hub/seminar-rating/internal/domain/rating"
	"github.com/alem-hub/seminar-rating/internal/domain/shared"
)

// DefaultDSN is used when no DSN is configured.
const DefaultDSN = "file:rating.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

const schema = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS cohorts (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS participants (
  id INTEGER PRIMARY KEY,
  display_name TEXT NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  role TEXT NOT NULL DEFAULT 'student',
  cohort_id INTEGER REFERENCES cohorts(id) ON DELETE SET NULL,
  grade REAL
);

CREATE INDEX IF NOT EXISTS idx_participants_cohort ON participants(cohort_id);
`

const selectParticipants = `
SELECT p.id, p.display_name, p.score, COALESCE(p.cohort_id, 0), COALESCE(c.name, ''), p.grade
FROM participants p
LEFT JOIN cohorts c ON c.id = p.cohort_id
WHERE p.role = 'student'`

// Store implements rating.ScoreSource, rating.RatingStore and rating.Roster.
type Store struct {
	db *sql.DB
}

// Compile-time interface checks.
var (
	_ rating.ScoreSource = (*Store)(nil)
	_ rating.RatingStore = (*Store)(nil)
	_ rating.Roster      = (*Store)(nil)
)

// Open opens the database and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps pragmas in effect.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: ensure schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE SOURCE
// ══════════════════════════════════════════════════════════════════════════════

// ListParticipants returns students in scope ordered by ID.
func (s *Store) ListParticipants(ctx context.Context, cohort rating.CohortID) ([]rating.Participant, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if cohort.IsAll() {
		rows, err = s.db.QueryContext(ctx, selectParticipants+" ORDER BY p.id")
	} else {
		rows, err = s.db.QueryContext(ctx, selectParticipants+" AND p.cohort_id = ? ORDER BY p.id", int64(cohort))
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]rating.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan participant: %w", err)
		}
		participants = append(participants, *p)
	}

	return participants, rows.Err()
}

// GetParticipant returns a student by ID.
func (s *Store) GetParticipant(ctx context.Context, id rating.ParticipantID) (*rating.Participant, error) {
	row := s.db.QueryRowContext(ctx, selectParticipants+" AND p.id = ?", int64(id))

	p, err := scanParticipant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("sqlite: get participant: %w", err)
	}
	return p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RATING STORE
// ══════════════════════════════════════════════════════════════════════════════

// ReadGrades returns the students in scope and whether any of them is graded.
func (s *Store) ReadGrades(ctx context.Context, cohort rating.CohortID) ([]rating.Participant, bool, error) {
	participants, err := s.ListParticipants(ctx, cohort)
	if err != nil {
		return nil, false, err
	}

	for _, p := range participants {
		if p.HasGrade() {
			return participants, true, nil
		}
	}
	return participants, false, nil
}

// WriteGrades stores all grades in one transaction. Unknown IDs are skipped.
func (s *Store) WriteGrades(ctx context.Context, grades []rating.GradeRecord) error {
	if len(grades) == 0 {
		return nil
	}
	for _, g := range grades {
		if err := g.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `UPDATE participants SET grade = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for _, g := range grades {
		if _, err := stmt.ExecContext(ctx, g.Grade, int64(g.ParticipantID)); err != nil {
			return fmt.Errorf("sqlite: write grade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// ClearGrades resets grades in scope; NoCohort clears every participant.
func (s *Store) ClearGrades(ctx context.Context, cohort rating.CohortID) error {
	var err error
	if cohort.IsAll() {
		_, err = s.db.ExecContext(ctx, `UPDATE participants SET grade = NULL WHERE grade IS NOT NULL`)
	} else {
		_, err = s.db.ExecContext(ctx, `UPDATE participants SET grade = NULL WHERE cohort_id = ? AND grade IS NOT NULL`, int64(cohort))
	}
	if err != nil {
		return fmt.Errorf("sqlite: clear grades: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER
// ══════════════════════════════════════════════════════════════════════════════

// UpsertCohort creates or renames a cohort.
func (s *Store) UpsertCohort(ctx context.Context, cohort rating.Cohort) error {
	if cohort.ID <= 0 {
		return shared.ErrInvalidScope
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cohorts (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		int64(cohort.ID), cohort.Name)
	if err != nil {
		return fmt.Errorf("sqlite: upsert cohort: %w", err)
	}
	return nil
}

// UpsertMember creates or replaces a participant row, keeping its grade.
func (s *Store) UpsertMember(ctx context.Context, m rating.RosterMember) error {
	if !m.ID.IsValid() {
		return shared.ErrInvalidParticipant
	}
	if m.Role == "" {
		m.Role = rating.RoleStudent
	}

	var cohortID sql.NullInt64
	if m.CohortID != rating.NoCohort {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM cohorts WHERE id = ?`, int64(m.CohortID)).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return shared.ErrCohortNotFound
		}
		if err != nil {
			return fmt.Errorf("sqlite: check cohort: %w", err)
		}
		cohortID = sql.NullInt64{Int64: int64(m.CohortID), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, display_name, score, role, cohort_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			score = excluded.score,
			role = excluded.role,
			cohort_id = excluded.cohort_id`,
		int64(m.ID), m.DisplayName, m.Score, m.Role, cohortID)
	if err != nil {
		return fmt.Errorf("sqlite: upsert participant: %w", err)
	}
	return nil
}

// SetScore replaces a participant's raw score.
func (s *Store) SetScore(ctx context.Context, id rating.ParticipantID, score int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE participants SET score = ? WHERE id = ?`, score, int64(id))
	if err != nil {
		return fmt.Errorf("sqlite: set score: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: set score: %w", err)
	}
	if n == 0 {
		return shared.ErrParticipantNotFound
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (*rating.Participant, error) {
	var (
		p        rating.Participant
		id       int64
		cohortID int64
		grade    sql.NullFloat64
	)

	if err := row.Scan(&id, &p.DisplayName, &p.Score, &cohortID, &p.CohortName, &grade); err != nil {
		return nil, err
	}

	p.ID = rating.ParticipantID(id)
	p.CohortID = rating.CohortID(cohortID)
	if grade.Valid {
		g := grade.Float64
		p.Grade = &g
	}
	return &p, nil
}
