package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/seminar-rating/internal/domain/rating"
	"github.com/alem-hub/seminar-rating/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPANT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ParticipantRepository implements rating.ScoreSource, rating.RatingStore and
// rating.Roster on top of the participants and cohorts tables.
type ParticipantRepository struct {
	conn *Connection
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(conn *Connection) *ParticipantRepository {
	return &ParticipantRepository{conn: conn}
}

// Compile-time interface checks.
var (
	_ rating.ScoreSource = (*ParticipantRepository)(nil)
	_ rating.RatingStore = (*ParticipantRepository)(nil)
	_ rating.Roster      = (*ParticipantRepository)(nil)
)

const selectParticipants = `
	SELECT p.id, p.display_name, p.score, COALESCE(p.cohort_id, 0), COALESCE(c.name, ''), p.grade
	FROM participants p
	LEFT JOIN cohorts c ON c.id = p.cohort_id
	WHERE p.role = 'student'
`

// ─────────────────────────────────────────────────────────────────────────────
// Score Source
// ─────────────────────────────────────────────────────────────────────────────

// ListParticipants returns students in scope ordered by ID.
// The read runs in a repeatable-read transaction so the snapshot is consistent.
func (r *ParticipantRepository) ListParticipants(ctx context.Context, cohort rating.CohortID) ([]rating.Participant, error) {
	var participants []rating.Participant

	err := r.conn.WithTx(ctx, SnapshotTxOptions(), func(tx pgx.Tx) error {
		var err error
		participants, err = r.listParticipants(ctx, tx, cohort)
		return err
	})
	if err != nil {
		return nil, err
	}

	return participants, nil
}

// GetParticipant returns a student by ID.
func (r *ParticipantRepository) GetParticipant(ctx context.Context, id rating.ParticipantID) (*rating.Participant, error) {
	row := r.conn.QueryRow(ctx, selectParticipants+" AND p.id = $1", int64(id))

	p, err := scanParticipant(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	return p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Rating Store
// ─────────────────────────────────────────────────────────────────────────────

// ReadGrades returns the students in scope and whether any of them is graded.
func (r *ParticipantRepository) ReadGrades(ctx context.Context, cohort rating.CohortID) ([]rating.Participant, bool, error) {
	participants, err := r.ListParticipants(ctx, cohort)
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

// WriteGrades stores all grades in one transaction using a batch of updates.
// Unknown participant IDs update nothing and are skipped.
func (r *ParticipantRepository) WriteGrades(ctx context.Context, grades []rating.GradeRecord) error {
	if len(grades) == 0 {
		return nil
	}
	for _, g := range grades {
		if err := g.Validate(); err != nil {
			return err
		}
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, g := range grades {
			batch.Queue(`UPDATE participants SET grade = $1 WHERE id = $2`, g.Grade, int64(g.ParticipantID))
		}

		br := tx.SendBatch(ctx, batch)
		defer br.Close()

		for range grades {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("failed to write grade: %w", err)
			}
		}

		return nil
	})
}

// ClearGrades resets grades in scope; NoCohort clears every participant.
func (r *ParticipantRepository) ClearGrades(ctx context.Context, cohort rating.CohortID) error {
	var err error
	if cohort.IsAll() {
		_, err = r.conn.Exec(ctx, `UPDATE participants SET grade = NULL WHERE grade IS NOT NULL`)
	} else {
		_, err = r.conn.Exec(ctx, `UPDATE participants SET grade = NULL WHERE cohort_id = $1 AND grade IS NOT NULL`, int64(cohort))
	}
	if err != nil {
		return fmt.Errorf("failed to clear grades: %w", err)
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Roster
// ─────────────────────────────────────────────────────────────────────────────

// UpsertCohort creates or renames a cohort.
func (r *ParticipantRepository) UpsertCohort(ctx context.Context, cohort rating.Cohort) error {
	if cohort.ID <= 0 {
		return shared.ErrInvalidScope
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO cohorts (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, int64(cohort.ID), cohort.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert cohort: %w", err)
	}

	return nil
}

// UpsertMember creates or replaces a participant row. The grade column is left as is.
func (r *ParticipantRepository) UpsertMember(ctx context.Context, m rating.RosterMember) error {
	if !m.ID.IsValid() {
		return shared.ErrInvalidParticipant
	}
	if m.Role == "" {
		m.Role = rating.RoleStudent
	}

	var cohortID *int64
	if m.CohortID != rating.NoCohort {
		v := int64(m.CohortID)
		cohortID = &v
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO participants (id, display_name, score, role, cohort_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			score = EXCLUDED.score,
			role = EXCLUDED.role,
			cohort_id = EXCLUDED.cohort_id
	`, int64(m.ID), m.DisplayName, m.Score, m.Role, cohortID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrCohortNotFound
		}
		return fmt.Errorf("failed to upsert participant: %w", err)
	}

	return nil
}

// SetScore replaces a participant's raw score.
func (r *ParticipantRepository) SetScore(ctx context.Context, id rating.ParticipantID, score int) error {
	tag, err := r.conn.Exec(ctx, `UPDATE participants SET score = $1 WHERE id = $2`, score, int64(id))
	if err != nil {
		return fmt.Errorf("failed to set score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrParticipantNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ParticipantRepository) listParticipants(ctx context.Context, q Querier, cohort rating.CohortID) ([]rating.Participant, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if cohort.IsAll() {
		rows, err = q.Query(ctx, selectParticipants+" ORDER BY p.id")
	} else {
		rows, err = q.Query(ctx, selectParticipants+" AND p.cohort_id = $1 ORDER BY p.id", int64(cohort))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]rating.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, *p)
	}

	return participants, rows.Err()
}

func scanParticipant(row pgx.Row) (*rating.Participant, error) {
	var (
		p        rating.Participant
		id       int64
		cohortID int64
	)

	if err := row.Scan(&id, &p.DisplayName, &p.Score, &cohortID, &p.CohortName, &p.Grade); err != nil {
		return nil, err
	}

	p.ID = rating.ParticipantID(id)
	p.CohortID = rating.CohortID(cohortID)
	return &p, nil
}
