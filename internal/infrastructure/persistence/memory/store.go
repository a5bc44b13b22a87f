// Package memory implements an in-process ScoreSource and RatingStore.
// It is used by tests, by the CLI demo mode and as a reference
// implementation of the rating store contract.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/alem-hub/seminar-rating/internal/domain/rating"
	"github.com/alem-hub/seminar-rating/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATE
// ══════════════════════════════════════════════════════════════════════════════

// member is a roster record plus its grade slot.
type member struct {
	rating.RosterMember
	Grade *float64
}

// Store is a concurrency-safe in-memory roster with a single grade slot per member.
type Store struct {
	mu      sync.RWMutex
	cohorts map[rating.CohortID]rating.Cohort
	members map[rating.ParticipantID]*member
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		cohorts: make(map[rating.CohortID]rating.Cohort),
		members: make(map[rating.ParticipantID]*member),
	}
}

// Compile-time interface checks.
var (
	_ rating.ScoreSource = (*Store)(nil)
	_ rating.RatingStore = (*Store)(nil)
	_ rating.Roster      = (*Store)(nil)
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER MUTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// UpsertCohort creates or renames a cohort.
func (s *Store) UpsertCohort(_ context.Context, cohort rating.Cohort) error {
	if cohort.ID <= 0 {
		return shared.ErrInvalidScope
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cohorts[cohort.ID] = cohort
	return nil
}

// UpsertMember creates or replaces a roster record. An existing grade
// is kept; the store never invalidates grades on its own.
func (s *Store) UpsertMember(_ context.Context, m rating.RosterMember) error {
	if !m.ID.IsValid() {
		return shared.ErrInvalidParticipant
	}
	if m.Role == "" {
		m.Role = rating.RoleStudent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m.CohortID != rating.NoCohort {
		if _, ok := s.cohorts[m.CohortID]; !ok {
			return shared.ErrCohortNotFound
		}
	}

	rec := &member{RosterMember: m}
	if existing, ok := s.members[m.ID]; ok {
		rec.Grade = existing.Grade
	}
	s.members[m.ID] = rec
	return nil
}

// SetScore replaces a member's raw score.
func (s *Store) SetScore(_ context.Context, id rating.ParticipantID, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return shared.ErrParticipantNotFound
	}
	m.Score = score
	return nil
}

// RemoveMember deletes a roster record. Unknown IDs are ignored.
func (s *Store) RemoveMember(_ context.Context, id rating.ParticipantID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, id)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE SOURCE
// ══════════════════════════════════════════════════════════════════════════════

// ListParticipants returns students in scope ordered by ID.
func (s *Store) ListParticipants(ctx context.Context, cohort rating.CohortID) ([]rating.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listLocked(cohort), nil
}

// GetParticipant returns a student by ID.
func (s *Store) GetParticipant(ctx context.Context, id rating.ParticipantID) (*rating.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok || m.Role != rating.RoleStudent {
		return nil, shared.ErrParticipantNotFound
	}
	p := s.toParticipant(m)
	return &p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RATING STORE
// ══════════════════════════════════════════════════════════════════════════════

// ReadGrades returns the students in scope and whether any of them is graded.
func (s *Store) ReadGrades(ctx context.Context, cohort rating.CohortID) ([]rating.Participant, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	participants := s.listLocked(cohort)
	for _, p := range participants {
		if p.HasGrade() {
			return participants, true, nil
		}
	}
	return participants, false, nil
}

// WriteGrades stores grades on member records. Unknown IDs are skipped.
func (s *Store) WriteGrades(ctx context.Context, grades []rating.GradeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, g := range grades {
		if err := g.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range grades {
		m, ok := s.members[g.ParticipantID]
		if !ok {
			continue
		}
		v := g.Grade
		m.Grade = &v
	}
	return nil
}

// ClearGrades resets grades in scope; NoCohort clears every member.
func (s *Store) ClearGrades(ctx context.Context, cohort rating.CohortID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.members {
		if cohort.IsAll() || m.CohortID == cohort {
			m.Grade = nil
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Store) listLocked(cohort rating.CohortID) []rating.Participant {
	participants := make([]rating.Participant, 0, len(s.members))
	for _, m := range s.members {
		if m.Role != rating.RoleStudent {
			continue
		}
		if !cohort.IsAll() && m.CohortID != cohort {
			continue
		}
		participants = append(participants, s.toParticipant(m))
	}

	sort.Slice(participants, func(i, j int) bool {
		return participants[i].ID < participants[j].ID
	})
	return participants
}

func (s *Store) toParticipant(m *member) rating.Participant {
	p := rating.Participant{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Score:       m.Score,
		CohortID:    m.CohortID,
	}
	if c, ok := s.cohorts[m.CohortID]; ok {
		p.CohortName = c.Name
	}
	if m.Grade != nil {
		g := *m.Grade
		p.Grade = &g
	}
	return p
}
