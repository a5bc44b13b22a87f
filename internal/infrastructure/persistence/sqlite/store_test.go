package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/seminar-rating/internal/domain/rating"
	"github.com/alem-hub/seminar-rating/internal/domain/shared"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "rating.db") + "?_pragma=foreign_keys(1)"
	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.UpsertCohort(ctx, rating.Cohort{ID: 1, Name: "A-1"}))
	require.NoError(t, s.UpsertCohort(ctx, rating.Cohort{ID: 2, Name: "B-2"}))

	members := []rating.RosterMember{
		{ID: 3, DisplayName: "carol", Score: 40, CohortID: 2},
		{ID: 1, DisplayName: "alice", Score: 10, CohortID: 1},
		{ID: 2, DisplayName: "bob", Score: 20, CohortID: 1},
		{ID: 4, DisplayName: "dave", Score: 5},
		{ID: 5, DisplayName: "seminarist", Score: 100, CohortID: 1, Role: "seminarist"},
	}
	for _, m := range members {
		require.NoError(t, s.UpsertMember(ctx, m))
	}
	return s
}

func TestStore_ScoreSource(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	all, err := s.ListParticipants(ctx, rating.NoCohort)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, p := range all {
		assert.Equal(t, rating.ParticipantID(i+1), p.ID)
	}
	assert.Equal(t, rating.NoCohort, all[3].CohortID)

	cohort, err := s.ListParticipants(ctx, 2)
	require.NoError(t, err)
	require.Len(t, cohort, 1)
	assert.Equal(t, "B-2", cohort[0].CohortName)

	_, err = s.GetParticipant(ctx, 5)
	assert.ErrorIs(t, err, shared.ErrParticipantNotFound)
}

func TestStore_RatingStore(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, hit, err := s.ReadGrades(ctx, rating.NoCohort)
	require.NoError(t, err)
	assert.False(t, hit)

	grades := []rating.GradeRecord{
		{ParticipantID: 1, Grade: 0},
		{ParticipantID: 2, Grade: 9.87654321},
		{ParticipantID: 999, Grade: 5},
	}
	require.NoError(t, s.WriteGrades(ctx, grades))

	participants, hit, err := s.ReadGrades(ctx, 1)
	require.NoError(t, err)
	require.True(t, hit)
	require.NotNil(t, participants[0].Grade, "zero is a stored grade")
	assert.Equal(t, 0.0, *participants[0].Grade)
	assert.Equal(t, 9.87654321, *participants[1].Grade)

	require.NoError(t, s.ClearGrades(ctx, 1))
	_, hit, err = s.ReadGrades(ctx, 1)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, s.WriteGrades(ctx, grades))
	require.NoError(t, s.ClearGrades(ctx, rating.NoCohort))
	_, hit, err = s.ReadGrades(ctx, rating.NoCohort)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestStore_Roster(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteGrades(ctx, []rating.GradeRecord{{ParticipantID: 1, Grade: 4}}))
	require.NoError(t, s.UpsertMember(ctx, rating.RosterMember{ID: 1, DisplayName: "alice", Score: 12}))

	p, err := s.GetParticipant(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p.Grade)
	assert.Equal(t, 4.0, *p.Grade)
	assert.False(t, p.InCohort())

	require.NoError(t, s.SetScore(ctx, 1, 33))
	p, err = s.GetParticipant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 33, p.Score)

	assert.ErrorIs(t, s.SetScore(ctx, 100, 1), shared.ErrParticipantNotFound)
	assert.ErrorIs(t, s.UpsertMember(ctx, rating.RosterMember{ID: 8, DisplayName: "x", CohortID: 9}), shared.ErrCohortNotFound)
	assert.ErrorIs(t, s.UpsertCohort(ctx, rating.Cohort{ID: 0, Name: "bad"}), shared.ErrInvalidScope)
}
