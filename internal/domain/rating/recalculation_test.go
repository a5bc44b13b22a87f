package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecalculation(t *testing.T) {
	participants := []Participant{
		{ID: 1, DisplayName: "a", Score: 100, CohortID: 1, CohortName: "A-1"},
		{ID: 2, DisplayName: "b", Score: 150, CohortID: 2, CohortName: "B-2"},
		{ID: 3, DisplayName: "c", Score: 200, CohortID: 1, CohortName: "A-1"},
		{ID: 4, DisplayName: "d", Score: 250},
		{ID: 5, DisplayName: "e", Score: -15, CohortID: 1, CohortName: "A-1"},
	}

	r := NewRecalculation("run-1", TriggerExplicit, participants)

	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, 5, r.Total)
	assert.Equal(t, 4, r.Included)
	assert.Equal(t, 1, r.Excluded)
	require.NotNil(t, r.Mu)
	assert.Equal(t, 175.0, *r.Mu)
	assert.False(t, r.IsEmpty())
	assert.Len(t, r.GradeRecords(), 5)
}

func TestRecalculation_CohortSliceUsesPopulationStatistics(t *testing.T) {
	participants := []Participant{
		{ID: 1, Score: 100, CohortID: 1},
		{ID: 2, Score: 150, CohortID: 2},
		{ID: 3, Score: 200, CohortID: 1},
		{ID: 4, Score: 250, CohortID: 2},
		{ID: 5, Score: -40, CohortID: 1},
	}
	r := NewRecalculation("run", TriggerCacheMiss, participants)

	overall := r.Entries(NoCohort)
	cohort := r.Entries(1)

	require.Len(t, cohort, 3)
	for i, e := range cohort {
		assert.Equal(t, i+1, e.Rank, "cohort ranks restart at 1")
	}
	assert.Equal(t, ParticipantID(3), cohort[0].ParticipantID)
	assert.Equal(t, ParticipantID(5), cohort[2].ParticipantID)
	assert.True(t, cohort[2].Excluded)
	assert.Equal(t, 0.0, cohort[2].Grade)

	byID := make(map[ParticipantID]RatingEntry)
	for _, e := range overall {
		byID[e.ParticipantID] = e
	}
	for _, e := range cohort {
		assert.Equal(t, byID[e.ParticipantID].Grade, e.Grade, "grades do not depend on the view")
	}

	assert.Equal(t, UnassignedCohortName, overall[0].CohortName)
}

func TestRecalculation_Empty(t *testing.T) {
	r := NewRecalculation("run", TriggerExplicit, nil)

	assert.True(t, r.IsEmpty())
	assert.Nil(t, r.Mu)
	assert.Empty(t, r.Entries(NoCohort))
	assert.Empty(t, r.GradeRecords())
}
