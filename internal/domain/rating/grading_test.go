package rating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/seminar-rating/internal/domain/shared"
)

func scored(scores ...int) []ScoredParticipant {
	out := make([]ScoredParticipant, len(scores))
	for i, s := range scores {
		out[i] = ScoredParticipant{ID: ParticipantID(i + 1), Score: s}
	}
	return out
}

func TestComputeGrades_Empty(t *testing.T) {
	results := ComputeGrades(nil)
	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestComputeGrades_ExcludedAndSingleIncluded(t *testing.T) {
	// A: -20, B: -15, C: 100
	results := ComputeGrades(scored(-20, -15, 100))
	require.Len(t, results, 3)

	for _, id := range []ParticipantID{1, 2} {
		r := results[id]
		assert.True(t, r.Excluded, "participant %d", id)
		assert.Equal(t, 0.0, r.Grade)
		assert.Equal(t, 0.0, r.CDF)
		assert.Nil(t, r.Mu)
		assert.Nil(t, r.Sigma)
	}

	c := results[3]
	assert.False(t, c.Excluded)
	assert.Equal(t, MidGrade, c.Grade)
	assert.Equal(t, 0.5, c.CDF)
	mu, sigma, ok := c.Population()
	require.True(t, ok)
	assert.Equal(t, 100.0, mu)
	assert.Equal(t, 0.0, sigma)
}

func TestComputeGrades_OnlyExcluded(t *testing.T) {
	results := ComputeGrades(scored(-15, -100))
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Excluded)
		assert.Equal(t, 0.0, r.Grade)
	}
}

func TestComputeGrades_ThresholdBoundary(t *testing.T) {
	results := ComputeGrades(scored(-15, -14, 50))
	assert.True(t, results[1].Excluded)
	assert.False(t, results[2].Excluded)
	assert.False(t, results[3].Excluded)
}

func TestComputeGrades_IdenticalScores(t *testing.T) {
	results := ComputeGrades(scored(42, 42, 42, 42))
	for _, r := range results {
		assert.Equal(t, 5.0, r.Grade)
		assert.Equal(t, 0.5, r.CDF)
		assert.False(t, r.Excluded)
	}
}

func TestComputeGrades_NormalDistribution(t *testing.T) {
	results := ComputeGrades(scored(100, 150, 200, 250))
	require.Len(t, results, 4)

	mu, sigma, ok := results[1].Population()
	require.True(t, ok)
	assert.Equal(t, 175.0, mu)
	assert.InDelta(t, 55.9017, sigma, 1e-4)

	prev := 0.0
	for id := ParticipantID(1); id <= 4; id++ {
		g := results[id].Grade
		assert.Greater(t, g, prev, "grade must strictly increase, participant %d", id)
		assert.Greater(t, g, 0.0)
		assert.Less(t, g, 10.0)
		prev = g
	}

	// Φ(-1.3416) ≈ 0.0899
	assert.InDelta(t, 0.899, results[1].Grade, 1e-3)
	assert.InDelta(t, results[1].Grade+results[4].Grade, 10.0, 1e-9)
}

func TestComputeGrades_ExclusionIsIndependent(t *testing.T) {
	base := ComputeGrades(scored(10, 20, 30))
	withExcluded := ComputeGrades(append(scored(10, 20, 30), ScoredParticipant{ID: 99, Score: -40}))

	for id := ParticipantID(1); id <= 3; id++ {
		assert.Equal(t, base[id].Grade, withExcluded[id].Grade)
	}
	assert.True(t, withExcluded[99].Excluded)
	assert.Equal(t, 0.0, withExcluded[99].Grade)
}

func TestComputeGrades_MonotonicAndBounded(t *testing.T) {
	input := scored(-30, -15, -14, 0, 3, 3, 7, 100, 1000, 100000)
	results := ComputeGrades(input)

	for _, a := range input {
		ra := results[a.ID]
		assert.GreaterOrEqual(t, ra.Grade, 0.0)
		assert.LessOrEqual(t, ra.Grade, 10.0)
		assert.GreaterOrEqual(t, ra.CDF, 0.0)
		assert.LessOrEqual(t, ra.CDF, 1.0)

		for _, b := range input {
			if a.Score > b.Score {
				assert.GreaterOrEqual(t, ra.Grade, results[b.ID].Grade)
			}
		}
	}
}

func TestNormalCDF(t *testing.T) {
	tests := []struct {
		z    float64
		want float64
	}{
		{0, 0.5},
		{1, 0.841344746},
		{-1, 0.158655254},
		{1.96, 0.975002105},
		{-40, 0},
		{40, 1},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalCDF(tt.z), 1e-9, "z=%v", tt.z)
	}
}

func TestGradeRecord_Validate(t *testing.T) {
	assert.NoError(t, GradeRecord{ParticipantID: 1, Grade: 0}.Validate())
	assert.NoError(t, GradeRecord{ParticipantID: 1, Grade: 10}.Validate())

	err := GradeRecord{ParticipantID: 0, Grade: 1}.Validate()
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	err = GradeRecord{ParticipantID: 1, Grade: 10.5}.Validate()
	assert.True(t, shared.IsValidation(err))

	err = GradeRecord{ParticipantID: 1, Grade: math.NaN()}.Validate()
	assert.ErrorIs(t, err, shared.ErrInvalidGrade)
}

func TestToGradeRecords(t *testing.T) {
	input := scored(-20, 10, 20)
	records := ToGradeRecords(input, ComputeGrades(input))

	require.Len(t, records, 3)
	assert.Equal(t, ParticipantID(1), records[0].ParticipantID)
	assert.Equal(t, 0.0, records[0].Grade)
	assert.Less(t, records[1].Grade, records[2].Grade)
}
