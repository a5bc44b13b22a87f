package presenter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alem-hub/seminar-rating/internal/application/query"
	"github.com/alem-hub/seminar-rating/internal/domain/rating"
)

func TestFormatRatingMessage_Empty(t *testing.T) {
	p := NewRatingPresenter(0)

	assert.Equal(t, "Рейтинг группы\n\nРейтинг пуст.", p.FormatRatingMessage(nil, "Рейтинг группы"))
	assert.Equal(t, "Рейтинг\n\nРейтинг пуст.", p.FormatRatingMessage([]rating.RatingEntry{}, ""))
}

func TestFormatRatingMessage_Entries(t *testing.T) {
	p := NewRatingPresenter(0)
	entries := []rating.RatingEntry{
		{Rank: 1, DisplayName: "alice", Score: 250, Grade: 9.1, CohortName: "A-1"},
		{Rank: 2, DisplayName: "bob", Score: 200, Grade: 6.6},
		{Rank: 3, DisplayName: "carol", Score: 150, Grade: 3.4, CohortName: "Без группы"},
		{Rank: 4, DisplayName: "dave", Score: -20, Grade: 0, Excluded: true, CohortName: "A-1"},
	}

	want := "📊 Общий рейтинг\n\n" +
		"🥇 1. alice | A-1\n   Баллы: 250 | Оценка: 9.10\n\n" +
		"🥈 2. bob\n   Баллы: 200 | Оценка: 6.60\n\n" +
		"🥉 3. carol | Без группы\n   Баллы: 150 | Оценка: 3.40\n\n" +
		" 4. dave | A-1 ⚠️\n   Баллы: -20 | Оценка: 0.00\n\n"

	assert.Equal(t, want, p.FormatRatingMessage(entries, "Общий рейтинг"))
}

func TestFormatRatingMessage_Truncates(t *testing.T) {
	p := NewRatingPresenter(0)

	entries := make([]rating.RatingEntry, 25)
	for i := range entries {
		entries[i] = rating.RatingEntry{Rank: i + 1, DisplayName: fmt.Sprintf("user%d", i+1), Score: 100 - i}
	}

	msg := p.FormatRatingMessage(entries, "Рейтинг")

	assert.True(t, strings.HasSuffix(msg, "... и еще 5 студентов"))
	assert.Contains(t, msg, " 20. user20\n")
	assert.NotContains(t, msg, "user21")

	exact := p.FormatRatingMessage(entries[:20], "Рейтинг")
	assert.NotContains(t, exact, "и еще")
}

func TestFormatRatingMessage_CustomLimit(t *testing.T) {
	p := NewRatingPresenter(2)
	entries := []rating.RatingEntry{
		{Rank: 1, DisplayName: "a"},
		{Rank: 2, DisplayName: "b"},
		{Rank: 3, DisplayName: "c"},
	}

	assert.True(t, strings.HasSuffix(p.FormatRatingMessage(entries, "x"), "... и еще 1 студентов"))
}

func TestFormatUserPosition(t *testing.T) {
	p := NewRatingPresenter(0)

	assert.Equal(t, "Участник не найден в рейтинге группы.", p.FormatUserPosition(nil, true))

	msg := p.FormatUserPosition(&rating.RatingEntry{
		Rank: 2, DisplayName: "bob", Score: 120, Grade: 5.5, CohortName: "A-1",
	}, true)
	assert.Contains(t, msg, "Позиция в рейтинге группы A-1: 2")
	assert.Contains(t, msg, "Оценка: 5.50")
	assert.NotContains(t, msg, "⚠️")

	excluded := p.FormatUserPosition(&rating.RatingEntry{Rank: 9, DisplayName: "x", Score: -15, Excluded: true}, false)
	assert.Contains(t, excluded, "Позиция в общем рейтинге: 9")
	assert.Contains(t, excluded, "⚠️")
}

func TestFormatStatistics(t *testing.T) {
	p := NewRatingPresenter(0)

	empty := p.FormatStatistics(&query.RatingStatisticsResult{})
	assert.Equal(t, "Статистика рейтинга\n\nРейтинг пуст.", empty)

	msg := p.FormatStatistics(&query.RatingStatisticsResult{
		CohortID:   1,
		CohortName: "A-1",
		Statistics: rating.Statistics{
			TotalCount:    3,
			IncludedCount: 2,
			ExcludedCount: 1,
			MinScore:      -20,
			MaxScore:      200,
			Mu:            150,
			Sigma:         50,
		},
	})
	assert.Contains(t, msg, "📈 Статистика рейтинга: A-1")
	assert.Contains(t, msg, "Студентов: 3 (в расчёте: 2, исключено: 1)")
	assert.Contains(t, msg, "µ = 150.00, σ = 50.00")
}
