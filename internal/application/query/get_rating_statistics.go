package query

import (
	"context"

	"github.com/alem-hub/seminar-rating/internal/domain/rating"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RATING STATISTICS QUERY
// Статистика строится по тому же рейтингу, что возвращает GetRating.
// Отдельных обращений к хранилищу нет.
// ══════════════════════════════════════════════════════════════════════════════

// RatingStatisticsResult - статистика рейтинга области.
type RatingStatisticsResult struct {
	CohortID   rating.CohortID `json:"group_id,omitempty"`
	CohortName string          `json:"group_name,omitempty"`
	rating.Statistics
}

// GetRatingStatisticsHandler обрабатывает запрос статистики.
type GetRatingStatisticsHandler struct {
	ratings *GetRatingHandler
}

// NewGetRatingStatisticsHandler создаёт обработчик статистики.
func NewGetRatingStatisticsHandler(ratings *GetRatingHandler) *GetRatingStatisticsHandler {
	return &GetRatingStatisticsHandler{ratings: ratings}
}

// Handle возвращает статистику группы или, для NoCohort, всей популяции.
// Пустой рейтинг даёт нулевую статистику.
func (h *GetRatingStatisticsHandler) Handle(ctx context.Context, scope rating.CohortID) (*RatingStatisticsResult, error) {
	entries, err := h.ratings.GetRating(ctx, scope)
	if err != nil {
		return nil, err
	}

	result := &RatingStatisticsResult{
		Statistics: rating.ComputeStatistics(entries),
	}

	if !scope.IsAll() {
		result.CohortID = scope
		if len(entries) > 0 {
			result.CohortName = entries[0].CohortName
		}
	}

	return result, nil
}
