// Package query contains read operations following CQRS pattern.
// Queries return ranked ratings; a cache miss triggers one full recalculation.
package query

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alem-hub/seminar-rating/internal/domain/rating"
	"github.com/alem-hub/seminar-rating/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RATING QUERY
// Рейтинг группы или общий рейтинг. Если в области нет ни одной оценки,
// пересчитывается вся популяция, а затем возвращается нужный срез.
// ══════════════════════════════════════════════════════════════════════════════

const tracerName = "rating-query"

// DefaultTopLimit - размер топа по умолчанию.
const DefaultTopLimit = 10

// Recalculator выполняет полный пересчёт оценок.
// Реализация - command.RecalculateRatingsHandler.
type Recalculator interface {
	Recalculate(ctx context.Context, trigger rating.Trigger) (*rating.Recalculation, error)
}

// GetRatingHandler обрабатывает запросы рейтинга.
type GetRatingHandler struct {
	source       rating.ScoreSource
	store        rating.RatingStore
	recalculator Recalculator
	metrics      rating.Metrics
	logger       *slog.Logger
}

// NewGetRatingHandler создаёт обработчик запросов рейтинга.
func NewGetRatingHandler(
	source rating.ScoreSource,
	store rating.RatingStore,
	recalculator Recalculator,
	metrics rating.Metrics,
	logger *slog.Logger,
) *GetRatingHandler {
	if metrics == nil {
		metrics = rating.NopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GetRatingHandler{
		source:       source,
		store:        store,
		recalculator: recalculator,
		metrics:      metrics,
		logger:       logger,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// RATINGS
// ─────────────────────────────────────────────────────────────────────────────

// GetCohortRating возвращает рейтинг группы с рангами внутри группы.
func (h *GetRatingHandler) GetCohortRating(ctx context.Context, cohort rating.CohortID) ([]rating.RatingEntry, error) {
	if cohort.IsAll() || !cohort.IsValid() {
		return nil, shared.ErrInvalidScope
	}
	return h.getRating(ctx, cohort)
}

// GetOverallRating возвращает общий рейтинг всей популяции.
func (h *GetRatingHandler) GetOverallRating(ctx context.Context) ([]rating.RatingEntry, error) {
	return h.getRating(ctx, rating.NoCohort)
}

// GetRating возвращает рейтинг области: группы или, для NoCohort, общий.
func (h *GetRatingHandler) GetRating(ctx context.Context, scope rating.CohortID) ([]rating.RatingEntry, error) {
	if !scope.IsValid() {
		return nil, shared.ErrInvalidScope
	}
	return h.getRating(ctx, scope)
}

func (h *GetRatingHandler) getRating(ctx context.Context, scope rating.CohortID) (entries []rating.RatingEntry, err error) {
	ctx, span := h.startSpan(ctx, "GetRating", attribute.String("rating.scope", scope.String()))
	defer func() { endSpan(span, err) }()

	participants, hit, err := h.store.ReadGrades(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to read grades: %w", err)
	}
	h.metrics.RecordLookup(scope.String(), hit)
	span.SetAttributes(attribute.Bool("rating.cache_hit", hit))

	if hit {
		entries = rating.RankEntries(rating.EntriesFromStored(participants))
		if scope.IsAll() {
			entries = rating.LabelUnassigned(entries)
		}
		return entries, nil
	}

	// Пустая область не требует пересчёта.
	if len(participants) == 0 {
		return []rating.RatingEntry{}, nil
	}

	h.logger.Debug("rating cache miss, recalculating population", "scope", scope.String())

	recalc, err := h.recalculator.Recalculate(ctx, rating.TriggerCacheMiss)
	if err != nil {
		return nil, err
	}
	return recalc.Entries(scope), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// USER POSITION
// ─────────────────────────────────────────────────────────────────────────────

// GetUserPosition возвращает строку участника в групповом или общем рейтинге.
// Возвращает nil, если участник не найден или (при byCohort) не состоит в группе.
func (h *GetRatingHandler) GetUserPosition(ctx context.Context, id rating.ParticipantID, byCohort bool) (*rating.RatingEntry, error) {
	scope := rating.NoCohort

	if byCohort {
		p, err := h.source.GetParticipant(ctx, id)
		if shared.IsNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get participant: %w", err)
		}
		if !p.InCohort() {
			return nil, nil
		}
		scope = p.CohortID
	}

	entries, err := h.getRating(ctx, scope)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].ParticipantID == id {
			entry := entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// TOP-N
// ─────────────────────────────────────────────────────────────────────────────

// GetTopN возвращает первые limit строк рейтинга области.
// При limit <= 0 возвращает пустой список.
func (h *GetRatingHandler) GetTopN(ctx context.Context, scope rating.CohortID, limit int) ([]rating.RatingEntry, error) {
	if limit <= 0 {
		return []rating.RatingEntry{}, nil
	}

	entries, err := h.GetRating(ctx, scope)
	if err != nil {
		return nil, err
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// GetTopByCohort возвращает топ группы.
func (h *GetRatingHandler) GetTopByCohort(ctx context.Context, cohort rating.CohortID, limit int) ([]rating.RatingEntry, error) {
	if cohort.IsAll() {
		return nil, shared.ErrInvalidScope
	}
	return h.GetTopN(ctx, cohort, limit)
}

// GetTopOverall возвращает топ всей популяции.
func (h *GetRatingHandler) GetTopOverall(ctx context.Context, limit int) ([]rating.RatingEntry, error) {
	return h.GetTopN(ctx, rating.NoCohort, limit)
}

// ─────────────────────────────────────────────────────────────────────────────
// TRACING
// ─────────────────────────────────────────────────────────────────────────────

func (h *GetRatingHandler) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
