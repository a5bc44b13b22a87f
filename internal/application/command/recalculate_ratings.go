// Package command contains write operations following CQRS pattern.
// Commands change state (here: the stored grades) and report what they did.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/alem-hub/seminar-rating/internal/domain/rating"
	"github.com/alem-hub/seminar-rating/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECALCULATE RATINGS COMMAND
// Полный пересчёт оценок: очистка всех оценок, один расчёт µ/σ по всей
// популяции, запись результата. Пересчёт одной группы - тот же полный пересчёт.
// ══════════════════════════════════════════════════════════════════════════════

const tracerName = "rating-command"

// RecalculateRatingsHandler выполняет пересчёт оценок.
type RecalculateRatingsHandler struct {
	source    rating.ScoreSource
	store     rating.RatingStore
	publisher shared.EventPublisher
	metrics   rating.Metrics
	logger    *slog.Logger
}

// Option настраивает обработчик.
type Option func(*RecalculateRatingsHandler)

// WithPublisher подключает публикацию события о пересчёте.
func WithPublisher(p shared.EventPublisher) Option {
	return func(h *RecalculateRatingsHandler) {
		h.publisher = p
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m rating.Metrics) Option {
	return func(h *RecalculateRatingsHandler) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithLogger задаёт логгер.
func WithLogger(l *slog.Logger) Option {
	return func(h *RecalculateRatingsHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewRecalculateRatingsHandler создаёт обработчик пересчёта.
func NewRecalculateRatingsHandler(
	source rating.ScoreSource,
	store rating.RatingStore,
	opts ...Option,
) *RecalculateRatingsHandler {
	h := &RecalculateRatingsHandler{
		source:  source,
		store:   store,
		metrics: rating.NopMetrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RecomputeAll сбрасывает все оценки и пересчитывает их по всей популяции.
// Повторный вызов безопасен.
func (h *RecalculateRatingsHandler) RecomputeAll(ctx context.Context) (*rating.Recalculation, error) {
	return h.Recalculate(ctx, rating.TriggerExplicit)
}

// RecomputeCohort пересчитывает рейтинг группы. µ и σ общие для всех групп,
// поэтому частичный пересчёт некорректен: вызов полностью делегируется RecomputeAll.
func (h *RecalculateRatingsHandler) RecomputeCohort(ctx context.Context, cohort rating.CohortID) (*rating.Recalculation, error) {
	if !cohort.IsValid() {
		return nil, shared.ErrInvalidScope
	}
	return h.RecomputeAll(ctx)
}

// Recalculate выполняет полный проход: clear → list → compute → write.
// Очистка завершается до записи новых оценок.
func (h *RecalculateRatingsHandler) Recalculate(ctx context.Context, trigger rating.Trigger) (_ *rating.Recalculation, err error) {
	runID := uuid.New().String()
	startedAt := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "RecalculateRatings")
	span.SetAttributes(
		attribute.String("rating.run_id", runID),
		attribute.String("rating.trigger", string(trigger)),
	)
	defer func() {
		h.metrics.RecordRecalculation(trigger, time.Since(startedAt), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "ratings recalculated")
		}
		span.End()
	}()

	log := h.logger.With("run_id", runID, "trigger", string(trigger))
	log.Info("starting ratings recalculation")

	if err := h.store.ClearGrades(ctx, rating.NoCohort); err != nil {
		return nil, fmt.Errorf("failed to clear grades: %w", err)
	}

	participants, err := h.source.ListParticipants(ctx, rating.NoCohort)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	recalc := rating.NewRecalculation(runID, trigger, participants)

	if !recalc.IsEmpty() {
		if err := h.store.WriteGrades(ctx, recalc.GradeRecords()); err != nil {
			return nil, fmt.Errorf("failed to write grades: %w", err)
		}
	}

	recalc.Duration = time.Since(startedAt)
	h.metrics.SetPopulation(recalc.Total, recalc.Included, recalc.Excluded)
	span.SetAttributes(
		attribute.Int("rating.total", recalc.Total),
		attribute.Int("rating.included", recalc.Included),
		attribute.Int("rating.excluded", recalc.Excluded),
	)

	log.Info("ratings recalculation completed",
		"duration", recalc.Duration.String(),
		"total", recalc.Total,
		"included", recalc.Included,
		"excluded", recalc.Excluded,
	)

	h.publish(ctx, log, recalc)

	return recalc, nil
}

// publish отправляет событие о пересчёте. Ошибка публикации не отменяет
// уже сохранённые оценки и только логируется.
func (h *RecalculateRatingsHandler) publish(ctx context.Context, log *slog.Logger, recalc *rating.Recalculation) {
	if h.publisher == nil {
		return
	}

	event := shared.NewRatingsRecalculatedEvent(
		recalc.RunID,
		string(recalc.Trigger),
		recalc.Total,
		recalc.Included,
		recalc.Excluded,
		recalc.Mu,
		recalc.Sigma,
	)
	if err := h.publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish ratings recalculated event", "error", err)
	}
}
