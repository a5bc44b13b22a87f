package rating

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE SOURCE
// ══════════════════════════════════════════════════════════════════════════════

// ScoreSource - внешний источник баллов и состава групп.
// Для движка доступен только на чтение. В выборку попадают только студенты.
type ScoreSource interface {
	// ListParticipants возвращает согласованный снимок участников.
	// cohort == NoCohort означает всю популяцию.
	ListParticipants(ctx context.Context, cohort CohortID) ([]Participant, error)

	// GetParticipant возвращает участника по ID.
	// Если участник не найден, возвращает shared.ErrParticipantNotFound.
	GetParticipant(ctx context.Context, id ParticipantID) (*Participant, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER
// ══════════════════════════════════════════════════════════════════════════════

// RosterMember - запись состава: участник, его баллы, группа и роль.
type RosterMember struct {
	ID          ParticipantID `yaml:"id" validate:"required,gt=0"`
	DisplayName string        `yaml:"username" validate:"required,max=100"`
	Score       int           `yaml:"score"`
	CohortID    CohortID      `yaml:"group_id" validate:"gte=0"`
	Role        string        `yaml:"role" validate:"omitempty,oneof=student seminarist admin"`
}

// Roster - запись состава. Движок сам баллы не меняет; интерфейс нужен
// для загрузки состава из CLI и тестов.
type Roster interface {
	UpsertCohort(ctx context.Context, cohort Cohort) error

	// UpsertMember создаёт или заменяет запись. Сохранённая оценка не трогается.
	UpsertMember(ctx context.Context, m RosterMember) error

	SetScore(ctx context.Context, id ParticipantID, score int) error
}

// ══════════════════════════════════════════════════════════════════════════════
// RATING STORE
// ══════════════════════════════════════════════════════════════════════════════

// RatingStore - граница хранения рассчитанных оценок.
// На каждого участника хранится одна оценка, общая для группового
// и общего рейтинга.
type RatingStore interface {
	// ReadGrades возвращает участников области и true, если хотя бы у одного
	// из них есть оценка. Иначе - промах кеша (false), это не ошибка.
	// Неизвестная группа даёт промах с пустым списком.
	ReadGrades(ctx context.Context, cohort CohortID) ([]Participant, bool, error)

	// WriteGrades сохраняет оценки на записях участников.
	// Операция идемпотентна, неизвестные участники пропускаются.
	WriteGrades(ctx context.Context, grades []GradeRecord) error

	// ClearGrades сбрасывает оценки в области; NoCohort - у всех.
	// Повторный вызов безопасен.
	ClearGrades(ctx context.Context, cohort CohortID) error
}

// ══════════════════════════════════════════════════════════════════════════════
// OBSERVABILITY PORTS
// ══════════════════════════════════════════════════════════════════════════════

// Trigger - причина пересчёта.
type Trigger string

const (
	// TriggerExplicit - административный пересчёт.
	TriggerExplicit Trigger = "explicit"
	// TriggerCacheMiss - пересчёт при отсутствии оценок в области.
	TriggerCacheMiss Trigger = "cache_miss"
)

// Metrics определяет контракт для метрик движка.
// Реализация находится в infrastructure слое (Prometheus).
type Metrics interface {
	// RecordLookup учитывает чтение рейтинга: попадание или промах кеша.
	RecordLookup(scope string, hit bool)

	// RecordRecalculation учитывает пересчёт и его длительность.
	RecordRecalculation(trigger Trigger, duration time.Duration, err error)

	// SetPopulation обновляет размеры популяции последнего пересчёта.
	SetPopulation(total, included, excluded int)
}

// NopMetrics - реализация Metrics, которая ничего не делает.
type NopMetrics struct{}

// RecordLookup implements Metrics.
func (NopMetrics) RecordLookup(string, bool) {}

// RecordRecalculation implements Metrics.
func (NopMetrics) RecordRecalculation(Trigger, time.Duration, error) {}

// SetPopulation implements Metrics.
func (NopMetrics) SetPopulation(int, int, int) {}
