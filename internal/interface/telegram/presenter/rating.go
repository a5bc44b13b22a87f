// Package presenter formats rating data for chat display.
// Presenters turn domain objects into plain-text messages.
package presenter

import (
	"fmt"
	"strings"

	"github.com/alem-hub/seminar-rating/internal/application/query"
	"github.com/alem-hub/seminar-rating/internal/domain/rating"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATING PRESENTER
// Форматирует рейтинг, позицию участника и статистику в текст сообщения.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultDisplayLimit - сколько строк рейтинга выводится подробно.
const DefaultDisplayLimit = 20

// DefaultTitle - заголовок рейтинга по умолчанию.
const DefaultTitle = "Рейтинг"

// RatingPresenter форматирует рейтинг.
type RatingPresenter struct {
	displayLimit int
}

// NewRatingPresenter создаёт презентер. limit <= 0 означает DefaultDisplayLimit.
func NewRatingPresenter(limit int) *RatingPresenter {
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}
	return &RatingPresenter{displayLimit: limit}
}

// ─────────────────────────────────────────────────────────────────────────────
// RATING LIST
// ─────────────────────────────────────────────────────────────────────────────

// FormatRatingMessage форматирует рейтинг. Первые displayLimit строк
// выводятся подробно, остальные сводятся к количеству.
func (p *RatingPresenter) FormatRatingMessage(entries []rating.RatingEntry, title string) string {
	if title == "" {
		title = DefaultTitle
	}

	if len(entries) == 0 {
		return fmt.Sprintf("%s\n\nРейтинг пуст.", title)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 %s\n\n", title))

	shown := entries
	if len(shown) > p.displayLimit {
		shown = shown[:p.displayLimit]
	}

	for i := range shown {
		sb.WriteString(p.formatEntry(&shown[i]))
	}

	if rest := len(entries) - len(shown); rest > 0 {
		sb.WriteString(fmt.Sprintf("... и еще %d студентов", rest))
	}

	return sb.String()
}

func (p *RatingPresenter) formatEntry(e *rating.RatingEntry) string {
	var sb strings.Builder

	sb.WriteString(formatMedal(e.Rank))
	sb.WriteString(fmt.Sprintf(" %d. %s", e.Rank, e.DisplayName))

	if e.CohortName != "" {
		sb.WriteString(" | ")
		sb.WriteString(e.CohortName)
	}
	if e.Excluded {
		sb.WriteString(" ⚠️")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("   Баллы: %d | Оценка: %.2f\n\n", e.Score, e.Grade))

	return sb.String()
}

// formatMedal возвращает медаль для первых трёх мест, иначе пустую строку.
func formatMedal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// USER POSITION
// ─────────────────────────────────────────────────────────────────────────────

// FormatUserPosition форматирует позицию участника.
func (p *RatingPresenter) FormatUserPosition(e *rating.RatingEntry, byCohort bool) string {
	if e == nil {
		if byCohort {
			return "Участник не найден в рейтинге группы."
		}
		return "Участник не найден в рейтинге."
	}

	var sb strings.Builder
	scope := "общем рейтинге"
	if byCohort {
		scope = "рейтинге группы"
		if e.CohortName != "" {
			scope += " " + e.CohortName
		}
	}

	sb.WriteString(fmt.Sprintf("👤 %s\n", e.DisplayName))
	sb.WriteString(fmt.Sprintf("📈 Позиция в %s: %d\n", scope, e.Rank))
	sb.WriteString(fmt.Sprintf("🎯 Баллы: %d\n", e.Score))
	sb.WriteString(fmt.Sprintf("📝 Оценка: %.2f", e.Grade))
	if e.Excluded {
		sb.WriteString("\n⚠️ Исключён из расчёта: баллы не выше порога")
	}

	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// STATISTICS
// ─────────────────────────────────────────────────────────────────────────────

// FormatStatistics форматирует статистику рейтинга.
func (p *RatingPresenter) FormatStatistics(res *query.RatingStatisticsResult) string {
	title := "Статистика рейтинга"
	if res.CohortName != "" {
		title += ": " + res.CohortName
	}

	if res.IsEmpty() {
		return fmt.Sprintf("%s\n\nРейтинг пуст.", title)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📈 %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Студентов: %d (в расчёте: %d, исключено: %d)\n",
		res.TotalCount, res.IncludedCount, res.ExcludedCount))
	sb.WriteString(fmt.Sprintf("Баллы: мин %d | макс %d\n", res.MinScore, res.MaxScore))
	sb.WriteString(fmt.Sprintf("Баллы: среднее %.2f | медиана %.2f | σ %.2f\n",
		res.MeanScore, res.MedianScore, res.StdDevScore))
	sb.WriteString(fmt.Sprintf("Оценки: среднее %.2f | медиана %.2f\n", res.MeanGrade, res.MedianGrade))
	sb.WriteString(fmt.Sprintf("Распределение: µ = %.2f, σ = %.2f", res.Mu, res.Sigma))

	return sb.String()
}
