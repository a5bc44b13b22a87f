package rating

import (
	"math"
	"sort"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATING STATISTICS
// Описательная статистика по уже построенному рейтингу. Не обращается к
// хранилищу и не доверяет полям Mu/Sigma в строках: µ и σ считаются заново
// по включённым участникам.
// ══════════════════════════════════════════════════════════════════════════════

// Statistics - сводка по списку строк рейтинга.
type Statistics struct {
	TotalCount    int     `json:"total_students"`
	ExcludedCount int     `json:"excluded_students"`
	IncludedCount int     `json:"included_students"`
	MeanScore     float64 `json:"mean_score"`
	MedianScore   float64 `json:"median_score"`
	StdDevScore   float64 `json:"std_score"`
	MinScore      int     `json:"min_score"`
	MaxScore      int     `json:"max_score"`
	MeanGrade     float64 `json:"mean_grade"`
	MedianGrade   float64 `json:"median_grade"`

	// Mu и Sigma - параметры нормального распределения по включённым участникам.
	Mu    float64 `json:"mu"`
	Sigma float64 `json:"sigma"`
}

// IsEmpty возвращает true для пустого рейтинга.
func (s Statistics) IsEmpty() bool {
	return s.TotalCount == 0
}

// ComputeStatistics считает статистику по строкам рейтинга.
// Пустой список даёт нулевую запись.
func ComputeStatistics(entries []RatingEntry) Statistics {
	if len(entries) == 0 {
		return Statistics{}
	}

	scores := make([]float64, 0, len(entries))
	grades := make([]float64, 0, len(entries))
	included := make([]float64, 0, len(entries))

	stats := Statistics{
		TotalCount: len(entries),
		MinScore:   entries[0].Score,
		MaxScore:   entries[0].Score,
	}

	for _, e := range entries {
		scores = append(scores, float64(e.Score))
		grades = append(grades, e.Grade)

		if e.Score < stats.MinScore {
			stats.MinScore = e.Score
		}
		if e.Score > stats.MaxScore {
			stats.MaxScore = e.Score
		}

		if e.Excluded {
			stats.ExcludedCount++
			continue
		}
		included = append(included, float64(e.Score))
	}

	stats.IncludedCount = stats.TotalCount - stats.ExcludedCount
	stats.MeanScore = Mean(scores)
	stats.MedianScore = Median(scores)
	stats.MeanGrade = Mean(grades)
	stats.MedianGrade = Median(grades)

	if len(scores) > 1 {
		stats.StdDevScore = PopulationStdDev(scores)
	}

	stats.Mu = Mean(included)
	if len(included) > 1 {
		stats.Sigma = PopulationStdDev(included)
	}

	return stats
}

// ─────────────────────────────────────────────────────────────────────────────
// HELPERS
// ─────────────────────────────────────────────────────────────────────────────

// Mean - среднее арифметическое; 0 для пустого среза.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

// Median - медиана; 0 для пустого среза. Исходный срез не изменяется.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return 0.5 * (cp[mid-1] + cp[mid])
}

// PopulationStdDev - стандартное отклонение с делителем N.
func PopulationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mu := Mean(xs)
	var sq float64
	for _, v := range xs {
		d := v - mu
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}
