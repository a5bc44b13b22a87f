package rating

import (
	"math"

	"github.com/alem-hub/seminar-rating/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRADE COMPUTER
// Переводит баллы в оценки по шкале 0-10 через функцию нормального
// распределения, построенного по включённым участникам.
// ══════════════════════════════════════════════════════════════════════════════

// GradeResult - результат расчёта оценки одного участника.
type GradeResult struct {
	Grade    float64
	Excluded bool
	CDF      float64

	// Mu и Sigma заполняются только для включённых участников.
	Mu    *float64
	Sigma *float64
}

// Population возвращает параметры распределения, если они есть.
func (r GradeResult) Population() (mu, sigma float64, ok bool) {
	if r.Mu == nil || r.Sigma == nil {
		return 0, 0, false
	}
	return *r.Mu, *r.Sigma, true
}

// ComputeGrades рассчитывает оценки для переданных участников.
//
// Исключённые (балл <= ExclusionThreshold) получают оценку 0 независимо
// от остальных. По включённым считаются µ и популяционное σ (делитель N).
// При σ == 0 все включённые получают 5.0 и CDF 0.5, иначе
// grade = Φ((score-µ)/σ) * 10. Пустой вход даёт пустую карту.
func ComputeGrades(scores []ScoredParticipant) map[ParticipantID]GradeResult {
	results := make(map[ParticipantID]GradeResult, len(scores))

	included := make([]ScoredParticipant, 0, len(scores))
	for _, s := range scores {
		if IsExcludedScore(s.Score) {
			results[s.ID] = GradeResult{Grade: 0, Excluded: true, CDF: 0}
			continue
		}
		included = append(included, s)
	}

	if len(included) == 0 {
		return results
	}

	values := make([]float64, len(included))
	for i, s := range included {
		values[i] = float64(s.Score)
	}
	mu := Mean(values)
	sigma := PopulationStdDev(values)

	for _, s := range included {
		m, sd := mu, sigma

		if sigma == 0 {
			results[s.ID] = GradeResult{Grade: MidGrade, CDF: 0.5, Mu: &m, Sigma: &sd}
			continue
		}

		cdf := clamp(NormalCDF((float64(s.Score)-mu)/sigma), 0, 1)
		results[s.ID] = GradeResult{
			Grade: clamp(cdf*MaxGrade, 0, MaxGrade),
			CDF:   cdf,
			Mu:    &m,
			Sigma: &sd,
		}
	}

	return results
}

// NormalCDF - функция распределения стандартного нормального закона Φ(z).
func NormalCDF(z float64) float64 {
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}

// Validate проверяет запись оценки перед сохранением.
func (r GradeRecord) Validate() error {
	if !r.ParticipantID.IsValid() {
		return shared.ErrInvalidParticipant
	}
	if math.IsNaN(r.Grade) || r.Grade < 0 || r.Grade > MaxGrade {
		return shared.ErrInvalidGrade
	}
	return nil
}

// ToGradeRecords превращает результат расчёта в записи для RatingStore.
// Порядок записей совпадает с порядком входных участников.
func ToGradeRecords(scores []ScoredParticipant, results map[ParticipantID]GradeResult) []GradeRecord {
	records := make([]GradeRecord, 0, len(results))
	for _, s := range scores {
		res, ok := results[s.ID]
		if !ok {
			continue
		}
		records = append(records, GradeRecord{ParticipantID: s.ID, Grade: res.Grade})
	}
	return records
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
