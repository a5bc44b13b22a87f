package rating

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECALCULATION
// Один проход пересчёта по всей популяции: единые µ и σ для всех групп.
// ══════════════════════════════════════════════════════════════════════════════

// Recalculation - результат одного полного пересчёта.
type Recalculation struct {
	RunID     string
	Trigger   Trigger
	StartedAt time.Time
	Duration  time.Duration

	Participants []Participant
	Results      map[ParticipantID]GradeResult

	Total    int
	Included int
	Excluded int

	// Mu и Sigma - параметры популяции; nil, если включённых нет.
	Mu    *float64
	Sigma *float64
}

// NewRecalculation рассчитывает оценки для всей популяции.
func NewRecalculation(runID string, trigger Trigger, participants []Participant) *Recalculation {
	r := &Recalculation{
		RunID:        runID,
		Trigger:      trigger,
		StartedAt:    time.Now().UTC(),
		Participants: participants,
		Results:      ComputeGrades(ToScored(participants)),
		Total:        len(participants),
	}

	for _, res := range r.Results {
		if res.Excluded {
			r.Excluded++
			continue
		}
		r.Included++
		if r.Mu == nil {
			r.Mu, r.Sigma = res.Mu, res.Sigma
		}
	}

	return r
}

// GradeRecords возвращает записи для сохранения в RatingStore.
func (r *Recalculation) GradeRecords() []GradeRecord {
	return ToGradeRecords(ToScored(r.Participants), r.Results)
}

// Entries возвращает ранжированный рейтинг области.
// Для группы ранги начинаются с 1 внутри группы, статистика при этом общая.
func (r *Recalculation) Entries(cohort CohortID) []RatingEntry {
	entries := RankEntries(EntriesFromResults(FilterByCohort(r.Participants, cohort), r.Results))
	if cohort.IsAll() {
		entries = LabelUnassigned(entries)
	}
	return entries
}

// IsEmpty возвращает true, если популяция пуста.
func (r *Recalculation) IsEmpty() bool {
	return r.Total == 0
}
