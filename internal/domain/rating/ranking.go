package rating

import (
	"sort"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// RankEntries сортирует строки по (оценка ↓, балл ↓) и проставляет плотные
// ранги 1..N. Исключённые участники тоже получают ранг. Полные совпадения
// сохраняют исходный порядок. Срез сортируется на месте и возвращается.
func RankEntries(entries []RatingEntry) []RatingEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Grade != entries[j].Grade {
			return entries[i].Grade > entries[j].Grade
		}
		return entries[i].Score > entries[j].Score
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}

// EntriesFromResults собирает строки рейтинга из свежего расчёта.
// Участники без результата получают оценку 0.
func EntriesFromResults(participants []Participant, results map[ParticipantID]GradeResult) []RatingEntry {
	entries := make([]RatingEntry, 0, len(participants))
	for _, p := range participants {
		entry := newEntry(p)
		if res, ok := results[p.ID]; ok {
			entry.Grade = res.Grade
			entry.Excluded = res.Excluded
			entry.CDF = res.CDF
			entry.Mu = res.Mu
			entry.Sigma = res.Sigma
		}
		entries = append(entries, entry)
	}
	return entries
}

// EntriesFromStored собирает строки рейтинга из сохранённых оценок.
// µ и σ при этом неизвестны, CDF восстанавливается как grade/10.
// Участник без сохранённой оценки попадает в список с оценкой 0.
func EntriesFromStored(participants []Participant) []RatingEntry {
	entries := make([]RatingEntry, 0, len(participants))
	for _, p := range participants {
		entry := newEntry(p)
		if p.Grade != nil {
			entry.Grade = *p.Grade
			entry.CDF = clamp(*p.Grade/MaxGrade, 0, 1)
		}
		if entry.Excluded {
			entry.Grade = 0
			entry.CDF = 0
		}
		entries = append(entries, entry)
	}
	return entries
}

// FilterByCohort возвращает участников указанной группы.
// Для NoCohort возвращает исходный срез.
func FilterByCohort(participants []Participant, cohort CohortID) []Participant {
	if cohort.IsAll() {
		return participants
	}
	filtered := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if p.CohortID == cohort {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// LabelUnassigned подписывает участников без группы для общего рейтинга.
func LabelUnassigned(entries []RatingEntry) []RatingEntry {
	for i := range entries {
		if entries[i].CohortID == NoCohort || entries[i].CohortName == "" {
			entries[i].CohortName = UnassignedCohortName
		}
	}
	return entries
}

// ToScored превращает участников во вход для ComputeGrades.
func ToScored(participants []Participant) []ScoredParticipant {
	scored := make([]ScoredParticipant, len(participants))
	for i, p := range participants {
		scored[i] = ScoredParticipant{ID: p.ID, Score: p.Score}
	}
	return scored
}

func newEntry(p Participant) RatingEntry {
	return RatingEntry{
		ParticipantID: p.ID,
		DisplayName:   p.DisplayName,
		Score:         p.Score,
		Excluded:      p.IsExcluded(),
		CohortID:      p.CohortID,
		CohortName:    p.CohortName,
	}
}
