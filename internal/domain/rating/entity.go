// Package rating содержит доменную модель рейтинга и итоговых оценок за семинары.
// Оценка вычисляется из накопленного балла участника через нормальное
// распределение всей популяции: µ и σ считаются по всем включённым участникам,
// а ранги показываются отдельно для каждой группы и для общего рейтинга.
package rating

import (
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// ExclusionThreshold - порог исключения. Участник с баллом <= порога
	// не участвует в расчёте µ/σ и получает оценку 0.
	ExclusionThreshold = -15

	// MaxGrade - верхняя граница шкалы оценок.
	MaxGrade = 10.0

	// MidGrade - оценка для вырожденного случая σ == 0.
	MidGrade = 5.0

	// UnassignedCohortName - подпись для участников без группы в общем рейтинге.
	UnassignedCohortName = "Без группы"

	// RoleStudent - единственная роль, которая попадает в рейтинг.
	RoleStudent = "student"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ParticipantID - стабильный идентификатор участника.
type ParticipantID int64

// IsValid проверяет, что ID положительный.
func (id ParticipantID) IsValid() bool {
	return id > 0
}

// String возвращает строковое представление ID.
func (id ParticipantID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// CohortID - идентификатор группы.
type CohortID int64

// NoCohort означает «без группы» для участника и «вся популяция» для области рейтинга.
const NoCohort CohortID = 0

// IsAll возвращает true, если область охватывает всю популяцию.
func (c CohortID) IsAll() bool {
	return c == NoCohort
}

// IsValid проверяет корректность области: 0 (все) или положительный ID группы.
func (c CohortID) IsValid() bool {
	return c >= 0
}

// String возвращает строковое представление области.
func (c CohortID) String() string {
	if c.IsAll() {
		return "all"
	}
	return fmt.Sprintf("%d", int64(c))
}

// IsExcludedScore возвращает true, если балл не выше порога исключения.
// Граница жёсткая: балл, равный порогу, исключается.
func IsExcludedScore(score int) bool {
	return score <= ExclusionThreshold
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Cohort - группа участников. Для движка это ключ группировки плюс подпись.
type Cohort struct {
	ID   CohortID
	Name string
}

// Participant - оцениваемый участник (студент).
// Score изменяется только внешними компонентами, Grade пишет только движок.
type Participant struct {
	ID          ParticipantID
	DisplayName string
	Score       int
	CohortID    CohortID
	CohortName  string

	// Grade - текущая оценка в [0, 10]; nil, пока не рассчитана.
	// На участника хранится ровно одно значение, последняя запись побеждает.
	Grade *float64
}

// HasGrade возвращает true, если оценка уже рассчитана.
func (p Participant) HasGrade() bool {
	return p.Grade != nil
}

// InCohort возвращает true, если участник состоит в группе.
func (p Participant) InCohort() bool {
	return p.CohortID != NoCohort
}

// IsExcluded возвращает true, если текущий балл не выше порога исключения.
func (p Participant) IsExcluded() bool {
	return IsExcludedScore(p.Score)
}

// ScoredParticipant - пара (участник, балл), вход для ComputeGrades.
type ScoredParticipant struct {
	ID    ParticipantID
	Score int
}

// GradeRecord - рассчитанная оценка, которую RatingStore сохраняет на участнике.
type GradeRecord struct {
	ParticipantID ParticipantID
	Grade         float64
}

// RatingEntry - строка рейтинга. Не хранится как отдельная запись,
// собирается заново при каждом обращении из состояния участников.
type RatingEntry struct {
	ParticipantID ParticipantID `json:"user_id"`
	DisplayName   string        `json:"username"`
	Score         int           `json:"score"`
	Rank          int           `json:"rank"`
	Grade         float64       `json:"grade"`
	Excluded      bool          `json:"excluded"`
	CDF           float64       `json:"cdf_value"`
	CohortID      CohortID      `json:"group_id,omitempty"`
	CohortName    string        `json:"group_name,omitempty"`

	// Mu и Sigma заполнены только у включённых участников свежего расчёта.
	Mu    *float64 `json:"mu,omitempty"`
	Sigma *float64 `json:"sigma,omitempty"`
}

// IsPodium возвращает true для первых трёх мест.
func (e RatingEntry) IsPodium() bool {
	return e.Rank >= 1 && e.Rank <= 3
}
