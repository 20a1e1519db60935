package models

import "time"

// EncounterStatus представляет статусы встречи, соответствующие ENUM в БД.
type EncounterStatus string

const (
	EncounterStatusScheduled  EncounterStatus = "scheduled"
	EncounterStatusQueued     EncounterStatus = "queued"
	EncounterStatusReady      EncounterStatus = "ready"
	EncounterStatusInProgress EncounterStatus = "in_progress"
	EncounterStatusCompleted  EncounterStatus = "completed"
	EncounterStatusCanceled   EncounterStatus = "canceled"
	EncounterStatusBye        EncounterStatus = "bye"
)

// Encounter — запланированная встреча двух юнитов в рамках дивизиона/раунда.
// Владеет одним или несколькими Match; результат фиксируется ровно один раз,
// после чего корт освобождается и исход неизменяем.
type Encounter struct {
	ID         int             `json:"id" db:"id"`
	DivisionID int             `json:"division_id" db:"division_id"`
	RoundLabel *string         `json:"round_label,omitempty" db:"round_label"`
	Unit1ID    int             `json:"unit1_id" db:"unit1_id"`
	Unit2ID    int             `json:"unit2_id" db:"unit2_id"`
	BestOf     int             `json:"best_of" db:"best_of"` // нечётное, >=1
	Status     EncounterStatus `json:"status" db:"status"`

	CourtID            *int       `json:"court_id,omitempty" db:"court_id"`
	ScheduledTime      *time.Time `json:"scheduled_time,omitempty" db:"scheduled_time"`
	EstimatedStartTime *time.Time `json:"estimated_start_time,omitempty" db:"estimated_start_time"`
	ActualStartTime    *time.Time `json:"actual_start_time,omitempty" db:"actual_start_time"`

	// Переопределение длительности; иначе берётся дефолт дивизиона.
	DurationMinutes *int `json:"duration_minutes,omitempty" db:"duration_minutes"`

	WinnerUnitID *int       `json:"winner_unit_id,omitempty" db:"winner_unit_id"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Unit1   *Unit   `json:"unit1,omitempty" db:"-"`
	Unit2   *Unit   `json:"unit2,omitempty" db:"-"`
	Court   *Court  `json:"court,omitempty" db:"-"`
	Matches []Match `json:"matches,omitempty" db:"-"`
}

// HasParticipant проверяет, участвует ли юнит в этой встрече.
func (e *Encounter) HasParticipant(unitID int) bool {
	return e != nil && (e.Unit1ID == unitID || e.Unit2ID == unitID)
}

// OpponentOf возвращает id второго участника. Ноль, если unitID не участвует.
func (e *Encounter) OpponentOf(unitID int) int {
	switch {
	case e == nil:
		return 0
	case e.Unit1ID == unitID:
		return e.Unit2ID
	case e.Unit2ID == unitID:
		return e.Unit1ID
	default:
		return 0
	}
}

// WinsNeeded возвращает число выигранных игр, необходимое для взятия серии.
func (e *Encounter) WinsNeeded() int {
	return e.BestOf/2 + 1
}

// Match — одна линия внутри встречи (например, отдельная пара в командном
// противостоянии). Содержит серию игр best-of.
type Match struct {
	ID          int       `json:"id" db:"id"`
	EncounterID int       `json:"encounter_id" db:"encounter_id"`
	LineNumber  int       `json:"line_number" db:"line_number"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Games []Game `json:"games,omitempty" db:"-"`
}
