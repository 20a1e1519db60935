package models

import "time"

// ScheduleConflictType — вид конфликта расписания.
type ScheduleConflictType string

const (
	ConflictCourtOverlap ScheduleConflictType = "court_overlap"
	ConflictUnitOverlap  ScheduleConflictType = "unit_overlap"
)

// ScheduleConflict описывает пересечение двух встреч по корту или участнику.
// Времена задают пересекающийся диапазон [OverlapStart, OverlapEnd).
type ScheduleConflict struct {
	Type         ScheduleConflictType `json:"type"`
	Encounter1ID int                  `json:"encounter1_id"`
	Encounter2ID int                  `json:"encounter2_id"`
	CourtID      *int                 `json:"court_id,omitempty"`
	CourtLabel   *string              `json:"court_label,omitempty"`
	UnitID       *int                 `json:"unit_id,omitempty"`
	OverlapStart time.Time            `json:"overlap_start"`
	OverlapEnd   time.Time            `json:"overlap_end"`
}

// References сообщает, касается ли конфликт пары встреч (в любом порядке id).
func (c ScheduleConflict) References(e1, e2 int) bool {
	return (c.Encounter1ID == e1 && c.Encounter2ID == e2) ||
		(c.Encounter1ID == e2 && c.Encounter2ID == e1)
}

type ScheduleWarningType string

const (
	WarningUnassignedEncounter ScheduleWarningType = "unassigned_encounter"
	WarningUnboundDivision     ScheduleWarningType = "unbound_division"
)

type ScheduleWarning struct {
	Type        ScheduleWarningType `json:"type"`
	EncounterID *int                `json:"encounter_id,omitempty"`
	DivisionID  *int                `json:"division_id,omitempty"`
	Message     string              `json:"message"`
}

// ValidationResult — структурированный итог проверки расписания.
// Valid == true только при нуле конфликтов и нуле неназначенных встреч;
// дивизионы без активных привязок дают предупреждение, но не блокируют.
type ValidationResult struct {
	EventID         int                `json:"event_id"`
	Conflicts       []ScheduleConflict `json:"conflicts"`
	Warnings        []ScheduleWarning  `json:"warnings"`
	ConflictCount   int                `json:"conflict_count"`
	UnassignedCount int                `json:"unassigned_count"`
	UnboundCount    int                `json:"unbound_division_count"`
	Valid           bool               `json:"valid"`
	ValidatedAt     time.Time          `json:"validated_at"`
}
