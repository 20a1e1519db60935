package models

import "time"

// TimelineBlock — один временной блок встречи на корте.
type TimelineBlock struct {
	EncounterID  int             `json:"encounter_id"`
	DivisionID   int             `json:"division_id"`
	DivisionName string          `json:"division_name"`
	RoundLabel   *string         `json:"round_label,omitempty"`
	Unit1Name    string          `json:"unit1_name"`
	Unit2Name    string          `json:"unit2_name"`
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	Status       EncounterStatus `json:"status"`
	HasConflict  bool            `json:"has_conflict"`
}

// CourtTimeline — упорядоченный по времени список блоков одного корта.
type CourtTimeline struct {
	CourtID    int             `json:"court_id"`
	CourtLabel string          `json:"court_label"`
	Blocks     []TimelineBlock `json:"blocks"`
}

// DivisionSummary — цвет и сводка по дивизиону для легенды таймлайна.
type DivisionSummary struct {
	DivisionID     int    `json:"division_id"`
	Name           string `json:"name"`
	Color          string `json:"color"`
	EncounterCount int    `json:"encounter_count"`
	ScheduledCount int    `json:"scheduled_count"`
	CompletedCount int    `json:"completed_count"`
}

// EventTimeline — полное представление расписания события по кортам.
type EventTimeline struct {
	EventID     int               `json:"event_id"`
	Published   bool              `json:"published"`
	GeneratedAt time.Time         `json:"generated_at"`
	Courts      []CourtTimeline   `json:"courts"`
	Divisions   []DivisionSummary `json:"divisions"`
}
