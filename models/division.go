package models

import "time"

// Division — группа участников внутри события (возрастная/рейтинговая сетка).
// Несёт дефолты для планировщика: длительность встречи и best-of серии.
type Division struct {
	ID      int    `json:"id" db:"id"`
	EventID int    `json:"event_id" db:"event_id"`
	Name    string `json:"name" db:"name"`

	MatchDurationMinutes int  `json:"match_duration_minutes" db:"match_duration_minutes"`
	GamesPerMatch        int  `json:"games_per_match" db:"games_per_match"` // best-of по умолчанию, нечётное
	IsActive             bool `json:"is_active" db:"is_active"`

	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	CourtGroupBindings []DivisionCourtGroup `json:"court_group_bindings,omitempty" db:"-"`
}
