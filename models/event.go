package models

import "time"

// EventStatus представляет статусы события, соответствующие ENUM в БД.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCanceled  EventStatus = "canceled"
)

// Event — турнирное событие верхнего уровня.
// PublishedAt/PublishedBy заполняются только через PublishService (каскадно
// вместе с дивизионами, в одной транзакции).
type Event struct {
	ID          int         `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	OrganizerID int         `json:"organizer_id" db:"organizer_id"`
	Status      EventStatus `json:"status" db:"status"`

	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	PublishedBy *int       `json:"published_by,omitempty" db:"published_by"`

	// Штамп последней валидации расписания (побочный эффект валидатора).
	LastValidatedAt   *time.Time `json:"last_validated_at,omitempty" db:"last_validated_at"`
	LastConflictCount *int       `json:"last_conflict_count,omitempty" db:"last_conflict_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsPublished сообщает, видно ли расписание события публично.
func (e *Event) IsPublished() bool {
	return e != nil && e.PublishedAt != nil
}
