package models

import "time"

type CourtStatus string

const (
	CourtStatusAvailable CourtStatus = "available"
	CourtStatusInUse     CourtStatus = "in_use"
)

// Court — физический корт. Инвариант: CurrentGameID, если установлен,
// указывает на игру со статусом "playing"; освобождение корта сбрасывает
// статус и указатель одним UPDATE.
type Court struct {
	ID            int         `json:"id" db:"id"`
	EventID       int         `json:"event_id" db:"event_id"`
	Label         string      `json:"label" db:"label"`
	Status        CourtStatus `json:"status" db:"status"`
	CurrentGameID *int        `json:"current_game_id,omitempty" db:"current_game_id"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// CourtGroup — именованный кластер кортов (например, зал или площадка),
// единица привязки к дивизиону.
type CourtGroup struct {
	ID        int       `json:"id" db:"id"`
	EventID   int       `json:"event_id" db:"event_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Courts []Court `json:"courts,omitempty" db:"-"`
}

// AssignmentMode ограничивает привязку фазой турнира.
type AssignmentMode string

const (
	AssignmentModeAny     AssignmentMode = "any"
	AssignmentModePool    AssignmentMode = "pool"
	AssignmentModeBracket AssignmentMode = "bracket"
)

// DivisionCourtGroup — привязка дивизиона к группе кортов с приоритетом и
// необязательным окном действия, чтобы дивизион мог использовать разные
// пулы кортов в разных фазах.
type DivisionCourtGroup struct {
	ID           int            `json:"id" db:"id"`
	DivisionID   int            `json:"division_id" db:"division_id"`
	CourtGroupID int            `json:"court_group_id" db:"court_group_id"`
	Priority     int            `json:"priority" db:"priority"`
	Mode         AssignmentMode `json:"mode" db:"mode"`
	PoolName     *string        `json:"pool_name,omitempty" db:"pool_name"`
	ValidFrom    *time.Time     `json:"valid_from,omitempty" db:"valid_from"`
	ValidUntil   *time.Time     `json:"valid_until,omitempty" db:"valid_until"`
	IsActive     bool           `json:"is_active" db:"is_active"`

	CourtGroup *CourtGroup `json:"court_group,omitempty" db:"-"`
}

// ActiveAt проверяет, действует ли привязка в указанный момент.
func (b DivisionCourtGroup) ActiveAt(t time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.ValidFrom != nil && t.Before(*b.ValidFrom) {
		return false
	}
	if b.ValidUntil != nil && !t.Before(*b.ValidUntil) {
		return false
	}
	return true
}
