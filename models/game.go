package models

import "time"

// GameStatus представляет статусы игры, соответствующие ENUM в БД.
// Статус хранится явно: nullable-поля submit/confirm/dispute несут данные
// (кто и когда), но никогда не кодируют состояние сами по себе.
type GameStatus string

const (
	GameStatusQueued               GameStatus = "queued"
	GameStatusReady                GameStatus = "ready"
	GameStatusPlaying              GameStatus = "playing"
	GameStatusAwaitingConfirmation GameStatus = "awaiting_confirmation"
	GameStatusDisputed             GameStatus = "disputed"
	GameStatusFinished             GameStatus = "finished"
)

// Game — атомарная единица игры со счётом и протоколом подтверждения:
// одна сторона подаёт счёт, другая подтверждает или оспаривает,
// организатор может авторитетно переопределить.
type Game struct {
	ID         int        `json:"id" db:"id"`
	MatchID    int        `json:"match_id" db:"match_id"`
	GameNumber int        `json:"game_number" db:"game_number"`
	Status     GameStatus `json:"status" db:"status"`

	Score1 int `json:"score1" db:"score1"`
	Score2 int `json:"score2" db:"score2"`

	SubmittedByUnitID *int       `json:"submitted_by_unit_id,omitempty" db:"submitted_by_unit_id"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty" db:"submitted_at"`

	ConfirmedByUnitID *int       `json:"confirmed_by_unit_id,omitempty" db:"confirmed_by_unit_id"`
	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`

	// Override — отдельный терминальный переход, не peer-подтверждение.
	OverriddenByUserID *int `json:"overridden_by_user_id,omitempty" db:"overridden_by_user_id"`

	DisputedAt    *time.Time `json:"disputed_at,omitempty" db:"disputed_at"`
	DisputeReason *string    `json:"dispute_reason,omitempty" db:"dispute_reason"`

	WinnerUnitID *int    `json:"winner_unit_id,omitempty" db:"winner_unit_id"`
	CourtID      *int    `json:"court_id,omitempty" db:"court_id"`
	Notes        *string `json:"notes,omitempty" db:"notes"`

	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// IsFinished — терминальное ли состояние.
func (g *Game) IsFinished() bool {
	return g != nil && g.Status == GameStatusFinished
}
