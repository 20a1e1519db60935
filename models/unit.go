package models

import "time"

// Unit — зарегистрированный участник (игрок или команда) с накопительной
// статистикой. Статистика мутируется только roll-up'ом завершения встречи,
// никогда напрямую игроками.
type Unit struct {
	ID         int    `json:"id" db:"id"`
	EventID    int    `json:"event_id" db:"event_id"`
	DivisionID int    `json:"division_id" db:"division_id"`
	Name       string `json:"name" db:"name"`

	MatchesPlayed int `json:"matches_played" db:"matches_played"`
	MatchesWon    int `json:"matches_won" db:"matches_won"`
	MatchesLost   int `json:"matches_lost" db:"matches_lost"`
	GamesWon      int `json:"games_won" db:"games_won"`
	GamesLost     int `json:"games_lost" db:"games_lost"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Члены юнита (user id) для адресной доставки уведомлений.
	MemberUserIDs []int `json:"member_user_ids,omitempty" db:"-"`
}
