package models

import "time"

// ScoreChangeType — тип записи в журнале счёта.
type ScoreChangeType string

const (
	ScoreChangeSubmitted     ScoreChangeType = "score_submitted"
	ScoreChangeConfirmed     ScoreChangeType = "score_confirmed"
	ScoreChangeDisputed      ScoreChangeType = "score_disputed"
	ScoreChangeEdited        ScoreChangeType = "score_edited"
	ScoreChangeAdminOverride ScoreChangeType = "admin_override"
)

// ScoreHistoryEntry — неизменяемая запись журнала изменений счёта игры.
// Журнал append-only: записи никогда не обновляются и не удаляются,
// это канонический источник истины для разбора споров.
type ScoreHistoryEntry struct {
	ID     int    `json:"id" db:"id"`
	UID    string `json:"uid" db:"uid"`
	GameID int    `json:"game_id" db:"game_id"`

	ChangeType ScoreChangeType `json:"change_type" db:"change_type"`

	NewScore1  int  `json:"new_score1" db:"new_score1"`
	NewScore2  int  `json:"new_score2" db:"new_score2"`
	PrevScore1 *int `json:"prev_score1,omitempty" db:"prev_score1"`
	PrevScore2 *int `json:"prev_score2,omitempty" db:"prev_score2"`

	ActingUserID int     `json:"acting_user_id" db:"acting_user_id"`
	ActingUnitID *int    `json:"acting_unit_id,omitempty" db:"acting_unit_id"`
	Reason       *string `json:"reason,omitempty" db:"reason"`

	IsAdminOverride bool   `json:"is_admin_override" db:"is_admin_override"`
	Origin          string `json:"origin" db:"origin"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
