package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/tournament-live/models"
)

// ScoreHistoryRepository — append-only журнал изменений счёта.
// Только вставка и чтение: UPDATE/DELETE у журнала нет по определению.
type ScoreHistoryRepository interface {
	Append(ctx context.Context, exec SQLExecutor, entry *models.ScoreHistoryEntry) error
	ListByGame(ctx context.Context, gameID int) ([]*models.ScoreHistoryEntry, error)
}

type postgresScoreHistoryRepository struct {
	db *sql.DB
}

func NewPostgresScoreHistoryRepository(db *sql.DB) ScoreHistoryRepository {
	return &postgresScoreHistoryRepository{db: db}
}

func (r *postgresScoreHistoryRepository) Append(ctx context.Context, exec SQLExecutor, entry *models.ScoreHistoryEntry) error {
	query := `
		INSERT INTO score_history
			(uid, game_id, change_type, new_score1, new_score2, prev_score1, prev_score2,
			 acting_user_id, acting_unit_id, reason, is_admin_override, origin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		entry.UID,
		entry.GameID,
		entry.ChangeType,
		entry.NewScore1,
		entry.NewScore2,
		entry.PrevScore1,
		entry.PrevScore2,
		entry.ActingUserID,
		entry.ActingUnitID,
		entry.Reason,
		entry.IsAdminOverride,
		entry.Origin,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append score history for game %d: %w", entry.GameID, err)
	}
	return nil
}

func (r *postgresScoreHistoryRepository) ListByGame(ctx context.Context, gameID int) ([]*models.ScoreHistoryEntry, error) {
	query := `
		SELECT id, uid, game_id, change_type, new_score1, new_score2, prev_score1, prev_score2,
		       acting_user_id, acting_unit_id, reason, is_admin_override, origin, created_at
		FROM score_history
		WHERE game_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history for game %d: %w", gameID, err)
	}
	defer rows.Close()

	entries := make([]*models.ScoreHistoryEntry, 0)
	for rows.Next() {
		entry := &models.ScoreHistoryEntry{}
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.UID,
			&entry.GameID,
			&entry.ChangeType,
			&entry.NewScore1,
			&entry.NewScore2,
			&entry.PrevScore1,
			&entry.PrevScore2,
			&entry.ActingUserID,
			&entry.ActingUnitID,
			&entry.Reason,
			&entry.IsAdminOverride,
			&entry.Origin,
			&entry.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan score history row: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during score history rows iteration: %w", err)
	}
	return entries, nil
}
