package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-live/models"
)

var (
	ErrGameNotFound             = errors.New("game not found")
	ErrGameScoreAlreadyRecorded = errors.New("game score already recorded")
	ErrGameNotAwaitingVerify    = errors.New("game is not awaiting verification")
)

type GameRepository interface {
	GetByID(ctx context.Context, id int) (*models.Game, error)
	GetByIDForExec(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.Game, error)
	// GetCurrentByEncounter возвращает первую незавершённую игру встречи
	// (по порядку линий и номеров игр), либо ErrGameNotFound.
	GetCurrentByEncounter(ctx context.Context, encounterID int) (*models.Game, error)
	// MirrorQueueStatus зеркалит queued/ready и корт на текущую
	// незавершённую игру встречи. Ноль затронутых строк не ошибка.
	MirrorQueueStatus(ctx context.Context, exec SQLExecutor, encounterID int, status models.GameStatus, courtID *int) error
	// SetPlaying переводит игру в playing с привязкой корта.
	SetPlaying(ctx context.Context, exec SQLExecutor, id int, courtID *int) error
	// SubmitScore — условная запись: счёт принимается только если подателя
	// ещё нет. Ровно так обеспечивается "не более одной неподтверждённой
	// подачи" под конкурентными вызовами.
	SubmitScore(ctx context.Context, exec SQLExecutor, id int, score1, score2, unitID int, at time.Time) error
	// Confirm завершает игру подтверждением второй стороны. Ожидаемый счёт
	// входит в условие записи: если он успел измениться, возвращается
	// ErrGameNotAwaitingVerify и вызывающий перечитывает игру.
	Confirm(ctx context.Context, exec SQLExecutor, id int, unitID int, winnerUnitID int, score1, score2 int, at time.Time) error
	// Dispute фиксирует спор: счёт и податель остаются как есть.
	Dispute(ctx context.Context, exec SQLExecutor, id int, reason string, at time.Time) error
	// OverrideScores перезаписывает счёт без завершения (score_edited).
	OverrideScores(ctx context.Context, exec SQLExecutor, id int, score1, score2 int, byUserID int, note *string) error
	// OverrideFinish — авторитетное завершение: счёт, победитель, снятие
	// спора, штамп подтверждения без подтверждающего юнита.
	OverrideFinish(ctx context.Context, exec SQLExecutor, id int, score1, score2 int, byUserID int, winnerUnitID int, note *string, at time.Time) error
	// CountWinsByEncounter — карта unit_id -> выигранные игры по всем
	// матчам встречи. Выполняется через exec, чтобы видеть записи текущей
	// транзакции.
	CountWinsByEncounter(ctx context.Context, exec SQLExecutor, encounterID int) (map[int]int, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `
	g.id, g.match_id, g.game_number, g.status, g.score1, g.score2,
	g.submitted_by_unit_id, g.submitted_at, g.confirmed_by_unit_id, g.confirmed_at,
	g.overridden_by_user_id, g.disputed_at, g.dispute_reason,
	g.winner_unit_id, g.court_id, g.notes, g.finished_at, g.created_at`

func scanGame(row interface{ Scan(...interface{}) error }) (*models.Game, error) {
	g := &models.Game{}
	err := row.Scan(
		&g.ID,
		&g.MatchID,
		&g.GameNumber,
		&g.Status,
		&g.Score1,
		&g.Score2,
		&g.SubmittedByUnitID,
		&g.SubmittedAt,
		&g.ConfirmedByUnitID,
		&g.ConfirmedAt,
		&g.OverriddenByUserID,
		&g.DisputedAt,
		&g.DisputeReason,
		&g.WinnerUnitID,
		&g.CourtID,
		&g.Notes,
		&g.FinishedAt,
		&g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	return r.GetByIDForExec(ctx, r.db, id)
}

func (r *postgresGameRepository) GetByIDForExec(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games g WHERE g.id = $1`

	game, err := scanGame(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game by id %d: %w", id, err)
	}
	return game, nil
}

func (r *postgresGameRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games g WHERE g.match_id = $1 ORDER BY g.game_number ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for match %d: %w", matchID, err)
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		game, scanErr := scanGame(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", scanErr)
		}
		games = append(games, game)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during game rows iteration: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) GetCurrentByEncounter(ctx context.Context, encounterID int) (*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games g
		JOIN matches m ON m.id = g.match_id
		WHERE m.encounter_id = $1 AND g.status != $2
		ORDER BY m.line_number ASC, g.game_number ASC
		LIMIT 1`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, encounterID, models.GameStatusFinished))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan current game for encounter %d: %w", encounterID, err)
	}
	return game, nil
}

func (r *postgresGameRepository) MirrorQueueStatus(ctx context.Context, exec SQLExecutor, encounterID int, status models.GameStatus, courtID *int) error {
	query := `
		UPDATE games
		SET status = $1, court_id = $2
		WHERE id = (
			SELECT g.id
			FROM games g
			JOIN matches m ON m.id = g.match_id
			WHERE m.encounter_id = $3 AND g.status NOT IN ($4, $5, $6)
			ORDER BY m.line_number ASC, g.game_number ASC
			LIMIT 1
		)`

	_, err := exec.ExecContext(ctx, query, status, courtID, encounterID,
		models.GameStatusFinished, models.GameStatusAwaitingConfirmation, models.GameStatusDisputed)
	if err != nil {
		return fmt.Errorf("failed to mirror queue status for encounter %d: %w", encounterID, err)
	}
	return nil
}

func (r *postgresGameRepository) SetPlaying(ctx context.Context, exec SQLExecutor, id int, courtID *int) error {
	query := `UPDATE games SET status = $1, court_id = $2 WHERE id = $3`
	result, err := exec.ExecContext(ctx, query, models.GameStatusPlaying, courtID, id)
	if err != nil {
		return fmt.Errorf("failed to set game %d playing: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) SubmitScore(ctx context.Context, exec SQLExecutor, id int, score1, score2, unitID int, at time.Time) error {
	query := `
		UPDATE games
		SET score1 = $1, score2 = $2, submitted_by_unit_id = $3, submitted_at = $4, status = $5
		WHERE id = $6 AND submitted_by_unit_id IS NULL AND status != $7`

	result, err := exec.ExecContext(ctx, query, score1, score2, unitID, at,
		models.GameStatusAwaitingConfirmation, id, models.GameStatusFinished)
	if err != nil {
		return fmt.Errorf("failed to submit score for game %d: %w", id, err)
	}
	// Нулевое число строк здесь означает гонку или повторную подачу:
	// существование игры вызывающий уже проверил.
	return checkAffectedRows(result, ErrGameScoreAlreadyRecorded)
}

func (r *postgresGameRepository) Confirm(ctx context.Context, exec SQLExecutor, id int, unitID int, winnerUnitID int, score1, score2 int, at time.Time) error {
	query := `
		UPDATE games
		SET confirmed_by_unit_id = $1, confirmed_at = $2, status = $3,
		    finished_at = $2, winner_unit_id = $4
		WHERE id = $5 AND submitted_by_unit_id IS NOT NULL AND confirmed_at IS NULL AND status != $6
		  AND score1 = $7 AND score2 = $8`

	result, err := exec.ExecContext(ctx, query, unitID, at, models.GameStatusFinished, winnerUnitID, id, models.GameStatusFinished, score1, score2)
	if err != nil {
		return fmt.Errorf("failed to confirm game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotAwaitingVerify)
}

func (r *postgresGameRepository) Dispute(ctx context.Context, exec SQLExecutor, id int, reason string, at time.Time) error {
	query := `
		UPDATE games
		SET disputed_at = $1, dispute_reason = $2, status = $3
		WHERE id = $4 AND submitted_by_unit_id IS NOT NULL AND confirmed_at IS NULL AND status != $5`

	result, err := exec.ExecContext(ctx, query, at, reason, models.GameStatusDisputed, id, models.GameStatusFinished)
	if err != nil {
		return fmt.Errorf("failed to dispute game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotAwaitingVerify)
}

func (r *postgresGameRepository) OverrideScores(ctx context.Context, exec SQLExecutor, id int, score1, score2 int, byUserID int, note *string) error {
	query := `
		UPDATE games
		SET score1 = $1, score2 = $2, overridden_by_user_id = $3,
		    notes = COALESCE($4, notes)
		WHERE id = $5`

	result, err := exec.ExecContext(ctx, query, score1, score2, byUserID, note, id)
	if err != nil {
		return fmt.Errorf("failed to override scores for game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) OverrideFinish(ctx context.Context, exec SQLExecutor, id int, score1, score2 int, byUserID int, winnerUnitID int, note *string, at time.Time) error {
	// Override — собственный терминальный переход: confirmed_at ставится,
	// confirmed_by_unit_id остаётся NULL, спор снимается.
	query := `
		UPDATE games
		SET score1 = $1, score2 = $2, overridden_by_user_id = $3,
		    winner_unit_id = $4, status = $5,
		    confirmed_at = $6, finished_at = $6,
		    disputed_at = NULL, dispute_reason = NULL,
		    notes = COALESCE($7, notes)
		WHERE id = $8`

	result, err := exec.ExecContext(ctx, query, score1, score2, byUserID, winnerUnitID,
		models.GameStatusFinished, at, note, id)
	if err != nil {
		return fmt.Errorf("failed to override-finish game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) CountWinsByEncounter(ctx context.Context, exec SQLExecutor, encounterID int) (map[int]int, error) {
	query := `
		SELECT g.winner_unit_id, COUNT(*)
		FROM games g
		JOIN matches m ON m.id = g.match_id
		WHERE m.encounter_id = $1 AND g.status = $2 AND g.winner_unit_id IS NOT NULL
		GROUP BY g.winner_unit_id`

	rows, err := exec.QueryContext(ctx, query, encounterID, models.GameStatusFinished)
	if err != nil {
		return nil, fmt.Errorf("failed to count wins for encounter %d: %w", encounterID, err)
	}
	defer rows.Close()

	wins := make(map[int]int)
	for rows.Next() {
		var unitID, count int
		if scanErr := rows.Scan(&unitID, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan win count row: %w", scanErr)
		}
		wins[unitID] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during win count rows iteration: %w", err)
	}
	return wins, nil
}
