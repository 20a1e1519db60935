package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-live/models"
)

var ErrUnitNotFound = errors.New("unit not found")

type UnitRepository interface {
	GetByID(ctx context.Context, id int) (*models.Unit, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Unit, error)
	// ApplyEncounterResult инкрементит накопительную статистику юнита.
	// Вызывается только roll-up'ом завершения встречи, один раз на встречу.
	ApplyEncounterResult(ctx context.Context, exec SQLExecutor, unitID int, won bool, gamesWon, gamesLost int) error
	// ListMemberUserIDs — user id членов юнита для адресных уведомлений.
	ListMemberUserIDs(ctx context.Context, unitID int) ([]int, error)
}

type postgresUnitRepository struct {
	db *sql.DB
}

func NewPostgresUnitRepository(db *sql.DB) UnitRepository {
	return &postgresUnitRepository{db: db}
}

const unitColumns = `id, event_id, division_id, name, matches_played, matches_won, matches_lost, games_won, games_lost, created_at`

func scanUnit(row interface{ Scan(...interface{}) error }) (*models.Unit, error) {
	u := &models.Unit{}
	err := row.Scan(
		&u.ID,
		&u.EventID,
		&u.DivisionID,
		&u.Name,
		&u.MatchesPlayed,
		&u.MatchesWon,
		&u.MatchesLost,
		&u.GamesWon,
		&u.GamesLost,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *postgresUnitRepository) GetByID(ctx context.Context, id int) (*models.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE id = $1`

	unit, err := scanUnit(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to scan unit by id %d: %w", id, err)
	}
	return unit, nil
}

func (r *postgresUnitRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE event_id = $1 ORDER BY name ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query units for event %d: %w", eventID, err)
	}
	defer rows.Close()

	units := make([]*models.Unit, 0)
	for rows.Next() {
		unit, scanErr := scanUnit(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan unit row: %w", scanErr)
		}
		units = append(units, unit)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during unit rows iteration: %w", err)
	}
	return units, nil
}

func (r *postgresUnitRepository) ApplyEncounterResult(ctx context.Context, exec SQLExecutor, unitID int, won bool, gamesWon, gamesLost int) error {
	query := `
		UPDATE units
		SET matches_played = matches_played + 1,
		    matches_won = matches_won + CASE WHEN $1 THEN 1 ELSE 0 END,
		    matches_lost = matches_lost + CASE WHEN $1 THEN 0 ELSE 1 END,
		    games_won = games_won + $2,
		    games_lost = games_lost + $3
		WHERE id = $4`

	result, err := exec.ExecContext(ctx, query, won, gamesWon, gamesLost, unitID)
	if err != nil {
		return fmt.Errorf("failed to apply encounter result for unit %d: %w", unitID, err)
	}
	return checkAffectedRows(result, ErrUnitNotFound)
}

func (r *postgresUnitRepository) ListMemberUserIDs(ctx context.Context, unitID int) ([]int, error) {
	query := `SELECT user_id FROM unit_members WHERE unit_id = $1 ORDER BY user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members for unit %d: %w", unitID, err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan unit member row: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during unit member rows iteration: %w", err)
	}
	return ids, nil
}
