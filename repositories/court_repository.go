package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-live/models"
	"github.com/lib/pq"
)

var (
	ErrCourtNotFound = errors.New("court not found")
	ErrCourtOccupied = errors.New("court is already occupied by another game")
)

type CourtRepository interface {
	GetByID(ctx context.Context, id int) (*models.Court, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Court, error)
	ListByGroupIDs(ctx context.Context, groupIDs []int) ([]*models.Court, error)
	// Occupy помечает корт занятым и привязывает к нему игру одним условным
	// UPDATE: занять можно только свободный корт (инвариант "одна играющая
	// игра на корт").
	Occupy(ctx context.Context, exec SQLExecutor, courtID, gameID int) error
	// ReleaseByGame освобождает корт, занятый игрой: статус и указатель
	// сбрасываются атомарно, одним запросом.
	ReleaseByGame(ctx context.Context, exec SQLExecutor, gameID int) error
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

const courtColumns = `id, event_id, label, status, current_game_id, created_at`

func scanCourt(row interface{ Scan(...interface{}) error }) (*models.Court, error) {
	c := &models.Court{}
	err := row.Scan(
		&c.ID,
		&c.EventID,
		&c.Label,
		&c.Status,
		&c.CurrentGameID,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id int) (*models.Court, error) {
	query := `SELECT ` + courtColumns + ` FROM courts WHERE id = $1`

	court, err := scanCourt(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to scan court by id %d: %w", id, err)
	}
	return court, nil
}

func (r *postgresCourtRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Court, error) {
	query := `SELECT ` + courtColumns + ` FROM courts WHERE event_id = $1 ORDER BY label ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query courts for event %d: %w", eventID, err)
	}
	defer rows.Close()
	return collectCourts(rows)
}

func (r *postgresCourtRepository) ListByGroupIDs(ctx context.Context, groupIDs []int) ([]*models.Court, error) {
	if len(groupIDs) == 0 {
		return []*models.Court{}, nil
	}
	// Порядок групп сохраняется позицией в переданном массиве, чтобы
	// приоритет привязок переживал выборку.
	query := `
		SELECT c.id, c.event_id, c.label, c.status, c.current_game_id, c.created_at
		FROM courts c
		JOIN court_group_courts gc ON gc.court_id = c.id
		WHERE gc.court_group_id = ANY($1)
		ORDER BY array_position($1, gc.court_group_id), c.label ASC, c.id ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(groupIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query courts for groups %v: %w", groupIDs, err)
	}
	defer rows.Close()
	return collectCourts(rows)
}

func collectCourts(rows *sql.Rows) ([]*models.Court, error) {
	courts := make([]*models.Court, 0)
	for rows.Next() {
		court, scanErr := scanCourt(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan court row: %w", scanErr)
		}
		courts = append(courts, court)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during court rows iteration: %w", err)
	}
	return courts, nil
}

func (r *postgresCourtRepository) Occupy(ctx context.Context, exec SQLExecutor, courtID, gameID int) error {
	query := `
		UPDATE courts
		SET status = $1, current_game_id = $2
		WHERE id = $3 AND current_game_id IS NULL`

	result, err := exec.ExecContext(ctx, query, models.CourtStatusInUse, gameID, courtID)
	if err != nil {
		return fmt.Errorf("failed to occupy court %d for game %d: %w", courtID, gameID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return ErrCourtOccupied
	}
	return nil
}

func (r *postgresCourtRepository) ReleaseByGame(ctx context.Context, exec SQLExecutor, gameID int) error {
	query := `
		UPDATE courts
		SET status = $1, current_game_id = NULL
		WHERE current_game_id = $2`

	// Ноль затронутых строк не ошибка: игра могла идти без корта.
	if _, err := exec.ExecContext(ctx, query, models.CourtStatusAvailable, gameID); err != nil {
		return fmt.Errorf("failed to release court for game %d: %w", gameID, err)
	}
	return nil
}
