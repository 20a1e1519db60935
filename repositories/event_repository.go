package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-live/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	GetByID(ctx context.Context, id int) (*models.Event, error)
	// SetPublished ставит (или снимает, при nil) штамп публикации события.
	SetPublished(ctx context.Context, exec SQLExecutor, eventID int, at *time.Time, by *int) error
	// UpdateValidationStamp сохраняет момент и итог последней валидации.
	UpdateValidationStamp(ctx context.Context, eventID int, at time.Time, conflictCount int) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `
		SELECT id, name, organizer_id, status, published_at, published_by,
		       last_validated_at, last_conflict_count, created_at
		FROM events
		WHERE id = $1`

	event := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.OrganizerID,
		&event.Status,
		&event.PublishedAt,
		&event.PublishedBy,
		&event.LastValidatedAt,
		&event.LastConflictCount,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event by id %d: %w", id, err)
	}
	return event, nil
}

func (r *postgresEventRepository) SetPublished(ctx context.Context, exec SQLExecutor, eventID int, at *time.Time, by *int) error {
	query := `UPDATE events SET published_at = $1, published_by = $2 WHERE id = $3`
	result, err := exec.ExecContext(ctx, query, at, by, eventID)
	if err != nil {
		return fmt.Errorf("failed to update publish stamp for event %d: %w", eventID, err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateValidationStamp(ctx context.Context, eventID int, at time.Time, conflictCount int) error {
	query := `UPDATE events SET last_validated_at = $1, last_conflict_count = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, at, conflictCount, eventID)
	if err != nil {
		return fmt.Errorf("failed to update validation stamp for event %d: %w", eventID, err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}
