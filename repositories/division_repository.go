package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/tournament-live/models"
)

var ErrDivisionNotFound = errors.New("division not found")

type DivisionRepository interface {
	GetByID(ctx context.Context, id int) (*models.Division, error)
	ListByEvent(ctx context.Context, eventID int, activeOnly bool) ([]*models.Division, error)
	// SetPublishedByEvent каскадно ставит/снимает штамп публикации на всех
	// активных дивизионах события. Возвращает число затронутых строк.
	SetPublishedByEvent(ctx context.Context, exec SQLExecutor, eventID int, at *time.Time) (int, error)
	// ListIDsWithoutActiveBindings возвращает активные дивизионы события,
	// у которых нет ни одной активной привязки к группе кортов.
	ListIDsWithoutActiveBindings(ctx context.Context, eventID int) ([]int, error)
}

type postgresDivisionRepository struct {
	db *sql.DB
}

func NewPostgresDivisionRepository(db *sql.DB) DivisionRepository {
	return &postgresDivisionRepository{db: db}
}

const divisionColumns = `id, event_id, name, match_duration_minutes, games_per_match, is_active, published_at, created_at`

func scanDivision(row interface{ Scan(...interface{}) error }) (*models.Division, error) {
	d := &models.Division{}
	err := row.Scan(
		&d.ID,
		&d.EventID,
		&d.Name,
		&d.MatchDurationMinutes,
		&d.GamesPerMatch,
		&d.IsActive,
		&d.PublishedAt,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *postgresDivisionRepository) GetByID(ctx context.Context, id int) (*models.Division, error) {
	query := `SELECT ` + divisionColumns + ` FROM divisions WHERE id = $1`

	division, err := scanDivision(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDivisionNotFound
		}
		return nil, fmt.Errorf("failed to scan division by id %d: %w", id, err)
	}
	return division, nil
}

func (r *postgresDivisionRepository) ListByEvent(ctx context.Context, eventID int, activeOnly bool) ([]*models.Division, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + divisionColumns + ` FROM divisions WHERE event_id = $1`)
	if activeOnly {
		queryBuilder.WriteString(" AND is_active = TRUE")
	}
	queryBuilder.WriteString(" ORDER BY name ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query divisions for event %d: %w", eventID, err)
	}
	defer rows.Close()

	divisions := make([]*models.Division, 0)
	for rows.Next() {
		division, scanErr := scanDivision(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan division row: %w", scanErr)
		}
		divisions = append(divisions, division)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during division rows iteration: %w", err)
	}
	return divisions, nil
}

func (r *postgresDivisionRepository) SetPublishedByEvent(ctx context.Context, exec SQLExecutor, eventID int, at *time.Time) (int, error) {
	query := `UPDATE divisions SET published_at = $1 WHERE event_id = $2 AND is_active = TRUE`
	result, err := exec.ExecContext(ctx, query, at, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to cascade publish stamp for event %d: %w", eventID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(affected), nil
}

func (r *postgresDivisionRepository) ListIDsWithoutActiveBindings(ctx context.Context, eventID int) ([]int, error) {
	query := `
		SELECT d.id
		FROM divisions d
		WHERE d.event_id = $1
		  AND d.is_active = TRUE
		  AND NOT EXISTS (
			SELECT 1 FROM division_court_groups b
			WHERE b.division_id = d.id AND b.is_active = TRUE
		  )
		ORDER BY d.id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unbound divisions for event %d: %w", eventID, err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan division id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during unbound division rows iteration: %w", err)
	}
	return ids, nil
}
