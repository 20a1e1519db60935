package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-live/models"
	"github.com/lib/pq"
)

var (
	ErrCourtGroupNotFound        = errors.New("court group not found")
	ErrCourtGroupBindingConflict = errors.New("court group binding conflict or invalid")
)

type CourtGroupRepository interface {
	GetByID(ctx context.Context, id int) (*models.CourtGroup, error)
	ListByIDs(ctx context.Context, ids []int) ([]*models.CourtGroup, error)
	// ReplaceDivisionBindings заменяет весь набор привязок дивизиона новым
	// упорядоченным списком. Вызывается внутри транзакции сервиса.
	ReplaceDivisionBindings(ctx context.Context, exec SQLExecutor, divisionID int, bindings []models.DivisionCourtGroup) error
	// ListBindingsByDivision возвращает привязки в порядке приоритета.
	ListBindingsByDivision(ctx context.Context, divisionID int, activeOnly bool) ([]*models.DivisionCourtGroup, error)
}

type postgresCourtGroupRepository struct {
	db *sql.DB
}

func NewPostgresCourtGroupRepository(db *sql.DB) CourtGroupRepository {
	return &postgresCourtGroupRepository{db: db}
}

func (r *postgresCourtGroupRepository) GetByID(ctx context.Context, id int) (*models.CourtGroup, error) {
	query := `SELECT id, event_id, name, created_at FROM court_groups WHERE id = $1`

	group := &models.CourtGroup{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&group.ID, &group.EventID, &group.Name, &group.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan court group by id %d: %w", id, err)
	}
	return group, nil
}

func (r *postgresCourtGroupRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.CourtGroup, error) {
	if len(ids) == 0 {
		return []*models.CourtGroup{}, nil
	}
	query := `SELECT id, event_id, name, created_at FROM court_groups WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query court groups %v: %w", ids, err)
	}
	defer rows.Close()

	groups := make([]*models.CourtGroup, 0, len(ids))
	for rows.Next() {
		group := &models.CourtGroup{}
		if scanErr := rows.Scan(&group.ID, &group.EventID, &group.Name, &group.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan court group row: %w", scanErr)
		}
		groups = append(groups, group)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during court group rows iteration: %w", err)
	}
	return groups, nil
}

func (r *postgresCourtGroupRepository) ReplaceDivisionBindings(ctx context.Context, exec SQLExecutor, divisionID int, bindings []models.DivisionCourtGroup) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM division_court_groups WHERE division_id = $1`, divisionID); err != nil {
		return fmt.Errorf("failed to delete old bindings for division %d: %w", divisionID, err)
	}
	if len(bindings) == 0 {
		return nil
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		INSERT INTO division_court_groups
			(division_id, court_group_id, priority, mode, pool_name, valid_from, valid_until, is_active)
		VALUES `)

	args := make([]interface{}, 0, len(bindings)*8)
	for i, b := range bindings {
		if i > 0 {
			queryBuilder.WriteString(", ")
		}
		base := i * 8
		queryBuilder.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args, divisionID, b.CourtGroupID, b.Priority, b.Mode, b.PoolName, b.ValidFrom, b.ValidUntil, b.IsActive)
	}

	if _, err := exec.ExecContext(ctx, queryBuilder.String(), args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			// "23503": foreign_key_violation
			switch pqErr.Constraint {
			case "division_court_groups_court_group_id_fkey", "division_court_groups_division_id_fkey":
				return ErrCourtGroupBindingConflict
			}
		}
		return fmt.Errorf("failed to insert bindings for division %d: %w", divisionID, err)
	}
	return nil
}

func (r *postgresCourtGroupRepository) ListBindingsByDivision(ctx context.Context, divisionID int, activeOnly bool) ([]*models.DivisionCourtGroup, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, division_id, court_group_id, priority, mode, pool_name, valid_from, valid_until, is_active
		FROM division_court_groups
		WHERE division_id = $1`)
	if activeOnly {
		queryBuilder.WriteString(" AND is_active = TRUE")
	}
	queryBuilder.WriteString(" ORDER BY priority ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), divisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bindings for division %d: %w", divisionID, err)
	}
	defer rows.Close()

	bindings := make([]*models.DivisionCourtGroup, 0)
	for rows.Next() {
		b := &models.DivisionCourtGroup{}
		if scanErr := rows.Scan(
			&b.ID,
			&b.DivisionID,
			&b.CourtGroupID,
			&b.Priority,
			&b.Mode,
			&b.PoolName,
			&b.ValidFrom,
			&b.ValidUntil,
			&b.IsActive,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan binding row: %w", scanErr)
		}
		bindings = append(bindings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during binding rows iteration: %w", err)
	}
	return bindings, nil
}
