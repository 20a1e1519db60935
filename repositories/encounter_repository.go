package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-live/models"
	"github.com/lib/pq"
)

var (
	ErrEncounterNotFound         = errors.New("encounter not found")
	ErrEncounterCourtInvalid     = errors.New("encounter court conflict or invalid")
	ErrEncounterAlreadyCompleted = errors.New("encounter already completed")
)

type EncounterRepository interface {
	GetByID(ctx context.Context, id int) (*models.Encounter, error)
	GetByIDForExec(ctx context.Context, exec SQLExecutor, id int) (*models.Encounter, error)
	// ListScheduledByEvent возвращает неотменённые встречи события без bye,
	// у которых назначены и корт, и время. Вход для валидатора.
	ListScheduledByEvent(ctx context.Context, eventID int) ([]*models.Encounter, error)
	// ListByEvent возвращает все неотменённые встречи события без bye.
	ListByEvent(ctx context.Context, eventID int) ([]*models.Encounter, error)
	ListByDivision(ctx context.Context, divisionID int) ([]*models.Encounter, error)
	// UpdateAssignment применяет один элемент массового назначения:
	// корт пишется всегда (nil явно очищает), времена — только если заданы
	// (COALESCE). Статус зеркалится в queued/ready, не трогая начатые встречи.
	UpdateAssignment(ctx context.Context, exec SQLExecutor, id int, courtID *int, scheduledTime, estimatedStartTime *time.Time) error
	// ClearAssignmentsByDivision обнуляет корт и времена у всех ещё не
	// начатых встреч дивизиона. Возвращает число затронутых.
	ClearAssignmentsByDivision(ctx context.Context, exec SQLExecutor, divisionID int) (int, error)
	// SetCourt назначает/снимает корт со сменой статуса queued/ready.
	SetCourt(ctx context.Context, exec SQLExecutor, id int, courtID *int, status models.EncounterStatus) error
	// MarkStarted переводит встречу в in_progress со штампом старта.
	MarkStarted(ctx context.Context, exec SQLExecutor, id int, at time.Time) error
	// Complete фиксирует результат ровно один раз (условие completed_at IS NULL).
	Complete(ctx context.Context, exec SQLExecutor, id int, winnerUnitID int, at time.Time) error
}

type postgresEncounterRepository struct {
	db *sql.DB
}

func NewPostgresEncounterRepository(db *sql.DB) EncounterRepository {
	return &postgresEncounterRepository{db: db}
}

const encounterColumns = `
	e.id, e.division_id, e.round_label, e.unit1_id, e.unit2_id, e.best_of, e.status,
	e.court_id, e.scheduled_time, e.estimated_start_time, e.actual_start_time,
	e.duration_minutes, e.winner_unit_id, e.completed_at, e.created_at`

func scanEncounter(row interface{ Scan(...interface{}) error }) (*models.Encounter, error) {
	e := &models.Encounter{}
	err := row.Scan(
		&e.ID,
		&e.DivisionID,
		&e.RoundLabel,
		&e.Unit1ID,
		&e.Unit2ID,
		&e.BestOf,
		&e.Status,
		&e.CourtID,
		&e.ScheduledTime,
		&e.EstimatedStartTime,
		&e.ActualStartTime,
		&e.DurationMinutes,
		&e.WinnerUnitID,
		&e.CompletedAt,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *postgresEncounterRepository) GetByID(ctx context.Context, id int) (*models.Encounter, error) {
	return r.GetByIDForExec(ctx, r.db, id)
}

func (r *postgresEncounterRepository) GetByIDForExec(ctx context.Context, exec SQLExecutor, id int) (*models.Encounter, error) {
	query := `SELECT ` + encounterColumns + ` FROM encounters e WHERE e.id = $1`

	encounter, err := scanEncounter(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEncounterNotFound
		}
		return nil, fmt.Errorf("failed to scan encounter by id %d: %w", id, err)
	}
	return encounter, nil
}

func (r *postgresEncounterRepository) ListScheduledByEvent(ctx context.Context, eventID int) ([]*models.Encounter, error) {
	query := `
		SELECT ` + encounterColumns + `
		FROM encounters e
		JOIN divisions d ON d.id = e.division_id
		WHERE d.event_id = $1
		  AND e.status NOT IN ($2, $3)
		  AND e.court_id IS NOT NULL
		  AND e.scheduled_time IS NOT NULL
		ORDER BY e.scheduled_time ASC, e.id ASC`

	return r.queryEncounters(ctx, query, eventID, models.EncounterStatusCanceled, models.EncounterStatusBye)
}

func (r *postgresEncounterRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Encounter, error) {
	query := `
		SELECT ` + encounterColumns + `
		FROM encounters e
		JOIN divisions d ON d.id = e.division_id
		WHERE d.event_id = $1
		  AND e.status NOT IN ($2, $3)
		ORDER BY e.scheduled_time ASC NULLS LAST, e.id ASC`

	return r.queryEncounters(ctx, query, eventID, models.EncounterStatusCanceled, models.EncounterStatusBye)
}

func (r *postgresEncounterRepository) ListByDivision(ctx context.Context, divisionID int) ([]*models.Encounter, error) {
	query := `
		SELECT ` + encounterColumns + `
		FROM encounters e
		WHERE e.division_id = $1 AND e.status NOT IN ($2, $3)
		ORDER BY e.scheduled_time ASC NULLS LAST, e.id ASC`

	return r.queryEncounters(ctx, query, divisionID, models.EncounterStatusCanceled, models.EncounterStatusBye)
}

func (r *postgresEncounterRepository) queryEncounters(ctx context.Context, query string, args ...interface{}) ([]*models.Encounter, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query encounters: %w", err)
	}
	defer rows.Close()

	encounters := make([]*models.Encounter, 0)
	for rows.Next() {
		encounter, scanErr := scanEncounter(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan encounter row: %w", scanErr)
		}
		encounters = append(encounters, encounter)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during encounter rows iteration: %w", err)
	}
	return encounters, nil
}

// Статусы, в которых встречу ещё можно перепланировать.
var reschedulableStatuses = []models.EncounterStatus{
	models.EncounterStatusScheduled,
	models.EncounterStatusQueued,
	models.EncounterStatusReady,
}

func statusListArg(statuses []models.EncounterStatus) interface{} {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return pq.Array(values)
}

func (r *postgresEncounterRepository) UpdateAssignment(ctx context.Context, exec SQLExecutor, id int, courtID *int, scheduledTime, estimatedStartTime *time.Time) error {
	query := `
		UPDATE encounters
		SET court_id = $1,
		    scheduled_time = COALESCE($2, scheduled_time),
		    estimated_start_time = COALESCE($3, estimated_start_time),
		    status = CASE
		        WHEN status = ANY($4) THEN
		            CASE WHEN $1::int IS NULL THEN 'ready'::encounter_status ELSE 'queued'::encounter_status END
		        ELSE status
		    END
		WHERE id = $5`

	result, err := exec.ExecContext(ctx, query, courtID, scheduledTime, estimatedStartTime, statusListArg(reschedulableStatuses), id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "encounters_court_id_fkey" {
			return ErrEncounterCourtInvalid
		}
		return fmt.Errorf("failed to update assignment for encounter %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEncounterNotFound)
}

func (r *postgresEncounterRepository) ClearAssignmentsByDivision(ctx context.Context, exec SQLExecutor, divisionID int) (int, error) {
	query := `
		UPDATE encounters
		SET court_id = NULL,
		    scheduled_time = NULL,
		    estimated_start_time = NULL,
		    status = 'ready'
		WHERE division_id = $1 AND status = ANY($2)
		  AND (court_id IS NOT NULL OR scheduled_time IS NOT NULL)`

	result, err := exec.ExecContext(ctx, query, divisionID, statusListArg(reschedulableStatuses))
	if err != nil {
		return 0, fmt.Errorf("failed to clear assignments for division %d: %w", divisionID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(affected), nil
}

func (r *postgresEncounterRepository) SetCourt(ctx context.Context, exec SQLExecutor, id int, courtID *int, status models.EncounterStatus) error {
	query := `UPDATE encounters SET court_id = $1, status = $2 WHERE id = $3`
	result, err := exec.ExecContext(ctx, query, courtID, status, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "encounters_court_id_fkey" {
			return ErrEncounterCourtInvalid
		}
		return fmt.Errorf("failed to set court for encounter %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEncounterNotFound)
}

func (r *postgresEncounterRepository) MarkStarted(ctx context.Context, exec SQLExecutor, id int, at time.Time) error {
	query := `UPDATE encounters SET status = $1, actual_start_time = $2 WHERE id = $3`
	result, err := exec.ExecContext(ctx, query, models.EncounterStatusInProgress, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark encounter %d started: %w", id, err)
	}
	return checkAffectedRows(result, ErrEncounterNotFound)
}

func (r *postgresEncounterRepository) Complete(ctx context.Context, exec SQLExecutor, id int, winnerUnitID int, at time.Time) error {
	// Условие completed_at IS NULL гарантирует ровно одну фиксацию результата.
	query := `
		UPDATE encounters
		SET status = $1, winner_unit_id = $2, completed_at = $3
		WHERE id = $4 AND completed_at IS NULL`

	result, err := exec.ExecContext(ctx, query, models.EncounterStatusCompleted, winnerUnitID, at, id)
	if err != nil {
		return fmt.Errorf("failed to complete encounter %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return ErrEncounterAlreadyCompleted
	}
	return nil
}
