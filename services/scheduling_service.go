package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-live/models"
	"github.com/Dosada05/tournament-live/repositories"
)

// CourtAssignmentItem — один элемент массового назначения.
// CourtID == nil явно снимает назначение; отсутствующие времена не меняются.
type CourtAssignmentItem struct {
	EncounterID        int        `json:"encounter_id"`
	CourtID            *int       `json:"court_id"`
	ScheduledTime      *time.Time `json:"scheduled_time,omitempty"`
	EstimatedStartTime *time.Time `json:"estimated_start_time,omitempty"`
}

// BindingInput — привязка дивизиона к группе кортов; приоритет задаётся
// порядком в списке.
type BindingInput struct {
	CourtGroupID int                   `json:"court_group_id"`
	Mode         models.AssignmentMode `json:"mode,omitempty"`
	PoolName     *string               `json:"pool_name,omitempty"`
	ValidFrom    *time.Time            `json:"valid_from,omitempty"`
	ValidUntil   *time.Time            `json:"valid_until,omitempty"`
}

// AutoAssignParams — параметры делегируемого авторазмещения.
type AutoAssignParams struct {
	StartTime            *time.Time `json:"start_time,omitempty"`
	MatchDurationMinutes *int       `json:"match_duration_minutes,omitempty"`
	ClearExisting        bool       `json:"clear_existing"`
}

// AutoAssignRequest — вход коллаборатора: движок резолвит привязанные
// группы кортов и передаёт корты в порядке приоритета.
type AutoAssignRequest struct {
	Division             *models.Division
	Courts               []*models.Court
	StartTime            *time.Time
	MatchDurationMinutes *int
	ClearExisting        bool
}

type AutoAssignResult struct {
	Success          bool       `json:"success"`
	Message          string     `json:"message,omitempty"`
	AssignedCount    int        `json:"assigned_count"`
	CourtsUsed       []string   `json:"courts_used"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	EstimatedEndTime *time.Time `json:"estimated_end_time,omitempty"`
}

// CourtAssigner — внешняя способность авторазмещения. Ядро считает её
// непрозрачной эвристикой: поставляет корты и потребляет результат.
type CourtAssigner interface {
	AutoAssign(ctx context.Context, req AutoAssignRequest) (*AutoAssignResult, error)
}

type SchedulingService interface {
	// BulkAssign применяет назначения одной транзакцией: частичное
	// применение при ошибке недопустимо.
	BulkAssign(ctx context.Context, eventID int, actor Actor, items []CourtAssignmentItem) (int, error)
	// ReplaceBindings заменяет привязки дивизиона новым упорядоченным списком.
	ReplaceBindings(ctx context.Context, divisionID int, actor Actor, bindings []BindingInput) error
	AutoAssign(ctx context.Context, divisionID int, actor Actor, params AutoAssignParams) (*AutoAssignResult, error)
	ClearAssignments(ctx context.Context, divisionID int, actor Actor) (int, error)
}

type schedulingService struct {
	txRunner       repositories.TxRunner
	eventRepo      repositories.EventRepository
	divisionRepo   repositories.DivisionRepository
	encounterRepo  repositories.EncounterRepository
	courtRepo      repositories.CourtRepository
	courtGroupRepo repositories.CourtGroupRepository
	assigner       CourtAssigner
	timeline       TimelineInvalidator
}

func NewSchedulingService(
	txRunner repositories.TxRunner,
	eventRepo repositories.EventRepository,
	divisionRepo repositories.DivisionRepository,
	encounterRepo repositories.EncounterRepository,
	courtRepo repositories.CourtRepository,
	courtGroupRepo repositories.CourtGroupRepository,
	assigner CourtAssigner,
	timeline TimelineInvalidator,
) SchedulingService {
	return &schedulingService{
		txRunner:       txRunner,
		eventRepo:      eventRepo,
		divisionRepo:   divisionRepo,
		encounterRepo:  encounterRepo,
		courtRepo:      courtRepo,
		courtGroupRepo: courtGroupRepo,
		assigner:       assigner,
		timeline:       timeline,
	}
}

func (s *schedulingService) BulkAssign(ctx context.Context, eventID int, actor Actor, items []CourtAssignmentItem) (int, error) {
	if len(items) == 0 {
		return 0, ErrNoAssignmentsProvided
	}
	if _, err := requireEventManager(ctx, s.eventRepo, actor, eventID); err != nil {
		return 0, err
	}

	// Все назначаемые корты должны принадлежать событию.
	courts, err := s.courtRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	eventCourts := make(map[int]bool, len(courts))
	for _, c := range courts {
		eventCourts[c.ID] = true
	}
	for _, item := range items {
		if item.CourtID != nil && !eventCourts[*item.CourtID] {
			return 0, fmt.Errorf("%w: court %d", ErrCourtNotInEvent, *item.CourtID)
		}
	}

	// Встречи тоже: чужая встреча не меняется под властью этого события.
	divisionEvent := make(map[int]int)
	for _, item := range items {
		encounter, err := s.encounterRepo.GetByID(ctx, item.EncounterID)
		if err != nil {
			if errors.Is(err, repositories.ErrEncounterNotFound) {
				return 0, fmt.Errorf("%w: encounter %d", ErrEncounterNotFound, item.EncounterID)
			}
			return 0, err
		}
		ownerEventID, ok := divisionEvent[encounter.DivisionID]
		if !ok {
			division, err := s.divisionRepo.GetByID(ctx, encounter.DivisionID)
			if err != nil {
				return 0, err
			}
			ownerEventID = division.EventID
			divisionEvent[encounter.DivisionID] = ownerEventID
		}
		if ownerEventID != eventID {
			return 0, fmt.Errorf("%w: encounter %d", ErrEncounterNotInEvent, item.EncounterID)
		}
	}

	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, item := range items {
			if err := s.encounterRepo.UpdateAssignment(ctx, exec, item.EncounterID, item.CourtID, item.ScheduledTime, item.EstimatedStartTime); err != nil {
				if errors.Is(err, repositories.ErrEncounterNotFound) {
					return fmt.Errorf("%w: encounter %d", ErrEncounterNotFound, item.EncounterID)
				}
				return fmt.Errorf("failed to apply assignment for encounter %d: %w", item.EncounterID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.invalidateTimeline(ctx, eventID)
	return len(items), nil
}

func (s *schedulingService) ReplaceBindings(ctx context.Context, divisionID int, actor Actor, bindings []BindingInput) error {
	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		if errors.Is(err, repositories.ErrDivisionNotFound) {
			return ErrDivisionNotFound
		}
		return err
	}
	if _, err := requireEventManager(ctx, s.eventRepo, actor, division.EventID); err != nil {
		return err
	}

	groupIDs := make([]int, len(bindings))
	for i, b := range bindings {
		groupIDs[i] = b.CourtGroupID
	}
	groups, err := s.courtGroupRepo.ListByIDs(ctx, groupIDs)
	if err != nil {
		return err
	}
	groupsByID := make(map[int]*models.CourtGroup, len(groups))
	for _, g := range groups {
		groupsByID[g.ID] = g
	}
	for _, b := range bindings {
		group, ok := groupsByID[b.CourtGroupID]
		if !ok {
			return fmt.Errorf("%w: court group %d", ErrCourtGroupNotFound, b.CourtGroupID)
		}
		if group.EventID != division.EventID {
			return fmt.Errorf("%w: court group %d", ErrCourtGroupNotInEvent, b.CourtGroupID)
		}
	}

	rows := make([]models.DivisionCourtGroup, len(bindings))
	for i, b := range bindings {
		mode := b.Mode
		if mode == "" {
			mode = models.AssignmentModeAny
		}
		rows[i] = models.DivisionCourtGroup{
			DivisionID:   divisionID,
			CourtGroupID: b.CourtGroupID,
			Priority:     i + 1,
			Mode:         mode,
			PoolName:     b.PoolName,
			ValidFrom:    b.ValidFrom,
			ValidUntil:   b.ValidUntil,
			IsActive:     true,
		}
	}

	return s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.courtGroupRepo.ReplaceDivisionBindings(ctx, exec, divisionID, rows)
	})
}

func (s *schedulingService) AutoAssign(ctx context.Context, divisionID int, actor Actor, params AutoAssignParams) (*AutoAssignResult, error) {
	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		if errors.Is(err, repositories.ErrDivisionNotFound) {
			return nil, ErrDivisionNotFound
		}
		return nil, err
	}
	if _, err := requireEventManager(ctx, s.eventRepo, actor, division.EventID); err != nil {
		return nil, err
	}
	if params.MatchDurationMinutes != nil && *params.MatchDurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	bindings, err := s.courtGroupRepo.ListBindingsByDivision(ctx, divisionID, true)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if params.StartTime != nil {
		now = *params.StartTime
	}
	groupIDs := make([]int, 0, len(bindings))
	for _, b := range bindings {
		if b.ActiveAt(now) {
			groupIDs = append(groupIDs, b.CourtGroupID)
		}
	}
	if len(groupIDs) == 0 {
		return &AutoAssignResult{
			Success: false,
			Message: "division has no active court group bindings",
		}, nil
	}

	courts, err := s.courtRepo.ListByGroupIDs(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	if len(courts) == 0 {
		return &AutoAssignResult{
			Success: false,
			Message: "bound court groups contain no courts",
		}, nil
	}

	result, err := s.assigner.AutoAssign(ctx, AutoAssignRequest{
		Division:             division,
		Courts:               courts,
		StartTime:            params.StartTime,
		MatchDurationMinutes: params.MatchDurationMinutes,
		ClearExisting:        params.ClearExisting,
	})
	if err != nil {
		return nil, err
	}
	if result.Success {
		s.invalidateTimeline(ctx, division.EventID)
	}
	return result, nil
}

func (s *schedulingService) ClearAssignments(ctx context.Context, divisionID int, actor Actor) (int, error) {
	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		if errors.Is(err, repositories.ErrDivisionNotFound) {
			return 0, ErrDivisionNotFound
		}
		return 0, err
	}
	if _, err := requireEventManager(ctx, s.eventRepo, actor, division.EventID); err != nil {
		return 0, err
	}

	var affected int
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		count, err := s.encounterRepo.ClearAssignmentsByDivision(ctx, exec, divisionID)
		if err != nil {
			return err
		}
		affected = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.invalidateTimeline(ctx, division.EventID)
	}
	return affected, nil
}

func (s *schedulingService) invalidateTimeline(ctx context.Context, eventID int) {
	if s.timeline != nil {
		s.timeline.InvalidateEvent(ctx, eventID)
	}
}
