package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/tournament-live/metrics"
	"github.com/Dosada05/tournament-live/models"
	"github.com/Dosada05/tournament-live/repositories"
	"golang.org/x/sync/errgroup"
)

// ValidationService — валидатор расписания. Чистое чтение: алгоритм не имеет
// побочных эффектов, ValidateAndStamp дополнительно сохраняет штамп на событии.
type ValidationService interface {
	Validate(ctx context.Context, eventID int) (*models.ValidationResult, error)
	// ValidateAndStamp пишет штамп на событие, поэтому требует права
	// управления событием у actor.
	ValidateAndStamp(ctx context.Context, eventID int, actor Actor) (*models.ValidationResult, error)
}

type validationService struct {
	eventRepo     repositories.EventRepository
	encounterRepo repositories.EncounterRepository
	divisionRepo  repositories.DivisionRepository
	courtRepo     repositories.CourtRepository
}

func NewValidationService(
	eventRepo repositories.EventRepository,
	encounterRepo repositories.EncounterRepository,
	divisionRepo repositories.DivisionRepository,
	courtRepo repositories.CourtRepository,
) ValidationService {
	return &validationService{
		eventRepo:     eventRepo,
		encounterRepo: encounterRepo,
		divisionRepo:  divisionRepo,
		courtRepo:     courtRepo,
	}
}

// scheduleSnapshot — всё, что нужно валидатору, загруженное одним заходом.
type scheduleSnapshot struct {
	scheduled  []*models.Encounter // корт и время назначены
	all        []*models.Encounter // все неотменённые без bye
	divisions  map[int]*models.Division
	courts     map[int]*models.Court
	unboundIDs []int
}

func (s *validationService) loadSnapshot(ctx context.Context, eventID int) (*scheduleSnapshot, error) {
	snap := &scheduleSnapshot{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		scheduled, err := s.encounterRepo.ListScheduledByEvent(gCtx, eventID)
		if err != nil {
			return fmt.Errorf("failed to load scheduled encounters: %w", err)
		}
		snap.scheduled = scheduled
		return nil
	})
	g.Go(func() error {
		all, err := s.encounterRepo.ListByEvent(gCtx, eventID)
		if err != nil {
			return fmt.Errorf("failed to load encounters: %w", err)
		}
		snap.all = all
		return nil
	})
	g.Go(func() error {
		divisions, err := s.divisionRepo.ListByEvent(gCtx, eventID, false)
		if err != nil {
			return fmt.Errorf("failed to load divisions: %w", err)
		}
		snap.divisions = make(map[int]*models.Division, len(divisions))
		for _, d := range divisions {
			snap.divisions[d.ID] = d
		}
		return nil
	})
	g.Go(func() error {
		courts, err := s.courtRepo.ListByEvent(gCtx, eventID)
		if err != nil {
			return fmt.Errorf("failed to load courts: %w", err)
		}
		snap.courts = make(map[int]*models.Court, len(courts))
		for _, c := range courts {
			snap.courts[c.ID] = c
		}
		return nil
	})
	g.Go(func() error {
		unbound, err := s.divisionRepo.ListIDsWithoutActiveBindings(gCtx, eventID)
		if err != nil {
			return fmt.Errorf("failed to load unbound divisions: %w", err)
		}
		snap.unboundIDs = unbound
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *validationService) Validate(ctx context.Context, eventID int) (*models.ValidationResult, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	snap, err := s.loadSnapshot(ctx, eventID)
	if err != nil {
		return nil, err
	}

	result := &models.ValidationResult{
		EventID:     eventID,
		Conflicts:   []models.ScheduleConflict{},
		Warnings:    []models.ScheduleWarning{},
		ValidatedAt: time.Now().UTC(),
	}

	result.Conflicts = append(result.Conflicts, s.findCourtOverlaps(snap)...)
	result.Conflicts = append(result.Conflicts, s.findUnitOverlaps(snap, result.Conflicts)...)

	// Предупреждения полноты: встречи без корта или времени блокируют
	// публикацию, дивизионы без привязок — нет.
	for _, e := range snap.all {
		if e.CourtID == nil || e.ScheduledTime == nil {
			result.UnassignedCount++
			result.Warnings = append(result.Warnings, models.ScheduleWarning{
				Type:        models.WarningUnassignedEncounter,
				EncounterID: intPtr(e.ID),
				Message:     fmt.Sprintf("encounter %d has no court or start time assigned", e.ID),
			})
		}
	}
	for _, divisionID := range snap.unboundIDs {
		result.UnboundCount++
		result.Warnings = append(result.Warnings, models.ScheduleWarning{
			Type:       models.WarningUnboundDivision,
			DivisionID: intPtr(divisionID),
			Message:    fmt.Sprintf("division %d has no active court group bindings", divisionID),
		})
	}

	result.ConflictCount = len(result.Conflicts)
	result.Valid = result.ConflictCount == 0 && result.UnassignedCount == 0

	metrics.ConflictsDetected.Add(float64(result.ConflictCount))
	return result, nil
}

func (s *validationService) ValidateAndStamp(ctx context.Context, eventID int, actor Actor) (*models.ValidationResult, error) {
	if _, err := requireEventManager(ctx, s.eventRepo, actor, eventID); err != nil {
		return nil, err
	}
	result, err := s.Validate(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.eventRepo.UpdateValidationStamp(ctx, eventID, result.ValidatedAt, result.ConflictCount); err != nil {
		return nil, fmt.Errorf("failed to persist validation stamp: %w", err)
	}
	return result, nil
}

// interval — расчётное окно встречи [start, end).
type interval struct {
	encounter *models.Encounter
	start     time.Time
	end       time.Time
}

// findCourtOverlaps: группировка по корту, сортировка по старту, проверка
// соседних пар на пересечение.
func (s *validationService) findCourtOverlaps(snap *scheduleSnapshot) []models.ScheduleConflict {
	byCourt := make(map[int][]interval)
	for _, e := range snap.scheduled {
		iv := snapshotInterval(snap, e)
		byCourt[*e.CourtID] = append(byCourt[*e.CourtID], iv)
	}

	conflicts := make([]models.ScheduleConflict, 0)
	courtIDs := sortedKeys(byCourt)
	for _, courtID := range courtIDs {
		intervals := byCourt[courtID]
		sort.Slice(intervals, func(i, j int) bool {
			if intervals[i].start.Equal(intervals[j].start) {
				return intervals[i].encounter.ID < intervals[j].encounter.ID
			}
			return intervals[i].start.Before(intervals[j].start)
		})

		for i := 0; i+1 < len(intervals); i++ {
			cur, next := intervals[i], intervals[i+1]
			if cur.end.After(next.start) {
				conflict := models.ScheduleConflict{
					Type:         models.ConflictCourtOverlap,
					Encounter1ID: cur.encounter.ID,
					Encounter2ID: next.encounter.ID,
					CourtID:      intPtr(courtID),
					OverlapStart: next.start,
					OverlapEnd:   minTime(cur.end, next.end),
				}
				if court, ok := snap.courts[courtID]; ok {
					label := court.Label
					conflict.CourtLabel = &label
				}
				conflicts = append(conflicts, conflict)
			}
		}
	}
	return conflicts
}

// findUnitOverlaps: для каждого юнита — все его встречи со временем старта
// (как любая из сторон), та же проверка соседних пар; конфликты, уже
// найденные по корту, дедуплицируются в обоих порядках id.
func (s *validationService) findUnitOverlaps(snap *scheduleSnapshot, courtConflicts []models.ScheduleConflict) []models.ScheduleConflict {
	byUnit := make(map[int][]interval)
	for _, e := range snap.all {
		if e.ScheduledTime == nil {
			continue
		}
		iv := snapshotInterval(snap, e)
		byUnit[e.Unit1ID] = append(byUnit[e.Unit1ID], iv)
		byUnit[e.Unit2ID] = append(byUnit[e.Unit2ID], iv)
	}

	conflicts := make([]models.ScheduleConflict, 0)
	seen := func(e1, e2 int) bool {
		for _, c := range courtConflicts {
			if c.References(e1, e2) {
				return true
			}
		}
		for _, c := range conflicts {
			if c.References(e1, e2) {
				return true
			}
		}
		return false
	}

	unitIDs := sortedKeys(byUnit)
	for _, unitID := range unitIDs {
		intervals := byUnit[unitID]
		sort.Slice(intervals, func(i, j int) bool {
			if intervals[i].start.Equal(intervals[j].start) {
				return intervals[i].encounter.ID < intervals[j].encounter.ID
			}
			return intervals[i].start.Before(intervals[j].start)
		})

		for i := 0; i+1 < len(intervals); i++ {
			cur, next := intervals[i], intervals[i+1]
			if !cur.end.After(next.start) {
				continue
			}
			if seen(cur.encounter.ID, next.encounter.ID) {
				continue
			}
			conflicts = append(conflicts, models.ScheduleConflict{
				Type:         models.ConflictUnitOverlap,
				Encounter1ID: cur.encounter.ID,
				Encounter2ID: next.encounter.ID,
				UnitID:       intPtr(unitID),
				OverlapStart: next.start,
				OverlapEnd:   minTime(cur.end, next.end),
			})
		}
	}
	return conflicts
}

func snapshotInterval(snap *scheduleSnapshot, e *models.Encounter) interval {
	start := *e.ScheduledTime
	return interval{
		encounter: e,
		start:     start,
		end:       start.Add(resolveDuration(e, snap.divisions[e.DivisionID])),
	}
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
