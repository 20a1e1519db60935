package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/tournament-live/cache"
	"github.com/Dosada05/tournament-live/models"
	"github.com/Dosada05/tournament-live/repositories"
	"golang.org/x/sync/errgroup"
)

// Палитра легенды. Цвет дивизиона детерминирован порядком id,
// чтобы повторные рендеры не перекрашивали сетку.
var divisionPalette = []string{
	"#2563eb", "#16a34a", "#dc2626", "#9333ea",
	"#ea580c", "#0891b2", "#ca8a04", "#db2777",
}

// TimelineService собирает представление расписания события по кортам.
type TimelineService interface {
	// GetEventTimeline строит таймлайн. organizerView обходит гейт
	// публикации и кэш; публичная выдача требует опубликованного события.
	GetEventTimeline(ctx context.Context, eventID int, organizerView bool) (*models.EventTimeline, error)
	InvalidateEvent(ctx context.Context, eventID int)
}

type timelineService struct {
	eventRepo     repositories.EventRepository
	divisionRepo  repositories.DivisionRepository
	encounterRepo repositories.EncounterRepository
	courtRepo     repositories.CourtRepository
	unitRepo      repositories.UnitRepository
	validator     ValidationService
	cache         cache.TimelineCache
	logger        *slog.Logger
}

func NewTimelineService(
	eventRepo repositories.EventRepository,
	divisionRepo repositories.DivisionRepository,
	encounterRepo repositories.EncounterRepository,
	courtRepo repositories.CourtRepository,
	unitRepo repositories.UnitRepository,
	validator ValidationService,
	timelineCache cache.TimelineCache,
	logger *slog.Logger,
) TimelineService {
	return &timelineService{
		eventRepo:     eventRepo,
		divisionRepo:  divisionRepo,
		encounterRepo: encounterRepo,
		courtRepo:     courtRepo,
		unitRepo:      unitRepo,
		validator:     validator,
		cache:         timelineCache,
		logger:        logger,
	}
}

func (s *timelineService) GetEventTimeline(ctx context.Context, eventID int, organizerView bool) (*models.EventTimeline, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if !organizerView {
		if !event.IsPublished() {
			return nil, ErrEventNotPublished
		}
		if cached, ok := s.cache.Get(ctx, eventID); ok {
			return cached, nil
		}
	}

	var (
		encounters []*models.Encounter
		courts     []*models.Court
		divisions  []*models.Division
		units      []*models.Unit
		validation *models.ValidationResult
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		encounters, err = s.encounterRepo.ListByEvent(gCtx, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		courts, err = s.courtRepo.ListByEvent(gCtx, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		divisions, err = s.divisionRepo.ListByEvent(gCtx, eventID, false)
		return err
	})
	g.Go(func() error {
		var err error
		units, err = s.unitRepo.ListByEvent(gCtx, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		validation, err = s.validator.Validate(gCtx, eventID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load timeline data for event %d: %w", eventID, err)
	}

	divisionsByID := make(map[int]*models.Division, len(divisions))
	for _, d := range divisions {
		divisionsByID[d.ID] = d
	}
	unitNames := make(map[int]string, len(units))
	for _, u := range units {
		unitNames[u.ID] = u.Name
	}
	conflicted := make(map[int]bool)
	for _, c := range validation.Conflicts {
		conflicted[c.Encounter1ID] = true
		conflicted[c.Encounter2ID] = true
	}

	blocksByCourt := make(map[int][]models.TimelineBlock)
	for _, e := range encounters {
		if e.CourtID == nil || e.ScheduledTime == nil {
			continue
		}
		division := divisionsByID[e.DivisionID]
		if division == nil {
			continue
		}
		start := *e.ScheduledTime
		end := start.Add(resolveDuration(e, division))
		blocksByCourt[*e.CourtID] = append(blocksByCourt[*e.CourtID], models.TimelineBlock{
			EncounterID:  e.ID,
			DivisionID:   e.DivisionID,
			DivisionName: division.Name,
			RoundLabel:   e.RoundLabel,
			Unit1Name:    unitNames[e.Unit1ID],
			Unit2Name:    unitNames[e.Unit2ID],
			Start:        start,
			End:          end,
			Status:       e.Status,
			HasConflict:  conflicted[e.ID],
		})
	}

	timeline := &models.EventTimeline{
		EventID:     eventID,
		Published:   event.IsPublished(),
		GeneratedAt: time.Now().UTC(),
		Courts:      make([]models.CourtTimeline, 0, len(courts)),
		Divisions:   buildDivisionSummaries(divisions, encounters),
	}

	sort.Slice(courts, func(i, j int) bool { return courts[i].ID < courts[j].ID })
	for _, court := range courts {
		blocks := blocksByCourt[court.ID]
		sort.Slice(blocks, func(i, j int) bool {
			if !blocks[i].Start.Equal(blocks[j].Start) {
				return blocks[i].Start.Before(blocks[j].Start)
			}
			return blocks[i].EncounterID < blocks[j].EncounterID
		})
		timeline.Courts = append(timeline.Courts, models.CourtTimeline{
			CourtID:    court.ID,
			CourtLabel: court.Label,
			Blocks:     blocks,
		})
	}

	if !organizerView {
		s.cache.Set(ctx, eventID, timeline)
	}
	return timeline, nil
}

func (s *timelineService) InvalidateEvent(ctx context.Context, eventID int) {
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate timeline cache",
			slog.Int("event_id", eventID), slog.Any("error", err))
	}
}

func buildDivisionSummaries(divisions []*models.Division, encounters []*models.Encounter) []models.DivisionSummary {
	sort.Slice(divisions, func(i, j int) bool { return divisions[i].ID < divisions[j].ID })

	summaries := make([]models.DivisionSummary, 0, len(divisions))
	for i, d := range divisions {
		summary := models.DivisionSummary{
			DivisionID: d.ID,
			Name:       d.Name,
			Color:      divisionPalette[i%len(divisionPalette)],
		}
		for _, e := range encounters {
			if e.DivisionID != d.ID {
				continue
			}
			summary.EncounterCount++
			if e.CourtID != nil && e.ScheduledTime != nil {
				summary.ScheduledCount++
			}
			if e.Status == models.EncounterStatusCompleted {
				summary.CompletedCount++
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
