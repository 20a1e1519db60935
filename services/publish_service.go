package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-live/repositories"
)

// PublishService управляет публичной видимостью расписания.
// Публикация по умолчанию закрыта валидатором: ноль конфликтов и ноль
// неназначенных встреч; штамп каскадируется на все активные дивизионы
// в одной транзакции — частично опубликованное событие недопустимо.
type PublishService interface {
	Publish(ctx context.Context, eventID int, actor Actor, skipValidation bool) error
	Unpublish(ctx context.Context, eventID int, actor Actor) error
}

type publishService struct {
	txRunner     repositories.TxRunner
	eventRepo    repositories.EventRepository
	divisionRepo repositories.DivisionRepository
	validator    ValidationService
	broadcaster  LiveBroadcaster
	timeline     TimelineInvalidator
	logger       *slog.Logger
}

func NewPublishService(
	txRunner repositories.TxRunner,
	eventRepo repositories.EventRepository,
	divisionRepo repositories.DivisionRepository,
	validator ValidationService,
	broadcaster LiveBroadcaster,
	timeline TimelineInvalidator,
	logger *slog.Logger,
) PublishService {
	return &publishService{
		txRunner:     txRunner,
		eventRepo:    eventRepo,
		divisionRepo: divisionRepo,
		validator:    validator,
		broadcaster:  broadcaster,
		timeline:     timeline,
		logger:       logger,
	}
}

func (s *publishService) Publish(ctx context.Context, eventID int, actor Actor, skipValidation bool) error {
	if _, err := requireEventManager(ctx, s.eventRepo, actor, eventID); err != nil {
		return err
	}

	if !skipValidation {
		result, err := s.validator.ValidateAndStamp(ctx, eventID, actor)
		if err != nil {
			return err
		}
		if result.ConflictCount > 0 || result.UnassignedCount > 0 {
			return &PublishBlockedError{Result: result}
		}
	}

	now := time.Now().UTC()
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.eventRepo.SetPublished(ctx, exec, eventID, &now, &actor.UserID); err != nil {
			return err
		}
		count, err := s.divisionRepo.SetPublishedByEvent(ctx, exec, eventID, &now)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "schedule published",
			slog.Int("event_id", eventID),
			slog.Int("actor_user_id", actor.UserID),
			slog.Int("divisions_stamped", count),
		)
		return nil
	})
	if err != nil {
		return err
	}

	if s.timeline != nil {
		s.timeline.InvalidateEvent(ctx, eventID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(eventID, "schedule_published", map[string]bool{"published": true})
	}
	return nil
}

func (s *publishService) Unpublish(ctx context.Context, eventID int, actor Actor) error {
	if _, err := requireEventManager(ctx, s.eventRepo, actor, eventID); err != nil {
		return err
	}

	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.eventRepo.SetPublished(ctx, exec, eventID, nil, nil); err != nil {
			return err
		}
		if _, err := s.divisionRepo.SetPublishedByEvent(ctx, exec, eventID, nil); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "schedule unpublished", slog.Int("event_id", eventID))
	if s.timeline != nil {
		s.timeline.InvalidateEvent(ctx, eventID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(eventID, "schedule_published", map[string]bool{"published": false})
	}
	return nil
}
