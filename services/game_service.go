package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-live/metrics"
	"github.com/Dosada05/tournament-live/models"
	"github.com/Dosada05/tournament-live/repositories"
	"github.com/google/uuid"
)

// Actor — действующее лицо перехода. Identity и роль приходят извне (JWT),
// ядро их только потребляет.
type Actor struct {
	UserID int
	UnitID int // юнит, от имени которого действует игрок (submit/verify)
	Role   models.UserRole
}

// LiveBroadcaster рассылает обновления в комнату события (websocket-хаб).
type LiveBroadcaster interface {
	BroadcastEvent(eventID int, messageType string, payload interface{})
}

// TimelineInvalidator сбрасывает кэш публичного таймлайна события после
// изменений расписания или исхода игр. Сброс best-effort, как и сам кэш.
type TimelineInvalidator interface {
	InvalidateEvent(ctx context.Context, eventID int)
}

// GameService — машина состояний исполнения матча:
// queued → ready → playing → {awaiting_confirmation | disputed} → finished,
// плюс roll-up серии best-of в итог встречи и статистику юнитов.
type GameService interface {
	QueueEncounter(ctx context.Context, encounterID int, actor Actor, courtID *int) (*models.Encounter, error)
	StartEncounter(ctx context.Context, encounterID int, actor Actor) (*models.Encounter, error)
	SubmitScore(ctx context.Context, gameID int, actor Actor, score1, score2 int) (*models.Game, error)
	VerifyScore(ctx context.Context, gameID int, actor Actor, confirm bool, reason string) (*models.Game, error)
	AdminOverride(ctx context.Context, gameID int, actor Actor, score1, score2 int, note *string, finishing bool) (*models.Game, error)
}

type gameService struct {
	txRunner      repositories.TxRunner
	eventRepo     repositories.EventRepository
	divisionRepo  repositories.DivisionRepository
	encounterRepo repositories.EncounterRepository
	matchRepo     repositories.MatchRepository
	gameRepo      repositories.GameRepository
	courtRepo     repositories.CourtRepository
	unitRepo      repositories.UnitRepository
	historyRepo   repositories.ScoreHistoryRepository
	notifier      Notifier
	broadcaster   LiveBroadcaster
	timeline      TimelineInvalidator
	logger        *slog.Logger
}

func NewGameService(
	txRunner repositories.TxRunner,
	eventRepo repositories.EventRepository,
	divisionRepo repositories.DivisionRepository,
	encounterRepo repositories.EncounterRepository,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	courtRepo repositories.CourtRepository,
	unitRepo repositories.UnitRepository,
	historyRepo repositories.ScoreHistoryRepository,
	notifier Notifier,
	broadcaster LiveBroadcaster,
	timeline TimelineInvalidator,
	logger *slog.Logger,
) GameService {
	return &gameService{
		txRunner:      txRunner,
		eventRepo:     eventRepo,
		divisionRepo:  divisionRepo,
		encounterRepo: encounterRepo,
		matchRepo:     matchRepo,
		gameRepo:      gameRepo,
		courtRepo:     courtRepo,
		unitRepo:      unitRepo,
		historyRepo:   historyRepo,
		notifier:      notifier,
		broadcaster:   broadcaster,
		timeline:      timeline,
		logger:        logger,
	}
}

// gameContext — игра вместе с родительскими матчем, встречей и дивизионом.
type gameContext struct {
	game      *models.Game
	match     *models.Match
	encounter *models.Encounter
	division  *models.Division
}

func (s *gameService) loadGameContext(ctx context.Context, gameID int) (*gameContext, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	match, err := s.matchRepo.GetByID(ctx, game.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match for game %d: %w", gameID, err)
	}
	encounter, err := s.encounterRepo.GetByID(ctx, match.EncounterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load encounter for game %d: %w", gameID, err)
	}
	division, err := s.divisionRepo.GetByID(ctx, encounter.DivisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load division for game %d: %w", gameID, err)
	}
	return &gameContext{game: game, match: match, encounter: encounter, division: division}, nil
}

func (s *gameService) QueueEncounter(ctx context.Context, encounterID int, actor Actor, courtID *int) (*models.Encounter, error) {
	encounter, err := s.encounterRepo.GetByID(ctx, encounterID)
	if err != nil {
		if errors.Is(err, repositories.ErrEncounterNotFound) {
			return nil, ErrEncounterNotFound
		}
		return nil, err
	}
	switch encounter.Status {
	case models.EncounterStatusScheduled, models.EncounterStatusQueued, models.EncounterStatusReady:
	default:
		return nil, fmt.Errorf("%w: encounter is %s", ErrEncounterNotStartable, encounter.Status)
	}

	division, err := s.divisionRepo.GetByID(ctx, encounter.DivisionID)
	if err != nil {
		return nil, err
	}
	if _, err := requireEventManager(ctx, s.eventRepo, actor, division.EventID); err != nil {
		return nil, err
	}

	if courtID != nil {
		court, err := s.courtRepo.GetByID(ctx, *courtID)
		if err != nil {
			if errors.Is(err, repositories.ErrCourtNotFound) {
				return nil, ErrCourtNotFound
			}
			return nil, err
		}
		if court.EventID != division.EventID {
			return nil, ErrCourtNotInEvent
		}
	}

	// Корт назначен — queued, снят — ready; статус зеркалится на текущую
	// незавершённую игру встречи.
	status := models.EncounterStatusReady
	gameStatus := models.GameStatusReady
	if courtID != nil {
		status = models.EncounterStatusQueued
		gameStatus = models.GameStatusQueued
	}

	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.encounterRepo.SetCourt(ctx, exec, encounterID, courtID, status); err != nil {
			return err
		}
		return s.gameRepo.MirrorQueueStatus(ctx, exec, encounterID, gameStatus, courtID)
	})
	if err != nil {
		return nil, err
	}

	encounter.CourtID = courtID
	encounter.Status = status
	s.invalidateTimeline(ctx, division.EventID)
	s.broadcast(ctx, encounter.DivisionID, "encounter_queued", encounter)
	return encounter, nil
}

func (s *gameService) StartEncounter(ctx context.Context, encounterID int, actor Actor) (*models.Encounter, error) {
	encounter, err := s.encounterRepo.GetByID(ctx, encounterID)
	if err != nil {
		if errors.Is(err, repositories.ErrEncounterNotFound) {
			return nil, ErrEncounterNotFound
		}
		return nil, err
	}
	switch encounter.Status {
	case models.EncounterStatusScheduled, models.EncounterStatusQueued, models.EncounterStatusReady:
	default:
		return nil, fmt.Errorf("%w: encounter is %s", ErrEncounterNotStartable, encounter.Status)
	}

	division, err := s.divisionRepo.GetByID(ctx, encounter.DivisionID)
	if err != nil {
		return nil, err
	}
	if _, err := requireEventManager(ctx, s.eventRepo, actor, division.EventID); err != nil {
		return nil, err
	}

	game, err := s.gameRepo.GetCurrentByEncounter(ctx, encounterID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.encounterRepo.MarkStarted(ctx, exec, encounterID, now); err != nil {
			return err
		}
		if err := s.gameRepo.SetPlaying(ctx, exec, game.ID, encounter.CourtID); err != nil {
			return err
		}
		// Без корта стартуем, не трогая поля занятости.
		if encounter.CourtID != nil {
			if err := s.courtRepo.Occupy(ctx, exec, *encounter.CourtID, game.ID); err != nil {
				if errors.Is(err, repositories.ErrCourtOccupied) {
					return ErrCourtOccupied
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	encounter.Status = models.EncounterStatusInProgress
	encounter.ActualStartTime = &now
	s.invalidateTimeline(ctx, division.EventID)
	s.broadcast(ctx, encounter.DivisionID, "encounter_started", encounter)
	return encounter, nil
}

func (s *gameService) SubmitScore(ctx context.Context, gameID int, actor Actor, score1, score2 int) (*models.Game, error) {
	if err := validateScores(score1, score2); err != nil {
		return nil, err
	}
	if score1 == score2 {
		return nil, ErrScoreTie
	}

	gc, err := s.loadGameContext(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !gc.encounter.HasParticipant(actor.UnitID) {
		return nil, ErrNotParticipant
	}
	if gc.game.IsFinished() {
		return nil, ErrGameAlreadyFinished
	}
	if gc.game.SubmittedByUnitID != nil {
		return nil, ErrScoreAlreadySubmitted
	}

	now := time.Now().UTC()
	prev1, prev2 := gc.game.Score1, gc.game.Score2
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Условная запись: два конкурентных submit не пройдут оба.
		if err := s.gameRepo.SubmitScore(ctx, exec, gameID, score1, score2, actor.UnitID, now); err != nil {
			if errors.Is(err, repositories.ErrGameScoreAlreadyRecorded) {
				return ErrScoreAlreadySubmitted
			}
			return err
		}
		return s.historyRepo.Append(ctx, exec, &models.ScoreHistoryEntry{
			UID:          uuid.NewString(),
			GameID:       gameID,
			ChangeType:   models.ScoreChangeSubmitted,
			NewScore1:    score1,
			NewScore2:    score2,
			PrevScore1:   &prev1,
			PrevScore2:   &prev2,
			ActingUserID: actor.UserID,
			ActingUnitID: intPtr(actor.UnitID),
			Origin:       "player",
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.ScoreSubmissions.Inc()

	gc.game.Score1, gc.game.Score2 = score1, score2
	gc.game.SubmittedByUnitID = intPtr(actor.UnitID)
	gc.game.SubmittedAt = &now
	gc.game.Status = models.GameStatusAwaitingConfirmation

	// Просим соперника проверить счёт; доставка не участвует в переходе.
	opponentID := gc.encounter.OpponentOf(actor.UnitID)
	s.notifyUnit(opponentID, Notification{
		Type:    NotificationScoreSubmitted,
		Title:   "Score submitted",
		Message: fmt.Sprintf("Opponent submitted %d:%d for game %d, please verify", score1, score2, gameID),
		RefType: "game",
		RefID:   gameID,
	})
	s.broadcast(ctx, gc.encounter.DivisionID, "score_submitted", gc.game)
	return gc.game, nil
}

func (s *gameService) VerifyScore(ctx context.Context, gameID int, actor Actor, confirm bool, reason string) (*models.Game, error) {
	gc, err := s.loadGameContext(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !gc.encounter.HasParticipant(actor.UnitID) {
		return nil, ErrNotParticipant
	}
	if gc.game.IsFinished() {
		return nil, ErrGameAlreadyFinished
	}
	if gc.game.SubmittedByUnitID == nil {
		return nil, ErrScoreNotSubmitted
	}
	if *gc.game.SubmittedByUnitID == actor.UnitID {
		return nil, ErrSelfVerification
	}

	if confirm {
		return s.confirmScore(ctx, gc, actor)
	}
	return s.disputeScore(ctx, gc, actor, reason)
}

// confirmRetryLimit ограничивает перечитывания при конкурентном изменении
// счёта между загрузкой игры и условной записью подтверждения.
const confirmRetryLimit = 3

func (s *gameService) confirmScore(ctx context.Context, gc *gameContext, actor Actor) (*models.Game, error) {
	now := time.Now().UTC()
	var completed bool
	var winnerUnitID int

	// Победитель считается из тех же цифр, что входят в условие записи:
	// если счёт успели переписать, запись не проходит и игра перечитывается.
	for attempt := 0; ; attempt++ {
		winner, err := winnerFromScores(gc.encounter, gc.game.Score1, gc.game.Score2)
		if err != nil {
			return nil, err
		}
		winnerUnitID = winner

		err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			if err := s.gameRepo.Confirm(ctx, exec, gc.game.ID, actor.UnitID, winnerUnitID, gc.game.Score1, gc.game.Score2, now); err != nil {
				return err
			}
			if err := s.courtRepo.ReleaseByGame(ctx, exec, gc.game.ID); err != nil {
				return err
			}
			if err := s.historyRepo.Append(ctx, exec, &models.ScoreHistoryEntry{
				UID:          uuid.NewString(),
				GameID:       gc.game.ID,
				ChangeType:   models.ScoreChangeConfirmed,
				NewScore1:    gc.game.Score1,
				NewScore2:    gc.game.Score2,
				ActingUserID: actor.UserID,
				ActingUnitID: intPtr(actor.UnitID),
				Origin:       "player",
			}); err != nil {
				return err
			}
			done, err := s.rollUpCompletion(ctx, exec, gc.encounter, now)
			if err != nil {
				return err
			}
			completed = done
			return nil
		})
		if err == nil {
			break
		}
		if !errors.Is(err, repositories.ErrGameNotAwaitingVerify) {
			return nil, err
		}

		fresh, ferr := s.gameRepo.GetByID(ctx, gc.game.ID)
		if ferr != nil {
			return nil, ferr
		}
		if fresh.IsFinished() {
			return nil, ErrGameAlreadyFinished
		}
		if fresh.SubmittedByUnitID == nil {
			return nil, ErrScoreNotSubmitted
		}
		if attempt+1 >= confirmRetryLimit {
			return nil, fmt.Errorf("failed to confirm game %d: score keeps changing concurrently", gc.game.ID)
		}
		gc.game = fresh
	}
	metrics.ScoreConfirmations.Inc()
	if completed {
		metrics.EncountersCompleted.Inc()
	}

	gc.game.Status = models.GameStatusFinished
	gc.game.ConfirmedByUnitID = intPtr(actor.UnitID)
	gc.game.ConfirmedAt = &now
	gc.game.FinishedAt = &now
	gc.game.WinnerUnitID = &winnerUnitID
	s.invalidateTimeline(ctx, gc.division.EventID)
	s.broadcast(ctx, gc.encounter.DivisionID, "score_confirmed", gc.game)
	return gc.game, nil
}

func (s *gameService) disputeScore(ctx context.Context, gc *gameContext, actor Actor, reason string) (*models.Game, error) {
	if reason == "" {
		return nil, ErrDisputeReasonRequired
	}

	now := time.Now().UTC()
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.gameRepo.Dispute(ctx, exec, gc.game.ID, reason, now); err != nil {
			if errors.Is(err, repositories.ErrGameNotAwaitingVerify) {
				return ErrScoreNotSubmitted
			}
			return err
		}
		return s.historyRepo.Append(ctx, exec, &models.ScoreHistoryEntry{
			UID:          uuid.NewString(),
			GameID:       gc.game.ID,
			ChangeType:   models.ScoreChangeDisputed,
			NewScore1:    gc.game.Score1,
			NewScore2:    gc.game.Score2,
			ActingUserID: actor.UserID,
			ActingUnitID: intPtr(actor.UnitID),
			Reason:       &reason,
			Origin:       "player",
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.ScoreDisputes.Inc()

	gc.game.Status = models.GameStatusDisputed
	gc.game.DisputedAt = &now
	gc.game.DisputeReason = &reason

	// Спор эскалируется организатору события с указанной причиной.
	if event, err := s.eventRepo.GetByID(ctx, gc.division.EventID); err == nil {
		s.notifyUsers([]int{event.OrganizerID}, Notification{
			Type:    NotificationScoreDisputed,
			Title:   "Score disputed",
			Message: fmt.Sprintf("Game %d score %d:%d was disputed: %s", gc.game.ID, gc.game.Score1, gc.game.Score2, reason),
			RefType: "game",
			RefID:   gc.game.ID,
		})
	} else {
		s.logger.WarnContext(ctx, "failed to resolve event for dispute notification",
			slog.Int("game_id", gc.game.ID), slog.Any("error", err))
	}
	s.broadcast(ctx, gc.encounter.DivisionID, "score_disputed", gc.game)
	return gc.game, nil
}

func (s *gameService) AdminOverride(ctx context.Context, gameID int, actor Actor, score1, score2 int, note *string, finishing bool) (*models.Game, error) {
	if err := validateScores(score1, score2); err != nil {
		return nil, err
	}

	gc, err := s.loadGameContext(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if _, err := requireEventManager(ctx, s.eventRepo, actor, gc.division.EventID); err != nil {
		return nil, err
	}

	prev1, prev2 := gc.game.Score1, gc.game.Score2
	now := time.Now().UTC()

	if !finishing {
		// Правка счёта без завершения: статус не меняется.
		err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			if err := s.gameRepo.OverrideScores(ctx, exec, gameID, score1, score2, actor.UserID, note); err != nil {
				return err
			}
			return s.historyRepo.Append(ctx, exec, &models.ScoreHistoryEntry{
				UID:             uuid.NewString(),
				GameID:          gameID,
				ChangeType:      models.ScoreChangeEdited,
				NewScore1:       score1,
				NewScore2:       score2,
				PrevScore1:      &prev1,
				PrevScore2:      &prev2,
				ActingUserID:    actor.UserID,
				Reason:          note,
				IsAdminOverride: true,
				Origin:          "admin",
			})
		})
		if err != nil {
			return nil, err
		}
		metrics.AdminOverrides.Inc()

		gc.game.Score1, gc.game.Score2 = score1, score2
		gc.game.OverriddenByUserID = intPtr(actor.UserID)
		s.broadcast(ctx, gc.encounter.DivisionID, "score_edited", gc.game)
		return gc.game, nil
	}

	winnerUnitID, err := winnerFromScores(gc.encounter, score1, score2)
	if err != nil {
		return nil, err
	}

	var completed bool
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.gameRepo.OverrideFinish(ctx, exec, gameID, score1, score2, actor.UserID, winnerUnitID, note, now); err != nil {
			return err
		}
		if err := s.courtRepo.ReleaseByGame(ctx, exec, gameID); err != nil {
			return err
		}
		if err := s.historyRepo.Append(ctx, exec, &models.ScoreHistoryEntry{
			UID:             uuid.NewString(),
			GameID:          gameID,
			ChangeType:      models.ScoreChangeAdminOverride,
			NewScore1:       score1,
			NewScore2:       score2,
			PrevScore1:      &prev1,
			PrevScore2:      &prev2,
			ActingUserID:    actor.UserID,
			Reason:          note,
			IsAdminOverride: true,
			Origin:          "admin",
		}); err != nil {
			return err
		}
		done, err := s.rollUpCompletion(ctx, exec, gc.encounter, now)
		if err != nil {
			return err
		}
		completed = done
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.AdminOverrides.Inc()
	if completed {
		metrics.EncountersCompleted.Inc()
	}

	gc.game.Score1, gc.game.Score2 = score1, score2
	gc.game.Status = models.GameStatusFinished
	gc.game.OverriddenByUserID = intPtr(actor.UserID)
	gc.game.WinnerUnitID = &winnerUnitID
	gc.game.ConfirmedAt = &now
	gc.game.FinishedAt = &now
	gc.game.DisputedAt = nil
	gc.game.DisputeReason = nil
	s.invalidateTimeline(ctx, gc.division.EventID)
	s.broadcast(ctx, gc.encounter.DivisionID, "score_overridden", gc.game)
	return gc.game, nil
}

// rollUpCompletion суммирует выигранные игры по всем матчам встречи и,
// если одна из сторон добрала floor(bestOf/2)+1, фиксирует итог встречи
// (ровно один раз), освобождает корт и обновляет статистику обоих юнитов.
func (s *gameService) rollUpCompletion(ctx context.Context, exec repositories.SQLExecutor, encounter *models.Encounter, at time.Time) (bool, error) {
	wins, err := s.gameRepo.CountWinsByEncounter(ctx, exec, encounter.ID)
	if err != nil {
		return false, err
	}

	needed := encounter.WinsNeeded()
	var winnerUnitID int
	switch {
	case wins[encounter.Unit1ID] >= needed:
		winnerUnitID = encounter.Unit1ID
	case wins[encounter.Unit2ID] >= needed:
		winnerUnitID = encounter.Unit2ID
	default:
		return false, nil // серия ещё не решена
	}

	if err := s.encounterRepo.Complete(ctx, exec, encounter.ID, winnerUnitID, at); err != nil {
		if errors.Is(err, repositories.ErrEncounterAlreadyCompleted) {
			// Итог уже зафиксирован; статистика применяется не более одного раза.
			return false, nil
		}
		return false, err
	}

	loserUnitID := encounter.OpponentOf(winnerUnitID)
	winnerGames, loserGames := wins[winnerUnitID], wins[loserUnitID]
	if err := s.unitRepo.ApplyEncounterResult(ctx, exec, winnerUnitID, true, winnerGames, loserGames); err != nil {
		return false, err
	}
	if err := s.unitRepo.ApplyEncounterResult(ctx, exec, loserUnitID, false, loserGames, winnerGames); err != nil {
		return false, err
	}

	encounter.Status = models.EncounterStatusCompleted
	encounter.WinnerUnitID = &winnerUnitID
	encounter.CompletedAt = &at
	return true, nil
}

// notifyUnit доставляет уведомление всем членам юнита. Fire-and-forget:
// медленный или упавший диспетчер не влияет на завершившийся переход.
func (s *gameService) notifyUnit(unitID int, n Notification) {
	if unitID == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		userIDs, err := s.unitRepo.ListMemberUserIDs(ctx, unitID)
		if err != nil {
			s.logger.Warn("failed to resolve unit members for notification",
				slog.Int("unit_id", unitID), slog.Any("error", err))
			return
		}
		n.UserIDs = userIDs
		if err := s.notifier.SendToUsers(ctx, n); err != nil {
			s.logger.Warn("notification dispatch failed",
				slog.String("type", n.Type), slog.Any("error", err))
		}
	}()
}

func (s *gameService) notifyUsers(userIDs []int, n Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		n.UserIDs = userIDs
		if err := s.notifier.SendToUsers(ctx, n); err != nil {
			s.logger.Warn("notification dispatch failed",
				slog.String("type", n.Type), slog.Any("error", err))
		}
	}()
}

func (s *gameService) invalidateTimeline(ctx context.Context, eventID int) {
	if s.timeline != nil {
		s.timeline.InvalidateEvent(ctx, eventID)
	}
}

func (s *gameService) broadcast(ctx context.Context, divisionID int, messageType string, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to resolve division for broadcast",
			slog.Int("division_id", divisionID), slog.Any("error", err))
		return
	}
	s.broadcaster.BroadcastEvent(division.EventID, messageType, payload)
}
