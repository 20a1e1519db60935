package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-live/models"
	"github.com/Dosada05/tournament-live/repositories"
	"github.com/Dosada05/tournament-live/storage"
	"github.com/google/uuid"
)

// AuditExport — результат выгрузки журнала игры в object storage.
type AuditExport struct {
	GameID      int       `json:"game_id"`
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	EntryCount  int       `json:"entry_count"`
	GeneratedAt time.Time `json:"generated_at"`
}

// AuditService отдаёт append-only журнал счёта и выгружает его снапшоты.
// Журнал доступен только управляющим событием: админу или его организатору.
type AuditService interface {
	ListGameHistory(ctx context.Context, gameID int, actor Actor) ([]*models.ScoreHistoryEntry, error)
	ExportGameHistory(ctx context.Context, gameID int, actor Actor) (*AuditExport, error)
}

type auditService struct {
	gameRepo      repositories.GameRepository
	matchRepo     repositories.MatchRepository
	encounterRepo repositories.EncounterRepository
	divisionRepo  repositories.DivisionRepository
	eventRepo     repositories.EventRepository
	historyRepo   repositories.ScoreHistoryRepository
	uploader      storage.FileUploader
	logger        *slog.Logger
}

func NewAuditService(
	gameRepo repositories.GameRepository,
	matchRepo repositories.MatchRepository,
	encounterRepo repositories.EncounterRepository,
	divisionRepo repositories.DivisionRepository,
	eventRepo repositories.EventRepository,
	historyRepo repositories.ScoreHistoryRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) AuditService {
	return &auditService{
		gameRepo:      gameRepo,
		matchRepo:     matchRepo,
		encounterRepo: encounterRepo,
		divisionRepo:  divisionRepo,
		eventRepo:     eventRepo,
		historyRepo:   historyRepo,
		uploader:      uploader,
		logger:        logger,
	}
}

// authorizeGameAudit резолвит событие игры по цепочке игра→матч→встреча→
// дивизион и проверяет право actor управлять им.
func (s *auditService) authorizeGameAudit(ctx context.Context, gameID int, actor Actor) error {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return err
	}
	match, err := s.matchRepo.GetByID(ctx, game.MatchID)
	if err != nil {
		return fmt.Errorf("failed to load match for game %d: %w", gameID, err)
	}
	encounter, err := s.encounterRepo.GetByID(ctx, match.EncounterID)
	if err != nil {
		return fmt.Errorf("failed to load encounter for game %d: %w", gameID, err)
	}
	division, err := s.divisionRepo.GetByID(ctx, encounter.DivisionID)
	if err != nil {
		return fmt.Errorf("failed to load division for game %d: %w", gameID, err)
	}
	_, err = requireEventManager(ctx, s.eventRepo, actor, division.EventID)
	return err
}

// ListGameHistory возвращает журнал игры, новые записи первыми.
func (s *auditService) ListGameHistory(ctx context.Context, gameID int, actor Actor) ([]*models.ScoreHistoryEntry, error) {
	if err := s.authorizeGameAudit(ctx, gameID, actor); err != nil {
		return nil, err
	}
	return s.historyRepo.ListByGame(ctx, gameID)
}

type auditSnapshot struct {
	GameID      int                         `json:"game_id"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Entries     []*models.ScoreHistoryEntry `json:"entries"`
}

// ExportGameHistory сериализует журнал в JSON и загружает в хранилище.
// Каждый экспорт получает уникальный ключ, перезаписи не бывает.
func (s *auditService) ExportGameHistory(ctx context.Context, gameID int, actor Actor) (*AuditExport, error) {
	if s.uploader == nil {
		return nil, ErrAuditExportUnavailable
	}

	entries, err := s.ListGameHistory(ctx, gameID, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payload, err := json.MarshalIndent(auditSnapshot{
		GameID:      gameID,
		GeneratedAt: now,
		Entries:     entries,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit snapshot for game %d: %w", gameID, err)
	}

	key := fmt.Sprintf("audit/games/%d/%s.json", gameID, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to upload audit snapshot for game %d: %w", gameID, err)
	}

	s.logger.InfoContext(ctx, "audit snapshot exported",
		slog.Int("game_id", gameID),
		slog.String("key", result.Key),
		slog.Int("entries", len(entries)))

	return &AuditExport{
		GameID:      gameID,
		Key:         result.Key,
		URL:         result.Location,
		EntryCount:  len(entries),
		GeneratedAt: now,
	}, nil
}
