package services

import (
	"context"
	"errors"
	"time"

	"github.com/Dosada05/tournament-live/models"
	"github.com/Dosada05/tournament-live/repositories"
)

// defaultMatchDurationMinutes — запасная длительность встречи, если ни у
// встречи, ни у дивизиона длительность не задана.
const defaultMatchDurationMinutes = 30

// resolveDuration: явное переопределение встречи, иначе дефолт дивизиона,
// иначе фиксированный запасной вариант.
func resolveDuration(e *models.Encounter, division *models.Division) time.Duration {
	if e != nil && e.DurationMinutes != nil && *e.DurationMinutes > 0 {
		return time.Duration(*e.DurationMinutes) * time.Minute
	}
	if division != nil && division.MatchDurationMinutes > 0 {
		return time.Duration(division.MatchDurationMinutes) * time.Minute
	}
	return defaultMatchDurationMinutes * time.Minute
}

// winnerFromScores сопоставляет счёт сторонам встречи: score1 принадлежит
// Unit1, score2 — Unit2. Ничья не допускается.
func winnerFromScores(e *models.Encounter, score1, score2 int) (int, error) {
	switch {
	case score1 > score2:
		return e.Unit1ID, nil
	case score2 > score1:
		return e.Unit2ID, nil
	default:
		return 0, ErrScoreTie
	}
}

func validateScores(score1, score2 int) error {
	if score1 < 0 || score2 < 0 {
		return ErrNegativeScore
	}
	return nil
}

// requireEventManager загружает событие и проверяет право управления им:
// админ или организатор именно этого события, чужой организатор отклоняется.
func requireEventManager(ctx context.Context, eventRepo repositories.EventRepository, actor Actor, eventID int) (*models.Event, error) {
	event, err := eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if !actor.Role.CanManageEvent(actor.UserID, event.OrganizerID) {
		return nil, ErrOrganizerOnly
	}
	return event, nil
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }
