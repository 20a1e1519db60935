package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-live/models"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrNotFound           = errors.New("requested resource not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrDivisionNotFound   = errors.New("division not found")
	ErrEncounterNotFound  = errors.New("encounter not found")
	ErrGameNotFound       = errors.New("game not found")
	ErrCourtNotFound      = errors.New("court not found")
	ErrCourtGroupNotFound = errors.New("court group not found")
	ErrUnitNotFound       = errors.New("unit not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed      = errors.New("validation failed")
	ErrNoAssignmentsProvided = errors.New("no assignments provided")
	ErrCourtNotInEvent       = errors.New("court does not belong to this event")
	ErrCourtGroupNotInEvent  = errors.New("court group does not belong to this event")
	ErrEncounterNotInEvent   = errors.New("encounter does not belong to this event")
	ErrInvalidDuration       = errors.New("match duration must be positive")
	ErrNegativeScore         = errors.New("scores must be non-negative")
	ErrScoreTie              = errors.New("game score cannot be a tie")
	ErrDisputeReasonRequired = errors.New("dispute reason is required")

	// Ошибки конфликтов
	ErrScoreAlreadySubmitted = errors.New("score already submitted, waiting for opponent verification")
	ErrScoreNotSubmitted     = errors.New("no score has been submitted for this game yet")
	ErrSelfVerification      = errors.New("submitting unit cannot verify its own score")
	ErrGameAlreadyFinished   = errors.New("game is already finished")
	ErrCourtOccupied         = errors.New("court is occupied by another game")
	ErrEncounterNotStartable = errors.New("encounter cannot be started in its current status")
	ErrEventNotPublished     = errors.New("event schedule is not published")

	// Ошибки авторизации и доступа
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrNotParticipant     = errors.New("acting unit does not participate in this encounter")
	ErrOrganizerOnly      = errors.New("only the event organizer or an admin can perform this action")

	// Инфраструктурные
	ErrAuditExportUnavailable = errors.New("audit export storage is not configured")
)

// PublishBlockedError возвращается, когда публикация отклонена валидатором.
// Несёт полный отчёт, чтобы вызывающая сторона показала точные конфликты.
type PublishBlockedError struct {
	Result *models.ValidationResult
}

func (e *PublishBlockedError) Error() string {
	if e.Result == nil {
		return "publish blocked by schedule validation"
	}
	return fmt.Sprintf("publish blocked: %d conflict(s), %d unassigned encounter(s)",
		e.Result.ConflictCount, e.Result.UnassignedCount)
}
