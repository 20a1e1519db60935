package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-live/models"
	"github.com/Dosada05/tournament-live/repositories"
)

// slotAssigner — встроенная реализация CourtAssigner: раскладывает ещё не
// начатые встречи дивизиона по кортам слотами одинаковой длительности,
// в порядке приоритета кортов. Размещение пишется одной транзакцией.
type slotAssigner struct {
	txRunner      repositories.TxRunner
	encounterRepo repositories.EncounterRepository
}

func NewSlotAssigner(txRunner repositories.TxRunner, encounterRepo repositories.EncounterRepository) CourtAssigner {
	return &slotAssigner{txRunner: txRunner, encounterRepo: encounterRepo}
}

func (a *slotAssigner) AutoAssign(ctx context.Context, req AutoAssignRequest) (*AutoAssignResult, error) {
	encounters, err := a.encounterRepo.ListByDivision(ctx, req.Division.ID)
	if err != nil {
		return nil, err
	}

	pending := make([]*models.Encounter, 0, len(encounters))
	for _, e := range encounters {
		switch e.Status {
		case models.EncounterStatusScheduled, models.EncounterStatusQueued, models.EncounterStatusReady:
		default:
			continue
		}
		if !req.ClearExisting && e.CourtID != nil && e.ScheduledTime != nil {
			continue // уже размещена, не трогаем
		}
		pending = append(pending, e)
	}
	if len(pending) == 0 {
		return &AutoAssignResult{Success: true, Message: "nothing to assign", CourtsUsed: []string{}}, nil
	}

	start := time.Now().UTC().Truncate(time.Minute)
	if req.StartTime != nil {
		start = *req.StartTime
	}
	duration := resolveDuration(nil, req.Division)
	if req.MatchDurationMinutes != nil {
		duration = time.Duration(*req.MatchDurationMinutes) * time.Minute
	}

	courtCount := len(req.Courts)
	usedCourts := make(map[int]string)
	var lastEnd time.Time

	err = a.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if req.ClearExisting {
			if _, err := a.encounterRepo.ClearAssignmentsByDivision(ctx, exec, req.Division.ID); err != nil {
				return err
			}
		}
		for i, e := range pending {
			court := req.Courts[i%courtCount]
			slot := start.Add(time.Duration(i/courtCount) * duration)
			slotEnd := slot.Add(duration)
			if slotEnd.After(lastEnd) {
				lastEnd = slotEnd
			}
			usedCourts[court.ID] = court.Label

			courtID := court.ID
			slotTime := slot
			if err := a.encounterRepo.UpdateAssignment(ctx, exec, e.ID, &courtID, &slotTime, &slotTime); err != nil {
				return fmt.Errorf("failed to place encounter %d: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(usedCourts))
	for _, id := range sortedKeys(usedCourts) {
		labels = append(labels, usedCourts[id])
	}
	return &AutoAssignResult{
		Success:          true,
		AssignedCount:    len(pending),
		CourtsUsed:       labels,
		StartTime:        &start,
		EstimatedEndTime: &lastEnd,
	}, nil
}
