package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/tournament-live/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 6, 14, hour, min, 0, 0, time.UTC)
}

func scheduledEncounter(id, divisionID, unit1, unit2 int, courtID int, start time.Time) *models.Encounter {
	return &models.Encounter{
		ID:            id,
		DivisionID:    divisionID,
		Unit1ID:       unit1,
		Unit2ID:       unit2,
		BestOf:        1,
		Status:        models.EncounterStatusScheduled,
		CourtID:       intPtr(courtID),
		ScheduledTime: timePtr(start),
	}
}

func newValidationFixture(encounters ...*models.Encounter) (ValidationService, *fakeEventRepo, *fakeDivisionRepo) {
	eventRepo := newFakeEventRepo(&models.Event{ID: 1, Name: "Spring Open", OrganizerID: 7})
	divisionRepo := newFakeDivisionRepo(&models.Division{
		ID: 10, EventID: 1, Name: "Open Singles", MatchDurationMinutes: 20, GamesPerMatch: 1, IsActive: true,
	})
	courtRepo := newFakeCourtRepo(
		&models.Court{ID: 5, EventID: 1, Label: "Court 5", Status: models.CourtStatusAvailable},
		&models.Court{ID: 6, EventID: 1, Label: "Court 6", Status: models.CourtStatusAvailable},
	)
	encounterRepo := newFakeEncounterRepo(encounters...)
	svc := NewValidationService(eventRepo, encounterRepo, divisionRepo, courtRepo)
	return svc, eventRepo, divisionRepo
}

func TestValidateDetectsCourtOverlap(t *testing.T) {
	// Длительность 20 минут: E1 10:00-10:20, E2 10:15-10:35 на одном корте.
	svc, _, _ := newValidationFixture(
		scheduledEncounter(1, 10, 101, 102, 5, at(10, 0)),
		scheduledEncounter(2, 10, 103, 104, 5, at(10, 15)),
	)

	result, err := svc.Validate(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, result.Conflicts, 1)
	conflict := result.Conflicts[0]
	assert.Equal(t, models.ConflictCourtOverlap, conflict.Type)
	assert.True(t, conflict.References(1, 2))
	require.NotNil(t, conflict.CourtID)
	assert.Equal(t, 5, *conflict.CourtID)
	assert.Equal(t, at(10, 15), conflict.OverlapStart)
	assert.Equal(t, at(10, 20), conflict.OverlapEnd)
	assert.False(t, result.Valid)
}

func TestValidateBackToBackIsNotConflict(t *testing.T) {
	// Интервалы полуоткрытые: конец 10:20 и старт 10:20 не пересекаются.
	svc, _, _ := newValidationFixture(
		scheduledEncounter(1, 10, 101, 102, 5, at(10, 0)),
		scheduledEncounter(2, 10, 103, 104, 5, at(10, 20)),
	)

	result, err := svc.Validate(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)
	assert.True(t, result.Valid)
}

func TestValidateDetectsUnitOverlap(t *testing.T) {
	// Юнит 101 заявлен в обеих встречах на разных кортах в одно время.
	svc, _, _ := newValidationFixture(
		scheduledEncounter(1, 10, 101, 102, 5, at(10, 0)),
		scheduledEncounter(2, 10, 101, 104, 6, at(10, 10)),
	)

	result, err := svc.Validate(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, result.Conflicts, 1)
	conflict := result.Conflicts[0]
	assert.Equal(t, models.ConflictUnitOverlap, conflict.Type)
	require.NotNil(t, conflict.UnitID)
	assert.Equal(t, 101, *conflict.UnitID)
	assert.True(t, conflict.References(1, 2))
}

func TestValidateDeduplicatesPairAcrossKinds(t *testing.T) {
	// Пара пересекается и по корту, и по участнику: конфликт ровно один.
	svc, _, _ := newValidationFixture(
		scheduledEncounter(1, 10, 101, 102, 5, at(10, 0)),
		scheduledEncounter(2, 10, 101, 104, 5, at(10, 10)),
	)

	result, err := svc.Validate(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, models.ConflictCourtOverlap, result.Conflicts[0].Type)
}

func TestValidateWarningsDoNotAllBlock(t *testing.T) {
	unassigned := &models.Encounter{
		ID: 3, DivisionID: 10, Unit1ID: 105, Unit2ID: 106, BestOf: 1,
		Status: models.EncounterStatusScheduled,
	}
	svc, _, divisionRepo := newValidationFixture(
		scheduledEncounter(1, 10, 101, 102, 5, at(10, 0)),
		unassigned,
	)
	divisionRepo.unbound = []int{10}

	result, err := svc.Validate(context.Background(), 1)
	require.NoError(t, err)

	assert.Empty(t, result.Conflicts)
	assert.Equal(t, 1, result.UnassignedCount)
	assert.Equal(t, 1, result.UnboundCount)
	assert.Len(t, result.Warnings, 2)
	// Неназначенная встреча блокирует, дивизион без привязок — нет.
	assert.False(t, result.Valid)
}

func TestValidateIsIdempotent(t *testing.T) {
	svc, _, _ := newValidationFixture(
		scheduledEncounter(1, 10, 101, 102, 5, at(10, 0)),
		scheduledEncounter(2, 10, 103, 104, 5, at(10, 15)),
	)

	first, err := svc.Validate(context.Background(), 1)
	require.NoError(t, err)
	second, err := svc.Validate(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, first.ConflictCount, second.ConflictCount)
	assert.Equal(t, first.Conflicts, second.Conflicts)
}

func TestValidateAndStampPersistsResult(t *testing.T) {
	svc, eventRepo, _ := newValidationFixture(
		scheduledEncounter(1, 10, 101, 102, 5, at(10, 0)),
		scheduledEncounter(2, 10, 103, 104, 5, at(10, 15)),
	)

	result, err := svc.ValidateAndStamp(context.Background(), 1, actorOrganizer)
	require.NoError(t, err)

	event, err := eventRepo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, event.LastValidatedAt)
	require.NotNil(t, event.LastConflictCount)
	assert.Equal(t, result.ConflictCount, *event.LastConflictCount)
	assert.Equal(t, result.ValidatedAt, *event.LastValidatedAt)
}

func TestValidateAndStampRejectsForeignOrganizer(t *testing.T) {
	svc, eventRepo, _ := newValidationFixture(
		scheduledEncounter(1, 10, 101, 102, 5, at(10, 0)),
	)

	// Организатор без прав на это событие штамп не ставит.
	outsider := Actor{UserID: 42, Role: models.RoleOrganizer}
	_, err := svc.ValidateAndStamp(context.Background(), 1, outsider)
	assert.ErrorIs(t, err, ErrOrganizerOnly)

	event, err := eventRepo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, event.LastValidatedAt)
}

func TestValidateUnknownEvent(t *testing.T) {
	svc, _, _ := newValidationFixture()

	_, err := svc.Validate(context.Background(), 99)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
