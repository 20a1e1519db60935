package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/tournament-live/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedulingFixture struct {
	svc        SchedulingService
	txRunner   *fakeTxRunner
	encounters *fakeEncounterRepo
	courts     *fakeCourtRepo
	groups     *fakeCourtGroupRepo
	timeline   *fakeTimelineInvalidator
}

func newSchedulingFixture(encounters ...*models.Encounter) *schedulingFixture {
	eventRepo := newFakeEventRepo(
		&models.Event{ID: 1, Name: "Spring Open", OrganizerID: 7},
		&models.Event{ID: 2, Name: "Autumn Cup", OrganizerID: 8},
	)
	divisionRepo := newFakeDivisionRepo(
		&models.Division{ID: 10, EventID: 1, Name: "Open Singles", MatchDurationMinutes: 30, GamesPerMatch: 1, IsActive: true},
		&models.Division{ID: 12, EventID: 2, Name: "Autumn Doubles", MatchDurationMinutes: 30, GamesPerMatch: 1, IsActive: true},
	)
	courtRepo := newFakeCourtRepo(
		&models.Court{ID: 5, EventID: 1, Label: "Court 5", Status: models.CourtStatusAvailable},
		&models.Court{ID: 6, EventID: 1, Label: "Court 6", Status: models.CourtStatusAvailable},
		&models.Court{ID: 7, EventID: 2, Label: "Foreign Court", Status: models.CourtStatusAvailable},
	)
	groupRepo := newFakeCourtGroupRepo(
		&models.CourtGroup{ID: 20, EventID: 1, Name: "Main Hall"},
		&models.CourtGroup{ID: 21, EventID: 2, Name: "Other Venue"},
	)
	courtRepo.groupCourts[20] = []int{5, 6}
	encounterRepo := newFakeEncounterRepo(encounters...)

	txRunner := &fakeTxRunner{}
	assigner := NewSlotAssigner(txRunner, encounterRepo)
	timeline := &fakeTimelineInvalidator{}
	svc := NewSchedulingService(txRunner, eventRepo, divisionRepo, encounterRepo, courtRepo, groupRepo, assigner, timeline)

	return &schedulingFixture{
		svc:        svc,
		txRunner:   txRunner,
		encounters: encounterRepo,
		courts:     courtRepo,
		groups:     groupRepo,
		timeline:   timeline,
	}
}

func pendingEncounter(id int) *models.Encounter {
	return &models.Encounter{
		ID: id, DivisionID: 10, Unit1ID: 100 + id, Unit2ID: 200 + id, BestOf: 1,
		Status: models.EncounterStatusReady,
	}
}

func TestBulkAssignAppliesAllItems(t *testing.T) {
	f := newSchedulingFixture(pendingEncounter(1), pendingEncounter(2))
	start := at(10, 0)

	updated, err := f.svc.BulkAssign(context.Background(), 1, actorOrganizer, []CourtAssignmentItem{
		{EncounterID: 1, CourtID: intPtr(5), ScheduledTime: timePtr(start)},
		{EncounterID: 2, CourtID: intPtr(6), ScheduledTime: timePtr(start.Add(30 * time.Minute))},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Equal(t, 1, f.txRunner.calls)
	assert.Contains(t, f.timeline.invalidated(), 1)

	e1, err := f.encounters.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, e1.CourtID)
	assert.Equal(t, 5, *e1.CourtID)
	assert.Equal(t, models.EncounterStatusQueued, e1.Status)
}

func TestBulkAssignExplicitNilClearsCourt(t *testing.T) {
	f := newSchedulingFixture(pendingEncounter(1))
	_, err := f.svc.BulkAssign(context.Background(), 1, actorOrganizer, []CourtAssignmentItem{
		{EncounterID: 1, CourtID: intPtr(5), ScheduledTime: timePtr(at(10, 0))},
	})
	require.NoError(t, err)

	_, err = f.svc.BulkAssign(context.Background(), 1, actorOrganizer, []CourtAssignmentItem{
		{EncounterID: 1, CourtID: nil},
	})
	require.NoError(t, err)

	e, err := f.encounters.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, e.CourtID)
	assert.Equal(t, models.EncounterStatusReady, e.Status)
	// Время не входило в повторное назначение и осталось прежним.
	require.NotNil(t, e.ScheduledTime)
	assert.Equal(t, at(10, 0), *e.ScheduledTime)
}

func TestBulkAssignRejectsForeignCourt(t *testing.T) {
	f := newSchedulingFixture(pendingEncounter(1))

	_, err := f.svc.BulkAssign(context.Background(), 1, actorOrganizer, []CourtAssignmentItem{
		{EncounterID: 1, CourtID: intPtr(7)},
	})
	assert.ErrorIs(t, err, ErrCourtNotInEvent)
	// Ничего не применилось.
	assert.Equal(t, 0, f.txRunner.calls)
}

func TestBulkAssignRejectsForeignOrganizer(t *testing.T) {
	f := newSchedulingFixture(pendingEncounter(1))

	outsider := Actor{UserID: 8, Role: models.RoleOrganizer}
	_, err := f.svc.BulkAssign(context.Background(), 1, outsider, []CourtAssignmentItem{
		{EncounterID: 1, CourtID: intPtr(5), ScheduledTime: timePtr(at(10, 0))},
	})
	assert.ErrorIs(t, err, ErrOrganizerOnly)
	assert.Equal(t, 0, f.txRunner.calls)
}

func TestBulkAssignRejectsForeignEncounter(t *testing.T) {
	foreign := pendingEncounter(99)
	foreign.DivisionID = 12
	f := newSchedulingFixture(foreign)

	_, err := f.svc.BulkAssign(context.Background(), 1, actorOrganizer, []CourtAssignmentItem{
		{EncounterID: 99, CourtID: intPtr(5), ScheduledTime: timePtr(at(10, 0))},
	})
	assert.ErrorIs(t, err, ErrEncounterNotInEvent)
	assert.Equal(t, 0, f.txRunner.calls)

	e, err := f.encounters.GetByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, e.CourtID)
	assert.Nil(t, e.ScheduledTime)
}

func TestBulkAssignRejectsEmptyList(t *testing.T) {
	f := newSchedulingFixture()
	_, err := f.svc.BulkAssign(context.Background(), 1, actorOrganizer, nil)
	assert.ErrorIs(t, err, ErrNoAssignmentsProvided)
}

func TestReplaceBindingsAssignsPriorityByOrder(t *testing.T) {
	f := newSchedulingFixture()

	err := f.svc.ReplaceBindings(context.Background(), 10, actorOrganizer, []BindingInput{
		{CourtGroupID: 20},
	})
	require.NoError(t, err)

	bindings, err := f.groups.ListBindingsByDivision(context.Background(), 10, true)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, 1, bindings[0].Priority)
	assert.Equal(t, models.AssignmentModeAny, bindings[0].Mode)
	assert.True(t, bindings[0].IsActive)
}

func TestReplaceBindingsRejectsForeignGroup(t *testing.T) {
	f := newSchedulingFixture()

	err := f.svc.ReplaceBindings(context.Background(), 10, actorOrganizer, []BindingInput{
		{CourtGroupID: 21},
	})
	assert.ErrorIs(t, err, ErrCourtGroupNotInEvent)
}

func TestDivisionOpsRejectForeignOrganizer(t *testing.T) {
	f := newSchedulingFixture(pendingEncounter(1))

	outsider := Actor{UserID: 8, Role: models.RoleOrganizer}
	err := f.svc.ReplaceBindings(context.Background(), 10, outsider, []BindingInput{{CourtGroupID: 20}})
	assert.ErrorIs(t, err, ErrOrganizerOnly)

	_, err = f.svc.AutoAssign(context.Background(), 10, outsider, AutoAssignParams{})
	assert.ErrorIs(t, err, ErrOrganizerOnly)

	_, err = f.svc.ClearAssignments(context.Background(), 10, outsider)
	assert.ErrorIs(t, err, ErrOrganizerOnly)
}

func TestAutoAssignRoundRobinsCourtsAndSlots(t *testing.T) {
	f := newSchedulingFixture(
		pendingEncounter(1), pendingEncounter(2), pendingEncounter(3),
	)
	require.NoError(t, f.svc.ReplaceBindings(context.Background(), 10, actorOrganizer, []BindingInput{{CourtGroupID: 20}}))

	start := at(9, 0)
	result, err := f.svc.AutoAssign(context.Background(), 10, actorOrganizer, AutoAssignParams{StartTime: &start})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, 3, result.AssignedCount)
	assert.Equal(t, []string{"Court 5", "Court 6"}, result.CourtsUsed)

	// Два корта: третья встреча уходит во второй слот первого корта.
	e3, err := f.encounters.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, e3.CourtID)
	assert.Equal(t, 5, *e3.CourtID)
	require.NotNil(t, e3.ScheduledTime)
	assert.Equal(t, at(9, 30), *e3.ScheduledTime)

	require.NotNil(t, result.EstimatedEndTime)
	assert.Equal(t, at(10, 0), *result.EstimatedEndTime)
}

func TestAutoAssignSkipsPlacedUnlessCleared(t *testing.T) {
	placed := pendingEncounter(1)
	placed.CourtID = intPtr(6)
	placed.ScheduledTime = timePtr(at(15, 0))
	f := newSchedulingFixture(placed, pendingEncounter(2))
	require.NoError(t, f.svc.ReplaceBindings(context.Background(), 10, actorOrganizer, []BindingInput{{CourtGroupID: 20}}))

	start := at(9, 0)
	result, err := f.svc.AutoAssign(context.Background(), 10, actorOrganizer, AutoAssignParams{StartTime: &start})
	require.NoError(t, err)
	assert.Equal(t, 1, result.AssignedCount)

	e1, err := f.encounters.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, at(15, 0), *e1.ScheduledTime)

	// С ClearExisting размещение перекладывается с нуля.
	result, err = f.svc.AutoAssign(context.Background(), 10, actorOrganizer, AutoAssignParams{StartTime: &start, ClearExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.AssignedCount)

	e1, err = f.encounters.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, at(9, 0), *e1.ScheduledTime)
}

func TestAutoAssignWithoutBindings(t *testing.T) {
	f := newSchedulingFixture(pendingEncounter(1))

	result, err := f.svc.AutoAssign(context.Background(), 10, actorOrganizer, AutoAssignParams{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
}

func TestAutoAssignRejectsNonPositiveDuration(t *testing.T) {
	f := newSchedulingFixture(pendingEncounter(1))
	bad := 0
	_, err := f.svc.AutoAssign(context.Background(), 10, actorOrganizer, AutoAssignParams{MatchDurationMinutes: &bad})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestClearAssignmentsResetsPendingOnly(t *testing.T) {
	placed := pendingEncounter(1)
	placed.CourtID = intPtr(5)
	placed.ScheduledTime = timePtr(at(10, 0))
	started := pendingEncounter(2)
	started.CourtID = intPtr(6)
	started.ScheduledTime = timePtr(at(11, 0))
	started.Status = models.EncounterStatusInProgress

	// Не размещена: в счётчик очищенных не попадает.
	f := newSchedulingFixture(placed, started, pendingEncounter(3))

	cleared, err := f.svc.ClearAssignments(context.Background(), 10, actorOrganizer)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)
	assert.Contains(t, f.timeline.invalidated(), 1)

	e2, err := f.encounters.GetByID(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, e2.CourtID)
	assert.Equal(t, models.EncounterStatusInProgress, e2.Status)
}
