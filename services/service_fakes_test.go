package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-live/models"
	"github.com/Dosada05/tournament-live/repositories"
)

// Фейки держат состояние в памяти и воспроизводят условную семантику
// постгресовых репозиториев (conditional writes, exactly-once).

type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithinTx(ctx context.Context, fn func(repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[int]*models.Event
}

func newFakeEventRepo(events ...*models.Event) *fakeEventRepo {
	m := make(map[int]*models.Event)
	for _, e := range events {
		m[e.ID] = e
	}
	return &fakeEventRepo{events: m}
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	clone := *e
	return &clone, nil
}

func (f *fakeEventRepo) SetPublished(ctx context.Context, exec repositories.SQLExecutor, eventID int, at *time.Time, by *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	if !ok {
		return repositories.ErrEventNotFound
	}
	e.PublishedAt = at
	e.PublishedBy = by
	return nil
}

func (f *fakeEventRepo) UpdateValidationStamp(ctx context.Context, eventID int, at time.Time, conflictCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	if !ok {
		return repositories.ErrEventNotFound
	}
	e.LastValidatedAt = &at
	e.LastConflictCount = &conflictCount
	return nil
}

type fakeDivisionRepo struct {
	mu        sync.Mutex
	divisions map[int]*models.Division
	unbound   []int
}

func newFakeDivisionRepo(divisions ...*models.Division) *fakeDivisionRepo {
	m := make(map[int]*models.Division)
	for _, d := range divisions {
		m[d.ID] = d
	}
	return &fakeDivisionRepo{divisions: m}
}

func (f *fakeDivisionRepo) GetByID(ctx context.Context, id int) (*models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.divisions[id]
	if !ok {
		return nil, repositories.ErrDivisionNotFound
	}
	clone := *d
	return &clone, nil
}

func (f *fakeDivisionRepo) ListByEvent(ctx context.Context, eventID int, activeOnly bool) ([]*models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Division
	for _, d := range f.divisions {
		if d.EventID != eventID {
			continue
		}
		if activeOnly && !d.IsActive {
			continue
		}
		clone := *d
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDivisionRepo) SetPublishedByEvent(ctx context.Context, exec repositories.SQLExecutor, eventID int, at *time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, d := range f.divisions {
		if d.EventID == eventID && d.IsActive {
			d.PublishedAt = at
			count++
		}
	}
	return count, nil
}

func (f *fakeDivisionRepo) ListIDsWithoutActiveBindings(ctx context.Context, eventID int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.unbound...), nil
}

type fakeCourtRepo struct {
	mu          sync.Mutex
	courts      map[int]*models.Court
	groupCourts map[int][]int // group id -> court ids в порядке добавления
}

func newFakeCourtRepo(courts ...*models.Court) *fakeCourtRepo {
	m := make(map[int]*models.Court)
	for _, c := range courts {
		m[c.ID] = c
	}
	return &fakeCourtRepo{courts: m, groupCourts: make(map[int][]int)}
}

func (f *fakeCourtRepo) GetByID(ctx context.Context, id int) (*models.Court, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courts[id]
	if !ok {
		return nil, repositories.ErrCourtNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCourtRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.Court, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Court
	for _, c := range f.courts {
		if c.EventID == eventID {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCourtRepo) ListByGroupIDs(ctx context.Context, groupIDs []int) ([]*models.Court, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Court
	seen := make(map[int]bool)
	for _, gid := range groupIDs {
		for _, cid := range f.groupCourts[gid] {
			if seen[cid] {
				continue
			}
			seen[cid] = true
			if c, ok := f.courts[cid]; ok {
				clone := *c
				out = append(out, &clone)
			}
		}
	}
	return out, nil
}

func (f *fakeCourtRepo) Occupy(ctx context.Context, exec repositories.SQLExecutor, courtID, gameID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courts[courtID]
	if !ok {
		return repositories.ErrCourtNotFound
	}
	if c.CurrentGameID != nil {
		return repositories.ErrCourtOccupied
	}
	c.CurrentGameID = &gameID
	c.Status = models.CourtStatusInUse
	return nil
}

func (f *fakeCourtRepo) ReleaseByGame(ctx context.Context, exec repositories.SQLExecutor, gameID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.courts {
		if c.CurrentGameID != nil && *c.CurrentGameID == gameID {
			c.CurrentGameID = nil
			c.Status = models.CourtStatusAvailable
		}
	}
	return nil
}

type fakeCourtGroupRepo struct {
	mu       sync.Mutex
	groups   map[int]*models.CourtGroup
	bindings map[int][]*models.DivisionCourtGroup
}

func newFakeCourtGroupRepo(groups ...*models.CourtGroup) *fakeCourtGroupRepo {
	m := make(map[int]*models.CourtGroup)
	for _, g := range groups {
		m[g.ID] = g
	}
	return &fakeCourtGroupRepo{groups: m, bindings: make(map[int][]*models.DivisionCourtGroup)}
}

func (f *fakeCourtGroupRepo) GetByID(ctx context.Context, id int) (*models.CourtGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return nil, repositories.ErrCourtGroupNotFound
	}
	clone := *g
	return &clone, nil
}

func (f *fakeCourtGroupRepo) ListByIDs(ctx context.Context, ids []int) ([]*models.CourtGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.CourtGroup
	for _, id := range ids {
		if g, ok := f.groups[id]; ok {
			clone := *g
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeCourtGroupRepo) ReplaceDivisionBindings(ctx context.Context, exec repositories.SQLExecutor, divisionID int, bindings []models.DivisionCourtGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	replaced := make([]*models.DivisionCourtGroup, 0, len(bindings))
	for i := range bindings {
		b := bindings[i]
		replaced = append(replaced, &b)
	}
	f.bindings[divisionID] = replaced
	return nil
}

func (f *fakeCourtGroupRepo) ListBindingsByDivision(ctx context.Context, divisionID int, activeOnly bool) ([]*models.DivisionCourtGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DivisionCourtGroup
	for _, b := range f.bindings[divisionID] {
		if activeOnly && !b.IsActive {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

type fakeEncounterRepo struct {
	mu         sync.Mutex
	encounters map[int]*models.Encounter
}

func newFakeEncounterRepo(encounters ...*models.Encounter) *fakeEncounterRepo {
	m := make(map[int]*models.Encounter)
	for _, e := range encounters {
		m[e.ID] = e
	}
	return &fakeEncounterRepo{encounters: m}
}

func (f *fakeEncounterRepo) get(id int) (*models.Encounter, error) {
	e, ok := f.encounters[id]
	if !ok {
		return nil, repositories.ErrEncounterNotFound
	}
	return e, nil
}

func (f *fakeEncounterRepo) GetByID(ctx context.Context, id int) (*models.Encounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, err := f.get(id)
	if err != nil {
		return nil, err
	}
	clone := *e
	return &clone, nil
}

func (f *fakeEncounterRepo) GetByIDForExec(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Encounter, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeEncounterRepo) listWhere(pred func(*models.Encounter) bool) []*models.Encounter {
	var out []*models.Encounter
	for _, e := range f.encounters {
		if pred(e) {
			clone := *e
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func notCanceled(e *models.Encounter) bool {
	return e.Status != models.EncounterStatusCanceled && e.Status != models.EncounterStatusBye
}

func (f *fakeEncounterRepo) ListScheduledByEvent(ctx context.Context, eventID int) ([]*models.Encounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listWhere(func(e *models.Encounter) bool {
		return notCanceled(e) && e.CourtID != nil && e.ScheduledTime != nil
	}), nil
}

func (f *fakeEncounterRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.Encounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listWhere(notCanceled), nil
}

func (f *fakeEncounterRepo) ListByDivision(ctx context.Context, divisionID int) ([]*models.Encounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listWhere(func(e *models.Encounter) bool {
		return notCanceled(e) && e.DivisionID == divisionID
	}), nil
}

func reschedulable(status models.EncounterStatus) bool {
	switch status {
	case models.EncounterStatusScheduled, models.EncounterStatusQueued, models.EncounterStatusReady:
		return true
	}
	return false
}

func (f *fakeEncounterRepo) UpdateAssignment(ctx context.Context, exec repositories.SQLExecutor, id int, courtID *int, scheduledTime, estimatedStartTime *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, err := f.get(id)
	if err != nil {
		return err
	}
	if !reschedulable(e.Status) {
		return repositories.ErrEncounterNotFound
	}
	e.CourtID = courtID
	if scheduledTime != nil {
		e.ScheduledTime = scheduledTime
	}
	if estimatedStartTime != nil {
		e.EstimatedStartTime = estimatedStartTime
	}
	if courtID != nil {
		e.Status = models.EncounterStatusQueued
	} else {
		e.Status = models.EncounterStatusReady
	}
	return nil
}

func (f *fakeEncounterRepo) ClearAssignmentsByDivision(ctx context.Context, exec repositories.SQLExecutor, divisionID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.encounters {
		if e.DivisionID != divisionID || !reschedulable(e.Status) {
			continue
		}
		if e.CourtID != nil || e.ScheduledTime != nil {
			e.CourtID = nil
			e.ScheduledTime = nil
			e.EstimatedStartTime = nil
			e.Status = models.EncounterStatusReady
			count++
		}
	}
	return count, nil
}

func (f *fakeEncounterRepo) SetCourt(ctx context.Context, exec repositories.SQLExecutor, id int, courtID *int, status models.EncounterStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, err := f.get(id)
	if err != nil {
		return err
	}
	e.CourtID = courtID
	e.Status = status
	return nil
}

func (f *fakeEncounterRepo) MarkStarted(ctx context.Context, exec repositories.SQLExecutor, id int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, err := f.get(id)
	if err != nil {
		return err
	}
	e.Status = models.EncounterStatusInProgress
	e.ActualStartTime = &at
	return nil
}

func (f *fakeEncounterRepo) Complete(ctx context.Context, exec repositories.SQLExecutor, id int, winnerUnitID int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, err := f.get(id)
	if err != nil {
		return err
	}
	if e.CompletedAt != nil {
		return repositories.ErrEncounterAlreadyCompleted
	}
	e.Status = models.EncounterStatusCompleted
	e.WinnerUnitID = &winnerUnitID
	e.CompletedAt = &at
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[int]*models.Match
}

func newFakeMatchRepo(matches ...*models.Match) *fakeMatchRepo {
	m := make(map[int]*models.Match)
	for _, match := range matches {
		m[match.ID] = match
	}
	return &fakeMatchRepo{matches: m}
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	clone := *m
	return &clone, nil
}

func (f *fakeMatchRepo) ListByEncounter(ctx context.Context, encounterID int) ([]*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Match
	for _, m := range f.matches {
		if m.EncounterID == encounterID {
			clone := *m
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNumber < out[j].LineNumber })
	return out, nil
}

type fakeGameRepo struct {
	mu      sync.Mutex
	games   map[int]*models.Game
	matches *fakeMatchRepo

	// beforeConfirm, если задан, выполняется перед проверкой условий
	// Confirm: тесты имитируют конкурентное изменение счёта.
	beforeConfirm func(g *models.Game)
}

func newFakeGameRepo(matches *fakeMatchRepo, games ...*models.Game) *fakeGameRepo {
	m := make(map[int]*models.Game)
	for _, g := range games {
		m[g.ID] = g
	}
	return &fakeGameRepo{games: m, matches: matches}
}

func (f *fakeGameRepo) get(id int) (*models.Game, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	return g, nil
}

func (f *fakeGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.get(id)
	if err != nil {
		return nil, err
	}
	clone := *g
	return &clone, nil
}

func (f *fakeGameRepo) GetByIDForExec(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeGameRepo) ListByMatch(ctx context.Context, matchID int) ([]*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Game
	for _, g := range f.games {
		if g.MatchID == matchID {
			clone := *g
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameNumber < out[j].GameNumber })
	return out, nil
}

func (f *fakeGameRepo) gamesOfEncounter(encounterID int) []*models.Game {
	matchIDs := make(map[int]bool)
	for _, m := range f.matches.matches {
		if m.EncounterID == encounterID {
			matchIDs[m.ID] = true
		}
	}
	var out []*models.Game
	for _, g := range f.games {
		if matchIDs[g.MatchID] {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchID != out[j].MatchID {
			return out[i].MatchID < out[j].MatchID
		}
		return out[i].GameNumber < out[j].GameNumber
	})
	return out
}

func (f *fakeGameRepo) GetCurrentByEncounter(ctx context.Context, encounterID int) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.gamesOfEncounter(encounterID) {
		if g.Status != models.GameStatusFinished {
			clone := *g
			return &clone, nil
		}
	}
	return nil, repositories.ErrGameNotFound
}

func (f *fakeGameRepo) MirrorQueueStatus(ctx context.Context, exec repositories.SQLExecutor, encounterID int, status models.GameStatus, courtID *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.gamesOfEncounter(encounterID) {
		if g.Status != models.GameStatusFinished {
			g.Status = status
			g.CourtID = courtID
			return nil
		}
	}
	return nil
}

func (f *fakeGameRepo) SetPlaying(ctx context.Context, exec repositories.SQLExecutor, id int, courtID *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.get(id)
	if err != nil {
		return err
	}
	g.Status = models.GameStatusPlaying
	g.CourtID = courtID
	return nil
}

func (f *fakeGameRepo) SubmitScore(ctx context.Context, exec repositories.SQLExecutor, id int, score1, score2, unitID int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.get(id)
	if err != nil {
		return err
	}
	if g.SubmittedByUnitID != nil || g.Status == models.GameStatusFinished {
		return repositories.ErrGameScoreAlreadyRecorded
	}
	g.Score1, g.Score2 = score1, score2
	g.SubmittedByUnitID = &unitID
	g.SubmittedAt = &at
	g.Status = models.GameStatusAwaitingConfirmation
	return nil
}

func (f *fakeGameRepo) Confirm(ctx context.Context, exec repositories.SQLExecutor, id int, unitID int, winnerUnitID int, score1, score2 int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.get(id)
	if err != nil {
		return err
	}
	if f.beforeConfirm != nil {
		f.beforeConfirm(g)
	}
	if g.SubmittedByUnitID == nil || g.Status == models.GameStatusFinished {
		return repositories.ErrGameNotAwaitingVerify
	}
	if g.Score1 != score1 || g.Score2 != score2 {
		return repositories.ErrGameNotAwaitingVerify
	}
	g.ConfirmedByUnitID = &unitID
	g.ConfirmedAt = &at
	g.WinnerUnitID = &winnerUnitID
	g.FinishedAt = &at
	g.Status = models.GameStatusFinished
	return nil
}

func (f *fakeGameRepo) Dispute(ctx context.Context, exec repositories.SQLExecutor, id int, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.get(id)
	if err != nil {
		return err
	}
	if g.SubmittedByUnitID == nil || g.Status == models.GameStatusFinished {
		return repositories.ErrGameNotAwaitingVerify
	}
	g.Status = models.GameStatusDisputed
	g.DisputedAt = &at
	g.DisputeReason = &reason
	return nil
}

func (f *fakeGameRepo) OverrideScores(ctx context.Context, exec repositories.SQLExecutor, id int, score1, score2 int, byUserID int, note *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.get(id)
	if err != nil {
		return err
	}
	g.Score1, g.Score2 = score1, score2
	g.OverriddenByUserID = &byUserID
	g.Notes = note
	return nil
}

func (f *fakeGameRepo) OverrideFinish(ctx context.Context, exec repositories.SQLExecutor, id int, score1, score2 int, byUserID int, winnerUnitID int, note *string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.get(id)
	if err != nil {
		return err
	}
	g.Score1, g.Score2 = score1, score2
	g.OverriddenByUserID = &byUserID
	g.WinnerUnitID = &winnerUnitID
	g.Notes = note
	g.ConfirmedAt = &at
	g.FinishedAt = &at
	g.DisputedAt = nil
	g.DisputeReason = nil
	g.Status = models.GameStatusFinished
	return nil
}

func (f *fakeGameRepo) CountWinsByEncounter(ctx context.Context, exec repositories.SQLExecutor, encounterID int) (map[int]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wins := make(map[int]int)
	for _, g := range f.gamesOfEncounter(encounterID) {
		if g.Status == models.GameStatusFinished && g.WinnerUnitID != nil {
			wins[*g.WinnerUnitID]++
		}
	}
	return wins, nil
}

type fakeUnitRepo struct {
	mu      sync.Mutex
	units   map[int]*models.Unit
	members map[int][]int
}

func newFakeUnitRepo(units ...*models.Unit) *fakeUnitRepo {
	m := make(map[int]*models.Unit)
	for _, u := range units {
		m[u.ID] = u
	}
	return &fakeUnitRepo{units: m, members: make(map[int][]int)}
}

func (f *fakeUnitRepo) GetByID(ctx context.Context, id int) (*models.Unit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.units[id]
	if !ok {
		return nil, repositories.ErrUnitNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUnitRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.Unit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Unit
	for _, u := range f.units {
		if u.EventID == eventID {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUnitRepo) ApplyEncounterResult(ctx context.Context, exec repositories.SQLExecutor, unitID int, won bool, gamesWon, gamesLost int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.units[unitID]
	if !ok {
		return repositories.ErrUnitNotFound
	}
	u.MatchesPlayed++
	if won {
		u.MatchesWon++
	} else {
		u.MatchesLost++
	}
	u.GamesWon += gamesWon
	u.GamesLost += gamesLost
	return nil
}

func (f *fakeUnitRepo) ListMemberUserIDs(ctx context.Context, unitID int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.members[unitID]...), nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []*models.ScoreHistoryEntry
}

func (f *fakeHistoryRepo) Append(ctx context.Context, exec repositories.SQLExecutor, entry *models.ScoreHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = len(f.entries) + 1
	entry.CreatedAt = time.Now().UTC()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistoryRepo) ListByGame(ctx context.Context, gameID int) ([]*models.ScoreHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ScoreHistoryEntry
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].GameID == gameID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) byType(t models.ScoreChangeType) []*models.ScoreHistoryEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ScoreHistoryEntry
	for _, e := range f.entries {
		if e.ChangeType == t {
			out = append(out, e)
		}
	}
	return out
}

type sentNotification struct {
	n Notification
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (f *fakeNotifier) SendToUsers(ctx context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{n: n})
	return nil
}

type broadcastCall struct {
	eventID     int
	messageType string
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (f *fakeBroadcaster) BroadcastEvent(eventID int, messageType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, broadcastCall{eventID: eventID, messageType: messageType})
}

type fakeTimelineInvalidator struct {
	mu       sync.Mutex
	eventIDs []int
}

func (f *fakeTimelineInvalidator) InvalidateEvent(ctx context.Context, eventID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventIDs = append(f.eventIDs, eventID)
}

func (f *fakeTimelineInvalidator) invalidated() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.eventIDs...)
}

func (f *fakeBroadcaster) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.messageType)
	}
	return out
}
