package alarms

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/WispAyr/overwatch-sub002/internal/pkg/infrastructure/storage"
	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/google/uuid"
	"github.com/matryer/is"
)

func TestCorrelateCreatesNewAlarm(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID, err := svc.Correlate(ctx, newEvent("intrusion|site-1", types.SeverityCritical))
	is.NoErr(err)

	alarm, err := store.GetAlarm(ctx, storage.WithAlarmID(alarmID))
	is.NoErr(err)
	is.Equal(alarm.State, types.StateNew)
	is.Equal(alarm.Severity, types.SeverityCritical)
	is.True(alarm.SLADeadline != nil)

	history, _ := store.GetHistory(ctx, alarmID)
	is.Equal(len(history), 1)
	is.Equal(history[0].Action, types.ActionCreated)
}

func TestCorrelateAttachesToOpenAlarm(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	first, err := svc.Correlate(ctx, newEvent("intrusion|site-1", types.SeverityMajor))
	is.NoErr(err)

	second, err := svc.Correlate(ctx, newEvent("intrusion|site-1", types.SeverityMajor))
	is.NoErr(err)
	is.Equal(first, second)

	alarm, _ := store.GetAlarm(ctx, storage.WithAlarmID(first))
	is.Equal(alarm.State, types.StateNew)

	history, _ := store.GetHistory(ctx, first)
	is.Equal(len(history), 2)
	is.Equal(history[1].Action, types.ActionEventCorrelated)
}

func TestCorrelateScopeSeparatesTenants(t *testing.T) {
	is, ctx, svc, _, _ := testSetup(t)

	ev := newEvent("intrusion|gate", types.SeverityMinor)
	ev.Tenant = "org-a"

	other := newEvent("intrusion|gate", types.SeverityMinor)
	other.Tenant = "org-b"

	first, err := svc.Correlate(ctx, ev)
	is.NoErr(err)

	second, err := svc.Correlate(ctx, other)
	is.NoErr(err)

	is.True(first != second)
}

func TestConcurrentCorrelationCreatesSingleAlarm(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Correlate(ctx, newEvent("burst|cam-7", types.SeverityMajor))
			is.NoErr(err)
		}()
	}

	wg.Wait()

	collection, err := store.QueryAlarms(ctx, storage.WithGroupKey("burst|cam-7"))
	is.NoErr(err)
	is.Equal(int(collection.TotalCount), 1)

	// every event was linked, either by the create or by an attach
	count, err := store.CountEvents(ctx, collection.Data[0].ID)
	is.NoErr(err)
	is.Equal(count, 50)
}

func TestCorrelateSurfacesFailedEventWrite(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	ev := newEvent("flood|basement", types.SeverityMajor)

	store.failNextAddEvent(errors.New("connection reset"))

	_, err := svc.Correlate(ctx, ev)
	is.True(err != nil)

	// redelivery of the same event finds the alarm the failed attempt
	// created and attaches to it
	alarmID, err := svc.Correlate(ctx, ev)
	is.NoErr(err)

	count, err := store.CountEvents(ctx, alarmID)
	is.NoErr(err)
	is.Equal(count, 1)
}

func TestHighConfidenceEscalatesSeverity(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	ev := newEvent("tamper|dvr", types.SeverityMinor)
	ev.Confidence = 0.9

	alarmID, err := svc.Correlate(ctx, ev)
	is.NoErr(err)

	second := newEvent("tamper|dvr", types.SeverityMinor)
	second.Confidence = 0.95

	_, err = svc.Correlate(ctx, second)
	is.NoErr(err)

	alarm, _ := store.GetAlarm(ctx, storage.WithAlarmID(alarmID))
	is.Equal(alarm.Severity, types.SeverityMajor)
}

func TestTransitionTriageToResolved(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateTriage, types.SeverityMajor)

	alarm, err := svc.Transition(ctx, alarmID, types.StateResolved, "alice", "false positive")
	is.NoErr(err)
	is.Equal(alarm.State, types.StateResolved)
	is.True(alarm.SLADeadline != nil)
}

func TestTransitionNewToActiveIsRejected(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateNew, types.SeverityMajor)

	_, err := svc.Transition(ctx, alarmID, types.StateActive, "alice", "")

	var invalid *InvalidTransitionError
	is.True(errors.As(err, &invalid))
	is.Equal(invalid.From, types.StateNew)
	is.Equal(len(invalid.Allowed), 2) // TRIAGE and the suppression override
}

func TestClosingClearsDeadline(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateResolved, types.SeverityMinor)

	alarm, err := svc.Transition(ctx, alarmID, types.StateClosed, "alice", "verified fixed")
	is.NoErr(err)
	is.Equal(alarm.State, types.StateClosed)
	is.True(alarm.SLADeadline == nil)
}

func TestSuppressionOverride(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateContained, types.SeverityMinor)

	alarm, err := svc.Transition(ctx, alarmID, types.StateSuppressed, "alice", "")
	is.NoErr(err)
	is.Equal(alarm.State, types.StateSuppressed)
	is.True(alarm.SLADeadline == nil)

	_, err = svc.Transition(ctx, alarmID, types.StateTriage, "alice", "")
	var invalid *InvalidTransitionError
	is.True(errors.As(err, &invalid))
}

func TestResolvingRequiresNote(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateTriage, types.SeverityMajor)

	_, err := svc.Transition(ctx, alarmID, types.StateResolved, "alice", "  ")
	is.True(errors.Is(err, ErrInvalidValue))
}

func TestAcknowledgeMovesNewToTriage(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateNew, types.SeverityCritical)

	alarm, err := svc.Acknowledge(ctx, alarmID, "alice")
	is.NoErr(err)
	is.Equal(alarm.State, types.StateTriage)
}

func TestAdvanceFromNewIsRejected(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateNew, types.SeverityCritical)

	_, err := svc.Advance(ctx, alarmID, "alice", "note")

	var invalid *InvalidTransitionError
	is.True(errors.As(err, &invalid))
}

func TestSnoozeRaceDoesNotRevertResolvedAlarm(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateTriage, types.SeverityMinor)

	_, err := svc.Snooze(ctx, alarmID, 50*time.Millisecond, "alice")
	is.NoErr(err)

	_, err = svc.Transition(ctx, alarmID, types.StateTriage, "alice", "waking early")
	is.NoErr(err)

	_, err = svc.Transition(ctx, alarmID, types.StateResolved, "alice", "handled")
	is.NoErr(err)

	time.Sleep(200 * time.Millisecond)

	alarm, _ := store.GetAlarm(ctx, storage.WithAlarmID(alarmID))
	is.Equal(alarm.State, types.StateResolved)
}

func TestSnoozeWakesBackToTriage(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateTriage, types.SeverityMinor)

	alarm, err := svc.Snooze(ctx, alarmID, 20*time.Millisecond, "alice")
	is.NoErr(err)
	is.Equal(alarm.State, types.StateSnoozed)
	is.True(alarm.SLADeadline != nil)

	time.Sleep(200 * time.Millisecond)

	alarm, _ = store.GetAlarm(ctx, storage.WithAlarmID(alarmID))
	is.Equal(alarm.State, types.StateTriage)

	history, _ := store.GetHistory(ctx, alarmID)
	last := history[len(history)-1]
	is.Equal(last.User, SystemUser)
}

func TestSnoozeOnlyFromTriage(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateActive, types.SeverityMinor)

	_, err := svc.Snooze(ctx, alarmID, time.Minute, "alice")

	var invalid *InvalidTransitionError
	is.True(errors.As(err, &invalid))
}

func TestAssignRejectsBlankAssignee(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateTriage, types.SeverityMajor)

	_, err := svc.Assign(ctx, alarmID, "   ", "alice")
	is.True(errors.Is(err, ErrInvalidValue))
}

func TestReassignIsLastWriteWins(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateTriage, types.SeverityMajor)

	_, err := svc.Assign(ctx, alarmID, "alice", "boss")
	is.NoErr(err)

	alarm, err := svc.Assign(ctx, alarmID, "bob", "boss")
	is.NoErr(err)
	is.Equal(alarm.Assignee, "bob")

	history, _ := store.GetHistory(ctx, alarmID)
	is.Equal(len(history), 2)
}

func TestSetSeverityRejectsUnknownValue(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateTriage, types.SeverityMajor)

	_, err := svc.SetSeverity(ctx, alarmID, types.Severity("catastrophic"), "alice")
	is.True(errors.Is(err, ErrInvalidValue))
}

func TestWatcherAddIsIdempotent(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateTriage, types.SeverityMajor)

	_, err := svc.AddWatcher(ctx, alarmID, "alice", "alice")
	is.NoErr(err)

	alarm, err := svc.AddWatcher(ctx, alarmID, "alice", "alice")
	is.NoErr(err)
	is.Equal(len(alarm.Watchers), 1)

	// the duplicate add is a no-op and leaves no trace in history
	history, _ := store.GetHistory(ctx, alarmID)
	is.Equal(len(history), 1)
}

func TestRemovingAbsentWatcherSucceeds(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateTriage, types.SeverityMajor)

	_, err := svc.RemoveWatcher(ctx, alarmID, "nobody", "alice")
	is.NoErr(err)

	history, _ := store.GetHistory(ctx, alarmID)
	is.Equal(len(history), 0)
}

func TestAddNoteRejectsEmptyNote(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateTriage, types.SeverityMajor)

	_, err := svc.AddNote(ctx, alarmID, "", "alice")
	is.True(errors.Is(err, ErrInvalidValue))
}

func TestEscalationPolicyChangeKeepsDeadline(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateTriage, types.SeverityMajor)

	before, _ := store.GetAlarm(ctx, storage.WithAlarmID(alarmID))

	alarm, err := svc.UpdateEscalationPolicy(ctx, alarmID, "gold", "alice")
	is.NoErr(err)
	is.Equal(alarm.EscalationPolicy, "gold")
	is.True(alarm.SLADeadline.Equal(*before.SLADeadline))
}

func TestBulkTransitionPartialFailure(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	a := seedAlarm(t, store, types.StateTriage, types.SeverityMajor)
	b := seedAlarm(t, store, types.StateClosed, types.SeverityMajor)

	results := svc.BulkTransition(ctx, []string{a, b}, types.StateActive, "alice", "")
	is.Equal(len(results), 2)
	is.NoErr(results[0].Err)

	var invalid *InvalidTransitionError
	is.True(errors.As(results[1].Err, &invalid))

	// the valid transition went through despite the failed one
	alarm, _ := store.GetAlarm(ctx, storage.WithAlarmID(a))
	is.Equal(alarm.State, types.StateActive)
}

func TestUnknownAlarmReturnsNotFound(t *testing.T) {
	is, ctx, svc, _, _ := testSetup(t)

	_, err := svc.GetByID(ctx, "no-such-alarm", nil)
	is.True(errors.Is(err, ErrAlarmNotFound))
}

func TestDeadlineInvariantAcrossLifecycle(t *testing.T) {
	is, ctx, svc, _, _ := testSetup(t)

	alarmID, err := svc.Correlate(ctx, newEvent("lifecycle|site-9", types.SeverityCritical))
	is.NoErr(err)

	steps := []struct {
		to   types.State
		note string
	}{
		{types.StateTriage, ""},
		{types.StateActive, ""},
		{types.StateContained, ""},
		{types.StateResolved, "done"},
		{types.StateClosed, "verified"},
	}

	for _, step := range steps {
		alarm, err := svc.Transition(ctx, alarmID, step.to, "alice", step.note)
		is.NoErr(err)

		if alarm.State.IsTerminal() {
			is.True(alarm.SLADeadline == nil)
		} else {
			is.True(alarm.SLADeadline != nil)
		}
	}
}

func TestHistoryReplayYieldsCurrentState(t *testing.T) {
	is, ctx, svc, store, _ := testSetup(t)

	alarmID, err := svc.Correlate(ctx, newEvent("replay|site-3", types.SeverityMajor))
	is.NoErr(err)

	_, err = svc.Acknowledge(ctx, alarmID, "alice")
	is.NoErr(err)
	_, err = svc.Transition(ctx, alarmID, types.StateActive, "alice", "")
	is.NoErr(err)
	_, err = svc.Transition(ctx, alarmID, types.StateResolved, "alice", "contained and fixed")
	is.NoErr(err)

	history, err := store.GetHistory(ctx, alarmID)
	is.NoErr(err)

	replayed := types.State("")
	for _, entry := range history {
		if entry.Action == types.ActionCreated || entry.Action == types.ActionTransition {
			replayed = entry.ToState
		}
	}

	alarm, _ := store.GetAlarm(ctx, storage.WithAlarmID(alarmID))
	is.Equal(replayed, alarm.State)
}

func TestPublishesTransitionEvents(t *testing.T) {
	is, ctx, svc, store, published := testSetup(t)

	alarmID := seedAlarm(t, store, types.StateTriage, types.SeverityMajor)

	_, err := svc.Transition(ctx, alarmID, types.StateActive, "alice", "")
	is.NoErr(err)

	topics := topicNames(published)
	is.True(len(topics) > 0)
	is.Equal(topics[len(topics)-1], "alarms.alarmTransitioned")
}

func topicNames(published *publishedMessages) []string {
	published.mu.Lock()
	defer published.mu.Unlock()

	names := make([]string, 0, len(published.messages))
	for _, m := range published.messages {
		names = append(names, m.TopicName())
	}
	return names
}

type publishedMessages struct {
	mu       sync.Mutex
	messages []messaging.TopicMessage
}

func testSetup(t *testing.T) (*is.I, context.Context, AlarmService, *testStore, *publishedMessages) {
	is := is.New(t)
	ctx := context.Background()

	published := &publishedMessages{}

	msgCtx := &messaging.MsgContextMock{
		RegisterTopicMessageHandlerFunc: func(routingKey string, handler messaging.TopicMessageHandler) error {
			return nil
		},
		PublishOnTopicFunc: func(ctx context.Context, message messaging.TopicMessage) error {
			published.mu.Lock()
			defer published.mu.Unlock()
			published.messages = append(published.messages, message)
			return nil
		},
	}

	store := newTestStore()
	svc := New(store, msgCtx, DefaultConfig())

	t.Cleanup(svc.Stop)

	return is, ctx, svc, store, published
}

func newEvent(groupKey string, severity types.Severity) types.DetectionEvent {
	return types.DetectionEvent{
		ID:         uuid.NewString(),
		GroupKey:   groupKey,
		Severity:   severity,
		Confidence: 0.5,
		Timestamp:  time.Now().UTC(),
		Source:     "test",
	}
}

func seedAlarm(t *testing.T, store *testStore, state types.State, severity types.Severity) string {
	t.Helper()

	now := time.Now().UTC()

	alarm := types.Alarm{
		ID:        uuid.NewString(),
		GroupKey:  "seed|" + uuid.NewString(),
		Severity:  severity,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if !state.IsTerminal() {
		deadline := now.Add(time.Hour)
		alarm.SLADeadline = &deadline
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	store.alarms[alarm.ID] = alarm

	return alarm.ID
}

// testStore is an in memory AlarmRepository for tests.
type testStore struct {
	mu          sync.Mutex
	alarms      map[string]types.Alarm
	history     map[string][]types.HistoryEntry
	events      map[string][]types.DetectionEvent
	addEventErr error
}

// failNextAddEvent makes the next AddEvent call fail with err.
func (s *testStore) failNextAddEvent(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addEventErr = err
}

func newTestStore() *testStore {
	return &testStore{
		alarms:  map[string]types.Alarm{},
		history: map[string][]types.HistoryEntry{},
		events:  map[string][]types.DetectionEvent{},
	}
}

func (s *testStore) AddAlarm(ctx context.Context, alarm types.Alarm, entry types.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alarms[alarm.ID] = alarm
	s.history[alarm.ID] = append(s.history[alarm.ID], entry)

	return nil
}

func (s *testStore) UpdateAlarm(ctx context.Context, alarm types.Alarm, entry types.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alarms[alarm.ID]; !ok {
		return storage.ErrNoRows
	}

	s.alarms[alarm.ID] = alarm
	s.history[alarm.ID] = append(s.history[alarm.ID], entry)

	return nil
}

func (s *testStore) AppendHistory(ctx context.Context, alarmID string, entry types.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alarms[alarmID]; !ok {
		return storage.ErrNoRows
	}

	s.history[alarmID] = append(s.history[alarmID], entry)

	return nil
}

func (s *testStore) GetAlarm(ctx context.Context, conditions ...storage.ConditionFunc) (types.Alarm, error) {
	matching := s.query(conditions)
	if len(matching) == 0 {
		return types.Alarm{}, storage.ErrNoRows
	}

	return matching[0], nil
}

func (s *testStore) QueryAlarms(ctx context.Context, conditions ...storage.ConditionFunc) (types.Collection[types.Alarm], error) {
	matching := s.query(conditions)

	return types.Collection[types.Alarm]{
		Data:       matching,
		Count:      uint64(len(matching)),
		TotalCount: uint64(len(matching)),
	}, nil
}

func (s *testStore) GetHistory(ctx context.Context, alarmID string) ([]types.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]types.HistoryEntry{}, s.history[alarmID]...), nil
}

func (s *testStore) AddEvent(ctx context.Context, alarmID string, ev types.DetectionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.addEventErr != nil {
		err := s.addEventErr
		s.addEventErr = nil
		return err
	}

	s.events[alarmID] = append(s.events[alarmID], ev)

	return nil
}

func (s *testStore) CountEvents(ctx context.Context, alarmID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.events[alarmID]), nil
}

func (s *testStore) query(conditions []storage.ConditionFunc) []types.Alarm {
	condition := &storage.Condition{}
	for _, f := range conditions {
		f(condition)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matching := make([]types.Alarm, 0)

	for _, a := range s.alarms {
		if matches(condition, a) {
			matching = append(matching, a)
		}
	}

	sort.Slice(matching, func(i, j int) bool {
		return matching[i].CreatedAt.After(matching[j].CreatedAt)
	})

	return matching
}

func matches(c *storage.Condition, a types.Alarm) bool {
	if c.AlarmID != "" && a.ID != c.AlarmID {
		return false
	}
	if c.GroupKey != "" && a.GroupKey != c.GroupKey {
		return false
	}
	if c.MatchScope && (a.Tenant != c.Tenant || a.Site != c.Site) {
		return false
	}
	if !c.MatchScope {
		if c.Tenant != "" && a.Tenant != c.Tenant {
			return false
		}
		if c.Site != "" && a.Site != c.Site {
			return false
		}
	}
	if len(c.Tenants) > 0 {
		found := false
		for _, tenant := range c.Tenants {
			if a.Tenant == tenant {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(c.States) > 0 {
		found := false
		for _, state := range c.States {
			if a.State == state {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(c.Severities) > 0 {
		found := false
		for _, severity := range c.Severities {
			if a.Severity == severity {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.OnlyOpen && a.State.IsTerminal() {
		return false
	}
	if c.Assignee != "" && a.Assignee != c.Assignee {
		return false
	}
	return true
}
