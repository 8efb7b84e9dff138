package storage

import (
	"context"
	"testing"
	"time"

	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"github.com/google/uuid"
	"github.com/matryer/is"
)

func testSetup(t *testing.T) (context.Context, Store) {
	ctx := context.Background()

	config := Config{
		host:     "localhost",
		user:     "postgres",
		password: "password",
		port:     "5432",
		dbname:   "postgres",
		sslmode:  "disable",
	}

	s, err := New(ctx, config)
	if err != nil {
		t.SkipNow()
	}

	err = s.Initialize(ctx)
	if err != nil {
		t.SkipNow()
	}

	return ctx, s
}

func newAlarm() types.Alarm {
	now := time.Now().UTC()
	deadline := now.Add(2 * time.Minute)

	return types.Alarm{
		ID:          uuid.NewString(),
		GroupKey:    "door|dock-" + uuid.NewString(),
		Tenant:      "default",
		Site:        "hq",
		Severity:    types.SeverityCritical,
		State:       types.StateNew,
		Watchers:    []string{},
		Confidence:  0.5,
		SLADeadline: &deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func createdEntry(a types.Alarm) types.HistoryEntry {
	return types.HistoryEntry{
		Timestamp: a.CreatedAt,
		Action:    types.ActionCreated,
		ToState:   a.State,
		User:      "system",
	}
}

func TestAddAndGetAlarm(t *testing.T) {
	is := is.New(t)
	ctx, s := testSetup(t)

	alarm := newAlarm()
	is.NoErr(s.AddAlarm(ctx, alarm, createdEntry(alarm)))

	stored, err := s.GetAlarm(ctx, WithAlarmID(alarm.ID))
	is.NoErr(err)
	is.Equal(stored.GroupKey, alarm.GroupKey)
	is.Equal(stored.State, types.StateNew)
	is.True(stored.SLADeadline != nil)
}

func TestGetAlarmByScope(t *testing.T) {
	is := is.New(t)
	ctx, s := testSetup(t)

	alarm := newAlarm()
	is.NoErr(s.AddAlarm(ctx, alarm, createdEntry(alarm)))

	stored, err := s.GetAlarm(ctx, WithGroupKey(alarm.GroupKey), WithScope("default", "hq"), WithOpenOnly())
	is.NoErr(err)
	is.Equal(stored.ID, alarm.ID)

	_, err = s.GetAlarm(ctx, WithGroupKey(alarm.GroupKey), WithScope("default", ""), WithOpenOnly())
	is.Equal(err, ErrNoRows)
}

func TestUpdateAlarmAppendsHistory(t *testing.T) {
	is := is.New(t)
	ctx, s := testSetup(t)

	alarm := newAlarm()
	is.NoErr(s.AddAlarm(ctx, alarm, createdEntry(alarm)))

	alarm.State = types.StateTriage
	alarm.SLADeadline = nil

	err := s.UpdateAlarm(ctx, alarm, types.HistoryEntry{
		Timestamp: time.Now().UTC(),
		Action:    types.ActionTransition,
		FromState: types.StateNew,
		ToState:   types.StateTriage,
		User:      "alice",
	})
	is.NoErr(err)

	stored, err := s.GetAlarm(ctx, WithAlarmID(alarm.ID))
	is.NoErr(err)
	is.Equal(stored.State, types.StateTriage)
	is.True(stored.SLADeadline == nil)

	history, err := s.GetHistory(ctx, alarm.ID)
	is.NoErr(err)
	is.Equal(len(history), 2)
	is.Equal(history[0].Action, types.ActionCreated)
	is.Equal(history[1].ToState, types.StateTriage)
}

func TestUpdateUnknownAlarmReturnsNoRows(t *testing.T) {
	is := is.New(t)
	ctx, s := testSetup(t)

	alarm := newAlarm()

	err := s.UpdateAlarm(ctx, alarm, createdEntry(alarm))
	is.Equal(err, ErrNoRows)
}

func TestQueryAlarmsByState(t *testing.T) {
	is := is.New(t)
	ctx, s := testSetup(t)

	alarm := newAlarm()
	is.NoErr(s.AddAlarm(ctx, alarm, createdEntry(alarm)))

	collection, err := s.QueryAlarms(ctx, WithStates([]types.State{types.StateNew}), WithTenant("default"))
	is.NoErr(err)
	is.True(collection.TotalCount > 0)
	is.True(len(collection.Data) > 0)
}

func TestAddEventIsIdempotent(t *testing.T) {
	is := is.New(t)
	ctx, s := testSetup(t)

	alarm := newAlarm()
	is.NoErr(s.AddAlarm(ctx, alarm, createdEntry(alarm)))

	ev := types.DetectionEvent{
		ID:        uuid.NewString(),
		GroupKey:  alarm.GroupKey,
		Tenant:    alarm.Tenant,
		Site:      alarm.Site,
		Severity:  types.SeverityCritical,
		Timestamp: time.Now().UTC(),
		Source:    "camera-7",
	}

	is.NoErr(s.AddEvent(ctx, alarm.ID, ev))
	is.NoErr(s.AddEvent(ctx, alarm.ID, ev))

	count, err := s.CountEvents(ctx, alarm.ID)
	is.NoErr(err)
	is.Equal(count, 1)
}
