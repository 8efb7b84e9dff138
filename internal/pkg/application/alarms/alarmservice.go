package alarms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/WispAyr/overwatch-sub002/internal/pkg/infrastructure/metrics"
	"github.com/WispAyr/overwatch-sub002/internal/pkg/infrastructure/storage"
	"github.com/WispAyr/overwatch-sub002/pkg/types"

	"github.com/cenkalti/backoff/v4"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/google/uuid"
)

const (
	// SystemUser attributes mutations made by the engine itself, such as
	// snooze wake ups.
	SystemUser string = "system"

	lockTimeout = 5 * time.Second

	// escalationThreshold is the average event confidence above which a
	// correlated alarm is bumped one severity level.
	escalationThreshold float64 = 0.85
)

type AlarmService interface {
	Query(ctx context.Context, tenants []string, conditions ...storage.ConditionFunc) (types.Collection[types.Alarm], error)
	GetByID(ctx context.Context, alarmID string, tenants []string) (types.Alarm, error)
	GetHistory(ctx context.Context, alarmID string, tenants []string) ([]types.HistoryEntry, error)
	OpenAlarms(ctx context.Context) ([]types.Alarm, error)

	Correlate(ctx context.Context, ev types.DetectionEvent) (string, error)

	Transition(ctx context.Context, alarmID string, toState types.State, user, note string) (types.Alarm, error)
	Acknowledge(ctx context.Context, alarmID, user string) (types.Alarm, error)
	Advance(ctx context.Context, alarmID, user, note string) (types.Alarm, error)
	Snooze(ctx context.Context, alarmID string, duration time.Duration, user string) (types.Alarm, error)

	Assign(ctx context.Context, alarmID, assignee, user string) (types.Alarm, error)
	SetSeverity(ctx context.Context, alarmID string, severity types.Severity, user string) (types.Alarm, error)
	AddWatcher(ctx context.Context, alarmID, watcher, user string) (types.Alarm, error)
	RemoveWatcher(ctx context.Context, alarmID, watcher, user string) (types.Alarm, error)
	AddNote(ctx context.Context, alarmID, note, user string) (types.Alarm, error)
	UpdateRunbook(ctx context.Context, alarmID, runbookID, user string) (types.Alarm, error)
	UpdateEscalationPolicy(ctx context.Context, alarmID, policy, user string) (types.Alarm, error)

	BulkTransition(ctx context.Context, alarmIDs []string, toState types.State, user, note string) []BulkResult
	BulkAssign(ctx context.Context, alarmIDs []string, assignee, user string) []BulkResult
	BulkSetSeverity(ctx context.Context, alarmIDs []string, severity types.Severity, user string) []BulkResult

	Config() *Config
	Stop()
}

// BulkResult is the per alarm outcome of a bulk operation.
type BulkResult struct {
	AlarmID string
	Err     error
}

type AlarmRepository interface {
	AddAlarm(ctx context.Context, alarm types.Alarm, entry types.HistoryEntry) error
	UpdateAlarm(ctx context.Context, alarm types.Alarm, entry types.HistoryEntry) error
	AppendHistory(ctx context.Context, alarmID string, entry types.HistoryEntry) error
	GetAlarm(ctx context.Context, conditions ...storage.ConditionFunc) (types.Alarm, error)
	QueryAlarms(ctx context.Context, conditions ...storage.ConditionFunc) (types.Collection[types.Alarm], error)
	GetHistory(ctx context.Context, alarmID string) ([]types.HistoryEntry, error)
	AddEvent(ctx context.Context, alarmID string, ev types.DetectionEvent) error
	CountEvents(ctx context.Context, alarmID string) (int, error)
}

type alarmSvc struct {
	storage   AlarmRepository
	messenger messaging.MsgContext
	config    *Config

	locks *keyedMutex

	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

func New(s AlarmRepository, m messaging.MsgContext, cfg *Config) AlarmService {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	svc := &alarmSvc{
		storage:   s,
		messenger: m,
		config:    cfg,
		locks:     newKeyedMutex(),
		timers:    map[string]*time.Timer{},
	}

	svc.messenger.RegisterTopicMessageHandler("detection.event", NewDetectionEventHandler(m, svc))

	return svc
}

func (svc *alarmSvc) Config() *Config {
	return svc.config
}

// Stop cancels all pending snooze wake ups.
func (svc *alarmSvc) Stop() {
	svc.timersMu.Lock()
	defer svc.timersMu.Unlock()

	for id, t := range svc.timers {
		t.Stop()
		delete(svc.timers, id)
	}
}

func (svc *alarmSvc) Query(ctx context.Context, tenants []string, conditions ...storage.ConditionFunc) (types.Collection[types.Alarm], error) {
	if len(tenants) > 0 {
		conditions = append(conditions, storage.WithTenants(tenants))
	}

	return svc.storage.QueryAlarms(ctx, conditions...)
}

func (svc *alarmSvc) GetByID(ctx context.Context, alarmID string, tenants []string) (types.Alarm, error) {
	conditions := []storage.ConditionFunc{storage.WithAlarmID(alarmID)}
	if len(tenants) > 0 {
		conditions = append(conditions, storage.WithTenants(tenants))
	}

	alarm, err := svc.storage.GetAlarm(ctx, conditions...)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return types.Alarm{}, ErrAlarmNotFound
		}
		return types.Alarm{}, err
	}

	return alarm, nil
}

func (svc *alarmSvc) GetHistory(ctx context.Context, alarmID string, tenants []string) ([]types.HistoryEntry, error) {
	_, err := svc.GetByID(ctx, alarmID, tenants)
	if err != nil {
		return nil, err
	}

	return svc.storage.GetHistory(ctx, alarmID)
}

// OpenAlarms returns every alarm that still carries an SLA clock.
func (svc *alarmSvc) OpenAlarms(ctx context.Context) ([]types.Alarm, error) {
	open := make([]types.Alarm, 0)
	offset := 0

	for {
		batch, err := svc.storage.QueryAlarms(ctx, storage.WithOpenOnly(), storage.WithOffset(offset), storage.WithLimit(500))
		if err != nil {
			return nil, err
		}

		open = append(open, batch.Data...)

		offset += len(batch.Data)
		if uint64(offset) >= batch.TotalCount || len(batch.Data) == 0 {
			break
		}
	}

	return open, nil
}

func (svc *alarmSvc) Correlate(ctx context.Context, ev types.DetectionEvent) (string, error) {
	if ev.GroupKey == "" {
		return "", fmt.Errorf("%w: event has no group key", ErrInvalidValue)
	}
	if !ev.Severity.IsValid() {
		return "", fmt.Errorf("%w: severity %q", ErrInvalidValue, ev.Severity)
	}

	scopeKey := fmt.Sprintf("correlate|%s|%s|%s", ev.Tenant, ev.Site, ev.GroupKey)

	release, err := svc.locks.Lock(ctx, scopeKey, lockTimeout)
	if err != nil {
		return "", err
	}
	defer release()

	alarm, err := svc.storage.GetAlarm(ctx,
		storage.WithGroupKey(ev.GroupKey),
		storage.WithScope(ev.Tenant, ev.Site),
		storage.WithOpenOnly(),
	)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return svc.createFromEvent(ctx, ev)
		}
		return "", err
	}

	return alarm.ID, svc.attachEvent(ctx, alarm.ID, ev)
}

func (svc *alarmSvc) createFromEvent(ctx context.Context, ev types.DetectionEvent) (string, error) {
	now := time.Now().UTC()

	alarm := types.Alarm{
		ID:         uuid.NewString(),
		GroupKey:   ev.GroupKey,
		Tenant:     ev.Tenant,
		Site:       ev.Site,
		Severity:   ev.Severity,
		State:      types.StateNew,
		Confidence: ev.Confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if budget, ok := svc.config.Budget(alarm.EscalationPolicy, alarm.Severity, alarm.State); ok {
		deadline := now.Add(budget)
		alarm.SLADeadline = &deadline
	}

	entry := types.HistoryEntry{
		Timestamp: now,
		Action:    types.ActionCreated,
		ToState:   types.StateNew,
		User:      SystemUser,
		Note:      fmt.Sprintf("created from event %s", ev.ID),
	}

	err := svc.storage.AddAlarm(ctx, alarm, entry)
	if err != nil {
		return "", err
	}

	metrics.AlarmsCreated.Inc()

	// Surface a failed event write so the caller can retry the event. The
	// alarm already exists, so the retry will take the attach path instead.
	err = svc.storage.AddEvent(ctx, alarm.ID, ev)
	if err != nil {
		return "", fmt.Errorf("failed to record correlated event: %w", err)
	}

	return alarm.ID, svc.messenger.PublishOnTopic(ctx, &AlarmCreated{
		Alarm:     alarm,
		Tenant:    alarm.Tenant,
		Timestamp: now,
	})
}

func (svc *alarmSvc) attachEvent(ctx context.Context, alarmID string, ev types.DetectionEvent) error {
	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		return err
	}
	defer release()

	err = svc.storage.AddEvent(ctx, alarm.ID, ev)
	if err != nil {
		return err
	}

	count, err := svc.storage.CountEvents(ctx, alarm.ID)
	if err != nil || count < 1 {
		count = 1
	}

	// Running average over all correlated events, then one severity bump
	// when confidence passes the escalation threshold.
	alarm.Confidence = (alarm.Confidence*float64(count-1) + ev.Confidence) / float64(count)

	if alarm.Confidence > escalationThreshold {
		if escalated := alarm.Severity.Escalate(); escalated != alarm.Severity {
			alarm.Severity = escalated
		}
	}

	now := time.Now().UTC()
	alarm.UpdatedAt = now

	entry := types.HistoryEntry{
		Timestamp: now,
		Action:    types.ActionEventCorrelated,
		User:      SystemUser,
		Note:      fmt.Sprintf("event %s correlated", ev.ID),
	}

	err = svc.storage.UpdateAlarm(ctx, alarm, entry)
	if err != nil {
		return err
	}

	return svc.messenger.PublishOnTopic(ctx, &AlarmUpdated{
		Alarm:     alarm,
		Tenant:    alarm.Tenant,
		Timestamp: now,
	})
}

func (svc *alarmSvc) Transition(ctx context.Context, alarmID string, toState types.State, user, note string) (types.Alarm, error) {
	if !toState.IsValid() {
		return types.Alarm{}, fmt.Errorf("%w: state %q", ErrInvalidValue, toState)
	}
	if toState == types.StateSnoozed {
		return types.Alarm{}, fmt.Errorf("%w: snoozing requires a wake up duration", ErrInvalidValue)
	}

	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		return types.Alarm{}, err
	}
	defer release()

	return svc.applyTransition(ctx, alarm, toState, user, note)
}

// Acknowledge moves a fresh alarm into triage.
func (svc *alarmSvc) Acknowledge(ctx context.Context, alarmID, user string) (types.Alarm, error) {
	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		return types.Alarm{}, err
	}
	defer release()

	return svc.applyTransition(ctx, alarm, types.StateTriage, user, "acknowledged")
}

// Advance escalates the alarm one lifecycle step.
func (svc *alarmSvc) Advance(ctx context.Context, alarmID, user, note string) (types.Alarm, error) {
	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		return types.Alarm{}, err
	}
	defer release()

	return svc.applyTransition(ctx, alarm, AdvanceTarget(alarm.State), user, note)
}

func (svc *alarmSvc) Snooze(ctx context.Context, alarmID string, duration time.Duration, user string) (types.Alarm, error) {
	if duration <= 0 {
		return types.Alarm{}, fmt.Errorf("%w: snooze duration must be positive", ErrInvalidValue)
	}

	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		return types.Alarm{}, err
	}
	defer release()

	if alarm.State != types.StateTriage {
		return types.Alarm{}, &InvalidTransitionError{
			AlarmID: alarm.ID,
			From:    alarm.State,
			To:      types.StateSnoozed,
			Allowed: NextStates(alarm.State),
		}
	}

	now := time.Now().UTC()
	wake := now.Add(duration)

	fromState := alarm.State
	alarm.State = types.StateSnoozed
	alarm.SLADeadline = &wake
	alarm.UpdatedAt = now

	entry := types.HistoryEntry{
		Timestamp: now,
		Action:    types.ActionTransition,
		FromState: fromState,
		ToState:   types.StateSnoozed,
		User:      user,
		Note:      fmt.Sprintf("snoozed until %s", wake.Format(time.RFC3339)),
	}

	err = svc.storage.UpdateAlarm(ctx, alarm, entry)
	if err != nil {
		return types.Alarm{}, err
	}

	svc.scheduleWake(ctx, alarm.ID, duration)

	metrics.AlarmTransitions.WithLabelValues(string(fromState), string(types.StateSnoozed)).Inc()

	return alarm, svc.messenger.PublishOnTopic(ctx, &AlarmTransitioned{
		Alarm:     alarm,
		FromState: fromState,
		ToState:   types.StateSnoozed,
		Tenant:    alarm.Tenant,
		Timestamp: now,
	})
}

// scheduleWake arms a cancellable timer that moves the alarm back to triage.
// The wake up re-validates alarm state, so a stale timer never reverts an
// alarm that has already moved on.
func (svc *alarmSvc) scheduleWake(ctx context.Context, alarmID string, duration time.Duration) {
	log := logging.GetFromContext(ctx)

	svc.timersMu.Lock()
	defer svc.timersMu.Unlock()

	if t, ok := svc.timers[alarmID]; ok {
		t.Stop()
	}

	svc.timers[alarmID] = time.AfterFunc(duration, func() {
		svc.timersMu.Lock()
		delete(svc.timers, alarmID)
		svc.timersMu.Unlock()

		wakeCtx := logging.NewContextWithLogger(context.Background(), log)

		err := backoff.Retry(func() error {
			return svc.wake(wakeCtx, alarmID)
		}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 8))
		if err != nil {
			log.Error("failed to wake snoozed alarm", "alarm_id", alarmID, "err", err.Error())
		}
	})
}

func (svc *alarmSvc) wake(ctx context.Context, alarmID string) error {
	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		if errors.Is(err, ErrAlarmNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}
	defer release()

	if alarm.State != types.StateSnoozed {
		return nil
	}

	_, err = svc.applyTransition(ctx, alarm, types.StateTriage, SystemUser, "snooze expired")
	return err
}

func (svc *alarmSvc) cancelWake(alarmID string) {
	svc.timersMu.Lock()
	defer svc.timersMu.Unlock()

	if t, ok := svc.timers[alarmID]; ok {
		t.Stop()
		delete(svc.timers, alarmID)
	}
}

// applyTransition performs a validated state change on an alarm the caller
// already holds the lock for.
func (svc *alarmSvc) applyTransition(ctx context.Context, alarm types.Alarm, toState types.State, user, note string) (types.Alarm, error) {
	if !CanTransition(alarm.State, toState) {
		allowed := NextStates(alarm.State)
		if !alarm.State.IsTerminal() {
			allowed = append(allowed, types.StateSuppressed)
		}
		return types.Alarm{}, &InvalidTransitionError{
			AlarmID: alarm.ID,
			From:    alarm.State,
			To:      toState,
			Allowed: allowed,
		}
	}

	if toState == types.StateActive && strings.TrimSpace(user) == "" {
		return types.Alarm{}, fmt.Errorf("%w: activating an alarm requires a user", ErrInvalidValue)
	}
	if (toState == types.StateResolved || toState == types.StateClosed) && strings.TrimSpace(note) == "" {
		return types.Alarm{}, fmt.Errorf("%w: a note is required when resolving or closing", ErrInvalidValue)
	}

	if alarm.State == types.StateSnoozed {
		svc.cancelWake(alarm.ID)
	}

	now := time.Now().UTC()

	fromState := alarm.State
	alarm.State = toState
	alarm.UpdatedAt = now
	alarm.SLADeadline = nil

	if budget, ok := svc.config.Budget(alarm.EscalationPolicy, alarm.Severity, toState); ok {
		deadline := now.Add(budget)
		alarm.SLADeadline = &deadline
	}

	entry := types.HistoryEntry{
		Timestamp: now,
		Action:    types.ActionTransition,
		FromState: fromState,
		ToState:   toState,
		User:      user,
		Note:      note,
	}

	err := svc.storage.UpdateAlarm(ctx, alarm, entry)
	if err != nil {
		return types.Alarm{}, err
	}

	metrics.AlarmTransitions.WithLabelValues(string(fromState), string(toState)).Inc()

	return alarm, svc.messenger.PublishOnTopic(ctx, &AlarmTransitioned{
		Alarm:     alarm,
		FromState: fromState,
		ToState:   toState,
		Tenant:    alarm.Tenant,
		Timestamp: now,
	})
}

func (svc *alarmSvc) Assign(ctx context.Context, alarmID, assignee, user string) (types.Alarm, error) {
	if strings.TrimSpace(assignee) == "" {
		return types.Alarm{}, fmt.Errorf("%w: assignee must not be blank", ErrInvalidValue)
	}

	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		return types.Alarm{}, err
	}
	defer release()

	now := time.Now().UTC()
	alarm.Assignee = assignee
	alarm.UpdatedAt = now

	entry := types.HistoryEntry{
		Timestamp: now,
		Action:    types.ActionAssigned,
		User:      user,
		Note:      fmt.Sprintf("assigned to %s", assignee),
	}

	err = svc.storage.UpdateAlarm(ctx, alarm, entry)
	if err != nil {
		return types.Alarm{}, err
	}

	return alarm, svc.messenger.PublishOnTopic(ctx, &AlarmAssigned{
		Alarm:     alarm,
		Assignee:  assignee,
		Tenant:    alarm.Tenant,
		Timestamp: now,
	})
}

func (svc *alarmSvc) SetSeverity(ctx context.Context, alarmID string, severity types.Severity, user string) (types.Alarm, error) {
	if !severity.IsValid() {
		return types.Alarm{}, fmt.Errorf("%w: severity %q", ErrInvalidValue, severity)
	}

	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		return types.Alarm{}, err
	}
	defer release()

	now := time.Now().UTC()

	previous := alarm.Severity
	alarm.Severity = severity
	alarm.UpdatedAt = now

	entry := types.HistoryEntry{
		Timestamp: now,
		Action:    types.ActionSeverityChanged,
		User:      user,
		Note:      fmt.Sprintf("severity changed from %s to %s", previous, severity),
	}

	err = svc.storage.UpdateAlarm(ctx, alarm, entry)
	if err != nil {
		return types.Alarm{}, err
	}

	return alarm, svc.publishUpdated(ctx, alarm, now)
}

func (svc *alarmSvc) AddWatcher(ctx context.Context, alarmID, watcher, user string) (types.Alarm, error) {
	if strings.TrimSpace(watcher) == "" {
		return types.Alarm{}, fmt.Errorf("%w: watcher must not be blank", ErrInvalidValue)
	}

	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		return types.Alarm{}, err
	}
	defer release()

	if alarm.HasWatcher(watcher) {
		return alarm, nil
	}

	now := time.Now().UTC()
	alarm.Watchers = append(alarm.Watchers, watcher)
	alarm.UpdatedAt = now

	entry := types.HistoryEntry{
		Timestamp: now,
		Action:    types.ActionWatcherAdded,
		User:      user,
		Note:      watcher,
	}

	err = svc.storage.UpdateAlarm(ctx, alarm, entry)
	if err != nil {
		return types.Alarm{}, err
	}

	return alarm, svc.publishUpdated(ctx, alarm, now)
}

func (svc *alarmSvc) RemoveWatcher(ctx context.Context, alarmID, watcher, user string) (types.Alarm, error) {
	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		return types.Alarm{}, err
	}
	defer release()

	if !alarm.HasWatcher(watcher) {
		return alarm, nil
	}

	watchers := make([]string, 0, len(alarm.Watchers))
	for _, w := range alarm.Watchers {
		if w != watcher {
			watchers = append(watchers, w)
		}
	}

	now := time.Now().UTC()
	alarm.Watchers = watchers
	alarm.UpdatedAt = now

	entry := types.HistoryEntry{
		Timestamp: now,
		Action:    types.ActionWatcherRemoved,
		User:      user,
		Note:      watcher,
	}

	err = svc.storage.UpdateAlarm(ctx, alarm, entry)
	if err != nil {
		return types.Alarm{}, err
	}

	return alarm, svc.publishUpdated(ctx, alarm, now)
}

func (svc *alarmSvc) AddNote(ctx context.Context, alarmID, note, user string) (types.Alarm, error) {
	if strings.TrimSpace(note) == "" {
		return types.Alarm{}, fmt.Errorf("%w: note must not be empty", ErrInvalidValue)
	}

	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		return types.Alarm{}, err
	}
	defer release()

	now := time.Now().UTC()

	entry := types.HistoryEntry{
		Timestamp: now,
		Action:    types.ActionNoteAdded,
		User:      user,
		Note:      note,
	}

	err = svc.storage.AppendHistory(ctx, alarm.ID, entry)
	if err != nil {
		return types.Alarm{}, err
	}

	alarm.UpdatedAt = now

	return alarm, svc.publishUpdated(ctx, alarm, now)
}

func (svc *alarmSvc) UpdateRunbook(ctx context.Context, alarmID, runbookID, user string) (types.Alarm, error) {
	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		return types.Alarm{}, err
	}
	defer release()

	now := time.Now().UTC()
	alarm.RunbookID = runbookID
	alarm.UpdatedAt = now

	entry := types.HistoryEntry{
		Timestamp: now,
		Action:    types.ActionRunbookUpdated,
		User:      user,
		Note:      runbookID,
	}

	err = svc.storage.UpdateAlarm(ctx, alarm, entry)
	if err != nil {
		return types.Alarm{}, err
	}

	return alarm, svc.publishUpdated(ctx, alarm, now)
}

// UpdateEscalationPolicy changes the policy used for future transitions.
// The deadline that is already set stays untouched.
func (svc *alarmSvc) UpdateEscalationPolicy(ctx context.Context, alarmID, policy, user string) (types.Alarm, error) {
	alarm, release, err := svc.fetchLocked(ctx, alarmID, nil)
	if err != nil {
		return types.Alarm{}, err
	}
	defer release()

	now := time.Now().UTC()
	alarm.EscalationPolicy = policy
	alarm.UpdatedAt = now

	entry := types.HistoryEntry{
		Timestamp: now,
		Action:    types.ActionEscalationUpdated,
		User:      user,
		Note:      policy,
	}

	err = svc.storage.UpdateAlarm(ctx, alarm, entry)
	if err != nil {
		return types.Alarm{}, err
	}

	return alarm, svc.publishUpdated(ctx, alarm, now)
}

func (svc *alarmSvc) BulkTransition(ctx context.Context, alarmIDs []string, toState types.State, user, note string) []BulkResult {
	results := make([]BulkResult, 0, len(alarmIDs))

	for _, id := range alarmIDs {
		_, err := svc.Transition(ctx, id, toState, user, note)
		results = append(results, BulkResult{AlarmID: id, Err: err})
	}

	return results
}

func (svc *alarmSvc) BulkAssign(ctx context.Context, alarmIDs []string, assignee, user string) []BulkResult {
	results := make([]BulkResult, 0, len(alarmIDs))

	for _, id := range alarmIDs {
		_, err := svc.Assign(ctx, id, assignee, user)
		results = append(results, BulkResult{AlarmID: id, Err: err})
	}

	return results
}

func (svc *alarmSvc) BulkSetSeverity(ctx context.Context, alarmIDs []string, severity types.Severity, user string) []BulkResult {
	results := make([]BulkResult, 0, len(alarmIDs))

	for _, id := range alarmIDs {
		_, err := svc.SetSeverity(ctx, id, severity, user)
		results = append(results, BulkResult{AlarmID: id, Err: err})
	}

	return results
}

// fetchLocked acquires the alarm's lock and reads its current row. The
// returned release func must be called when the mutation is done.
func (svc *alarmSvc) fetchLocked(ctx context.Context, alarmID string, tenants []string) (types.Alarm, func(), error) {
	release, err := svc.locks.Lock(ctx, alarmID, lockTimeout)
	if err != nil {
		return types.Alarm{}, nil, err
	}

	conditions := []storage.ConditionFunc{storage.WithAlarmID(alarmID)}
	if len(tenants) > 0 {
		conditions = append(conditions, storage.WithTenants(tenants))
	}

	alarm, err := svc.storage.GetAlarm(ctx, conditions...)
	if err != nil {
		release()
		if errors.Is(err, storage.ErrNoRows) {
			return types.Alarm{}, nil, ErrAlarmNotFound
		}
		return types.Alarm{}, nil, err
	}

	return alarm, release, nil
}

func (svc *alarmSvc) publishUpdated(ctx context.Context, alarm types.Alarm, ts time.Time) error {
	return svc.messenger.PublishOnTopic(ctx, &AlarmUpdated{
		Alarm:     alarm,
		Tenant:    alarm.Tenant,
		Timestamp: ts,
	})
}
