package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"github.com/jackc/pgx/v5"
)

func (s *Storage) AddAlarm(ctx context.Context, alarm types.Alarm, entry types.HistoryEntry) error {
	if alarm.ID == "" {
		return ErrNoID
	}

	watchers, err := json.Marshal(watchersOrEmpty(alarm.Watchers))
	if err != nil {
		return err
	}

	args := pgx.NamedArgs{
		"alarm_id":          alarm.ID,
		"group_key":         alarm.GroupKey,
		"tenant":            alarm.Tenant,
		"site":              alarm.Site,
		"severity":          string(alarm.Severity),
		"state":             string(alarm.State),
		"assignee":          alarm.Assignee,
		"watchers":          watchers,
		"confidence":        alarm.Confidence,
		"runbook_id":        alarm.RunbookID,
		"escalation_policy": alarm.EscalationPolicy,
		"sla_deadline":      alarm.SLADeadline,
		"created_on":        alarm.CreatedAt.UTC(),
		"modified_on":       alarm.UpdatedAt.UTC(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO alarms (alarm_id, group_key, tenant, site, severity, state, assignee,
							watchers, confidence, runbook_id, escalation_policy, sla_deadline,
							created_on, modified_on)
		VALUES (@alarm_id, @group_key, @tenant, @site, @severity, @state, @assignee,
				@watchers, @confidence, @runbook_id, @escalation_policy, @sla_deadline,
				@created_on, @modified_on)
	`, args)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrStoreFailed, err.Error())
	}

	err = insertHistory(ctx, tx, alarm.ID, entry)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateAlarm writes the alarm's mutable fields and appends the history entry
// documenting the mutation in a single transaction.
func (s *Storage) UpdateAlarm(ctx context.Context, alarm types.Alarm, entry types.HistoryEntry) error {
	if alarm.ID == "" {
		return ErrNoID
	}

	watchers, err := json.Marshal(watchersOrEmpty(alarm.Watchers))
	if err != nil {
		return err
	}

	args := pgx.NamedArgs{
		"alarm_id":          alarm.ID,
		"severity":          string(alarm.Severity),
		"state":             string(alarm.State),
		"assignee":          alarm.Assignee,
		"watchers":          watchers,
		"confidence":        alarm.Confidence,
		"runbook_id":        alarm.RunbookID,
		"escalation_policy": alarm.EscalationPolicy,
		"sla_deadline":      alarm.SLADeadline,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
		UPDATE alarms
		SET severity = @severity, state = @state, assignee = @assignee, watchers = @watchers,
			confidence = @confidence, runbook_id = @runbook_id, escalation_policy = @escalation_policy,
			sla_deadline = @sla_deadline, modified_on = CURRENT_TIMESTAMP
		WHERE alarm_id = @alarm_id
	`, args)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrStoreFailed, err.Error())
	}
	if cmd.RowsAffected() == 0 {
		return ErrNoRows
	}

	err = insertHistory(ctx, tx, alarm.ID, entry)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// AppendHistory records a mutation that changed no alarm fields, such as a note.
func (s *Storage) AppendHistory(ctx context.Context, alarmID string, entry types.HistoryEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
		UPDATE alarms SET modified_on = CURRENT_TIMESTAMP WHERE alarm_id = @alarm_id
	`, pgx.NamedArgs{"alarm_id": alarmID})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrStoreFailed, err.Error())
	}
	if cmd.RowsAffected() == 0 {
		return ErrNoRows
	}

	err = insertHistory(ctx, tx, alarmID, entry)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertHistory(ctx context.Context, tx pgx.Tx, alarmID string, entry types.HistoryEntry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO alarm_history (alarm_id, time, action, from_state, to_state, username, note)
		VALUES (@alarm_id, @time, @action, @from_state, @to_state, @username, @note)
	`, pgx.NamedArgs{
		"alarm_id":   alarmID,
		"time":       ts.UTC(),
		"action":     string(entry.Action),
		"from_state": string(entry.FromState),
		"to_state":   string(entry.ToState),
		"username":   entry.User,
		"note":       entry.Note,
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrStoreFailed, err.Error())
	}

	return nil
}

const alarmColumns string = `alarm_id, group_key, tenant, site, severity, state, assignee,
	watchers, confidence, runbook_id, escalation_policy, sla_deadline, created_on, modified_on`

func (s *Storage) GetAlarm(ctx context.Context, conditions ...ConditionFunc) (types.Alarm, error) {
	condition := &Condition{}
	for _, f := range conditions {
		f(condition)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM alarms
		WHERE %s
		ORDER BY created_on DESC
		LIMIT 1
	`, alarmColumns, condition.Where())

	row := s.pool.QueryRow(ctx, query, condition.NamedArgs())

	alarm, err := scanAlarm(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Alarm{}, ErrNoRows
		}
		return types.Alarm{}, err
	}

	return alarm, nil
}

func (s *Storage) QueryAlarms(ctx context.Context, conditions ...ConditionFunc) (types.Collection[types.Alarm], error) {
	condition := &Condition{}
	for _, f := range conditions {
		f(condition)
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER () AS total
		FROM alarms
		WHERE %s
		ORDER BY %s %s
		OFFSET %d LIMIT %d
	`, alarmColumns, condition.Where(), condition.SortBy(), condition.SortOrder(), condition.Offset(), condition.Limit())

	rows, err := s.pool.Query(ctx, query, condition.NamedArgs())
	if err != nil {
		return types.Collection[types.Alarm]{}, err
	}
	defer rows.Close()

	alarms := make([]types.Alarm, 0)
	var total int64

	for rows.Next() {
		alarm, err := scanAlarmRow(rows, &total)
		if err != nil {
			return types.Collection[types.Alarm]{}, err
		}
		alarms = append(alarms, alarm)
	}
	if err := rows.Err(); err != nil {
		return types.Collection[types.Alarm]{}, err
	}

	return types.Collection[types.Alarm]{
		Data:       alarms,
		Count:      uint64(len(alarms)),
		Offset:     uint64(condition.Offset()),
		Limit:      uint64(condition.Limit()),
		TotalCount: uint64(total),
	}, nil
}

func (s *Storage) GetHistory(ctx context.Context, alarmID string) ([]types.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT time, action, from_state, to_state, username, note
		FROM alarm_history
		WHERE alarm_id = @alarm_id
		ORDER BY entry_id ASC
	`, pgx.NamedArgs{"alarm_id": alarmID})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]types.HistoryEntry, 0)

	for rows.Next() {
		var e types.HistoryEntry
		var action, fromState, toState string

		err = rows.Scan(&e.Timestamp, &action, &fromState, &toState, &e.User, &e.Note)
		if err != nil {
			return nil, err
		}

		e.Action = types.Action(action)
		e.FromState = types.State(fromState)
		e.ToState = types.State(toState)

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (s *Storage) AddEvent(ctx context.Context, alarmID string, ev types.DetectionEvent) error {
	attributes, err := json.Marshal(ev.Attributes)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO alarm_events (alarm_id, event_id, severity, source, attributes, observed_at)
		VALUES (@alarm_id, @event_id, @severity, @source, @attributes, @observed_at)
		ON CONFLICT (alarm_id, event_id) DO NOTHING
	`, pgx.NamedArgs{
		"alarm_id":    alarmID,
		"event_id":    ev.ID,
		"severity":    string(ev.Severity),
		"source":      ev.Source,
		"attributes":  attributes,
		"observed_at": ev.Timestamp.UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrStoreFailed, err.Error())
	}

	return nil
}

func (s *Storage) CountEvents(ctx context.Context, alarmID string) (int, error) {
	var count int

	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM alarm_events WHERE alarm_id = @alarm_id`,
		pgx.NamedArgs{"alarm_id": alarmID},
	).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func watchersOrEmpty(watchers []string) []string {
	if watchers == nil {
		return []string{}
	}
	return watchers
}

func scanAlarm(row pgx.Row) (types.Alarm, error) {
	var alarm types.Alarm
	var severity, state string
	var watchers []byte
	var deadline *time.Time

	err := row.Scan(&alarm.ID, &alarm.GroupKey, &alarm.Tenant, &alarm.Site, &severity, &state,
		&alarm.Assignee, &watchers, &alarm.Confidence, &alarm.RunbookID, &alarm.EscalationPolicy,
		&deadline, &alarm.CreatedAt, &alarm.UpdatedAt)
	if err != nil {
		return types.Alarm{}, err
	}

	return finishAlarm(alarm, severity, state, watchers, deadline)
}

func scanAlarmRow(rows pgx.Rows, total *int64) (types.Alarm, error) {
	var alarm types.Alarm
	var severity, state string
	var watchers []byte
	var deadline *time.Time

	err := rows.Scan(&alarm.ID, &alarm.GroupKey, &alarm.Tenant, &alarm.Site, &severity, &state,
		&alarm.Assignee, &watchers, &alarm.Confidence, &alarm.RunbookID, &alarm.EscalationPolicy,
		&deadline, &alarm.CreatedAt, &alarm.UpdatedAt, total)
	if err != nil {
		return types.Alarm{}, err
	}

	return finishAlarm(alarm, severity, state, watchers, deadline)
}

func finishAlarm(alarm types.Alarm, severity, state string, watchers []byte, deadline *time.Time) (types.Alarm, error) {
	alarm.Severity = types.Severity(severity)
	alarm.State = types.State(state)
	alarm.SLADeadline = deadline

	if len(watchers) > 0 {
		err := json.Unmarshal(watchers, &alarm.Watchers)
		if err != nil {
			return types.Alarm{}, err
		}
	}

	return alarm, nil
}
