package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	host     string
	user     string
	password string
	port     string
	dbname   string
	sslmode  string
}

func (c Config) ConnStr() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.user, c.password, c.host, c.port, c.dbname, c.sslmode)
}

func NewConfig(host, user, password, port, dbname, sslmode string) Config {
	return Config{
		host:     host,
		user:     user,
		password: password,
		port:     port,
		dbname:   dbname,
		sslmode:  sslmode,
	}
}

func NewPool(ctx context.Context, config Config) (*pgxpool.Pool, error) {
	p, err := pgxpool.New(ctx, config.ConnStr())
	if err != nil {
		return nil, err
	}

	err = p.Ping(ctx)
	if err != nil {
		return nil, err
	}

	return p, nil
}

var (
	ErrNoRows      = errors.New("no rows in result set")
	ErrQueryRow    = errors.New("could not execute query")
	ErrStoreFailed = errors.New("could not store data")
	ErrNoID        = errors.New("data contains no id")
)

//go:generate moq -rm -out store_mock.go . Store
type Store interface {
	Initialize(ctx context.Context) error
	Close()

	AddAlarm(ctx context.Context, alarm types.Alarm, entry types.HistoryEntry) error
	UpdateAlarm(ctx context.Context, alarm types.Alarm, entry types.HistoryEntry) error
	AppendHistory(ctx context.Context, alarmID string, entry types.HistoryEntry) error
	GetAlarm(ctx context.Context, conditions ...ConditionFunc) (types.Alarm, error)
	QueryAlarms(ctx context.Context, conditions ...ConditionFunc) (types.Collection[types.Alarm], error)
	GetHistory(ctx context.Context, alarmID string) ([]types.HistoryEntry, error)
	AddEvent(ctx context.Context, alarmID string, ev types.DetectionEvent) error
	CountEvents(ctx context.Context, alarmID string) (int, error)
}

type Storage struct {
	pool *pgxpool.Pool
}

func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func New(ctx context.Context, config Config) (*Storage, error) {
	pool, err := NewPool(ctx, config)
	if err != nil {
		return nil, err
	}

	return &Storage{pool: pool}, nil
}

func (s *Storage) Initialize(ctx context.Context) error {
	return s.createTables(ctx)
}

func (s *Storage) createTables(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS alarms (
			alarm_id			TEXT NOT NULL,
			group_key			TEXT NOT NULL,
			tenant				TEXT NOT NULL DEFAULT '',
			site				TEXT NOT NULL DEFAULT '',
			severity			TEXT NOT NULL,
			state				TEXT NOT NULL,
			assignee			TEXT NOT NULL DEFAULT '',
			watchers			JSONB NOT NULL DEFAULT '[]',
			confidence			NUMERIC NOT NULL DEFAULT 0,
			runbook_id			TEXT NOT NULL DEFAULT '',
			escalation_policy	TEXT NOT NULL DEFAULT '',
			sla_deadline		timestamp with time zone NULL,
			created_on			timestamp with time zone NOT NULL DEFAULT CURRENT_TIMESTAMP,
			modified_on			timestamp with time zone NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT pkey_alarms PRIMARY KEY (alarm_id)
		);

		CREATE TABLE IF NOT EXISTS alarm_history (
			entry_id	BIGSERIAL,
			alarm_id	TEXT NOT NULL,
			time		timestamp with time zone NOT NULL DEFAULT CURRENT_TIMESTAMP,
			action		TEXT NOT NULL,
			from_state	TEXT NOT NULL DEFAULT '',
			to_state	TEXT NOT NULL DEFAULT '',
			username	TEXT NOT NULL DEFAULT '',
			note		TEXT NOT NULL DEFAULT '',
			CONSTRAINT pkey_alarm_history PRIMARY KEY (entry_id)
		);

		CREATE TABLE IF NOT EXISTS alarm_events (
			alarm_id	TEXT NOT NULL,
			event_id	TEXT NOT NULL,
			severity	TEXT NOT NULL DEFAULT '',
			source		TEXT NOT NULL DEFAULT '',
			attributes	JSONB NOT NULL DEFAULT '{}',
			observed_at	timestamp with time zone NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT pkey_alarm_events PRIMARY KEY (alarm_id, event_id)
		);

		CREATE INDEX IF NOT EXISTS alarms_group_key_idx ON alarms (group_key, tenant, site);
		CREATE INDEX IF NOT EXISTS alarms_state_idx ON alarms (state);
		CREATE INDEX IF NOT EXISTS alarms_tenant_idx ON alarms (tenant);
		CREATE INDEX IF NOT EXISTS alarms_deadline_idx ON alarms (sla_deadline) WHERE sla_deadline IS NOT NULL;
		CREATE INDEX IF NOT EXISTS alarm_history_alarm_idx ON alarm_history (alarm_id, entry_id);
	`)
	if err != nil {
		return err
	}

	return nil
}

func (s *Storage) Close() {
	s.pool.Close()
}
