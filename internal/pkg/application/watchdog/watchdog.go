package watchdog

import (
	"context"
	"sync"
	"time"

	"github.com/WispAyr/overwatch-sub002/internal/pkg/application/alarms"
	"github.com/WispAyr/overwatch-sub002/internal/pkg/infrastructure/metrics"
	"github.com/WispAyr/overwatch-sub002/pkg/types"

	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

const (
	DefaultInterval      = 30 * time.Second
	DefaultWarningWindow = 5 * time.Minute
)

type Config struct {
	Interval      time.Duration `yaml:"interval"`
	WarningWindow time.Duration `yaml:"warningWindow"`
}

type Watchdog interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
}

// AlarmLister is the slice of the alarm service the scanner needs.
type AlarmLister interface {
	OpenAlarms(ctx context.Context) ([]types.Alarm, error)
}

type watchdogImpl struct {
	svc       AlarmLister
	messenger messaging.MsgContext

	interval      time.Duration
	warningWindow time.Duration

	done chan bool

	mu sync.Mutex
	// lastNotified maps alarm id to the deadline a breach was already
	// emitted for, so a still open breach episode fires only once.
	lastNotified map[string]time.Time
}

func New(svc AlarmLister, messenger messaging.MsgContext, cfg Config) Watchdog {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.WarningWindow <= 0 {
		cfg.WarningWindow = DefaultWarningWindow
	}

	return &watchdogImpl{
		svc:           svc,
		messenger:     messenger,
		interval:      cfg.Interval,
		warningWindow: cfg.WarningWindow,
		done:          make(chan bool),
		lastNotified:  map[string]time.Time{},
	}
}

func (w *watchdogImpl) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *watchdogImpl) Stop(ctx context.Context) {
	w.done <- true
}

func (w *watchdogImpl) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// Scan walks all open alarms once, emitting a breach notification for each
// alarm whose deadline has newly passed. Errors are logged and the scan
// moves on to the next tick.
func (w *watchdogImpl) Scan(ctx context.Context) {
	log := logging.GetFromContext(ctx)

	open, err := w.svc.OpenAlarms(ctx)
	if err != nil {
		log.Error("failed to list open alarms", "err", err.Error())
		return
	}

	now := time.Now().UTC()
	seen := map[string]struct{}{}

	for _, alarm := range open {
		seen[alarm.ID] = struct{}{}

		if Classify(alarm.SLADeadline, now, w.warningWindow) != types.SLAStatusBreach {
			continue
		}

		if !w.shouldNotify(alarm.ID, *alarm.SLADeadline) {
			continue
		}

		err = w.messenger.PublishOnTopic(ctx, &alarms.SLABreach{
			AlarmID:    alarm.ID,
			Tenant:     alarm.Tenant,
			Deadline:   *alarm.SLADeadline,
			BreachedAt: now,
		})
		if err != nil {
			log.Error("failed to publish breach notification", "alarm_id", alarm.ID, "err", err.Error())
			w.forget(alarm.ID)
			continue
		}

		metrics.SLABreaches.Inc()

		log.Warn("sla breach", "alarm_id", alarm.ID, "deadline", alarm.SLADeadline.Format(time.RFC3339))
	}

	w.prune(seen)
}

// shouldNotify records the deadline and reports whether a breach for it has
// not been emitted yet. A recomputed deadline starts a new breach episode.
func (w *watchdogImpl) shouldNotify(alarmID string, deadline time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if notified, ok := w.lastNotified[alarmID]; ok && notified.Equal(deadline) {
		return false
	}

	w.lastNotified[alarmID] = deadline
	return true
}

func (w *watchdogImpl) forget(alarmID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.lastNotified, alarmID)
}

func (w *watchdogImpl) prune(seen map[string]struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id := range w.lastNotified {
		if _, ok := seen[id]; !ok {
			delete(w.lastNotified, id)
		}
	}
}

// Classify grades a deadline as ok, warning or breach. Alarms without a
// deadline carry no SLA clock and classify as ok.
func Classify(deadline *time.Time, now time.Time, warningWindow time.Duration) types.SLAStatus {
	if deadline == nil {
		return types.SLAStatusOK
	}

	if now.After(*deadline) {
		return types.SLAStatusBreach
	}

	if now.Add(warningWindow).After(*deadline) {
		return types.SLAStatusWarning
	}

	return types.SLAStatusOK
}
