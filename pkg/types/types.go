package types

import (
	"time"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

// Escalate returns the next severity level up. Critical stays critical.
func (s Severity) Escalate() Severity {
	switch s {
	case SeverityInfo:
		return SeverityMinor
	case SeverityMinor:
		return SeverityMajor
	case SeverityMajor:
		return SeverityCritical
	}
	return s
}

type State string

const (
	StateNew        State = "NEW"
	StateTriage     State = "TRIAGE"
	StateSnoozed    State = "SNOOZED"
	StateActive     State = "ACTIVE"
	StateContained  State = "CONTAINED"
	StateResolved   State = "RESOLVED"
	StateClosed     State = "CLOSED"
	StateSuppressed State = "SUPPRESSED"
)

func (s State) IsValid() bool {
	switch s {
	case StateNew, StateTriage, StateSnoozed, StateActive,
		StateContained, StateResolved, StateClosed, StateSuppressed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func (s State) IsTerminal() bool {
	return s == StateClosed || s == StateSuppressed
}

type Action string

const (
	ActionCreated           Action = "created"
	ActionTransition        Action = "transition"
	ActionAssigned          Action = "assigned"
	ActionNoteAdded         Action = "note_added"
	ActionEventCorrelated   Action = "event_correlated"
	ActionWatcherAdded      Action = "watcher_added"
	ActionWatcherRemoved    Action = "watcher_removed"
	ActionSeverityChanged   Action = "severity_changed"
	ActionRunbookUpdated    Action = "runbook_updated"
	ActionEscalationUpdated Action = "escalation_updated"
)

type SLAStatus string

const (
	SLAStatusOK      SLAStatus = "ok"
	SLAStatusWarning SLAStatus = "warning"
	SLAStatusBreach  SLAStatus = "breach"
)

type Alarm struct {
	ID               string     `json:"id"`
	GroupKey         string     `json:"groupKey"`
	Tenant           string     `json:"tenant,omitempty"`
	Site             string     `json:"site,omitempty"`
	Severity         Severity   `json:"severity"`
	State            State      `json:"state"`
	Assignee         string     `json:"assignee,omitempty"`
	Watchers         []string   `json:"watchers,omitempty"`
	Confidence       float64    `json:"confidence"`
	RunbookID        string     `json:"runbookID,omitempty"`
	EscalationPolicy string     `json:"escalationPolicy,omitempty"`
	SLADeadline      *time.Time `json:"slaDeadline,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`

	History []HistoryEntry `json:"history,omitempty"`
}

// IsOpen reports whether the alarm is still being tracked.
func (a Alarm) IsOpen() bool {
	return !a.State.IsTerminal()
}

func (a Alarm) HasWatcher(watcher string) bool {
	for _, w := range a.Watchers {
		if w == watcher {
			return true
		}
	}
	return false
}

type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	FromState State     `json:"fromState,omitempty"`
	ToState   State     `json:"toState,omitempty"`
	User      string    `json:"user,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// DetectionEvent is a correlated detection produced by the ingestion pipeline.
type DetectionEvent struct {
	ID         string         `json:"id"`
	GroupKey   string         `json:"groupKey"`
	Tenant     string         `json:"tenant,omitempty"`
	Site       string         `json:"site,omitempty"`
	Severity   Severity       `json:"severity"`
	Confidence float64        `json:"confidence"`
	Timestamp  time.Time      `json:"timestamp"`
	Source     string         `json:"source,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type Organization struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Sites []Site `json:"sites" yaml:"sites"`
}

type Site struct {
	ID           string        `json:"id" yaml:"id"`
	Name         string        `json:"name" yaml:"name"`
	SiteType     string        `json:"siteType,omitempty" yaml:"siteType"`
	Sublocations []Sublocation `json:"sublocations,omitempty" yaml:"sublocations"`
}

type Sublocation struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type Collection[T any] struct {
	Data       []T
	Count      uint64
	Offset     uint64
	Limit      uint64
	TotalCount uint64
}

type AlarmStats struct {
	Scope      string           `json:"scope"`
	Total      int              `json:"total"`
	BySeverity map[Severity]int `json:"bySeverity"`
	New        int              `json:"new"`
	Active     int              `json:"active"`
	Sites      []SiteStats      `json:"sites,omitempty"`
}

type SiteStats struct {
	SiteID   string `json:"siteID"`
	SiteName string `json:"siteName"`
	Total    int    `json:"total"`
	Critical int    `json:"critical"`
}
