package alarms

import (
	"encoding/json"
	"time"

	"github.com/WispAyr/overwatch-sub002/pkg/types"
)

type AlarmCreated struct {
	Alarm     types.Alarm `json:"alarm"`
	Tenant    string      `json:"tenant,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (a *AlarmCreated) ContentType() string {
	return "application/json"
}

func (a *AlarmCreated) TopicName() string {
	return "alarms.alarmCreated"
}

func (a *AlarmCreated) Body() []byte {
	b, _ := json.Marshal(a)
	return b
}

type AlarmUpdated struct {
	Alarm     types.Alarm `json:"alarm"`
	Tenant    string      `json:"tenant,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (a *AlarmUpdated) ContentType() string {
	return "application/json"
}

func (a *AlarmUpdated) TopicName() string {
	return "alarms.alarmUpdated"
}

func (a *AlarmUpdated) Body() []byte {
	b, _ := json.Marshal(a)
	return b
}

type AlarmTransitioned struct {
	Alarm     types.Alarm `json:"alarm"`
	FromState types.State `json:"fromState"`
	ToState   types.State `json:"toState"`
	Tenant    string      `json:"tenant,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (a *AlarmTransitioned) ContentType() string {
	return "application/json"
}

func (a *AlarmTransitioned) TopicName() string {
	return "alarms.alarmTransitioned"
}

func (a *AlarmTransitioned) Body() []byte {
	b, _ := json.Marshal(a)
	return b
}

type AlarmAssigned struct {
	Alarm     types.Alarm `json:"alarm"`
	Assignee  string      `json:"assignee"`
	Tenant    string      `json:"tenant,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (a *AlarmAssigned) ContentType() string {
	return "application/json"
}

func (a *AlarmAssigned) TopicName() string {
	return "alarms.alarmAssigned"
}

func (a *AlarmAssigned) Body() []byte {
	b, _ := json.Marshal(a)
	return b
}

type SLABreach struct {
	AlarmID    string    `json:"alarmID"`
	Tenant     string    `json:"tenant,omitempty"`
	Deadline   time.Time `json:"deadline"`
	BreachedAt time.Time `json:"breachedAt"`
}

func (s *SLABreach) ContentType() string {
	return "application/json"
}

func (s *SLABreach) TopicName() string {
	return "alarms.slaBreach"
}

func (s *SLABreach) Body() []byte {
	b, _ := json.Marshal(s)
	return b
}
