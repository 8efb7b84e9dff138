package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlarmsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alarm_mgmt_alarms_created_total",
		Help: "Total number of alarms created by the correlation gateway.",
	})

	AlarmTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alarm_mgmt_transitions_total",
		Help: "Total number of alarm state transitions.",
	}, []string{"from", "to"})

	SLABreaches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alarm_mgmt_sla_breaches_total",
		Help: "Total number of SLA breach notifications emitted.",
	})
)
