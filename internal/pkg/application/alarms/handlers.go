package alarms

import (
	"context"
	"encoding/json"

	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
)

var tracer = otel.Tracer("alarm-mgmt/alarms")

// NewDetectionEventHandler correlates detection events arriving from the
// ingestion pipeline into alarms.
func NewDetectionEventHandler(messenger messaging.MsgContext, svc AlarmService) messaging.TopicMessageHandler {
	return func(ctx context.Context, itm messaging.IncomingTopicMessage, l *slog.Logger) {
		var err error

		ctx, span := tracer.Start(ctx, "detection-event")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, l, ctx)

		ev := types.DetectionEvent{}

		err = json.Unmarshal(itm.Body(), &ev)
		if err != nil {
			log.Error("failed to unmarshal message", "err", err.Error())
			return
		}

		alarmID, err := svc.Correlate(ctx, ev)
		if err != nil {
			log.Error("failed to correlate event", "event_id", ev.ID, "group_key", ev.GroupKey, "err", err.Error())
			return
		}

		log.Debug("event correlated", "event_id", ev.ID, "alarm_id", alarmID)
	}
}
