package webevents

import (
	"context"

	"log/slog"

	gosse "github.com/alexandrevicenzi/go-sse"
	"github.com/diwise/messaging-golang/pkg/messaging"
)

type WebEvents interface {
	Server() *gosse.Server
	Shutdown()
}

type webEvents struct {
	s *gosse.Server
}

func New() WebEvents {
	return &webEvents{
		s: gosse.NewServer(&gosse.Options{}),
	}
}

func (we *webEvents) Server() *gosse.Server {
	return we.s
}

func (we *webEvents) Shutdown() {
	we.s.Shutdown()
}

// RegisterHandlers forwards alarm change notifications from the message
// broker to connected SSE clients.
func RegisterHandlers(messenger messaging.MsgContext, we WebEvents) {
	topics := []string{
		"alarms.alarmCreated",
		"alarms.alarmUpdated",
		"alarms.alarmTransitioned",
		"alarms.alarmAssigned",
		"alarms.slaBreach",
	}

	for _, topic := range topics {
		messenger.RegisterTopicMessageHandler(topic, newForwarder(we, topic))
	}
}

func newForwarder(we WebEvents, topic string) messaging.TopicMessageHandler {
	return func(ctx context.Context, itm messaging.IncomingTopicMessage, log *slog.Logger) {
		we.Server().SendMessage("", gosse.NewMessage("", string(itm.Body()), topic))
	}
}
