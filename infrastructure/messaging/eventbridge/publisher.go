package eventbridge

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"ontoview/domain/events"
	pkgerrors "ontoview/pkg/errors"
)

const eventSource = "ontoview.diagram"

// Publisher forwards diagram events to an EventBridge bus so other systems
// can react to diagram changes. A Publisher with a nil client is disabled
// and silently drops events, which keeps local and test wiring simple.
type Publisher struct {
	client  *eventbridge.Client
	busName string
	logger  *zap.Logger
}

// NewPublisher creates an EventBridge publisher. Pass a nil client to
// disable publishing.
func NewPublisher(client *eventbridge.Client, busName string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// Enabled reports whether events will actually be sent
func (p *Publisher) Enabled() bool {
	return p != nil && p.client != nil
}

// Publish sends one diagram event. The event kind becomes the detail type
// and the event itself is serialized as the detail payload.
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	if !p.Enabled() {
		return nil
	}

	detail, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.Wrap(err, "marshaling event detail")
	}

	output, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(eventSource),
				DetailType:   aws.String(string(event.GetKind())),
				Detail:       aws.String(string(detail)),
			},
		},
	})
	if err != nil {
		p.logger.Error("failed to publish event",
			zap.String("kind", string(event.GetKind())),
			zap.Error(err),
		)
		return pkgerrors.NewProviderError("PutEvents", err)
	}
	if output.FailedEntryCount > 0 {
		entry := output.Entries[0]
		p.logger.Error("event rejected by bus",
			zap.String("kind", string(event.GetKind())),
			zap.Stringp("code", entry.ErrorCode),
			zap.Stringp("message", entry.ErrorMessage),
		)
		return pkgerrors.NewInternalError("event rejected by bus")
	}

	return nil
}

// Attach subscribes the publisher to a diagram event bus. Delivery failures
// are logged, never propagated to the mutation that produced the event.
func (p *Publisher) Attach(bus *events.Bus) events.Disposer {
	if !p.Enabled() {
		return func() {}
	}
	return bus.SubscribeAll(func(event events.DomainEvent) {
		// Bus handlers run on the mutating goroutine; errors are already
		// logged inside Publish.
		_ = p.Publish(context.Background(), event)
	})
}
