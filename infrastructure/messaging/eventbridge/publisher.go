package eventbridge

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/events"
	apperrors "mindrise-backend/pkg/errors"
)

// eventSource identifies this service on the bus.
const eventSource = "mindrise.backend"

// putEventsBatchSize is the PutEvents API maximum.
const putEventsBatchSize = 10

// Publisher sends domain events to an EventBridge bus, implementing
// ports.EventPublisher.
type Publisher struct {
	client  *eventbridge.Client
	busName string
	logger  *zap.Logger
}

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client *eventbridge.Client, busName string, logger *zap.Logger) ports.EventPublisher {
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// Publish sends a single event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events in chunks of at most ten, the PutEvents
// limit. Individual entry failures are counted and reported as one
// error; successfully accepted entries are not retried or rolled back.
func (p *Publisher) PublishBatch(ctx context.Context, evs []events.DomainEvent) error {
	if len(evs) == 0 {
		return nil
	}

	var failed int
	for start := 0; start < len(evs); start += putEventsBatchSize {
		end := start + putEventsBatchSize
		if end > len(evs) {
			end = len(evs)
		}

		entries := make([]types.PutEventsRequestEntry, 0, end-start)
		for _, event := range evs[start:end] {
			detail, err := json.Marshal(event)
			if err != nil {
				p.logger.Error("event not serializable",
					zap.String("eventType", event.GetEventType()),
					zap.Error(err),
				)
				failed++
				continue
			}
			entries = append(entries, types.PutEventsRequestEntry{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(eventSource),
				DetailType:   aws.String(event.GetEventType()),
				Detail:       aws.String(string(detail)),
			})
		}
		if len(entries) == 0 {
			continue
		}

		out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
			Entries: entries,
		})
		if err != nil {
			return apperrors.NewExternalError("eventbridge", err)
		}
		if out.FailedEntryCount > 0 {
			failed += int(out.FailedEntryCount)
			for _, entry := range out.Entries {
				if entry.ErrorCode != nil {
					p.logger.Warn("event entry rejected",
						zap.String("errorCode", aws.ToString(entry.ErrorCode)),
						zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
					)
				}
			}
		}
	}

	if failed > 0 {
		return apperrors.NewExternalError("eventbridge", nil).
			WithDetails(map[string]interface{}{"failed_entries": failed})
	}
	return nil
}
