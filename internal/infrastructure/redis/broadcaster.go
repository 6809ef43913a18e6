package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"curriculum-engine/internal/domain"
)

const progressChannel = "curriculum:workflows:progress"

// ProgressBroadcaster publishes workflow progress events over Redis pub/sub.
// Every event goes to a shared channel and to a per-workflow channel so a UI
// can follow one run without filtering the firehose. Delivery is
// at-most-effort; subscribers that miss events re-read the snapshot instead.
type ProgressBroadcaster struct {
	client *redis.Client
}

func NewProgressBroadcaster(client *redis.Client) *ProgressBroadcaster {
	return &ProgressBroadcaster{client: client}
}

// Publish broadcasts the event to the network.
func (b *ProgressBroadcaster) Publish(ctx context.Context, event domain.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := b.client.Publish(ctx, progressChannel, payload).Err(); err != nil {
		return err
	}
	return b.client.Publish(ctx, progressChannel+":"+event.WorkflowID.String(), payload).Err()
}

// Subscribe opens a continuous stream of progress events for observers such
// as the UI gateway. The returned channel closes when ctx is cancelled.
func (b *ProgressBroadcaster) Subscribe(ctx context.Context) (<-chan domain.ProgressEvent, error) {
	pubsub := b.client.Subscribe(ctx, progressChannel)

	events := make(chan domain.ProgressEvent)
	go func() {
		defer close(events)
		defer pubsub.Close()
		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			var event domain.ProgressEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err == nil {
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
