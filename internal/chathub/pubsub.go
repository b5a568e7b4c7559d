package chathub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// startPubSubListener підписується на канал кадрів і пересилає їх у цикл Run.
// Підписка підтверджується до повернення, щоб не втратити ранні публікації.
func (m *ManagerService) startPubSubListener(ctx context.Context) error {
	pubsub := m.publisher.SubscribeFrames(ctx, FramesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", FramesChannel, err)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					log.Printf("ERROR: unmarshalling web frame from Redis: %v", err)
					continue
				}
				select {
				case m.pubSubCh <- env:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return nil
}
