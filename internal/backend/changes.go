package backend

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/Vixs101/Framez/internal/remote"

	"github.com/redis/go-redis/v9"
)

type subscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
	once   sync.Once
}

// SubscribeTableInserts returns once the channel subscription is confirmed.
// onEvent runs on a single goroutine, one event at a time.
func (b *Backend) SubscribeTableInserts(ctx context.Context, table string, onEvent func(remote.InsertEvent)) (remote.Subscription, error) {
	if b.redis == nil {
		return nil, errRealtimeUnavailable
	}

	pubsub := b.redis.Subscribe(ctx, changeChannel(table))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &subscription{pubsub: pubsub, done: make(chan struct{})}
	go sub.run(table, onEvent)
	return sub, nil
}

func (s *subscription) run(table string, onEvent func(remote.InsertEvent)) {
	defer close(s.done)
	for msg := range s.pubsub.Channel() {
		var ev remote.InsertEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Printf("decode %s change event: %v", table, err)
			continue
		}
		if ev.Table == "" {
			ev.Table = tableFromChannel(msg.Channel)
		}
		onEvent(ev)
	}
}

// Close stops delivery and waits for the event goroutine to exit.
func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
		<-s.done
	})
	return err
}

func (b *Backend) publishInsert(ctx context.Context, ev remote.InsertEvent) error {
	if b.redis == nil {
		return errRealtimeUnavailable
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.redis.Publish(ctx, changeChannel(ev.Table), payload).Err()
}

func changeChannel(table string) string {
	return "changes:" + table + ":insert"
}

func tableFromChannel(ch string) string {
	// changes:{table}:insert
	const prefix = "changes:"
	const suffix = ":insert"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
