package wakesource

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	gferrors "github.com/vnykmshr/taskloop/pkg/common/errors"
	"github.com/vnykmshr/taskloop/pkg/executor"
)

// RedisEvent notifies its waiters whenever a message is published on a
// Redis Pub/Sub channel.
type RedisEvent struct {
	pubsub   *redis.PubSub
	event    *Event
	last     atomic.Pointer[string]
	received atomic.Int64

	closeOnce sync.Once
	done      chan struct{}
}

// NewRedisEvent subscribes to channel and waits for the subscription to be
// confirmed before returning.
func NewRedisEvent(ctx context.Context, client redis.UniversalClient, channel string) (*RedisEvent, error) {
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, gferrors.NewOperationError("wakesource", "Subscribe", err).WithContext("channel " + channel)
	}

	r := &RedisEvent{
		pubsub: pubsub,
		event:  NewEvent(),
		done:   make(chan struct{}),
	}
	go r.listen(pubsub.Channel())
	return r, nil
}

func (r *RedisEvent) listen(messages <-chan *redis.Message) {
	defer close(r.done)
	for msg := range messages {
		payload := msg.Payload
		r.last.Store(&payload)
		r.received.Add(1)
		r.event.Notify()
	}
}

// Await returns a future that is Ready after the next message.
func (r *RedisEvent) Await() executor.Future {
	return r.event.Await()
}

// Last returns the payload of the most recent message.
func (r *RedisEvent) Last() (string, bool) {
	if p := r.last.Load(); p != nil {
		return *p, true
	}
	return "", false
}

// Received returns the number of messages seen.
func (r *RedisEvent) Received() int64 {
	return r.received.Load()
}

// Close unsubscribes and waits for the listener to exit.
func (r *RedisEvent) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.pubsub.Close()
		<-r.done
	})
	return err
}
