package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gferrors "github.com/vnykmshr/taskloop/pkg/common/errors"
	"github.com/vnykmshr/taskloop/pkg/metrics"
)

// BackpressureStrategy defines how the channel handles backpressure when full.
type BackpressureStrategy int

const (
	// Block strategy blocks the producer until space is available.
	Block BackpressureStrategy = iota

	// Drop strategy drops the newest message when buffer is full.
	Drop

	// DropOldest strategy drops the oldest message when buffer is full.
	DropOldest

	// Error strategy returns an error when buffer is full.
	Error
)

func (s BackpressureStrategy) String() string {
	switch s {
	case Block:
		return "block"
	case Drop:
		return "drop"
	case DropOldest:
		return "drop_oldest"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

var (
	// ErrChannelFull is returned when the buffer is full and the value cannot be queued.
	ErrChannelFull = fmt.Errorf("channel buffer is full: %w", gferrors.ErrCapacityExceeded)

	// ErrChannelClosed is returned when sending to a closed channel, or
	// receiving from a closed channel that has been drained.
	ErrChannelClosed = fmt.Errorf("channel is closed: %w", gferrors.ErrClosed)

	// ErrSendTimeout is returned when a blocking send runs past its deadline.
	ErrSendTimeout = fmt.Errorf("channel send: %w", gferrors.ErrTimeout)
)

// BackpressureChannel is a bounded FIFO with configurable behaviour when full.
// It is safe for any number of concurrent senders and receivers.
type BackpressureChannel[T any] interface {
	// Send sends a value, applying the configured strategy when the buffer is full.
	Send(ctx context.Context, value T) error

	// TrySend attempts to send a value without blocking.
	TrySend(value T) error

	// Receive blocks until a value is available, the channel is closed and
	// drained, or ctx is done.
	Receive(ctx context.Context) (T, error)

	// TryReceive attempts to receive a value without blocking. ok is false
	// when nothing is buffered.
	TryReceive() (value T, ok bool, err error)

	// Close closes the channel for sending. Buffered values stay receivable.
	Close() error

	// IsClosed returns true if the channel is closed.
	IsClosed() bool

	// Len returns the current number of buffered elements.
	Len() int

	// Cap returns the buffer capacity.
	Cap() int

	// Stats returns channel statistics.
	Stats() Stats
}

// Stats holds statistics about channel activity.
type Stats struct {
	// SendCount is the total number of values accepted into the buffer.
	SendCount int64

	// ReceiveCount is the total number of values taken from the buffer.
	ReceiveCount int64

	// DroppedCount is the total number of dropped messages.
	DroppedCount int64

	// RejectedCount is the number of sends refused with ErrChannelFull.
	RejectedCount int64

	// BlockedSends is the number of sends that had to wait for space.
	BlockedSends int64

	// TimedOutSends is the number of blocked sends that gave up.
	TimedOutSends int64

	// BufferUtilization is the current buffer utilization (0.0 to 1.0).
	BufferUtilization float64
}

// Config holds configuration for BackpressureChannel.
type Config struct {
	// BufferSize is the size of the channel buffer.
	BufferSize int

	// Strategy defines how backpressure is handled.
	Strategy BackpressureStrategy

	// OnDrop is called with the discarded value (Drop/DropOldest strategies).
	OnDrop func(value interface{})

	// OnBlock is called when a send operation has to wait (Block strategy).
	OnBlock func()

	// SendTimeout bounds how long a blocking Send waits (0 = until ctx is done).
	SendTimeout time.Duration

	// Name labels the channel in metrics.
	Name string

	// Metrics enables Prometheus instrumentation when non-nil.
	Metrics *metrics.Registry
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize: 100,
		Strategy:   Block,
		Name:       "channel",
	}
}

// backpressureChannel implements BackpressureChannel on a ring buffer.
type backpressureChannel[T any] struct {
	config Config

	mu     sync.Mutex
	buffer []T
	head   int
	tail   int
	count  int
	closed atomic.Bool

	// changed is closed and replaced whenever the buffer changes while
	// someone is waiting on it.
	changed chan struct{}
	waiters int

	stats Stats
}

// New creates a new BackpressureChannel with default configuration.
func New[T any](bufferSize int) BackpressureChannel[T] {
	config := DefaultConfig()
	config.BufferSize = bufferSize
	return NewWithConfig[T](config)
}

// NewWithConfig creates a new BackpressureChannel with the specified configuration.
// A non-positive BufferSize falls back to the default.
func NewWithConfig[T any](config Config) BackpressureChannel[T] {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.Name == "" {
		config.Name = DefaultConfig().Name
	}

	ch := &backpressureChannel[T]{
		config:  config,
		buffer:  make([]T, config.BufferSize),
		changed: make(chan struct{}),
	}
	if config.Metrics != nil {
		config.Metrics.ChannelBufferUsage.WithLabelValues(config.Name).Set(0)
	}
	return ch
}

// Send implements BackpressureChannel.Send.
func (ch *backpressureChannel[T]) Send(ctx context.Context, value T) error {
	if ch.IsClosed() {
		return ErrChannelClosed
	}
	if ch.config.Strategy != Block {
		return ch.TrySend(value)
	}

	if ch.config.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ch.config.SendTimeout)
		defer cancel()
	}
	return ch.blockingSend(ctx, value)
}

// TrySend implements BackpressureChannel.TrySend.
func (ch *backpressureChannel[T]) TrySend(value T) error {
	if ch.IsClosed() {
		return ErrChannelClosed
	}

	ch.mu.Lock()
	if ch.closed.Load() {
		ch.mu.Unlock()
		return ErrChannelClosed
	}

	if ch.count < len(ch.buffer) {
		ch.pushLocked(value)
		ch.mu.Unlock()
		return nil
	}

	switch ch.config.Strategy {
	case Drop:
		ch.stats.DroppedCount++
		ch.mu.Unlock()
		ch.backpressure()
		ch.dropped(value)
		return nil
	case DropOldest:
		old := ch.popLocked()
		ch.stats.DroppedCount++
		ch.pushLocked(value)
		ch.mu.Unlock()
		ch.backpressure()
		ch.dropped(old)
		return nil
	default:
		ch.stats.RejectedCount++
		ch.mu.Unlock()
		ch.backpressure()
		return ErrChannelFull
	}
}

// Receive implements BackpressureChannel.Receive.
func (ch *backpressureChannel[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	ch.mu.Lock()
	for ch.count == 0 {
		if ch.closed.Load() {
			ch.mu.Unlock()
			return zero, ErrChannelClosed
		}
		if err := ch.waitLocked(ctx); err != nil {
			return zero, err
		}
	}
	value := ch.popLocked()
	ch.mu.Unlock()
	return value, nil
}

// TryReceive implements BackpressureChannel.TryReceive.
func (ch *backpressureChannel[T]) TryReceive() (T, bool, error) {
	var zero T

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.count == 0 {
		if ch.closed.Load() {
			return zero, false, ErrChannelClosed
		}
		return zero, false, nil
	}
	return ch.popLocked(), true, nil
}

// Close implements BackpressureChannel.Close.
func (ch *backpressureChannel[T]) Close() error {
	if !ch.closed.CompareAndSwap(false, true) {
		return nil
	}

	ch.mu.Lock()
	close(ch.changed)
	ch.changed = make(chan struct{})
	ch.mu.Unlock()
	return nil
}

// IsClosed implements BackpressureChannel.IsClosed.
func (ch *backpressureChannel[T]) IsClosed() bool {
	return ch.closed.Load()
}

// Len implements BackpressureChannel.Len.
func (ch *backpressureChannel[T]) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.count
}

// Cap implements BackpressureChannel.Cap.
func (ch *backpressureChannel[T]) Cap() int {
	return len(ch.buffer)
}

// Stats implements BackpressureChannel.Stats.
func (ch *backpressureChannel[T]) Stats() Stats {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	stats := ch.stats
	stats.BufferUtilization = float64(ch.count) / float64(len(ch.buffer))
	return stats
}

func (ch *backpressureChannel[T]) blockingSend(ctx context.Context, value T) error {
	ch.mu.Lock()
	blocked := false
	for ch.count >= len(ch.buffer) {
		if ch.closed.Load() {
			ch.mu.Unlock()
			return ErrChannelClosed
		}
		if !blocked {
			blocked = true
			ch.stats.BlockedSends++
			ch.mu.Unlock()
			ch.backpressure()
			if ch.config.OnBlock != nil {
				ch.config.OnBlock()
			}
			ch.mu.Lock()
			continue
		}
		if err := ch.waitLocked(ctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				ch.mu.Lock()
				ch.stats.TimedOutSends++
				ch.mu.Unlock()
				return ErrSendTimeout
			}
			return err
		}
	}
	if ch.closed.Load() {
		ch.mu.Unlock()
		return ErrChannelClosed
	}
	ch.pushLocked(value)
	ch.mu.Unlock()
	return nil
}

// waitLocked releases the lock until the buffer changes or ctx is done.
// On success the lock is held again; on error it is released.
func (ch *backpressureChannel[T]) waitLocked(ctx context.Context) error {
	wait := ch.changed
	ch.waiters++
	ch.mu.Unlock()

	select {
	case <-wait:
		ch.mu.Lock()
		ch.waiters--
		return nil
	case <-ctx.Done():
		ch.mu.Lock()
		ch.waiters--
		ch.mu.Unlock()
		return ctx.Err()
	}
}

func (ch *backpressureChannel[T]) pushLocked(value T) {
	ch.buffer[ch.tail] = value
	ch.tail = (ch.tail + 1) % len(ch.buffer)
	ch.count++
	ch.stats.SendCount++
	ch.notifyLocked()

	if m := ch.config.Metrics; m != nil {
		m.ChannelSends.WithLabelValues(ch.config.Name).Inc()
		m.ChannelBufferUsage.WithLabelValues(ch.config.Name).Set(float64(ch.count))
	}
}

func (ch *backpressureChannel[T]) popLocked() T {
	var zero T
	value := ch.buffer[ch.head]
	ch.buffer[ch.head] = zero
	ch.head = (ch.head + 1) % len(ch.buffer)
	ch.count--
	ch.stats.ReceiveCount++
	ch.notifyLocked()

	if m := ch.config.Metrics; m != nil {
		m.ChannelReceives.WithLabelValues(ch.config.Name).Inc()
		m.ChannelBufferUsage.WithLabelValues(ch.config.Name).Set(float64(ch.count))
	}
	return value
}

func (ch *backpressureChannel[T]) notifyLocked() {
	if ch.waiters > 0 {
		close(ch.changed)
		ch.changed = make(chan struct{})
	}
}

func (ch *backpressureChannel[T]) dropped(value T) {
	if ch.config.OnDrop != nil {
		ch.config.OnDrop(value)
	}
}

func (ch *backpressureChannel[T]) backpressure() {
	if m := ch.config.Metrics; m != nil {
		m.BackpressureEvents.WithLabelValues(ch.config.Strategy.String(), ch.config.Name).Inc()
	}
}
