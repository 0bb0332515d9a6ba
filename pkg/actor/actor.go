package actor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	gferrors "github.com/vnykmshr/taskloop/pkg/common/errors"
	"github.com/vnykmshr/taskloop/pkg/common/validation"
	"github.com/vnykmshr/taskloop/pkg/metrics"
	"github.com/vnykmshr/taskloop/pkg/streaming/channel"
)

const moduleName = "actor"

var (
	// ErrTerminated is returned when sending to an actor that has stopped.
	ErrTerminated = fmt.Errorf("actor: terminated: %w", gferrors.ErrClosed)

	// ErrNameTaken is returned by Spawn when a live actor already uses the name.
	ErrNameTaken = errors.New("actor: name already in use")

	// ErrSystemShutdown is returned by Spawn after Shutdown.
	ErrSystemShutdown = fmt.Errorf("actor: system shut down: %w", gferrors.ErrClosed)
)

// Actor processes the messages sent to it, one at a time.
type Actor[M any] interface {
	Receive(ctx context.Context, msg M)
}

// HandlerFunc adapts a function to the Actor interface.
type HandlerFunc[M any] func(ctx context.Context, msg M)

// Receive implements Actor.
func (f HandlerFunc[M]) Receive(ctx context.Context, msg M) {
	f(ctx, msg)
}

// Config holds configuration options for an actor System.
type Config struct {
	// Name labels the system in metrics.
	Name string

	// MailboxSize is the capacity of every actor's mailbox.
	MailboxSize int

	// Strategy is the mailbox backpressure strategy.
	Strategy channel.BackpressureStrategy

	// SendTimeout bounds how long Send waits on a full mailbox under the
	// Block strategy. Zero waits until the caller's context is done.
	SendTimeout time.Duration

	// OnPanic is called when an actor panics. The actor is terminated.
	OnPanic func(actor string, recovered interface{}, stack []byte)

	// Metrics enables Prometheus instrumentation when non-nil.
	Metrics *metrics.Registry
}

// DefaultConfig returns the default system configuration.
func DefaultConfig() Config {
	return Config{
		Name:        "actors",
		MailboxSize: 64,
		Strategy:    channel.Block,
	}
}

// System owns a set of named actors and their goroutines.
type System struct {
	config Config

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	actors  map[string]func()
	closed  bool
	wg      sync.WaitGroup
	running *gaugeRef
}

// NewSystem creates a System with DefaultConfig.
func NewSystem() *System {
	s, err := NewSystemWithConfig(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return s
}

// NewSystemWithConfig creates a System with the given configuration.
func NewSystemWithConfig(config Config) (*System, error) {
	if err := validation.ValidatePositive(moduleName, "MailboxSize", config.MailboxSize); err != nil {
		return nil, err
	}
	if err := validation.ValidateOneOf(moduleName, "Strategy", config.Strategy,
		channel.Block, channel.Drop, channel.DropOldest, channel.Error); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = DefaultConfig().Name
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &System{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		actors:  make(map[string]func()),
		running: newGaugeRef(config.Metrics, config.Name),
	}
	return s, nil
}

// Len returns the number of live actors.
func (s *System) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actors)
}

// Shutdown stops every actor and waits for them to process the messages
// already in their mailboxes. If ctx is done first, handler contexts are
// canceled, pending messages are abandoned and ctx.Err() is returned.
func (s *System) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	stops := make([]func(), 0, len(s.actors))
	for _, stop := range s.actors {
		stops = append(stops, stop)
	}
	s.mu.Unlock()

	for _, stop := range stops {
		stop()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

// Ref is the handle used to send messages to a spawned actor.
type Ref[M any] struct {
	name    string
	sys     *System
	mailbox channel.BackpressureChannel[M]
	done    chan struct{}
	inst    *instrumentation
}

// Spawn starts a under name in sys and returns its Ref.
func Spawn[M any](sys *System, name string, a Actor[M]) (*Ref[M], error) {
	if err := validation.ValidateNotEmpty(moduleName, "name", name); err != nil {
		return nil, err
	}
	if a == nil {
		return nil, validation.ValidateNotNil(moduleName, "actor", nil)
	}

	r := &Ref[M]{
		name: name,
		sys:  sys,
		mailbox: channel.NewWithConfig[M](channel.Config{
			BufferSize:  sys.config.MailboxSize,
			Strategy:    sys.config.Strategy,
			SendTimeout: sys.config.SendTimeout,
			Name:        name + "_mailbox",
			Metrics:     sys.config.Metrics,
		}),
		done: make(chan struct{}),
		inst: newInstrumentation(sys.config.Metrics, name),
	}

	sys.mu.Lock()
	if sys.closed {
		sys.mu.Unlock()
		return nil, ErrSystemShutdown
	}
	if _, taken := sys.actors[name]; taken {
		sys.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	sys.actors[name] = r.Stop
	sys.wg.Add(1)
	sys.mu.Unlock()

	sys.running.add(1)
	go r.run(a)
	return r, nil
}

// Name returns the actor's name.
func (r *Ref[M]) Name() string {
	return r.name
}

// Done returns a channel that is closed once the actor has terminated.
func (r *Ref[M]) Done() <-chan struct{} {
	return r.done
}

// Send delivers msg to the actor's mailbox, applying the system's
// backpressure strategy. It returns ErrTerminated once the actor stopped.
func (r *Ref[M]) Send(ctx context.Context, msg M) error {
	return r.translate(r.mailbox.Send(ctx, msg))
}

// TrySend is the non-blocking variant of Send.
func (r *Ref[M]) TrySend(msg M) error {
	return r.translate(r.mailbox.TrySend(msg))
}

// Stop closes the mailbox. Messages already queued are still processed.
func (r *Ref[M]) Stop() {
	_ = r.mailbox.Close()
}

func (r *Ref[M]) translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, channel.ErrChannelClosed) {
		r.inst.rejected()
		return ErrTerminated
	}
	return err
}

func (r *Ref[M]) run(a Actor[M]) {
	defer func() {
		r.sys.mu.Lock()
		delete(r.sys.actors, r.name)
		r.sys.mu.Unlock()
		r.sys.running.add(-1)
		close(r.done)
		r.sys.wg.Done()
	}()

	for {
		msg, err := r.mailbox.Receive(r.sys.ctx)
		if err != nil {
			_ = r.mailbox.Close()
			return
		}
		if !r.handle(a, msg) {
			_ = r.mailbox.Close()
			return
		}
	}
}

// handle runs one message through the actor. It returns false if the
// actor panicked.
func (r *Ref[M]) handle(a Actor[M], msg M) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
			r.inst.panicked()
			if r.sys.config.OnPanic != nil {
				r.sys.config.OnPanic(r.name, rec, debug.Stack())
			}
		}
	}()

	a.Receive(r.sys.ctx, msg)
	r.inst.handled()
	return true
}
