package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gferrors "github.com/vnykmshr/taskloop/pkg/common/errors"
	"github.com/vnykmshr/taskloop/pkg/common/validation"
	"github.com/vnykmshr/taskloop/pkg/metrics"
)

const moduleName = "workerpool"

var (
	// ErrPoolShutdown is returned when submitting to a pool that has been shut down.
	ErrPoolShutdown = fmt.Errorf("workerpool: pool has been shut down: %w", gferrors.ErrClosed)

	// ErrItemPanicked is wrapped by Result.Error when the function panicked.
	ErrItemPanicked = fmt.Errorf("workerpool: item panicked")
)

// Func transforms one input item into one output value.
type Func[T, U any] func(ctx context.Context, item T) (U, error)

// Result is the outcome of applying the pool's Func to one item.
type Result[T, U any] struct {
	// Item is the input that was processed.
	Item T

	// Value is the function's output. It is the zero value when Error is set.
	Value U

	// Error is the function's error, ctx.Err() on timeout, or an error
	// wrapping ErrItemPanicked.
	Error error

	// Duration is how long the function ran.
	Duration time.Duration

	// WorkerID identifies which worker processed the item.
	WorkerID int
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// QueueSize bounds the number of items waiting for a worker.
	// Zero selects twice the worker count.
	QueueSize int

	// ResultBuffer is the capacity of the Results channel.
	// Zero selects the worker count.
	ResultBuffer int

	// TaskTimeout bounds each function call. Zero means no timeout.
	TaskTimeout time.Duration

	// PanicHandler is called with the recovered value when the function
	// panics. The item's Result carries ErrItemPanicked either way.
	PanicHandler func(workerID int, recovered interface{})

	// OnWorkerStart is called when a worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	OnWorkerStop func(workerID int)

	// Name labels the pool in metrics.
	Name string

	// Metrics enables Prometheus instrumentation when non-nil.
	Metrics *metrics.Registry
}

// DefaultConfig returns a configuration with one worker per workerCount and
// the default queue sizing.
func DefaultConfig(workerCount int) Config {
	return Config{
		WorkerCount: workerCount,
		Name:        "workerpool",
	}
}

func (c *Config) validate() error {
	if err := validation.ValidatePositive(moduleName, "WorkerCount", c.WorkerCount); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative(moduleName, "QueueSize", c.QueueSize); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative(moduleName, "ResultBuffer", c.ResultBuffer); err != nil {
		return err
	}
	if c.QueueSize == 0 {
		c.QueueSize = 2 * c.WorkerCount
	}
	if c.ResultBuffer == 0 {
		c.ResultBuffer = c.WorkerCount
	}
	if c.Name == "" {
		c.Name = "workerpool"
	}
	return nil
}

// Pool is a fixed set of workers applying one Func to submitted items.
// Every accepted item produces exactly one Result on Results().
type Pool[T, U any] struct {
	config Config
	fn     Func[T, U]

	// Core pool state
	workers      []worker[T, U]
	taskQueue    chan T
	resultQueue  chan Result[T, U]
	shutdownCh   chan struct{}
	abortCh      chan struct{}
	shutdownOnce sync.Once
	abortOnce    sync.Once
	done         chan struct{}

	// submitMu orders Submit against closing taskQueue.
	submitMu   sync.RWMutex
	isShutdown bool

	// State tracking
	activeWorkers  atomic.Int64
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64

	workerWg sync.WaitGroup
	inst     *instrumentation
}

// worker represents a single worker in the pool.
type worker[T, U any] struct {
	id   int
	pool *Pool[T, U]
}

// New creates a pool of workerCount workers applying fn. It panics if
// workerCount is not positive or fn is nil.
func New[T, U any](workerCount int, fn Func[T, U]) *Pool[T, U] {
	p, err := NewWithConfig(DefaultConfig(workerCount), fn)
	if err != nil {
		panic(err)
	}
	return p
}

// NewWithConfig creates a pool with the given configuration.
func NewWithConfig[T, U any](config Config, fn Func[T, U]) (*Pool[T, U], error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, validation.ValidateNotNil(moduleName, "fn", nil)
	}

	pool := &Pool[T, U]{
		config:      config,
		fn:          fn,
		taskQueue:   make(chan T, config.QueueSize),
		resultQueue: make(chan Result[T, U], config.ResultBuffer),
		shutdownCh:  make(chan struct{}),
		abortCh:     make(chan struct{}),
		done:        make(chan struct{}),
		inst:        newInstrumentation(config.Metrics, config.Name),
	}
	pool.inst.size(config.WorkerCount)

	pool.workers = make([]worker[T, U], config.WorkerCount)
	for i := 0; i < config.WorkerCount; i++ {
		pool.workers[i] = worker[T, U]{id: i, pool: pool}
		pool.workerWg.Add(1)
		go pool.workers[i].run()
	}

	go func() {
		pool.workerWg.Wait()
		close(pool.resultQueue)
		close(pool.done)
	}()

	return pool, nil
}
