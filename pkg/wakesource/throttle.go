package wakesource

import (
	"math"
	"sync"
	"time"

	gferrors "github.com/vnykmshr/taskloop/pkg/common/errors"
	"github.com/vnykmshr/taskloop/pkg/common/validation"
	"github.com/vnykmshr/taskloop/pkg/executor"
)

// Throttle is a token bucket whose tokens are acquired by futures. A task
// awaiting Acquire is parked until its token's time arrives.
type Throttle struct {
	mu     sync.Mutex
	rate   float64 // tokens per second
	burst  int
	tokens float64
	last   time.Time
	now    func() time.Time
}

// NewThrottle allows one acquisition per interval with bursts of up to
// burst acquisitions. The bucket starts full.
func NewThrottle(interval time.Duration, burst int) (*Throttle, error) {
	if err := validation.ValidatePositive("wakesource", "burst", burst); err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, gferrors.NewValidationError("wakesource", "interval", interval, "must be positive")
	}
	t := &Throttle{
		rate:   float64(time.Second) / float64(interval),
		burst:  burst,
		tokens: float64(burst),
		now:    time.Now,
	}
	t.last = t.now()
	return t, nil
}

// Tokens returns the number of tokens available now. It is negative while
// acquisitions are queued behind the rate.
func (t *Throttle) Tokens() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refill(t.now())
	return t.tokens
}

// Acquire returns a future that takes one token on its first poll and is
// Ready once that token is due.
func (t *Throttle) Acquire() executor.Future {
	return &acquireFuture{th: t}
}

// reserve takes one token and returns how long the caller must wait for it.
func (t *Throttle) reserve() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.refill(t.now())
	t.tokens--
	if t.tokens >= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) * -t.tokens / t.rate)
}

func (t *Throttle) refill(now time.Time) {
	elapsed := now.Sub(t.last)
	if elapsed <= 0 {
		return
	}
	t.tokens = math.Min(t.tokens+elapsed.Seconds()*t.rate, float64(t.burst))
	t.last = now
}

type acquireFuture struct {
	th       *Throttle
	reserved bool
	wait     executor.Future
}

func (f *acquireFuture) Poll(w *executor.Waker) executor.Poll {
	if !f.reserved {
		f.reserved = true
		f.wait = Delay(f.th.reserve())
	}
	return f.wait.Poll(w)
}
