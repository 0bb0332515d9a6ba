package wakesource

import (
	"sync/atomic"
	"time"

	"github.com/vnykmshr/taskloop/pkg/executor"
)

// Delay returns a future that becomes Ready d after its first poll.
// A non-positive d is Ready immediately.
func Delay(d time.Duration) executor.Future {
	return &delay{d: d}
}

type delay struct {
	d     time.Duration
	timer *time.Timer
	fired atomic.Bool
}

func (f *delay) Poll(w *executor.Waker) executor.Poll {
	if f.d <= 0 || f.fired.Load() {
		return executor.Ready
	}
	if f.timer == nil {
		f.timer = time.AfterFunc(f.d, func() {
			f.fired.Store(true)
			w.Wake()
		})
	}
	return executor.Pending
}
