package wakesource

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/taskloop/pkg/executor"
)

// cronParser accepts six-field expressions with seconds and descriptors
// such as "@every 5s".
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Cron notifies its waiters on every activation of a cron schedule.
type Cron struct {
	cron     *cron.Cron
	schedule cron.Schedule
	entry    cron.EntryID
	event    *Event
	ticks    atomic.Int64
}

// NewCron parses a six-field cron expression (seconds first) or a
// descriptor like "@every 1m".
func NewCron(expr string) (*Cron, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression '%s': %w", expr, err)
	}
	return NewCronWithSchedule(schedule), nil
}

// NewCronWithSchedule uses an already built schedule.
func NewCronWithSchedule(schedule cron.Schedule) *Cron {
	c := &Cron{
		cron:     cron.New(cron.WithParser(cronParser)),
		schedule: schedule,
		event:    NewEvent(),
	}
	c.entry = c.cron.Schedule(schedule, cron.FuncJob(c.fire))
	return c
}

func (c *Cron) fire() {
	c.ticks.Add(1)
	c.event.Notify()
}

// Start begins firing in the background.
func (c *Cron) Start() {
	c.cron.Start()
}

// Stop halts the schedule and waits for an in-flight activation.
func (c *Cron) Stop() {
	<-c.cron.Stop().Done()
}

// Next returns the time of the next activation.
func (c *Cron) Next() time.Time {
	if next := c.cron.Entry(c.entry).Next; !next.IsZero() {
		return next
	}
	return c.schedule.Next(time.Now())
}

// Ticks returns the number of activations so far.
func (c *Cron) Ticks() int64 {
	return c.ticks.Load()
}

// Tick returns a future that is Ready after the next activation.
func (c *Cron) Tick() executor.Future {
	return c.event.Await()
}
