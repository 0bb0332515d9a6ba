/*
Package wakesource provides futures that are completed by events outside the
executor: in-process notifications, timers, cron schedules and Redis Pub/Sub
messages.

Each source calls Waker.Wake from its own goroutine when the awaited event
happens, so a task parked on it is requeued without polling:

	ev := wakesource.NewEvent()
	_ = exec.Spawn(ev.Await())
	go func() { ev.Notify() }()
	_ = exec.RunContext(ctx)

The executor core has no notion of time or I/O; everything here is built on
the public Waker contract.
*/
package wakesource
