/*
Package actor runs named actors, each with its own bounded mailbox and
goroutine.

An actor handles one message at a time, so its state needs no locking.
Mailboxes are BackpressureChannels from the streaming/channel package and
follow the system's strategy when full.

	sys := actor.NewSystem()
	defer sys.Shutdown(context.Background())

	counter := 0
	ref, _ := actor.Spawn(sys, "counter", actor.HandlerFunc[int](func(ctx context.Context, n int) {
		counter += n
	}))
	_ = ref.Send(ctx, 1)

Stop closes an actor's mailbox; messages already queued are still handled
before the actor exits and Done is closed. A panicking actor is terminated
and reported through Config.OnPanic. Sending to a terminated actor returns
ErrTerminated.
*/
package actor
