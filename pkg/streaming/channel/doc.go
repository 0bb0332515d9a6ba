/*
Package channel provides a bounded, goroutine-safe FIFO with configurable
backpressure.

Unlike a native Go channel, a BackpressureChannel decides what happens when
the buffer is full:

  - Block: the producer waits for space, bounded by ctx and Config.SendTimeout
  - Drop: the newest value is discarded and reported through OnDrop
  - DropOldest: the oldest buffered value is evicted to make room
  - Error: the send fails with ErrChannelFull

Closing never panics a sender: sends after Close return ErrChannelClosed, and
values buffered before Close can still be received.

Basic usage as a bounded work queue with producer timeouts:

	q := channel.NewWithConfig[Job](channel.Config{
		BufferSize:  64,
		Strategy:    channel.Block,
		SendTimeout: 100 * time.Millisecond,
	})
	defer q.Close()

	if err := q.Send(ctx, job); errors.Is(err, channel.ErrSendTimeout) {
		// producer is outrunning consumers
	}

	job, ok, err := q.TryReceive()

The executor package uses a channel with the Error strategy as its wake
channel so that waking a task never blocks.
*/
package channel
