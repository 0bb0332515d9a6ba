/*
Package workerpool maps a stream of items through a function on a fixed
number of worker goroutines.

A pool applies one Func to every submitted item and produces exactly one
Result per accepted item. The input queue is bounded (twice the worker count
by default), so Submit applies backpressure to producers.

Basic usage:

	pool := workerpool.New(4, func(ctx context.Context, n int) (int, error) {
		return n * n, nil
	})

	go func() {
		for i := 0; i < 10; i++ {
			_ = pool.Submit(ctx, i)
		}
		pool.Shutdown()
	}()

	for r := range pool.Results() {
		fmt.Println(r.Item, r.Value, r.Error)
	}

Streams:

ProcessStream fans a sequence out to the workers and fans the results back
in, in completion order:

	for r := range pool.ProcessStream(ctx, slices.Values(items)) {
		...
	}

Failure handling:

Errors returned by the function are carried in Result.Error. A panic is
recovered, reported to Config.PanicHandler and surfaced as an error wrapping
ErrItemPanicked; the worker keeps running. Config.TaskTimeout bounds every
call through the context passed to the function.

Shutdown:

Shutdown stops accepting items, lets the workers drain the queue and closes
Results once they exit. ShutdownContext additionally discards undelivered
results when its context expires.

Metrics:

Setting Config.Metrics records pool size, active workers, queue depth, item
outcomes and durations under the pool's Name.
*/
package workerpool
