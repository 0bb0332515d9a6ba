/*
Package scheduling groups the components that run work outside the executor's
single-goroutine loop.

  - workerpool: fixed worker pool mapping a stream of items to results

Worker pool results are typically fed back into cooperative tasks by waking
their Waker when a result arrives:

	pool := workerpool.New(4, func(ctx context.Context, n int) (int, error) {
		return n * n, nil
	})
	defer pool.Shutdown()

	for r := range pool.ProcessStream(ctx, slices.Values(items)) {
		fmt.Println(r.Item, r.Value, r.Error)
	}
*/
package scheduling
