package benchmark

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/vnykmshr/taskloop/pkg/streaming/channel"
)

// BenchmarkChannelSend measures blocking send performance.
func BenchmarkChannelSend(b *testing.B) {
	for _, bufSize := range []int{10, 100, 1000} {
		b.Run("buf-"+strconv.Itoa(bufSize), func(b *testing.B) {
			ch := channel.NewWithConfig[int](channel.Config{
				BufferSize: bufSize,
				Strategy:   channel.Block,
			})

			done := make(chan struct{})
			go func() {
				defer close(done)
				for {
					if _, err := ch.Receive(context.Background()); err != nil {
						return
					}
				}
			}()

			b.ReportAllocs()
			b.ResetTimer()
			ctx := context.Background()
			for i := 0; i < b.N; i++ {
				_ = ch.Send(ctx, i)
			}
			b.StopTimer()

			_ = ch.Close()
			<-done
		})
	}
}

// BenchmarkWakeChannelPattern measures the executor's use of the channel:
// many producers TrySend under the Error strategy while one consumer drains
// with TryReceive.
func BenchmarkWakeChannelPattern(b *testing.B) {
	for _, producers := range []int{1, 4, 16} {
		b.Run("producers-"+strconv.Itoa(producers), func(b *testing.B) {
			ch := channel.NewWithConfig[int](channel.Config{
				BufferSize: 10000,
				Strategy:   channel.Error,
			})
			defer func() { _ = ch.Close() }()

			stop := make(chan struct{})
			var consumer sync.WaitGroup
			consumer.Add(1)
			go func() {
				defer consumer.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					for {
						if _, ok, _ := ch.TryReceive(); !ok {
							break
						}
					}
				}
			}()

			b.ReportAllocs()
			b.ResetTimer()

			var wg sync.WaitGroup
			perProducer := b.N / producers
			wg.Add(producers)
			for p := 0; p < producers; p++ {
				go func() {
					defer wg.Done()
					for i := 0; i < perProducer; i++ {
						_ = ch.TrySend(i)
					}
				}()
			}
			wg.Wait()
			b.StopTimer()

			close(stop)
			consumer.Wait()
		})
	}
}

// BenchmarkDropOldestStrategy measures the DropOldest backpressure strategy.
func BenchmarkDropOldestStrategy(b *testing.B) {
	ch := channel.NewWithConfig[int](channel.Config{
		BufferSize: 10,
		Strategy:   channel.DropOldest,
	})
	defer func() { _ = ch.Close() }()

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ch.Send(ctx, i)
	}
}
