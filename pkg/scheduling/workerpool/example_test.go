package workerpool_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/vnykmshr/taskloop/pkg/scheduling/workerpool"
)

// Example demonstrates basic usage of the worker pool
func Example() {
	pool := workerpool.New(3, func(_ context.Context, s string) (string, error) {
		return strings.ToUpper(s), nil
	})

	for _, s := range []string{"a", "b", "c"} {
		if err := pool.Submit(context.Background(), s); err != nil {
			fmt.Println("submit:", err)
		}
	}
	pool.Shutdown()

	var out []string
	for r := range pool.Results() {
		out = append(out, r.Value)
	}
	sort.Strings(out)
	fmt.Println(out)

	// Output: [A B C]
}

// ExamplePool_ProcessStream maps a sequence through the pool
func ExamplePool_ProcessStream() {
	pool := workerpool.New(4, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, errors.New("unlucky")
		}
		return n * 10, nil
	})
	defer pool.Shutdown()

	total, failed := 0, 0
	for r := range pool.ProcessStream(context.Background(), slices.Values([]int{1, 2, 3, 4})) {
		if r.Error != nil {
			failed++
			continue
		}
		total += r.Value
	}
	fmt.Println("total:", total, "failed:", failed)

	// Output: total: 70 failed: 1
}
