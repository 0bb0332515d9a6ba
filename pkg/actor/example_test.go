package actor_test

import (
	"context"
	"fmt"

	"github.com/vnykmshr/taskloop/pkg/actor"
)

type deposit struct {
	amount int
	reply  chan int
}

func Example() {
	sys := actor.NewSystem()
	defer sys.Shutdown(context.Background())

	balance := 0
	account, err := actor.Spawn(sys, "account", actor.HandlerFunc[deposit](func(_ context.Context, d deposit) {
		balance += d.amount
		if d.reply != nil {
			d.reply <- balance
		}
	}))
	if err != nil {
		fmt.Println("spawn:", err)
		return
	}

	ctx := context.Background()
	_ = account.Send(ctx, deposit{amount: 10})
	_ = account.Send(ctx, deposit{amount: 5})

	reply := make(chan int, 1)
	_ = account.Send(ctx, deposit{amount: 0, reply: reply})
	fmt.Println("balance:", <-reply)

	// Output: balance: 15
}
