package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitRunsCallbacksInOrder(t *testing.T) {
	// Capture SIGINT up front so the self-signal below can never hit the
	// default handler.
	guard := make(chan os.Signal, 1)
	signal.Notify(guard, syscall.SIGINT)
	defer signal.Stop(guard)

	var mu sync.Mutex
	var order []string
	record := func(name string) Callback {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	OnShutdown(record("async"))
	OnShutdown(record("sync-first"), true)
	OnShutdown(record("sync-second"), true)

	done := make(chan struct{})
	go func() {
		Wait()
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	Shutdown()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"async", "sync-second", "sync-first"}, order)
}
