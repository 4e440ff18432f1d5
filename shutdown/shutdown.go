package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// Callback releases one resource. It receives the shared drain context
// and should return once its work is done or the context expires.
type Callback func(ctx context.Context) error

var (
	mu         sync.RWMutex
	asyncStops []Callback
	syncStops  []Callback
	timeout    = 10 * time.Second
	stopOnce   sync.Once
)

// OnShutdown registers a callback. Async callbacks (the default) run
// first, in parallel; sync callbacks run afterwards in reverse
// registration order, so dependencies unwind the way they were built.
func OnShutdown(cb Callback, synchronous ...bool) {
	mu.Lock()
	defer mu.Unlock()
	if len(synchronous) > 0 && synchronous[0] {
		syncStops = append(syncStops, cb)
		return
	}
	asyncStops = append(asyncStops, cb)
}

// SetTimeout bounds the whole drain, 10 seconds by default.
func SetTimeout(d time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	timeout = d
}

// Wait blocks until SIGINT or SIGTERM, then runs every registered
// callback within the timeout. Safe to call from multiple goroutines;
// the callbacks run once and every caller returns when they finish.
func Wait() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	<-c
	stopOnce.Do(runStops)
}

func runStops() {
	logrus.Info("shutdown signal received")
	mu.RLock()
	defer mu.RUnlock()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, cb := range asyncStops {
		cb := cb
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := cb(ctx); err != nil {
				logrus.WithError(err).Error("shutdown error")
			}
		}()
	}
	wg.Wait()

	for i := len(syncStops) - 1; i >= 0; i-- {
		if err := syncStops[i](ctx); err != nil {
			logrus.WithError(err).Error("shutdown error")
		}
	}
	logrus.Info("shutdown completed")
}

// Shutdown triggers the drain from inside the process.
func Shutdown() {
	p, _ := os.FindProcess(os.Getpid())
	_ = p.Signal(syscall.SIGINT)
}
