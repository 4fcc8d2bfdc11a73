package engine

import (
	"context"
	"log"
	"sync"
	"time"
)

// Detacher runs best-effort background work whose failures are only logged.
// Nothing waits on a detached task except Wait, used on teardown and in tests.
type Detacher struct {
	logger  *log.Logger
	timeout time.Duration

	wg     sync.WaitGroup
	mu     sync.Mutex
	tail   chan struct{}
	closed bool
}

// NewDetacher returns a runner that logs failures to logger. A zero timeout
// leaves tasks unbounded.
func NewDetacher(logger *log.Logger, timeout time.Duration) *Detacher {
	if logger == nil {
		logger = log.Default()
	}
	return &Detacher{logger: logger, timeout: timeout}
}

// Go starts fn in the background. After Close the task is dropped.
func (d *Detacher) Go(name string, fn func(ctx context.Context) error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Printf("Warning: %s dropped: runner closed", name)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()
	go func() {
		defer d.wg.Done()
		d.run(name, fn)
	}()
}

// GoSerial starts fn in the background after every earlier GoSerial task has
// returned, so serial tasks observe call order.
func (d *Detacher) GoSerial(name string, fn func(ctx context.Context) error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Printf("Warning: %s dropped: runner closed", name)
		return
	}
	prev := d.tail
	done := make(chan struct{})
	d.tail = done
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		d.run(name, fn)
	}()
}

func (d *Detacher) run(name string, fn func(ctx context.Context) error) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := fn(ctx); err != nil {
		d.logger.Printf("Warning: %s failed: %v", name, err)
	}
}

// Wait blocks until every started task has returned.
func (d *Detacher) Wait() {
	d.wg.Wait()
}

// Close refuses further tasks and waits for the running ones.
func (d *Detacher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
