package reconcile

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/metrics"
)

type job struct {
	keys    []string
	run     func(ctx context.Context)
	started bool
}

// dispatcher runs jobs concurrently while keeping jobs that share a key in
// submission order. Every key has a FIFO; a job starts only once it heads the
// FIFO of each of its keys. Bulk jobs carry many keys and so wait for, and
// hold back, every entity they touch.
type dispatcher struct {
	log *logrus.Logger
	sem *semaphore.Weighted

	mu     sync.Mutex
	queues map[string][]*job

	wg      sync.WaitGroup
	pending atomic.Int64
}

func newDispatcher(log *logrus.Logger, concurrency int) *dispatcher {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &dispatcher{
		log:    log,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		queues: make(map[string][]*job),
	}
}

// submit queues run under keys. It never blocks.
func (d *dispatcher) submit(keys []string, run func(ctx context.Context)) {
	j := &job{keys: slices.Compact(slices.Sorted(slices.Values(keys))), run: run}

	d.wg.Add(1)
	metrics.PushQueueDepth.Set(float64(d.pending.Add(1)))

	d.mu.Lock()
	for _, k := range j.keys {
		d.queues[k] = append(d.queues[k], j)
	}
	ready := d.readyLocked(j)
	d.mu.Unlock()

	if ready {
		go d.execute(j)
	}
}

// readyLocked marks j started and reports true if it heads all its queues.
func (d *dispatcher) readyLocked(j *job) bool {
	if j.started {
		return false
	}
	for _, k := range j.keys {
		if q := d.queues[k]; len(q) == 0 || q[0] != j {
			return false
		}
	}
	j.started = true
	return true
}

func (d *dispatcher) execute(j *job) {
	defer d.wg.Done()

	ctx := context.Background()
	if err := d.sem.Acquire(ctx, 1); err == nil {
		d.runSafely(ctx, j)
		d.sem.Release(1)
	}

	metrics.PushQueueDepth.Set(float64(d.pending.Add(-1)))
	d.finish(j)
}

func (d *dispatcher) runSafely(ctx context.Context, j *job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithError(fmt.Errorf("panic: %v", r)).WithField("keys", len(j.keys)).Error("push job panicked")
		}
	}()
	j.run(ctx)
}

func (d *dispatcher) finish(j *job) {
	var next []*job

	d.mu.Lock()
	for _, k := range j.keys {
		q := d.queues[k][1:]
		if len(q) == 0 {
			delete(d.queues, k)
			continue
		}
		d.queues[k] = q
		if d.readyLocked(q[0]) {
			next = append(next, q[0])
		}
	}
	d.mu.Unlock()

	for _, n := range next {
		go d.execute(n)
	}
}

// wait blocks until every submitted job has finished.
func (d *dispatcher) wait() {
	d.wg.Wait()
}
