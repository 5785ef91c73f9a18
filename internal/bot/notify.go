package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Notifier runs the secondary sends: certificates, encouragements, creator
// pings, delayed menus, broadcast fan-out. Delivery is best effort: a
// failed job is logged and dropped, never retried, and never blocks the
// primary response.
type Notifier struct {
	log   *slog.Logger
	jobs  chan notifyJob
	wg    sync.WaitGroup
	sleep func(time.Duration) // stubbed out in tests

	closeOnce sync.Once
}

type notifyJob struct {
	name  string
	delay time.Duration
	fn    func(ctx context.Context) error
}

const notifyTimeout = 30 * time.Second

func NewNotifier(log *slog.Logger, workers, buffer int) *Notifier {
	return newNotifier(log, workers, buffer, time.Sleep)
}

func newNotifier(log *slog.Logger, workers, buffer int, sleep func(time.Duration)) *Notifier {
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 256
	}
	n := &Notifier{log: log, jobs: make(chan notifyJob, buffer), sleep: sleep}
	n.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go n.worker()
	}
	return n
}

// Submit queues a background send. A full queue drops the job (logged):
// secondary messages are expendable, the primary turn is not.
func (n *Notifier) Submit(name string, delay time.Duration, fn func(ctx context.Context) error) {
	select {
	case n.jobs <- notifyJob{name: name, delay: delay, fn: fn}:
	default:
		n.log.Warn("notifier queue full, dropping job", "job", name)
	}
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for job := range n.jobs {
		if job.delay > 0 {
			n.sleep(job.delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		if err := job.fn(ctx); err != nil {
			n.log.Warn("background send failed", "job", job.name, "err", err)
		}
		cancel()
	}
}

// Close drains queued jobs and stops the workers.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() { close(n.jobs) })
	n.wg.Wait()
}
