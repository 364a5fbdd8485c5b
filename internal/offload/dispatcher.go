package offload

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/e7canasta/frame-archiver/internal/stage"
)

// Stats is a point-in-time snapshot of dispatcher counters
type Stats struct {
	// Enqueued is the number of artifacts accepted into the queue
	Enqueued uint64
	// Uploaded is the number of completed uploads
	Uploaded uint64
	// Failed is the number of failed uploads
	Failed uint64
	// Dropped is the number of artifacts rejected because the queue was full
	Dropped uint64
}

// Dispatcher feeds a bounded pool of upload workers from a bounded queue.
//
// Dispatch never blocks: a full queue drops the artifact, leaving its file
// for the shutdown sweep. Queue depth is the backpressure signal between
// the sampling path and the object store.
type Dispatcher struct {
	uploader *Uploader
	queue    chan *stage.Artifact

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	enqueued atomic.Uint64
	dropped  atomic.Uint64
	stopped  atomic.Bool
}

// NewDispatcher starts the worker pool.
//
// Workers consume the queue until Stop; each runs one Offload at a time.
func NewDispatcher(uploader *Uploader, workers, queueDepth int) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		uploader: uploader,
		queue:    make(chan *stage.Artifact, queueDepth),
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	slog.Info("offload: dispatcher started",
		"workers", workers,
		"queue_depth", queueDepth,
	)
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case artifact := <-d.queue:
			d.uploader.Offload(d.ctx, artifact)
		}
	}
}

// Dispatch queues one artifact for upload without blocking.
//
// Returns false when the artifact was dropped (queue full or dispatcher
// stopped); the staged file stays behind for the shutdown sweep.
func (d *Dispatcher) Dispatch(artifact *stage.Artifact) bool {
	if d.stopped.Load() {
		d.dropped.Add(1)
		slog.Debug("offload: dispatcher stopped, dropping artifact", "key", artifact.Key)
		return false
	}

	select {
	case d.queue <- artifact:
		d.enqueued.Add(1)
		return true
	default:
		d.dropped.Add(1)
		slog.Debug("offload: queue full, dropping artifact",
			"key", artifact.Key,
			"path", artifact.LocalPath,
		)
		return false
	}
}

// Stop aborts in-flight uploads and joins the workers.
//
// Queued-but-unstarted artifacts are abandoned; the shutdown sweep removes
// their files. Idempotent.
func (d *Dispatcher) Stop() {
	if !d.stopped.CompareAndSwap(false, true) {
		return
	}

	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Debug("offload: workers stopped cleanly")
	case <-time.After(3 * time.Second):
		slog.Warn("offload: stop timeout exceeded, some workers may still be running")
	}

	stats := d.Stats()
	slog.Info("offload: dispatcher stopped",
		"enqueued", stats.Enqueued,
		"uploaded", stats.Uploaded,
		"failed", stats.Failed,
		"dropped", stats.Dropped,
	)
}

// Stats returns current dispatcher statistics
func (d *Dispatcher) Stats() Stats {
	uploaded, failed := d.uploader.Stats()
	return Stats{
		Enqueued: d.enqueued.Load(),
		Uploaded: uploaded,
		Failed:   failed,
		Dropped:  d.dropped.Load(),
	}
}
