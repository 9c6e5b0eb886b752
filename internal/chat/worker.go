package chat

import "sync"

// workerQueueSize bounds the number of queued jobs before Submit blocks.
const workerQueueSize = 64

// Worker runs jobs one at a time, in submission order, on a single
// background goroutine. Serializing all durable store access through one
// queue prevents interleaved writes and gives session creation a total
// order.
type Worker struct {
	jobs chan func()
	done chan struct{}

	closeOnce sync.Once
}

// NewWorker starts the background goroutine.
func NewWorker() *Worker {
	w := &Worker{
		jobs: make(chan func(), workerQueueSize),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	for job := range w.jobs {
		job()
	}
}

// Submit enqueues a job. Blocks when the queue is full. Must not be called
// after Close.
func (w *Worker) Submit(job func()) {
	w.jobs <- job
}

// Close stops accepting jobs, runs everything already queued, and waits for
// the goroutine to exit. Safe to call more than once.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.jobs)
	})
	<-w.done
}
