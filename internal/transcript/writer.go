package transcript

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/garyellow/course-advisor-go/internal/ctxutil"
	"github.com/garyellow/course-advisor-go/internal/logger"
	"github.com/garyellow/course-advisor-go/internal/metrics"
	"github.com/garyellow/course-advisor-go/internal/session"
)

const (
	defaultBufferSize   = 256
	defaultWriteTimeout = 10 * time.Second
)

// ErrWriterClosed is returned by Flush after Close.
var ErrWriterClosed = errors.New("transcript writer closed")

// WriterOptions configures a Writer.
type WriterOptions struct {
	BufferSize   int           // Queued transcripts before new ones are dropped
	WriteTimeout time.Duration // Per-write deadline
	Logger       *logger.Logger
	Metrics      *metrics.Metrics
}

type job struct {
	ctx     context.Context // carries tracing values only
	userID  string
	entries []Entry
	flushed chan struct{} // Non-nil for flush markers
}

// Writer hands transcripts to a Sink on a single background goroutine.
// Submissions are processed in order, so the newest transcript of a user
// always lands last. When the queue is full new submissions are dropped.
type Writer struct {
	sink         Sink
	logger       *logger.Logger
	metrics      *metrics.Metrics
	writeTimeout time.Duration

	mu     sync.RWMutex // Guards closed and sends on ch
	closed bool
	ch     chan job
	wg     sync.WaitGroup
}

// NewWriter starts a writer draining into sink.
func NewWriter(sink Sink, opts WriterOptions) *Writer {
	bufferSize := opts.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	w := &Writer{
		sink:         sink,
		logger:       opts.Logger.WithModule("transcript").WithField("sink", sink.Name()),
		metrics:      opts.Metrics,
		writeTimeout: writeTimeout,
		ch:           make(chan job, bufferSize),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *Writer) run() {
	defer w.wg.Done()
	for j := range w.ch {
		if j.flushed != nil {
			close(j.flushed)
			continue
		}
		w.write(j)
	}
}

func (w *Writer) write(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, w.writeTimeout)
	defer cancel()

	if err := w.sink.Write(ctx, j.userID, j.entries); err != nil {
		w.metrics.RecordTranscriptWrite(w.sink.Name(), "error")
		w.logger.WithError(err).WarnContext(ctx, "Failed to write transcript")
		return
	}
	w.metrics.RecordTranscriptWrite(w.sink.Name(), "success")
}

// Submit queues userID's full transcript. It never blocks. Only the tracing
// values of ctx travel with the write.
func (w *Writer) Submit(ctx context.Context, userID string, messages []session.Message) {
	entries := FromMessages(messages)
	ctx = ctxutil.PreserveTracing(ctxutil.WithUserID(ctx, userID))

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}

	select {
	case w.ch <- job{ctx: ctx, userID: userID, entries: entries}:
	default:
		w.metrics.RecordTranscriptDropped()
		w.logger.WarnContext(ctx, "Transcript queue full, dropping write")
	}
}

// Flush waits until every transcript submitted before the call is written.
func (w *Writer) Flush(ctx context.Context) error {
	done := make(chan struct{})

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrWriterClosed
	}
	select {
	case w.ch <- job{flushed: done}:
		w.mu.RUnlock()
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued transcripts, then closes the sink. Later submissions
// are ignored. Safe to call multiple times.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return w.sink.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}
