package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit non-blocking: a full buffer drops the entry.
	// When false, Emit waits for buffer space until the caller's ctx ends,
	// so a slow sink adds latency to the request that emitted the entry.
	DropIfFull bool
	// Anchor is the hash of the newest persisted entry when the process
	// starts, so the chain continues across restarts.
	Anchor string
}

// ErrorFunc receives entries the sink failed to persist.
type ErrorFunc func(entry Entry, err error)

type item struct {
	entry   Entry
	flushed chan struct{}
}

// Dispatcher asynchronously forwards audit entries to a sink. Entries are
// sealed and written by one goroutine in arrival order.
type Dispatcher struct {
	cfg       Config
	sink      Sink
	onError   ErrorFunc
	chain     *Chain
	ch        chan item
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	written   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts a dispatcher. It returns nil when cfg.Enabled is
// false; a nil Dispatcher accepts and discards every call.
func NewDispatcher(cfg Config, sink Sink, onError ErrorFunc) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if onError == nil {
		onError = func(Entry, error) {}
	}

	d := &Dispatcher{
		cfg:     cfg,
		sink:    sink,
		onError: onError,
		chain:   NewChain(cfg.Anchor),
		ch:      make(chan item, cfg.BufferSize),
		done:    make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case it := <-d.ch:
			d.handle(it)
		case <-d.done:
			for {
				select {
				case it := <-d.ch:
					d.handle(it)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) handle(it item) {
	if it.flushed != nil {
		close(it.flushed)
		return
	}

	sealed := d.chain.Seal(it.entry)
	if err := d.sink.Write(context.Background(), sealed); err != nil {
		d.failed.Add(1)
		d.onError(sealed, err)
		return
	}
	d.chain.Commit(sealed)
	d.written.Add(1)
}

// Emit queues entry. It never returns an error; with DropIfFull a full
// buffer drops the entry and counts it, otherwise Emit waits for space or
// for ctx to end.
func (d *Dispatcher) Emit(ctx context.Context, entry Entry) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	it := item{entry: entry}
	if d.cfg.DropIfFull {
		select {
		case d.ch <- it:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- it:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.done:
	}
}

// Flush waits until every entry queued before the call has been handled.
func (d *Dispatcher) Flush(ctx context.Context) error {
	if d == nil || d.closed.Load() {
		return nil
	}

	flushed := make(chan struct{})
	select {
	case d.ch <- item{flushed: flushed}:
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return nil
	}

	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the buffer and stops the writer goroutine.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns the number of entries discarded before reaching the sink.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Failed returns the number of entries the sink rejected.
func (d *Dispatcher) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}

// Written returns the number of entries persisted.
func (d *Dispatcher) Written() uint64 {
	if d == nil {
		return 0
	}
	return d.written.Load()
}
