package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the caller when the
	// buffer is full. Dropped events are counted.
	DropIfFull bool
}

// Dispatcher forwards events to a sink from a single goroutine, so sinks
// see events in emission order and need no locking of their own.
type Dispatcher struct {
	cfg     Config
	sink    Sink
	events  chan Event
	stop    chan struct{}
	drained chan struct{}

	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher returns nil when cfg.Enabled is false; every method is
// nil-safe.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:     cfg,
		sink:    sink,
		events:  make(chan Event, cfg.BufferSize),
		stop:    make(chan struct{}),
		drained: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.drained)
	ctx := context.Background()
	for {
		select {
		case ev := <-d.events:
			d.sink.Emit(ctx, ev)
		case <-d.stop:
			for {
				select {
				case ev := <-d.events:
					d.sink.Emit(ctx, ev)
				default:
					return
				}
			}
		}
	}
}

// Emit queues ev. After Close it is a no-op.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.events <- ev:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.events <- ev:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stop:
	}
}

// Close stops accepting events and waits for the queue to drain or ctx to
// end, whichever comes first.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.stop)
	})
	select {
	case <-d.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
