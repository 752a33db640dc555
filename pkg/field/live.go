package field

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ElementsProvider loads the element list of one field asynchronously, for
// example the users that can be picked as a post author.
type ElementsProvider interface {
	Elements(ctx context.Context) ([]Element, error)
}

// ElementsProviderFunc adapts a function into an ElementsProvider.
type ElementsProviderFunc func(ctx context.Context) ([]Element, error)

// Elements calls the underlying function.
func (fn ElementsProviderFunc) Elements(ctx context.Context) ([]Element, error) {
	return fn(ctx)
}

// Status is the lifecycle of a Live field set.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Snapshot is what subscribers receive. While loading, Fields holds the base
// descriptors normalized without the asynchronous elements.
type Snapshot struct {
	Status Status
	Fields []Field
	Err    error
}

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("field: live field set closed")

// Live recomputes a field set when asynchronously provided elements resolve.
// The subscriber is never invoked after Close returns, and results of fetches
// still running at that point are discarded. Subscribers must not call Close.
type Live struct {
	base      []Descriptor
	providers map[string]ElementsProvider
	notify    func(Snapshot)
	opts      []Option
	logger    *zap.Logger

	mu      sync.Mutex
	last    Snapshot
	cancel  context.CancelFunc
	done    chan struct{}
	started bool

	publishMu sync.Mutex
	closed    bool
}

// NewLive wires base descriptors with element providers keyed by field id.
func NewLive(base []Descriptor, providers map[string]ElementsProvider, notify func(Snapshot), opts ...Option) *Live {
	cfg := newOptions(opts)
	return &Live{
		base:      append([]Descriptor(nil), base...),
		providers: providers,
		notify:    notify,
		opts:      opts,
		logger:    cfg.logger,
		last:      Snapshot{Status: StatusLoading},
	}
}

// Start publishes a loading snapshot synchronously and then fetches every
// provider concurrently. It returns an error when the base descriptors do not
// normalize or a provider targets an unknown field.
func (l *Live) Start(ctx context.Context) error {
	l.publishMu.Lock()
	closed := l.closed
	l.publishMu.Unlock()
	if closed {
		return ErrClosed
	}

	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return errors.New("field: live field set already started")
	}
	l.started = true
	l.mu.Unlock()

	for id := range l.providers {
		if !hasDescriptor(l.base, id) {
			return fmt.Errorf("field: elements provider for unknown field %q", id)
		}
	}

	initial, err := Normalize(l.base, l.opts...)
	if err != nil {
		return err
	}
	l.publish(Snapshot{Status: StatusLoading, Fields: initial})

	fetchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.publishMu.Lock()
	if l.closed {
		l.publishMu.Unlock()
		cancel()
		return nil
	}
	l.mu.Lock()
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()
	l.publishMu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		l.publish(l.resolve(fetchCtx))
	}()
	return nil
}

func (l *Live) resolve(ctx context.Context) Snapshot {
	var (
		mu       sync.Mutex
		resolved = make(map[string][]Element, len(l.providers))
	)
	group, groupCtx := errgroup.WithContext(ctx)
	for id, provider := range l.providers {
		group.Go(func() error {
			elements, err := provider.Elements(groupCtx)
			if err != nil {
				return fmt.Errorf("field: load elements for %q: %w", id, err)
			}
			mu.Lock()
			resolved[id] = elements
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		l.logger.Warn("field: elements provider failed", zap.Error(err))
		return Snapshot{Status: StatusFailed, Fields: l.Snapshot().Fields, Err: err}
	}

	descriptors := make([]Descriptor, len(l.base))
	for i, desc := range l.base {
		if elements, ok := resolved[desc.ID]; ok {
			desc.Elements = append(cloneElements(desc.Elements), elements...)
		}
		descriptors[i] = desc
	}
	fields, err := Normalize(descriptors, l.opts...)
	if err != nil {
		return Snapshot{Status: StatusFailed, Fields: l.Snapshot().Fields, Err: err}
	}
	return Snapshot{Status: StatusReady, Fields: fields}
}

func (l *Live) publish(snapshot Snapshot) {
	l.publishMu.Lock()
	defer l.publishMu.Unlock()
	if l.closed {
		l.logger.Debug("field: discarding snapshot after close", zap.Stringer("status", snapshot.Status))
		return
	}
	l.mu.Lock()
	l.last = snapshot
	l.mu.Unlock()
	if l.notify != nil {
		l.notify(snapshot)
	}
}

// Snapshot returns the latest published snapshot.
func (l *Live) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.last
	out.Fields = append([]Field(nil), l.last.Fields...)
	return out
}

// Wait blocks until the provider fetch started by Start finishes.
func (l *Live) Wait() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close cancels pending fetches. No snapshot is published after Close
// returns.
func (l *Live) Close() {
	l.publishMu.Lock()
	l.closed = true
	l.publishMu.Unlock()

	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func hasDescriptor(descriptors []Descriptor, id string) bool {
	for _, desc := range descriptors {
		if desc.ID == id {
			return true
		}
	}
	return false
}
