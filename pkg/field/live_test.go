package field

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/goliatone/go-dataviews/pkg/controls"
)

type recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (r *recorder) notify(s Snapshot) {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, s)
	r.mu.Unlock()
}

func (r *recorder) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, len(r.snapshots))
	for i, s := range r.snapshots {
		out[i] = s.Status
	}
	return out
}

func authorDescriptors() []Descriptor {
	return []Descriptor{
		{ID: "title", Type: TypeText},
		{ID: "author", Type: TypeInteger},
	}
}

func TestLive_LoadingThenReady(t *testing.T) {
	rec := &recorder{}
	authors := ElementsProviderFunc(func(context.Context) ([]Element, error) {
		return []Element{
			{Value: 1, Label: "Ada"},
			{Value: 2, Label: "Grace"},
			{Value: 3, Label: "Hedy"},
			{Value: 4, Label: "Radia"},
		}, nil
	})

	live := NewLive(authorDescriptors(), map[string]ElementsProvider{"author": authors}, rec.notify)
	if err := live.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	live.Wait()

	statuses := rec.statuses()
	if len(statuses) != 2 || statuses[0] != StatusLoading || statuses[1] != StatusReady {
		t.Fatalf("unexpected status sequence: %v", statuses)
	}

	snap := live.Snapshot()
	author, ok := Lookup(snap.Fields, "author")
	if !ok {
		t.Fatalf("author field missing")
	}
	if len(author.Elements) != 4 {
		t.Fatalf("expected resolved elements, got %d", len(author.Elements))
	}
	if author.Edit != controls.ControlSelect {
		t.Fatalf("expected select control once elements resolve, got %q", author.Edit)
	}
	if got := author.Render(Item{"author": 2.0}); got != "Grace" {
		t.Fatalf("expected element label render, got %q", got)
	}
}

func TestLive_ProviderFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	rec := &recorder{}
	boom := errors.New("boom")
	live := NewLive(authorDescriptors(), map[string]ElementsProvider{
		"author": ElementsProviderFunc(func(context.Context) ([]Element, error) { return nil, boom }),
	}, rec.notify)
	if err := live.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	live.Wait()

	snap := live.Snapshot()
	if snap.Status != StatusFailed || !errors.Is(snap.Err, boom) {
		t.Fatalf("expected failed snapshot wrapping provider error, got %+v", snap)
	}
	if len(snap.Fields) != 2 {
		t.Fatalf("expected loading fields to survive a failure, got %d", len(snap.Fields))
	}
}

func TestLive_CloseDiscardsLateResults(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	rec := &recorder{}
	release := make(chan struct{})
	entered := make(chan struct{})
	provider := ElementsProviderFunc(func(ctx context.Context) ([]Element, error) {
		close(entered)
		<-release
		return []Element{{Value: 1, Label: "Ada"}}, nil
	})

	live := NewLive(authorDescriptors(), map[string]ElementsProvider{"author": provider}, rec.notify)
	if err := live.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-entered
	live.Close()
	close(release)
	live.Wait()

	statuses := rec.statuses()
	if len(statuses) != 1 || statuses[0] != StatusLoading {
		t.Fatalf("expected only the loading snapshot, got %v", statuses)
	}
	if err := live.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on restart, got %v", err)
	}
}

func TestLive_CloseDuringLoadingCancelsFetch(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	blocking := ElementsProviderFunc(func(ctx context.Context) ([]Element, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	closed := make(chan struct{})
	var live *Live
	live = NewLive(authorDescriptors(), map[string]ElementsProvider{"author": blocking}, func(s Snapshot) {
		if s.Status == StatusLoading {
			go func() {
				live.Close()
				close(closed)
			}()
		}
	})
	if err := live.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-closed

	waited := make(chan struct{})
	go func() {
		live.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatalf("fetch kept running after close")
	}
}

func TestLive_UnknownProviderField(t *testing.T) {
	live := NewLive(authorDescriptors(), map[string]ElementsProvider{
		"editor": ElementsProviderFunc(func(context.Context) ([]Element, error) { return nil, nil }),
	}, nil)
	if err := live.Start(context.Background()); err == nil {
		t.Fatalf("expected error for provider without field")
	}
}
