package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdownClosesInReverseOrder(t *testing.T) {
	m := NewManager(context.Background(), nil)
	rec := &recorder{}
	for _, name := range []string{"source", "engine", "writer"} {
		name := name
		m.Register(name, closerFunc(func() error {
			rec.add(name)
			return nil
		}))
	}

	require.NoError(t, m.Shutdown())
	assert.Equal(t, []string{"writer", "engine", "source"}, rec.order)
	assert.Error(t, m.Context().Err())

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel still open")
	}
}

func TestShutdownAggregatesErrors(t *testing.T) {
	m := NewManager(context.Background(), nil)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	m.Register("a", closerFunc(func() error { return errA }))
	m.Register("ok", closerFunc(func() error { return nil }))
	m.Register("b", closerFunc(func() error { return errB }))

	err := m.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestShutdownIsIdempotent(t *testing.T) {
	m := NewManager(context.Background(), nil)
	calls := 0
	m.Register("once", closerFunc(func() error {
		calls++
		return nil
	}))

	require.NoError(t, m.Shutdown())
	require.NoError(t, m.Shutdown())
	assert.Equal(t, 1, calls)
}

func TestShutdownTimeout(t *testing.T) {
	m := NewManager(context.Background(), nil)
	m.SetTimeout(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	m.Register("stuck", closerFunc(func() error {
		<-release
		return nil
	}))

	err := m.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	m := NewManager(parent, nil)
	m.Listen()
	cancel()

	select {
	case <-m.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}
