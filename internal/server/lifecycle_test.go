package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockService struct {
	started atomic.Bool
	stopped atomic.Bool
	runFn   func(ctx context.Context) error
	onStop  func()
}

func (m *mockService) Run(ctx context.Context) error {
	m.started.Store(true)
	defer m.stopped.Store(true)
	if m.runFn != nil {
		return m.runFn(ctx)
	}
	<-ctx.Done()
	if m.onStop != nil {
		m.onStop()
	}
	return ctx.Err()
}

func waitStarted(t *testing.T, svcs ...*mockService) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		all := true
		for _, s := range svcs {
			all = all && s.started.Load()
		}
		if all {
			return
		}
		select {
		case <-deadline:
			t.Fatal("services did not start in time")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestLifecycleStartsAndStopsServicesInReverseOrder(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))

	var mu sync.Mutex
	var order []string
	stopped := func(name string) func() {
		return func() {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		}
	}
	svc1 := &mockService{onStop: stopped("svc1")}
	svc2 := &mockService{onStop: stopped("svc2")}
	lc.Add("svc1", svc1)
	lc.Add("svc2", svc2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- lc.Run(ctx)
	}()
	waitStarted(t, svc1, svc2)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}

	assert.True(t, svc1.stopped.Load())
	assert.True(t, svc2.stopped.Load())
	mu.Lock()
	defer mu.Unlock()
	// Parent cancellation reaches both at once; only check both stopped.
	assert.ElementsMatch(t, []string{"svc1", "svc2"}, order)
}

func TestLifecycleFinishedServiceStopsTheRest(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	var stopOrder []string
	var mu sync.Mutex
	record := func(name string) func() {
		return func() {
			mu.Lock()
			defer mu.Unlock()
			stopOrder = append(stopOrder, name)
		}
	}
	a := &mockService{onStop: record("a")}
	b := &mockService{onStop: record("b")}
	lc.Add("a", a)
	lc.Add("b", b)
	lc.Add("finite", ServiceFunc(func(context.Context) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	}))

	require.NoError(t, lc.Run(context.Background()))
	assert.True(t, a.stopped.Load())
	assert.True(t, b.stopped.Load())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"b", "a"}, stopOrder)
}

func TestLifecycleReturnsServiceError(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	boom := errors.New("boom")
	other := &mockService{}
	lc.Add("other", other)
	lc.Add("failing", ServiceFunc(func(context.Context) error { return boom }))

	err := lc.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, other.stopped.Load())
}

func TestLifecycleStopTimeout(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.SetStopTimeout(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	lc.Add("stuck", ServiceFunc(func(context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	require.NoError(t, lc.Run(ctx))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestServiceFunc(t *testing.T) {
	called := false
	svc := ServiceFunc(func(ctx context.Context) error {
		called = true
		return ctx.Err()
	})
	assert.NoError(t, svc.Run(context.Background()))
	assert.True(t, called)
}
