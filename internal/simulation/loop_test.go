package simulation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/motorpool/internal/config"
	"github.com/cory-johannsen/motorpool/internal/simulation"
)

// step is one fixed step at 64 Hz; it is exact in both float64 and time.Duration.
const step = 15625 * time.Microsecond

func testClock() config.SimulationConfig {
	sim := config.Default().Simulation
	sim.FixedRateHz = 64
	sim.FrameRateHz = 64
	sim.MaxSubsteps = 4
	return sim
}

func TestLoop_RunsWholeFixedStepsAndCarriesTheRemainder(t *testing.T) {
	l := simulation.NewLoop(testClock(), zaptest.NewLogger(t))
	var fixed int
	l.RegisterFixed("count", simulation.FixedTickerFunc(func(dt float64) {
		assert.Equal(t, 0.015625, dt)
		fixed++
	}))

	stats := l.Advance(step / 2)
	assert.Equal(t, 0, stats.Steps)
	assert.Equal(t, time.Duration(0), l.Now())

	stats = l.Advance(step/2 + 2*step)
	assert.Equal(t, 3, stats.Steps)
	assert.Equal(t, 3, fixed)
	assert.Equal(t, 3*step, l.Now())
	assert.Equal(t, uint64(2), stats.Frame)
}

func TestLoop_DropsBacklogBeyondMaxSubsteps(t *testing.T) {
	l := simulation.NewLoop(testClock(), zaptest.NewLogger(t))
	var fixed int
	l.RegisterFixed("count", simulation.FixedTickerFunc(func(float64) { fixed++ }))

	stats := l.Advance(10 * step)
	assert.Equal(t, 4, stats.Steps)
	assert.Equal(t, 6, stats.Dropped)
	assert.Equal(t, 4*step, stats.Now)

	stats = l.Advance(step)
	assert.Equal(t, 1, stats.Steps, "the dropped backlog is not replayed")
	assert.Equal(t, 5, fixed)
}

func TestLoop_FixedStepsRunBeforeFrameTickersInRegistrationOrder(t *testing.T) {
	l := simulation.NewLoop(testClock(), zaptest.NewLogger(t))
	var calls []string
	record := func(name string) simulation.TickerFunc {
		return func(time.Duration) { calls = append(calls, name) }
	}
	l.RegisterFrame("b", record("b"))
	l.RegisterFrame("a", record("a"))
	l.RegisterFixed("physics", simulation.FixedTickerFunc(func(float64) { calls = append(calls, "physics") }))

	l.Advance(step)
	assert.Equal(t, []string{"physics", "b", "a"}, calls)

	calls = nil
	l.RegisterFrame("b", record("b2"))
	l.Unregister("physics")
	l.Advance(step)
	assert.Equal(t, []string{"b2", "a"}, calls, "replacing keeps the slot")
}

func TestLoop_FrameTickersReceiveFrameDelta(t *testing.T) {
	l := simulation.NewLoop(testClock(), zaptest.NewLogger(t))
	var got time.Duration
	l.RegisterFrame("dt", simulation.TickerFunc(func(dt time.Duration) { got = dt }))

	l.Advance(7 * time.Millisecond)
	assert.Equal(t, 7*time.Millisecond, got)

	l.Advance(-time.Second)
	assert.Equal(t, time.Duration(0), got)
}

func TestLoop_SubscribeNeverBlocks(t *testing.T) {
	l := simulation.NewLoop(testClock(), zaptest.NewLogger(t))
	ch := make(chan simulation.FrameStats, 1)
	l.Subscribe(ch)

	l.Advance(step)
	l.Advance(step)

	got := <-ch
	assert.Equal(t, uint64(1), got.Frame)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected second stats %+v", extra)
	default:
	}
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	l := simulation.NewLoop(testClock(), zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := l.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, l.Now(), time.Duration(0))
}

func TestNewLoop_PanicsOnInvalidClock(t *testing.T) {
	sim := testClock()
	sim.MaxSubsteps = 0
	assert.Panics(t, func() { simulation.NewLoop(sim, nil) })
}

func TestPropertyLoop_SubstepsBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		l := simulation.NewLoop(testClock(), nil)
		var total int
		frames := rapid.SliceOfN(rapid.Int64Range(0, int64(200*time.Millisecond)), 1, 50).Draw(rt, "frames")
		for _, f := range frames {
			stats := l.Advance(time.Duration(f))
			if stats.Steps > 4 {
				rt.Fatalf("%d steps in one frame", stats.Steps)
			}
			total += stats.Steps
		}
		if l.Now() != time.Duration(total)*step {
			rt.Fatalf("now %v after %d steps", l.Now(), total)
		}
	})
}
