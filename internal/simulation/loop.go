// Package simulation drives the two simulation clocks and composes the
// playable scene.
package simulation

import (
	"context"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/config"
)

// Ticker runs once per frame on the variable clock.
type Ticker interface {
	Tick(dt time.Duration)
}

// FixedTicker runs once per fixed physics step. dt is in seconds.
type FixedTicker interface {
	FixedTick(dt float64)
}

// TickerFunc adapts a function to Ticker.
type TickerFunc func(dt time.Duration)

// Tick calls f.
func (f TickerFunc) Tick(dt time.Duration) { f(dt) }

// FixedTickerFunc adapts a function to FixedTicker.
type FixedTickerFunc func(dt float64)

// FixedTick calls f.
func (f FixedTickerFunc) FixedTick(dt float64) { f(dt) }

// FrameStats summarizes one Advance call.
type FrameStats struct {
	Frame uint64
	// Now is the simulation time after the frame's fixed steps.
	Now time.Duration
	// Steps is the number of fixed steps run; Dropped counts steps skipped
	// because the substep cap was reached.
	Steps   int
	Dropped int
}

// Loop runs fixed steps from an accumulator and then one frame tick per Advance.
// Callbacks run in registration order. A Loop is owned by one goroutine.
//
// Invariant: at most MaxSubsteps fixed steps run per Advance.
type Loop struct {
	fixedStep     float64
	fixedDuration time.Duration
	frameInterval time.Duration
	maxSubsteps   int
	logger        *zap.Logger

	fixed  *orderedmap.OrderedMap[string, FixedTicker]
	frame  *orderedmap.OrderedMap[string, Ticker]
	subs   []chan<- FrameStats
	acc    float64
	now    time.Duration
	frames uint64
}

// NewLoop creates a stopped loop from the simulation settings.
//
// Precondition: cfg must satisfy config validation (positive rates, MaxSubsteps >= 1).
// Postcondition: Returns a non-nil *Loop at time zero.
func NewLoop(cfg config.SimulationConfig, logger *zap.Logger) *Loop {
	if cfg.FixedRateHz <= 0 || cfg.FrameRateHz <= 0 || cfg.MaxSubsteps < 1 {
		panic("simulation.NewLoop: invalid clock settings")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	step := cfg.FixedStep()
	return &Loop{
		fixedStep:     step,
		fixedDuration: time.Duration(step * float64(time.Second)),
		frameInterval: cfg.FrameInterval(),
		maxSubsteps:   cfg.MaxSubsteps,
		logger:        logger,
		fixed:         orderedmap.NewOrderedMap[string, FixedTicker](),
		frame:         orderedmap.NewOrderedMap[string, Ticker](),
	}
}

// RegisterFixed registers t under name on the fixed clock. Re-registering
// a name replaces the callback and keeps its position.
func (l *Loop) RegisterFixed(name string, t FixedTicker) {
	l.fixed.Set(name, t)
}

// RegisterFrame registers t under name on the frame clock. Re-registering
// a name replaces the callback and keeps its position.
func (l *Loop) RegisterFrame(name string, t Ticker) {
	l.frame.Set(name, t)
}

// Unregister removes name from both clocks.
func (l *Loop) Unregister(name string) {
	l.fixed.Delete(name)
	l.frame.Delete(name)
}

// Subscribe registers ch to receive FrameStats after every Advance.
// If ch is full, the stats are dropped for that subscriber.
//
// Precondition: ch must not be nil.
func (l *Loop) Subscribe(ch chan<- FrameStats) {
	l.subs = append(l.subs, ch)
}

// Now returns the simulation time: the number of fixed steps run times the step.
func (l *Loop) Now() time.Duration { return l.now }

// FixedStep returns the fixed step in seconds.
func (l *Loop) FixedStep() float64 { return l.fixedStep }

// Advance runs as many fixed steps as frameDt allows, then one frame tick.
//
// Precondition: frameDt >= 0.
// Postcondition: the leftover accumulator is below one fixed step.
func (l *Loop) Advance(frameDt time.Duration) FrameStats {
	if frameDt < 0 {
		frameDt = 0
	}
	l.acc += frameDt.Seconds()

	steps := 0
	for l.acc >= l.fixedStep && steps < l.maxSubsteps {
		l.now += l.fixedDuration
		for el := l.fixed.Front(); el != nil; el = el.Next() {
			el.Value.FixedTick(l.fixedStep)
		}
		l.acc -= l.fixedStep
		steps++
	}

	dropped := 0
	for l.acc >= l.fixedStep {
		l.acc -= l.fixedStep
		dropped++
	}
	if dropped > 0 {
		l.logger.Debug("fixed steps dropped", zap.Int("dropped", dropped))
	}

	for el := l.frame.Front(); el != nil; el = el.Next() {
		el.Value.Tick(frameDt)
	}

	l.frames++
	stats := FrameStats{Frame: l.frames, Now: l.now, Steps: steps, Dropped: dropped}
	for _, ch := range l.subs {
		select {
		case ch <- stats:
		default:
		}
	}
	return stats
}

// Run advances the loop in real time at the frame rate until ctx is cancelled.
//
// Postcondition: Returns ctx.Err() once cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.frameInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.Advance(now.Sub(last))
			last = now
		}
	}
}
