// Package input defines per-frame input snapshots and routes them to the
// currently possessed entity and the camera.
package input

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Snapshot is the unified input for a single frame.
// It is passed and stored by value; consumers never observe partial writes.
type Snapshot struct {
	// Move is the movement axis in [-1,1]²: X steers/strafes, Y throttles/walks.
	Move mgl64.Vec2
	// Look is the camera look delta for this frame.
	Look mgl64.Vec2
	// SprintHeld doubles as the nitro trigger while driving.
	SprintHeld bool
	// InteractPressed is edge-triggered: true only on the frame the key went down.
	InteractPressed bool
	BrakeHeld       bool
}

// Clamped returns a copy of s with both axes clamped to [-1,1].
func (s Snapshot) Clamped() Snapshot {
	s.Move = mgl64.Vec2{clampAxis(s.Move.X()), clampAxis(s.Move.Y())}
	return s
}

func clampAxis(v float64) float64 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	default:
		return v
	}
}

// Source produces one snapshot per frame.
type Source interface {
	Read() Snapshot
}

// Consumer receives input snapshots.
type Consumer interface {
	Consume(in Snapshot)
}

// ConsumerFunc adapts a function into a Consumer.
type ConsumerFunc func(in Snapshot)

// Consume calls f(in).
func (f ConsumerFunc) Consume(in Snapshot) { f(in) }

// StaticSource always returns the same snapshot, except that InteractPressed
// is reported on the first read only.
type StaticSource struct {
	snapshot Snapshot
	read     bool
}

// NewStaticSource returns a Source replaying s.
func NewStaticSource(s Snapshot) *StaticSource {
	return &StaticSource{snapshot: s}
}

// Read implements Source.
func (s *StaticSource) Read() Snapshot {
	out := s.snapshot
	if s.read {
		out.InteractPressed = false
	}
	s.read = true
	return out
}
