package vehicle

import (
	"github.com/cory-johannsen/motorpool/internal/game/physics"
)

// depletedEpsilon is the capacity below which nitro counts as empty.
const depletedEpsilon = 1e-4

// NitroState is the remaining boost capacity and the applied ramp.
//
// Invariant: Capacity01 and Ramp01 are always in [0,1].
type NitroState struct {
	Capacity01 float64
	Ramp01     float64
}

// FullNitro returns a full, unramped NitroState.
func FullNitro() NitroState {
	return NitroState{Capacity01: 1}
}

// Empty reports whether capacity has run out.
func (n NitroState) Empty() bool {
	return n.Capacity01 <= depletedEpsilon
}

// Step advances the nitro state by dt seconds and returns the torque multiplier.
// Nitro engages only while held with capacity remaining; it regenerates only
// while released.
//
// Postcondition: Capacity01 and Ramp01 are in [0,1]; the multiplier is 1 unless engaged.
func (n *NitroState) Step(t *Tuning, held bool, dt float64) float64 {
	engaged := held && !n.Empty()

	switch {
	case engaged:
		n.Capacity01 -= rate(1, t.NitroCapacity, dt)
		n.Ramp01 += rate(1, t.NitroRampUp, dt)
	case held:
		n.Ramp01 -= rate(1, t.NitroRampDown, dt)
	default:
		n.Capacity01 += rate(t.NitroRegenRate, t.NitroCapacity, dt)
		n.Ramp01 -= rate(1, t.NitroRampDown, dt)
	}

	n.Capacity01 = physics.Clamp01(n.Capacity01)
	n.Ramp01 = physics.Clamp01(n.Ramp01)
	if n.Empty() {
		n.Ramp01 = 0
	}

	if !engaged || n.Empty() {
		return 1
	}
	return 1 + (t.NitroMultiplier-1)*n.Ramp01
}

// rate returns the per-step change for amount units per seconds, over dt.
// A zero duration means the change is instantaneous.
func rate(amount, seconds, dt float64) float64 {
	if seconds <= 0 {
		return amount
	}
	return amount * dt / seconds
}
