package damage

import (
	"time"

	"github.com/cory-johannsen/motorpool/internal/config"
)

// minFade keeps the fade ramp from dividing by zero.
const minFade = 10 * time.Millisecond

// Phase is a step of the post-explosion burnout.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseBurning
	PhaseFading
	PhaseSmoldering
	PhaseInert
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseBurning:
		return "burning"
	case PhaseFading:
		return "fading"
	case PhaseSmoldering:
		return "smoldering"
	case PhaseInert:
		return "inert"
	default:
		return "unknown"
	}
}

// BurnoutSettings configures the explosion and the cosmetic decay after it.
type BurnoutSettings struct {
	Burn    time.Duration
	Fade    time.Duration
	Smolder time.Duration
	Final   Tint
	// Impulse is the upward explosion impulse in N·s.
	Impulse float64
	// Torque is the magnitude of the random explosion torque impulse.
	Torque float64
}

// BurnoutFromConfig converts the damage configuration section.
func BurnoutFromConfig(c config.DamageConfig) BurnoutSettings {
	return BurnoutSettings{
		Burn:    c.BurnDuration,
		Fade:    c.FadeDuration,
		Smolder: c.SmolderDuration,
		Final:   Tint{Desaturation: c.FinalDesaturation, Darken: c.FinalDarken},
		Impulse: c.ExplosionImpulse,
		Torque:  c.ExplosionTorque,
	}
}

// Burnout is the timed burn, fade, smolder sequence advanced by the frame clock.
type Burnout struct {
	settings BurnoutSettings
	effects  Effects
	phase    Phase
	elapsed  time.Duration
}

func newBurnout(s BurnoutSettings, effects Effects) *Burnout {
	if s.Fade < minFade {
		s.Fade = minFade
	}
	if s.Burn < 0 {
		s.Burn = 0
	}
	if s.Smolder < 0 {
		s.Smolder = 0
	}
	return &Burnout{settings: s, effects: effects, phase: PhaseBurning}
}

// Phase returns the current phase.
func (b *Burnout) Phase() Phase { return b.phase }

// Advance moves the sequence forward by dt, crossing as many phases as dt covers.
//
// Postcondition: Deactivate is called exactly once, on entering PhaseInert.
func (b *Burnout) Advance(dt time.Duration) {
	if b.phase == PhaseInert {
		return
	}
	b.elapsed += dt
	for {
		switch b.phase {
		case PhaseBurning:
			if b.elapsed < b.settings.Burn {
				return
			}
			b.elapsed -= b.settings.Burn
			b.phase = PhaseFading
		case PhaseFading:
			k := float64(b.elapsed) / float64(b.settings.Fade)
			if k < 1 {
				b.effects.Tint(TintAt(b.settings.Final, k))
				return
			}
			b.effects.Tint(b.settings.Final)
			b.effects.Stop(EffectFire)
			b.elapsed -= b.settings.Fade
			b.phase = PhaseSmoldering
		case PhaseSmoldering:
			if b.elapsed < b.settings.Smolder {
				return
			}
			b.elapsed = 0
			b.phase = PhaseInert
			b.effects.Deactivate()
			return
		default:
			return
		}
	}
}
