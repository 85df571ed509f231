// Package damage implements the staged, hit-based vehicle damage ladder and
// the one-way explosion and burnout that end it.
package damage

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/observability"
)

var (
	hitsCounter = observability.Int64Counter("damage",
		"motorpool.damage.hits", "Collisions registered as damage hits")
	explosionsCounter = observability.Int64Counter("damage",
		"motorpool.damage.explosions", "Vehicles that reached the terminal damage stage")
)

// Stage is a rung of the damage ladder.
type Stage int

const (
	StagePristine Stage = iota
	StageLightSmoke
	StageHeavySmoke
	StageFire
	StageExploded
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StagePristine:
		return "pristine"
	case StageLightSmoke:
		return "light_smoke"
	case StageHeavySmoke:
		return "heavy_smoke"
	case StageFire:
		return "fire"
	case StageExploded:
		return "exploded"
	default:
		return "unknown"
	}
}

// Settings are the hit-registration thresholds from the vehicle tuning.
type Settings struct {
	MinRelativeSpeed float64
	MaxHits          int
	Cooldown         time.Duration
}

// Collision is a contact reported by the host physics. Only RelativeSpeed
// is consulted.
type Collision struct {
	RelativeSpeed float64
	ContactNormal mgl64.Vec3
	Other         any
}

// State is the observable damage state.
//
// Invariant: HitCount never decreases; Exploded never reverts to false.
type State struct {
	HitCount            int
	NextEligibleHitTime time.Duration
	Exploded            bool
}

// Deps are the collaborators a Machine drives. Any field may be nil.
type Deps struct {
	Effects  Effects
	Body     Body
	Releaser Releaser
	Burnout  BurnoutSettings
	// Rand picks the explosion torque direction.
	Rand *rand.Rand
}

// Machine is the damage ladder of one vehicle. It is driven from the
// simulation goroutine and is not safe for concurrent use.
type Machine struct {
	settings *Settings
	deps     Deps
	logger   *zap.Logger

	state     State
	stage     Stage
	burnout   *Burnout
	onExplode []func()
}

// NewMachine creates a pristine damage machine. A nil settings pointer
// leaves the machine degraded: every collision is ignored.
//
// Precondition: logger may be nil.
// Postcondition: Returns a non-nil *Machine in StagePristine.
func NewMachine(settings *Settings, deps Deps, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Effects == nil {
		deps.Effects = nopEffects{}
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if settings == nil {
		logger.Warn("damage settings missing; hit processing disabled")
	}
	return &Machine{settings: settings, deps: deps, logger: logger}
}

// SetSettings replaces the hit-registration settings. Hit count and
// cooldown carry over; nil degrades the machine.
func (m *Machine) SetSettings(settings *Settings) {
	if settings == nil {
		m.logger.Warn("damage settings missing; hit processing disabled")
	}
	m.settings = settings
}

// OnExplode registers fn to run at the end of the terminal transition.
func (m *Machine) OnExplode(fn func()) { m.onExplode = append(m.onExplode, fn) }

// Degraded reports whether hit processing is disabled for lack of settings.
func (m *Machine) Degraded() bool { return m.settings == nil }

// State returns a copy of the damage state.
func (m *Machine) State() State { return m.state }

// Stage returns the current ladder stage.
func (m *Machine) Stage() Stage { return m.stage }

// BurnoutPhase returns the burnout phase, PhaseNone before the explosion.
func (m *Machine) BurnoutPhase() Phase {
	if m.burnout == nil {
		return PhaseNone
	}
	return m.burnout.Phase()
}

// Inert reports whether the burnout has finished.
func (m *Machine) Inert() bool { return m.BurnoutPhase() == PhaseInert }

// OnCollision registers a hit when c is fast enough and now is outside the
// cooldown window. The hit that reaches MaxHits fires the explosion.
//
// Postcondition: Returns true iff a hit was registered.
func (m *Machine) OnCollision(now time.Duration, c Collision) bool {
	if m.state.Exploded || m.settings == nil {
		return false
	}
	if now < m.state.NextEligibleHitTime {
		return false
	}
	if c.RelativeSpeed < m.settings.MinRelativeSpeed {
		return false
	}

	m.state.NextEligibleHitTime = now + m.settings.Cooldown
	m.state.HitCount++
	hitsCounter.Add(context.Background(), 1)
	m.logger.Info("damage hit",
		zap.Int("hits", m.state.HitCount),
		zap.Float64("relative_speed", c.RelativeSpeed),
	)

	if m.state.HitCount >= m.settings.MaxHits {
		m.explode()
		return true
	}
	m.enterStage(Stage(min(m.state.HitCount, int(StageFire))))
	return true
}

func (m *Machine) enterStage(s Stage) {
	if s == m.stage {
		return
	}
	m.stage = s
	fx := m.deps.Effects
	switch s {
	case StageLightSmoke:
		fx.Play(EffectLightSmoke)
		fx.Stop(EffectHeavySmoke)
		fx.Stop(EffectFire)
	case StageHeavySmoke:
		fx.Stop(EffectLightSmoke)
		fx.Play(EffectHeavySmoke)
		fx.Stop(EffectFire)
	case StageFire:
		fx.Stop(EffectLightSmoke)
		fx.Stop(EffectHeavySmoke)
		fx.Play(EffectFire)
	}
	m.logger.Debug("damage stage", zap.Stringer("stage", s))
}

// explode runs the one-shot terminal transition.
func (m *Machine) explode() {
	if m.state.Exploded {
		return
	}
	m.state.Exploded = true
	m.stage = StageExploded
	explosionsCounter.Add(context.Background(), 1)

	fx := m.deps.Effects
	fx.Stop(EffectLightSmoke)
	fx.Stop(EffectHeavySmoke)
	fx.Play(EffectFire)
	fx.Burst(EffectExplosion)

	if m.deps.Releaser != nil {
		m.deps.Releaser.ForceRelease()
	}

	if b := m.deps.Body; b != nil {
		b.AddImpulse(mgl64.Vec3{0, m.deps.Burnout.Impulse, 0})
		b.AddTorqueImpulse(randomUnitVector(m.deps.Rand).Mul(m.deps.Burnout.Torque))
	}

	m.burnout = newBurnout(m.deps.Burnout, fx)
	m.logger.Info("vehicle exploded", zap.Int("hits", m.state.HitCount))

	for _, fn := range m.onExplode {
		fn()
	}
}

// Tick advances the burnout by the frame delta. It does nothing before the explosion.
func (m *Machine) Tick(dt time.Duration) {
	if m.burnout == nil {
		return
	}
	m.burnout.Advance(dt)
}

// randomUnitVector returns a uniformly distributed direction.
func randomUnitVector(r *rand.Rand) mgl64.Vec3 {
	for {
		v := mgl64.Vec3{r.NormFloat64(), r.NormFloat64(), r.NormFloat64()}
		if l := v.Len(); l > 1e-9 {
			return v.Mul(1 / l)
		}
	}
}
