package damage

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
)

// Effect identifies a damage visual.
type Effect int

const (
	EffectLightSmoke Effect = iota
	EffectHeavySmoke
	EffectFire
	EffectExplosion
)

// String returns the effect name.
func (e Effect) String() string {
	switch e {
	case EffectLightSmoke:
		return "light_smoke"
	case EffectHeavySmoke:
		return "heavy_smoke"
	case EffectFire:
		return "fire"
	case EffectExplosion:
		return "explosion"
	default:
		return "unknown"
	}
}

// Effects renders damage visuals for one vehicle. Play and Stop are
// idempotent; Burst spawns a one-shot effect.
type Effects interface {
	Play(e Effect)
	Stop(e Effect)
	Burst(e Effect)
	Tint(t Tint)
	Deactivate()
}

// Body receives the explosion impulse.
type Body interface {
	AddImpulse(j mgl64.Vec3)
	AddTorqueImpulse(j mgl64.Vec3)
}

// Releaser forces the occupant out of the vehicle.
type Releaser interface {
	ForceRelease()
}

// ReleaserFunc adapts a function to Releaser.
type ReleaserFunc func()

// ForceRelease calls f.
func (f ReleaserFunc) ForceRelease() { f() }

// LogEffects is an Effects that records visual changes in the log and
// grades the body paint with the burn tint.
type LogEffects struct {
	logger  *zap.Logger
	paint   colorful.Color
	current colorful.Color
	playing map[Effect]bool
}

// NewLogEffects returns log-backed effects for a body painted paint.
// A nil logger discards output.
func NewLogEffects(logger *zap.Logger, paint colorful.Color) *LogEffects {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogEffects{logger: logger, paint: paint, current: paint, playing: make(map[Effect]bool)}
}

// Play starts e if it is not already playing.
func (l *LogEffects) Play(e Effect) {
	if l.playing[e] {
		return
	}
	l.playing[e] = true
	l.logger.Debug("effect play", zap.Stringer("effect", e))
}

// Stop stops e if it is playing.
func (l *LogEffects) Stop(e Effect) {
	if !l.playing[e] {
		return
	}
	delete(l.playing, e)
	l.logger.Debug("effect stop", zap.Stringer("effect", e))
}

// Playing reports whether e is playing.
func (l *LogEffects) Playing(e Effect) bool { return l.playing[e] }

// Burst logs a one-shot effect.
func (l *LogEffects) Burst(e Effect) {
	l.logger.Info("effect burst", zap.Stringer("effect", e))
}

// Tint grades the paint with t and logs the resulting colour.
func (l *LogEffects) Tint(t Tint) {
	l.current = t.Apply(l.paint)
	l.logger.Debug("burn tint",
		zap.Float64("desaturation", t.Desaturation),
		zap.Float64("darken", t.Darken),
		zap.String("color", l.current.Hex()),
	)
}

// Color returns the paint as last graded by Tint.
func (l *LogEffects) Color() colorful.Color { return l.current }

// Deactivate logs the vehicle going inert.
func (l *LogEffects) Deactivate() {
	l.playing = make(map[Effect]bool)
	l.logger.Info("vehicle inert")
}

type nopEffects struct{}

func (nopEffects) Play(Effect)  {}
func (nopEffects) Stop(Effect)  {}
func (nopEffects) Burst(Effect) {}
func (nopEffects) Tint(Tint)    {}
func (nopEffects) Deactivate()  {}
