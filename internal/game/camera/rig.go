// Package camera implements a third-person orbit rig that follows the
// possessed entity, turns with look input and shakes on demand.
package camera

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cory-johannsen/motorpool/internal/config"
	"github.com/cory-johannsen/motorpool/internal/game/entity"
	"github.com/cory-johannsen/motorpool/internal/game/input"
	"github.com/cory-johannsen/motorpool/internal/game/physics"
)

// Rig orbits a follow target. It is both the possession camera and the
// secondary input consumer.
type Rig struct {
	cfg    config.CameraConfig
	target entity.Spatial
	rand   *rand.Rand

	// yaw and pitch are in degrees.
	yaw   float64
	pitch float64

	shakeLeft      time.Duration
	shakeAmplitude float64
	shakeOffset    mgl64.Vec3
}

// NewRig creates a rig with the given settings. r may be nil.
func NewRig(cfg config.CameraConfig, r *rand.Rand) *Rig {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Rig{cfg: cfg, rand: r}
}

// SetTarget makes the rig follow target. nil stops following.
func (c *Rig) SetTarget(target entity.Spatial) { c.target = target }

// Target returns the follow target, or nil.
func (c *Rig) Target() entity.Spatial { return c.target }

// Consume turns the rig with look input.
//
// Postcondition: pitch stays within [MinPitch, MaxPitch].
func (c *Rig) Consume(in input.Snapshot) {
	c.yaw += in.Look.X() * c.cfg.Sensitivity
	c.pitch -= in.Look.Y() * c.cfg.Sensitivity
	c.pitch = physics.Clamp(c.pitch, c.cfg.MinPitch, c.cfg.MaxPitch)
}

// Yaw returns the rig heading in radians, measured like entity.Transform.Yaw.
func (c *Rig) Yaw() float64 { return mgl64.DegToRad(c.yaw) }

// Pitch returns the rig pitch in degrees; positive looks down.
func (c *Rig) Pitch() float64 { return c.pitch }

// Shake jitters the camera for d with the given amplitude in metres,
// replacing any shake in progress.
func (c *Rig) Shake(d time.Duration, amplitude float64) {
	c.shakeLeft = max(0, d)
	c.shakeAmplitude = math.Max(0, amplitude)
}

// Shaking reports whether a shake is in progress.
func (c *Rig) Shaking() bool { return c.shakeLeft > 0 }

// Tick advances the shake on the frame clock.
func (c *Rig) Tick(dt time.Duration) {
	if c.shakeLeft <= 0 {
		c.shakeOffset = mgl64.Vec3{}
		return
	}
	c.shakeLeft -= dt
	if c.shakeLeft <= 0 {
		c.shakeLeft = 0
		c.shakeOffset = mgl64.Vec3{}
		return
	}
	c.shakeOffset = insideUnitSphere(c.rand).Mul(c.shakeAmplitude)
}

// Pose returns the camera world transform.
//
// Postcondition: ok is false when the rig has no target.
func (c *Rig) Pose() (t entity.Transform, ok bool) {
	if c.target == nil {
		return entity.Transform{}, false
	}
	rot := mgl64.QuatRotate(mgl64.DegToRad(c.yaw), mgl64.Vec3{0, 1, 0}).
		Mul(mgl64.QuatRotate(mgl64.DegToRad(c.pitch), mgl64.Vec3{1, 0, 0}))
	pivot := c.target.Transform().Position.Add(mgl64.Vec3{0, c.cfg.Height, 0})
	offset := rot.Rotate(mgl64.Vec3{0, 0, -c.cfg.Distance})
	return entity.Transform{Position: pivot.Add(offset).Add(c.shakeOffset), Rotation: rot}, true
}

func insideUnitSphere(r *rand.Rand) mgl64.Vec3 {
	for {
		v := mgl64.Vec3{r.Float64()*2 - 1, r.Float64()*2 - 1, r.Float64()*2 - 1}
		if v.LenSqr() <= 1 {
			return v
		}
	}
}
