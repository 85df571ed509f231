package character

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/game/entity"
	"github.com/cory-johannsen/motorpool/internal/game/input"
	"github.com/cory-johannsen/motorpool/internal/game/interaction"
	"github.com/cory-johannsen/motorpool/internal/game/physics"
)

const moveDeadzone = 0.001

// Heading supplies the yaw that movement input is relative to, usually the camera's.
type Heading interface {
	Yaw() float64
}

// AnimationState is what a renderer needs to animate the character.
type AnimationState struct {
	Speed01   float64
	Sprinting bool
	// PlaybackRate scales the locomotion clip with speed.
	PlaybackRate float64
}

// RootConfig assembles a character.
type RootConfig struct {
	ID        entity.ID
	Config    Config
	Transform entity.Transform
	// Heading may be nil; movement is then relative to the character's own facing.
	Heading  Heading
	Detector *interaction.Detector
}

// Root is the on-foot player character.
type Root struct {
	id        entity.ID
	cfg       Config
	transform entity.Transform
	heading   Heading
	detector  *interaction.Detector
	control   *interaction.Coordinator
	logger    *zap.Logger

	enabled   bool
	simActive bool

	move    mgl64.Vec2
	sprint  bool
	speed   float64
	speed01 float64
}

// NewRoot builds a character from cfg with control disabled and simulation active.
//
// Postcondition: Returns a non-nil *Root.
func NewRoot(cfg RootConfig, logger *zap.Logger) *Root {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ID.Empty() {
		cfg.ID = entity.NewID()
	}
	if cfg.Transform.Rotation == (mgl64.Quat{}) {
		cfg.Transform.Rotation = mgl64.QuatIdent()
	}
	if cfg.Detector == nil {
		cfg.Detector = interaction.NewDetector(cfg.Config.InteractRadius, logger)
	}
	return &Root{
		id:        cfg.ID,
		cfg:       cfg.Config,
		transform: cfg.Transform,
		heading:   cfg.Heading,
		detector:  cfg.Detector,
		logger:    logger.With(zap.String("character", cfg.ID.String())),
		simActive: true,
	}
}

// ID returns the character's entity ID.
func (r *Root) ID() entity.ID { return r.id }

// Transform returns the character's world transform.
func (r *Root) Transform() entity.Transform { return r.transform }

// SetTransform teleports the character.
func (r *Root) SetTransform(t entity.Transform) { r.transform = t }

// SetHeading replaces the movement reference, e.g. once a camera exists.
func (r *Root) SetHeading(h Heading) { r.heading = h }

// SetCoordinator wires the enter/exit coordinator passed to interactables.
func (r *Root) SetCoordinator(co *interaction.Coordinator) { r.control = co }

// Detector returns the character's interaction detector.
func (r *Root) Detector() *interaction.Detector { return r.detector }

// CameraTarget returns the point the camera follows while on foot.
func (r *Root) CameraTarget() entity.Spatial {
	return entity.Offset{Parent: r, Local: entity.NewTransform(mgl64.Vec3{0, r.cfg.CameraHeight, 0})}
}

// SetSimulationActive shows or hides the character body.
func (r *Root) SetSimulationActive(active bool) {
	r.simActive = active
	if !active {
		r.clearInput()
	}
}

// SimulationActive reports whether the body is simulated.
func (r *Root) SimulationActive() bool { return r.simActive }

// ControlEnabled reports whether the character is possessed.
func (r *Root) ControlEnabled() bool { return r.enabled }

// EnableControl starts accepting input.
func (r *Root) EnableControl() {
	r.enabled = true
}

// DisableControl stops accepting input and stops moving.
func (r *Root) DisableControl() {
	r.enabled = false
	r.clearInput()
}

// Speed returns the current ground speed in m/s.
func (r *Root) Speed() float64 { return r.speed }

// Animation returns the current animation parameters.
func (r *Root) Animation() AnimationState {
	return AnimationState{
		Speed01:      r.speed01,
		Sprinting:    r.sprint,
		PlaybackRate: physics.Lerp(0.9, 1.6, r.speed01),
	}
}

// Consume records movement input and forwards interact presses to the detector.
func (r *Root) Consume(in input.Snapshot) {
	if !r.enabled {
		return
	}
	r.move = in.Move
	r.sprint = in.SprintHeld
	if in.InteractPressed {
		r.detector.Scan(r.transform.Position)
		r.detector.TryInteract(interaction.Context{Character: r, Control: r.control})
	}
}

// Tick moves the character on the frame clock and refreshes the interaction scan.
func (r *Root) Tick(dt time.Duration) {
	if !r.enabled || !r.simActive {
		return
	}
	r.step(dt.Seconds())
	r.detector.Scan(r.transform.Position)
}

func (r *Root) step(dt float64) {
	magnitude := physics.Clamp01(r.move.Len())

	maxSpeed := r.cfg.WalkSpeed
	if r.sprint {
		maxSpeed = r.cfg.SprintSpeed
	}
	r.speed = maxSpeed * magnitude
	r.speed01 = 0
	if maxSpeed > moveDeadzone {
		r.speed01 = physics.Clamp01(r.speed / maxSpeed)
	}

	if magnitude <= moveDeadzone {
		return
	}
	dir := r.worldDirection()
	if dir.LenSqr() < 1e-4 {
		return
	}
	dir = dir.Normalize()

	target := mgl64.QuatRotate(math.Atan2(dir.X(), dir.Z()), mgl64.Vec3{0, 1, 0})
	if r.transform.Rotation.Dot(target) < 0 {
		// shortest arc
		target = target.Scale(-1)
	}
	r.transform.Rotation = mgl64.QuatSlerp(r.transform.Rotation, target, physics.Clamp01(r.cfg.RotationSpeed*dt))
	r.transform.Position = r.transform.Position.Add(dir.Mul(r.speed * dt))
}

// worldDirection maps stick input onto the ground plane relative to the heading.
func (r *Root) worldDirection() mgl64.Vec3 {
	yaw := r.transform.Yaw()
	if r.heading != nil {
		yaw = r.heading.Yaw()
	}
	sin, cos := math.Sincos(yaw)
	forward := mgl64.Vec3{sin, 0, cos}
	right := mgl64.Vec3{cos, 0, -sin}
	return right.Mul(r.move.X()).Add(forward.Mul(r.move.Y()))
}

func (r *Root) clearInput() {
	r.move = mgl64.Vec2{}
	r.sprint = false
	r.speed = 0
	r.speed01 = 0
}
