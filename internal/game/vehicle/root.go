package vehicle

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/game/damage"
	"github.com/cory-johannsen/motorpool/internal/game/entity"
	"github.com/cory-johannsen/motorpool/internal/game/input"
)

// Chassis is the physical body of a spawned vehicle.
type Chassis interface {
	Body
	damage.Body
	SetActive(active bool)
}

// ControlService takes the driver out of the vehicle.
type ControlService interface {
	Exit() error
	ForceRelease()
}

// RootConfig assembles a vehicle.
type RootConfig struct {
	ID      entity.ID
	Chassis Chassis
	Axles   []Axle
	// Tuning may be nil; the vehicle then never drives and never takes damage.
	Tuning *Tuning
	// Seat and Exit are chassis-local anchors; nil falls back to the chassis origin.
	Seat *entity.Transform
	Exit *entity.Transform
	// CameraTarget is the chassis-local point the camera follows.
	CameraTarget entity.Transform
	Effects      damage.Effects
	Burnout      damage.BurnoutSettings
	Rand         *rand.Rand
}

// Root is a drivable vehicle: it buffers input on the frame clock, drives
// its dynamics on the fixed clock while possessed, holds the parking brake
// otherwise, and forwards collisions to its damage machine.
type Root struct {
	id       entity.ID
	chassis  Chassis
	tuning   *Tuning
	seat     *entity.Transform
	exit     *entity.Transform
	camera   entity.Offset
	dynamics *Dynamics
	damage   *damage.Machine
	logger   *zap.Logger

	buffer     input.Buffer
	enabled    bool
	inert      bool
	control    ControlService
	lastReport StepReport
}

// NewRoot builds a vehicle from cfg with control disabled and the parking brake held.
//
// Precondition: cfg.Chassis must be non-nil.
// Postcondition: Returns a non-nil *Root.
func NewRoot(cfg RootConfig, logger *zap.Logger) *Root {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ID.Empty() {
		cfg.ID = entity.NewID()
	}
	logger = logger.With(zap.String("vehicle", cfg.ID.String()))

	r := &Root{
		id:      cfg.ID,
		chassis: cfg.Chassis,
		tuning:  cfg.Tuning,
		seat:    cfg.Seat,
		exit:    cfg.Exit,
		camera:  entity.Offset{Parent: cfg.Chassis, Local: cfg.CameraTarget},
		logger:  logger,
	}
	r.dynamics = NewDynamics(cfg.Chassis, cfg.Axles, logger)
	r.dynamics.ApplyTuning(cfg.Tuning)
	r.damage = damage.NewMachine(cfg.Tuning.DamageSettings(), damage.Deps{
		Effects:  cfg.Effects,
		Body:     cfg.Chassis,
		Releaser: r,
		Burnout:  cfg.Burnout,
		Rand:     cfg.Rand,
	}, logger)
	r.dynamics.ApplyParkingBrake(r.parkingTorque())
	return r
}

// ID returns the vehicle's entity ID.
func (r *Root) ID() entity.ID { return r.id }

// Chassis returns the vehicle body.
func (r *Root) Chassis() Chassis { return r.chassis }

// Dynamics returns the vehicle's dynamics.
func (r *Root) Dynamics() *Dynamics { return r.dynamics }

// Damage returns the vehicle's damage machine.
func (r *Root) Damage() *damage.Machine { return r.damage }

// LastReport returns the report of the most recent driven fixed step.
func (r *Root) LastReport() StepReport { return r.lastReport }

// Tuning returns the vehicle's tuning, or nil.
func (r *Root) Tuning() *Tuning { return r.tuning }

// ApplyTuning replaces the vehicle's tuning after spawn. Damage already
// taken is kept.
func (r *Root) ApplyTuning(t *Tuning) {
	r.tuning = t
	r.dynamics.ApplyTuning(t)
	r.damage.SetSettings(t.DamageSettings())
	if !r.enabled && !r.inert {
		r.dynamics.ApplyParkingBrake(r.parkingTorque())
	}
}

// SetControlService wires the service used to leave the vehicle.
func (r *Root) SetControlService(c ControlService) { r.control = c }

// Transform returns the chassis transform.
func (r *Root) Transform() entity.Transform { return r.chassis.Transform() }

// Origin returns the chassis transform.
func (r *Root) Origin() entity.Transform { return r.chassis.Transform() }

// Seat returns the world-space driver seat, if configured.
func (r *Root) Seat() (entity.Transform, bool) { return r.anchor(r.seat) }

// ExitAnchor returns the world-space exit point, if configured.
func (r *Root) ExitAnchor() (entity.Transform, bool) { return r.anchor(r.exit) }

func (r *Root) anchor(local *entity.Transform) (entity.Transform, bool) {
	if local == nil {
		return entity.Transform{}, false
	}
	return r.chassis.Transform().Compose(*local), true
}

// CameraTarget returns the point the camera follows while driving.
func (r *Root) CameraTarget() entity.Spatial { return r.camera }

// Wrecked reports whether the vehicle has exploded.
func (r *Root) Wrecked() bool { return r.damage.State().Exploded }

// ControlEnabled reports whether the vehicle is possessed.
func (r *Root) ControlEnabled() bool { return r.enabled }

// Inert reports whether the vehicle has burned out.
func (r *Root) Inert() bool { return r.inert }

// EnableControl starts driving from neutral input.
func (r *Root) EnableControl() {
	r.enabled = true
	r.buffer.Clear()
	r.dynamics.ClearInput()
	r.dynamics.ReleaseParkingBrake()
}

// DisableControl stops driving and holds the parking brake.
func (r *Root) DisableControl() {
	r.enabled = false
	r.buffer.Clear()
	r.dynamics.ClearInput()
	r.dynamics.ApplyParkingBrake(r.parkingTorque())
}

// Consume buffers in for the next fixed step. An interact press asks the
// control service to take the driver out instead.
func (r *Root) Consume(in input.Snapshot) {
	if !r.enabled || r.inert {
		return
	}
	if in.InteractPressed && r.control != nil {
		if err := r.control.Exit(); err != nil {
			r.logger.Debug("exit request ignored", zap.Error(err))
		}
		return
	}
	r.buffer.Store(in)
}

// FixedTick syncs wheel visuals, then drives the vehicle while possessed or
// holds the parking brake otherwise.
func (r *Root) FixedTick(dt float64) {
	r.dynamics.SyncVisuals()
	if r.inert {
		return
	}
	if !r.enabled {
		r.dynamics.ApplyParkingBrake(r.parkingTorque())
		return
	}
	r.dynamics.SetInput(CommandFromSnapshot(r.buffer.Load()))
	r.lastReport = r.dynamics.FixedTick(dt)
}

// Tick advances the burnout on the frame clock and retires the vehicle once it finishes.
func (r *Root) Tick(dt time.Duration) {
	r.damage.Tick(dt)
	if r.damage.Inert() && !r.inert {
		r.inert = true
		r.enabled = false
		r.buffer.Clear()
		r.chassis.SetActive(false)
		r.logger.Info("vehicle retired")
	}
}

// OnCollision forwards a contact to the damage machine.
func (r *Root) OnCollision(now time.Duration, c damage.Collision) bool {
	if r.inert {
		return false
	}
	return r.damage.OnCollision(now, c)
}

// ForceRelease takes the driver out after the vehicle explodes. An
// unoccupied vehicle has no driver to release.
func (r *Root) ForceRelease() {
	if !r.enabled {
		return
	}
	if r.control == nil {
		r.logger.Warn("no control service; driver cannot be released")
		return
	}
	r.control.ForceRelease()
}

func (r *Root) parkingTorque() float64 {
	if r.tuning == nil {
		return DefaultTuning().ParkingBrakeTorque
	}
	return r.tuning.ParkingBrakeTorque
}
