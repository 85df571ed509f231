// Package vehicle converts driver input and tuning into wheel and chassis
// forces once per fixed physics step.
package vehicle

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/game/input"
	"github.com/cory-johannsen/motorpool/internal/game/physics"
	"github.com/cory-johannsen/motorpool/internal/observability"
)

var clampedSteps = observability.Int64Counter("vehicle",
	"motorpool.vehicle.clamped_steps", "Fixed steps whose chassis velocity was clamped to max speed")

// Command is the driver input consumed by one fixed step.
type Command struct {
	// Steer in [-1,1], positive right.
	Steer float64
	// Throttle in [-1,1], negative reverses.
	Throttle float64
	Brake    bool
	Nitro    bool
}

// CommandFromSnapshot maps a frame input snapshot onto driver controls.
// Nitro is bound to sprint.
func CommandFromSnapshot(s input.Snapshot) Command {
	s = s.Clamped()
	return Command{
		Steer:    s.Move.X(),
		Throttle: s.Move.Y(),
		Brake:    s.BrakeHeld,
		Nitro:    s.SprintHeld,
	}
}

// StepReport summarises what one fixed step applied.
type StepReport struct {
	// Idle is true when no tuning is set and nothing was applied.
	Idle            bool
	Speed           float64
	SteerAngle      float64
	MotorTorque     float64
	BrakeTorque     float64
	NitroMultiplier float64
	// Clamped is true when the chassis velocity was rescaled to max speed.
	Clamped bool
}

// Dynamics applies steering, drive, braking, anti-roll and the speed clamp
// to one vehicle. It is driven by the fixed clock and is not safe for
// concurrent use.
type Dynamics struct {
	body   Body
	axles  []Axle
	logger *zap.Logger

	tuning      *Tuning
	comApplied  bool
	nitro       NitroState
	cmd         Command
	frontAxle   int
	parkingHeld bool
}

// NewDynamics creates dynamics for body driven through axles. Axle-set
// problems are logged as configuration warnings; simulation still proceeds.
//
// Precondition: logger may be nil.
// Postcondition: Returns a non-nil *Dynamics with full nitro and no tuning.
func NewDynamics(body Body, axles []Axle, logger *zap.Logger) *Dynamics {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dynamics{
		body:      body,
		axles:     axles,
		logger:    logger,
		nitro:     FullNitro(),
		frontAxle: -1,
	}
	if body == nil {
		logger.Warn("vehicle has no body; dynamics stay idle")
	}
	logAxleProblems(logger, axles)
	for i, a := range axles {
		if a.complete() && a.Steers {
			d.frontAxle = i
		}
	}
	return d
}

// ApplyTuning sets the active tuning. The first non-nil tuning shifts the
// body's centre of mass; later calls never shift it again.
func (d *Dynamics) ApplyTuning(t *Tuning) {
	d.tuning = t
	if t == nil {
		d.logger.Warn("vehicle has no tuning; dynamics idle")
		return
	}
	if !d.comApplied && d.body != nil {
		d.body.ShiftCenterOfMass(t.CenterOfMassOffset)
		d.comApplied = true
	}
}

// Tuning returns the active tuning, or nil.
func (d *Dynamics) Tuning() *Tuning { return d.tuning }

// Nitro returns the current nitro state.
func (d *Dynamics) Nitro() NitroState { return d.nitro }

// SetInput replaces the pending command with a single struct copy.
func (d *Dynamics) SetInput(cmd Command) { d.cmd = cmd }

// ClearInput resets the pending command to neutral.
func (d *Dynamics) ClearInput() { d.cmd = Command{} }

// speed returns the chassis speed, 0 without a body.
func (d *Dynamics) speed() float64 {
	if d.body == nil {
		return 0
	}
	return d.body.Velocity().Len()
}

// SteerFactor returns the steering authority in [floor,1] at speed.
func SteerFactor(t *Tuning, speed float64) float64 {
	return physics.Lerp(1, t.SteerFloor, physics.Smoothstep(t.SteerLowSpeed, t.SteerHighSpeed, speed))
}

// FixedTick runs one fixed step: steering, nitro, motor and brake, then
// anti-roll, then the hard speed clamp.
//
// Postcondition: with a tuning and a body, chassis speed <= MaxSpeed.
func (d *Dynamics) FixedTick(dt float64) StepReport {
	t := d.tuning
	if t == nil || d.body == nil {
		return StepReport{Idle: true, NitroMultiplier: 1}
	}
	d.parkingHeld = false

	speed := d.speed()
	cmd := d.cmd

	steerAngle := physics.Clamp(cmd.Steer, -1, 1) * t.MaxSteerAngle * SteerFactor(t, speed)

	multiplier := d.nitro.Step(t, cmd.Nitro, dt)
	motor := physics.Clamp(cmd.Throttle, -1, 1) * t.MotorTorque * multiplier
	if speed >= t.MaxSpeed && motor > 0 {
		motor = 0
	}

	brake := 0.0
	if cmd.Brake {
		brake = t.BrakeTorque
	}

	for _, a := range d.axles {
		if !a.complete() {
			continue
		}
		applyAxle(a, steerAngle, motor, brake)
	}

	d.applyAntiRoll(t)
	clamped := d.clampSpeed(t)

	return StepReport{
		Speed:           d.speed(),
		SteerAngle:      steerAngle,
		MotorTorque:     motor,
		BrakeTorque:     brake,
		NitroMultiplier: multiplier,
		Clamped:         clamped,
	}
}

func applyAxle(a Axle, steerAngle, motor, brake float64) {
	if !a.Steers {
		steerAngle = 0
	}
	if !a.Drives {
		motor = 0
	}
	for _, w := range []Wheel{a.Left, a.Right} {
		w.SetSteerAngle(steerAngle)
		w.SetMotorTorque(motor)
		w.SetBrakeTorque(brake)
	}
}

// applyAntiRoll lifts the more compressed wheel of each axle and pulls the
// other down by the compression difference times the axle coefficient.
// Ungrounded wheels receive no force.
func (d *Dynamics) applyAntiRoll(t *Tuning) {
	for i, a := range d.axles {
		if !a.complete() {
			continue
		}
		coeff := t.RearAntiRoll
		if i == d.frontAxle {
			coeff = t.FrontAntiRoll
		}
		left, leftGrounded := a.Left.GroundHit()
		right, rightGrounded := a.Right.GroundHit()
		antiRoll := (left - right) * coeff
		if antiRoll == 0 {
			continue
		}
		if leftGrounded {
			d.body.AddForceAtPosition(a.Left.Up().Mul(antiRoll), a.Left.Position())
		}
		if rightGrounded {
			d.body.AddForceAtPosition(a.Right.Up().Mul(-antiRoll), a.Right.Position())
		}
	}
}

// clampSpeed rescales the chassis velocity to MaxSpeed, keeping direction.
func (d *Dynamics) clampSpeed(t *Tuning) bool {
	v := d.body.Velocity()
	speed := v.Len()
	if speed <= t.MaxSpeed || speed == 0 {
		return false
	}
	d.body.SetVelocity(v.Mul(t.MaxSpeed / speed))
	clampedSteps.Add(context.Background(), 1)
	return true
}

// ApplyParkingBrake zeroes motor and steering and holds every wheel with torque.
func (d *Dynamics) ApplyParkingBrake(torque float64) {
	torque = math.Max(0, torque)
	d.parkingHeld = true
	for _, a := range d.axles {
		for _, w := range []Wheel{a.Left, a.Right} {
			if w == nil {
				continue
			}
			w.SetMotorTorque(0)
			w.SetBrakeTorque(torque)
			w.SetSteerAngle(0)
		}
	}
}

// ReleaseParkingBrake clears brake torque on every wheel.
func (d *Dynamics) ReleaseParkingBrake() {
	d.parkingHeld = false
	for _, a := range d.axles {
		for _, w := range []Wheel{a.Left, a.Right} {
			if w == nil {
				continue
			}
			w.SetBrakeTorque(0)
		}
	}
}

// ParkingBrakeHeld reports whether the parking brake is applied.
func (d *Dynamics) ParkingBrakeHeld() bool { return d.parkingHeld }

// SyncVisuals copies wheel poses onto their visuals.
func (d *Dynamics) SyncVisuals() { syncVisuals(d.axles) }
