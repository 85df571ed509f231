package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// WheelSpec describes a suspension wheel mounted on a body.
type WheelSpec struct {
	// Mount is the suspension attachment point in body-local space.
	Mount              mgl64.Vec3
	Radius             float64
	SuspensionDistance float64
	SpringRate         float64
	Damper             float64
	// Grip in [0,1] is the fraction of lateral slip cancelled per step.
	Grip float64
}

// DefaultWheelSpec returns a passenger-car wheel at mount.
func DefaultWheelSpec(mount mgl64.Vec3) WheelSpec {
	return WheelSpec{
		Mount:              mount,
		Radius:             0.35,
		SuspensionDistance: 0.3,
		SpringRate:         35000,
		Damper:             4500,
		Grip:               0.8,
	}
}

// Wheel is a raycast suspension wheel. Controllers write steer, motor and
// brake values; the World turns them into forces when it integrates.
type Wheel struct {
	spec   WheelSpec
	body   *RigidBody
	ground GroundFunc

	steerDeg    float64
	motorTorque float64
	brakeTorque float64
	spin        float64
}

// Body returns the body the wheel is mounted on.
func (w *Wheel) Body() *RigidBody { return w.body }

// SetSteerAngle sets the steer angle in degrees around the body's up axis.
func (w *Wheel) SetSteerAngle(deg float64) { w.steerDeg = deg }

// SteerAngle returns the steer angle in degrees.
func (w *Wheel) SteerAngle() float64 { return w.steerDeg }

// SetMotorTorque sets the drive torque in N·m.
func (w *Wheel) SetMotorTorque(torque float64) { w.motorTorque = torque }

// MotorTorque returns the drive torque in N·m.
func (w *Wheel) MotorTorque() float64 { return w.motorTorque }

// SetBrakeTorque sets the brake torque in N·m.
func (w *Wheel) SetBrakeTorque(torque float64) { w.brakeTorque = torque }

// BrakeTorque returns the brake torque in N·m.
func (w *Wheel) BrakeTorque() float64 { return w.brakeTorque }

// Position returns the world-space mount point.
func (w *Wheel) Position() mgl64.Vec3 {
	return w.body.Transform().TransformPoint(w.spec.Mount)
}

// Up returns the suspension axis in world space.
func (w *Wheel) Up() mgl64.Vec3 {
	return w.body.Transform().Up()
}

// travel returns how far the wheel hangs below its mount, clamped to the suspension range.
func (w *Wheel) travel() (travel float64, grounded bool) {
	p := w.Position()
	gap := p.Y() - w.ground(p.X(), p.Z()) - w.spec.Radius
	if gap > w.spec.SuspensionDistance || !w.body.Active() {
		return w.spec.SuspensionDistance, false
	}
	return math.Max(0, gap), true
}

// GroundHit reports normalized suspension compression: 0 fully extended,
// 1 fully compressed. Ungrounded wheels report (0, false).
func (w *Wheel) GroundHit() (compression01 float64, grounded bool) {
	travel, grounded := w.travel()
	if !grounded {
		return 0, false
	}
	if w.spec.SuspensionDistance <= 0 {
		return 1, true
	}
	return Clamp01(1 - travel/w.spec.SuspensionDistance), true
}

// Pose returns the world position and rotation of the wheel hub, including
// suspension travel, steer and spin, for visual sync.
func (w *Wheel) Pose() (mgl64.Vec3, mgl64.Quat) {
	travel, _ := w.travel()
	pos := w.Position().Sub(w.Up().Mul(travel))
	steer := mgl64.QuatRotate(mgl64.DegToRad(w.steerDeg), mgl64.Vec3{0, 1, 0})
	spin := mgl64.QuatRotate(w.spin, mgl64.Vec3{1, 0, 0})
	return pos, w.body.Transform().Rotation.Mul(steer).Mul(spin)
}

// applyForces queues suspension, drive, brake and grip forces for one step.
// loadMass is the share of body mass carried by this wheel.
func (w *Wheel) applyForces(dt, loadMass float64) {
	compression, grounded := w.GroundHit()
	if !grounded {
		return
	}
	b := w.body
	contact := w.Position()
	up := w.Up()
	pointVel := b.PointVelocity(contact)

	spring := w.spec.SpringRate*compression*w.spec.SuspensionDistance - w.spec.Damper*pointVel.Dot(up)
	if spring > 0 {
		b.AddForceAtPosition(up.Mul(spring), contact)
	}

	steer := mgl64.QuatRotate(mgl64.DegToRad(w.steerDeg), mgl64.Vec3{0, 1, 0})
	forward := b.Transform().Rotation.Mul(steer).Rotate(mgl64.Vec3{0, 0, 1})
	right := up.Cross(forward)

	forwardSpeed := pointVel.Dot(forward)
	w.spin += forwardSpeed / w.spec.Radius * dt

	if w.motorTorque != 0 {
		b.AddForceAtPosition(forward.Mul(w.motorTorque/w.spec.Radius), contact)
	}

	if w.brakeTorque > 0 && forwardSpeed != 0 {
		// Never push past zero speed in one step.
		stop := math.Abs(forwardSpeed) * loadMass / dt
		brake := math.Min(w.brakeTorque/w.spec.Radius, stop)
		b.AddForceAtPosition(forward.Mul(-math.Copysign(brake, forwardSpeed)), contact)
	}

	lateral := pointVel.Dot(right)
	if lateral != 0 {
		b.AddForceAtPosition(right.Mul(-lateral*loadMass/dt*w.spec.Grip), contact)
	}
}
