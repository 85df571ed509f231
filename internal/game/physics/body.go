package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cory-johannsen/motorpool/internal/game/entity"
)

// RigidBody is a dynamic body with a scalar moment of inertia.
// Forces accumulate between integrations; impulses apply immediately.
// It is not safe for concurrent use.
type RigidBody struct {
	// Mass in kg. Must be > 0.
	Mass float64
	// Inertia is the scalar moment of inertia in kg·m². Must be > 0.
	Inertia float64
	// Radius is the collision sphere radius. 0 disables body contacts.
	Radius float64
	// Clearance is the lowest height of the origin above ground for a body
	// on wheels, reached when it rests on its hull. 0 disables the hull floor.
	Clearance   float64
	LinearDrag  float64
	AngularDrag float64

	position        mgl64.Vec3
	rotation        mgl64.Quat
	velocity        mgl64.Vec3
	angularVelocity mgl64.Vec3
	comOffset       mgl64.Vec3

	force  mgl64.Vec3
	torque mgl64.Vec3

	active bool
}

// NewRigidBody creates an active body at t.
//
// Precondition: mass > 0; inertia > 0.
func NewRigidBody(mass, inertia, radius float64, t entity.Transform) *RigidBody {
	rot := t.Rotation
	if rot.W == 0 && rot.V.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	return &RigidBody{
		Mass:     mass,
		Inertia:  inertia,
		Radius:   radius,
		position: t.Position,
		rotation: rot.Normalize(),
		active:   true,
	}
}

// Transform returns the body's world transform.
func (b *RigidBody) Transform() entity.Transform {
	return entity.Transform{Position: b.position, Rotation: b.rotation}
}

// SetTransform teleports the body without touching its velocity.
func (b *RigidBody) SetTransform(t entity.Transform) {
	b.position = t.Position
	if t.Rotation.W == 0 && t.Rotation.V.Len() == 0 {
		b.rotation = mgl64.QuatIdent()
		return
	}
	b.rotation = t.Rotation.Normalize()
}

// Velocity returns the linear velocity in m/s.
func (b *RigidBody) Velocity() mgl64.Vec3 { return b.velocity }

// SetVelocity overwrites the linear velocity.
func (b *RigidBody) SetVelocity(v mgl64.Vec3) { b.velocity = v }

// AngularVelocity returns the angular velocity in rad/s.
func (b *RigidBody) AngularVelocity() mgl64.Vec3 { return b.angularVelocity }

// CenterOfMass returns the world-space centre of mass.
func (b *RigidBody) CenterOfMass() mgl64.Vec3 {
	return b.position.Add(b.rotation.Rotate(b.comOffset))
}

// ShiftCenterOfMass moves the centre of mass by a local-space offset.
// Repeated calls accumulate.
func (b *RigidBody) ShiftCenterOfMass(offset mgl64.Vec3) {
	b.comOffset = b.comOffset.Add(offset)
}

// CenterOfMassOffset returns the accumulated local-space offset.
func (b *RigidBody) CenterOfMassOffset() mgl64.Vec3 { return b.comOffset }

// AddForce queues a force through the centre of mass.
func (b *RigidBody) AddForce(f mgl64.Vec3) {
	b.force = b.force.Add(f)
}

// AddForceAtPosition queues a force applied at a world point, producing torque.
func (b *RigidBody) AddForceAtPosition(f, point mgl64.Vec3) {
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(point.Sub(b.CenterOfMass()).Cross(f))
}

// AddImpulse changes velocity immediately by j/Mass.
func (b *RigidBody) AddImpulse(j mgl64.Vec3) {
	b.velocity = b.velocity.Add(j.Mul(1 / b.Mass))
}

// AddTorqueImpulse changes angular velocity immediately by j/Inertia.
func (b *RigidBody) AddTorqueImpulse(j mgl64.Vec3) {
	b.angularVelocity = b.angularVelocity.Add(j.Mul(1 / b.Inertia))
}

// PointVelocity returns the velocity of a world point rigidly attached to the body.
func (b *RigidBody) PointVelocity(point mgl64.Vec3) mgl64.Vec3 {
	return b.velocity.Add(b.angularVelocity.Cross(point.Sub(b.CenterOfMass())))
}

// Active reports whether the body takes part in integration and contacts.
func (b *RigidBody) Active() bool { return b.active }

// SetActive enables or disables the body. Disabling clears queued forces and motion.
func (b *RigidBody) SetActive(active bool) {
	b.active = active
	if !active {
		b.force = mgl64.Vec3{}
		b.torque = mgl64.Vec3{}
		b.velocity = mgl64.Vec3{}
		b.angularVelocity = mgl64.Vec3{}
	}
}

// integrate advances the body by dt with semi-implicit Euler and clears
// the force accumulators.
func (b *RigidBody) integrate(dt float64, gravity mgl64.Vec3) {
	accel := b.force.Mul(1 / b.Mass).Add(gravity)
	b.velocity = b.velocity.Add(accel.Mul(dt)).Mul(dampFactor(b.LinearDrag, dt))

	angAccel := b.torque.Mul(1 / b.Inertia)
	b.angularVelocity = b.angularVelocity.Add(angAccel.Mul(dt)).Mul(dampFactor(b.AngularDrag, dt))

	b.position = b.position.Add(b.velocity.Mul(dt))

	if w := b.angularVelocity.Len(); w > 0 {
		step := mgl64.QuatRotate(w*dt, b.angularVelocity.Mul(1/w))
		b.rotation = step.Mul(b.rotation).Normalize()
	}

	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}

func dampFactor(drag, dt float64) float64 {
	return math.Max(0, 1-drag*dt)
}
