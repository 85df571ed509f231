package vehicle_test

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/cory-johannsen/motorpool/internal/game/entity"
	"github.com/cory-johannsen/motorpool/internal/game/vehicle"
)

type appliedForce struct {
	force, point mgl64.Vec3
}

// flatBody is a drag-free chassis on a flat road: queued forces act along
// the force direction and only the wheels' motor torque drives it.
type flatBody struct {
	mass      float64
	transform entity.Transform
	velocity  mgl64.Vec3
	comShift  mgl64.Vec3
	forces    []appliedForce
	impulses  []mgl64.Vec3
	active    bool
}

func newFlatBody() *flatBody {
	return &flatBody{mass: 1400, transform: entity.NewTransform(mgl64.Vec3{}), active: true}
}

func (b *flatBody) Velocity() mgl64.Vec3                { return b.velocity }
func (b *flatBody) SetVelocity(v mgl64.Vec3)            { b.velocity = v }
func (b *flatBody) Transform() entity.Transform         { return b.transform }
func (b *flatBody) ShiftCenterOfMass(offset mgl64.Vec3) { b.comShift = b.comShift.Add(offset) }
func (b *flatBody) AddForceAtPosition(f, p mgl64.Vec3) {
	b.forces = append(b.forces, appliedForce{force: f, point: p})
}
func (b *flatBody) AddImpulse(j mgl64.Vec3)       { b.impulses = append(b.impulses, j) }
func (b *flatBody) AddTorqueImpulse(j mgl64.Vec3) {}
func (b *flatBody) SetActive(active bool)         { b.active = active }

// integrate advances the body by dt using the drive torque of wheels.
func (b *flatBody) integrate(dt float64, wheels []*fakeWheel) {
	var drive float64
	for _, w := range wheels {
		drive += w.motor / w.radius
	}
	b.velocity = b.velocity.Add(mgl64.Vec3{0, 0, drive / b.mass * dt})
	b.forces = nil
}

type fakeWheel struct {
	radius      float64
	steer       float64
	motor       float64
	brake       float64
	compression float64
	grounded    bool
	position    mgl64.Vec3
	poses       int
}

func newFakeWheel(x float64) *fakeWheel {
	return &fakeWheel{radius: 0.35, grounded: true, position: mgl64.Vec3{x, 0, 0}}
}

func (w *fakeWheel) SetSteerAngle(deg float64)     { w.steer = deg }
func (w *fakeWheel) SetMotorTorque(torque float64) { w.motor = torque }
func (w *fakeWheel) SetBrakeTorque(torque float64) { w.brake = torque }
func (w *fakeWheel) GroundHit() (float64, bool)    { return w.compression, w.grounded }
func (w *fakeWheel) Position() mgl64.Vec3          { return w.position }
func (w *fakeWheel) Up() mgl64.Vec3                { return mgl64.Vec3{0, 1, 0} }
func (w *fakeWheel) Pose() (mgl64.Vec3, mgl64.Quat) {
	w.poses++
	return w.position, mgl64.QuatIdent()
}

type fakeVisual struct {
	position mgl64.Vec3
	synced   int
}

func (v *fakeVisual) SetPose(p mgl64.Vec3, _ mgl64.Quat) {
	v.position = p
	v.synced++
}

// car is a front-steer, rear-drive test vehicle.
type car struct {
	body                    *flatBody
	fl, fr, rl, rr          *fakeWheel
	axles                   []vehicle.Axle
	frontVisual, rearVisual *fakeVisual
}

func newCar() *car {
	c := &car{
		body:        newFlatBody(),
		fl:          newFakeWheel(-0.8),
		fr:          newFakeWheel(0.8),
		rl:          newFakeWheel(-0.8),
		rr:          newFakeWheel(0.8),
		frontVisual: &fakeVisual{},
		rearVisual:  &fakeVisual{},
	}
	c.axles = []vehicle.Axle{
		{Left: c.fl, Right: c.fr, LeftVisual: c.frontVisual, Steers: true},
		{Left: c.rl, Right: c.rr, RightVisual: c.rearVisual, Drives: true},
	}
	return c
}

func (c *car) wheels() []*fakeWheel {
	return []*fakeWheel{c.fl, c.fr, c.rl, c.rr}
}
