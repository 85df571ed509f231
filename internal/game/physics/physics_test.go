package physics_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/motorpool/internal/game/entity"
	"github.com/cory-johannsen/motorpool/internal/game/physics"
)

func at(x, y, z float64) entity.Transform {
	return entity.NewTransform(mgl64.Vec3{x, y, z})
}

func newCar(w *physics.World, y float64) (*physics.RigidBody, []*physics.Wheel) {
	b := physics.NewRigidBody(1200, 1500, 0, at(0, y, 0))
	w.AddBody(b)
	var wheels []*physics.Wheel
	for _, m := range []mgl64.Vec3{{-0.8, -0.3, 1.3}, {0.8, -0.3, 1.3}, {-0.8, -0.3, -1.3}, {0.8, -0.3, -1.3}} {
		wheels = append(wheels, w.AttachWheel(b, physics.DefaultWheelSpec(m)))
	}
	return b, wheels
}

func TestSmoothstep_Edges(t *testing.T) {
	assert.Equal(t, 0.0, physics.Smoothstep(5, 25, 0))
	assert.Equal(t, 0.0, physics.Smoothstep(5, 25, 5))
	assert.Equal(t, 0.5, physics.Smoothstep(5, 25, 15))
	assert.Equal(t, 1.0, physics.Smoothstep(5, 25, 25))
	assert.Equal(t, 1.0, physics.Smoothstep(5, 25, 90))
}

func TestInverseLerp_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, physics.InverseLerp(3, 3, 2))
	assert.Equal(t, 1.0, physics.InverseLerp(3, 3, 3))
}

func TestRigidBody_FreeFall(t *testing.T) {
	w := physics.NewWorld(10, nil)
	b := physics.NewRigidBody(1, 1, 0, at(0, 100, 0))
	w.AddBody(b)
	w.Integrate(0.1)
	assert.InDelta(t, -1.0, b.Velocity().Y(), 1e-12)
	assert.InDelta(t, 99.9, b.Transform().Position.Y(), 1e-12)
}

func TestRigidBody_InactiveBodyDoesNotMove(t *testing.T) {
	w := physics.NewWorld(10, nil)
	b := physics.NewRigidBody(1, 1, 0, at(0, 100, 0))
	w.AddBody(b)
	b.SetVelocity(mgl64.Vec3{1, 0, 0})
	b.SetActive(false)
	w.Integrate(0.1)
	assert.Equal(t, mgl64.Vec3{0, 100, 0}, b.Transform().Position)
	assert.Equal(t, mgl64.Vec3{}, b.Velocity())
}

func TestRigidBody_ImpulsesScaleByMass(t *testing.T) {
	b := physics.NewRigidBody(4, 2, 0, at(0, 0, 0))
	b.AddImpulse(mgl64.Vec3{0, 8, 0})
	b.AddTorqueImpulse(mgl64.Vec3{0, 0, 6})
	assert.Equal(t, mgl64.Vec3{0, 2, 0}, b.Velocity())
	assert.Equal(t, mgl64.Vec3{0, 0, 3}, b.AngularVelocity())
}

func TestRigidBody_ShiftCenterOfMassAccumulates(t *testing.T) {
	b := physics.NewRigidBody(1, 1, 0, at(0, 1, 0))
	b.ShiftCenterOfMass(mgl64.Vec3{0, -0.5, 0})
	b.ShiftCenterOfMass(mgl64.Vec3{0, -0.5, 0})
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, b.CenterOfMassOffset())
	assert.InDelta(t, 0.0, b.CenterOfMass().Y(), 1e-12)
}

func TestWorld_WheelLessBodyRestsOnGround(t *testing.T) {
	w := physics.NewWorld(9.81, nil)
	b := physics.NewRigidBody(1, 1, 0.5, at(0, 0.6, 0))
	w.AddBody(b)
	for i := 0; i < 100; i++ {
		w.Integrate(0.02)
	}
	assert.InDelta(t, 0.5, b.Transform().Position.Y(), 1e-9)
}

func TestWorld_CarSettlesOnSuspension(t *testing.T) {
	w := physics.NewWorld(9.81, nil)
	b, wheels := newCar(w, 0.95)
	for i := 0; i < 250; i++ {
		w.Integrate(0.02)
	}
	y := b.Transform().Position.Y()
	assert.Greater(t, y, 0.65)
	assert.Less(t, y, 1.0)
	for _, wh := range wheels {
		c, grounded := wh.GroundHit()
		require.True(t, grounded)
		assert.Greater(t, c, 0.0)
		assert.Less(t, c, 1.0)
	}
}

func TestWorld_OverturnedCarRestsOnItsHull(t *testing.T) {
	w := physics.NewWorld(9.81, nil)
	b, wheels := newCar(w, 2)
	b.Clearance = 0.45
	b.SetTransform(entity.Transform{
		Position: mgl64.Vec3{0, 2, 0},
		Rotation: mgl64.QuatRotate(mgl64.DegToRad(180), mgl64.Vec3{0, 0, 1}),
	})
	for i := 0; i < 250; i++ {
		w.Integrate(0.02)
	}
	for _, wh := range wheels {
		_, grounded := wh.GroundHit()
		require.False(t, grounded)
	}
	assert.InDelta(t, 0.45, b.Transform().Position.Y(), 1e-9)
	assert.InDelta(t, 0.0, b.Velocity().Y(), 1e-9)
}

func TestWheel_AirborneReportsNotGrounded(t *testing.T) {
	w := physics.NewWorld(9.81, nil)
	_, wheels := newCar(w, 10)
	c, grounded := wheels[0].GroundHit()
	assert.False(t, grounded)
	assert.Equal(t, 0.0, c)
}

func TestWheel_MotorTorqueDrivesForward(t *testing.T) {
	w := physics.NewWorld(9.81, nil)
	b, wheels := newCar(w, 0.87)
	for _, wh := range wheels {
		wh.SetMotorTorque(800)
	}
	for i := 0; i < 50; i++ {
		w.Integrate(0.02)
	}
	assert.Greater(t, b.Velocity().Z(), 1.0)
}

func TestWorld_ContactReportedOnceOnEnter(t *testing.T) {
	w := physics.NewWorld(0, nil)
	a := physics.NewRigidBody(1, 1, 1, at(0, 5, 0))
	w.AddBody(a)
	a.SetVelocity(mgl64.Vec3{10, 0, 0})
	w.AddObstacle(physics.Obstacle{Center: mgl64.Vec3{3, 5, 0}, Radius: 1})

	var contacts []physics.Contact
	w.OnContact(func(c physics.Contact) { contacts = append(contacts, c) })
	for i := 0; i < 20; i++ {
		w.Integrate(0.02)
	}
	require.Len(t, contacts, 1)
	assert.Same(t, a, contacts[0].A)
	assert.Nil(t, contacts[0].B)
	assert.InDelta(t, 10.0, contacts[0].RelativeSpeed, 1e-9)
	assert.Less(t, a.Velocity().X(), 0.0, "bounced off the obstacle")
}

func TestWorld_BodyBodyContactReportsRelativeSpeed(t *testing.T) {
	w := physics.NewWorld(0, nil)
	a := physics.NewRigidBody(1, 1, 1, at(0, 5, 0))
	b := physics.NewRigidBody(1, 1, 1, at(2.5, 5, 0))
	w.AddBody(a)
	w.AddBody(b)
	a.SetVelocity(mgl64.Vec3{4, 0, 0})
	b.SetVelocity(mgl64.Vec3{-4, 0, 0})

	var contacts []physics.Contact
	w.OnContact(func(c physics.Contact) { contacts = append(contacts, c) })
	for i := 0; i < 10; i++ {
		w.Integrate(0.02)
	}
	require.Len(t, contacts, 1)
	assert.InDelta(t, 8.0, contacts[0].RelativeSpeed, 1e-9)
}

func TestWorld_RemoveBodyStopsIntegration(t *testing.T) {
	w := physics.NewWorld(10, nil)
	b := physics.NewRigidBody(1, 1, 0, at(0, 100, 0))
	w.AddBody(b)
	w.AddBody(b)
	w.RemoveBody(b)
	w.Integrate(0.1)
	assert.Equal(t, 100.0, b.Transform().Position.Y())
}

func TestPropertyClamp_StaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lo := rapid.Float64Range(-100, 100).Draw(t, "lo")
		hi := lo + rapid.Float64Range(0, 100).Draw(t, "span")
		v := rapid.Float64Range(-1000, 1000).Draw(t, "v")
		got := physics.Clamp(v, lo, hi)
		if got < lo || got > hi {
			t.Fatalf("Clamp(%g, %g, %g) = %g", v, lo, hi, got)
		}
	})
}
