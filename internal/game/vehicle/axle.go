package vehicle

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/game/entity"
)

// Body is the chassis the dynamics drive.
type Body interface {
	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)
	Transform() entity.Transform
	ShiftCenterOfMass(offset mgl64.Vec3)
	AddForceAtPosition(f, point mgl64.Vec3)
}

// Wheel is a suspension wheel contact owned by the host physics.
type Wheel interface {
	SetSteerAngle(deg float64)
	SetMotorTorque(torque float64)
	SetBrakeTorque(torque float64)
	// GroundHit reports normalized compression (0 extended, 1 compressed).
	GroundHit() (compression01 float64, grounded bool)
	Position() mgl64.Vec3
	Up() mgl64.Vec3
	Pose() (mgl64.Vec3, mgl64.Quat)
}

// Visual receives a wheel's world pose for rendering.
type Visual interface {
	SetPose(position mgl64.Vec3, rotation mgl64.Quat)
}

// Axle is a left/right wheel pair with steer and drive flags.
type Axle struct {
	Left, Right             Wheel
	LeftVisual, RightVisual Visual
	Steers                  bool
	Drives                  bool
}

// complete reports whether both wheel contacts are set.
func (a Axle) complete() bool {
	return a.Left != nil && a.Right != nil
}

// ValidateAxles reports axle-set inconsistencies: missing wheels, no
// driving axle, more than one steering axle.
//
// Postcondition: Returns one message per problem; nil when the set is consistent.
func ValidateAxles(axles []Axle) []string {
	var problems []string
	if len(axles) == 0 {
		return []string{"vehicle has no axles"}
	}
	steering, driving := 0, 0
	for i, a := range axles {
		if !a.complete() {
			problems = append(problems, fmt.Sprintf("axle %d is missing a wheel and will be skipped", i))
			continue
		}
		if a.Steers {
			steering++
		}
		if a.Drives {
			driving++
		}
	}
	if driving == 0 {
		problems = append(problems, "no driving axle; throttle has no effect")
	}
	if steering > 1 {
		problems = append(problems, fmt.Sprintf("%d steering axles; the last one is treated as front for anti-roll", steering))
	}
	return problems
}

// logAxleProblems logs every axle-set problem as a configuration warning.
func logAxleProblems(logger *zap.Logger, axles []Axle) {
	for _, p := range ValidateAxles(axles) {
		logger.Warn("axle configuration", zap.String("problem", p))
	}
}

// syncVisuals copies each wheel's pose onto its visual.
func syncVisuals(axles []Axle) {
	for _, a := range axles {
		syncVisual(a.Left, a.LeftVisual)
		syncVisual(a.Right, a.RightVisual)
	}
}

func syncVisual(w Wheel, v Visual) {
	if w == nil || v == nil {
		return
	}
	v.SetPose(w.Pose())
}
