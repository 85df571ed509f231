package spawn

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/config"
	"github.com/cory-johannsen/motorpool/internal/game/character"
	"github.com/cory-johannsen/motorpool/internal/game/damage"
	"github.com/cory-johannsen/motorpool/internal/game/entity"
	"github.com/cory-johannsen/motorpool/internal/game/physics"
	"github.com/cory-johannsen/motorpool/internal/game/vehicle"
)

// ErrUnknownAddress is returned when no blueprint is registered for a config's address.
var ErrUnknownAddress = errors.New("spawn: unknown address")

// SedanAddress is the address of the built-in passenger-car blueprint.
const SedanAddress = "vehicles/sedan"

// AxleBlueprint places one axle on a chassis.
type AxleBlueprint struct {
	// Forward is the axle's offset along the chassis +Z axis.
	Forward   float64
	HalfTrack float64
	// Height is the suspension mount height relative to the chassis origin.
	Height float64
	Steers bool
	Drives bool
	// Wheel is copied for both wheels; its Mount is overwritten.
	Wheel physics.WheelSpec
}

// Blueprint describes how to assemble a vehicle body.
type Blueprint struct {
	Inertia float64
	// Radius is the contact sphere used for collisions.
	Radius float64
	// Clearance is the chassis origin height when the body lies on its hull.
	Clearance float64
	// Paint is the body colour the burn tint grades.
	Paint colorful.Color
	Axles []AxleBlueprint
	// Seat and Exit are chassis-local; nil falls back to the chassis origin.
	Seat         *entity.Transform
	Exit         *entity.Transform
	CameraTarget entity.Transform
}

// SedanBlueprint returns the stock front-steer, rear-drive car.
func SedanBlueprint() Blueprint {
	seat := entity.NewTransform(mgl64.Vec3{0.4, 0.4, 0.1})
	exit := entity.NewTransform(mgl64.Vec3{1.8, -0.5, 0.1})
	return Blueprint{
		Inertia:   2500,
		Radius:    2.2,
		Clearance: 0.45,
		Paint:     colorful.Color{R: 0.62, G: 0.09, B: 0.11},
		Axles: []AxleBlueprint{
			{Forward: 1.3, HalfTrack: 0.8, Height: -0.3, Steers: true, Wheel: physics.DefaultWheelSpec(mgl64.Vec3{})},
			{Forward: -1.3, HalfTrack: 0.8, Height: -0.3, Drives: true, Wheel: physics.DefaultWheelSpec(mgl64.Vec3{})},
		},
		Seat:         &seat,
		Exit:         &exit,
		CameraTarget: entity.NewTransform(mgl64.Vec3{0, 1, 0}),
	}
}

// VehicleFactory builds vehicles as rigid bodies in a physics world.
type VehicleFactory struct {
	world      *physics.World
	blueprints map[string]Blueprint
	sim        config.SimulationConfig
	burnout    damage.BurnoutSettings
	rand       *rand.Rand
	logger     *zap.Logger
}

// NewVehicleFactory creates a factory with the sedan blueprint registered.
//
// Precondition: world must be non-nil.
func NewVehicleFactory(world *physics.World, cfg config.Config, r *rand.Rand, logger *zap.Logger) *VehicleFactory {
	if world == nil {
		panic("spawn.NewVehicleFactory: world must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &VehicleFactory{
		world:      world,
		blueprints: map[string]Blueprint{SedanAddress: SedanBlueprint()},
		sim:        cfg.Simulation,
		burnout:    damage.BurnoutFromConfig(cfg.Damage),
		rand:       r,
		logger:     logger,
	}
}

// Register adds or replaces the blueprint at address.
func (f *VehicleFactory) Register(address string, bp Blueprint) {
	f.blueprints[address] = bp
}

// Spawn builds the vehicle described by cfg at at.
//
// Postcondition: Returns a *vehicle.Root whose chassis is in the world, or a non-nil error.
func (f *VehicleFactory) Spawn(_ context.Context, cfg Config, at entity.Transform) (entity.Entity, error) {
	bp, ok := f.blueprints[cfg.Address]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAddress, cfg.Address)
	}

	mass := vehicle.DefaultTuning().Mass
	if cfg.Vehicle != nil && cfg.Vehicle.Mass > 0 {
		mass = cfg.Vehicle.Mass
	}
	body := physics.NewRigidBody(mass, bp.Inertia, bp.Radius, at)
	body.Clearance = bp.Clearance
	body.LinearDrag = f.sim.LinearDrag
	body.AngularDrag = f.sim.AngularDrag
	f.world.AddBody(body)

	paint := bp.Paint
	if cfg.Paint != nil {
		paint = *cfg.Paint
	}

	axles := make([]vehicle.Axle, 0, len(bp.Axles))
	for _, ab := range bp.Axles {
		left, right := ab.Wheel, ab.Wheel
		left.Mount = mgl64.Vec3{-ab.HalfTrack, ab.Height, ab.Forward}
		right.Mount = mgl64.Vec3{ab.HalfTrack, ab.Height, ab.Forward}
		axles = append(axles, vehicle.Axle{
			Left:   f.world.AttachWheel(body, left),
			Right:  f.world.AttachWheel(body, right),
			Steers: ab.Steers,
			Drives: ab.Drives,
		})
	}

	logger := f.logger.Named("vehicle")
	return vehicle.NewRoot(vehicle.RootConfig{
		ID:           cfg.ID,
		Chassis:      body,
		Axles:        axles,
		Tuning:       cfg.Vehicle,
		Seat:         bp.Seat,
		Exit:         bp.Exit,
		CameraTarget: bp.CameraTarget,
		Effects:      damage.NewLogEffects(logger.With(zap.String("vehicle", cfg.ID.String())), paint),
		Burnout:      f.burnout,
		Rand:         f.rand,
	}, logger), nil
}

// CharacterFactory builds on-foot characters.
type CharacterFactory struct {
	heading character.Heading
	logger  *zap.Logger
}

// NewCharacterFactory creates a factory whose characters move relative to heading. heading may be nil.
func NewCharacterFactory(heading character.Heading, logger *zap.Logger) *CharacterFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CharacterFactory{heading: heading, logger: logger}
}

// Spawn builds the character described by cfg at at.
//
// Postcondition: Returns a *character.Root or a non-nil error.
func (f *CharacterFactory) Spawn(_ context.Context, cfg Config, at entity.Transform) (entity.Entity, error) {
	if cfg.Character == nil {
		return nil, fmt.Errorf("character %q has no character section", cfg.ID)
	}
	return character.NewRoot(character.RootConfig{
		ID:        cfg.ID,
		Config:    *cfg.Character,
		Transform: at,
		Heading:   f.heading,
	}, f.logger.Named("character")), nil
}
