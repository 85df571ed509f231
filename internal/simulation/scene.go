package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/config"
	"github.com/cory-johannsen/motorpool/internal/game/camera"
	"github.com/cory-johannsen/motorpool/internal/game/character"
	"github.com/cory-johannsen/motorpool/internal/game/damage"
	"github.com/cory-johannsen/motorpool/internal/game/entity"
	"github.com/cory-johannsen/motorpool/internal/game/input"
	"github.com/cory-johannsen/motorpool/internal/game/interaction"
	"github.com/cory-johannsen/motorpool/internal/game/physics"
	"github.com/cory-johannsen/motorpool/internal/game/possession"
	"github.com/cory-johannsen/motorpool/internal/game/spawn"
	"github.com/cory-johannsen/motorpool/internal/game/vehicle"
	"github.com/cory-johannsen/motorpool/internal/observability"
)

// DoorRadius is the radius of the enter trigger around a vehicle's chassis origin.
const DoorRadius = 1.2

// ErrPlayerAssigned is returned when a second player character is added.
var ErrPlayerAssigned = errors.New("simulation: player character already assigned")

// Status is a frame summary for logs and tests.
type Status struct {
	Mode           interaction.Mode
	Vehicle        entity.ID
	PlayerPosition entity.Transform
	Speed          float64
	Wrecks         int
}

// Scene composes the world, the player, the vehicles and the control plumbing
// and registers them on a Loop.
//
// Frame order: input routing, player, vehicles, camera.
// Fixed order: physics world, vehicles.
type Scene struct {
	cfg    config.Config
	logger *zap.Logger

	loop        *Loop
	world       *physics.World
	router      *input.Router
	camera      *camera.Rig
	switcher    *possession.Switcher
	coordinator *interaction.Coordinator
	spawner     *spawn.Service

	player   *character.Root
	vehicles *orderedmap.OrderedMap[entity.ID, *vehicle.Root]
	bodies   map[*physics.RigidBody]*vehicle.Root
	doors    map[entity.ID]*interaction.Part
	wrecks   int
}

// NewScene builds an empty scene reading input from source. r may be nil.
//
// Precondition: cfg must be valid; source must be non-nil.
// Postcondition: Returns a Scene whose callbacks are registered on its Loop.
func NewScene(cfg config.Config, source input.Source, r *rand.Rand, logger *zap.Logger) *Scene {
	if logger == nil {
		logger = zap.NewNop()
	}
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s := &Scene{
		cfg:      cfg,
		logger:   logger,
		loop:     NewLoop(cfg.Simulation, observability.Component(logger, "loop")),
		world:    physics.NewWorld(cfg.Simulation.Gravity, nil),
		router:   input.NewRouter(source),
		camera:   camera.NewRig(cfg.Camera, r),
		vehicles: orderedmap.NewOrderedMap[entity.ID, *vehicle.Root](),
		bodies:   make(map[*physics.RigidBody]*vehicle.Root),
		doors:    make(map[entity.ID]*interaction.Part),
	}
	s.router.SetSecondaryConsumer(s.camera)
	s.switcher = possession.NewSwitcher(s.router, s.camera, observability.Component(logger, "possession"))
	s.coordinator = interaction.NewCoordinator(s.switcher, observability.Component(logger, "interaction"))
	s.spawner = spawn.NewService(
		spawn.NewCharacterFactory(s.camera, logger),
		spawn.NewVehicleFactory(s.world, cfg, r, logger),
		entity.NewRegistry(),
		observability.Component(logger, "spawn"),
	)

	s.world.OnContact(s.onContact)

	s.loop.RegisterFixed("world", FixedTickerFunc(s.world.Integrate))
	s.loop.RegisterFixed("vehicles", FixedTickerFunc(s.fixedVehicles))
	s.loop.RegisterFrame("input", TickerFunc(func(time.Duration) { s.router.Tick() }))
	s.loop.RegisterFrame("player", TickerFunc(s.tickPlayer))
	s.loop.RegisterFrame("vehicles", TickerFunc(s.tickVehicles))
	s.loop.RegisterFrame("camera", s.camera)
	return s
}

// Loop returns the scene's clock.
func (s *Scene) Loop() *Loop { return s.loop }

// World returns the physics world.
func (s *Scene) World() *physics.World { return s.world }

// Camera returns the camera rig.
func (s *Scene) Camera() *camera.Rig { return s.camera }

// Switcher returns the possession switcher.
func (s *Scene) Switcher() *possession.Switcher { return s.switcher }

// Coordinator returns the enter/exit coordinator.
func (s *Scene) Coordinator() *interaction.Coordinator { return s.coordinator }

// Spawner returns the spawn service.
func (s *Scene) Spawner() *spawn.Service { return s.spawner }

// Player returns the player character, or nil.
func (s *Scene) Player() *character.Root { return s.player }

// Vehicle returns the vehicle with id.
func (s *Scene) Vehicle(id entity.ID) (*vehicle.Root, bool) {
	return s.vehicles.Get(id)
}

// Load spawns cfgs at their placements and adds the results to the scene.
// The first character becomes the player.
//
// Postcondition: Returns the first spawn or wiring error; entities added before it stay.
func (s *Scene) Load(ctx context.Context, cfgs []spawn.Config) error {
	for _, cfg := range cfgs {
		e, err := s.spawner.Spawn(ctx, cfg, cfg.Placement())
		if err != nil {
			return err
		}
		if err := s.add(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scene) add(e entity.Entity) error {
	switch v := e.(type) {
	case *vehicle.Root:
		s.AddVehicle(v)
	case *character.Root:
		if s.player != nil {
			s.logger.Warn("extra character left unpossessable", zap.String("character", v.ID().String()))
			return nil
		}
		return s.SetPlayer(v)
	default:
		s.logger.Warn("spawned entity has no scene role", zap.String("id", e.ID().String()))
	}
	return nil
}

// SetPlayer makes c the player character and possesses it.
//
// Precondition: c must be non-nil.
// Postcondition: On success c is possessed and can reach every live vehicle's door.
func (s *Scene) SetPlayer(c *character.Root) error {
	if s.player != nil {
		return ErrPlayerAssigned
	}
	c.SetHeading(s.camera)
	c.SetCoordinator(s.coordinator)
	if err := s.coordinator.RegisterCharacter(c); err != nil {
		return fmt.Errorf("adding player: %w", err)
	}
	if err := s.switcher.Activate(c.ID(), nil); err != nil {
		return fmt.Errorf("possessing player: %w", err)
	}
	s.player = c
	for el := s.vehicles.Front(); el != nil; el = el.Next() {
		if !el.Value.Inert() {
			s.addDoor(el.Value)
		}
	}
	s.logger.Info("player ready", zap.String("character", c.ID().String()))
	return nil
}

// AddVehicle wires v into the scene: collisions, the enter trigger, the
// exit service and the explosion camera shake.
//
// Precondition: v must be non-nil; its chassis should be in the scene's world.
func (s *Scene) AddVehicle(v *vehicle.Root) {
	if _, exists := s.vehicles.Get(v.ID()); exists {
		s.logger.Warn("vehicle already in scene", zap.String("vehicle", v.ID().String()))
		return
	}
	v.SetControlService(s.coordinator)
	if body, ok := v.Chassis().(*physics.RigidBody); ok {
		s.bodies[body] = v
	}
	v.Damage().OnExplode(func() {
		s.wrecks++
		s.camera.Shake(s.cfg.Camera.ExplosionShake, s.cfg.Camera.ExplosionShakeAmplitude)
	})
	s.vehicles.Set(v.ID(), v)
	if s.player != nil {
		s.addDoor(v)
	}
}

func (s *Scene) addDoor(v *vehicle.Root) {
	if _, ok := s.doors[v.ID()]; ok {
		return
	}
	door := &interaction.Part{
		Name:  "door",
		Owner: interaction.NewVehicleInteractable(v, nil, s.logger),
	}
	s.doors[v.ID()] = door
	s.player.Detector().AddTrigger(interaction.Trigger{Node: door, Volume: v.Chassis(), Radius: DoorRadius})
}

func (s *Scene) removeDoor(id entity.ID) {
	door, ok := s.doors[id]
	if !ok {
		return
	}
	delete(s.doors, id)
	if s.player != nil {
		s.player.Detector().RemoveTriggers(door)
	}
}

// Advance steps the scene by one frame of dt.
func (s *Scene) Advance(dt time.Duration) FrameStats { return s.loop.Advance(dt) }

// Status summarizes the current frame.
func (s *Scene) Status() Status {
	st := Status{Mode: s.coordinator.Mode(), Wrecks: s.wrecks}
	if s.player != nil {
		st.PlayerPosition = s.player.Transform()
		st.Speed = s.player.Speed()
	}
	if v := s.coordinator.CurrentVehicle(); v != nil {
		st.Vehicle = v.ID()
		if root, ok := s.vehicles.Get(v.ID()); ok {
			st.PlayerPosition = root.Transform()
			st.Speed = root.Chassis().Velocity().Len()
		}
	}
	return st
}

// CameraPose returns the camera transform; false without a follow target.
func (s *Scene) CameraPose() (entity.Transform, bool) { return s.camera.Pose() }

func (s *Scene) onContact(c physics.Contact) {
	now := s.loop.Now()
	if v, ok := s.bodies[c.A]; ok {
		v.OnCollision(now, damage.Collision{RelativeSpeed: c.RelativeSpeed, ContactNormal: c.Normal, Other: otherOf(c.B)})
	}
	if c.B == nil {
		return
	}
	if v, ok := s.bodies[c.B]; ok {
		v.OnCollision(now, damage.Collision{RelativeSpeed: c.RelativeSpeed, ContactNormal: c.Normal.Mul(-1), Other: c.A})
	}
}

// otherOf keeps a nil body from becoming a non-nil interface.
func otherOf(b *physics.RigidBody) any {
	if b == nil {
		return nil
	}
	return b
}

func (s *Scene) fixedVehicles(dt float64) {
	for el := s.vehicles.Front(); el != nil; el = el.Next() {
		el.Value.FixedTick(dt)
	}
}

func (s *Scene) tickPlayer(dt time.Duration) {
	if s.player != nil {
		s.player.Tick(dt)
	}
}

func (s *Scene) tickVehicles(dt time.Duration) {
	for el := s.vehicles.Front(); el != nil; el = el.Next() {
		v := el.Value
		v.Tick(dt)
		if v.Inert() {
			s.removeDoor(v.ID())
		}
	}
}
