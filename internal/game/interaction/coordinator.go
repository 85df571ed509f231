// Package interaction moves the player character into and out of vehicles
// and resolves what the character can interact with.
package interaction

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/game/entity"
	"github.com/cory-johannsen/motorpool/internal/game/possession"
)

// Protocol misuse errors. Callers may ignore them; the coordinator state is unchanged.
var (
	ErrAlreadyInVehicle = errors.New("interaction: already in a vehicle")
	ErrNotInVehicle     = errors.New("interaction: not in a vehicle")
	ErrNoCharacter      = errors.New("interaction: no character registered")
	ErrNoVehicle        = errors.New("interaction: no vehicle")
	ErrInTransition     = errors.New("interaction: transition in progress")
	ErrVehicleWrecked   = errors.New("interaction: vehicle is wrecked")
)

// exitLift is how far above the exit anchor the character is placed.
const exitLift = 0.1

// Mode is where the player is.
type Mode int

const (
	ModeOnFoot Mode = iota
	ModeInVehicle
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeInVehicle {
		return "in_vehicle"
	}
	return "on_foot"
}

// Vehicle is the view of a vehicle needed to seat and unseat a driver.
type Vehicle interface {
	possession.Controllable
	ID() entity.ID
	// Seat and ExitAnchor report false when the vehicle has none.
	Seat() (entity.Transform, bool)
	ExitAnchor() (entity.Transform, bool)
	Origin() entity.Transform
	CameraTarget() entity.Spatial
}

// wreck is implemented by vehicles that can be destroyed.
type wreck interface {
	Wrecked() bool
}

// Character is the view of the on-foot player needed to seat and unseat it.
type Character interface {
	possession.Controllable
	ID() entity.ID
	Transform() entity.Transform
	SetTransform(t entity.Transform)
	// SetSimulationActive hides the body and stops its simulation while driving.
	SetSimulationActive(active bool)
	CameraTarget() entity.Spatial
}

// Coordinator owns the enter/exit protocol.
//
// Invariant: Mode is ModeInVehicle iff CurrentVehicle is non-nil.
type Coordinator struct {
	switcher  *possession.Switcher
	logger    *zap.Logger
	character Character
	current   Vehicle
	busy      bool
}

// NewCoordinator creates a Coordinator driving switcher.
//
// Precondition: switcher must be non-nil.
func NewCoordinator(switcher *possession.Switcher, logger *zap.Logger) *Coordinator {
	if switcher == nil {
		panic("interaction.NewCoordinator: switcher must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{switcher: switcher, logger: logger}
}

// RegisterCharacter sets the player character and registers it for possession.
//
// Precondition: c must be non-nil.
// Postcondition: Returns an error if the switcher rejects the registration.
func (co *Coordinator) RegisterCharacter(c Character) error {
	if c == nil {
		return ErrNoCharacter
	}
	if err := co.switcher.Register(c.ID(), possession.KindCharacter, c, c.CameraTarget()); err != nil {
		return fmt.Errorf("registering character: %w", err)
	}
	co.character = c
	return nil
}

// Character returns the registered character, or nil.
func (co *Coordinator) Character() Character { return co.character }

// Mode reports whether the player is on foot or driving.
func (co *Coordinator) Mode() Mode {
	if co.current != nil {
		return ModeInVehicle
	}
	return ModeOnFoot
}

// CurrentVehicle returns the vehicle being driven, or nil.
func (co *Coordinator) CurrentVehicle() Vehicle { return co.current }

// Enter seats the character in v and hands control to v.
//
// Postcondition: On success Mode is ModeInVehicle, the character is hidden
// at the seat (or the vehicle origin) and v is possessed. On error nothing
// changes; an activation failure restores the character.
func (co *Coordinator) Enter(v Vehicle) error {
	if co.busy {
		return ErrInTransition
	}
	if v == nil {
		co.logger.Debug("enter ignored", zap.Error(ErrNoVehicle))
		return ErrNoVehicle
	}
	if co.character == nil {
		co.logger.Warn("enter ignored", zap.Error(ErrNoCharacter))
		return ErrNoCharacter
	}
	if co.current != nil {
		co.logger.Debug("enter ignored", zap.Error(ErrAlreadyInVehicle),
			zap.String("vehicle", co.current.ID().String()))
		return ErrAlreadyInVehicle
	}
	if w, ok := v.(wreck); ok && w.Wrecked() {
		co.logger.Debug("enter ignored", zap.Error(ErrVehicleWrecked),
			zap.String("vehicle", v.ID().String()))
		return ErrVehicleWrecked
	}

	co.busy = true
	defer func() { co.busy = false }()

	before := co.character.Transform()
	seat, ok := v.Seat()
	if !ok {
		seat = v.Origin()
	}
	co.character.SetTransform(seat)
	co.character.SetSimulationActive(false)

	err := co.switcher.Register(v.ID(), possession.KindVehicle, v, v.CameraTarget())
	if err == nil {
		err = co.switcher.Activate(v.ID(), v.CameraTarget())
	}
	if err != nil {
		co.character.SetTransform(before)
		co.character.SetSimulationActive(true)
		co.logger.Error("entering vehicle failed; character restored",
			zap.String("vehicle", v.ID().String()), zap.Error(err))
		return fmt.Errorf("entering vehicle %q: %w", v.ID(), err)
	}

	co.current = v
	co.logger.Info("entered vehicle", zap.String("vehicle", v.ID().String()))
	return nil
}

// Exit places the character beside the current vehicle and returns control to it.
//
// Postcondition: On success Mode is ModeOnFoot and the character is
// possessed, standing exitLift above the exit anchor (or the vehicle
// origin) with pitch and roll cleared.
func (co *Coordinator) Exit() error {
	if co.busy {
		return ErrInTransition
	}
	if co.current == nil {
		return ErrNotInVehicle
	}
	if co.character == nil {
		co.logger.Warn("exit ignored", zap.Error(ErrNoCharacter))
		return ErrNoCharacter
	}

	co.busy = true
	defer func() { co.busy = false }()

	v := co.current
	anchor, ok := v.ExitAnchor()
	if !ok {
		anchor = v.Origin()
	}
	placed := anchor.YawOnly()
	placed.Position = placed.Position.Add(mgl64.Vec3{0, exitLift, 0})

	co.character.SetTransform(placed)
	co.character.SetSimulationActive(true)
	co.current = nil

	if err := co.switcher.Activate(co.character.ID(), co.character.CameraTarget()); err != nil {
		co.switcher.Release()
		co.logger.Error("possessing character after exit failed",
			zap.String("vehicle", v.ID().String()), zap.Error(err))
		return fmt.Errorf("exiting vehicle %q: %w", v.ID(), err)
	}
	co.logger.Info("exited vehicle", zap.String("vehicle", v.ID().String()))
	return nil
}

// ForceRelease takes the driver out regardless of input, e.g. after an explosion.
func (co *Coordinator) ForceRelease() {
	err := co.Exit()
	switch {
	case err == nil, errors.Is(err, ErrNotInVehicle):
	default:
		co.logger.Warn("forced release failed", zap.Error(err))
	}
}
