package interaction

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/game/entity"
)

// Context is passed to interactables when the player interacts.
type Context struct {
	Character Character
	Control   *Coordinator
}

// Interactable is something the player can interact with.
type Interactable interface {
	Prompt() string
	Interact(ctx Context)
}

// VehicleInteractable toggles entry into its vehicle: it enters when the
// player is on foot and exits when the player is driving this vehicle.
type VehicleInteractable struct {
	vehicle Vehicle
	parent  entity.Node
	logger  *zap.Logger
}

// NewVehicleInteractable creates the enter/exit interactable for v. parent
// may be nil.
func NewVehicleInteractable(v Vehicle, parent entity.Node, logger *zap.Logger) *VehicleInteractable {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleInteractable{vehicle: v, parent: parent, logger: logger}
}

// Prompt returns the hint shown while the interactable is in range.
func (vi *VehicleInteractable) Prompt() string { return "Press E to enter/exit" }

// Parent returns the node this interactable hangs off, or nil.
func (vi *VehicleInteractable) Parent() entity.Node { return vi.parent }

// Vehicle returns the vehicle this interactable controls.
func (vi *VehicleInteractable) Vehicle() Vehicle { return vi.vehicle }

// Interact enters or exits the vehicle.
func (vi *VehicleInteractable) Interact(ctx Context) {
	if ctx.Control == nil || vi.vehicle == nil {
		return
	}
	if ctx.Control.Mode() == ModeOnFoot {
		if err := ctx.Control.Enter(vi.vehicle); err != nil {
			vi.logger.Debug("enter failed", zap.Error(err))
		}
		return
	}
	if cur := ctx.Control.CurrentVehicle(); cur != nil && cur.ID() == vi.vehicle.ID() {
		if err := ctx.Control.Exit(); err != nil {
			vi.logger.Debug("exit failed", zap.Error(err))
		}
	}
}

// Part is a node of a larger entity, e.g. a door collider on a vehicle.
type Part struct {
	Name  string
	Owner entity.Node
}

// Parent returns the owning node.
func (p *Part) Parent() entity.Node { return p.Owner }
