// Package possession decides which registered entity receives player input
// and which point the camera follows.
package possession

import (
	"context"
	"errors"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/game/entity"
	"github.com/cory-johannsen/motorpool/internal/game/input"
	"github.com/cory-johannsen/motorpool/internal/observability"
)

// ErrNotRegistered is returned when activating an entity the switcher does not know.
var ErrNotRegistered = errors.New("possession: entity not registered")

var switches = observability.Int64Counter("possession",
	"motorpool.possession.switches", "Possession changes between entities")

// Kind classifies a controllable entity.
type Kind int

const (
	KindNone Kind = iota
	KindCharacter
	KindVehicle
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindVehicle:
		return "vehicle"
	default:
		return "none"
	}
}

// Controllable is an entity that can receive player control.
type Controllable interface {
	input.Consumer
	EnableControl()
	DisableControl()
}

// CameraRig follows a target.
type CameraRig interface {
	SetTarget(target entity.Spatial)
}

// State names the possessed entity. Kind is KindNone when nothing is possessed.
type State struct {
	Kind Kind
	ID   entity.ID
}

type registration struct {
	kind   Kind
	ctl    Controllable
	target entity.Spatial
}

// Switcher owns the single active-controllable slot.
//
// Invariant: at most one registered entity has control enabled, and a
// switch disables the previous entity before enabling the next.
type Switcher struct {
	router *input.Router
	camera CameraRig
	logger *zap.Logger

	entries *orderedmap.OrderedMap[entity.ID, registration]
	state   State
	active  Controllable
}

// NewSwitcher creates a Switcher that routes primary input on router and
// retargets camera. camera may be nil.
//
// Precondition: router must be non-nil.
// Postcondition: Returns a Switcher with nothing possessed.
func NewSwitcher(router *input.Router, camera CameraRig, logger *zap.Logger) *Switcher {
	if router == nil {
		panic("possession.NewSwitcher: router must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Switcher{
		router:  router,
		camera:  camera,
		logger:  logger,
		entries: orderedmap.NewOrderedMap[entity.ID, registration](),
	}
}

// Register makes ctl available for activation. Re-registering an ID
// replaces its controllable and camera target; if that ID is active the old
// controllable is disabled before ctl is enabled and takes the input.
//
// Precondition: id must be non-empty; ctl must be non-nil; kind must not be KindNone.
// Postcondition: Returns an error if a precondition is violated.
func (s *Switcher) Register(id entity.ID, kind Kind, ctl Controllable, cameraTarget entity.Spatial) error {
	if id.Empty() {
		return fmt.Errorf("possession: register: empty id")
	}
	if ctl == nil {
		return fmt.Errorf("possession: register %q: nil controllable", id)
	}
	if kind == KindNone {
		return fmt.Errorf("possession: register %q: kind must be character or vehicle", id)
	}
	s.entries.Set(id, registration{kind: kind, ctl: ctl, target: cameraTarget})
	if s.state.ID != id || s.active == nil {
		return nil
	}
	s.state.Kind = kind
	if s.active != ctl {
		s.active.DisableControl()
		s.active = ctl
		ctl.EnableControl()
		s.router.SetPrimaryConsumer(ctl)
	}
	return nil
}

// Unregister forgets id. Unregistering the active entity releases it first.
func (s *Switcher) Unregister(id entity.ID) {
	if s.state.ID == id && s.state.Kind != KindNone {
		s.Release()
	}
	s.entries.Delete(id)
}

// Activate gives control to id and points the camera at cameraTarget, or at
// the target registered with id when cameraTarget is nil. Activating the
// already active entity re-routes input and retargets the camera without
// toggling its control.
//
// Postcondition: On success the router's primary consumer is id's
// controllable and State reports id. Returns ErrNotRegistered and changes
// nothing if id is unknown.
func (s *Switcher) Activate(id entity.ID, cameraTarget entity.Spatial) error {
	reg, ok := s.entries.Get(id)
	if !ok {
		s.logger.Warn("activation of unregistered entity ignored", zap.String("entity", id.String()))
		return fmt.Errorf("activating %q: %w", id, ErrNotRegistered)
	}

	if s.state.ID != id || s.active == nil {
		prev := s.state
		if s.active != nil {
			s.active.DisableControl()
		}
		s.active = reg.ctl
		s.state = State{Kind: reg.kind, ID: id}
		reg.ctl.EnableControl()

		switches.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("from", prev.Kind.String()),
			attribute.String("to", reg.kind.String()),
		))
		s.logger.Debug("possession switched",
			zap.String("from", prev.ID.String()),
			zap.String("to", id.String()),
			zap.Stringer("kind", reg.kind),
		)
	}

	s.router.SetPrimaryConsumer(reg.ctl)

	target := cameraTarget
	if target == nil {
		target = reg.target
	}
	if target != nil && s.camera != nil {
		s.camera.SetTarget(target)
	}
	return nil
}

// Release disables the active entity and detaches primary input.
//
// Postcondition: State().Kind is KindNone.
func (s *Switcher) Release() {
	if s.active != nil {
		s.active.DisableControl()
	}
	s.active = nil
	s.state = State{}
	s.router.SetPrimaryConsumer(nil)
}

// State returns the possession state.
func (s *Switcher) State() State { return s.state }

// Active returns the controllable with input, or nil.
func (s *Switcher) Active() Controllable { return s.active }

// Registered reports whether id can be activated.
func (s *Switcher) Registered(id entity.ID) bool {
	_, ok := s.entries.Get(id)
	return ok
}
