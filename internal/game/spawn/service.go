package spawn

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/game/entity"
	"github.com/cory-johannsen/motorpool/internal/game/vehicle"
)

// ErrWrongKind is returned when a config is passed to the spawner of the other kind.
var ErrWrongKind = errors.New("spawn: config kind does not match spawner")

// Factory builds an entity from a config at a world transform.
type Factory interface {
	Spawn(ctx context.Context, cfg Config, at entity.Transform) (entity.Entity, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, cfg Config, at entity.Transform) (entity.Entity, error)

// Spawn calls f.
func (f FactoryFunc) Spawn(ctx context.Context, cfg Config, at entity.Transform) (entity.Entity, error) {
	return f(ctx, cfg, at)
}

// Tunable is a spawned entity that accepts vehicle tuning after construction.
type Tunable interface {
	Tuning() *vehicle.Tuning
	ApplyTuning(t *vehicle.Tuning)
}

// Service is the spawn entry point: it validates configs, delegates to the
// kind's factory, records the result in the registry and performs the
// post-spawn wiring.
type Service struct {
	characters Factory
	vehicles   Factory
	registry   *entity.Registry
	logger     *zap.Logger
}

// NewService creates a Service.
//
// Precondition: characters, vehicles and registry must be non-nil.
func NewService(characters, vehicles Factory, registry *entity.Registry, logger *zap.Logger) *Service {
	if characters == nil || vehicles == nil || registry == nil {
		panic("spawn.NewService: factories and registry must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{characters: characters, vehicles: vehicles, registry: registry, logger: logger}
}

// Registry returns the registry spawned entities are recorded in.
func (s *Service) Registry() *entity.Registry { return s.registry }

// SpawnCharacter builds a character from cfg at at.
//
// Postcondition: Returns the registered entity or a non-nil error.
func (s *Service) SpawnCharacter(ctx context.Context, cfg Config, at entity.Transform) (entity.Entity, error) {
	if cfg.Kind != KindCharacter {
		return nil, fmt.Errorf("spawning character %q: %w", cfg.ID, ErrWrongKind)
	}
	return s.spawn(ctx, s.characters, cfg, at)
}

// SpawnVehicle builds a vehicle from cfg at at and applies cfg's tuning
// when the factory did not.
//
// Postcondition: Returns the registered entity or a non-nil error.
func (s *Service) SpawnVehicle(ctx context.Context, cfg Config, at entity.Transform) (entity.Entity, error) {
	if cfg.Kind != KindVehicle {
		return nil, fmt.Errorf("spawning vehicle %q: %w", cfg.ID, ErrWrongKind)
	}
	e, err := s.spawn(ctx, s.vehicles, cfg, at)
	if err != nil {
		return nil, err
	}
	if t, ok := entity.As[Tunable](e); ok && cfg.Vehicle != nil && t.Tuning() != cfg.Vehicle {
		t.ApplyTuning(cfg.Vehicle)
	}
	return e, nil
}

// Spawn dispatches on cfg.Kind.
func (s *Service) Spawn(ctx context.Context, cfg Config, at entity.Transform) (entity.Entity, error) {
	if cfg.Kind == KindVehicle {
		return s.SpawnVehicle(ctx, cfg, at)
	}
	return s.SpawnCharacter(ctx, cfg, at)
}

func (s *Service) spawn(ctx context.Context, f Factory, cfg Config, at entity.Transform) (entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("spawning %q: %w", cfg.ID, err)
	}
	if err := cfg.Validate(); err != nil {
		s.logger.Error("spawn failed", zap.String("id", cfg.ID.String()), zap.Error(err))
		return nil, err
	}
	if _, exists := s.registry.Get(cfg.ID); exists {
		return nil, fmt.Errorf("spawning %q: id already spawned", cfg.ID)
	}
	e, err := f.Spawn(ctx, cfg, at)
	if err != nil {
		s.logger.Error("spawn failed",
			zap.String("id", cfg.ID.String()),
			zap.String("address", cfg.Address),
			zap.Error(err),
		)
		return nil, fmt.Errorf("spawning %q: %w", cfg.ID, err)
	}
	if e == nil {
		return nil, fmt.Errorf("spawning %q: factory returned no entity", cfg.ID)
	}
	if err := s.registry.Add(e); err != nil {
		return nil, fmt.Errorf("spawning %q: %w", cfg.ID, err)
	}
	s.logger.Info("spawned",
		zap.String("id", e.ID().String()),
		zap.String("kind", string(cfg.Kind)),
		zap.String("address", cfg.Address),
	)
	return e, nil
}
