package interaction

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/game/entity"
)

// DefaultDetectRadius is the reach of the character's interaction scan in metres.
const DefaultDetectRadius = 2.0

// Trigger is a spherical interaction volume. The interactable is resolved
// from Node up its parent chain.
type Trigger struct {
	Node   entity.Node
	Volume entity.Spatial
	Radius float64
}

// distance returns the gap between p and the trigger surface; zero inside.
func (t Trigger) distance(p mgl64.Vec3) float64 {
	d := p.Sub(t.Volume.Transform().Position).Len() - t.Radius
	return math.Max(0, d)
}

// Detector finds the nearest interactable within reach of a point.
type Detector struct {
	radius   float64
	triggers []Trigger
	current  Interactable
	logger   *zap.Logger
}

// NewDetector creates a Detector with the given reach. radius <= 0 uses DefaultDetectRadius.
func NewDetector(radius float64, logger *zap.Logger) *Detector {
	if radius <= 0 {
		radius = DefaultDetectRadius
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{radius: radius, logger: logger}
}

// AddTrigger makes t visible to scans.
//
// Precondition: t.Node and t.Volume must be non-nil.
func (d *Detector) AddTrigger(t Trigger) {
	d.triggers = append(d.triggers, t)
}

// RemoveTriggers drops every trigger attached to n.
func (d *Detector) RemoveTriggers(n entity.Node) {
	kept := d.triggers[:0]
	for _, t := range d.triggers {
		if t.Node != n {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(d.triggers); i++ {
		d.triggers[i] = Trigger{}
	}
	d.triggers = kept
}

// Current returns the interactable found by the last scan, or nil.
func (d *Detector) Current() Interactable { return d.current }

// Scan selects the nearest interactable whose trigger is within reach of origin.
//
// Postcondition: Current is nil when nothing is in reach.
func (d *Detector) Scan(origin mgl64.Vec3) {
	var best Interactable
	bestDist := math.Inf(1)
	for _, t := range d.triggers {
		dist := t.distance(origin)
		if dist > d.radius || dist >= bestDist {
			continue
		}
		candidate, ok := entity.FindInParents[Interactable](t.Node)
		if !ok {
			continue
		}
		best, bestDist = candidate, dist
	}

	if best != d.current {
		if best == nil {
			d.logger.Debug("interactable lost")
		} else {
			d.logger.Debug("interactable found", zap.String("prompt", best.Prompt()))
		}
	}
	d.current = best
}

// TryInteract interacts with the current interactable.
//
// Postcondition: Returns false if nothing is in reach.
func (d *Detector) TryInteract(ctx Context) bool {
	if d.current == nil {
		d.logger.Debug("interact pressed with nothing in reach")
		return false
	}
	d.logger.Debug("interacting", zap.String("prompt", d.current.Prompt()))
	d.current.Interact(ctx)
	return true
}
