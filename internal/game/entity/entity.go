// Package entity provides identity, spatial transforms and capability lookup
// for everything the simulation can spawn.
package entity

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// ID is a stable entity identifier. It is stored as a string so configs stay
// readable and IDs survive renames.
type ID string

// NewID returns a fresh random ID.
//
// Postcondition: Returns a non-empty ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// String returns the raw identifier.
func (id ID) String() string { return string(id) }

// Empty reports whether the ID is unset.
func (id ID) Empty() bool { return id == "" }

// Transform is a world-space position and orientation.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform returns a transform at pos with identity rotation.
func NewTransform(pos mgl64.Vec3) Transform {
	return Transform{Position: pos, Rotation: mgl64.QuatIdent()}
}

// Forward returns the unit +Z axis of the transform in world space.
func (t Transform) Forward() mgl64.Vec3 {
	return t.rotation().Rotate(mgl64.Vec3{0, 0, 1})
}

// Up returns the unit +Y axis of the transform in world space.
func (t Transform) Up() mgl64.Vec3 {
	return t.rotation().Rotate(mgl64.Vec3{0, 1, 0})
}

// Yaw returns the heading in radians around world +Y, measured from +Z toward +X.
func (t Transform) Yaw() float64 {
	f := t.Forward()
	return math.Atan2(f.X(), f.Z())
}

// YawOnly returns a copy of t whose rotation keeps the heading and zeroes pitch and roll.
func (t Transform) YawOnly() Transform {
	return Transform{
		Position: t.Position,
		Rotation: mgl64.QuatRotate(t.Yaw(), mgl64.Vec3{0, 1, 0}),
	}
}

// TransformPoint maps a local-space point into world space.
func (t Transform) TransformPoint(local mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.rotation().Rotate(local))
}

// Compose maps a transform local to t into world space.
func (t Transform) Compose(local Transform) Transform {
	return Transform{
		Position: t.TransformPoint(local.Position),
		Rotation: t.rotation().Mul(local.rotation()).Normalize(),
	}
}

// rotation treats the zero quaternion as identity so zero-valued transforms are usable.
func (t Transform) rotation() mgl64.Quat {
	if t.Rotation.W == 0 && t.Rotation.V.Len() == 0 {
		return mgl64.QuatIdent()
	}
	return t.Rotation
}

// Spatial is anything with a live world transform.
type Spatial interface {
	Transform() Transform
}

// Offset is a Spatial fixed relative to a moving parent, e.g. a seat or a
// camera target on a vehicle.
type Offset struct {
	Parent Spatial
	Local  Transform
}

// Transform returns the offset's current world transform.
func (o Offset) Transform() Transform {
	return o.Parent.Transform().Compose(o.Local)
}

// Fixed is a Spatial that never moves.
type Fixed Transform

// Transform returns the fixed transform.
func (f Fixed) Transform() Transform { return Transform(f) }

// Entity is anything that can be addressed by ID.
type Entity interface {
	ID() ID
}

// Node is an entity that may be parented to another node, e.g. a door
// collider hanging off a vehicle.
type Node interface {
	Parent() Node
}

// As resolves capability T on e by interface assertion.
//
// Postcondition: ok is true iff e implements T.
func As[T any](e any) (T, bool) {
	v, ok := e.(T)
	return v, ok
}

// FindInParents walks from n up its parent chain and returns the first node
// implementing capability T.
//
// Postcondition: ok is false when no node in the chain implements T.
func FindInParents[T any](n Node) (T, bool) {
	for cur := n; cur != nil; cur = cur.Parent() {
		if v, ok := cur.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
