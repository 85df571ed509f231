package entity_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/motorpool/internal/game/entity"
)

type named struct {
	id     entity.ID
	parent entity.Node
}

func (n *named) ID() entity.ID { return n.id }
func (n *named) Parent() entity.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

type greeter struct{ named }

func (g *greeter) Greet() string { return "hi" }

type greeterCap interface{ Greet() string }

func TestNewID_Unique(t *testing.T) {
	a, b := entity.NewID(), entity.NewID()
	assert.False(t, a.Empty())
	assert.NotEqual(t, a, b)
}

func TestTransform_ZeroValueActsAsIdentity(t *testing.T) {
	var tr entity.Transform
	assert.InDelta(t, 1.0, tr.Forward().Z(), 1e-9)
	assert.InDelta(t, 0.0, tr.Yaw(), 1e-9)
}

func TestTransform_YawOnlyDropsPitchAndRoll(t *testing.T) {
	yaw := mgl64.QuatRotate(math.Pi/3, mgl64.Vec3{0, 1, 0})
	pitch := mgl64.QuatRotate(0.4, mgl64.Vec3{1, 0, 0})
	roll := mgl64.QuatRotate(-0.2, mgl64.Vec3{0, 0, 1})
	tr := entity.Transform{Position: mgl64.Vec3{1, 2, 3}, Rotation: yaw.Mul(pitch).Mul(roll)}

	flat := tr.YawOnly()
	assert.Equal(t, tr.Position, flat.Position)
	assert.InDelta(t, math.Pi/3, flat.Yaw(), 1e-9)
	assert.InDelta(t, 1.0, flat.Up().Y(), 1e-9, "flattened transform must be upright")
}

func TestOffset_FollowsParent(t *testing.T) {
	parent := entity.Transform{
		Position: mgl64.Vec3{10, 0, 0},
		Rotation: mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}),
	}
	seat := entity.Offset{
		Parent: entity.Fixed(parent),
		Local:  entity.NewTransform(mgl64.Vec3{0, 1, 2}),
	}
	got := seat.Transform()
	assert.InDelta(t, 12.0, got.Position.X(), 1e-9)
	assert.InDelta(t, 1.0, got.Position.Y(), 1e-9)
	assert.InDelta(t, 0.0, got.Position.Z(), 1e-9)
	assert.InDelta(t, math.Pi/2, got.Yaw(), 1e-9)
}

func TestFindInParents_WalksChain(t *testing.T) {
	root := &greeter{named{id: "car"}}
	door := &named{id: "door", parent: root}
	handle := &named{id: "handle", parent: door}

	g, ok := entity.FindInParents[greeterCap](handle)
	require.True(t, ok)
	assert.Equal(t, "hi", g.Greet())

	_, ok = entity.FindInParents[greeterCap](&named{id: "orphan"})
	assert.False(t, ok)
}

func TestRegistry_AddLookupRemove(t *testing.T) {
	r := entity.NewRegistry()
	require.NoError(t, r.Add(&named{id: "a"}))
	require.NoError(t, r.Add(&greeter{named{id: "b"}}))

	assert.Error(t, r.Add(&named{id: "a"}), "duplicate id must be rejected")
	assert.Error(t, r.Add(&named{}), "empty id must be rejected")

	_, ok := entity.Lookup[greeterCap](r, "a")
	assert.False(t, ok)
	g, ok := entity.Lookup[greeterCap](r, "b")
	require.True(t, ok)
	assert.Equal(t, "hi", g.Greet())

	assert.Len(t, entity.Collect[greeterCap](r), 1)

	r.Remove("b")
	_, ok = r.Get("b")
	assert.False(t, ok)
	r.Remove("missing")
	assert.Equal(t, 1, r.Len())
}

func TestPropertyRegistry_AllPreservesInsertionOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(t, "n")
		r := entity.NewRegistry()
		var want []entity.ID
		for i := 0; i < n; i++ {
			id := entity.NewID()
			want = append(want, id)
			require.NoError(t, r.Add(&named{id: id}))
		}
		var got []entity.ID
		for _, e := range r.All() {
			got = append(got, e.ID())
		}
		assert.Equal(t, want, got)
	})
}
