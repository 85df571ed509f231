package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// GroundFunc returns the ground height at (x, z).
type GroundFunc func(x, z float64) float64

// FlatGround is a ground plane at y = 0.
func FlatGround(x, z float64) float64 { return 0 }

// Obstacle is a static collision sphere.
type Obstacle struct {
	Center mgl64.Vec3
	Radius float64
}

// Contact describes the first step two colliders touch.
// B is nil for contacts with static obstacles.
type Contact struct {
	A, B          *RigidBody
	Normal        mgl64.Vec3
	RelativeSpeed float64
}

type pairKey struct {
	a, b     *RigidBody
	obstacle int
}

// World integrates bodies, their wheels and sphere contacts.
// It is not safe for concurrent use; the fixed clock owns it.
type World struct {
	gravity   mgl64.Vec3
	ground    GroundFunc
	bodies    []*RigidBody
	wheels    map[*RigidBody][]*Wheel
	obstacles []Obstacle
	touching  map[pairKey]bool
	listeners []func(Contact)
}

// NewWorld creates a World with downward gravity g (m/s²) over ground.
// A nil ground uses FlatGround.
func NewWorld(g float64, ground GroundFunc) *World {
	if ground == nil {
		ground = FlatGround
	}
	return &World{
		gravity:  mgl64.Vec3{0, -g, 0},
		ground:   ground,
		wheels:   make(map[*RigidBody][]*Wheel),
		touching: make(map[pairKey]bool),
	}
}

// Ground returns the world's ground height function.
func (w *World) Ground() GroundFunc { return w.ground }

// AddBody adds b to the integration set. Adding a body twice is a no-op.
func (w *World) AddBody(b *RigidBody) {
	for _, existing := range w.bodies {
		if existing == b {
			return
		}
	}
	w.bodies = append(w.bodies, b)
}

// RemoveBody drops b and its wheels from the world.
func (w *World) RemoveBody(b *RigidBody) {
	for i, existing := range w.bodies {
		if existing == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	delete(w.wheels, b)
	for k := range w.touching {
		if k.a == b || k.b == b {
			delete(w.touching, k)
		}
	}
}

// AttachWheel mounts a wheel described by spec on b.
//
// Precondition: b must have been added with AddBody.
func (w *World) AttachWheel(b *RigidBody, spec WheelSpec) *Wheel {
	wheel := &Wheel{spec: spec, body: b, ground: w.ground}
	w.wheels[b] = append(w.wheels[b], wheel)
	return wheel
}

// AddObstacle adds a static collision sphere.
func (w *World) AddObstacle(o Obstacle) {
	w.obstacles = append(w.obstacles, o)
}

// OnContact registers fn to be called for every new contact.
func (w *World) OnContact(fn func(Contact)) {
	w.listeners = append(w.listeners, fn)
}

// Integrate applies queued and wheel forces, advances every active body by
// dt, keeps bodies above ground and reports new contacts. Wheel-less bodies
// rest on their collision sphere, wheeled bodies on their hull clearance.
func (w *World) Integrate(dt float64) {
	for _, b := range w.bodies {
		if !b.Active() {
			continue
		}
		wheels := w.wheels[b]
		if len(wheels) > 0 {
			share := b.Mass / float64(len(wheels))
			for _, wh := range wheels {
				wh.applyForces(dt, share)
			}
		}
		b.integrate(dt, w.gravity)
		if len(wheels) == 0 {
			w.resolveGround(b, b.Radius)
		} else {
			w.resolveGround(b, b.Clearance)
		}
	}
	w.detectContacts()
}

// resolveGround keeps a body's origin at least height above the ground.
func (w *World) resolveGround(b *RigidBody, height float64) {
	if height <= 0 {
		return
	}
	floor := w.ground(b.position.X(), b.position.Z()) + height
	if b.position.Y() >= floor {
		return
	}
	b.position = mgl64.Vec3{b.position.X(), floor, b.position.Z()}
	if b.velocity.Y() < 0 {
		b.velocity = mgl64.Vec3{b.velocity.X(), 0, b.velocity.Z()}
	}
}

func (w *World) detectContacts() {
	seen := make(map[pairKey]bool, len(w.touching))

	for i, a := range w.bodies {
		if !a.Active() || a.Radius <= 0 {
			continue
		}
		for _, b := range w.bodies[i+1:] {
			if !b.Active() || b.Radius <= 0 {
				continue
			}
			delta := b.position.Sub(a.position)
			if delta.Len() >= a.Radius+b.Radius {
				continue
			}
			key := pairKey{a: a, b: b, obstacle: -1}
			seen[key] = true
			normal := safeNormal(delta)
			rel := a.velocity.Sub(b.velocity)
			if !w.touching[key] {
				w.emit(Contact{A: a, B: b, Normal: normal, RelativeSpeed: rel.Len()})
			}
			separate(a, b, normal, a.Radius+b.Radius-delta.Len())
		}

		for j, o := range w.obstacles {
			delta := o.Center.Sub(a.position)
			if delta.Len() >= a.Radius+o.Radius {
				continue
			}
			key := pairKey{a: a, obstacle: j}
			seen[key] = true
			normal := safeNormal(delta)
			if !w.touching[key] {
				w.emit(Contact{A: a, Normal: normal, RelativeSpeed: a.velocity.Len()})
			}
			push := a.Radius + o.Radius - delta.Len()
			a.position = a.position.Sub(normal.Mul(push))
			if closing := a.velocity.Dot(normal); closing > 0 {
				a.velocity = a.velocity.Sub(normal.Mul(closing * (1 + restitution)))
			}
		}
	}

	w.touching = seen
}

const restitution = 0.2

// separate pushes two overlapping bodies apart along normal (a → b) and
// removes their closing velocity, weighted by mass.
func separate(a, b *RigidBody, normal mgl64.Vec3, depth float64) {
	total := a.Mass + b.Mass
	a.position = a.position.Sub(normal.Mul(depth * b.Mass / total))
	b.position = b.position.Add(normal.Mul(depth * a.Mass / total))

	closing := a.velocity.Sub(b.velocity).Dot(normal)
	if closing <= 0 {
		return
	}
	j := closing * (1 + restitution) / (1/a.Mass + 1/b.Mass)
	a.velocity = a.velocity.Sub(normal.Mul(j / a.Mass))
	b.velocity = b.velocity.Add(normal.Mul(j / b.Mass))
}

func safeNormal(delta mgl64.Vec3) mgl64.Vec3 {
	if delta.Len() == 0 {
		return mgl64.Vec3{1, 0, 0}
	}
	return delta.Normalize()
}

func (w *World) emit(c Contact) {
	for _, fn := range w.listeners {
		fn(c)
	}
}
