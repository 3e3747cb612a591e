package physics

import (
	"sort"

	"github.com/decred/slog"
	"github.com/go-gl/mathgl/mgl64"
)

type worldBody struct {
	handle BodyHandle
	kind   BodyKind
	shape  Shape
	mat    Material

	invMass float64
	pos     mgl64.Vec3
	vel     mgl64.Vec3
	force   mgl64.Vec3
}

func (b *worldBody) static() bool {
	return b.invMass == 0
}

type collisionSub struct {
	match func(a, b BodyHandle) bool
	cb    CollisionFunc
}

type pairKey struct {
	a, b BodyHandle
}

func makePairKey(a, b BodyHandle) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// World is a minimal fixed-step rigid body world: gravity and force
// integration, sphere-vs-plane and sphere-vs-box contact resolution with
// restitution, and begin-contact notifications. It covers what a single ball
// court needs; it is not a general purpose solver.
type World struct {
	gravity  float64
	bodies   map[BodyHandle]*worldBody
	subs     []collisionSub
	touching map[pairKey]bool
	nextID   BodyHandle
	stepping bool

	log slog.Logger
}

// NewWorld creates a world with the given downward gravity magnitude.
func NewWorld(gravity float64, log slog.Logger) *World {
	if log == nil {
		log = slog.Disabled
	}
	return &World{
		gravity:  gravity,
		bodies:   make(map[BodyHandle]*worldBody),
		touching: make(map[pairKey]bool),
		nextID:   1,
		log:      log,
	}
}

func (w *World) CreateBody(kind BodyKind, shape Shape, mass float64, pos mgl64.Vec3, mat Material) BodyHandle {
	h := w.nextID
	w.nextID++

	invMass := 0.0
	if mass > 0 {
		invMass = 1 / mass
	}
	w.bodies[h] = &worldBody{
		handle:  h,
		kind:    kind,
		shape:   shape,
		mat:     mat,
		invMass: invMass,
		pos:     pos,
	}
	w.log.Tracef("body %d created: kind=%d mass=%.2f pos=%v", h, kind, mass, pos)
	return h
}

func (w *World) RemoveBody(h BodyHandle) {
	delete(w.bodies, h)
	for k := range w.touching {
		if k.a == h || k.b == h {
			delete(w.touching, k)
		}
	}
}

func (w *World) ApplyImpulse(h BodyHandle, impulse mgl64.Vec3) {
	b, ok := w.bodies[h]
	if !ok || b.static() {
		return
	}
	b.vel = b.vel.Add(impulse.Mul(b.invMass))
}

func (w *World) ApplyForce(h BodyHandle, force mgl64.Vec3) {
	b, ok := w.bodies[h]
	if !ok || b.static() {
		return
	}
	b.force = b.force.Add(force)
}

func (w *World) OnCollision(match func(a, b BodyHandle) bool, cb CollisionFunc) {
	w.subs = append(w.subs, collisionSub{match: match, cb: cb})
}

func (w *World) Position(h BodyHandle) mgl64.Vec3 {
	if b, ok := w.bodies[h]; ok {
		return b.pos
	}
	return mgl64.Vec3{}
}

func (w *World) Velocity(h BodyHandle) mgl64.Vec3 {
	if b, ok := w.bodies[h]; ok {
		return b.vel
	}
	return mgl64.Vec3{}
}

func (w *World) SetPosition(h BodyHandle, pos mgl64.Vec3) {
	if b, ok := w.bodies[h]; ok {
		b.pos = pos
	}
}

func (w *World) SetVelocity(h BodyHandle, vel mgl64.Vec3) {
	if b, ok := w.bodies[h]; ok {
		b.vel = vel
	}
}

// Step integrates every dynamic body by dt and resolves contacts against
// static geometry. Collision callbacks fire before Step returns, on the step
// a pair first touches.
func (w *World) Step(dt float64) {
	if w.stepping {
		panic("physics: Step is not reentrant")
	}
	w.stepping = true
	defer func() { w.stepping = false }()

	dynamic := w.sortedDynamic()

	for _, b := range dynamic {
		b.vel = b.vel.Add(mgl64.Vec3{0, -w.gravity, 0}.Mul(dt))
		b.vel = b.vel.Add(b.force.Mul(b.invMass * dt))
		b.force = mgl64.Vec3{}

		if b.mat.LinearDamping > 0 {
			damp := 1 - b.mat.LinearDamping*dt
			if damp < 0 {
				damp = 0
			}
			b.vel = b.vel.Mul(damp)
		}

		b.pos = b.pos.Add(b.vel.Mul(dt))
	}

	seen := make(map[pairKey]bool)
	for _, b := range dynamic {
		for _, s := range w.sortedStatic() {
			contact, hit := resolve(b, s)
			if !hit {
				continue
			}
			key := makePairKey(b.handle, s.handle)
			seen[key] = true
			if !w.touching[key] {
				w.touching[key] = true
				w.notify(contact)
			}
		}
	}

	// Forget pairs that separated so the next touch reports again.
	for k := range w.touching {
		if !seen[k] {
			delete(w.touching, k)
		}
	}
}

func (w *World) notify(c Contact) {
	for _, s := range w.subs {
		if s.match(c.A, c.B) {
			s.cb(c)
		}
	}
}

func (w *World) sortedDynamic() []*worldBody {
	return w.sorted(func(b *worldBody) bool { return !b.static() })
}

func (w *World) sortedStatic() []*worldBody {
	return w.sorted(func(b *worldBody) bool { return b.static() })
}

// sorted keeps iteration order stable across steps so contact delivery is
// deterministic for a given body set.
func (w *World) sorted(keep func(*worldBody) bool) []*worldBody {
	out := make([]*worldBody, 0, len(w.bodies))
	for _, b := range w.bodies {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].handle < out[j].handle })
	return out
}

// resolve pushes the dynamic sphere b out of the static body s and reflects
// its velocity with the combined restitution. Only spheres are dynamic here.
func resolve(b, s *worldBody) (Contact, bool) {
	if b.shape.Kind != ShapeSphere {
		return Contact{}, false
	}
	switch s.shape.Kind {
	case ShapePlane:
		return resolvePlane(b, s)
	case ShapeBox:
		return resolveBox(b, s)
	}
	return Contact{}, false
}

func resolvePlane(b, s *worldBody) (Contact, bool) {
	r := b.shape.Radius
	bottom := b.pos.Y() - r
	if bottom > s.pos.Y() {
		return Contact{}, false
	}
	b.pos[1] = s.pos.Y() + r
	if b.vel.Y() < 0 {
		b.vel[1] = -b.vel.Y() * restitution(b, s)
	}
	return Contact{
		A:      b.handle,
		B:      s.handle,
		Point:  mgl64.Vec3{b.pos.X(), s.pos.Y(), b.pos.Z()},
		Normal: mgl64.Vec3{0, 1, 0},
	}, true
}

func resolveBox(b, s *worldBody) (Contact, bool) {
	r := b.shape.Radius
	he := s.shape.HalfExtents

	// Closest point on the box to the sphere center.
	closest := mgl64.Vec3{
		clamp(b.pos.X(), s.pos.X()-he.X(), s.pos.X()+he.X()),
		clamp(b.pos.Y(), s.pos.Y()-he.Y(), s.pos.Y()+he.Y()),
		clamp(b.pos.Z(), s.pos.Z()-he.Z(), s.pos.Z()+he.Z()),
	}
	delta := b.pos.Sub(closest)
	distSq := delta.Dot(delta)
	if distSq > r*r || distSq == 0 {
		return Contact{}, false
	}

	dist := delta.Len()
	normal := delta.Mul(1 / dist)
	b.pos = b.pos.Add(normal.Mul(r - dist))

	into := b.vel.Dot(normal)
	if into < 0 {
		b.vel = b.vel.Sub(normal.Mul(into * (1 + restitution(b, s))))
	}
	return Contact{A: b.handle, B: s.handle, Point: closest, Normal: normal}, true
}

func restitution(a, b *worldBody) float64 {
	return a.mat.Restitution * b.mat.Restitution
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
