package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Stub is a deterministic Adapter for rules tests: bodies hold position and
// velocity, Step integrates velocity only, and collisions happen when the
// test scripts them. It records every impulse and force so tests can assert
// what the rules engine asked for.
type Stub struct {
	Bodies map[BodyHandle]*StubBody

	Steps    int
	Impulses []AppliedVec
	Forces   []AppliedVec

	subs   []collisionSub
	nextID BodyHandle
}

type StubBody struct {
	Kind  BodyKind
	Shape Shape
	Mass  float64
	Mat   Material
	Pos   mgl64.Vec3
	Vel   mgl64.Vec3
}

type AppliedVec struct {
	Body BodyHandle
	Vec  mgl64.Vec3
}

func NewStub() *Stub {
	return &Stub{
		Bodies: make(map[BodyHandle]*StubBody),
		nextID: 1,
	}
}

func (s *Stub) CreateBody(kind BodyKind, shape Shape, mass float64, pos mgl64.Vec3, mat Material) BodyHandle {
	h := s.nextID
	s.nextID++
	s.Bodies[h] = &StubBody{Kind: kind, Shape: shape, Mass: mass, Mat: mat, Pos: pos}
	return h
}

func (s *Stub) RemoveBody(h BodyHandle) {
	delete(s.Bodies, h)
}

func (s *Stub) Step(dt float64) {
	s.Steps++
	for _, b := range s.Bodies {
		if b.Mass > 0 {
			b.Pos = b.Pos.Add(b.Vel.Mul(dt))
		}
	}
}

func (s *Stub) ApplyImpulse(h BodyHandle, impulse mgl64.Vec3) {
	s.Impulses = append(s.Impulses, AppliedVec{Body: h, Vec: impulse})
	if b, ok := s.Bodies[h]; ok && b.Mass > 0 {
		b.Vel = b.Vel.Add(impulse.Mul(1 / b.Mass))
	}
}

func (s *Stub) ApplyForce(h BodyHandle, force mgl64.Vec3) {
	s.Forces = append(s.Forces, AppliedVec{Body: h, Vec: force})
}

func (s *Stub) OnCollision(match func(a, b BodyHandle) bool, cb CollisionFunc) {
	s.subs = append(s.subs, collisionSub{match: match, cb: cb})
}

func (s *Stub) Position(h BodyHandle) mgl64.Vec3 {
	if b, ok := s.Bodies[h]; ok {
		return b.Pos
	}
	return mgl64.Vec3{}
}

func (s *Stub) Velocity(h BodyHandle) mgl64.Vec3 {
	if b, ok := s.Bodies[h]; ok {
		return b.Vel
	}
	return mgl64.Vec3{}
}

func (s *Stub) SetPosition(h BodyHandle, pos mgl64.Vec3) {
	if b, ok := s.Bodies[h]; ok {
		b.Pos = pos
	}
}

func (s *Stub) SetVelocity(h BodyHandle, vel mgl64.Vec3) {
	if b, ok := s.Bodies[h]; ok {
		b.Vel = vel
	}
}

// TriggerCollision delivers a scripted contact between a and b to every
// registered subscriber whose filter matches.
func (s *Stub) TriggerCollision(a, b BodyHandle) {
	c := Contact{A: a, B: b, Point: s.Position(a), Normal: mgl64.Vec3{0, 1, 0}}
	for _, sub := range s.subs {
		if sub.match(a, b) {
			sub.cb(c)
		}
	}
}

// FindBody returns the first body of the given kind, in handle order.
func (s *Stub) FindBody(kind BodyKind) (BodyHandle, bool) {
	for h := BodyHandle(1); h < s.nextID; h++ {
		if b, ok := s.Bodies[h]; ok && b.Kind == kind {
			return h, true
		}
	}
	return 0, false
}
