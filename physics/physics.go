package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BodyHandle identifies a body inside an Adapter. The zero handle is never
// valid.
type BodyHandle uint32

// BodyKind tags what a body represents to the game rules. The physics side
// only uses it to decide which contact pairs are worth resolving.
type BodyKind uint8

const (
	KindPlayer BodyKind = iota + 1
	KindBall
	KindWall
)

// ShapeKind selects the collision geometry of a body.
type ShapeKind uint8

const (
	ShapeSphere ShapeKind = iota + 1
	ShapeBox
	// ShapePlane is an infinite horizontal plane at the body's Y position,
	// facing up. Used for the court ground.
	ShapePlane
)

type Shape struct {
	Kind ShapeKind

	// Radius applies to spheres.
	Radius float64
	// HalfExtents applies to boxes.
	HalfExtents mgl64.Vec3
}

func Sphere(radius float64) Shape {
	return Shape{Kind: ShapeSphere, Radius: radius}
}

func Box(halfExtents mgl64.Vec3) Shape {
	return Shape{Kind: ShapeBox, HalfExtents: halfExtents}
}

func Plane() Shape {
	return Shape{Kind: ShapePlane}
}

// Material holds the contact parameters configured once at body creation.
type Material struct {
	Restitution   float64
	Friction      float64
	LinearDamping float64
}

// Contact describes a collision between two bodies, reported on the step the
// pair first comes into contact.
type Contact struct {
	A, B   BodyHandle
	Point  mgl64.Vec3
	Normal mgl64.Vec3
}

// CollisionFunc receives contacts synchronously while Step runs. Ordering
// across multiple simultaneous contacts is unspecified.
type CollisionFunc func(c Contact)

// Adapter is the narrow contract the rules engine needs from a physics
// engine: body lifecycle, fixed stepping, force application and collision
// notifications. Implementations are not safe for concurrent use; the room
// goroutine owns the adapter.
type Adapter interface {
	CreateBody(kind BodyKind, shape Shape, mass float64, pos mgl64.Vec3, mat Material) BodyHandle
	RemoveBody(h BodyHandle)

	// Step advances all bodies by dt. Must be called at a constant rate and
	// is not reentrant; collision callbacks are delivered before it returns.
	Step(dt float64)

	ApplyImpulse(h BodyHandle, impulse mgl64.Vec3)
	ApplyForce(h BodyHandle, force mgl64.Vec3)

	// OnCollision registers cb for every contact where match reports true.
	OnCollision(match func(a, b BodyHandle) bool, cb CollisionFunc)

	Position(h BodyHandle) mgl64.Vec3
	Velocity(h BodyHandle) mgl64.Vec3
	SetPosition(h BodyHandle, pos mgl64.Vec3)
	SetVelocity(h BodyHandle, vel mgl64.Vec3)
}
