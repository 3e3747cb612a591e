package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 30

func testWorld() *World {
	return NewWorld(30, nil)
}

func TestWorld_GravityIntegration(t *testing.T) {
	w := testWorld()
	ball := w.CreateBody(KindBall, Sphere(0.5), 1, mgl64.Vec3{0, 10, 0}, Material{})

	w.Step(dt)

	vel := w.Velocity(ball)
	assert.InDelta(t, -30*dt, vel.Y(), 1e-9)
	pos := w.Position(ball)
	assert.Less(t, pos.Y(), 10.0)
}

func TestWorld_StaticBodyDoesNotFall(t *testing.T) {
	w := testWorld()
	ground := w.CreateBody(KindWall, Plane(), 0, mgl64.Vec3{}, Material{Restitution: 1})

	for i := 0; i < 10; i++ {
		w.Step(dt)
	}
	assert.Equal(t, mgl64.Vec3{}, w.Position(ground))
	assert.Equal(t, mgl64.Vec3{}, w.Velocity(ground))
}

func TestWorld_GroundBounceWithRestitution(t *testing.T) {
	w := testWorld()
	w.CreateBody(KindWall, Plane(), 0, mgl64.Vec3{}, Material{Restitution: 1})
	ball := w.CreateBody(KindBall, Sphere(0.5), 1, mgl64.Vec3{0, 0.5, 0}, Material{Restitution: 0.7})
	w.SetVelocity(ball, mgl64.Vec3{0, -6, 0})

	w.Step(dt)

	vel := w.Velocity(ball)
	assert.Greater(t, vel.Y(), 0.0, "ball should rebound upward")
	// Impact speed after one tick of gravity is 7; rebound is 0.7 of that.
	assert.InDelta(t, 7*0.7, vel.Y(), 1e-9)
	assert.InDelta(t, 0.5, w.Position(ball).Y(), 1e-9, "ball rests on the plane surface")
}

func TestWorld_CollisionCallbackFiresOnceWhileTouching(t *testing.T) {
	w := testWorld()
	ground := w.CreateBody(KindWall, Plane(), 0, mgl64.Vec3{}, Material{Restitution: 1})
	ball := w.CreateBody(KindBall, Sphere(0.5), 1, mgl64.Vec3{0, 0.4, 0}, Material{})

	var contacts []Contact
	w.OnCollision(
		func(a, b BodyHandle) bool { return a == ball && b == ground },
		func(c Contact) { contacts = append(contacts, c) },
	)

	// Zero restitution: the ball lands and stays in contact.
	for i := 0; i < 5; i++ {
		w.Step(dt)
	}
	require.Len(t, contacts, 1, "begin-contact reported exactly once while touching")
	assert.Equal(t, ball, contacts[0].A)
	assert.Equal(t, ground, contacts[0].B)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, contacts[0].Normal)

	// Kick it up, let it separate, and land again: a second contact.
	w.ApplyImpulse(ball, mgl64.Vec3{0, 8, 0})
	for i := 0; i < 60; i++ {
		w.Step(dt)
	}
	assert.Len(t, contacts, 2)
}

func TestWorld_WallPushesBallOut(t *testing.T) {
	w := testWorld()
	_ = w.CreateBody(KindWall, Box(mgl64.Vec3{0.5, 5, 5}), 0, mgl64.Vec3{10, 5, 0}, Material{Restitution: 1})
	ball := w.CreateBody(KindBall, Sphere(0.5), 1, mgl64.Vec3{9, 5, 0}, Material{Restitution: 0.8})
	w.SetVelocity(ball, mgl64.Vec3{9, 30 * dt, 0}) // Y component cancels this tick's gravity

	w.Step(dt)

	vel := w.Velocity(ball)
	assert.Less(t, vel.X(), 0.0, "ball reflects off the wall")
	assert.InDelta(t, -9*0.8, vel.X(), 1e-9)
	assert.InDelta(t, 9.0, w.Position(ball).X(), 1e-9, "ball pushed out to the wall face")
}

func TestWorld_ApplyImpulseScalesByMass(t *testing.T) {
	w := testWorld()
	heavy := w.CreateBody(KindPlayer, Sphere(1), 4, mgl64.Vec3{}, Material{})
	light := w.CreateBody(KindBall, Sphere(1), 1, mgl64.Vec3{}, Material{})

	w.ApplyImpulse(heavy, mgl64.Vec3{8, 0, 0})
	w.ApplyImpulse(light, mgl64.Vec3{8, 0, 0})

	assert.InDelta(t, 2, w.Velocity(heavy).X(), 1e-9)
	assert.InDelta(t, 8, w.Velocity(light).X(), 1e-9)
}

func TestWorld_RemoveBodyForgetsContacts(t *testing.T) {
	w := testWorld()
	ground := w.CreateBody(KindWall, Plane(), 0, mgl64.Vec3{}, Material{})
	ball := w.CreateBody(KindBall, Sphere(0.5), 1, mgl64.Vec3{0, 0.4, 0}, Material{})

	count := 0
	w.OnCollision(
		func(a, b BodyHandle) bool { return b == ground },
		func(Contact) { count++ },
	)

	w.Step(dt)
	require.Equal(t, 1, count)

	w.RemoveBody(ball)
	w.Step(dt)
	assert.Equal(t, 1, count)
	assert.Equal(t, mgl64.Vec3{}, w.Position(ball))
}
