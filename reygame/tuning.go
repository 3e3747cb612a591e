package reygame

// Simulation rates.
const (
	TickRate = 30
	FixedDT  = 1.0 / TickRate
)

// Court geometry, meters. The court is centered on the origin; x-z is the
// ground plane and the four quadrants map 1:1 to the four slots.
const (
	CourtHalfX = 10.0
	CourtHalfZ = 10.0
	WallHeight = 8.0

	GroundY     = 0.0
	GroundEps   = 0.05 // snap distance for grounded players
	GroundBuf   = 0.2  // above this the jump shaping force still applies
	BallFloorY  = -5.0 // below this the ball has escaped the court
	BallCeiling = 14.0 // soft ceiling: upward velocity clamped to zero
)

// Body shapes and masses.
const (
	PlayerRadius = 1.0
	PlayerMass   = 60.0
	BallRadius   = 0.35
	BallMass     = 0.45
)

// Materials.
const (
	WorldGravity    = 30.0
	BallRestitution = 0.72
	BallDamping     = 0.12
	WallRestitution = 1.0
)

// Movement and jump shaping.
const (
	PlayerSpeed = 8.0
	JumpV0      = 9.0
	// JumpAirtime tunes the jump feel independent of world gravity: the
	// shaping force is extraG = max(0, 2*v0/airtime - g) while airborne.
	JumpAirtime      = 0.5
	JumpShapeTimeout = 1.5 * JumpAirtime
	// Below this vertical speed a player counts as settled and may jump.
	JumpReadyVy = 0.5
)

// Contact actions.
const (
	KickRange       = 2.0
	HeadRangeHoriz  = 1.2
	HeadRangeVert   = 2.2
	ContactImpulse  = 9.0
	ContactUpBias   = 0.45
	BallMovingSpeed = 0.25 // below this the ball counts as parked
)

// Serve.
const (
	ServeHeight       = 3.0
	ServeForwardScale = 7.0
	ServeUpImpulse    = 5.0
)

// Match.
const DefaultMatchDuration = 180.0 // seconds
