package reygame

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/slog"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/Gustavogamboa96/reymato-server/physics"
	"github.com/Gustavogamboa96/reymato-server/protocol"
)

// Config holds the per-room tunables that are not fixed constants.
type Config struct {
	// MatchDuration in seconds. Zero means the default.
	MatchDuration float64
}

func (c Config) withDefaults() Config {
	if c.MatchDuration <= 0 {
		c.MatchDuration = DefaultMatchDuration
	}
	return c
}

// Room owns one court: the state tree, the physics adapter, the connected
// clients and the two scheduled activities (the 30 Hz simulation tick and
// the 1 Hz match clock). Everything runs on the room goroutine; the only
// way in is the Inbox.
type Room struct {
	ID    string
	Inbox chan any

	// OnEmpty is called from the room goroutine when the last client
	// leaves.
	OnEmpty func(id string)

	log  slog.Logger
	phys physics.Adapter
	cfg  Config

	state   State
	clients map[string]Conn

	ground physics.BodyHandle

	broadcastEvery uint64
	occupancy      atomic.Int32

	quit     chan struct{}
	stopOnce sync.Once
}

// NewRoom builds a room and its court: ground plane, four walls and the
// ball body, plus the ball-ground collision subscription.
func NewRoom(id string, phys physics.Adapter, cfg Config, log slog.Logger) *Room {
	if log == nil {
		log = slog.Disabled
	}
	every := uint64(protocol.SimTickHz / protocol.PatchHz)
	if every == 0 {
		every = 1
	}
	r := &Room{
		ID:    id,
		Inbox: make(chan any, 256),
		log:   log,
		phys:  phys,
		cfg:   cfg.withDefaults(),
		state: State{
			Players: make(map[string]*Player),
			Serve:   ServeState{CurrentServer: RoleRey, WaitingForServe: true},
		},
		clients:        make(map[string]Conn),
		broadcastEvery: every,
		quit:           make(chan struct{}),
	}
	r.buildCourt()
	return r
}

func (r *Room) buildCourt() {
	wallMat := physics.Material{Restitution: WallRestitution}
	r.ground = r.phys.CreateBody(physics.KindWall, physics.Plane(), 0, mgl64.Vec3{0, GroundY, 0}, wallMat)

	// Four walls boxing the court so the ball stays in play.
	h := WallHeight / 2
	r.phys.CreateBody(physics.KindWall, physics.Box(mgl64.Vec3{0.5, h, CourtHalfZ + 1}), 0, mgl64.Vec3{CourtHalfX + 0.5, h, 0}, wallMat)
	r.phys.CreateBody(physics.KindWall, physics.Box(mgl64.Vec3{0.5, h, CourtHalfZ + 1}), 0, mgl64.Vec3{-CourtHalfX - 0.5, h, 0}, wallMat)
	r.phys.CreateBody(physics.KindWall, physics.Box(mgl64.Vec3{CourtHalfX + 1, h, 0.5}), 0, mgl64.Vec3{0, h, CourtHalfZ + 0.5}, wallMat)
	r.phys.CreateBody(physics.KindWall, physics.Box(mgl64.Vec3{CourtHalfX + 1, h, 0.5}), 0, mgl64.Vec3{0, h, -CourtHalfZ - 0.5}, wallMat)

	ballMat := physics.Material{Restitution: BallRestitution, LinearDamping: BallDamping}
	r.state.Ball.Body = r.phys.CreateBody(physics.KindBall, physics.Sphere(BallRadius), BallMass,
		mgl64.Vec3{0, ServeHeight, 0}, ballMat)

	ball, ground := r.state.Ball.Body, r.ground
	r.phys.OnCollision(
		func(a, b physics.BodyHandle) bool {
			return (a == ball && b == ground) || (a == ground && b == ball)
		},
		func(physics.Contact) { r.onBallGroundBounce() },
	)
}

// Run drives the room until Stop: commands, the simulation tick and the
// match clock all on this one goroutine.
func (r *Room) Run() {
	tick := time.NewTicker(time.Second / TickRate)
	defer tick.Stop()
	clock := time.NewTicker(time.Second)
	defer clock.Stop()

	for {
		select {
		case <-r.quit:
			r.drainInbox()
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case <-tick.C:
			r.tick()
		case <-clock.C:
			r.clockTick()
		}
	}
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)
		r.drainInbox()
	})
}

// Done is closed once the room has stopped. Senders to the Inbox must
// select on it so a command posted to a stopped room cannot wedge them.
func (r *Room) Done() <-chan struct{} {
	return r.quit
}

// drainInbox rejects commands left behind at shutdown. Pending joiners get
// their connection closed instead of waiting on a reply that never comes.
func (r *Room) drainInbox() {
	for {
		select {
		case cmd := <-r.Inbox:
			if j, ok := cmd.(Join); ok && j.Conn != nil {
				_ = j.Conn.Close()
			}
		default:
			return
		}
	}
}

// Occupancy is the number of connected clients; safe from any goroutine.
func (r *Room) Occupancy() int {
	return int(r.occupancy.Load())
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		r.handleJoin(c)
	case Input:
		r.applyInput(c.PlayerID, c.Input)
	case Leave:
		r.handleLeave(c.PlayerID)
	case Rematch:
		r.rematch(c.PlayerID)
	default:
		r.log.Warnf("room %s: unknown command %T", r.ID, cmd)
	}
}

func (r *Room) handleJoin(c Join) {
	id := uuid.NewString()
	nick := c.Nick
	if nick == "" {
		nick = "jugador-" + id[:8]
	}

	if c.Conn != nil {
		r.clients[id] = c.Conn
		r.occupancy.Store(int32(len(r.clients)))
	}
	r.join(id, nick)
	r.log.Infof("player %s (%s) joined room %s", nick, id, r.ID)

	if c.Reply != nil {
		c.Reply <- JoinResult{PlayerID: id, Nick: nick}
	}
	if c.Conn != nil {
		r.sendTo(c.Conn, protocol.MsgWelcome, protocol.Welcome{PlayerID: id, RoomID: r.ID, Nick: nick})
		r.sendTo(c.Conn, protocol.MsgState, r.snapshot())
	}
}

func (r *Room) handleLeave(playerID string) {
	if c, ok := r.clients[playerID]; ok {
		_ = c.Close()
		delete(r.clients, playerID)
		r.occupancy.Store(int32(len(r.clients)))
	}
	r.leave(playerID)
	if len(r.clients) == 0 && r.OnEmpty != nil {
		r.OnEmpty(r.ID)
	}
}

// tick runs one fixed simulation step: physics first (bounce adjudication
// happens inside via collision callbacks), then jump shaping, state copy
// and bounds enforcement.
func (r *Room) tick() {
	r.state.Tick++
	r.phys.Step(FixedDT)
	r.applyJumpShaping()
	r.syncBodies()
	r.clampPlayers()
	r.checkBallBounds()

	if r.state.Tick%r.broadcastEvery == 0 {
		r.broadcastState()
	}
}

// applyJumpShaping applies the armed extra downward force to airborne
// players so the jump arc matches the tuned airtime regardless of world
// gravity.
func (r *Room) applyJumpShaping() {
	for _, p := range r.state.Players {
		if !p.Active || !p.jumpArmed {
			continue
		}
		if r.state.Tick >= p.jumpExpires {
			p.jumpArmed = false
			continue
		}
		bottom := r.phys.Position(p.Body).Y() - PlayerRadius
		if bottom > GroundY+GroundBuf {
			r.phys.ApplyForce(p.Body, mgl64.Vec3{0, -p.jumpExtraG * PlayerMass, 0})
		}
	}
}

// syncBodies copies body state into the replicated entities.
func (r *Room) syncBodies() {
	for _, p := range r.state.Players {
		if !p.Active {
			continue
		}
		p.Pos = r.phys.Position(p.Body)
		p.Vel = r.phys.Velocity(p.Body)
	}
	r.state.Ball.Pos = r.phys.Position(r.state.Ball.Body)
	r.state.Ball.Vel = r.phys.Velocity(r.state.Ball.Body)
}

// clampPlayers keeps players inside the court bounds, zeroing the offending
// velocity component, and snaps settled players to the ground.
func (r *Room) clampPlayers() {
	for _, p := range r.state.Players {
		if !p.Active {
			continue
		}
		pos, vel := p.Pos, p.Vel
		dirty := false

		if pos.X() > CourtHalfX {
			pos[0], vel[0], dirty = CourtHalfX, 0, true
		} else if pos.X() < -CourtHalfX {
			pos[0], vel[0], dirty = -CourtHalfX, 0, true
		}
		if pos.Z() > CourtHalfZ {
			pos[2], vel[2], dirty = CourtHalfZ, 0, true
		} else if pos.Z() < -CourtHalfZ {
			pos[2], vel[2], dirty = -CourtHalfZ, 0, true
		}

		// Ground snap for settled players; never while a jump is still
		// ascending, so gravity is not fought mid-air.
		bottom := pos.Y() - PlayerRadius
		if bottom <= GroundY+GroundEps && !(p.Jumping && vel.Y() > 0) {
			pos[1] = GroundY + PlayerRadius
			if vel.Y() < 0 {
				vel[1] = 0
			}
			if p.Jumping || p.jumpArmed {
				p.Jumping = false
				p.jumpArmed = false
			}
			dirty = true
		}

		if dirty {
			r.phys.SetPosition(p.Body, pos)
			r.phys.SetVelocity(p.Body, vel)
			p.Pos, p.Vel = pos, vel
		}
	}
}

// checkBallBounds handles the two escape hatches: a ball under the floor is
// a fault that re-arms the serve, a ball over the soft ceiling loses its
// upward velocity.
func (r *Room) checkBallBounds() {
	pos, vel := r.state.Ball.Pos, r.state.Ball.Vel
	if pos.Y() < BallFloorY {
		r.log.Warnf("room %s: ball escaped the court at %v, re-arming serve", r.ID, pos)
		r.rearmServe()
		return
	}
	if pos.Y() > BallCeiling && vel.Y() > 0 {
		vel[1] = 0
		r.phys.SetVelocity(r.state.Ball.Body, vel)
		r.state.Ball.Vel = vel
	}
}

// snapshot builds the replicated state tree, players in stable id order.
func (r *Room) snapshot() protocol.State {
	players := make([]protocol.PlayerSnapshot, 0, len(r.state.Players))
	for _, p := range r.state.Players {
		players = append(players, p.Marshal())
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	queue := make([]string, len(r.state.Queue))
	copy(queue, r.state.Queue)

	return protocol.State{
		Tick:         r.state.Tick,
		Elapsed:      r.state.Elapsed,
		MatchStarted: r.state.MatchStarted,
		MatchEnded:   r.state.MatchEnded,
		Serve: protocol.ServeSnapshot{
			CurrentServer:   r.state.Serve.CurrentServer.String(),
			WaitingForServe: r.state.Serve.WaitingForServe,
		},
		Players: players,
		Ball:    r.state.Ball.Marshal(),
		Queue:   queue,
	}
}

func (r *Room) broadcastState() {
	r.broadcast(protocol.MsgState, r.snapshot())
}

func (r *Room) broadcastEvent(ev protocol.Event) {
	r.log.Debugf("room %s: event %s", r.ID, ev.Type)
	r.broadcast(protocol.MsgEvent, ev)
}

// broadcast fans a frame out to every client. Clients whose send fails are
// disconnected; one slow client never blocks the tick.
func (r *Room) broadcast(t string, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		r.log.Errorf("room %s: encode %s: %v", r.ID, t, err)
		return
	}
	var failed []string
	for id, c := range r.clients {
		if err := c.Send(b); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		r.log.Debugf("room %s: dropping unresponsive client %s", r.ID, id)
		r.handleLeave(id)
	}
}

func (r *Room) sendTo(c Conn, t string, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		r.log.Errorf("room %s: encode %s: %v", r.ID, t, err)
		return
	}
	_ = c.Send(b)
}

// String implements fmt.Stringer for log lines.
func (r *Room) String() string {
	return fmt.Sprintf("room(%s, %d clients)", r.ID, r.Occupancy())
}
