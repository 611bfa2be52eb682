package engine

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cahserver/server/config"
	"github.com/cahserver/server/internal/timer"
)

// LeaveReason records why a player left a game, surfaced to the table in
// the player_leave event.
type LeaveReason int

const (
	LeaveReasonLeave LeaveReason = iota
	LeaveReasonHostKick
	LeaveReasonDisconnect
	LeaveReasonIdle
)

func (r LeaveReason) String() string {
	switch r {
	case LeaveReasonLeave:
		return "leave"
	case LeaveReasonHostKick:
		return "host_kick"
	case LeaveReasonDisconnect:
		return "disconnect"
	case LeaveReasonIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Connection is the transport-facing side of a User, kept deliberately
// tiny so the engine never has to know about websockets or JSON framing.
type Connection interface {
	SendJSON(message any) error
	Replaced()
}

// User is a connected (or recently disconnected) client. It outlives any
// single Game membership and any single Connection.
type User struct {
	ID    uuid.UUID
	Token string
	Name  string

	server     *Server
	connection Connection
	game       *Game
	player     *Player

	disconnectKickTimer   *timer.CallbackTimer
	disconnectRemoveTimer *timer.CallbackTimer
}

// NewUser mints a fresh User bound to conn, with a random bearer token used
// to reclaim the session across reconnects.
func NewUser(name string, server *Server, conn Connection) *User {
	u := &User{
		ID:         uuid.New(),
		Token:      generateToken(),
		Name:       name,
		server:     server,
		connection: conn,
	}
	u.disconnectKickTimer = timer.New(server)
	u.disconnectRemoveTimer = timer.New(server)
	return u
}

func generateToken() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func (u *User) String() string {
	return fmt.Sprintf("%s [%s]", u.Name, u.ID)
}

// Game returns the game this user is currently seated in, or nil.
func (u *User) Game() *Game { return u.game }

// Player returns this user's seat in its current game, or nil.
func (u *User) Player() *Player { return u.player }

// Connected reports whether a live connection is attached.
func (u *User) Connected() bool { return u.connection != nil }

// Disconnected marks the user as having lost conn. If conn is not the
// user's current connection (a stale readPump noticing after a reconnect
// already replaced it), this is a no-op.
func (u *User) Disconnected(conn Connection) {
	if conn != u.connection {
		return
	}
	u.connection = nil
	u.disconnectRemoveTimer.Start(secondsToDuration(config.DisconnectForgetTime), u.removeIfDisconnected)
	if u.game != nil {
		u.disconnectKickTimer.Start(secondsToDuration(config.DisconnectKickTime), u.kickIfDisconnected)
	}
}

// Reconnected attaches a new connection, replacing and notifying any prior
// one, and cancels the pending kick/forget timers.
func (u *User) Reconnected(conn Connection) {
	if u.connection != nil {
		u.connection.Replaced()
	}
	u.connection = conn
	u.disconnectKickTimer.Cancel()
	u.disconnectRemoveTimer.Cancel()
}

func (u *User) kickIfDisconnected() {
	if u.game == nil || u.connection != nil {
		return
	}
	u.game.RemovePlayer(u.player, LeaveReasonDisconnect)
}

func (u *User) removeIfDisconnected() {
	if u.connection != nil {
		return
	}
	u.server.RemoveUser(u, LeaveReasonDisconnect)
}

// AddedToGame binds the user to game/player. Fails if the user has no live
// connection, since a connectionless user joining a game can never be
// messaged.
func (u *User) AddedToGame(game *Game, player *Player) error {
	if u.connection == nil {
		return NewInvalidGameState(CodeUserNotConnected, "user not connected")
	}
	u.game = game
	u.player = player
	return nil
}

// RemovedFromGame detaches the user from its game and cancels the
// in-game-disconnect kick timer (the forget timer is independent of game
// membership and keeps running).
func (u *User) RemovedFromGame() {
	u.game = nil
	u.player = nil
	u.disconnectKickTimer.Cancel()
}

// SendMessage delivers message to the user's live connection, if any;
// silently dropped if the user is currently disconnected.
func (u *User) SendMessage(message any) {
	if u.connection == nil {
		return
	}
	_ = u.connection.SendJSON(message)
}

// secondsToDuration converts a whole-seconds config value to a time.Duration.
func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
