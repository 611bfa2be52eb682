// Package engine implements the card game state machine: users, players,
// rounds, games and the single-goroutine server that owns them all,
// grounded on pyxyzzy/game.py's User/Player/Round/Game/GameServer classes.
package engine

import (
	"math/rand/v2"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/cahserver/server/config"
	"github.com/cahserver/server/internal/catalog"
	"github.com/cahserver/server/internal/collection"
)

// Server owns every User and Game and is the sole writer of all engine
// state. Every mutation is required to run on its single loop goroutine,
// replacing pyxyzzy's single-threaded asyncio event loop with a Go
// "actor": a mailbox channel drained by one goroutine.
//
// Two queues feed the loop. The mailbox carries closures posted from other
// goroutines (connection reads, fired timers) and is received with a
// blocking channel receive. The internal queue carries closures deferred
// from within the loop itself (the coalesced update flush) and is drained
// to empty after every mailbox receive, before the loop blocks again —
// this is the Go realization of asyncio's call_soon, without the deadlock
// a self-send on the same channel the loop is currently draining would
// cause.
type Server struct {
	Log     slog.Logger
	Config  *config.ServerConfig
	Catalog *catalog.Catalog

	mailbox       chan func()
	internalQueue []func()
	done          chan struct{}

	users *collection.List[*User]
	games *collection.List[*Game]
}

// NewServer creates a Server; call Run in its own goroutine to start
// processing.
func NewServer(cfg *config.ServerConfig, cat *catalog.Catalog, log slog.Logger) *Server {
	return &Server{
		Log:     log,
		Config:  cfg,
		Catalog: cat,
		mailbox: make(chan func(), 256),
		done:    make(chan struct{}),
		users: collection.New[*User](collection.IndexDef[*User]{
			Name: "id",
			Key:  func(u *User) (any, bool) { return u.ID, true },
		}),
		games: collection.New[*Game](collection.IndexDef[*Game]{
			Name: "code",
			Key:  func(g *Game) (any, bool) { return g.Code, true },
		}),
	}
}

// Post hands fn to the loop goroutine from any other goroutine; it blocks
// until accepted onto the mailbox, never executed inline. Satisfies
// timer.Poster.
func (s *Server) Post(fn func()) {
	select {
	case s.mailbox <- fn:
	case <-s.done:
	}
}

// Defer schedules fn to run on the loop goroutine after the caller's
// current synchronous chain of work finishes, but before the loop
// processes its next externally-posted closure. Only safe to call from
// the loop goroutine itself.
func (s *Server) Defer(fn func()) {
	s.internalQueue = append(s.internalQueue, fn)
}

// Run drains the mailbox until Stop is called. It must be the only
// goroutine that ever touches engine state directly.
func (s *Server) Run() {
	for {
		select {
		case fn := <-s.mailbox:
			fn()
			s.drainInternal()
		case <-s.done:
			return
		}
	}
}

// drainInternal runs every closure enqueued via Defer during the handling
// of one mailbox item, including any further closures those closures
// themselves enqueue, until the queue is empty.
func (s *Server) drainInternal() {
	for len(s.internalQueue) > 0 {
		fn := s.internalQueue[0]
		s.internalQueue = s.internalQueue[1:]
		fn()
	}
}

// FlushDeferred runs every closure enqueued via Defer, including any
// further closures those closures enqueue, until the queue is empty. Run
// calls this automatically after each mailbox item; callers that drive
// engine state directly without Run (in-process bots, tests) must call it
// themselves to see coalesced update flushes delivered.
func (s *Server) FlushDeferred() {
	s.drainInternal()
}

// Stop ends Run's loop. Pending mailbox items are discarded.
func (s *Server) Stop() {
	close(s.done)
}

// GenerateGameCode mints a game code not currently in use, grounded on
// GameServer.generate_game_code.
func (s *Server) GenerateGameCode() string {
	for {
		buf := make([]byte, config.GameCodeLength)
		for i := range buf {
			buf[i] = config.GameCodeAlphabet[rand.IntN(len(config.GameCodeAlphabet))]
		}
		code := string(buf)
		if !s.games.Exists("code", code) {
			return code
		}
	}
}

// AddUser registers a newly connected user.
func (s *Server) AddUser(u *User) error {
	return s.users.Append(u)
}

// RemoveUser removes a user from a game it may be seated in, then forgets
// it entirely.
func (s *Server) RemoveUser(u *User, reason LeaveReason) {
	if u.game != nil {
		_ = u.game.RemovePlayer(u.player, reason)
	}
	s.users.Remove(u)
}

// FindUserByID looks up a connected/known user by id.
func (s *Server) FindUserByID(id uuid.UUID) (*User, bool) {
	return s.users.FindBy("id", id)
}

// AllUsers returns every known user, in connection order. Used for
// name-uniqueness checks at authenticate time.
func (s *Server) AllUsers() []*User {
	return s.users.All()
}

// AddGame registers a newly created game.
func (s *Server) AddGame(g *Game) error {
	return s.games.Append(g)
}

// RemoveGame unregisters an emptied game.
func (s *Server) RemoveGame(g *Game) {
	s.games.Remove(g)
}

// FindGameByCode looks up a game by its public code.
func (s *Server) FindGameByCode(code string) (*Game, bool) {
	return s.games.FindBy("code", code)
}

// PublicGames returns the listing for every public, joinable game.
func (s *Server) PublicGames() []ListingJSON {
	var out []ListingJSON
	for _, g := range s.games.All() {
		if g.Options.Public {
			out = append(out, g.Listing())
		}
	}
	return out
}

// Stats is the process-level summary exposed by the server's monitoring
// endpoint, grounded on the teacher's matchmaker.MatchmakerStats shape.
type Stats struct {
	TotalGames   int
	TotalPlayers int
}

// Stats reports how many games the server currently holds and how many
// players are seated across them.
func (s *Server) Stats() Stats {
	stats := Stats{TotalGames: s.games.Len()}
	for _, g := range s.games.All() {
		stats.TotalPlayers += g.PlayerCount()
	}
	return stats
}

// CreateGame builds, registers, and returns a new game with the given
// options.
func (s *Server) CreateGame(options *GameOptions) (*Game, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	g := NewGame(s, options)
	if err := s.AddGame(g); err != nil {
		return nil, err
	}
	return g, nil
}
