// Package transport wires the websocket connection lifecycle to the game
// engine: it owns per-connection read/write pumps and a request router,
// grounded on cmd/gameserver/main.go's ClientConnection (readPump/writePump,
// buffered send channel, done-channel shutdown) generalized from a binary
// protocol to JSON and from a room to a full authenticate/create/join game
// flow.
package transport

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cahserver/server/internal/cards"
	"github.com/cahserver/server/internal/engine"
	"github.com/cahserver/server/internal/network"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 * 1024
	sendBufferSize = 64
)

// connState is a connection's position in the per-connection state
// diagram: new -> handshaked -> active -> closed. "authenticated" from
// that diagram is realized as the instant Dispatch attaches a User to the
// connection (c.user != nil) and immediately becomes active; there is no
// behavior distinguishing the two, so they share the connStateActive
// value. Stored atomically since it is written from the engine's loop
// goroutine (inside a Post closure, alongside c.user) but read from the
// connection's own readPump goroutine.
type connState int32

const (
	connStateNew connState = iota
	connStateHandshaked
	connStateActive
	connStateClosed
)

// Conn is one client's websocket connection. It owns no engine state
// directly; a User is attached only after a successful authenticate call.
type Conn struct {
	ws     *websocket.Conn
	server *engine.Server
	router *Router

	user *engine.User

	state    atomic.Int32
	sendChan chan []byte
	done     chan struct{}
}

// NewConn wraps ws for use by Serve.
func NewConn(ws *websocket.Conn, server *engine.Server, router *Router) *Conn {
	return &Conn{
		ws:       ws,
		server:   server,
		router:   router,
		sendChan: make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// Serve runs the connection's read and write pumps until the socket
// closes. Blocks until then; call from its own goroutine per connection.
func (c *Conn) Serve() {
	go c.writePump()
	c.readPump()
}

// SendJSON marshals message and queues it for delivery, satisfying
// engine.Connection. Unlike the teacher's drop-when-full policy for
// ephemeral physics broadcasts, a full buffer here closes the connection:
// silently dropping a hand/game update would desync a player with no way
// to recover short of a full resync.
func (c *Conn) SendJSON(message any) error {
	data, err := marshalPush(message)
	if err != nil {
		return err
	}
	select {
	case c.sendChan <- data:
		return nil
	case <-c.done:
		return nil
	default:
		c.Close()
		return nil
	}
}

// Recv blocks until the next message queued for delivery is available, or
// the connection closes. Bypasses the websocket entirely, so it is only
// meaningful for connections driven in-process (the bot package, tests)
// rather than ones served over a real socket.
func (c *Conn) Recv() ([]byte, bool) {
	select {
	case data := <-c.sendChan:
		return data, true
	case <-c.done:
		return nil, false
	}
}

// TryRecv is Recv's non-blocking counterpart: it returns ok == false
// immediately if nothing is queued yet.
func (c *Conn) TryRecv() ([]byte, bool) {
	select {
	case data := <-c.sendChan:
		return data, true
	default:
		return nil, false
	}
}

// Replaced notifies a connection that another connection has taken over
// its user, satisfying engine.Connection.
func (c *Conn) Replaced() {
	_ = c.SendJSON(network.Push{"events": []map[string]any{{"type": "connection_replaced"}}})
	c.Close()
}

// Close shuts the connection down; safe to call more than once.
func (c *Conn) Close() {
	select {
	case <-c.done:
		return
	default:
		close(c.done)
	}
	c.state.Store(int32(connStateClosed))
	if c.ws != nil {
		c.ws.Close()
	}
}

func marshalPush(message any) ([]byte, error) {
	if push, ok := message.(network.Push); ok {
		return network.EncodePush(push)
	}
	if m, ok := message.(map[string]any); ok {
		return network.EncodePush(m)
	}
	return network.EncodePush(network.Push{"result": message})
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.sendChan:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Conn) readPump() {
	defer c.cleanup()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if msgType == websocket.BinaryMessage {
			closeMsg := websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "binary frames are not supported")
			_ = c.ws.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
			return
		}
		if connState(c.state.Load()) == connStateNew {
			if !c.handleHandshake(data) {
				return
			}
			continue
		}
		c.handleFrame(data)
	}
}

// handleHandshake consumes a new connection's first frame, which must be a
// {"version": ...} handshake rather than an action call, grounded on
// consumer.py's version check performed before a client is allowed to
// authenticate. Mismatched or malformed versions get an "incorrect_version"
// push and the connection is closed; a match advances to connStateHandshaked
// and replies with the server's config, including the card pack catalog.
func (c *Conn) handleHandshake(data []byte) bool {
	req, err := network.DecodeHandshake(data)
	if err != nil || req.Version != c.server.Config.UIVersion {
		_ = c.SendJSON(network.Push{"error": "incorrect_version"})
		c.Close()
		return false
	}
	c.state.Store(int32(connStateHandshaked))
	var packs []cards.Summary
	if c.server.Catalog != nil {
		packs = c.server.Catalog.Summaries()
	}
	_ = c.SendJSON(network.Push{"config": map[string]any{
		"ui_version": c.server.Config.UIVersion,
		"card_packs": packs,
	}})
	return true
}

func (c *Conn) handleFrame(data []byte) {
	req, err := network.DecodeRequest(data)
	if err != nil {
		_ = c.SendJSON(network.ErrorResponse(nil, "invalid_request", "action or call_id missing or invalid"))
		return
	}
	// Handing off to the engine's loop goroutine is mandatory: handlers
	// touch User/Game state that only that goroutine is allowed to mutate.
	c.server.Post(func() {
		resp := c.router.Dispatch(c, req)
		if req.Action == network.ActionAuthenticate && resp.Error == "" {
			c.state.Store(int32(connStateActive))
		}
		data, err := network.EncodeResponse(resp)
		if err != nil {
			return
		}
		select {
		case c.sendChan <- data:
		case <-c.done:
		default:
			c.Close()
		}
	})
}

func (c *Conn) cleanup() {
	if c.user != nil {
		c.server.Post(func() {
			c.user.Disconnected(c)
		})
	}
	c.Close()
}
