package transport

import (
	"fmt"

	"github.com/cahserver/server/internal/engine"
	"github.com/cahserver/server/internal/network"
)

// handlerFunc implements one action. It runs on the engine's loop
// goroutine (Conn.handleFrame hands off via server.Post before calling
// Dispatch), so it may touch engine state directly.
type handlerFunc func(c *Conn, req *network.Request) (any, error)

// Router maps action names to handlers, grounded on
// GameConsumer.receive_json's dispatch-by-action structure.
type Router struct {
	handlers map[string]handlerFunc
}

// NewRouter builds the router with every action in network's action list
// wired to its handler.
func NewRouter() *Router {
	r := &Router{handlers: make(map[string]handlerFunc)}
	r.handlers[network.ActionAuthenticate] = handleAuthenticate
	r.handlers[network.ActionCreateGame] = handleCreateGame
	r.handlers[network.ActionJoinGame] = handleJoinGame
	r.handlers[network.ActionLeaveGame] = handleLeaveGame
	r.handlers[network.ActionKickPlayer] = handleKickPlayer
	r.handlers[network.ActionGameOptions] = handleGameOptions
	r.handlers[network.ActionStartGame] = handleStartGame
	r.handlers[network.ActionStopGame] = handleStopGame
	r.handlers[network.ActionPlayWhite] = handlePlayWhite
	r.handlers[network.ActionChooseWinner] = handleChooseWinner
	r.handlers[network.ActionChat] = handleChat
	r.handlers[network.ActionListGames] = handleListGames
	return r
}

// Dispatch runs the handler for req.Action and translates its outcome
// into a Response, recovering from a panicking handler the way
// receive_json's bare except clause turns an uncaught exception into an
// internal_error reply instead of killing the connection.
func (r *Router) Dispatch(c *Conn, req *network.Request) (resp network.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			if c.server.Log != nil {
				c.server.Log.Errorf("panic handling action %q: %v", req.Action, rec)
			}
			resp = network.ErrorResponse(req.CallID, network.ErrorCodeInternal, "")
		}
	}()

	if c.user == nil && req.Action != network.ActionAuthenticate {
		return network.ErrorResponse(req.CallID, network.ErrorCodeNotAuthenticated, "first call must be authenticate")
	}

	handler, ok := r.handlers[req.Action]
	if !ok {
		return network.ErrorResponse(req.CallID, network.ErrorCodeInvalidAction, fmt.Sprintf("unknown action %q", req.Action))
	}

	result, err := handler(c, req)
	if err != nil {
		// A game-state error usually means the client is out of sync, so
		// an in-game caller gets a full resync along with the error reply.
		if _, ok := err.(*engine.InvalidGameState); ok && c.user != nil {
			if game := c.user.Game(); game != nil {
				game.SendFullResyncTo(c.user.Player())
			}
		}
		return errorResponseFor(req.CallID, err)
	}
	return network.SuccessResponse(req.CallID, result)
}

func errorResponseFor(callID any, err error) network.Response {
	if ir, ok := err.(*engine.InvalidRequest); ok {
		return network.ErrorResponse(callID, ir.Code, ir.Description)
	}
	if gs, ok := err.(*engine.InvalidGameState); ok {
		return network.ErrorResponse(callID, gs.Code, gs.Description)
	}
	return network.ErrorResponse(callID, network.ErrorCodeInternal, "")
}
