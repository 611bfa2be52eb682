// Package main implements the Cards Against Humanity game server.
//
// Architecture Overview:
// - Uses WebSocket for real-time bidirectional communication with clients
// - Every user and game lives on a single engine goroutine (internal/engine);
//   connections hand requests off to it instead of touching game state directly
// - JSON request/response/push envelopes (internal/network), not a binary protocol
// - A read-only card-pack catalog (internal/catalog) is loaded once at boot
//
// Connection Flow:
// 1. Client connects via WebSocket to /ws
// 2. Client sends a {"version": ...} handshake and receives the server config
// 3. Client sends an authenticate call (fresh name, or id+token to reconnect)
// 4. Client creates or joins a game by code, then plays through the engine's
//    request/response and push messages
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"

	"github.com/cahserver/server/config"
	"github.com/cahserver/server/internal/catalog"
	"github.com/cahserver/server/internal/engine"
	"github.com/cahserver/server/internal/transport"
)

func main() {
	backend := slog.NewBackend(os.Stdout)
	log := backend.Logger("CAHS")
	log.SetLevel(slog.LevelInfo)

	configPath := flag.String("config", "", "path to a YAML server config file")
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		log.Errorf("loading config: %v", err)
		os.Exit(1)
	}

	cat, err := catalog.Load(cfg.CardPackFile, log)
	if err != nil {
		log.Warnf("loading card pack catalog %q: %v (starting with an empty catalog)", cfg.CardPackFile, err)
		cat = catalog.Empty()
	}

	server := engine.NewServer(cfg, cat, log)
	go server.Run()

	router := transport.NewRouter()
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.EnableCORS
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debugf("websocket upgrade failed: %v", err)
			return
		}
		conn := transport.NewConn(ws, server, router)
		go conn.Serve()
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		stats := server.Stats()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"games":%d,"players":%d}`, stats.TotalGames, stats.TotalPlayers)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Infof("=================================")
	log.Infof("  Cards Against Humanity Server")
	log.Infof("=================================")
	log.Infof("  Host: %s", cfg.Host)
	log.Infof("  Port: %d", cfg.Port)
	log.Infof("  UI version: %s", cfg.UIVersion)
	log.Infof("  Card packs loaded: %d", len(cat.All()))
	log.Infof("=================================")
	log.Infof("listening on %s", addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("server error: %v", err)
		os.Exit(1)
	}
}
