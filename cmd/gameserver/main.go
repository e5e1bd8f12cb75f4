package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"robosoccer/internal/config"
	"robosoccer/internal/match"
	"robosoccer/internal/matchdb"
	"robosoccer/internal/replay"
	"robosoccer/internal/shared/logger"
	"robosoccer/internal/shared/types"
)

type client struct {
	viewerID string
	codec    types.Codec
	conn     *websocket.Conn
	send     chan []byte
}

type server struct {
	log      *logger.Logger
	match    *match.Match
	upgrader websocket.Upgrader
	rec      *replay.Recorder
	index    *matchdb.Index

	mu      sync.RWMutex
	clients map[string]*client
	events  []types.GameplayEvent
}

func main() {
	configPath := flag.String("config", getEnv("MATCH_CONFIG", ""), "YAML match config (defaults when empty)")
	flag.Parse()

	log := logger.New("gameserver")
	addr := getEnv("GAME_ADDR", ":9003")

	cfg := config.Defaults()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal("load config", "error", err)
		}
	}
	if sec := getEnvInt("MATCH_DURATION_SEC", -1); sec >= 0 {
		cfg.Match.DurationSec = float64(sec)
	}
	if seed := getEnvInt("MATCH_SEED", 0); seed != 0 {
		cfg.Match.Seed = int64(seed)
	}

	m, err := match.New(cfg, log)
	if err != nil {
		log.Fatal("create match", "error", err)
	}

	s := &server{
		log:   log,
		match: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[string]*client),
	}

	if dir := getEnv("REPLAY_DIR", ""); dir != "" {
		if s.rec, err = replay.Create(fmt.Sprintf("%s/%s.jsonl.zst", dir, m.ID())); err != nil {
			log.Fatal("open replay", "error", err)
		}
	}
	if path := getEnv("MATCH_DB", ""); path != "" {
		if s.index, err = matchdb.Open(path); err != nil {
			s.closeStores()
			log.Fatal("open match index", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	simDone := make(chan struct{})
	go func() {
		defer close(simDone)
		s.runSimulationLoop(ctx, cfg.Match.Dt)
	}()
	go s.runReplicationLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("match server listening", "addr", addr, "match", m.ID(), "team_size", cfg.Match.TeamSize, "dt", cfg.Match.Dt)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down", "match", m.ID())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	<-simDone
	s.closeStores()
	log.Info("server stopped")
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "match_id": s.match.ID()})
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	viewerID := r.URL.Query().Get("viewer_id")
	if viewerID == "" {
		viewerID = fmt.Sprintf("viewer_%d", time.Now().UTC().UnixNano())
	}
	codec := types.ParseCodec(r.URL.Query().Get("codec"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade error", "error", err)
		return
	}

	c := &client{viewerID: viewerID, codec: codec, conn: conn, send: make(chan []byte, 64)}
	s.register(c)

	s.log.Info("viewer connected", "viewer", viewerID, "codec", codec, "remote", r.RemoteAddr)
	snap := s.match.Snapshot()
	s.sendTo(c, types.ServerEnvelope{
		Type:     "welcome",
		Tick:     snap.Tick,
		State:    &snap,
		ServerMS: time.Now().UTC().UnixMilli(),
		Message:  "connected",
	})

	go s.writePump(c)
	s.readPump(c)
}

func (s *server) readPump(c *client) {
	defer func() {
		s.unregister(c.viewerID)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Info("viewer disconnected", "viewer", c.viewerID)
				return
			}
			s.log.Warn("read error", "viewer", c.viewerID, "error", err)
			return
		}

		var in types.ClientEnvelope
		if err := json.Unmarshal(msg, &in); err != nil {
			s.sendError(c, "bad_payload")
			continue
		}

		switch in.Type {
		case "hello":
		case "control":
			if in.Control == nil {
				s.sendError(c, "missing_control")
				continue
			}
			if err := s.match.Control(*in.Control); err != nil {
				s.sendError(c, err.Error())
			}
		case "ping":
			s.sendTo(c, types.ServerEnvelope{Type: "pong", ServerMS: time.Now().UTC().UnixMilli()})
		default:
			s.sendError(c, "unsupported_message_type")
		}
	}
}

func (s *server) writePump(c *client) {
	ticker := time.NewTicker(20 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	msgType := websocket.TextMessage
	if c.codec.Binary() {
		msgType = websocket.BinaryMessage
	}
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msgType, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				return
			}
		}
	}
}

func (s *server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.viewerID] = c
}

func (s *server) unregister(viewerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[viewerID]; ok {
		close(c.send)
		delete(s.clients, viewerID)
	}
}

func (s *server) sendTo(c *client, env types.ServerEnvelope) {
	payload, err := c.codec.Marshal(env)
	if err != nil {
		s.log.Error("marshal envelope failed", "type", env.Type, "error", err)
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (s *server) sendError(c *client, message string) {
	s.sendTo(c, types.ServerEnvelope{Type: "error", Message: message})
}

// runSimulationLoop ticks the match at a fixed rate until full time or ctx
// ends, then stores the match.
func (s *server) runSimulationLoop(ctx context.Context, dt float64) {
	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.finish()
			return
		case <-ticker.C:
			if s.match.Finished() {
				s.finish()
				return
			}
			s.step(dt)
		}
	}
}

// step advances the match one tick and feeds the recorder and the event
// buffer of the match index.
func (s *server) step(dt float64) {
	s.match.Tick(dt)
	snap := s.match.Snapshot()
	if s.rec != nil {
		if err := s.rec.Write(snap); err != nil {
			s.log.Error("replay write failed", "path", s.rec.Path(), "error", err)
			s.closeReplay()
		}
	}
	if s.index != nil && len(snap.Events) > 0 {
		s.mu.Lock()
		s.events = append(s.events, snap.Events...)
		s.mu.Unlock()
	}
}

// finish flushes the replay and stores the match in the index. It runs once,
// from the simulation goroutine.
func (s *server) finish() {
	sum := s.match.Summary()
	s.log.Info("match finished", "match", sum.MatchID, "left", sum.ScoreLeft, "right", sum.ScoreRight)
	s.closeReplay()
	if s.index == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.mu.Lock()
	events := s.events
	s.events = nil
	s.mu.Unlock()
	if err := s.index.RecordMatch(ctx, sum); err != nil {
		s.log.Error("record match failed", "error", err)
	}
	if err := s.index.RecordEvents(ctx, sum.MatchID, events); err != nil {
		s.log.Error("record events failed", "error", err)
	}
}

func (s *server) closeReplay() {
	if s.rec == nil {
		return
	}
	if err := s.rec.Close(); err != nil {
		s.log.Error("replay close failed", "path", s.rec.Path(), "error", err)
	}
	s.rec = nil
}

func (s *server) closeStores() {
	s.closeReplay()
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			s.log.Error("match index close failed", "error", err)
		}
		s.index = nil
	}
}

func (s *server) runReplicationLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / 20)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		state := s.match.Snapshot()
		env := types.ServerEnvelope{
			Type:     "state",
			Tick:     state.Tick,
			State:    &state,
			ServerMS: time.Now().UTC().UnixMilli(),
		}

		s.mu.RLock()
		for _, c := range s.clients {
			s.sendTo(c, env)
		}
		s.mu.RUnlock()
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
