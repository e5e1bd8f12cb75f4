package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"robosoccer/internal/matchdb"
	"robosoccer/internal/shared/logger"
	"robosoccer/internal/shared/types"
)

type historyServer struct {
	log   *logger.Logger
	index *matchdb.Index
}

func main() {
	log := logger.New("telemetry")
	addr := getenv("TELEMETRY_ADDR", ":9002")

	index, err := matchdb.Open(getenv("MATCH_DB", "matches.db"))
	if err != nil {
		log.Fatal("open match index", "error", err)
	}
	defer index.Close()

	h := &historyServer{log: log, index: index}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/v1/events", h.handleEvents)
	mux.HandleFunc("GET /v1/matches", h.handleMatches)
	mux.HandleFunc("GET /v1/matches/{id}/events", h.handleMatchEvents)
	mux.HandleFunc("/metrics", h.handleMetrics)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           withCORS(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("telemetry listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server failed", "error", err)
	}
}

func (h *historyServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var ev types.TelemetryEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
			return
		}
		if ev.EventType == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "event_type_required"})
			return
		}
		if ev.EventID == "" {
			ev.EventID = uuid.NewString()
		}
		if ev.Timestamp == 0 {
			ev.Timestamp = time.Now().UTC().UnixMilli()
		}
		if err := h.index.RecordTelemetry(r.Context(), ev); err != nil {
			h.log.Error("record telemetry failed", "event_type", ev.EventType, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store_failed"})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "event_id": ev.EventID})
	case http.MethodGet:
		counts, err := h.index.EventCounts(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query_failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"by_type": counts})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
	}
}

func (h *historyServer) handleMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.index.ListMatches(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		h.log.Error("list matches failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query_failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(matches),
		"matches": matches,
	})
}

func (h *historyServer) handleMatchEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	events, err := h.index.MatchEvents(r.Context(), id, queryInt(r, "limit", 500))
	if err != nil {
		h.log.Error("match events failed", "match", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query_failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match_id": id,
		"count":    len(events),
		"events":   events,
	})
}

func (h *historyServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	counts, err := h.index.EventCounts(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	keys := make([]string, 0, len(counts))
	var total int64
	for k, v := range counts {
		keys = append(keys, k)
		total += v
	}
	sort.Strings(keys)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = fmt.Fprintln(w, "# HELP robosoccer_events_total Total match and telemetry events stored")
	_, _ = fmt.Fprintln(w, "# TYPE robosoccer_events_total counter")
	_, _ = fmt.Fprintf(w, "robosoccer_events_total %d\n", total)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "robosoccer_events_by_type{event_type=\"%s\"} %d\n", k, counts[k])
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
