package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/leapstack-labs/tabdb/internal/engine"
	"github.com/leapstack-labs/tabdb/pkg/core"
)

// maxCommandBytes bounds the body of POST /command.
const maxCommandBytes = 1 << 20

// Handler returns the HTTP admin API.
//
//	GET  /healthz    liveness probe
//	GET  /databases  databases under the root and the selected one
//	POST /command    run the command in the body; 200 for [OK], 422 for [ERROR]
//	GET  /history    recent audit records (when an audit store is configured)
//	GET  /events     server-sent change events
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
			NoColor: true,
		}),
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	r.Get("/databases", s.handleDatabases)
	r.Post("/command", s.handleCommand)
	r.Get("/history", s.handleHistory)
	r.Get("/events", s.handleEvents)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// DatabasesResponse is the body of GET /databases.
type DatabasesResponse struct {
	Databases []string `json:"databases"`
	Selected  string   `json:"selected"`
	Tables    []string `json:"tables"`
}

func (s *Server) handleDatabases(w http.ResponseWriter, _ *http.Request) {
	names, err := s.engine.Layout().ListDatabases()
	if err != nil {
		s.logger.Error("failed to list databases", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	tables := s.engine.Tables()
	if names == nil {
		names = []string{}
	}
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, http.StatusOK, DatabasesResponse{
		Databases: names,
		Selected:  s.engine.Database(),
		Tables:    tables,
	})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCommandBytes))
	if err != nil {
		http.Error(w, "failed to read command: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	clientID := middleware.GetReqID(r.Context())
	if clientID == "" {
		clientID = uuid.NewString()
	}
	ctx := engine.WithClientID(r.Context(), "http-"+clientID)

	resp := s.execute(ctx, string(body))
	status := http.StatusOK
	if !engine.IsOK(resp) {
		status = http.StatusUnprocessableEntity
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp)
}

// HistoryRecord is one entry of GET /history.
type HistoryRecord struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	Database   string    `json:"database"`
	Command    string    `json:"command"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	DurationMS float64   `json:"duration_ms"`
	ExecutedAt time.Time `json:"executed_at"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "audit log is disabled", http.StatusNotFound)
		return
	}

	filter := core.CommandFilter{
		Limit:    50,
		ClientID: r.URL.Query().Get("client"),
		Status:   core.CommandStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, fmt.Sprintf("invalid limit %q", v), http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}

	records, err := s.store.ListCommands(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list history", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]HistoryRecord, len(records))
	for i, rec := range records {
		out[i] = HistoryRecord{
			ID:         rec.ID,
			ClientID:   rec.ClientID,
			Database:   rec.Database,
			Command:    rec.Command,
			Status:     string(rec.Status),
			Message:    rec.Message,
			DurationMS: float64(rec.Duration.Microseconds()) / 1000,
			ExecutedAt: rec.ExecutedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleEvents streams change events as server-sent events until the
// client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("failed to encode event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
