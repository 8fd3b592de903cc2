package inspect

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Routes returns the inspector's HTTP handler:
//
//	GET /snapshot - counters and recent events as JSON
//	GET /healthz  - liveness probe
//	GET /ws       - WebSocket event stream
func (in *Inspector) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/snapshot", in.handleSnapshot)
	r.Get("/healthz", in.handleHealthz)
	r.Get("/ws", in.handleWebSocket)

	return r
}

func (in *Inspector) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(in.Snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (in *Inspector) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleWebSocket upgrades the connection and streams events until the
// client disconnects.
func (in *Inspector) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := in.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	in.clientsMu.Lock()
	in.clients[conn] = true
	in.clientsMu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	in.clientsMu.Lock()
	delete(in.clients, conn)
	in.clientsMu.Unlock()
	conn.Close()
}
