package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"chartlens/internal/markethours"
	"chartlens/internal/refresh"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// RegisterRoutes registers all HTTP routes on the provided mux.
// configOut is the static configuration payload served on /api/config.
func RegisterRoutes(mux *http.ServeMux, hub *Hub, svc *refresh.Service, configOut interface{}, processStart time.Time) {
	symbolSet := make(map[string]bool)
	for _, s := range svc.Symbols() {
		symbolSet[strings.ToUpper(s)] = true
	}

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		hub.HandleWSRequest(conn)
	})

	// REST: full chart payload for one symbol
	mux.HandleFunc("/api/chart", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
		if symbol == "" {
			writeError(w, http.StatusBadRequest, "symbol is required")
			return
		}
		if !symbolSet[symbol] {
			writeError(w, http.StatusNotFound, "unknown symbol: "+symbol)
			return
		}

		res := svc.Latest(symbol)
		if res == nil {
			if err := svc.LastError(symbol); err != nil {
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
			writeError(w, http.StatusServiceUnavailable, "no data yet for "+symbol)
			return
		}
		json.NewEncoder(w).Encode(ToChartOut(res))
	})

	// REST: configured symbol universe with per-symbol status
	mux.HandleFunc("/api/symbols", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		type symbolStatus struct {
			Symbol     string `json:"symbol"`
			Ready      bool   `json:"ready"`
			Generation int64  `json:"generation,omitempty"`
			FetchedAt  string `json:"fetched_at,omitempty"`
			Error      string `json:"error,omitempty"`
		}
		symbols := svc.Symbols()
		out := make([]symbolStatus, len(symbols))
		for i, sym := range symbols {
			st := symbolStatus{Symbol: sym}
			if res := svc.Latest(sym); res != nil {
				st.Ready = true
				st.Generation = res.Generation
				st.FetchedAt = res.FetchedAt.Format(time.RFC3339)
			}
			if err := svc.LastError(sym); err != nil {
				st.Error = err.Error()
			}
			out[i] = st
		}
		json.NewEncoder(w).Encode(out)
	})

	// REST: analysis configuration as seen by the frontend
	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(configOut)
	})

	// REST: on-demand refresh. Returns 202; the result arrives over /ws
	// and subsequent /api/chart reads.
	mux.HandleFunc("/api/refresh", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST required")
			return
		}

		symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
		if symbol != "" && !symbolSet[symbol] {
			writeError(w, http.StatusNotFound, "unknown symbol: "+symbol)
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			if symbol == "" {
				svc.RefreshAll(ctx)
				return
			}
			if err := svc.Refresh(ctx, symbol); err != nil {
				log.Printf("[gateway] on-demand refresh %s: %v", symbol, err)
			}
		}()

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "refreshing"})
	})

	// REST: recent refresh cycle history (ops surface)
	mux.HandleFunc("/api/cycles", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(svc.RecentCycles())
	})

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		now := time.Now()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":       "ok",
			"ws_clients":   hub.ClientCount(),
			"symbols":      len(symbolSet),
			"marketOpen":   markethours.IsMarketOpen(now),
			"marketStatus": markethours.StatusString(now),
			"uptime_sec":   int64(time.Since(processStart).Seconds()),
			"ts":           now.UTC().Format(time.RFC3339Nano),
		})
	})
}
