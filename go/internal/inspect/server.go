// Package inspect serves a read-only HTTP view of a running session, for
// overlays and debugging tools.
package inspect

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/quizbattle/go/internal/session"
)

// StateSource yields the latest published view state
type StateSource interface {
	State() session.ViewState
}

// NewHandler builds the inspection routes wrapped in CORS and h2c
func NewHandler(src StateSource) http.Handler {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	setupHealthCheck(mux)
	mux.HandleFunc("GET /state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, src.State())
	})
	mux.HandleFunc("GET /permissions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, src.State().State.Permissions)
	})
	mux.HandleFunc("GET /report", func(w http.ResponseWriter, r *http.Request) {
		st := src.State()
		if st.Report == nil {
			http.Error(w, "game not finished", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+st.Report.FileName()+`"`)
		if _, err := w.Write([]byte(st.Report.Text())); err != nil {
			log.Error().Err(err).Msg("failed to write report response")
		}
	})

	return h2c.NewHandler(c.Handler(mux), &http2.Server{})
}

// NewServer creates the inspection server on addr
func NewServer(addr string, src StateSource) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(src),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode inspect response")
	}
}
