// Package api provides HTTP API capabilities for the winm pipeline.
// This is a capability module that can be enabled via the CLI or used programmatically.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/rs/cors"

	"github.com/sljesus/winm/analyzer"
	"github.com/sljesus/winm/extractor/common"
	"github.com/sljesus/winm/integrations/eml"
)

// Config holds the API server configuration
type Config struct {
	Port           string
	LogPrefix      string
	AllowedOrigins []string
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{
		Port:           ":8080",
		LogPrefix:      "API: ",
		AllowedOrigins: []string{"*"},
	}
}

// Server represents the HTTP API server
type Server struct {
	config Config
	mux    *http.ServeMux
	chain  analyzer.Analyzer
}

// New creates a new API server with the given configuration and
// analyzer chain.
func New(cfg Config, chain analyzer.Analyzer) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
		chain:  chain,
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up the API endpoints
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/health", s.handleHealth)
}

// Handler returns the http.Handler for the server, CORS-wrapped so the
// dashboard can call it from the browser.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
	})
	return c.Handler(s.mux)
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	log.Printf("%sStarting server on %s", s.config.LogPrefix, s.config.Port)
	return http.ListenAndServe(s.config.Port, s.Handler())
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleAnalyze accepts either a multipart .eml upload (field "file") or
// a JSON email body and answers with the extracted transaction, or {}
// when the email is not a transaction notification.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	log.Printf("%sReceived request from %s", s.config.LogPrefix, r.RemoteAddr)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email, err := s.readEmail(r)
	if err != nil {
		log.Printf("%sError reading email: %v", s.config.LogPrefix, err)
		http.Error(w, "Could not read email: "+err.Error(), http.StatusBadRequest)
		return
	}

	transaction, err := s.chain.AnalyzeEmail(r.Context(), email)
	if err != nil {
		log.Printf("%sError analyzing email %s: %v", s.config.LogPrefix, email.ID, err)
		http.Error(w, "Analysis failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if transaction == nil {
		json.NewEncoder(w).Encode(struct{}{})
		return
	}
	json.NewEncoder(w).Encode(transaction)
}

// readEmail pulls the email out of the request, from an uploaded .eml
// file or a JSON body.
func (s *Server) readEmail(r *http.Request) (common.RawEmail, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		// Parse multipart form with 32MB max memory
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return common.RawEmail{}, err
		}

		file, handler, err := r.FormFile("file")
		if err != nil {
			return common.RawEmail{}, err
		}
		defer file.Close()

		email, err := eml.Read(file)
		if err != nil {
			return common.RawEmail{}, err
		}
		if email.ID == "" {
			email.ID = handler.Filename
		}
		return email, nil
	}

	var email common.RawEmail
	if err := json.NewDecoder(r.Body).Decode(&email); err != nil {
		return common.RawEmail{}, err
	}
	return email, nil
}
