// Package httpapi exposes UCAN issuance, verification, and resolution
// over HTTP.
package httpapi

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/tradeverifyd/dag-ucan/internal/config"
	"github.com/tradeverifyd/dag-ucan/internal/store"
	"github.com/tradeverifyd/dag-ucan/pkg/blockstore"
	"github.com/tradeverifyd/dag-ucan/pkg/signer"
)

// Server is the HTTP host for the UCAN service.
type Server struct {
	config *config.Config
	db     *sql.DB
	blocks blockstore.Blockstore
	issuer *signer.Identity
	mux    *http.ServeMux
}

// NewServer wires a Server from configuration: it opens the token
// cache, the block store, and loads (or refuses to start without) the
// service's own signing identity.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := store.Open(store.Options{Path: cfg.Database.Path, EnableWAL: cfg.Database.EnableWAL})
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}

	bs, err := openBlockstore(cfg)
	if err != nil {
		store.Close(db)
		return nil, err
	}

	issuer, err := loadIssuer(cfg)
	if err != nil {
		store.Close(db)
		return nil, err
	}

	s := &Server{
		config: cfg,
		db:     db,
		blocks: bs,
		issuer: issuer,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()

	return s, nil
}

func openBlockstore(cfg *config.Config) (blockstore.Blockstore, error) {
	switch cfg.Storage.Type {
	case "memory":
		return blockstore.NewMemoryBlockstore(), nil
	case "local":
		bs, err := blockstore.NewLocalBlockstore(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open block store: %w", err)
		}
		return bs, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

func loadIssuer(cfg *config.Config) (*signer.Identity, error) {
	raw, err := readKeyFile(cfg.Keys.Private)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key (run \"ucan keygen\" first): %w", err)
	}
	id, err := signer.ImportPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to import signing key: %w", err)
	}
	return id, nil
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/issue", s.handleIssue)
	s.mux.HandleFunc("/verify", s.handleVerify)
	s.mux.HandleFunc("/resolve/", s.handleResolve)
	s.mux.HandleFunc("/health", s.handleHealth)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	log.Printf("Starting UCAN service on %s", addr)
	log.Printf("Issuer: %s", s.issuer.DID())

	handler := s.loggingMiddleware(s.corsMiddleware(s.mux))
	return http.ListenAndServe(addr, handler)
}

// Close releases the server's resources.
func (s *Server) Close() error {
	return store.Close(s.db)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.loggingMiddleware(s.corsMiddleware(s.mux))
}

// loggingMiddleware logs all HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers if configured.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.Server.CORS.Enabled {
			if len(s.config.Server.CORS.AllowedOrigins) > 0 {
				origin := s.config.Server.CORS.AllowedOrigins[0]
				if origin == "*" {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					reqOrigin := r.Header.Get("Origin")
					for _, allowed := range s.config.Server.CORS.AllowedOrigins {
						if reqOrigin == allowed {
							w.Header().Set("Access-Control-Allow-Origin", reqOrigin)
							break
						}
					}
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status": "healthy",
		"issuer": s.config.Issuer,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(health)
}

func readRequestBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func trimResolvePrefix(path string) string {
	return strings.TrimPrefix(path, "/resolve/")
}
