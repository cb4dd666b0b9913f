package httpapi

import (
	"log"
	"net/http"

	"github.com/tradeverifyd/dag-ucan/internal/store"
)

// handleResolve handles GET /resolve/{cid}: it returns the cached
// bytes for a previously issued or verified token.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cid := trimResolvePrefix(r.URL.Path)
	if cid == "" {
		http.Error(w, "Missing cid", http.StatusBadRequest)
		return
	}

	tok, err := store.GetByCID(s.db, cid)
	if err != nil {
		log.Printf("Failed to resolve %s: %v", cid, err)
		http.Error(w, "Failed to resolve token", http.StatusInternalServerError)
		return
	}
	if tok == nil {
		http.Error(w, "Token not found", http.StatusNotFound)
		return
	}

	contentType := "application/cbor"
	if tok.Representation == store.RepresentationJWT {
		contentType = "application/jwt"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(tok.Data)
}
