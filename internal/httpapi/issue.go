package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/tradeverifyd/dag-ucan/internal/store"
	"github.com/tradeverifyd/dag-ucan/pkg/capability"
	"github.com/tradeverifyd/dag-ucan/pkg/ucan"
)

// capabilityRequest is the wire shape of one requested capability.
type capabilityRequest struct {
	With string `json:"with"`
	Can  string `json:"can"`
	Nb   any    `json:"nb,omitempty"`
}

// issueRequest is the body of POST /issue.
type issueRequest struct {
	Audience          string               `json:"audience"`
	Capabilities      []capabilityRequest  `json:"capabilities"`
	LifetimeInSeconds int64                `json:"lifetime_seconds,omitempty"`
	Expiration        *int64               `json:"expiration,omitempty"`
	NotBefore         *int64               `json:"not_before,omitempty"`
	Facts             []map[string]any     `json:"facts,omitempty"`
	Nonce             string               `json:"nonce,omitempty"`
}

// issueResponse is the body of a successful POST /issue.
type issueResponse struct {
	Token string `json:"token"`
	Cid   string `json:"cid"`
}

// handleIssue handles POST /issue: it signs a new UCAN on behalf of
// this service's configured identity.
func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := readRequestBody(r)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req issueRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	caps := make([]capability.Capability, len(req.Capabilities))
	for i, c := range req.Capabilities {
		caps[i] = capability.Capability{With: c.With, Can: c.Can, Nb: c.Nb}
	}

	lifetime := req.LifetimeInSeconds
	if lifetime == 0 {
		lifetime = s.config.DefaultLifetimeSeconds
	}

	view, err := ucan.Issue(ucan.IssueOptions{
		Issuer:            s.issuer,
		Audience:          req.Audience,
		Capabilities:      caps,
		LifetimeInSeconds: lifetime,
		Expiration:        req.Expiration,
		NotBefore:         req.NotBefore,
		Facts:             req.Facts,
		Nonce:             req.Nonce,
	})
	if err != nil {
		log.Printf("Failed to issue ucan: %v", err)
		http.Error(w, fmt.Sprintf("Failed to issue ucan: %v", err), http.StatusBadRequest)
		return
	}

	if err := s.cacheAndStore(view); err != nil {
		log.Printf("Failed to cache issued ucan: %v", err)
		http.Error(w, "Failed to persist issued ucan", http.StatusInternalServerError)
		return
	}

	token, err := ucan.Format(view)
	if err != nil {
		log.Printf("Failed to format ucan: %v", err)
		http.Error(w, "Failed to format ucan", http.StatusInternalServerError)
		return
	}
	link, err := ucan.Link(view, 0)
	if err != nil {
		log.Printf("Failed to link ucan: %v", err)
		http.Error(w, "Failed to link ucan", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(issueResponse{Token: token, Cid: link.String()})
}

// cacheAndStore writes the view's bytes into the block store and
// records its metadata in the token cache.
func (s *Server) cacheAndStore(view *ucan.View) error {
	result, err := ucan.Write(view, 0)
	if err != nil {
		return err
	}

	if err := s.blocks.Put(result.Cid, result.Bytes); err != nil {
		return err
	}

	representation := store.RepresentationCBOR
	if view.IsJWTView() {
		representation = store.RepresentationJWT
	}

	exp := view.Exp()
	tok := store.Token{
		Cid:            result.Cid.String(),
		Iss:            view.Iss().DID(),
		Aud:            view.Aud().DID(),
		Exp:            exp,
		Representation: representation,
		Data:           result.Bytes,
	}
	return store.Insert(s.db, tok)
}
