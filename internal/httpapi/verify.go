package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/tradeverifyd/dag-ucan/pkg/signer"
	"github.com/tradeverifyd/dag-ucan/pkg/ucan"
)

// verifyRequest is the body of POST /verify.
type verifyRequest struct {
	Token string `json:"token"`
}

// verifyResponse is the body of a successful POST /verify.
type verifyResponse struct {
	Valid     bool   `json:"valid"`
	Expired   bool   `json:"expired"`
	TooEarly  bool   `json:"too_early"`
	Issuer    string `json:"issuer"`
	Audience  string `json:"audience"`
	Error     string `json:"error,omitempty"`
}

// handleVerify handles POST /verify: it parses the token, resolves a
// verifier from its own issuer DID (did:key is self-certifying — the
// public key is the DID), and reports its signature and time validity.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := readRequestBody(r)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req verifyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	view, err := ucan.Decode([]byte(req.Token))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(verifyResponse{Valid: false, Error: err.Error()})
		return
	}

	if err := s.cacheAndStore(view); err != nil {
		log.Printf("Failed to cache verified ucan: %v", err)
	}

	resp := verifyResponse{
		Issuer:   view.Iss().DID(),
		Audience: view.Aud().DID(),
		Expired:  ucan.IsExpired(view),
		TooEarly: ucan.IsTooEarly(view),
	}

	verifier, err := signer.NewVerifier(view.Iss().DID())
	if err != nil {
		resp.Error = err.Error()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
		return
	}

	valid, err := ucan.VerifySignature(view, verifier)
	if err != nil {
		log.Printf("Signature verification error: %v", err)
		resp.Error = err.Error()
	}
	resp.Valid = valid && !resp.Expired && !resp.TooEarly

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
