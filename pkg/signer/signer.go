// Package signer provides the did:key Ed25519 identity used to issue
// and verify UCANs: key generation, raw import/export, and the
// Signer/Verifier pair pkg/ucan and pkg/varsig consume as external
// cryptographic capabilities.
package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/multiformats/go-varint"

	"github.com/tradeverifyd/dag-ucan/pkg/principal"
	"github.com/tradeverifyd/dag-ucan/pkg/varsig"
)

// ErrWrongAlgorithm is returned when a Verifier is asked to check a
// signature whose VarSig envelope isn't EdDSA.
var ErrWrongAlgorithm = errors.New("signer: signature algorithm is not EdDSA")

// Identity holds an Ed25519 key pair and signs on behalf of its own
// did:key principal. It satisfies pkg/ucan.Issuer and pkg/ucan.Verifier.
type Identity struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	did     string
}

// Generate creates a new random Ed25519 identity.
func Generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("signer: failed to generate ed25519 key: %w", err)
	}
	return newIdentity(priv, pub)
}

// ImportPrivateKey reconstructs an Identity from a raw 64-byte Ed25519
// private key (seed || public key, the same layout crypto/ed25519 uses
// for PrivateKey and that ExportPrivateKey writes to disk).
func ImportPrivateKey(raw []byte) (*Identity, error) {
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("signer: private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	priv := ed25519.PrivateKey(append([]byte(nil), raw...))
	pub := priv.Public().(ed25519.PublicKey)
	return newIdentity(priv, pub)
}

func newIdentity(priv ed25519.PrivateKey, pub ed25519.PublicKey) (*Identity, error) {
	did, err := didFromPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return &Identity{private: priv, public: pub, did: did}, nil
}

// DID returns the identity's did:key string.
func (id *Identity) DID() string { return id.did }

// SignatureAlgorithm names the VarSig algorithm this identity signs
// with.
func (id *Identity) SignatureAlgorithm() string { return "EdDSA" }

// Sign signs payload with the identity's private key.
func (id *Identity) Sign(payload []byte) ([]byte, error) {
	return ed25519.Sign(id.private, payload), nil
}

// Verify checks a VarSig signature against payload using the
// identity's own public key.
func (id *Identity) Verify(payload []byte, sig *varsig.Signature) (bool, error) {
	return verify(id.public, payload, sig)
}

// ExportPrivateKey returns the raw 64-byte Ed25519 private key (seed ||
// public key) suitable for writing to a key file.
func (id *Identity) ExportPrivateKey() []byte {
	return append([]byte(nil), id.private...)
}

// PublicKey returns the raw 32-byte Ed25519 public key.
func (id *Identity) PublicKey() ed25519.PublicKey {
	return append(ed25519.PublicKey(nil), id.public...)
}

// Verifier checks signatures against a did:key identity without
// holding the corresponding private key, e.g. for verifying a token
// issued by someone else.
type Verifier struct {
	public ed25519.PublicKey
	did    string
}

// NewVerifier parses a did:key string into a Verifier. It fails if the
// DID doesn't carry an Ed25519 key.
func NewVerifier(did string) (*Verifier, error) {
	p, err := principal.Parse(did)
	if err != nil {
		return nil, err
	}
	code, ok := p.KeyCodec()
	if !ok || code != principal.KeyEd25519 {
		return nil, fmt.Errorf("signer: %q is not an Ed25519 did:key", did)
	}

	_, n, err := varint.FromUvarint(p.Bytes())
	if err != nil {
		return nil, fmt.Errorf("signer: malformed did:key: %w", err)
	}
	pub := p.Bytes()[n:]
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("signer: malformed Ed25519 public key: expected %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}

	return &Verifier{public: ed25519.PublicKey(pub), did: did}, nil
}

// DID returns the verifier's did:key string.
func (v *Verifier) DID() string { return v.did }

// Verify checks a VarSig signature against payload.
func (v *Verifier) Verify(payload []byte, sig *varsig.Signature) (bool, error) {
	return verify(v.public, payload, sig)
}

func verify(pub ed25519.PublicKey, payload []byte, sig *varsig.Signature) (bool, error) {
	if sig.Algorithm() != "EdDSA" {
		return false, fmt.Errorf("%w: got %q", ErrWrongAlgorithm, sig.Algorithm())
	}
	if len(sig.Raw()) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(pub, payload, sig.Raw()), nil
}

func didFromPublicKey(pub ed25519.PublicKey) (string, error) {
	tag := varint.ToUvarint(principal.KeyEd25519)
	tagged := make([]byte, 0, len(tag)+len(pub))
	tagged = append(tagged, tag...)
	tagged = append(tagged, pub...)
	return principal.FormatBytes(tagged)
}
