// Package ucan is the dual-representation facade (spec.md §4.6): it
// wraps a Model as either a CBOR-view or a JWT-view, and chooses
// between them according to the signature-preservation rule.
package ucan

import (
	"errors"
	"fmt"
	"time"

	"github.com/tradeverifyd/dag-ucan/pkg/capability"
	"github.com/tradeverifyd/dag-ucan/pkg/cborcodec"
	"github.com/tradeverifyd/dag-ucan/pkg/jwtcodec"
	"github.com/tradeverifyd/dag-ucan/pkg/link"
	"github.com/tradeverifyd/dag-ucan/pkg/principal"
	"github.com/tradeverifyd/dag-ucan/pkg/ucanmodel"
	"github.com/tradeverifyd/dag-ucan/pkg/varsig"
)

// VERSION, Name and Code are the module's fixed public constants
// (spec §6.4).
const (
	VERSION = "0.9.1"
	Name    = "dag-ucan"
)

// Code is the multicodec of the canonical (CBOR-view) representation.
const Code = link.CodecCBOR

// ErrVerifierMismatch is not returned by VerifySignature — it exists so
// callers can distinguish a DID mismatch from a cryptographic failure
// when they want to, e.g. for logging. VerifySignature itself always
// returns (false, nil) on mismatch, never this error.
var ErrVerifierMismatch = errors.New("ucan: verifier DID does not match issuer")

// Issuer signs on behalf of a principal: it can produce a DID, name its
// VarSig algorithm, and sign arbitrary payloads.
type Issuer interface {
	DID() string
	SignatureAlgorithm() string
	varsig.Signer
}

// Verifier checks a signature on behalf of a principal.
type Verifier interface {
	DID() string
	varsig.Verifier
}

// IssueOptions are the inputs to Issue (spec §4.6.4).
type IssueOptions struct {
	Issuer       Issuer
	Audience     any // did string, []byte, *principal.Principal, or a didAccessor
	Capabilities []capability.Capability

	// LifetimeInSeconds defaults to 30 when zero and Expiration is nil.
	LifetimeInSeconds int64
	// Expiration overrides the lifetime-derived expiry. Set to a
	// pointer-to-zero value's absence (nil) to use the default;
	// there is no way to request "never expires" other than building
	// the Model directly, matching the original's omission of that
	// case from the issuance options.
	Expiration *int64
	NotBefore  *int64
	Facts      []map[string]any
	Proofs     []*link.Link
	Nonce      string
}

// Issue validates and signs a new UCAN, returning its CBOR-view.
func Issue(opts IssueOptions) (*View, error) {
	iss, err := principal.From(opts.Issuer)
	if err != nil {
		return nil, err
	}
	aud, err := principal.From(opts.Audience)
	if err != nil {
		return nil, err
	}
	caps, err := capability.Validate(opts.Capabilities)
	if err != nil {
		return nil, err
	}

	lifetime := opts.LifetimeInSeconds
	if lifetime == 0 {
		lifetime = 30
	}
	exp := opts.Expiration
	if exp == nil {
		e := Now() + lifetime
		exp = &e
	}

	facts := opts.Facts
	if facts == nil {
		facts = []map[string]any{}
	}
	proofs := opts.Proofs
	if proofs == nil {
		proofs = []*link.Link{}
	}

	m := &ucanmodel.Model{
		V:   VERSION,
		Iss: iss,
		Aud: aud,
		Att: caps,
		Exp: exp,
		Nbf: opts.NotBefore,
		Nnc: opts.Nonce,
		Fct: facts,
		Prf: proofs,
	}

	alg := opts.Issuer.SignatureAlgorithm()
	signPayload, err := jwtcodec.FormatSignPayload(m, alg)
	if err != nil {
		return nil, err
	}
	rawSig, err := opts.Issuer.Sign(signPayload)
	if err != nil {
		return nil, fmt.Errorf("ucan: issuer sign failed: %w", err)
	}
	sig, err := varsig.CreateNamed(alg, rawSig)
	if err != nil {
		return nil, err
	}
	m.S = sig

	return wrap(m), nil
}

// Parse parses a compact JWT string, promoting it to a CBOR-view when
// the canonical re-emission is byte-identical (spec §4.6.2).
func Parse(jwt string) (*View, error) {
	m, err := jwtcodec.Parse(jwt)
	if err != nil {
		return nil, err
	}
	canonical, err := jwtcodec.Format(m)
	if err != nil {
		return nil, err
	}
	if canonical != jwt {
		m.JWT = []byte(jwt)
	}
	return wrap(m), nil
}

// Decode accepts either canonical DAG-CBOR bytes or UTF-8 JWT bytes
// (spec §4.6.1): it tries CBOR first and falls back to the JWT path.
func Decode(data []byte) (*View, error) {
	if m, err := cborcodec.Decode(data); err == nil {
		return wrap(m), nil
	}
	return Parse(string(data))
}

// Format renders the view back to its compact JWT string.
func Format(v *View) (string, error) {
	if v.model.IsJWTRetained() {
		return string(v.model.JWT), nil
	}
	return jwtcodec.Format(v.model)
}

// Encode renders the view to bytes in its own representation: the
// retained JWT bytes for a JWT-view, or canonical DAG-CBOR for a
// CBOR-view.
func Encode(v *View) ([]byte, error) {
	return representationBytes(v)
}

func representationBytes(v *View) ([]byte, error) {
	if v.model.IsJWTRetained() {
		return v.model.JWT, nil
	}
	return cborcodec.Encode(v.model)
}

func representationCodec(v *View) uint64 {
	if v.model.IsJWTRetained() {
		return link.CodecRaw
	}
	return link.CodecCBOR
}

// Link computes the view's CID. alg is a multihash code; pass 0 for
// the default (SHA-256). The codec is fixed by the representation,
// never by the caller (spec §4.6.3).
func Link(v *View, alg uint64) (*link.Link, error) {
	data, err := representationBytes(v)
	if err != nil {
		return nil, err
	}
	return link.Sum(representationCodec(v), data, alg)
}

// WriteResult is the {bytes, cid, data} triple Write returns: Bytes is
// the representation's raw encoding (the same bytes backing Data),
// and Cid addresses it.
type WriteResult struct {
	Bytes []byte
	Cid   *link.Link
	Data  []byte
}

// Write encodes the view and links it in one step, the shape a
// blockstore.Put expects.
func Write(v *View, alg uint64) (*WriteResult, error) {
	data, err := representationBytes(v)
	if err != nil {
		return nil, err
	}
	l, err := link.Sum(representationCodec(v), data, alg)
	if err != nil {
		return nil, err
	}
	return &WriteResult{Bytes: data, Cid: l, Data: data}, nil
}

// VerifySignature reports whether verifier's DID matches the view's
// issuer and the signature validates over the exact bytes the issuer
// signed (spec §4.6.5). For a retained JWT-view, that is the original
// token's own header.payload segments, not their canonical
// re-derivation — re-canonicalizing here would verify a payload the
// issuer never signed whenever the token isn't already canonical
// (spec §5, §4.6.2). It never errors on a mismatch — only on a
// structural failure while recovering the signing payload.
func VerifySignature(v *View, verifier Verifier) (bool, error) {
	if verifier.DID() != v.model.Iss.DID() {
		return false, nil
	}

	var signPayload []byte
	if v.model.IsJWTRetained() {
		var err error
		signPayload, _, err = jwtcodec.SignedSegments(v.model.JWT)
		if err != nil {
			return false, err
		}
	} else {
		var err error
		signPayload, err = jwtcodec.FormatSignPayload(v.model, v.model.S.Algorithm())
		if err != nil {
			return false, err
		}
	}

	return verifier.Verify(signPayload, v.model.S)
}

// IsExpired reports exp <= now(); a nil exp never expires.
func IsExpired(v *View) bool {
	if v.model.Exp == nil {
		return false
	}
	return *v.model.Exp <= Now()
}

// IsTooEarly reports now() <= nbf when nbf is set.
func IsTooEarly(v *View) bool {
	if v.model.Nbf == nil {
		return false
	}
	return Now() <= *v.model.Nbf
}

// Now returns the current Unix time in seconds.
func Now() int64 { return time.Now().Unix() }
