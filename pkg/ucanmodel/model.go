// Package ucanmodel defines the internal, immutable representation of
// a signed UCAN (spec.md §3 Model).
package ucanmodel

import (
	"github.com/tradeverifyd/dag-ucan/pkg/capability"
	"github.com/tradeverifyd/dag-ucan/pkg/link"
	"github.com/tradeverifyd/dag-ucan/pkg/principal"
	"github.com/tradeverifyd/dag-ucan/pkg/varsig"
)

// Model is the internal representation of a signed UCAN. It is built
// only by parse, decode, or issue, and is immutable thereafter.
type Model struct {
	V   string
	Iss *principal.Principal
	Aud *principal.Principal
	Att []capability.Capability

	// Exp is nil for "never expires".
	Exp *int64
	Nbf *int64
	Nnc string
	// Fct holds opaque fact objects, defaulting to an empty slice.
	Fct []map[string]any
	// Prf holds proof links, defaulting to an empty slice.
	Prf []*link.Link

	S *varsig.Signature

	// JWT holds the original JWT bytes when this Model was retained as
	// the JWT representation (i.e. canonical re-emission did not
	// reproduce the original token). Nil for the CBOR representation.
	JWT []byte
}

// IsJWTRetained reports whether this Model carries the original JWT
// bytes (was not promoted to the canonical CBOR representation).
func (m *Model) IsJWTRetained() bool { return m.JWT != nil }
