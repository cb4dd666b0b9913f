// Package schema validates and normalizes a decoded UCAN payload into a
// Payload value, enforcing the shape rules from spec.md §4.3. It never
// evaluates capability semantics — only structure.
package schema

import (
	"errors"
	"fmt"

	"github.com/tradeverifyd/dag-ucan/pkg/capability"
	"github.com/tradeverifyd/dag-ucan/pkg/link"
	"github.com/tradeverifyd/dag-ucan/pkg/principal"
)

// ErrParse is the single tagged shape-error sentinel (spec §6.5/§7).
// Every validation failure wraps it with the offending JSON-Pointer
// path, e.g. "ucan: parse error: att[0].can: ...".
var ErrParse = errors.New("ucan: parse error")

// Mode distinguishes the JWT-path field encoding (principals and
// proofs as strings) from the CBOR-path encoding (principals as
// tagged bytes, proofs as already-decoded link bytes).
type Mode int

const (
	ModeJWT Mode = iota
	ModeCBOR
)

// Payload is the validated, normalized field set of a UCAN — the
// Model minus its header (v) and signature (s), which the JWT/CBOR
// codecs attach separately.
type Payload struct {
	Iss *principal.Principal
	Aud *principal.Principal
	Att []capability.Capability
	Exp *int64
	Nbf *int64
	Nnc string
	Fct []map[string]any
	Prf []*link.Link
}

func perr(path string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrParse, path, fmt.Sprintf(format, args...))
}

// Validate validates a decoded, generic payload object (as produced by
// encoding/json.Unmarshal into map[string]any for the JWT path, or by
// the CBOR decoder for the CBOR path) into a Payload.
func Validate(raw map[string]any, mode Mode) (*Payload, error) {
	p := &Payload{}

	iss, err := readPrincipal(raw, "iss", mode)
	if err != nil {
		return nil, err
	}
	p.Iss = iss

	aud, err := readPrincipal(raw, "aud", mode)
	if err != nil {
		return nil, err
	}
	p.Aud = aud

	att, err := readCapabilities(raw)
	if err != nil {
		return nil, err
	}
	p.Att = att

	exp, err := readOptionalInt(raw, "exp")
	if err != nil {
		return nil, err
	}
	p.Exp = exp

	nbf, err := readOptionalInt(raw, "nbf")
	if err != nil {
		return nil, err
	}
	p.Nbf = nbf

	nnc, err := readOptionalString(raw, "nnc")
	if err != nil {
		return nil, err
	}
	p.Nnc = nnc

	fct, err := readFacts(raw)
	if err != nil {
		return nil, err
	}
	p.Fct = fct

	prf, err := readProofs(raw, mode)
	if err != nil {
		return nil, err
	}
	p.Prf = prf

	return p, nil
}

func readPrincipal(raw map[string]any, field string, mode Mode) (*principal.Principal, error) {
	v, ok := raw[field]
	if !ok {
		return nil, perr(field, "required field is missing")
	}

	switch mode {
	case ModeJWT:
		s, ok := v.(string)
		if !ok {
			return nil, perr(field, "expected a did: string, got %T", v)
		}
		p, err := principal.Parse(s)
		if err != nil {
			return nil, perr(field, "%s", err)
		}
		return p, nil
	case ModeCBOR:
		b, ok := v.([]byte)
		if !ok {
			return nil, perr(field, "expected tagged did bytes, got %T", v)
		}
		p, err := principal.FromBytes(b)
		if err != nil {
			return nil, perr(field, "%s", err)
		}
		return p, nil
	default:
		return nil, perr(field, "unknown schema mode")
	}
}

func readCapabilities(raw map[string]any) ([]capability.Capability, error) {
	v, ok := raw["att"]
	if !ok {
		return nil, perr("att", "required field is missing")
	}
	items, ok := v.([]any)
	if !ok {
		return nil, perr("att", "expected an array, got %T", v)
	}
	if len(items) == 0 {
		return nil, perr("att", "must contain at least one capability")
	}

	caps := make([]capability.Capability, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, perr(fmt.Sprintf("att[%d]", i), "expected an object, got %T", item)
		}

		with, ok := m["with"].(string)
		if !ok {
			return nil, perr(fmt.Sprintf("att[%d].with", i), "expected a string, got %T", m["with"])
		}
		can, ok := m["can"].(string)
		if !ok {
			return nil, perr(fmt.Sprintf("att[%d].can", i), "expected a string, got %T", m["can"])
		}

		extra := make(map[string]any, len(m))
		for k, val := range m {
			if k == "with" || k == "can" || k == "nb" {
				continue
			}
			extra[k] = val
		}

		c := capability.Capability{With: with, Can: can, Nb: m["nb"], Extra: extra}
		normalized, err := capability.Normalize(c)
		if err != nil {
			field := "can"
			if with == "" {
				field = "with"
			}
			return nil, perr(fmt.Sprintf("att[%d].%s", i, field), "%s", trimCapErr(err))
		}
		caps[i] = normalized
	}

	return caps, nil
}

func trimCapErr(err error) string {
	s := err.Error()
	const prefix = "capability: invalid: "
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}

// readOptionalInt treats both an absent key and an explicit JSON/CBOR
// null the same way: "never" for exp, "unset" for nbf (spec.md §9 Open
// Question (a)).
func readOptionalInt(raw map[string]any, field string) (*int64, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return nil, nil
	}

	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return nil, perr(field, "expected an integer, got %v", n)
		}
		i := int64(n)
		return &i, nil
	case int64:
		return &n, nil
	case uint64:
		// fxamacker/cbor decodes non-negative CBOR integers as uint64.
		i := int64(n)
		return &i, nil
	case int:
		i := int64(n)
		return &i, nil
	default:
		return nil, perr(field, "expected an integer or null, got %T", v)
	}
}

func readOptionalString(raw map[string]any, field string) (string, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", perr(field, "expected a string, got %T", v)
	}
	return s, nil
}

func readFacts(raw map[string]any) ([]map[string]any, error) {
	v, ok := raw["fct"]
	if !ok || v == nil {
		return []map[string]any{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, perr("fct", "expected an array, got %T", v)
	}
	facts := make([]map[string]any, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, perr(fmt.Sprintf("fct[%d]", i), "expected an object, got %T", item)
		}
		facts = append(facts, m)
	}
	return facts, nil
}

func readProofs(raw map[string]any, mode Mode) ([]*link.Link, error) {
	v, ok := raw["prf"]
	if !ok || v == nil {
		return []*link.Link{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, perr("prf", "expected an array, got %T", v)
	}

	proofs := make([]*link.Link, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("prf[%d]", i)

		switch mode {
		case ModeCBOR:
			b, ok := item.([]byte)
			if !ok {
				return nil, perr(path, "expected a CID link, got %T", item)
			}
			l, err := link.FromBytes(b)
			if err != nil {
				return nil, perr(path, "%s", err)
			}
			proofs = append(proofs, l)

		case ModeJWT:
			s, ok := item.(string)
			if !ok {
				return nil, perr(path, "expected a CID string, got %T", item)
			}
			l, err := link.Parse(s)
			if err != nil {
				// Not a CID: synthesize an inlined proof (CIDv1 RAW +
				// identity multihash over the embedded token bytes).
				inlined, inlineErr := link.Inline([]byte(s))
				if inlineErr != nil {
					return nil, perr(path, "%s", inlineErr)
				}
				l = inlined
			}
			proofs = append(proofs, l)

		default:
			return nil, perr(path, "unknown schema mode")
		}
	}
	return proofs, nil
}
