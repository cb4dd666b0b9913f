// Package jwtcodec parses and formats the compatibility JWT
// representation of a UCAN (spec.md §4.4): three base64url segments —
// header, payload, raw signature — joined by ".".
package jwtcodec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tradeverifyd/dag-ucan/pkg/capability"
	"github.com/tradeverifyd/dag-ucan/pkg/principal"
	"github.com/tradeverifyd/dag-ucan/pkg/schema"
	"github.com/tradeverifyd/dag-ucan/pkg/ucanmodel"
	"github.com/tradeverifyd/dag-ucan/pkg/varsig"
)

// ErrMalformed is schema.ErrParse under a local name, wrapped by the
// JWT-shape failures detected here (segment count, base64, header
// JSON, header field checks).
var ErrMalformed = schema.ErrParse

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

var b64 = base64.URLEncoding.WithPadding(base64.NoPadding)

// header is the JWT header's exact three fields, in the order the
// canonical formatter must emit them (spec §4.4 Format).
type header struct {
	Alg string `json:"alg"`
	Ucv string `json:"ucv"`
	Typ string `json:"typ"`
}

// Parse decodes a compact JWT string into a Model. The caller is
// responsible for retaining the original string when format(Parse(s))
// != s (the dual-representation decision lives in pkg/ucan).
func Parse(jwt string) (*ucanmodel.Model, error) {
	segments := strings.Split(jwt, ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("%w: expected 3 dot-separated segments, got %d", ErrMalformed, len(segments))
	}

	headerBytes, err := b64.DecodeString(segments[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header: invalid base64url: %s", ErrMalformed, err)
	}
	payloadBytes, err := b64.DecodeString(segments[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: invalid base64url: %s", ErrMalformed, err)
	}
	sigBytes, err := b64.DecodeString(segments[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: invalid base64url: %s", ErrMalformed, err)
	}

	var h header
	if err := json.Unmarshal(headerBytes, &h); err != nil {
		return nil, fmt.Errorf("%w: header: invalid JSON: %s", ErrMalformed, err)
	}
	if h.Typ != "JWT" {
		return nil, fmt.Errorf("%w: header: typ must be \"JWT\"", ErrMalformed)
	}
	if !versionPattern.MatchString(h.Ucv) {
		return nil, fmt.Errorf("%w: header: ucv %q does not match the version pattern", ErrMalformed, h.Ucv)
	}
	if h.Alg == "" {
		return nil, fmt.Errorf("%w: header: alg is required", ErrMalformed)
	}

	var raw map[string]any
	dec := json.NewDecoder(strings.NewReader(string(payloadBytes)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: payload: invalid JSON: %s", ErrMalformed, err)
	}
	numbersToFloat(raw)

	payload, err := schema.Validate(raw, schema.ModeJWT)
	if err != nil {
		return nil, err
	}

	sig, err := varsig.CreateNamed(h.Alg, sigBytes)
	if err != nil {
		return nil, err
	}

	return &ucanmodel.Model{
		V:   h.Ucv,
		Iss: payload.Iss,
		Aud: payload.Aud,
		Att: payload.Att,
		Exp: payload.Exp,
		Nbf: payload.Nbf,
		Nnc: payload.Nnc,
		Fct: payload.Fct,
		Prf: payload.Prf,
		S:   sig,
	}, nil
}

// numbersToFloat normalizes json.Number leaves (produced by
// dec.UseNumber) to float64, the shape schema.Validate expects.
// Integers beyond 2^53 lose precision in this conversion.
func numbersToFloat(v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if n, ok := val.(json.Number); ok {
				f, _ := n.Float64()
				t[k] = f
			} else {
				numbersToFloat(val)
			}
		}
	case []any:
		for i, val := range t {
			if n, ok := val.(json.Number); ok {
				f, _ := n.Float64()
				t[i] = f
			} else {
				numbersToFloat(val)
			}
		}
	}
}

// SignedSegments splits a compact JWT into its header.payload prefix
// (the exact bytes that were signed) and its raw signature. Unlike
// Parse, it does no schema validation — it is used to recover the
// original signing payload of an already-parsed, retained JWT, where
// re-deriving it from the Model via FormatSignPayload would silently
// canonicalize away whatever made the token non-canonical in the first
// place (spec §4.4, §4.6.2).
func SignedSegments(jwt []byte) (signPayload, sig []byte, err error) {
	s := string(jwt)
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return nil, nil, fmt.Errorf("%w: expected 3 dot-separated segments", ErrMalformed)
	}
	sigBytes, err := b64.DecodeString(s[i+1:])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: signature: invalid base64url: %s", ErrMalformed, err)
	}
	return []byte(s[:i]), sigBytes, nil
}

// Format re-emits a Model as a canonical compact JWT string, using the
// model's own attached signature bytes.
func Format(m *ucanmodel.Model) (string, error) {
	headerB64, payloadB64, err := formatSegments(m)
	if err != nil {
		return "", err
	}
	sigB64 := b64.EncodeToString(m.S.Raw())
	return headerB64 + "." + payloadB64 + "." + sigB64, nil
}

// FormatSignPayload returns base64url(header) + "." + base64url(payload)
// as the exact bytes a Signer must sign over (spec §4.4 "Signing
// payload"). alg is the VarSig algorithm name that will end up in the
// header once the model carries its signature.
func FormatSignPayload(m *ucanmodel.Model, alg string) ([]byte, error) {
	h := header{Alg: alg, Ucv: m.V, Typ: "JWT"}
	headerBytes, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	payloadBytes, err := canonicalPayloadJSON(m)
	if err != nil {
		return nil, err
	}
	out := b64.EncodeToString(headerBytes) + "." + b64.EncodeToString(payloadBytes)
	return []byte(out), nil
}

func formatSegments(m *ucanmodel.Model) (headerB64, payloadB64 string, err error) {
	h := header{Alg: m.S.Algorithm(), Ucv: m.V, Typ: "JWT"}
	headerBytes, err := json.Marshal(h)
	if err != nil {
		return "", "", err
	}
	payloadBytes, err := canonicalPayloadJSON(m)
	if err != nil {
		return "", "", err
	}
	return b64.EncodeToString(headerBytes), b64.EncodeToString(payloadBytes), nil
}

// canonicalPayloadJSON builds the canonical JWT payload per §6.1: the
// exact key order, with exp/prf always present (exp may be null) and
// fct/nnc/nbf appended only when non-empty/truthy.
func canonicalPayloadJSON(m *ucanmodel.Model) ([]byte, error) {
	issDID, err := principal.Format(m.Iss)
	if err != nil {
		return nil, err
	}
	audDID, err := principal.Format(m.Aud)
	if err != nil {
		return nil, err
	}

	att := make([]any, len(m.Att))
	for i, c := range m.Att {
		att[i] = capabilityObject(c)
	}

	prf := make([]string, len(m.Prf))
	for i, l := range m.Prf {
		prf[i] = l.String()
	}

	obj := orderedObject{
		{"iss", issDID},
		{"aud", audDID},
		{"att", att},
		{"exp", m.Exp},
		{"prf", prf},
	}

	if len(m.Fct) > 0 {
		obj = append(obj, kv{"fct", m.Fct})
	}
	if m.Nnc != "" {
		obj = append(obj, kv{"nnc", m.Nnc})
	}
	if m.Nbf != nil && *m.Nbf != 0 {
		obj = append(obj, kv{"nbf", *m.Nbf})
	}

	return json.Marshal(obj)
}

// capabilityObject renders a capability as an orderedObject: with, can,
// then nb if present, then any extra keys in sorted order so the
// canonical encoding stays deterministic.
func capabilityObject(c capability.Capability) orderedObject {
	obj := orderedObject{
		{"with", c.With},
		{"can", c.Can},
	}
	if c.Nb != nil {
		obj = append(obj, kv{"nb", c.Nb})
	}

	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		obj = append(obj, kv{k, c.Extra[k]})
	}
	return obj
}
