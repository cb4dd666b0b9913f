// Package cborcodec encodes and decodes the canonical DAG-CBOR
// representation of a UCAN (spec.md §4.5, §6.2).
package cborcodec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/tradeverifyd/dag-ucan/pkg/capability"
	"github.com/tradeverifyd/dag-ucan/pkg/link"
	"github.com/tradeverifyd/dag-ucan/pkg/schema"
	"github.com/tradeverifyd/dag-ucan/pkg/ucanmodel"
	"github.com/tradeverifyd/dag-ucan/pkg/varsig"
)

var encMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// decMode decodes every nested map as map[string]any (rather than
// fxamacker's default map[interface{}]interface{}) so the CBOR tree
// feeds straight into schema.Validate without a conversion pass.
var decMode = func() cbor.DecMode {
	opts := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any{})}
	dm, err := opts.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// Encode serializes a Model as canonical DAG-CBOR: field names `v, iss,
// aud, att, exp, prf, s` plus `fct, nnc, nbf` when populated. Map keys
// are emitted in CanonicalEncOptions' order (RFC 7049 §3.9 canonical:
// shorter keys first, then bytewise) regardless of insertion order below.
func Encode(m *ucanmodel.Model) ([]byte, error) {
	obj := map[string]any{
		"v":   m.V,
		"iss": m.Iss.Bytes(),
		"aud": m.Aud.Bytes(),
		"att": capabilityMaps(m.Att),
		"exp": m.Exp,
		"prf": proofBytes(m.Prf),
		"s":   varsig.Encode(m.S),
	}
	if len(m.Fct) > 0 {
		obj["fct"] = m.Fct
	}
	if m.Nnc != "" {
		obj["nnc"] = m.Nnc
	}
	if m.Nbf != nil && *m.Nbf != 0 {
		obj["nbf"] = *m.Nbf
	}
	return encMode.Marshal(obj)
}

func capabilityMaps(caps []capability.Capability) []map[string]any {
	out := make([]map[string]any, len(caps))
	for i, c := range caps {
		m := map[string]any{"with": c.With, "can": c.Can}
		if c.Nb != nil {
			m["nb"] = c.Nb
		}
		for k, v := range c.Extra {
			m[k] = v
		}
		out[i] = m
	}
	return out
}

func proofBytes(links []*link.Link) [][]byte {
	out := make([][]byte, len(links))
	for i, l := range links {
		out[i] = l.Bytes()
	}
	return out
}

// Decode parses canonical DAG-CBOR bytes into a Model, running the
// Schema's CBOR-mode validator on the decoded field map.
func Decode(data []byte) (*ucanmodel.Model, error) {
	var raw map[string]any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed DAG-CBOR: %s", schema.ErrParse, err)
	}

	v, ok := raw["v"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: v: expected a string, got %T", schema.ErrParse, raw["v"])
	}

	sigBytes, ok := raw["s"].([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: s: expected a byte string, got %T", schema.ErrParse, raw["s"])
	}
	sig, err := varsig.Decode(sigBytes)
	if err != nil {
		return nil, err
	}

	payload, err := schema.Validate(raw, schema.ModeCBOR)
	if err != nil {
		return nil, err
	}

	return &ucanmodel.Model{
		V:   v,
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
