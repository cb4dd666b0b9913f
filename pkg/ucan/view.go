package ucan

import (
	"math"

	"github.com/tradeverifyd/dag-ucan/pkg/capability"
	"github.com/tradeverifyd/dag-ucan/pkg/link"
	"github.com/tradeverifyd/dag-ucan/pkg/principal"
	"github.com/tradeverifyd/dag-ucan/pkg/ucanmodel"
	"github.com/tradeverifyd/dag-ucan/pkg/varsig"
)

// View is a read-only projection over a Model (spec §4.7), carrying
// both the compact and long accessor names. It never mutates the
// Model it wraps; Models are immutable from construction.
type View struct {
	model *ucanmodel.Model
}

func wrap(m *ucanmodel.Model) *View { return &View{model: m} }

// Model returns the underlying immutable Model.
func (v *View) Model() *ucanmodel.Model { return v.model }

// IsJWTView reports whether this view retains the original JWT bytes
// (as opposed to having been promoted to the canonical CBOR-view).
func (v *View) IsJWTView() bool { return v.model.IsJWTRetained() }

func (v *View) Version() string { return v.model.V }

func (v *View) Iss() *principal.Principal { return v.model.Iss }
func (v *View) Issuer() *principal.Principal { return v.model.Iss }

func (v *View) Aud() *principal.Principal  { return v.model.Aud }
func (v *View) Audience() *principal.Principal { return v.model.Aud }

func (v *View) Att() []capability.Capability          { return v.model.Att }
func (v *View) Capabilities() []capability.Capability { return v.model.Att }

// Exp returns the raw nilable expiry.
func (v *View) Exp() *int64 { return v.model.Exp }

// Expiration returns math.MaxInt64 in place of +Infinity when exp is
// null, per spec §4.7.
func (v *View) Expiration() int64 {
	if v.model.Exp == nil {
		return math.MaxInt64
	}
	return *v.model.Exp
}

func (v *View) Nbf() *int64       { return v.model.Nbf }
func (v *View) NotBefore() *int64 { return v.model.Nbf }

func (v *View) Nnc() string   { return v.model.Nnc }
func (v *View) Nonce() string { return v.model.Nnc }

func (v *View) Fct() []map[string]any   { return v.model.Fct }
func (v *View) Facts() []map[string]any { return v.model.Fct }

func (v *View) Prf() []*link.Link   { return v.model.Prf }
func (v *View) Proofs() []*link.Link { return v.model.Prf }

func (v *View) S() *varsig.Signature         { return v.model.S }
func (v *View) Signature() *varsig.Signature { return v.model.S }

// ToJSON renders the view's DAG-JSON projection (spec §4.7): iss/aud/
// v/s/exp are always present; att/prf pass through as their own
// DAG-JSON shapes; empty fct and falsy nnc/nbf are omitted.
func (v *View) ToJSON() (map[string]any, error) {
	issDID, err := principal.Format(v.model.Iss)
	if err != nil {
		return nil, err
	}
	audDID, err := principal.Format(v.model.Aud)
	if err != nil {
		return nil, err
	}

	att := make([]any, len(v.model.Att))
	for i, c := range v.model.Att {
		att[i] = capabilityJSON(c)
	}
	prf := make([]any, len(v.model.Prf))
	for i, l := range v.model.Prf {
		prf[i] = linkJSON{Slash: l.String()}
	}

	out := map[string]any{
		"v":   v.model.V,
		"iss": issDID,
		"aud": audDID,
		"att": att,
		"exp": v.model.Exp,
		"prf": prf,
		"s":   varsig.ToJSON(v.model.S),
	}
	if len(v.model.Fct) > 0 {
		out["fct"] = v.model.Fct
	}
	if v.model.Nnc != "" {
		out["nnc"] = v.model.Nnc
	}
	if v.model.Nbf != nil && *v.model.Nbf != 0 {
		out["nbf"] = *v.model.Nbf
	}
	return out, nil
}

// linkJSON is the DAG-JSON link form, `{"/": "<cid-text>"}`.
type linkJSON struct {
	Slash string `json:"/"`
}

func capabilityJSON(c capability.Capability) map[string]any {
	m := map[string]any{"with": c.With, "can": c.Can}
	if c.Nb != nil {
		m["nb"] = c.Nb
	}
	for k, val := range c.Extra {
		m[k] = val
	}
	return m
}
