package schema_test

import (
	"testing"

	"github.com/tradeverifyd/dag-ucan/pkg/link"
	"github.com/tradeverifyd/dag-ucan/pkg/schema"
)

func validJWTRaw() map[string]any {
	return map[string]any{
		"iss": "did:web:issuer.example",
		"aud": "did:web:audience.example",
		"att": []any{
			map[string]any{"with": "https://example.com/blog/", "can": "crud/update"},
		},
		"exp": float64(1234567890),
	}
}

func TestValidateJWTMode(t *testing.T) {
	t.Run("validates a minimal well-formed payload", func(t *testing.T) {
		p, err := schema.Validate(validJWTRaw(), schema.ModeJWT)
		if err != nil {
			t.Fatalf("Validate returned error: %v", err)
		}
		if p.Iss.DID() != "did:web:issuer.example" {
			t.Errorf("Iss.DID() = %q", p.Iss.DID())
		}
		if p.Aud.DID() != "did:web:audience.example" {
			t.Errorf("Aud.DID() = %q", p.Aud.DID())
		}
		if len(p.Att) != 1 || p.Att[0].Can != "crud/update" {
			t.Errorf("Att = %+v", p.Att)
		}
		if p.Exp == nil || *p.Exp != 1234567890 {
			t.Errorf("Exp = %v, want 1234567890", p.Exp)
		}
	})

	t.Run("fails on a missing required field", func(t *testing.T) {
		for _, field := range []string{"iss", "aud", "att"} {
			raw := validJWTRaw()
			delete(raw, field)
			if _, err := schema.Validate(raw, schema.ModeJWT); err == nil {
				t.Errorf("expected an error for missing field %q", field)
			}
		}
	})

	t.Run("fails when att is empty", func(t *testing.T) {
		raw := validJWTRaw()
		raw["att"] = []any{}
		if _, err := schema.Validate(raw, schema.ModeJWT); err == nil {
			t.Error("expected an error for an empty att")
		}
	})

	t.Run("fails when iss is not a string", func(t *testing.T) {
		raw := validJWTRaw()
		raw["iss"] = 42
		if _, err := schema.Validate(raw, schema.ModeJWT); err == nil {
			t.Error("expected an error when iss is not a string")
		}
	})

	t.Run("a prf string that is not a CID is inlined, not rejected", func(t *testing.T) {
		raw := validJWTRaw()
		raw["prf"] = []any{"not-a-cid-at-all"}
		p, err := schema.Validate(raw, schema.ModeJWT)
		if err != nil {
			t.Fatalf("Validate returned error: %v", err)
		}
		if len(p.Prf) != 1 {
			t.Fatalf("len(Prf) = %d, want 1", len(p.Prf))
		}
		if !p.Prf[0].IsIdentity() {
			t.Error("expected a non-CID prf entry to be inlined with the identity multihash")
		}
	})

	t.Run("a prf string that is already a CID round-trips as that link", func(t *testing.T) {
		l, err := link.Sum(link.CodecRaw, []byte("some proof bytes"), 0)
		if err != nil {
			t.Fatalf("link.Sum returned error: %v", err)
		}
		raw := validJWTRaw()
		raw["prf"] = []any{l.String()}

		p, err := schema.Validate(raw, schema.ModeJWT)
		if err != nil {
			t.Fatalf("Validate returned error: %v", err)
		}
		if !link.Equal(p.Prf[0], l) {
			t.Errorf("Prf[0] = %s, want %s", p.Prf[0], l)
		}
	})
}

func TestValidateCBORMode(t *testing.T) {
	rawIss := append([]byte{0xED, 0x01}, make([]byte, 32)...)
	rawAud := append([]byte{0xED, 0x01}, make([]byte, 32)...)

	cborRaw := func() map[string]any {
		return map[string]any{
			"iss": rawIss,
			"aud": rawAud,
			"att": []any{
				map[string]any{"with": "https://example.com/blog/", "can": "crud/update"},
			},
			"exp": int64(1234567890),
		}
	}

	t.Run("validates tagged principal bytes instead of did: strings", func(t *testing.T) {
		p, err := schema.Validate(cborRaw(), schema.ModeCBOR)
		if err != nil {
			t.Fatalf("Validate returned error: %v", err)
		}
		if !p.Iss.IsKey() {
			t.Error("Iss should decode as a did:key principal")
		}
	})

	t.Run("fails when iss is a did: string instead of tagged bytes", func(t *testing.T) {
		raw := cborRaw()
		raw["iss"] = "did:key:zSomething"
		if _, err := schema.Validate(raw, schema.ModeCBOR); err == nil {
			t.Error("expected an error for a string iss in CBOR mode")
		}
	})

	t.Run("a prf entry is already-decoded link bytes, not a string", func(t *testing.T) {
		l, err := link.Sum(link.CodecRaw, []byte("cbor-mode proof"), 0)
		if err != nil {
			t.Fatalf("link.Sum returned error: %v", err)
		}
		raw := cborRaw()
		raw["prf"] = []any{l.Bytes()}

		p, err := schema.Validate(raw, schema.ModeCBOR)
		if err != nil {
			t.Fatalf("Validate returned error: %v", err)
		}
		if !link.Equal(p.Prf[0], l) {
			t.Errorf("Prf[0] = %s, want %s", p.Prf[0], l)
		}
	})

	t.Run("fails when a prf entry is a string rather than link bytes", func(t *testing.T) {
		raw := cborRaw()
		raw["prf"] = []any{"not link bytes"}
		if _, err := schema.Validate(raw, schema.ModeCBOR); err == nil {
			t.Error("expected an error for a string prf entry in CBOR mode")
		}
	})
}

func TestExpNullAndAbsentEquivalence(t *testing.T) {
	t.Run("an absent exp is treated the same as a null exp", func(t *testing.T) {
		absent := validJWTRaw()
		delete(absent, "exp")

		pAbsent, err := schema.Validate(absent, schema.ModeJWT)
		if err != nil {
			t.Fatalf("Validate (absent exp) returned error: %v", err)
		}

		null := validJWTRaw()
		null["exp"] = nil

		pNull, err := schema.Validate(null, schema.ModeJWT)
		if err != nil {
			t.Fatalf("Validate (null exp) returned error: %v", err)
		}

		if pAbsent.Exp != nil {
			t.Errorf("Exp (absent) = %v, want nil", pAbsent.Exp)
		}
		if pNull.Exp != nil {
			t.Errorf("Exp (null) = %v, want nil", pNull.Exp)
		}
	})

	t.Run("the same equivalence holds for nbf", func(t *testing.T) {
		absent := validJWTRaw()
		null := validJWTRaw()
		null["nbf"] = nil

		pAbsent, err := schema.Validate(absent, schema.ModeJWT)
		if err != nil {
			t.Fatalf("Validate (absent nbf) returned error: %v", err)
		}
		pNull, err := schema.Validate(null, schema.ModeJWT)
		if err != nil {
			t.Fatalf("Validate (null nbf) returned error: %v", err)
		}
		if pAbsent.Nbf != nil || pNull.Nbf != nil {
			t.Errorf("Nbf = (%v, %v), want (nil, nil)", pAbsent.Nbf, pNull.Nbf)
		}
	})

	t.Run("rejects a non-integer, non-null exp", func(t *testing.T) {
		raw := validJWTRaw()
		raw["exp"] = "not a number"
		if _, err := schema.Validate(raw, schema.ModeJWT); err == nil {
			t.Error("expected an error for a string exp")
		}
	})

	t.Run("rejects a non-integral float exp", func(t *testing.T) {
		raw := validJWTRaw()
		raw["exp"] = 1.5
		if _, err := schema.Validate(raw, schema.ModeJWT); err == nil {
			t.Error("expected an error for a fractional exp")
		}
	})
}

func TestFactsAndNonce(t *testing.T) {
	t.Run("fct defaults to an empty slice, not nil", func(t *testing.T) {
		p, err := schema.Validate(validJWTRaw(), schema.ModeJWT)
		if err != nil {
			t.Fatalf("Validate returned error: %v", err)
		}
		if p.Fct == nil {
			t.Error("Fct should default to an empty slice, not nil")
		}
		if len(p.Fct) != 0 {
			t.Errorf("len(Fct) = %d, want 0", len(p.Fct))
		}
	})

	t.Run("nnc defaults to empty string when absent", func(t *testing.T) {
		p, err := schema.Validate(validJWTRaw(), schema.ModeJWT)
		if err != nil {
			t.Fatalf("Validate returned error: %v", err)
		}
		if p.Nnc != "" {
			t.Errorf("Nnc = %q, want empty", p.Nnc)
		}
	})

	t.Run("fct entries must be objects", func(t *testing.T) {
		raw := validJWTRaw()
		raw["fct"] = []any{"not an object"}
		if _, err := schema.Validate(raw, schema.ModeJWT); err == nil {
			t.Error("expected an error for a non-object fct entry")
		}
	})
}
