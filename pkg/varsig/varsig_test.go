package varsig_test

import (
	"testing"

	"github.com/tradeverifyd/dag-ucan/pkg/varsig"
)

func TestCreate(t *testing.T) {
	t.Run("builds a signature for every standard code", func(t *testing.T) {
		for _, code := range []int64{
			varsig.ES256K, varsig.BLS12381G1, varsig.BLS12381G2, varsig.EdDSA,
			varsig.EIP191, varsig.ES256, varsig.ES384, varsig.ES512, varsig.RS256,
		} {
			sig, err := varsig.Create(code, []byte{0x01, 0x02, 0x03})
			if err != nil {
				t.Fatalf("Create(%#x) returned error: %v", code, err)
			}
			if sig.Code() != code {
				t.Errorf("Code() = %#x, want %#x", sig.Code(), code)
			}
			if sig.Algorithm() == "" {
				t.Errorf("Algorithm() is empty for code %#x", code)
			}
		}
	})

	t.Run("rejects an unrecognized code", func(t *testing.T) {
		_, err := varsig.Create(0x999999, []byte{0x01})
		if err == nil {
			t.Fatal("expected an error for an unsupported code")
		}
	})
}

func TestCreateNamed(t *testing.T) {
	t.Run("resolves a standard algorithm name to its code", func(t *testing.T) {
		sig, err := varsig.CreateNamed("EdDSA", []byte{0xAA})
		if err != nil {
			t.Fatalf("CreateNamed returned error: %v", err)
		}
		if sig.Code() != varsig.EdDSA {
			t.Errorf("Code() = %#x, want EdDSA (%#x)", sig.Code(), varsig.EdDSA)
		}
		if sig.Algorithm() != "EdDSA" {
			t.Errorf("Algorithm() = %q, want %q", sig.Algorithm(), "EdDSA")
		}
	})

	t.Run("falls back to NonStandard for an unrecognized name", func(t *testing.T) {
		sig, err := varsig.CreateNamed("MadeUpAlg", []byte{0xBB})
		if err != nil {
			t.Fatalf("CreateNamed returned error: %v", err)
		}
		if sig.Code() != varsig.NonStandard {
			t.Errorf("Code() = %#x, want NonStandard (%#x)", sig.Code(), varsig.NonStandard)
		}
		if sig.Algorithm() != "MadeUpAlg" {
			t.Errorf("Algorithm() = %q, want %q", sig.Algorithm(), "MadeUpAlg")
		}
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Run("round-trips a standard code", func(t *testing.T) {
		raw := []byte{0xDE, 0xAD, 0xBE, 0xEF}
		sig, err := varsig.Create(varsig.ES256, raw)
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		decoded, err := varsig.Decode(varsig.Encode(sig))
		if err != nil {
			t.Fatalf("Decode returned error: %v", err)
		}
		if decoded.Code() != sig.Code() {
			t.Errorf("Code() = %#x, want %#x", decoded.Code(), sig.Code())
		}
		if decoded.Algorithm() != sig.Algorithm() {
			t.Errorf("Algorithm() = %q, want %q", decoded.Algorithm(), sig.Algorithm())
		}
		if string(decoded.Raw()) != string(raw) {
			t.Errorf("Raw() = %x, want %x", decoded.Raw(), raw)
		}
		if decoded.Size() != len(raw) {
			t.Errorf("Size() = %d, want %d", decoded.Size(), len(raw))
		}
	})

	t.Run("round-trips a NonStandard code, carrying the algorithm name", func(t *testing.T) {
		sig, err := varsig.CreateNamed("Exotic", []byte{0x01, 0x02})
		if err != nil {
			t.Fatalf("CreateNamed returned error: %v", err)
		}

		decoded, err := varsig.Decode(varsig.Encode(sig))
		if err != nil {
			t.Fatalf("Decode returned error: %v", err)
		}
		if decoded.Code() != varsig.NonStandard {
			t.Errorf("Code() = %#x, want NonStandard", decoded.Code())
		}
		if decoded.Algorithm() != "Exotic" {
			t.Errorf("Algorithm() = %q, want %q", decoded.Algorithm(), "Exotic")
		}
	})

	t.Run("rejects a truncated signature", func(t *testing.T) {
		sig, err := varsig.Create(varsig.ES256, []byte{0x01, 0x02, 0x03, 0x04})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		encoded := varsig.Encode(sig)
		truncated := encoded[:len(encoded)-2]

		if _, err := varsig.Decode(truncated); err == nil {
			t.Error("expected an error decoding a truncated signature")
		}
	})
}

func TestFormatParse(t *testing.T) {
	t.Run("round-trips through base64url", func(t *testing.T) {
		sig, err := varsig.Create(varsig.EdDSA, []byte{0x01, 0x02, 0x03, 0x04, 0x05})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		str := varsig.Format(sig)
		parsed, err := varsig.Parse(str)
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if parsed.Code() != sig.Code() {
			t.Errorf("Code() = %#x, want %#x", parsed.Code(), sig.Code())
		}
		if string(parsed.Raw()) != string(sig.Raw()) {
			t.Errorf("Raw() = %x, want %x", parsed.Raw(), sig.Raw())
		}
	})

	t.Run("rejects invalid base64url", func(t *testing.T) {
		if _, err := varsig.Parse("not valid base64url!!"); err == nil {
			t.Error("expected an error for invalid base64url")
		}
	})
}

func TestVerify(t *testing.T) {
	t.Run("returns nil when the verifier accepts", func(t *testing.T) {
		sig, _ := varsig.Create(varsig.EdDSA, []byte{0x01})
		v := acceptingVerifier{}
		if err := varsig.Verify(sig, v, []byte("payload")); err != nil {
			t.Errorf("Verify returned error: %v", err)
		}
	})

	t.Run("returns an error when the verifier rejects", func(t *testing.T) {
		sig, _ := varsig.Create(varsig.EdDSA, []byte{0x01})
		v := rejectingVerifier{}
		if err := varsig.Verify(sig, v, []byte("payload")); err == nil {
			t.Error("expected an error for a rejected signature")
		}
	})
}

func TestToJSONFromJSON(t *testing.T) {
	t.Run("round-trips through the DAG-JSON bytes form", func(t *testing.T) {
		sig, err := varsig.Create(varsig.ES256, []byte{0xCA, 0xFE})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		j := varsig.ToJSON(sig)
		decoded, err := varsig.FromJSON(j)
		if err != nil {
			t.Fatalf("FromJSON returned error: %v", err)
		}
		if decoded.Code() != sig.Code() {
			t.Errorf("Code() = %#x, want %#x", decoded.Code(), sig.Code())
		}
		if string(decoded.Raw()) != string(sig.Raw()) {
			t.Errorf("Raw() = %x, want %x", decoded.Raw(), sig.Raw())
		}
	})
}

type acceptingVerifier struct{}

func (acceptingVerifier) Verify(payload []byte, s *varsig.Signature) (bool, error) {
	return true, nil
}

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(payload []byte, s *varsig.Signature) (bool, error) {
	return false, nil
}
