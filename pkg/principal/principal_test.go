package principal_test

import (
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/tradeverifyd/dag-ucan/pkg/principal"
)

func TestParseDIDKey(t *testing.T) {
	t.Run("parses a valid Ed25519 did:key", func(t *testing.T) {
		tagged := append([]byte{0xED, 0x01}, make([]byte, 32)...)
		did := "did:key:z" + base58.Encode(tagged)

		p, err := principal.Parse(did)
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if !p.IsKey() {
			t.Error("IsKey() = false, want true")
		}
		code, ok := p.KeyCodec()
		if !ok || code != principal.KeyEd25519 {
			t.Errorf("KeyCodec() = (%#x, %v), want (%#x, true)", code, ok, principal.KeyEd25519)
		}
		if p.DID() != did {
			t.Errorf("DID() = %q, want %q", p.DID(), did)
		}
	})

	t.Run("rejects an unsupported multicodec key tag", func(t *testing.T) {
		tagged := append([]byte{0xFF, 0x7F}, make([]byte, 32)...)
		did := "did:key:z" + base58.Encode(tagged)

		if _, err := principal.Parse(did); err == nil {
			t.Error("expected an error for an unsupported key codec")
		}
	})

	t.Run("rejects malformed base58", func(t *testing.T) {
		if _, err := principal.Parse("did:key:z0OIl"); err == nil {
			t.Error("expected an error for invalid base58btc characters")
		}
	})

	t.Run("requires the \"z\" multibase prefix", func(t *testing.T) {
		if _, err := principal.Parse("did:key:abc123"); err == nil {
			t.Error("expected an error when the \"z\" prefix is missing")
		}
	})

	t.Run("bounds did:key P-256 to its compressed form", func(t *testing.T) {
		compressed := append([]byte{0x80, 0x24}, make([]byte, 33)...)
		okDID := "did:key:z" + base58.Encode(compressed)
		if _, err := principal.Parse(okDID); err != nil {
			t.Errorf("expected compressed P-256 to parse, got error: %v", err)
		}

		uncompressed := append([]byte{0x80, 0x24}, make([]byte, 64)...)
		badDID := "did:key:z" + base58.Encode(uncompressed)
		if _, err := principal.Parse(badDID); err == nil {
			t.Error("expected an error for an oversized (uncompressed) P-256 key")
		}
	})
}

func TestParseOpaqueDID(t *testing.T) {
	t.Run("parses a did:<method>:<id> into a tagged principal", func(t *testing.T) {
		did := "did:web:example.com"
		p, err := principal.Parse(did)
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if p.IsKey() {
			t.Error("IsKey() = true, want false for an opaque did:web")
		}
		if p.DID() != did {
			t.Errorf("DID() = %q, want %q", p.DID(), did)
		}
	})

	t.Run("rejects a string without the did: prefix", func(t *testing.T) {
		if _, err := principal.Parse("not-a-did"); err == nil {
			t.Error("expected an error for a non-did string")
		}
	})
}

func TestFormatFormatBytesFromBytes(t *testing.T) {
	t.Run("Format returns the originally parsed string verbatim", func(t *testing.T) {
		did := "did:web:example.com"
		p, err := principal.Parse(did)
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		out, err := principal.Format(p)
		if err != nil {
			t.Fatalf("Format returned error: %v", err)
		}
		if out != did {
			t.Errorf("Format() = %q, want %q", out, did)
		}
	})

	t.Run("FromBytes then Format round-trips a did:key", func(t *testing.T) {
		tagged := append([]byte{0xED, 0x01}, make([]byte, 32)...)
		p, err := principal.FromBytes(tagged)
		if err != nil {
			t.Fatalf("FromBytes returned error: %v", err)
		}
		did, err := principal.Format(p)
		if err != nil {
			t.Fatalf("Format returned error: %v", err)
		}
		if !strings.HasPrefix(did, "did:key:z") {
			t.Errorf("Format() = %q, want a did:key:z... string", did)
		}

		reparsed, err := principal.Parse(did)
		if err != nil {
			t.Fatalf("re-Parse returned error: %v", err)
		}
		if string(reparsed.Bytes()) != string(tagged) {
			t.Errorf("Bytes() after round-trip = %x, want %x", reparsed.Bytes(), tagged)
		}
	})

	t.Run("FromBytes then Format round-trips an opaque did", func(t *testing.T) {
		orig := "did:web:example.com"
		p1, err := principal.Parse(orig)
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}

		p2, err := principal.FromBytes(p1.Bytes())
		if err != nil {
			t.Fatalf("FromBytes returned error: %v", err)
		}
		did, err := principal.Format(p2)
		if err != nil {
			t.Fatalf("Format returned error: %v", err)
		}
		if did != orig {
			t.Errorf("Format() = %q, want %q", did, orig)
		}
	})

	t.Run("FormatBytes rejects an unsupported codec", func(t *testing.T) {
		if _, err := principal.FormatBytes([]byte{0xFF, 0x7F, 0x01}); err == nil {
			t.Error("expected an error for an unsupported multicodec tag")
		}
	})
}

func TestFrom(t *testing.T) {
	t.Run("dispatches a did: string through Parse", func(t *testing.T) {
		p, err := principal.From("did:web:example.com")
		if err != nil {
			t.Fatalf("From returned error: %v", err)
		}
		if p.DID() != "did:web:example.com" {
			t.Errorf("DID() = %q", p.DID())
		}
	})

	t.Run("dispatches raw tagged bytes through FromBytes", func(t *testing.T) {
		tagged := append([]byte{0xED, 0x01}, make([]byte, 32)...)
		p, err := principal.From(tagged)
		if err != nil {
			t.Fatalf("From returned error: %v", err)
		}
		if !p.IsKey() {
			t.Error("IsKey() = false, want true")
		}
	})

	t.Run("passes an existing *Principal through unchanged", func(t *testing.T) {
		p1, err := principal.Parse("did:web:example.com")
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		p2, err := principal.From(p1)
		if err != nil {
			t.Fatalf("From returned error: %v", err)
		}
		if p1 != p2 {
			t.Error("From(*Principal) should return the same pointer, not re-parse")
		}
	})

	t.Run("dispatches a didAccessor through its DID() method", func(t *testing.T) {
		p, err := principal.From(didAccessorStub{did: "did:web:example.com"})
		if err != nil {
			t.Fatalf("From returned error: %v", err)
		}
		if p.DID() != "did:web:example.com" {
			t.Errorf("DID() = %q", p.DID())
		}
	})

	t.Run("rejects an unsupported source type", func(t *testing.T) {
		if _, err := principal.From(42); err == nil {
			t.Error("expected an error for an unsupported principal source")
		}
	})
}

type didAccessorStub struct{ did string }

func (d didAccessorStub) DID() string { return d.did }
