package link_test

import (
	"testing"

	mh "github.com/multiformats/go-multihash"

	"github.com/tradeverifyd/dag-ucan/pkg/link"
)

func TestSum(t *testing.T) {
	t.Run("defaults to sha2-256 when alg is 0", func(t *testing.T) {
		data := []byte("hello ucan")
		a, err := link.Sum(link.CodecCBOR, data, 0)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}
		b, err := link.Sum(link.CodecCBOR, data, mh.SHA2_256)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}
		if !link.Equal(a, b) {
			t.Error("Sum(alg=0) should match Sum(alg=SHA2_256) exactly")
		}
	})

	t.Run("selects the DAG-CBOR codec", func(t *testing.T) {
		l, err := link.Sum(link.CodecCBOR, []byte("data"), 0)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}
		if l.Codec() != link.CodecCBOR {
			t.Errorf("Codec() = %#x, want %#x", l.Codec(), link.CodecCBOR)
		}
	})

	t.Run("selects the raw codec", func(t *testing.T) {
		l, err := link.Sum(link.CodecRaw, []byte("data"), 0)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}
		if l.Codec() != link.CodecRaw {
			t.Errorf("Codec() = %#x, want %#x", l.Codec(), link.CodecRaw)
		}
	})

	t.Run("is deterministic for identical inputs", func(t *testing.T) {
		data := []byte("same bytes every time")
		a, err := link.Sum(link.CodecCBOR, data, 0)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}
		b, err := link.Sum(link.CodecCBOR, data, 0)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}
		if a.String() != b.String() {
			t.Errorf("Sum is not deterministic: %q != %q", a.String(), b.String())
		}
	})

	t.Run("differs by codec for identical data", func(t *testing.T) {
		data := []byte("same bytes")
		a, err := link.Sum(link.CodecCBOR, data, 0)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}
		b, err := link.Sum(link.CodecRaw, data, 0)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}
		if link.Equal(a, b) {
			t.Error("links with different codecs over the same data should not be Equal")
		}
	})

	t.Run("rejects an unsupported hash algorithm", func(t *testing.T) {
		if _, err := link.Sum(link.CodecCBOR, []byte("data"), 0x9999); err == nil {
			t.Error("expected an error for an unsupported hash algorithm")
		}
	})
}

func TestInline(t *testing.T) {
	t.Run("wraps data as a raw link with the identity multihash", func(t *testing.T) {
		data := []byte("embed me verbatim")
		l, err := link.Inline(data)
		if err != nil {
			t.Fatalf("Inline returned error: %v", err)
		}
		if l.Codec() != link.CodecRaw {
			t.Errorf("Codec() = %#x, want CodecRaw", l.Codec())
		}
		if !l.IsIdentity() {
			t.Error("IsIdentity() = false, want true for an inlined link")
		}
		digest, err := l.Digest()
		if err != nil {
			t.Fatalf("Digest returned error: %v", err)
		}
		if string(digest) != string(data) {
			t.Errorf("Digest() = %q, want the original bytes %q", digest, data)
		}
	})

	t.Run("a non-inlined link is not reported as identity", func(t *testing.T) {
		l, err := link.Sum(link.CodecCBOR, []byte("hashed, not inlined"), 0)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}
		if l.IsIdentity() {
			t.Error("IsIdentity() = true, want false for a sha2-256 link")
		}
	})
}

func TestParseFromBytesRoundTrip(t *testing.T) {
	t.Run("String then Parse round-trips", func(t *testing.T) {
		l, err := link.Sum(link.CodecCBOR, []byte("round trip me"), 0)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}

		parsed, err := link.Parse(l.String())
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if !link.Equal(l, parsed) {
			t.Errorf("Parse(String()) = %s, want %s", parsed, l)
		}
	})

	t.Run("Bytes then FromBytes round-trips", func(t *testing.T) {
		l, err := link.Sum(link.CodecRaw, []byte("byte form"), 0)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}

		parsed, err := link.FromBytes(l.Bytes())
		if err != nil {
			t.Fatalf("FromBytes returned error: %v", err)
		}
		if !link.Equal(l, parsed) {
			t.Errorf("FromBytes(Bytes()) = %s, want %s", parsed, l)
		}
	})

	t.Run("rejects an unsupported CID version", func(t *testing.T) {
		l, err := link.Sum(link.CodecCBOR, []byte("data"), 0)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}
		raw := l.Bytes()
		raw[0] = 0x00 // CIDv0 marker, unsupported here
		if _, err := link.FromBytes(raw); err == nil {
			t.Error("expected an error for an unsupported CID version")
		}
	})

	t.Run("rejects malformed multibase text", func(t *testing.T) {
		if _, err := link.Parse("not a valid multibase string!!"); err == nil {
			t.Error("expected an error for invalid multibase text")
		}
	})
}

func TestEqual(t *testing.T) {
	t.Run("nil links are equal to each other only", func(t *testing.T) {
		l, err := link.Sum(link.CodecCBOR, []byte("data"), 0)
		if err != nil {
			t.Fatalf("Sum returned error: %v", err)
		}
		if !link.Equal(nil, nil) {
			t.Error("Equal(nil, nil) = false, want true")
		}
		if link.Equal(nil, l) || link.Equal(l, nil) {
			t.Error("Equal(nil, non-nil) = true, want false")
		}
	})
}
