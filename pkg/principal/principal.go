// Package principal parses and formats UCAN principals: DIDs identified
// either by a multicodec-tagged public key (did:key:...) or by an
// opaque did:<method>:... identifier.
package principal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/multiformats/go-varint"
)

// Key-algorithm multicodec codes used in did:key (spec §3, §6.3).
const (
	KeyEd25519     = 0xED
	KeyRSA         = 0x1205
	KeyP256        = 0x1200
	KeyP384        = 0x1201
	KeyP521        = 0x1202
	KeySECP256K1   = 0xE7
	KeyBLS12381G1  = 0xEA
	KeyBLS12381G2  = 0xEB
	didCoreMulticodec = 0x0D1D

	// p256MaxLen bounds did:key P-256 to its compressed form: a
	// 2-byte varint tag (0x1200) plus a 33-byte compressed point.
	p256MaxLen = 35
)

var keyCodecs = map[int64]string{
	KeyEd25519:    "Ed25519",
	KeyRSA:        "RSA",
	KeyP256:       "P-256",
	KeyP384:       "P-384",
	KeyP521:       "P-521",
	KeySECP256K1:  "SECP256K1",
	KeyBLS12381G1: "BLS12381G1",
	KeyBLS12381G2: "BLS12381G2",
}

// ErrUnsupportedCodec is returned for a did:key with an unrecognized or
// malformed multicodec key tag.
var ErrUnsupportedCodec = errors.New("principal: unsupported did:key multicodec")

// ErrInvalidDID is returned for a string that is not a well-formed DID.
var ErrInvalidDID = errors.New("principal: invalid did")

// Principal is a byte-tagged DID: the canonical multicodec-prefixed
// byte form, plus the string it was parsed from (or its canonical
// string rendering, for principals built from bytes).
type Principal struct {
	bytes []byte
	str   string
}

// Bytes returns the canonical tagged byte form.
func (p *Principal) Bytes() []byte { return p.bytes }

// DID returns the did: string form — the accessor the spec calls
// `.did()`.
func (p *Principal) DID() string { return p.str }

func (p *Principal) String() string { return p.str }

// IsKey reports whether this principal is a did:key (as opposed to an
// opaque did:<method>).
func (p *Principal) IsKey() bool {
	code, _, err := varint.FromUvarint(p.bytes)
	if err != nil {
		return false
	}
	_, ok := keyCodecs[int64(code)]
	return ok
}

// KeyCodec returns the multicodec key-algorithm code and true, or
// (0, false) if this is not a did:key principal.
func (p *Principal) KeyCodec() (int64, bool) {
	code, _, err := varint.FromUvarint(p.bytes)
	if err != nil {
		return 0, false
	}
	if _, ok := keyCodecs[int64(code)]; !ok {
		return 0, false
	}
	return int64(code), true
}

// Parse parses a did: string into a Principal.
func Parse(s string) (*Principal, error) {
	if !strings.HasPrefix(s, "did:") {
		return nil, fmt.Errorf("%w: %q does not start with \"did:\"", ErrInvalidDID, s)
	}

	if strings.HasPrefix(s, "did:key:") {
		return parseDIDKey(s)
	}

	suffix := s[len("did:"):]
	tag := varint.ToUvarint(didCoreMulticodec)
	buf := make([]byte, 0, len(tag)+len(suffix))
	buf = append(buf, tag...)
	buf = append(buf, []byte(suffix)...)

	return &Principal{bytes: buf, str: s}, nil
}

func parseDIDKey(s string) (*Principal, error) {
	encoded := s[len("did:key:"):]

	// 'z' is the multibase base58btc prefix; did:key never uses any
	// other base.
	if !strings.HasPrefix(encoded, "z") {
		return nil, fmt.Errorf("%w: did:key must use the base58btc \"z\" multibase prefix", ErrInvalidDID)
	}

	data, err := base58.Decode(encoded[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDID, err)
	}

	code, _, err := varint.FromUvarint(data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed multicodec tag: %s", ErrUnsupportedCodec, err)
	}
	if _, ok := keyCodecs[int64(code)]; !ok {
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedCodec, code)
	}
	if int64(code) == KeyP256 && len(data) > p256MaxLen {
		return nil, fmt.Errorf("%w: did:key P-256 must be the compressed form (<=%d bytes, got %d)", ErrUnsupportedCodec, p256MaxLen, len(data))
	}

	return &Principal{bytes: data, str: s}, nil
}

// Format renders a Principal back to its did: string. format(parse(s))
// == s for every recognized DID string.
func Format(p *Principal) (string, error) {
	if p.str != "" {
		return p.str, nil
	}
	return FormatBytes(p.bytes)
}

// FormatBytes renders the canonical tagged bytes of a principal (as
// seen on the CBOR wire) into its did: string form.
func FormatBytes(tagged []byte) (string, error) {
	code, n, err := varint.FromUvarint(tagged)
	if err != nil {
		return "", fmt.Errorf("%w: malformed multicodec tag: %s", ErrInvalidDID, err)
	}

	if int64(code) == didCoreMulticodec {
		return "did:" + string(tagged[n:]), nil
	}

	if _, ok := keyCodecs[int64(code)]; !ok {
		return "", fmt.Errorf("%w: %#x", ErrUnsupportedCodec, code)
	}

	return "did:key:z" + base58.Encode(tagged), nil
}

// FromBytes builds a Principal from its canonical tagged bytes (the
// CBOR-path representation), computing its string form up front with
// FormatBytes.
func FromBytes(tagged []byte) (*Principal, error) {
	str, err := FormatBytes(tagged)
	if err != nil {
		return nil, err
	}
	cp := make([]byte, len(tagged))
	copy(cp, tagged)
	return &Principal{bytes: cp, str: str}, nil
}

// didAccessor is implemented by anything exposing a `.did()`-style
// accessor, e.g. a pre-built Principal or a signer identity.
type didAccessor interface {
	DID() string
}

// From accepts a did: string, raw tagged bytes, an existing *Principal,
// or anything exposing a DID() accessor, and returns a Principal. It is
// idempotent: passing an existing *Principal never re-parses it.
func From(x any) (*Principal, error) {
	switch v := x.(type) {
	case *Principal:
		return v, nil
	case string:
		return Parse(v)
	case []byte:
		return FromBytes(v)
	case didAccessor:
		return Parse(v.DID())
	default:
		return nil, fmt.Errorf("%w: unsupported principal source %T", ErrInvalidDID, x)
	}
}
