// Package link builds and parses the content-addressed links (CIDs)
// used as UCAN proof references and as the identity of an encoded
// token.
package link

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"
	mh "github.com/multiformats/go-multihash"
	"github.com/multiformats/go-varint"
)

// Block codecs used for links (spec §6.3).
const (
	CodecCBOR = 0x71 // DAG-CBOR
	CodecRaw  = 0x55
)

// DefaultHashAlg is the default multihash algorithm (sha2-256) used
// when no hasher is specified.
const DefaultHashAlg = mh.SHA2_256

// ErrInvalidLink is returned when a link string or byte form cannot be
// parsed.
var ErrInvalidLink = errors.New("link: invalid CID")

// Link is a CIDv1: a version, a content codec, and a multihash.
type Link struct {
	codec uint64
	mhash []byte // full multihash bytes: varint(hashCode) + varint(size) + digest
}

// Codec returns the link's content codec (CodecCBOR or CodecRaw for
// UCAN views).
func (l *Link) Codec() uint64 { return l.codec }

// Multihash returns the raw multihash bytes.
func (l *Link) Multihash() []byte { return l.mhash }

// Bytes returns the full CIDv1 byte form: varint(1) + varint(codec) + multihash.
func (l *Link) Bytes() []byte {
	buf := varint.ToUvarint(1)
	buf = append(buf, varint.ToUvarint(l.codec)...)
	buf = append(buf, l.mhash...)
	return buf
}

// String renders the link in its default CIDv1 text form: multibase
// base32 (lowercase, no padding), prefix "b".
func (l *Link) String() string {
	s, err := multibase.Encode(multibase.Base32, l.Bytes())
	if err != nil {
		// Base32 encoding of arbitrary bytes cannot fail.
		panic(err)
	}
	return s
}

// IsIdentity reports whether the link's multihash uses the identity
// hash function — i.e. it is an inlined proof whose digest is the
// original bytes verbatim.
func (l *Link) IsIdentity() bool {
	code, _, err := varint.FromUvarint(l.mhash)
	return err == nil && code == mh.IDENTITY
}

// Digest returns the multihash's digest bytes (for an identity link,
// this is the original inlined bytes).
func (l *Link) Digest() ([]byte, error) {
	decoded, err := mh.Decode(l.mhash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLink, err)
	}
	return decoded.Digest, nil
}

// New builds a Link from a codec and a ready-made multihash.
func New(codec uint64, multihash []byte) *Link {
	return &Link{codec: codec, mhash: multihash}
}

// Sum hashes data with the given multihash algorithm (DefaultHashAlg
// when alg is 0) and wraps it as a Link with the given codec.
func Sum(codec uint64, data []byte, alg uint64) (*Link, error) {
	if alg == 0 {
		alg = DefaultHashAlg
	}

	var digest []byte
	if alg == mh.SHA2_256 {
		sum := sha256.Sum256(data)
		digest = sum[:]
	} else if alg == mh.IDENTITY {
		digest = data
	} else {
		return nil, fmt.Errorf("%w: unsupported hash algorithm %#x", ErrInvalidLink, alg)
	}

	encoded, err := mh.Encode(digest, alg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLink, err)
	}
	return &Link{codec: codec, mhash: encoded}, nil
}

// Inline wraps data as a CIDv1 RAW link using the identity multihash —
// the "inlined proof" construction the JWT path uses when a proof
// string does not parse as a CID (spec §3 Link, §4.3 prf).
func Inline(data []byte) (*Link, error) {
	return Sum(CodecRaw, data, mh.IDENTITY)
}

// Parse decodes a link from its multibase text form.
func Parse(s string) (*Link, error) {
	_, data, err := multibase.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLink, err)
	}
	return FromBytes(data)
}

// FromBytes decodes a link from its raw CIDv1 byte form.
func FromBytes(data []byte) (*Link, error) {
	version, n, err := varint.FromUvarint(data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed version varint: %s", ErrInvalidLink, err)
	}
	if version != 1 {
		return nil, fmt.Errorf("%w: unsupported CID version %d", ErrInvalidLink, version)
	}
	rest := data[n:]

	codec, n2, err := varint.FromUvarint(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed codec varint: %s", ErrInvalidLink, err)
	}
	rest = rest[n2:]

	if _, err := mh.Decode(rest); err != nil {
		return nil, fmt.Errorf("%w: malformed multihash: %s", ErrInvalidLink, err)
	}

	return &Link{codec: codec, mhash: rest}, nil
}

// Equal reports whether two links address the same bytes.
func Equal(a, b *Link) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.codec != b.codec || len(a.mhash) != len(b.mhash) {
		return false
	}
	for i := range a.mhash {
		if a.mhash[i] != b.mhash[i] {
			return false
		}
	}
	return true
}
