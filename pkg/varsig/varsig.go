// Package varsig implements the self-describing VarSig signature
// envelope used by UCAN: a multicodec algorithm tag, a varint length,
// the raw signature bytes, and — only for non-standard algorithms — a
// trailing UTF-8 algorithm name.
package varsig

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/multiformats/go-varint"
)

// Standard signature algorithm multicodec codes (spec §3, §6.3).
const (
	ES256K      = 0xD0E7
	BLS12381G1  = 0xD0EA
	BLS12381G2  = 0xD0EB
	EdDSA       = 0xD0ED
	EIP191      = 0xD191
	ES256       = 0xD01200
	ES384       = 0xD01201
	ES512       = 0xD01202
	RS256       = 0xD01205
	NonStandard = 0xD000
)

// ErrUnsupportedCode is returned when create is asked for a code that
// is not one of the standard signature algorithms.
var ErrUnsupportedCode = errors.New("varsig: unsupported signature algorithm code")

var codeNames = map[int64]string{
	ES256K:     "ES256K",
	BLS12381G1: "BLS12381G1",
	BLS12381G2: "BLS12381G2",
	EdDSA:      "EdDSA",
	EIP191:     "EIP191",
	ES256:      "ES256",
	ES384:      "ES384",
	ES512:      "ES512",
	RS256:      "RS256",
}

var namesToCode = func() map[string]int64 {
	m := make(map[string]int64, len(codeNames))
	for code, name := range codeNames {
		m[name] = code
	}
	return m
}()

// Signer signs an arbitrary payload and returns a raw signature.
// Implementations are consumed as an external capability — no concrete
// cryptographic backend lives in this package.
type Signer interface {
	Sign(payload []byte) ([]byte, error)
}

// Verifier checks a raw signature against a payload.
type Verifier interface {
	Verify(payload []byte, sig *Signature) (bool, error)
}

// Signature is a self-describing signature envelope.
type Signature struct {
	code int64
	raw  []byte
	// name is only set for NonStandard envelopes.
	name string
}

// Create builds a Signature for one of the standard algorithm codes.
// It fails if code is not a recognized standard code (use CreateNamed
// for NonStandard envelopes).
func Create(code int64, raw []byte) (*Signature, error) {
	name, ok := codeNames[code]
	if !ok {
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedCode, code)
	}
	return &Signature{code: code, raw: raw, name: name}, nil
}

// CreateNamed builds a Signature from an algorithm name. If the name
// maps to a standard code, it delegates to Create; otherwise it emits a
// NonStandard envelope carrying name verbatim.
func CreateNamed(name string, raw []byte) (*Signature, error) {
	if code, ok := namesToCode[name]; ok {
		return Create(code, raw)
	}
	return &Signature{code: NonStandard, raw: raw, name: name}, nil
}

// Code returns the envelope's signature-algorithm multicodec.
func (s *Signature) Code() int64 { return s.code }

// Size returns the length of the raw signature bytes.
func (s *Signature) Size() int { return len(s.raw) }

// Raw returns the inner signature bytes, without the envelope.
func (s *Signature) Raw() []byte { return s.raw }

// Algorithm returns the algorithm's string name.
func (s *Signature) Algorithm() string { return s.name }

// Encode serializes the envelope as
// <code:varint><len:varint><raw-bytes>[algName].
func Encode(s *Signature) []byte {
	buf := make([]byte, 0, varint.UvarintSize(uint64(s.code))+varint.UvarintSize(uint64(len(s.raw)))+len(s.raw)+len(s.name))
	buf = append(buf, varint.ToUvarint(uint64(s.code))...)
	buf = append(buf, varint.ToUvarint(uint64(len(s.raw)))...)
	buf = append(buf, s.raw...)
	if s.code == NonStandard {
		buf = append(buf, []byte(s.name)...)
	}
	return buf
}

// Decode reinterprets bytes as a VarSig envelope. It does not validate
// the algorithm code, and neither does Algorithm: for a code that is
// neither a standard algorithm nor NonStandard, Algorithm returns ""
// and no error is reported.
func Decode(data []byte) (*Signature, error) {
	code, n, err := varint.FromUvarint(data)
	if err != nil {
		return nil, fmt.Errorf("varsig: invalid code varint: %w", err)
	}
	rest := data[n:]

	size, n2, err := varint.FromUvarint(rest)
	if err != nil {
		return nil, fmt.Errorf("varsig: invalid length varint: %w", err)
	}
	rest = rest[n2:]

	if uint64(len(rest)) < size {
		return nil, fmt.Errorf("varsig: truncated signature: want %d bytes, have %d", size, len(rest))
	}
	raw := rest[:size]
	tail := rest[size:]

	name := codeNames[int64(code)]
	if int64(code) == NonStandard {
		name = string(tail)
	}

	return &Signature{code: int64(code), raw: raw, name: name}, nil
}

// Verify delegates to verifier.Verify(payload, s).
func Verify(s *Signature, verifier Verifier, payload []byte) error {
	ok, err := verifier.Verify(payload, s)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("varsig: signature verification failed")
	}
	return nil
}

var b64 = base64.URLEncoding.WithPadding(base64.NoPadding)

// Format base64url-encodes the envelope.
func Format(s *Signature) string {
	return b64.EncodeToString(Encode(s))
}

// Parse decodes a base64url-encoded envelope.
func Parse(str string) (*Signature, error) {
	data, err := b64.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("varsig: invalid base64url: %w", err)
	}
	return Decode(data)
}

// JSON is the `{"/": {"bytes": ...}}` DAG-JSON representation of a
// Signature.
type JSON struct {
	Slash struct {
		Bytes string `json:"bytes"`
	} `json:"/"`
}

// ToJSON renders the signature's DAG-JSON form. The bytes field holds
// plain (un-prefixed) base64 of the encoded envelope.
func ToJSON(s *Signature) JSON {
	var j JSON
	j.Slash.Bytes = base64.StdEncoding.EncodeToString(Encode(s))
	return j
}

// FromJSON is the inverse of ToJSON.
func FromJSON(j JSON) (*Signature, error) {
	data, err := base64.StdEncoding.DecodeString(j.Slash.Bytes)
	if err != nil {
		return nil, fmt.Errorf("varsig: invalid DAG-JSON bytes: %w", err)
	}
	return Decode(data)
}
