// Package capability holds the structural (not semantic) representation
// of a UCAN capability: a resource, an ability, and opaque caveats.
// This package never evaluates whether a capability is held or
// attenuated correctly — see spec.md's Non-goals.
package capability

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalid is the sentinel wrapped by every error Normalize returns
// and by Validate's empty-set error. Validate's per-entry errors carry
// an "[i]" index prefix in place of the sentinel text and do not wrap it.
var ErrInvalid = errors.New("capability: invalid")

// abilityPattern matches lowercase "ns/act[/more...]" — at least one
// path segment on each side of the first slash. The bare "*" ability is
// accepted separately by Normalize.
var abilityPattern = regexp.MustCompile(`^[a-z0-9_.-]+(/[a-z0-9_.-]+)+$`)

// Capability is `{with, can, nb?, ...other keys preserved}`.
type Capability struct {
	With string
	Can  string
	Nb   any
	// Extra holds any sibling keys beyond with/can/nb, preserved
	// verbatim for round-tripping.
	Extra map[string]any
}

// wildcardWith reports whether a resource string ends in "*" (the
// "my:*" and "as:did:...:*" forms), which requires Can == "*".
func wildcardWith(with string) bool {
	return strings.HasSuffix(with, "*")
}

// Normalize lowercases Can (per spec.md §9's documented asymmetry —
// With is never modified) and validates the structural shape.
func Normalize(c Capability) (Capability, error) {
	out := c
	out.Can = strings.ToLower(c.Can)

	if out.With == "" {
		return Capability{}, fmt.Errorf("%w: with must not be empty", ErrInvalid)
	}

	if out.Can != "*" && !abilityPattern.MatchString(out.Can) {
		return Capability{}, fmt.Errorf("%w: can %q is not \"*\" or \"<ns>/<act>\"", ErrInvalid, out.Can)
	}

	if wildcardWith(out.With) && out.Can != "*" {
		return Capability{}, fmt.Errorf("%w: for all 'my:*' or 'as:<did>:*' it must be '*'", ErrInvalid)
	}

	return out, nil
}

// Validate validates a non-empty, ordered sequence of capabilities
// (the `att` tuple invariant: length >= 1). A failing entry's error is
// prefixed with its index, e.g. "[1]: with must not be empty".
func Validate(caps []Capability) ([]Capability, error) {
	if len(caps) == 0 {
		return nil, fmt.Errorf("%w: att must contain at least one capability", ErrInvalid)
	}
	out := make([]Capability, len(caps))
	for i, c := range caps {
		normalized, err := Normalize(c)
		if err != nil {
			return nil, fmt.Errorf("[%d]%w", i, trimPrefix(err))
		}
		out[i] = normalized
	}
	return out, nil
}

// trimPrefix strips the ErrInvalid sentinel text so a caller can graft
// its own path prefix in front of the remaining message.
func trimPrefix(err error) error {
	return fmt.Errorf(": %s", strings.TrimPrefix(err.Error(), "capability: invalid: "))
}
