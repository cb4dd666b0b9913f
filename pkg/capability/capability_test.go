package capability_test

import (
	"testing"

	"github.com/tradeverifyd/dag-ucan/pkg/capability"
)

func TestNormalize(t *testing.T) {
	t.Run("accepts a well-formed ns/act ability", func(t *testing.T) {
		out, err := capability.Normalize(capability.Capability{
			With: "https://example.com/blog/",
			Can:  "crud/update",
		})
		if err != nil {
			t.Fatalf("Normalize returned error: %v", err)
		}
		if out.Can != "crud/update" {
			t.Errorf("Can = %q, want %q", out.Can, "crud/update")
		}
	})

	t.Run("lowercases can but leaves with untouched", func(t *testing.T) {
		out, err := capability.Normalize(capability.Capability{
			With: "https://Example.com/Blog/",
			Can:  "CRUD/UPDATE",
		})
		if err != nil {
			t.Fatalf("Normalize returned error: %v", err)
		}
		if out.Can != "crud/update" {
			t.Errorf("Can = %q, want lowercased %q", out.Can, "crud/update")
		}
		if out.With != "https://Example.com/Blog/" {
			t.Errorf("With = %q, want untouched", out.With)
		}
	})

	t.Run("rejects an empty with", func(t *testing.T) {
		if _, err := capability.Normalize(capability.Capability{With: "", Can: "crud/update"}); err == nil {
			t.Error("expected an error for an empty with")
		}
	})

	t.Run("rejects a can that is neither * nor ns/act", func(t *testing.T) {
		for _, can := range []string{"update", "/update", "crud/", "crud//update"} {
			if _, err := capability.Normalize(capability.Capability{With: "https://example.com/", Can: can}); err == nil {
				t.Errorf("Normalize(can=%q) expected an error, got none", can)
			}
		}
	})

	t.Run("a my:* with requires can to be exactly *", func(t *testing.T) {
		out, err := capability.Normalize(capability.Capability{With: "my:*", Can: "*"})
		if err != nil {
			t.Fatalf("Normalize(my:*, *) returned error: %v", err)
		}
		if out.Can != "*" {
			t.Errorf("Can = %q, want %q", out.Can, "*")
		}

		if _, err := capability.Normalize(capability.Capability{With: "my:*", Can: "crud/update"}); err == nil {
			t.Error("expected an error for my:* paired with a non-* can")
		}
	})

	t.Run("an as:did:...:* with requires can to be exactly *", func(t *testing.T) {
		out, err := capability.Normalize(capability.Capability{With: "as:did:key:zABC:*", Can: "*"})
		if err != nil {
			t.Fatalf("Normalize(as:...:*, *) returned error: %v", err)
		}
		if out.Can != "*" {
			t.Errorf("Can = %q, want %q", out.Can, "*")
		}

		if _, err := capability.Normalize(capability.Capability{With: "as:did:key:zABC:*", Can: "msg/send"}); err == nil {
			t.Error("expected an error for as:...:* paired with a non-* can")
		}
	})

	t.Run("a non-wildcard with may use a non-* can freely", func(t *testing.T) {
		out, err := capability.Normalize(capability.Capability{With: "https://example.com/file*.txt", Can: "crud/read"})
		if err != nil {
			t.Fatalf("Normalize returned error: %v", err)
		}
		if out.Can != "crud/read" {
			t.Errorf("Can = %q, want %q", out.Can, "crud/read")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("rejects an empty capability set", func(t *testing.T) {
		if _, err := capability.Validate(nil); err == nil {
			t.Error("expected an error for an empty att")
		}
		if _, err := capability.Validate([]capability.Capability{}); err == nil {
			t.Error("expected an error for an empty att")
		}
	})

	t.Run("normalizes every capability in order", func(t *testing.T) {
		in := []capability.Capability{
			{With: "https://example.com/a", Can: "CRUD/READ"},
			{With: "https://example.com/b", Can: "crud/WRITE"},
		}
		out, err := capability.Validate(in)
		if err != nil {
			t.Fatalf("Validate returned error: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("len(out) = %d, want 2", len(out))
		}
		if out[0].Can != "crud/read" || out[1].Can != "crud/write" {
			t.Errorf("Validate did not lowercase can in every entry: %+v", out)
		}
	})

	t.Run("prefixes a failing entry's error with its index", func(t *testing.T) {
		in := []capability.Capability{
			{With: "https://example.com/a", Can: "crud/read"},
			{With: "", Can: "crud/write"},
		}
		_, err := capability.Validate(in)
		if err == nil {
			t.Fatal("expected an error for the second entry's empty with")
		}
		if got := err.Error(); got == "" || got[:3] != "[1]" {
			t.Errorf("error = %q, want a \"[1]\"-prefixed message", got)
		}
	})
}
