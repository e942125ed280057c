package activation

import (
	"strings"
	"testing"
)

func TestKeyFormat(t *testing.T) {
	v := New("shared-secret")
	key := v.KeyFor("Mercadinho Central")

	groups := strings.Split(key, "-")
	if len(groups) != 8 {
		t.Fatalf("key %q has %d groups, want 8", key, len(groups))
	}
	for _, g := range groups {
		if len(g) != 4 {
			t.Fatalf("group %q in %q is not 4 chars", g, key)
		}
	}
	if key != strings.ToUpper(key) {
		t.Fatalf("key %q is not uppercase", key)
	}
}

func TestKeyIgnoresNameCasingAndWhitespace(t *testing.T) {
	v := New("shared-secret")

	base := v.KeyFor("Mercadinho Central")
	if v.KeyFor("  mercadinho central  ") != base {
		t.Fatal("key derivation should be case and whitespace insensitive")
	}
}

func TestValidate(t *testing.T) {
	v := New("shared-secret")
	key := v.KeyFor("Mercadinho Central")

	if !v.Validate("Mercadinho Central", key) {
		t.Fatal("derived key rejected")
	}
	if !v.Validate("mercadinho central", " "+strings.ToLower(key)+" ") {
		t.Fatal("validation should tolerate case and whitespace")
	}
	if v.Validate("Mercadinho Central", "AAAA-BBBB-CCCC-DDDD-EEEE-FFFF-0000-1111") {
		t.Fatal("wrong key accepted")
	}
	if v.Validate("Outro Cliente", key) {
		t.Fatal("key accepted for a different client name")
	}
	if v.Validate("", key) {
		t.Fatal("blank client name accepted")
	}
}

func TestDifferentSecretsDifferentKeys(t *testing.T) {
	if New("secret-a").KeyFor("Cliente") == New("secret-b").KeyFor("Cliente") {
		t.Fatal("keys should depend on the secret")
	}
}
