package teaching

import (
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	t.Parallel()
	e, ok := Lookup("chudo")
	if !ok {
		t.Fatal("chudo not found")
	}
	if e.Title != "中道" {
		t.Fatalf("Title = %q, want 中道", e.Title)
	}
	if _, ok := Lookup("doesnotexist"); ok {
		t.Fatal("unexpected entry for unknown key")
	}
}

func TestRotationMatchesEntries(t *testing.T) {
	t.Parallel()
	rot := Rotation()
	if len(rot) != 15 {
		t.Fatalf("rotation len = %d, want 15", len(rot))
	}
	seen := map[string]bool{}
	for i, d := range rot {
		if _, ok := Lookup(d.Key); !ok {
			t.Fatalf("rotation[%d] key %q has no entry", i, d.Key)
		}
		if seen[d.Key] {
			t.Fatalf("rotation key %q repeated", d.Key)
		}
		seen[d.Key] = true
		if strings.TrimSpace(d.Text) == "" {
			t.Fatalf("rotation[%d] is blank", i)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()
	all := All()
	all[0].Title = "changed"
	if e, _ := Lookup(all[0].Key); e.Title == "changed" {
		t.Fatal("All() leaked internal storage")
	}
}
