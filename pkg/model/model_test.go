package model

import (
	"encoding/json"
	"testing"
)

func TestParseKindKnown(t *testing.T) {
	tests := []struct {
		input string
		want  ReferenceKind
	}{
		{"component", KindComponent},
		{"Derived", KindDerived},
		{" MIRROR ", KindMirror},
		{"generic", KindGeneric},
		{"", KindComponent},
	}

	for _, tt := range tests {
		got := ParseKind(tt.input)
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if got.IsOther() {
			t.Errorf("ParseKind(%q) should not be an Other kind", tt.input)
		}
	}
}

func TestOtherKindPreservesName(t *testing.T) {
	k := OtherKind("Pattern")
	if !k.IsOther() {
		t.Fatalf("Expected Other kind, got tag %d", k.Tag())
	}
	if k.String() != "pattern" {
		t.Errorf("Expected name 'pattern', got %q", k.String())
	}
	if k != OtherKind("pattern") {
		t.Error("Other kinds with the same name should compare equal")
	}
	if OtherKind("mirror") != KindMirror {
		t.Error("OtherKind with a known name should return the known kind")
	}
}

func TestZeroKindIsComponent(t *testing.T) {
	var k ReferenceKind
	if k != KindComponent {
		t.Errorf("Zero value should be KindComponent, got %v", k)
	}
}

func TestKindJSONRoundTrip(t *testing.T) {
	entry := ReferenceEntry{Parent: "A", Child: "B", InstanceCount: 2, Kind: OtherKind("weld")}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"parent":"A","child":"B","instance_count":2,"kind":"weld"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var decoded ReferenceEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded != entry {
		t.Errorf("Unmarshal() = %+v, want %+v", decoded, entry)
	}
}
