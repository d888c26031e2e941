package merge

import (
	"slices"
	"testing"
)

func TestForbiddenMatch(t *testing.T) {
	f, err := ParseForbidden([]string{"hex:ff", "re:^[0-9]{3,}$", "\n\n"})
	if err != nil {
		t.Fatalf("ParseForbidden: %v", err)
	}

	tests := []struct {
		in   []byte
		want bool
	}{
		{[]byte("hello"), false},
		{[]byte{'a', 0xFF}, true},
		{[]byte("123"), true},
		{[]byte("12"), false},
		{[]byte("a123"), false},
		{[]byte("end\n\nstart"), true},
		{[]byte("end\nstart"), false},
	}
	for _, tt := range tests {
		if got := f.Match(tt.in); got != tt.want {
			t.Errorf("Match(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
	if f.Len() != 3 {
		t.Errorf("Len() = %d; want 3", f.Len())
	}
}

func TestForbiddenZeroValueMatchesNothing(t *testing.T) {
	var f Forbidden
	if f.Match([]byte{0xFF}) {
		t.Error("zero Forbidden matched")
	}
}

func TestParseForbidden_Invalid(t *testing.T) {
	for _, p := range []string{"re:(", "hex:zz", "hex:", ""} {
		if _, err := ParseForbidden([]string{p}); err == nil {
			t.Errorf("ParseForbidden(%q) succeeded; want error", p)
		}
	}
}

func TestForbiddenPatterns(t *testing.T) {
	in := []string{"hex:ff", "re:^[0-9]+$", "ab"}
	f := MustForbidden(in...)
	if f.Len() != 3 {
		t.Errorf("Len() = %d; want 3", f.Len())
	}
	got := f.Patterns()
	if !slices.Equal(got, in) {
		t.Errorf("Patterns() = %q; want %q", got, in)
	}
	got[0] = "changed"
	if f.Patterns()[0] != "hex:ff" {
		t.Error("Patterns() shares its backing array")
	}
}
