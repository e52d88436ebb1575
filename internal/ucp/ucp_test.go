package ucp

import (
	"sort"
	"testing"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		r    rune
		want Category
	}{
		{'a', Ll},
		{'Z', Lu},
		{'5', Nd},
		{' ', Zs},
		{'\n', Cc},
		{'_', Pc},
		{'$', Sc},
		{0x01C5, Lt},   // Dž
		{0x0301, Mn},   // combining acute
		{0x4E2D, Lo},   // CJK
		{0x10FFFE, Cn}, // noncharacter
	}
	for _, tt := range tests {
		if got := CategoryOf(tt.r); got != tt.want {
			t.Errorf("CategoryOf(%U) = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestOtherCase(t *testing.T) {
	tests := []struct{ in, want rune }{
		{'a', 'A'},
		{'A', 'a'},
		{'1', '1'},
		{0x03A3, 0x03C3}, // Σ σ
		{0x00E9, 0x00C9},
	}
	for _, tt := range tests {
		if got := OtherCase(tt.in); got != tt.want {
			t.Errorf("OtherCase(%U) = %U, want %U", tt.in, got, tt.want)
		}
	}
}

func TestFind(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		typ  Type
	}{
		{"L", true, General},
		{"Lu", true, Particular},
		{"L&", true, LAmp},
		{"Any", true, Any},
		{"Greek", true, Script},
		{"Latin", true, Script},
		{"Xx", false, 0},
		{"", false, 0},
	}
	for _, tt := range tests {
		p, ok := Find(tt.name)
		if ok != tt.ok {
			t.Errorf("Find(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if ok && p.Type != tt.typ {
			t.Errorf("Find(%q) type = %d, want %d", tt.name, p.Type, tt.typ)
		}
	}
}

func TestPropertyTableSorted(t *testing.T) {
	if !sort.SliceIsSorted(properties, func(i, j int) bool { return properties[i].Name < properties[j].Name }) {
		t.Fatal("property table is not sorted")
	}
}

func TestHas(t *testing.T) {
	greek, _ := Find("Greek")
	tests := []struct {
		r     rune
		t     Type
		value uint8
		want  bool
	}{
		{'x', Any, 0, true},
		{'x', LAmp, 0, true},
		{'5', LAmp, 0, false},
		{'5', General, uint8(GroupN), true},
		{'x', General, uint8(GroupN), false},
		{'Q', Particular, uint8(Lu), true},
		{'q', Particular, uint8(Lu), false},
		{0x03B1, Script, greek.Value, true},
		{'a', Script, greek.Value, false},
	}
	for _, tt := range tests {
		if got := Has(tt.r, tt.t, tt.value); got != tt.want {
			t.Errorf("Has(%U, %d, %d) = %v, want %v", tt.r, tt.t, tt.value, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	for _, p := range properties {
		if got := Name(p.Type, p.Value); got != p.Name {
			t.Errorf("Name(%d, %d) = %q, want %q", p.Type, p.Value, got, p.Name)
		}
	}
}
