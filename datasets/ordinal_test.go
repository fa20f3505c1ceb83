package datasets

import (
	"errors"
	"testing"

	"github.com/terratile/geosets/rastio"
)

func TestNewOrdinalMapPreservesListOrder(t *testing.T) {
	m, err := NewOrdinalMap([]int{0, 13, 1, 36}, agriFieldNetColors)
	if err != nil {
		t.Fatalf("NewOrdinalMap failed: %v", err)
	}

	if m.Len() != 4 {
		t.Fatalf("Len = %d, want 4", m.Len())
	}
	want := map[int]int32{0: 0, 13: 1, 1: 2, 36: 3}
	for raw, ordinal := range want {
		if got := m.Ordinal(raw); got != ordinal {
			t.Errorf("Ordinal(%d) = %d, want %d", raw, got, ordinal)
		}
	}

	// Valid ids left out of the list collapse to background.
	for _, raw := range []int{2, 5, 16} {
		if got := m.Ordinal(raw); got != 0 {
			t.Errorf("Ordinal(%d) = %d, want 0", raw, got)
		}
	}
	// So do ids outside the table entirely.
	if m.Ordinal(-1) != 0 || m.Ordinal(1000) != 0 {
		t.Error("out-of-range ids must map to background")
	}
}

func TestNewOrdinalMapValidation(t *testing.T) {
	cases := []struct {
		name    string
		classes []int
	}{
		{"empty", nil},
		{"missing background", []int{1, 2, 3}},
		{"unknown id", []int{0, 7}},
		{"duplicate", []int{0, 1, 1}},
	}
	for _, c := range cases {
		_, err := NewOrdinalMap(c.classes, agriFieldNetColors)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %v", c.name, err)
		}
	}
}

func TestOrdinalMapColors(t *testing.T) {
	m, err := NewOrdinalMap([]int{0, 36}, agriFieldNetColors)
	if err != nil {
		t.Fatalf("NewOrdinalMap failed: %v", err)
	}
	if got := m.Color(1); got != agriFieldNetColors[36] {
		t.Fatalf("Color(1) = %v, want %v", got, agriFieldNetColors[36])
	}
	if got := m.Color(99); got != agriFieldNetColors[0] {
		t.Fatalf("Color out of range = %v, want background", got)
	}
}

func TestOrdinalMapApply(t *testing.T) {
	m, err := NewOrdinalMap([]int{0, 1, 36}, agriFieldNetColors)
	if err != nil {
		t.Fatalf("NewOrdinalMap failed: %v", err)
	}

	g := &rastio.Grid{
		Pix:    []float32{36, 1, -9999, 5},
		Width:  2,
		Height: 2,
		NoData: -9999,
	}
	rows := m.Apply(g)
	want := [][]int32{{2, 1}, {0, 0}}
	for r := range want {
		for c := range want[r] {
			if rows[r][c] != want[r][c] {
				t.Fatalf("Apply()[%d][%d] = %d, want %d", r, c, rows[r][c], want[r][c])
			}
		}
	}
}
