package device

import (
	"errors"
	"testing"

	"github.com/voltframe/mnacore/internal/simerr"
)

func TestNewResistorRejectsNonPositive(t *testing.T) {
	for _, v := range []float64{0, -1} {
		if _, err := NewResistor("R1", []string{"1", "2"}, v); !errors.Is(err, simerr.ParameterError) {
			t.Fatalf("value=%g: expected ParameterError, got %v", v, err)
		}
	}
}

func TestResistorStampGroundSink(t *testing.T) {
	r, err := NewResistor("R1", []string{"1", "0"}, 100)
	if err != nil {
		t.Fatalf("NewResistor: %v", err)
	}
	r.SetNodes([]int{1, 0})

	m := newRecordingMatrix()
	if err := r.Stamp(m, staticStatus()); err != nil {
		t.Fatalf("Stamp: %v", err)
	}

	if g := m.elements[[2]int{1, 1}]; g != 0.01 {
		t.Fatalf("J[1,1] = %g, want 0.01", g)
	}
	if _, ok := m.elements[[2]int{1, 0}]; ok {
		t.Fatal("ground column must never be written")
	}
	if _, ok := m.elements[[2]int{0, 0}]; ok {
		t.Fatal("ground row must never be written")
	}
}

func TestResistorStampBetweenTwoNodes(t *testing.T) {
	r, err := NewResistor("R1", []string{"1", "2"}, 250)
	if err != nil {
		t.Fatalf("NewResistor: %v", err)
	}
	r.SetNodes([]int{1, 2})

	m := newRecordingMatrix()
	if err := r.Stamp(m, staticStatus()); err != nil {
		t.Fatalf("Stamp: %v", err)
	}

	g := 1.0 / 250.0
	want := map[[2]int]float64{
		{1, 1}: g, {1, 2}: -g,
		{2, 1}: -g, {2, 2}: g,
	}
	for k, v := range want {
		if got := m.elements[k]; got != v {
			t.Fatalf("J%v = %g, want %g", k, got, v)
		}
	}
}
