package device

import (
	"math"
	"testing"
)

func TestBJTDiodeCurrentDeepReverseIsSaturationCurrent(t *testing.T) {
	b, err := NewBJT("Q1", []string{"c", "b", "e"}, 1e-16, 100, 1)
	if err != nil {
		t.Fatalf("NewBJT: %v", err)
	}
	nVt := b.Nf * 0.02585
	i, g := b.diodeCurrent(-1, b.Is, nVt)
	if i != -b.Is {
		t.Fatalf("i = %g, want -Is (%g)", i, -b.Is)
	}
	if g != 0 {
		t.Fatalf("g = %g, want 0", g)
	}
}

func TestBJTDiodeCurrentForwardIsPositive(t *testing.T) {
	b, err := NewBJT("Q1", []string{"c", "b", "e"}, 1e-16, 100, 1)
	if err != nil {
		t.Fatalf("NewBJT: %v", err)
	}
	nVt := b.Nf * 0.02585
	i, g := b.diodeCurrent(0.6, b.Is, nVt)
	if i <= 0 {
		t.Fatalf("i = %g, want positive", i)
	}
	if g <= 0 {
		t.Fatalf("g = %g, want positive", g)
	}
}

func TestBJTUpdateVoltagesComputesJunctionVoltages(t *testing.T) {
	b, err := NewBJT("Q1", []string{"c", "b", "e"}, 1e-16, 100, 1)
	if err != nil {
		t.Fatalf("NewBJT: %v", err)
	}
	b.SetNodes([]int{1, 2, 3})

	if err := b.UpdateVoltages([]float64{0, 5, 0.7, 0}); err != nil {
		t.Fatalf("UpdateVoltages: %v", err)
	}
	if math.Abs(b.vbe-0.7) > 1e-12 {
		t.Fatalf("vbe = %g, want 0.7", b.vbe)
	}
	if math.Abs(b.vbc-(-4.3)) > 1e-12 {
		t.Fatalf("vbc = %g, want -4.3", b.vbc)
	}
}

func TestBJTStampForwardActiveProducesBalancedBaseCollectorCurrent(t *testing.T) {
	b, err := NewBJT("Q1", []string{"c", "b", "e"}, 1e-16, 100, 1)
	if err != nil {
		t.Fatalf("NewBJT: %v", err)
	}
	b.SetNodes([]int{1, 2, 3})
	b.vbe, b.vbc = 0.7, -4.3

	m := newRecordingMatrix()
	if err := b.Stamp(m, staticStatus()); err != nil {
		t.Fatalf("Stamp: %v", err)
	}
	if b.ic <= 0 {
		t.Fatalf("ic = %g, want positive in forward active", b.ic)
	}
	if math.Abs(b.ie+(b.ic+b.ib)) > 1e-12 {
		t.Fatalf("KCL violated: ie=%g, ic+ib=%g", b.ie, b.ic+b.ib)
	}
}
