package simulation

import (
	"errors"
	"math"
	"testing"

	"github.com/voltframe/mnacore/internal/simerr"
	"github.com/voltframe/mnacore/pkg/circuit"
	"github.com/voltframe/mnacore/pkg/device"
	"github.com/voltframe/mnacore/pkg/env"
)

const tol = 1e-4

func approxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func buildDivider(t *testing.T, r1, r2 float64) *circuit.Circuit {
	t.Helper()
	ckt := circuit.New("divider", env.New())

	v := device.NewDCVoltageSource("V1", []string{"in", "0"}, 1.0)
	ra, err := device.NewResistor("R1", []string{"in", "mid"}, r1)
	if err != nil {
		t.Fatalf("NewResistor R1: %v", err)
	}
	rb, err := device.NewResistor("R2", []string{"mid", "0"}, r2)
	if err != nil {
		t.Fatalf("NewResistor R2: %v", err)
	}

	for _, d := range []device.Device{v, ra, rb} {
		if err := ckt.Add(d); err != nil {
			t.Fatalf("Add %s: %v", d.GetName(), err)
		}
	}
	if err := ckt.Finalise("0"); err != nil {
		t.Fatalf("Finalise: %v", err)
	}
	return ckt
}

func TestVoltageDividerEqualResistors(t *testing.T) {
	ckt := buildDivider(t, 500, 500)
	sim := NewStaticSim(ckt, 50)
	if _, err := sim.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if v := ckt.NodeVoltage("mid"); !approxEqual(v, 0.5, tol) {
		t.Fatalf("mid voltage = %g, want 0.5", v)
	}
}

func TestVoltageDividerUnequalResistors(t *testing.T) {
	ckt := buildDivider(t, 1000, 500)
	sim := NewStaticSim(ckt, 50)
	if _, err := sim.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if v := ckt.NodeVoltage("mid"); !approxEqual(v, 1.0/3.0, tol) {
		t.Fatalf("mid voltage = %g, want 1/3", v)
	}
}

func TestResistorOnlyNetworkConvergesFast(t *testing.T) {
	ckt := buildDivider(t, 500, 500)
	// A purely linear network's direct solve is exact on the first
	// stamp; one additional pass only confirms a zero step. A limit
	// of 2 is enough for any linear resistor-only topology.
	sim := NewStaticSim(ckt, 2)
	if _, err := sim.Simulate(); err != nil {
		t.Fatalf("expected convergence within 2 iterations, got: %v", err)
	}
}

func TestGroundVoltageDuringSolve(t *testing.T) {
	ckt := buildDivider(t, 500, 500)
	sim := NewStaticSim(ckt, 50)
	if _, err := sim.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if v := ckt.NodeVoltage("0"); v != 0 {
		t.Fatalf("ground voltage = %g, want 0", v)
	}
}

func TestACSourceRejectsStaticAnalysis(t *testing.T) {
	ckt := circuit.New("ac-reject", env.New())
	v := device.NewACVoltageSource("V1", []string{"1", "0"}, 1.0, 60.0, 0.0)
	r, err := device.NewResistor("R1", []string{"1", "0"}, 100)
	if err != nil {
		t.Fatalf("NewResistor: %v", err)
	}
	for _, d := range []device.Device{v, r} {
		if err := ckt.Add(d); err != nil {
			t.Fatalf("Add %s: %v", d.GetName(), err)
		}
	}
	if err := ckt.Finalise("0"); err != nil {
		t.Fatalf("Finalise: %v", err)
	}

	sim := NewStaticSim(ckt, 50)
	_, err = sim.Simulate()
	if !errors.Is(err, simerr.StaticModeRejected) {
		t.Fatalf("expected StaticModeRejected, got %v", err)
	}
}

func TestDiodeForwardBias(t *testing.T) {
	ckt := circuit.New("diode-fwd", env.New())
	v := device.NewDCVoltageSource("V1", []string{"in", "0"}, 10.0)
	r, err := device.NewResistor("R1", []string{"in", "a"}, 100)
	if err != nil {
		t.Fatalf("NewResistor: %v", err)
	}
	d, err := device.NewDiode("D1", []string{"a", "0"}, 1e-12, 1.0, 40.0)
	if err != nil {
		t.Fatalf("NewDiode: %v", err)
	}
	for _, dev := range []device.Device{v, r, d} {
		if err := ckt.Add(dev); err != nil {
			t.Fatalf("Add %s: %v", dev.GetName(), err)
		}
	}
	if err := ckt.Finalise("0"); err != nil {
		t.Fatalf("Finalise: %v", err)
	}

	// From a zero start the first solve puts ~10 V across the diode;
	// the undamped Newton loop then lowers it by about n*Vt per
	// iteration, so a few hundred iterations are needed.
	sim := NewStaticSim(ckt, 1000)
	if _, err := sim.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	vd := ckt.NodeVoltage("a")
	if !approxEqual(vd, 0.638, 5e-3) {
		t.Fatalf("diode voltage = %g, want ~0.638", vd)
	}

	current := ckt.BranchCurrent("V1")
	if !approxEqual(current, -0.0936, 5e-3) {
		t.Fatalf("source branch current = %g, want ~-0.0936", current)
	}
}

func TestDiodeReverseBias(t *testing.T) {
	ckt := circuit.New("diode-rev", env.New())
	v := device.NewDCVoltageSource("V1", []string{"0", "in"}, 10.0)
	r, err := device.NewResistor("R1", []string{"in", "a"}, 100)
	if err != nil {
		t.Fatalf("NewResistor: %v", err)
	}
	d, err := device.NewDiode("D1", []string{"a", "0"}, 1e-12, 1.0, 40.0)
	if err != nil {
		t.Fatalf("NewDiode: %v", err)
	}
	for _, dev := range []device.Device{v, r, d} {
		if err := ckt.Add(dev); err != nil {
			t.Fatalf("Add %s: %v", dev.GetName(), err)
		}
	}
	if err := ckt.Finalise("0"); err != nil {
		t.Fatalf("Finalise: %v", err)
	}

	sim := NewStaticSim(ckt, 100)
	if _, err := sim.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	vSource := ckt.NodeVoltage("in")
	vd := ckt.NodeVoltage("a")
	if !approxEqual(vd, vSource, 1e-2) {
		t.Fatalf("reverse-biased diode node = %g, want near source voltage %g", vd, vSource)
	}

	current := ckt.BranchCurrent("V1")
	if math.Abs(current) > 1e-6 {
		t.Fatalf("reverse-biased current = %g, want ~0", current)
	}
}

func TestDiodeReverseBreakdown(t *testing.T) {
	ckt := circuit.New("diode-breakdown", env.New())
	v := device.NewDCVoltageSource("V1", []string{"0", "in"}, 50.0)
	r, err := device.NewResistor("R1", []string{"in", "a"}, 100)
	if err != nil {
		t.Fatalf("NewResistor: %v", err)
	}
	d, err := device.NewDiode("D1", []string{"a", "0"}, 1e-12, 1.0, 40.0)
	if err != nil {
		t.Fatalf("NewDiode: %v", err)
	}
	for _, dev := range []device.Device{v, r, d} {
		if err := ckt.Add(dev); err != nil {
			t.Fatalf("Add %s: %v", dev.GetName(), err)
		}
	}
	if err := ckt.Finalise("0"); err != nil {
		t.Fatalf("Finalise: %v", err)
	}

	// As in the forward case, the junction voltage walks from about
	// -50 V toward -40.6 V by roughly n*Vt per Newton iteration.
	sim := NewStaticSim(ckt, 1000)
	if _, err := sim.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	drop := math.Abs(ckt.NodeVoltage("a"))
	if !approxEqual(drop, 40.638, 5e-2) {
		t.Fatalf("breakdown drop = %g, want ~40.638", drop)
	}

	current := ckt.BranchCurrent("V1")
	if !approxEqual(current, -0.0936, 5e-3) {
		t.Fatalf("breakdown current = %g, want ~-0.0936", current)
	}
}
