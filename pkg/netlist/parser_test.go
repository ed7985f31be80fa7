package netlist

import (
	"errors"
	"math"
	"testing"

	"github.com/voltframe/mnacore/internal/simerr"
)

func TestParseValueUnitSuffixes(t *testing.T) {
	cases := map[string]float64{
		"1k":    1e3,
		"1K":    1e3,
		"2.5meg": 2.5e6,
		"10u":   10e-6,
		"1n":    1e-9,
		"100p":  100e-12,
		"5m":    5e-3,
		"3":     3,
		"-2.5":  -2.5,
	}
	for in, want := range cases {
		got, err := ParseValue(in)
		if err != nil {
			t.Fatalf("ParseValue(%q): %v", in, err)
		}
		if math.Abs(got-want) > 1e-15*math.Max(1, math.Abs(want)) {
			t.Fatalf("ParseValue(%q) = %g, want %g", in, got, want)
		}
	}
}

func TestParseValueRejectsGarbage(t *testing.T) {
	if _, err := ParseValue("abc"); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
}

func TestParseResistorElement(t *testing.T) {
	ckt, err := Parse("test\nR1 1 2 1k\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ckt.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(ckt.Elements))
	}
	e := ckt.Elements[0]
	if e.Type != "R" || e.Name != "R1" || e.Value != 1000 {
		t.Fatalf("unexpected element: %+v", e)
	}
	if len(e.Nodes) != 2 || e.Nodes[0] != "1" || e.Nodes[1] != "2" {
		t.Fatalf("unexpected nodes: %v", e.Nodes)
	}
}

func TestParseDiodeWithModel(t *testing.T) {
	ckt, err := Parse("test\n.model DMOD D (is=1e-14 n=1.5 bv=30)\nD1 a 0 DMOD\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m, ok := ckt.Models["DMOD"]
	if !ok {
		t.Fatal("expected model DMOD to be registered")
	}
	if m.Type != "D" {
		t.Fatalf("model type = %q, want D", m.Type)
	}
	if m.Params["is"] != 1e-14 || m.Params["n"] != 1.5 || m.Params["bv"] != 30 {
		t.Fatalf("unexpected model params: %+v", m.Params)
	}

	dev, err := CreateDevice(ckt.Elements[0], ckt.Models)
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	if dev.GetType() != "D" {
		t.Fatalf("device type = %q, want D", dev.GetType())
	}
}

func TestParseMOSFETWithAndWithoutModel(t *testing.T) {
	ckt, err := Parse("test\n.model NM NMOS (vth=0.8 beta=2e-3)\nM1 g s d NM\nM2 g s d\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ckt.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(ckt.Elements))
	}
	if ckt.Elements[0].Params["model"] != "NM" {
		t.Fatalf("M1 model ref = %q, want NM", ckt.Elements[0].Params["model"])
	}
	if _, ok := ckt.Elements[1].Params["model"]; ok {
		t.Fatal("M2 should have no model reference")
	}

	if _, err := CreateDevice(ckt.Elements[0], ckt.Models); err != nil {
		t.Fatalf("CreateDevice M1: %v", err)
	}
	if _, err := CreateDevice(ckt.Elements[1], ckt.Models); err != nil {
		t.Fatalf("CreateDevice M2 (defaults): %v", err)
	}
}

func TestParseVCVSElement(t *testing.T) {
	ckt, err := Parse("test\nE1 1 2 3 4 2.5\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e := ckt.Elements[0]
	if e.Value != 2.5 || len(e.Nodes) != 4 {
		t.Fatalf("unexpected vcvs element: %+v", e)
	}
	if _, err := CreateDevice(e, ckt.Models); err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
}

func TestParseSwitchElement(t *testing.T) {
	ckt, err := Parse("test\nS1 1 2 ON\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e := ckt.Elements[0]
	if e.Params["state"] != "ON" {
		t.Fatalf("state = %q, want ON", e.Params["state"])
	}
	dev, err := CreateDevice(e, ckt.Models)
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	if dev.GetType() != "SW" {
		t.Fatalf("device type = %q, want SW", dev.GetType())
	}
}

func TestParseOpAmpElement(t *testing.T) {
	ckt, err := Parse("test\nO1 1 2 3 4 5\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e := ckt.Elements[0]
	if len(e.Nodes) != 5 {
		t.Fatalf("expected 5 nodes, got %d: %v", len(e.Nodes), e.Nodes)
	}
	if _, err := CreateDevice(e, ckt.Models); err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
}

func TestParseMutualInductanceElement(t *testing.T) {
	ckt, err := Parse("test\nL1 1 0 1m\nL2 2 0 1m\nK1 L1 L2 0.5\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var kElem *Element
	for i := range ckt.Elements {
		if ckt.Elements[i].Type == "K" {
			kElem = &ckt.Elements[i]
		}
	}
	if kElem == nil {
		t.Fatal("expected a K element")
	}
	if kElem.Params["l1"] != "L1" || kElem.Params["l2"] != "L2" || kElem.Value != 0.5 {
		t.Fatalf("unexpected mutual element: %+v", kElem)
	}
	if _, err := CreateDevice(*kElem, ckt.Models); err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
}

func TestParseVoltageSourceVariants(t *testing.T) {
	ckt, err := Parse("test\nV1 1 0 DC 5\nV2 2 0 SIN(0 1 60)\nV3 3 0 SWEEP(0 0.1)\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, e := range ckt.Elements {
		if _, err := CreateDevice(e, ckt.Models); err != nil {
			t.Fatalf("CreateDevice %s: %v", e.Name, err)
		}
	}
}

func TestParseCurrentSourceVariants(t *testing.T) {
	ckt, err := Parse("test\nI1 1 0 DC 1m\nI2 2 0 SIN(0 1m 60)\nI3 3 0 PULSE(0 1 0 1n 1n 1u 2u)\nI4 4 0 PWL(0 0 1m 1 2m 0)\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, e := range ckt.Elements {
		if _, err := CreateDevice(e, ckt.Models); err != nil {
			t.Fatalf("CreateDevice %s: %v", e.Name, err)
		}
	}
}

func TestParseDotOpDirective(t *testing.T) {
	ckt, err := Parse("test\n.op\nR1 1 0 1k\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ckt.Analysis != AnalysisOP {
		t.Fatalf("Analysis = %v, want AnalysisOP", ckt.Analysis)
	}
}

func TestParseDotTranDirective(t *testing.T) {
	ckt, err := Parse("test\n.tran 1u 1m\nR1 1 0 1k\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ckt.Analysis != AnalysisTRAN {
		t.Fatalf("Analysis = %v, want AnalysisTRAN", ckt.Analysis)
	}
	if ckt.TranParam.TStep != 1e-6 || ckt.TranParam.TStop != 1e-3 {
		t.Fatalf("unexpected tran params: %+v", ckt.TranParam)
	}
}

func TestParseDotDCDirective(t *testing.T) {
	ckt, err := Parse("test\n.dc V1 0 5 0.5\nV1 1 0 DC 0\nR1 1 0 1k\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ckt.Analysis != AnalysisDC {
		t.Fatalf("Analysis = %v, want AnalysisDC", ckt.Analysis)
	}
	if ckt.DCParam.Source1 != "V1" || ckt.DCParam.Start1 != 0 || ckt.DCParam.Stop1 != 5 || ckt.DCParam.Increment1 != 0.5 {
		t.Fatalf("unexpected dc params: %+v", ckt.DCParam)
	}
}

func TestParseDotACIsRejected(t *testing.T) {
	_, err := Parse("test\n.ac dec 10 1 1meg\nR1 1 0 1k\n")
	if !errors.Is(err, simerr.ParameterError) {
		t.Fatalf("expected ParameterError, got %v", err)
	}
}
