package device

import (
	"fmt"
	"math"

	"github.com/voltframe/mnacore/pkg/matrix"
)

// OpAmp is a five-terminal ideal operational amplifier: inverting
// input, non-inverting input, output, V+ supply, V- supply. It
// introduces one branch current through the output. The ideal output
//
//	U = gain*(vNoninv - vInv - inputOffset) - outputImpedance*iOut
//
// is clamped by slew rate and by the supply rails; when clamped the
// branch row omits the gain terms and pins the output to the clamp
// value for that Newton iteration. An input resistor of inputImpedance
// is stamped unconditionally between the two inputs — this is the
// residual conductance the spec calls for to keep Newton convergence
// stable while the gain terms are zeroed under clamping.
type OpAmp struct {
	BaseDevice
	gain            float64
	inputImpedance  float64
	outputImpedance float64
	slewRate        float64
	satOffset       float64
	inputOffset     float64

	branchIdx int

	outputOld float64 // companion memory across transient steps

	clamped bool
	uClamp  float64
}

var _ BranchRequester = (*OpAmp)(nil)
var _ NonLinear = (*OpAmp)(nil)
var _ TimeDependent = (*OpAmp)(nil)

func NewOpAmp(name string, nodeNames []string, gain, inputImpedance, outputImpedance, slewRate, satOffset, inputOffset float64) (*OpAmp, error) {
	if len(nodeNames) != 5 {
		return nil, fmt.Errorf("opamp %s: requires exactly 5 nodes (inv, noninv, out, v+, v-)", name)
	}
	return &OpAmp{
		BaseDevice:      NewBaseDevice(name, gain, nodeNames),
		gain:            gain,
		inputImpedance:  inputImpedance,
		outputImpedance: outputImpedance,
		slewRate:        slewRate,
		satOffset:       satOffset,
		inputOffset:     inputOffset,
	}, nil
}

// NewIdealOpAmp uses representative default parameters for a general
// purpose op-amp (open-loop gain 1e5, 1 MOhm input impedance, 75 Ohm
// output impedance, 0.5 V/us slew rate, 1.5 V saturation headroom).
func NewIdealOpAmp(name string, nodeNames []string) (*OpAmp, error) {
	return NewOpAmp(name, nodeNames, 1e5, 1e6, 75, 0.5e6, 1.5, 0)
}

func (o *OpAmp) GetType() string { return "O" }

func (o *OpAmp) RequestsBranch() bool { return true }
func (o *OpAmp) BranchIndex() int { return o.branchIdx }
func (o *OpAmp) SetBranchIndex(i int) { o.branchIdx = i }

func (o *OpAmp) SetTimeStep(dt float64) {}

// UpdateVoltages re-evaluates the clamp region from the working
// solution, ahead of the next Stamp call.
func (o *OpAmp) UpdateVoltages(voltages []float64) error {
	vInv, vNoninv, vPos, vNeg := 0.0, 0.0, 0.0, 0.0
	if o.Nodes[0] != 0 {
		vInv = voltages[o.Nodes[0]]
	}
	if o.Nodes[1] != 0 {
		vNoninv = voltages[o.Nodes[1]]
	}
	if o.Nodes[3] != 0 {
		vPos = voltages[o.Nodes[3]]
	}
	if o.Nodes[4] != 0 {
		vNeg = voltages[o.Nodes[4]]
	}
	iOut := voltages[o.branchIdx]

	uIdeal := o.gain*(vNoninv-vInv-o.inputOffset) - o.outputImpedance*iOut

	hi, lo := vPos-o.satOffset, vNeg+o.satOffset
	if hi < lo {
		hi, lo = (vPos+vNeg)/2, (vPos+vNeg)/2
	}

	switch {
	case uIdeal > hi:
		o.clamped, o.uClamp = true, hi
	case uIdeal < lo:
		o.clamped, o.uClamp = true, lo
	default:
		o.clamped, o.uClamp = false, uIdeal
	}

	return nil
}

// applySlew clamps uIdeal against the slew-rate limit relative to the
// previously accepted output, only meaningful in transient mode.
func (o *OpAmp) applySlew(dt float64) {
	if o.clamped || dt <= 0 || o.slewRate <= 0 {
		return
	}
	maxStep := o.slewRate * dt
	delta := o.uClamp - o.outputOld
	if math.Abs(delta) > maxStep {
		o.clamped = true
		if delta > 0 {
			o.uClamp = o.outputOld + maxStep
		} else {
			o.uClamp = o.outputOld - maxStep
		}
	}
}

func (o *OpAmp) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	inv, noninv, out := o.Nodes[0], o.Nodes[1], o.Nodes[2]
	bIdx := o.branchIdx

	if status.Mode == TransientAnalysis {
		o.applySlew(status.TimeStep)
	}

	if out != 0 {
		m.AddElement(out, bIdx, 1)
		m.AddElement(bIdx, out, 1)
	}

	if o.clamped {
		m.AddRHS(bIdx, o.uClamp)
	} else {
		if noninv != 0 {
			m.AddElement(bIdx, noninv, -o.gain)
		}
		if inv != 0 {
			m.AddElement(bIdx, inv, o.gain)
		}
		m.AddElement(bIdx, bIdx, o.outputImpedance)
		m.AddRHS(bIdx, -o.gain*o.inputOffset)
	}

	// Input resistor between the two inputs, stamped unconditionally.
	gIn := 1.0 / o.inputImpedance
	if inv != 0 {
		m.AddElement(inv, inv, gIn)
		if noninv != 0 {
			m.AddElement(inv, noninv, -gIn)
		}
	}
	if noninv != 0 {
		m.AddElement(noninv, noninv, gIn)
		if inv != 0 {
			m.AddElement(noninv, inv, -gIn)
		}
	}

	return nil
}

func (o *OpAmp) UpdateState(voltages []float64, status *CircuitStatus) {
	o.outputOld = voltages[o.Nodes[2]]
}
