package device

import (
	"fmt"
	"math"

	"github.com/voltframe/mnacore/internal/simerr"
	"github.com/voltframe/mnacore/pkg/matrix"
)

// VoltageSourceKind selects which waveform V(t) follows.
type VoltageSourceKind int

const (
	VoltageDC VoltageSourceKind = iota
	VoltageAC                   // V_peak * sin(2*pi*f*t)
	VoltageSweep                // V_start + rate*t
)

// VoltageSource is a two-terminal voltage-defining component with
// branch current i_v.
type VoltageSource struct {
	BaseDevice
	kind      VoltageSourceKind
	dcValue   float64
	peak      float64 // AC amplitude
	freq      float64 // AC frequency (Hz)
	phase     float64 // AC phase (degrees)
	start     float64 // sweep start value
	rate      float64 // sweep rate (V/s)
	branchIdx int
}

var _ BranchRequester = (*VoltageSource)(nil)

func NewDCVoltageSource(name string, nodeNames []string, value float64) *VoltageSource {
	return &VoltageSource{BaseDevice: NewBaseDevice(name, value, nodeNames), kind: VoltageDC, dcValue: value}
}

func NewACVoltageSource(name string, nodeNames []string, peak, freq, phase float64) *VoltageSource {
	return &VoltageSource{BaseDevice: NewBaseDevice(name, peak, nodeNames), kind: VoltageAC, peak: peak, freq: freq, phase: phase}
}

func NewSweepVoltageSource(name string, nodeNames []string, start, rate float64) *VoltageSource {
	return &VoltageSource{BaseDevice: NewBaseDevice(name, start, nodeNames), kind: VoltageSweep, start: start, rate: rate}
}

func (v *VoltageSource) GetType() string { return "V" }

// SetDCValue updates a DC source's constant value in place, e.g. for
// a sweep driver stepping through an operating-point range.
func (v *VoltageSource) SetDCValue(value float64) {
	v.dcValue = value
	v.Value = value
}

func (v *VoltageSource) RequestsBranch() bool { return true }
func (v *VoltageSource) BranchIndex() int { return v.branchIdx }
func (v *VoltageSource) SetBranchIndex(i int) { v.branchIdx = i }

// Voltage returns V(t) at the given simulated time.
func (v *VoltageSource) Voltage(time float64) float64 {
	switch v.kind {
	case VoltageDC:
		return v.dcValue
	case VoltageAC:
		phaseRad := v.phase * math.Pi / 180.0
		return v.peak * math.Sin(2.0*math.Pi*v.freq*time+phaseRad)
	case VoltageSweep:
		return v.start + v.rate*time
	default:
		return 0
	}
}

func (v *VoltageSource) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if status.Mode == OperatingPointAnalysis && v.kind != VoltageDC {
		return fmt.Errorf("voltage source %s: %w", v.Name, simerr.StaticModeRejected)
	}

	n1, n2 := v.Nodes[0], v.Nodes[1]
	bIdx := v.branchIdx

	if n1 != 0 {
		m.AddElement(bIdx, n1, 1)
		m.AddElement(n1, bIdx, 1)
	}
	if n2 != 0 {
		m.AddElement(bIdx, n2, -1)
		m.AddElement(n2, bIdx, -1)
	}

	time := 0.0
	if status.Env != nil {
		time = status.Env.Time
	}
	m.AddRHS(bIdx, v.Voltage(time))

	return nil
}
