package device

import (
	"fmt"
	"math"

	"github.com/voltframe/mnacore/pkg/matrix"
)

// region labels for an n-channel MOSFET's operating point.
const (
	mosfetCutoff = iota
	mosfetLinear
	mosfetSaturation
)

// MOSFET implements the Shichman-Hodges n-channel model over three
// terminals: gate, source, drain. There is no bulk terminal and no
// body effect; beta = mobility*Cox/2*(W/L) is supplied directly as
// Beta rather than derived from oxide geometry.
type MOSFET struct {
	BaseDevice
	Vth  float64 // threshold voltage
	Beta float64 // transconductance coefficient

	vgs, vds   float64 // companion operating point (from last UpdateVoltages)
	id, gm, gds float64
	region     int
}

var _ NonLinear = (*MOSFET)(nil)

func NewMOSFET(name string, nodeNames []string, vth, beta float64) (*MOSFET, error) {
	if len(nodeNames) != 3 {
		return nil, fmt.Errorf("mosfet %s: requires exactly 3 nodes (gate, source, drain)", name)
	}
	return &MOSFET{BaseDevice: NewBaseDevice(name, beta, nodeNames), Vth: vth, Beta: beta}, nil
}

// NewMOSFETFromGeometry derives Beta from electron mobility, oxide
// capacitance per unit area, and channel width/length, matching the
// way the component is parametrised in the originating simulator.
func NewMOSFETFromGeometry(name string, nodeNames []string, vth, mobility, cox, width, length float64) (*MOSFET, error) {
	return NewMOSFET(name, nodeNames, vth, (mobility*cox/2)*(width/length))
}

func (m *MOSFET) GetType() string { return "M" }

// calculate returns (id, gm, gds, region) at the given operating
// point, following the cutoff/linear/saturation split literally. In
// cutoff the id and gds slots carry sign(vds) only; Stamp scales them
// by iMin and gMin.
func (m *MOSFET) calculate(vgs, vds float64) (float64, float64, float64, int) {
	if vgs < m.Vth {
		sign := math.Copysign(1, vds)
		return sign, 0, sign, mosfetCutoff
	}

	if vds < vgs-m.Vth {
		id := m.Beta * (2*(vgs-m.Vth)*vds - vds*vds)
		gm := 2 * m.Beta * vds
		gds := 2 * m.Beta * (vgs - m.Vth - vds)
		return id, gm, gds, mosfetLinear
	}

	id := m.Beta * (vgs - m.Vth) * (vgs - m.Vth)
	gm := 2 * m.Beta * (vgs - m.Vth)
	return id, gm, 0, mosfetSaturation
}

func (m *MOSFET) Stamp(mat matrix.DeviceMatrix, status *CircuitStatus) error {
	gate, source, drain := m.Nodes[0], m.Nodes[1], m.Nodes[2]

	idRaw, gm, gds, region := m.calculate(m.vgs, m.vds)
	m.region = region

	gMin, iMin := 0.0, 0.0
	if status.Env != nil {
		gMin, iMin = status.Env.GMin, status.Env.IMin
	}

	id := idRaw
	if region == mosfetCutoff {
		id = idRaw * iMin
		gds = gds * gMin
	} else if gds < gMin {
		gds = gMin
	}
	m.id, m.gm, m.gds = id, gm, gds

	if drain != 0 {
		mat.AddElement(drain, drain, gds)
		if gate != 0 {
			mat.AddElement(drain, gate, gm)
		}
		if source != 0 {
			mat.AddElement(drain, source, -gds-gm)
		}
		mat.AddRHS(drain, -id+gds*m.vds+gm*m.vgs)
	}
	if source != 0 {
		mat.AddElement(source, source, gds+gm)
		if drain != 0 {
			mat.AddElement(source, drain, -gds)
		}
		if gate != 0 {
			mat.AddElement(source, gate, -gm)
		}
		mat.AddRHS(source, id-gds*m.vds-gm*m.vgs)
	}

	// Gate leakage floor, linearised around the last iterate's sign.
	if gate != 0 {
		sign := math.Copysign(1, m.vgs)
		mat.AddElement(gate, gate, gMin*sign)
		mat.AddRHS(gate, gMin*sign*m.vgs-iMin*sign)
	}

	return nil
}

func (m *MOSFET) UpdateVoltages(voltages []float64) error {
	gate, source, drain := m.Nodes[0], m.Nodes[1], m.Nodes[2]
	vg, vs, vd := 0.0, 0.0, 0.0
	if gate != 0 {
		vg = voltages[gate]
	}
	if source != 0 {
		vs = voltages[source]
	}
	if drain != 0 {
		vd = voltages[drain]
	}
	m.vgs = vg - vs
	m.vds = vd - vs
	return nil
}

// GetRegion reports the last-computed operating region (0=cutoff,
// 1=linear, 2=saturation), useful for diagnostics and tests.
func (m *MOSFET) GetRegion() int { return m.region }
