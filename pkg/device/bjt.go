package device

import (
	"fmt"
	"math"

	"github.com/voltframe/mnacore/pkg/matrix"
)

// BJT implements a simplified Gummel-Poon npn model (collector, base,
// emitter), following the Ebers-Moll companion-model linearisation:
// forward and reverse base-emitter/base-collector diode currents are
// evaluated at the previous Newton iterate and stamped as a
// conductance/current-source pair at each terminal.
type BJT struct {
	BaseDevice
	Is  float64 // transport saturation current
	Bf  float64 // ideal maximum forward beta
	Br  float64 // ideal maximum reverse beta
	Nf  float64 // forward emission coefficient
	Nr  float64 // reverse emission coefficient
	Vaf float64 // forward Early voltage (0 disables)

	vbe, vbc       float64 // companion operating point
	ic, ib, ie     float64
	gm, gpi, gmu, gout float64
}

var _ NonLinear = (*BJT)(nil)

func NewBJT(name string, nodeNames []string, is, bf, br float64) (*BJT, error) {
	if len(nodeNames) != 3 {
		return nil, fmt.Errorf("bjt %s: requires exactly 3 nodes (collector, base, emitter)", name)
	}
	return &BJT{
		BaseDevice: NewBaseDevice(name, is, nodeNames),
		Is:         is, Bf: bf, Br: br,
		Nf: 1.0, Nr: 1.0, Vaf: 100.0,
	}, nil
}

// NewDefaultBJT applies representative silicon-transistor defaults.
func NewDefaultBJT(name string, nodeNames []string) (*BJT, error) {
	return NewBJT(name, nodeNames, 1e-16, 100.0, 1.0)
}

func (b *BJT) GetType() string { return "Q" }

func (b *BJT) diodeCurrent(v, is, nVt float64) (float64, float64) {
	if v < -3*nVt {
		return -is, 0
	}
	arg := v / nVt
	if arg > 80 {
		arg = 80
	}
	e := math.Exp(arg)
	return is * (e - 1), is / nVt * e
}

func (b *BJT) Stamp(mat matrix.DeviceMatrix, status *CircuitStatus) error {
	nc, nb, ne := b.Nodes[0], b.Nodes[1], b.Nodes[2]
	vt := status.Env.ThermalVoltage()
	gMin := status.Env.GMin

	iF, gF := b.diodeCurrent(b.vbe, b.Is, b.Nf*vt)
	iR, gR := b.diodeCurrent(b.vbc, b.Is, b.Nr*vt)

	if b.Vaf > 0 {
		iF *= 1 + b.vbc/b.Vaf
	}

	b.ic = iF - iR
	b.ib = iF/b.Bf + iR/b.Br
	b.ie = -(b.ic + b.ib)

	b.gm = gF
	b.gpi = gF/b.Bf + gR/b.Br
	b.gmu = gR
	b.gout = gMin
	if b.Vaf > 0 {
		b.gout += math.Abs(b.ic) / b.Vaf
	}
	if b.gpi < gMin {
		b.gpi = gMin
	}
	if b.gmu < gMin {
		b.gmu = gMin
	}

	if nc != 0 {
		mat.AddElement(nc, nc, b.gout+b.gmu)
		if nb != 0 {
			mat.AddElement(nc, nb, -b.gmu+b.gm)
		}
		if ne != 0 {
			mat.AddElement(nc, ne, -b.gout-b.gm)
		}
		mat.AddRHS(nc, -(b.ic - b.gout*(b.vbe-b.vbc) + b.gmu*b.vbc - b.gm*b.vbe))
	}
	if nb != 0 {
		mat.AddElement(nb, nb, b.gpi+b.gmu)
		if nc != 0 {
			mat.AddElement(nb, nc, -b.gmu)
		}
		if ne != 0 {
			mat.AddElement(nb, ne, -b.gpi)
		}
		mat.AddRHS(nb, -(b.ib - b.gpi*b.vbe + b.gmu*b.vbc))
	}
	if ne != 0 {
		mat.AddElement(ne, ne, b.gout+b.gm+b.gpi)
		if nc != 0 {
			mat.AddElement(ne, nc, -b.gout-b.gm)
		}
		if nb != 0 {
			mat.AddElement(ne, nb, -b.gpi)
		}
		mat.AddRHS(ne, -(b.ie + b.gout*(b.vbe-b.vbc) + b.gpi*b.vbe + b.gm*b.vbe))
	}

	return nil
}

func (b *BJT) UpdateVoltages(voltages []float64) error {
	nc, nb, ne := b.Nodes[0], b.Nodes[1], b.Nodes[2]
	vc, vb, ve := 0.0, 0.0, 0.0
	if nc != 0 {
		vc = voltages[nc]
	}
	if nb != 0 {
		vb = voltages[nb]
	}
	if ne != 0 {
		ve = voltages[ne]
	}
	b.vbe = vb - ve
	b.vbc = vb - vc
	return nil
}
