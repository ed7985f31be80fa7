package device

import (
	"fmt"
	"math"

	"github.com/voltframe/mnacore/internal/simerr"
	"github.com/voltframe/mnacore/pkg/matrix"
)

// Diode implements the Shockley equation with reverse breakdown,
// linearised around the previous Newton iterate's junction voltage.
type Diode struct {
	BaseDevice
	Is      float64 // saturation current
	N       float64 // ideality factor
	Bv      float64 // breakdown voltage
	vd      float64 // companion junction voltage (from last UpdateVoltages)
	id      float64
	gd      float64
}

var _ NonLinear = (*Diode)(nil)

func NewDiode(name string, nodeNames []string, is, n, bv float64) (*Diode, error) {
	if len(nodeNames) != 2 {
		return nil, fmt.Errorf("diode %s: requires exactly 2 nodes", name)
	}
	if is <= 0 || n <= 0 || bv <= 0 {
		return nil, fmt.Errorf("diode %s: %w: Is, N and Bv must be positive", name, simerr.ParameterError)
	}
	return &Diode{BaseDevice: NewBaseDevice(name, is, nodeNames), Is: is, N: n, Bv: bv}, nil
}

// NewDefaultDiode applies the spec's testable-property defaults
// (Is=1e-12 A, n=1, T=293.15 K), leaving Bv at 40 V.
func NewDefaultDiode(name string, nodeNames []string) (*Diode, error) {
	return NewDiode(name, nodeNames, 1e-12, 1.0, 40.0)
}

func (d *Diode) GetType() string { return "D" }

// calculate returns (current, conductance) for junction voltage vd at
// thermal voltage vt, per the spec's exact forward/breakdown formulas.
func (d *Diode) calculate(vd, vt float64) (float64, float64) {
	nVt := d.N * vt

	if vd >= -d.Bv {
		expArg := vd / nVt
		if expArg > 80 {
			expArg = 80
		}
		e := math.Exp(expArg)
		return d.Is * (e - 1), d.Is / nVt * e
	}

	u := -d.Bv - vd
	expArg := u / nVt
	if expArg > 80 {
		expArg = 80
	}
	e := math.Exp(expArg)
	return -d.Is * e, d.Is / nVt * e
}

func (d *Diode) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := d.Nodes[0], d.Nodes[1]
	vt := status.Env.ThermalVoltage()

	id, gd := d.calculate(d.vd, vt)
	if status.Env != nil && gd < status.Env.GMin {
		gd = status.Env.GMin
	}
	d.id, d.gd = id, gd

	if n1 != 0 {
		m.AddElement(n1, n1, gd)
		if n2 != 0 {
			m.AddElement(n1, n2, -gd)
		}
		m.AddRHS(n1, -(id - gd*d.vd))
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddElement(n2, n1, -gd)
		}
		m.AddElement(n2, n2, gd)
		m.AddRHS(n2, id-gd*d.vd)
	}

	return nil
}

func (d *Diode) UpdateVoltages(voltages []float64) error {
	n1, n2 := d.Nodes[0], d.Nodes[1]
	v1, v2 := 0.0, 0.0
	if n1 != 0 {
		v1 = voltages[n1]
	}
	if n2 != 0 {
		v2 = voltages[n2]
	}
	d.vd = v1 - v2
	return nil
}
