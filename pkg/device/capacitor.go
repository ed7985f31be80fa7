package device

import (
	"fmt"

	"github.com/voltframe/mnacore/internal/simerr"
	"github.com/voltframe/mnacore/pkg/matrix"
)

// Capacitor is a two-terminal reactive component using the
// backward-Euler companion model in transient mode. In static mode it
// is open-circuit (spec: "capacitor is open-circuit; stamp
// contributes nothing, or equivalently gMin to avoid floating
// nodes") — this implementation stamps gMin rather than nothing, so a
// capacitor-only loop never floats a node during the DC solve.
type Capacitor struct {
	BaseDevice
	voltage    float64 // current companion voltage
	voltageOld float64 // previous accepted voltage
}

var _ TimeDependent = (*Capacitor)(nil)

func NewCapacitor(name string, nodeNames []string, value float64) (*Capacitor, error) {
	if value <= 0 {
		return nil, fmt.Errorf("capacitor %s: %w: capacitance must be positive, got %g", name, simerr.ParameterError, value)
	}
	return &Capacitor{BaseDevice: NewBaseDevice(name, value, nodeNames)}, nil
}

func (c *Capacitor) GetType() string { return "C" }

func (c *Capacitor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := c.Nodes[0], c.Nodes[1]

	if status.Mode == OperatingPointAnalysis {
		gmin := status.Env.GMin
		if n1 != 0 {
			m.AddElement(n1, n1, gmin)
			if n2 != 0 {
				m.AddElement(n1, n2, -gmin)
			}
		}
		if n2 != 0 {
			m.AddElement(n2, n2, gmin)
			if n1 != 0 {
				m.AddElement(n2, n1, -gmin)
			}
		}
		return nil
	}

	dt := status.TimeStep
	gc := c.Value / dt
	ceq := gc * c.voltageOld

	if n1 != 0 {
		m.AddElement(n1, n1, gc)
		if n2 != 0 {
			m.AddElement(n1, n2, -gc)
		}
		m.AddRHS(n1, ceq)
	}
	if n2 != 0 {
		m.AddElement(n2, n2, gc)
		if n1 != 0 {
			m.AddElement(n2, n1, -gc)
		}
		m.AddRHS(n2, -ceq)
	}

	return nil
}

func (c *Capacitor) SetTimeStep(dt float64) {}

func (c *Capacitor) UpdateState(voltages []float64, status *CircuitStatus) {
	v1, v2 := 0.0, 0.0
	if c.Nodes[0] != 0 {
		v1 = voltages[c.Nodes[0]]
	}
	if c.Nodes[1] != 0 {
		v2 = voltages[c.Nodes[1]]
	}
	c.voltageOld = v1 - v2
}
