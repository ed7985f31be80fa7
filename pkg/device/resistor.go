package device

import (
	"fmt"

	"github.com/voltframe/mnacore/internal/simerr"
	"github.com/voltframe/mnacore/pkg/matrix"
)

// Resistor is a linear, two-terminal component: g = 1/R.
type Resistor struct {
	BaseDevice
}

func NewResistor(name string, nodeNames []string, value float64) (*Resistor, error) {
	if value <= 0 {
		return nil, fmt.Errorf("resistor %s: %w: resistance must be positive, got %g", name, simerr.ParameterError, value)
	}
	return &Resistor{BaseDevice: NewBaseDevice(name, value, nodeNames)}, nil
}

func (r *Resistor) GetType() string { return "R" }

func (r *Resistor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(r.Nodes) != 2 {
		return fmt.Errorf("resistor %s: requires exactly 2 nodes", r.Name)
	}

	n1, n2 := r.Nodes[0], r.Nodes[1]
	g := 1.0 / r.Value

	if n1 != 0 {
		m.AddElement(n1, n1, g)
		if n2 != 0 {
			m.AddElement(n1, n2, -g)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddElement(n2, n1, -g)
		}
		m.AddElement(n2, n2, g)
	}

	return nil
}
