package device

import (
	"fmt"

	"github.com/voltframe/mnacore/pkg/matrix"
)

// Switch behaves as a conductance: closedG when closed, openG when
// open. State is mutable between simulation steps but must not change
// within a Newton iteration (the driver only toggles it between
// accepted steps).
type Switch struct {
	BaseDevice
	closed  bool
	closedG float64
	openG   float64
}

func NewSwitch(name string, nodeNames []string, closed bool) *Switch {
	return &Switch{
		BaseDevice: NewBaseDevice(name, 0, nodeNames),
		closed:     closed,
		closedG:    1e12,
		openG:      1e-12,
	}
}

func (s *Switch) GetType() string { return "SW" }

func (s *Switch) Close()  { s.closed = true }
func (s *Switch) Open()   { s.closed = false }
func (s *Switch) Toggle() { s.closed = !s.closed }
func (s *Switch) IsClosed() bool { return s.closed }

func (s *Switch) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(s.Nodes) != 2 {
		return fmt.Errorf("switch %s: requires exactly 2 nodes", s.Name)
	}

	g := s.openG
	if s.closed {
		g = s.closedG
	}

	n1, n2 := s.Nodes[0], s.Nodes[1]
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
