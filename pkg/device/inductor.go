package device

import (
	"fmt"

	"github.com/voltframe/mnacore/internal/simerr"
	"github.com/voltframe/mnacore/pkg/matrix"
)

// Inductor is a two-terminal voltage-defining component. It
// introduces a branch-current unknown and uses the backward-Euler
// companion model (gl = L/h), the same Δt scaling the mutual-coupling
// stamp uses. In static mode it behaves as a zero-volt branch (short).
type Inductor struct {
	BaseDevice
	current    float64 // last accepted branch current (i_L_old for the next step)
	currentOld float64 // accepted branch current one step before that
	branchIdx  int
}

var _ TimeDependent = (*Inductor)(nil)
var _ BranchRequester = (*Inductor)(nil)

func NewInductor(name string, nodeNames []string, value float64) (*Inductor, error) {
	if value <= 0 {
		return nil, fmt.Errorf("inductor %s: %w: inductance must be positive, got %g", name, simerr.ParameterError, value)
	}
	return &Inductor{BaseDevice: NewBaseDevice(name, value, nodeNames)}, nil
}

func (l *Inductor) GetType() string { return "L" }

func (l *Inductor) RequestsBranch() bool { return true }
func (l *Inductor) BranchIndex() int { return l.branchIdx }
func (l *Inductor) SetBranchIndex(i int) { l.branchIdx = i }
func (l *Inductor) GetCurrent() float64 { return l.current }
func (l *Inductor) GetPreviousCurrent() float64 { return l.currentOld }

func (l *Inductor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := l.Nodes[0], l.Nodes[1]
	bIdx := l.branchIdx

	if n1 != 0 {
		m.AddElement(n1, bIdx, 1)
		m.AddElement(bIdx, n1, 1)
	}
	if n2 != 0 {
		m.AddElement(n2, bIdx, -1)
		m.AddElement(bIdx, n2, -1)
	}

	if status.Mode == OperatingPointAnalysis {
		// Short: F[i_L] += (v_a - v_b), no current-dependent term.
		return nil
	}

	dt := status.TimeStep
	if dt <= 0 {
		return fmt.Errorf("inductor %s: non-positive time step", l.Name)
	}
	// v_a - v_b - (L/h)*i_L = -(L/h)*i_L_old
	gl := l.Value / dt
	m.AddElement(bIdx, bIdx, -gl)
	m.AddRHS(bIdx, -gl*l.current)

	return nil
}

func (l *Inductor) SetTimeStep(dt float64) {}

func (l *Inductor) UpdateState(voltages []float64, status *CircuitStatus) {
	l.currentOld = l.current
	l.current = voltages[l.branchIdx]
}
