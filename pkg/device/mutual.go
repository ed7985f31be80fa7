package device

import (
	"fmt"
	"math"

	"github.com/voltframe/mnacore/pkg/matrix"
)

// Mutual couples two or more inductors through a mutual-inductance
// coefficient k (0 < k <= 1), stamping the cross-branch coupling
// directly via each inductor's generalized branch index.
type Mutual struct {
	BaseDevice
	inductors   []InductorComponent
	names       []string
	coefficient float64
}

func NewMutual(name string, indNames []string, k float64) *Mutual {
	return &Mutual{
		BaseDevice:  BaseDevice{Name: name},
		names:       indNames,
		coefficient: k,
		inductors:   make([]InductorComponent, len(indNames)),
	}
}

func (m *Mutual) GetType() string { return "K" }

func (m *Mutual) SetInductor(index int, ind InductorComponent) error {
	if index < 0 || index >= len(m.inductors) {
		return fmt.Errorf("invalid inductor index: %d", index)
	}
	m.inductors[index] = ind
	return nil
}

func (m *Mutual) GetInductorNames() []string { return m.names }

func (m *Mutual) Stamp(mat matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(m.inductors) < 2 {
		return fmt.Errorf("mutual coupling %s requires at least two inductors", m.Name)
	}
	if status.Mode != TransientAnalysis {
		return nil
	}

	dt := status.TimeStep
	if dt <= 0 {
		return nil
	}

	for i := range m.inductors {
		for j := i + 1; j < len(m.inductors); j++ {
			li, lj := m.inductors[i], m.inductors[j]
			mij := m.coefficient * math.Sqrt(li.GetValue()*lj.GetValue())

			bi, bj := li.BranchIndex(), lj.BranchIndex()
			mat.AddElement(bi, bj, -mij/dt)
			mat.AddElement(bj, bi, -mij/dt)

			mat.AddRHS(bi, -mij*lj.GetCurrent()/dt)
			mat.AddRHS(bj, -mij*li.GetCurrent()/dt)
		}
	}

	return nil
}
