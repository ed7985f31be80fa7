// Package matrix owns the sparse Jacobian/residual storage and the
// regularised Newton linear solve.
package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
	"github.com/voltframe/mnacore/internal/simerr"
)

// CircuitMatrix is the sparse backing store for J and F. The spec
// calls the dense-vs-sparse choice for the linear solve
// "implementation free" (ยง4.3): the contract is only that the solver
// returns the Newton step to double-precision accuracy of a
// well-conditioned LU. This keeps the teacher's sparse solver rather
// than hand-rolling dense Gaussian elimination.
type CircuitMatrix struct {
	Size   int
	matrix *sparse.Matrix
	rhs    []float64
	x      []float64
	config *sparse.Configuration
}

// NewMatrix allocates an N×N sparse system with N = non-ground nodes
// plus branch unknowns.
func NewMatrix(size int) (*CircuitMatrix, error) {
	config := &sparse.Configuration{
		Real:           true,
		Complex:        false,
		Expandable:     true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}

	return &CircuitMatrix{
		Size:   size,
		matrix: mat,
		rhs:    make([]float64, size+1), // 1-based indexing
		x:      make([]float64, size+1),
		config: config,
	}, nil
}

// SetupElements pre-touches every (i,j) slot so later AddElement
// calls never trigger sparse-matrix growth mid-stamp.
func (m *CircuitMatrix) SetupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *CircuitMatrix) AddElement(i, j int, value float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
}

func (m *CircuitMatrix) AddRHS(i int, value float64) {
	if i <= 0 || i > m.Size {
		return
	}
	m.rhs[i] += value
}

// Clear zeroes J and F before the next stamp pass; companion-model
// memory (old/value pairs owned by each device) is untouched.
func (m *CircuitMatrix) Clear() {
	m.matrix.Clear()
	for i := range m.rhs {
		m.rhs[i] = 0
	}
}

// RegularizeAndSolve adds epsilon to every Jacobian diagonal entry
// (Tikhonov regularisation), factors and solves (J+epsilon*I)x = RHS.
// Every stamp folds its Newton correction into the RHS, so x is the
// next iterate itself rather than an increment. It returns simerr.SingularSystem if factorisation still fails under
// regularisation.
func (m *CircuitMatrix) RegularizeAndSolve(epsilon float64) ([]float64, error) {
	for i := 1; i <= m.Size; i++ {
		if diag := m.GetDiagElement(i); diag != nil {
			diag.Real += epsilon
		}
	}

	if err := m.matrix.Factor(); err != nil {
		return nil, fmt.Errorf("%w: %v", simerr.SingularSystem, err)
	}

	solution, err := m.matrix.Solve(m.rhs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", simerr.SingularSystem, err)
	}

	m.x = solution
	return solution, nil
}

func (m *CircuitMatrix) GetDiagElement(i int) *sparse.Element {
	if i <= 0 || i > m.Size {
		return nil
	}
	return m.matrix.Diags[i]
}

func (m *CircuitMatrix) RHS() []float64 { return m.rhs }

func (m *CircuitMatrix) Solution() []float64 { return m.x }

func (m *CircuitMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
