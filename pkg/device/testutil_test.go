package device

import "github.com/voltframe/mnacore/pkg/env"

// recordingMatrix captures stamp accumulations for direct assertions,
// without requiring a solved circuit.
type recordingMatrix struct {
	elements map[[2]int]float64
	rhs      map[int]float64
}

func newRecordingMatrix() *recordingMatrix {
	return &recordingMatrix{elements: make(map[[2]int]float64), rhs: make(map[int]float64)}
}

func (m *recordingMatrix) AddElement(i, j int, value float64) { m.elements[[2]int{i, j}] += value }
func (m *recordingMatrix) AddRHS(i int, value float64)        { m.rhs[i] += value }

func staticStatus() *CircuitStatus {
	return &CircuitStatus{Mode: OperatingPointAnalysis, Env: env.New()}
}

func transientStatus(dt float64) *CircuitStatus {
	return &CircuitStatus{Mode: TransientAnalysis, TimeStep: dt, Env: env.New()}
}
