package simulation

import (
	"fmt"

	"github.com/voltframe/mnacore/pkg/circuit"
	"github.com/voltframe/mnacore/pkg/device"
)

// TransientSim drives repeated fixed-step solves, advancing companion
// memory and simulated time only when a step converges.
type TransientSim struct {
	Circuit          *circuit.Circuit
	ConvergenceLimit int
	DeltaT           float64

	lastSolution []float64
}

// NewTransientSim constructs a driver for an already-finalised
// circuit. DeltaT is the fixed integration step in seconds.
func NewTransientSim(ckt *circuit.Circuit, convergenceLimit int, deltaT float64) *TransientSim {
	ckt.SetTimeStep(deltaT)
	return &TransientSim{Circuit: ckt, ConvergenceLimit: convergenceLimit, DeltaT: deltaT}
}

// Step advances the circuit by one DeltaT. On success, every
// reactive/time-dependent component's companion memory is committed
// (old <- value) and Environment.Time advances; on failure the
// failure propagates without advancing time or state.
func (t *TransientSim) Step() ([]float64, error) {
	status := &device.CircuitStatus{Mode: device.TransientAnalysis, TimeStep: t.DeltaT, Env: t.Circuit.Env}

	solution, err := newtonSolve(t.Circuit, status, t.ConvergenceLimit, t.lastSolution)
	if err != nil {
		return nil, fmt.Errorf("transient step at t=%g: %w", t.Circuit.Env.Time, err)
	}

	t.Circuit.AdvanceState(solution)
	t.Circuit.Env.Time += t.DeltaT
	t.lastSolution = solution

	return solution, nil
}

// LastSolution returns the most recently accepted solution, or nil if
// no step has yet converged.
func (t *TransientSim) LastSolution() []float64 { return t.lastSolution }
