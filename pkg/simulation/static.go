// Package simulation drives a finalised circuit through the static
// and transient Newton-Raphson loops, and the background worker that
// runs transient step batches cooperatively.
package simulation

import (
	"fmt"
	"math"

	"github.com/voltframe/mnacore/internal/consts"
	"github.com/voltframe/mnacore/internal/simerr"
	"github.com/voltframe/mnacore/pkg/circuit"
	"github.com/voltframe/mnacore/pkg/device"
)

// StaticSim drives a single operating-point solve: one Newton loop,
// no companion-model advance.
type StaticSim struct {
	Circuit          *circuit.Circuit
	ConvergenceLimit int
}

// NewStaticSim constructs a driver for an already-finalised circuit.
func NewStaticSim(ckt *circuit.Circuit, convergenceLimit int) *StaticSim {
	return &StaticSim{Circuit: ckt, ConvergenceLimit: convergenceLimit}
}

// Simulate runs the Newton loop to convergence and returns the solved
// unknown vector. Voltage-defining components with no DC definition
// (AC, sweep) reject the stamp with StaticModeRejected.
func (s *StaticSim) Simulate() ([]float64, error) {
	status := &device.CircuitStatus{Mode: device.OperatingPointAnalysis, Env: s.Circuit.Env}
	return newtonSolve(s.Circuit, status, s.ConvergenceLimit, nil)
}

// newtonSolve is the shared Newton-Raphson loop used by both static
// and transient drivers: stamp at the previous iterate, solve the
// regularised linear system (the per-device RHS already encodes the
// Newton correction, so the solve's result is the next iterate
// directly, not an increment), and stop once the step moves every
// unknown by less than the delta tolerance.
func newtonSolve(ckt *circuit.Circuit, status *device.CircuitStatus, convergenceLimit int, initialGuess []float64) ([]float64, error) {
	size := ckt.Size()
	prev := make([]float64, size+1)
	if initialGuess != nil {
		copy(prev, initialGuess)
	}

	for iter := 0; iter < convergenceLimit; iter++ {
		if err := ckt.UpdateNonlinearVoltages(prev); err != nil {
			return nil, fmt.Errorf("updating nonlinear voltages: %w", err)
		}
		if err := ckt.Stamp(status); err != nil {
			return nil, err
		}

		next, err := ckt.Matrix.RegularizeAndSolve(consts.NewtonRegularization)
		if err != nil {
			return nil, err
		}

		maxDelta := 0.0
		for i := 1; i <= size; i++ {
			d := math.Abs(next[i] - prev[i])
			if d > maxDelta {
				maxDelta = d
			}
		}

		prev = next
		if maxDelta < consts.DeltaTolerance {
			return next, nil
		}
	}

	return nil, fmt.Errorf("static solve: %w", simerr.NonConvergence)
}
