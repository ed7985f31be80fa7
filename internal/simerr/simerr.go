// Package simerr defines the distinguishable failure kinds the solver
// and simulation drivers can report, per the engine's error taxonomy.
package simerr

import "errors"

var (
	// NonConvergence means the Newton loop hit its iteration limit
	// without max|Δx| falling below the delta tolerance.
	NonConvergence = errors.New("non-convergence: Newton iteration limit reached")

	// SingularSystem means LU factorisation reported a zero pivot even
	// with Tikhonov regularisation applied.
	SingularSystem = errors.New("singular system: factorisation failed under regularisation")

	// StaticModeRejected is raised by components with no DC definition
	// (AC source, sweep source) when asked for a static stamp.
	StaticModeRejected = errors.New("static mode rejected: component has no DC definition")

	// TopologyError is raised at finalise: no ground declared, a
	// duplicate branch unknown, or a node referenced but never added.
	TopologyError = errors.New("topology error")

	// ParameterError is raised at construction time for non-physical
	// parameters (negative resistance, zero inductance, etc).
	ParameterError = errors.New("parameter error")
)
