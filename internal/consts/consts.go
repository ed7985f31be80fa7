// Package consts holds the physical constants and numerical defaults shared
// by the environment and the component stamp library.
package consts

const (
	Charge    = 1.60217662e-19 // Elementary charge q (C)
	Boltzmann = 1.38064852e-23 // Boltzmann constant k (J/K)
	Kelvin    = 273.15         // 0 degC in Kelvin

	DefaultTemperature = 293.15 // Default ambient temperature (K), 20 degC

	DefaultGMin = 1e-12 // Minimum conductance noise floor
	DefaultIMin = 1e-9  // Minimum current noise floor

	// NewtonRegularization is the Tikhonov term added to every Jacobian
	// diagonal entry before the linear solve, so a momentarily singular
	// system (a zero-resistance loop, a railed conductance) still factors.
	NewtonRegularization = 1e-12

	// DeltaTolerance is the Newton step-size convergence threshold:
	// the loop stops once max_i |dx_i| falls below it.
	DeltaTolerance = 1e-5
)
