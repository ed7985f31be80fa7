// Package env holds the process-wide physical constants and the
// current simulation time shared read-only by every component stamp.
package env

import "github.com/voltframe/mnacore/internal/consts"

// Environment is shared read-only by stamps; only the simulation
// driver advances Time.
type Environment struct {
	Temperature float64 // Kelvin
	Boltzmann   float64 // J/K
	Charge      float64 // C
	GMin        float64 // minimum conductance noise floor
	IMin        float64 // minimum current noise floor
	Time        float64 // seconds since start
}

// New returns an Environment with the spec's default constants.
func New() *Environment {
	return &Environment{
		Temperature: consts.DefaultTemperature,
		Boltzmann:   consts.Boltzmann,
		Charge:      consts.Charge,
		GMin:        consts.DefaultGMin,
		IMin:        consts.DefaultIMin,
		Time:        0,
	}
}

// ThermalVoltage returns Vt = kT/q at the environment's temperature.
func (e *Environment) ThermalVoltage() float64 {
	return e.Boltzmann * e.Temperature / e.Charge
}
