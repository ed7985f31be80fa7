package simulation

import (
	"fmt"

	"github.com/voltframe/mnacore/pkg/circuit"
	"github.com/voltframe/mnacore/pkg/device"
)

// SweepSim steps a named DC voltage source across a range, re-running
// a static solve at each point. Not named by the stamp library
// directly, but composed entirely from StaticSim's primitives.
type SweepSim struct {
	Circuit          *circuit.Circuit
	ConvergenceLimit int
	SourceName       string
	Start, Stop, Inc float64
}

// NewSweepSim constructs a DC sweep driver over an already-finalised
// circuit. SourceName must name a device.VoltageSource added to the
// circuit.
func NewSweepSim(ckt *circuit.Circuit, convergenceLimit int, sourceName string, start, stop, inc float64) *SweepSim {
	return &SweepSim{
		Circuit: ckt, ConvergenceLimit: convergenceLimit,
		SourceName: sourceName, Start: start, Stop: stop, Inc: inc,
	}
}

// Point is one swept solution: the independent-variable value and
// the solved unknown vector at that point.
type Point struct {
	Value    float64
	Solution []float64
}

// Run steps SourceName's value from Start to Stop by Inc, returning
// the solved unknown vector at each step.
func (s *SweepSim) Run() ([]Point, error) {
	var target *device.VoltageSource
	for _, dev := range s.Circuit.GetDevices() {
		if dev.GetName() == s.SourceName {
			v, ok := dev.(*device.VoltageSource)
			if !ok {
				return nil, fmt.Errorf("sweep source %q is not a voltage source", s.SourceName)
			}
			target = v
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("sweep source %q not found", s.SourceName)
	}

	var points []Point
	static := NewStaticSim(s.Circuit, s.ConvergenceLimit)

	if s.Inc == 0 {
		return nil, fmt.Errorf("sweep increment must be non-zero")
	}

	for v := s.Start; (s.Inc > 0 && v <= s.Stop) || (s.Inc < 0 && v >= s.Stop); v += s.Inc {
		target.SetDCValue(v)
		solution, err := static.Simulate()
		if err != nil {
			return points, fmt.Errorf("sweep at %s=%g: %w", s.SourceName, v, err)
		}
		points = append(points, Point{Value: v, Solution: append([]float64(nil), solution...)})
	}

	return points, nil
}
