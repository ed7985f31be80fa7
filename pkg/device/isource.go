package device

import (
	"math"

	"github.com/voltframe/mnacore/pkg/matrix"
)

// SourceType selects which waveform a CurrentSource follows.
type SourceType int

const (
	DC SourceType = iota
	SIN
	PULSE
	PWL
)

// CurrentSource is a two-terminal current-injecting component. Unlike
// a voltage source it needs no branch unknown.
type CurrentSource struct {
	BaseDevice
	ctype SourceType
	// DC, common
	dcValue float64
	// SIN
	amplitude float64
	freq      float64
	phase     float64
	// PULSE
	i1     float64
	i2     float64
	delay  float64
	rise   float64
	fall   float64
	pWidth float64
	period float64
	// PWL
	times  []float64
	values []float64
}

func NewDCCurrentSource(name string, nodeNames []string, value float64) *CurrentSource {
	return &CurrentSource{BaseDevice: NewBaseDevice(name, value, nodeNames), ctype: DC, dcValue: value}
}

func NewSinCurrentSource(name string, nodeNames []string, offset, amplitude, freq, phase float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: NewBaseDevice(name, offset, nodeNames),
		ctype:      SIN, dcValue: offset, amplitude: amplitude, freq: freq, phase: phase,
	}
}

func NewPulseCurrentSource(name string, nodeNames []string, i1, i2, delay, rise, fall, pWidth, period float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: NewBaseDevice(name, i1, nodeNames),
		ctype:      PULSE, i1: i1, i2: i2, delay: delay, rise: rise, fall: fall, pWidth: pWidth, period: period,
	}
}

func NewPWLCurrentSource(name string, nodeNames []string, times, values []float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: NewBaseDevice(name, values[0], nodeNames),
		ctype:      PWL, times: times, values: values,
	}
}

func (i *CurrentSource) GetType() string { return "I" }

func (i *CurrentSource) Current(t float64) float64 {
	switch i.ctype {
	case DC:
		return i.dcValue
	case SIN:
		phaseRad := i.phase * math.Pi / 180.0
		return i.dcValue + i.amplitude*math.Sin(2.0*math.Pi*i.freq*t+phaseRad)
	case PULSE:
		return i.getPulseCurrent(t)
	case PWL:
		return i.getPWLCurrent(t)
	default:
		return 0
	}
}

func (i *CurrentSource) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := i.Nodes[0], i.Nodes[1]
	time := 0.0
	if status.Env != nil {
		time = status.Env.Time
	}
	current := i.Current(time)

	if n1 != 0 {
		m.AddRHS(n1, current)
	}
	if n2 != 0 {
		m.AddRHS(n2, -current)
	}

	return nil
}

func (i *CurrentSource) getPulseCurrent(t float64) float64 {
	if t < i.delay {
		return i.i1
	}

	t = t - i.delay
	if i.period > 0 {
		t = math.Mod(t, i.period)
	}

	if t < i.rise {
		if i.rise == 0 {
			return i.i2
		}
		return i.i1 + (i.i2-i.i1)*t/i.rise
	}

	if t < i.rise+i.pWidth {
		return i.i2
	}

	fallStart := i.rise + i.pWidth
	if t < fallStart+i.fall {
		if i.fall == 0 {
			return i.i1
		}
		return i.i2 - (i.i2-i.i1)*(t-fallStart)/i.fall
	}

	return i.i1
}

func (i *CurrentSource) getPWLCurrent(t float64) float64 {
	if t <= i.times[0] {
		return i.values[0]
	}

	lastIdx := len(i.times) - 1
	if t >= i.times[lastIdx] {
		return i.values[lastIdx]
	}

	for idx := 1; idx < len(i.times); idx++ {
		if t <= i.times[idx] {
			t1, t2 := i.times[idx-1], i.times[idx]
			v1, v2 := i.values[idx-1], i.values[idx]
			slope := (v2 - v1) / (t2 - t1)
			return v1 + slope*(t-t1)
		}
	}

	return i.values[lastIdx]
}
