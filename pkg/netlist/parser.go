// Package netlist parses a line-oriented SPICE-style description into
// Elements and builds the corresponding Device instances.
package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/voltframe/mnacore/internal/simerr"
	"github.com/voltframe/mnacore/pkg/device"
)

type AnalysisType int

const (
	AnalysisOP AnalysisType = iota
	AnalysisTRAN
	AnalysisDC
)

type Circuit struct {
	Elements  []Element      // Circuit elements
	Nodes     map[string]int // Node name and index
	Analysis  AnalysisType   // Analysis type
	TranParam struct {
		TStep  float64 // timestep
		TStop  float64 // stop time
		TStart float64 // start time
		TMax   float64 // max timestep
		UIC    bool    // Use Initial Conditions
	}
	DCParam struct {
		Source1    string
		Start1     float64
		Stop1      float64
		Increment1 float64
	}
	Models map[string]device.ModelParam // .model cards, keyed by upper-cased name
	Title  string                       // Circuit title
}

type Element struct {
	Type   string            // Part type (R, L, C, V, etc.)
	Name   string            // Part name
	Nodes  []string          // Node names
	Value  float64           // Part value
	Params map[string]string // Parameter values
}

var unitMap = map[string]float64{
	"T":   1e12,  // tera
	"G":   1e9,   // giga
	"meg": 1e6,   // mega
	"K":   1e3,   // kilo
	"k":   1e3,   // kilo
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

func Parse(input string) (*Circuit, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	circuit := &Circuit{
		Nodes:  make(map[string]int),
		Models: make(map[string]device.ModelParam),
	}

	// Title or comment
	if scanner.Scan() {
		circuit.Title = strings.TrimPrefix(scanner.Text(), "*")
		circuit.Title = strings.TrimSpace(circuit.Title)
	}

	for scanner.Scan() {
		line := scanner.Text()
		line = strings.TrimSpace(line)

		if len(line) == 0 { // Empty line
			continue
		}

		if strings.HasPrefix(line, "*") { // Comment
			continue
		}

		if strings.HasPrefix(line, ".") { // Directive
			if err := parseDirective(circuit, line); err != nil {
				return nil, err
			}
			continue
		}

		element, err := parseElement(line)
		if err != nil {
			return nil, err
		}

		circuit.Elements = append(circuit.Elements, *element)

		for _, node := range element.Nodes {
			if _, exists := circuit.Nodes[node]; !exists {
				circuit.Nodes[node] = len(circuit.Nodes)
			}
		}
	}

	return circuit, nil
}

// parseDirective handles .op/.tran/.dc/.model lines. AC small-signal
// analysis (.ac) is a named non-goal and is rejected outright.
func parseDirective(ckt *Circuit, line string) error {
	var err error

	fields := strings.Fields(line)
	if len(fields) < 1 {
		return fmt.Errorf("invalid directive")
	}

	switch strings.ToLower(fields[0]) {
	case ".op":
		ckt.Analysis = AnalysisOP

	case ".tran":
		ckt.Analysis = AnalysisTRAN
		if len(fields) < 3 {
			return fmt.Errorf("insufficient tran parameters, need at least tstep and tstop")
		}
		if ckt.TranParam.TStep, err = ParseValue(fields[1]); err != nil {
			return fmt.Errorf("invalid tstep: %v", err)
		}
		if ckt.TranParam.TStop, err = ParseValue(fields[2]); err != nil {
			return fmt.Errorf("invalid tstop: %v", err)
		}

		for i := 3; i < len(fields); i++ {
			if fields[i] == "uic" {
				ckt.TranParam.UIC = true
				continue
			}
			if i == 3 {
				if ckt.TranParam.TStart, err = ParseValue(fields[i]); err != nil {
					return fmt.Errorf("invalid tstart: %v", err)
				}
			}
			if i == 4 {
				if ckt.TranParam.TMax, err = ParseValue(fields[i]); err != nil {
					return fmt.Errorf("invalid tmax: %v", err)
				}
			}
		}
		if ckt.TranParam.TMax == 0 {
			ckt.TranParam.TMax = ckt.TranParam.TStep
		}

	case ".dc":
		ckt.Analysis = AnalysisDC
		if len(fields) < 5 {
			return fmt.Errorf("insufficient DC sweep parameters")
		}
		ckt.DCParam.Source1 = fields[1]
		if ckt.DCParam.Start1, err = ParseValue(fields[2]); err != nil {
			return fmt.Errorf("invalid start value: %v", err)
		}
		if ckt.DCParam.Stop1, err = ParseValue(fields[3]); err != nil {
			return fmt.Errorf("invalid stop value: %v", err)
		}
		if ckt.DCParam.Increment1, err = ParseValue(fields[4]); err != nil {
			return fmt.Errorf("invalid increment value: %v", err)
		}

	case ".model":
		if len(fields) < 3 {
			return fmt.Errorf("invalid .model card: %s", line)
		}
		name := strings.ToUpper(fields[1])
		typ := strings.ToUpper(fields[2])
		rest := strings.Join(fields[3:], " ")
		rest = strings.Trim(rest, "() ")
		params := make(map[string]float64)
		for _, kv := range strings.Fields(rest) {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				continue
			}
			val, err := ParseValue(parts[1])
			if err != nil {
				return fmt.Errorf("invalid .model parameter %q: %v", kv, err)
			}
			params[strings.ToLower(parts[0])] = val
		}
		ckt.Models[name] = device.ModelParam{Type: typ, Name: fields[1], Params: params}

	case ".ac":
		return fmt.Errorf(".ac small-signal analysis is not supported: %w", simerr.ParameterError)

	default:
		return fmt.Errorf("unsupported directive: %s", fields[0])
	}

	return nil
}

// Parse circuit element
func parseElement(line string) (*Element, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, fmt.Errorf("invalid element format: %s", line)
	}

	elem := &Element{
		Name:   fields[0],
		Type:   strings.ToUpper(string(fields[0][0])),
		Params: make(map[string]string),
	}

	switch elem.Type {
	case "V":
		return parseVoltageSource(fields)
	case "I":
		return parseCurrentSource(fields)
	case "D":
		elem.Nodes = fields[1:3]
		if len(fields) > 3 {
			elem.Params["model"] = fields[3]
		}
		return elem, nil
	case "M": // gate source drain [model]
		if len(fields) < 4 {
			return nil, fmt.Errorf("insufficient mosfet parameters: %s", line)
		}
		elem.Nodes = fields[1:4]
		if len(fields) > 4 {
			elem.Params["model"] = fields[4]
		}
		return elem, nil
	case "Q": // collector base emitter [model]
		if len(fields) < 4 {
			return nil, fmt.Errorf("insufficient bjt parameters: %s", line)
		}
		elem.Nodes = fields[1:4]
		if len(fields) > 4 {
			elem.Params["model"] = fields[4]
		}
		return elem, nil
	case "E": // anode cathode ctrl+ ctrl- gain
		if len(fields) < 6 {
			return nil, fmt.Errorf("insufficient vcvs parameters: %s", line)
		}
		elem.Nodes = fields[1:5]
		val, err := ParseValue(fields[5])
		if err != nil {
			return nil, fmt.Errorf("invalid vcvs gain: %v", err)
		}
		elem.Value = val
		return elem, nil
	case "S": // n1 n2 ON|OFF
		if len(fields) < 4 {
			return nil, fmt.Errorf("insufficient switch parameters: %s", line)
		}
		elem.Nodes = fields[1:3]
		elem.Params["state"] = fields[3]
		return elem, nil
	case "O": // inv noninv out v+ v- [model]
		if len(fields) < 6 {
			return nil, fmt.Errorf("insufficient opamp parameters: %s", line)
		}
		elem.Nodes = fields[1:6]
		if len(fields) > 6 {
			elem.Params["model"] = fields[6]
		}
		return elem, nil
	case "K": // name L1 L2 coefficient
		if len(fields) < 4 {
			return nil, fmt.Errorf("insufficient mutual-inductance parameters: %s", line)
		}
		elem.Params["l1"] = fields[1]
		elem.Params["l2"] = fields[2]
		val, err := ParseValue(fields[3])
		if err != nil {
			return nil, fmt.Errorf("invalid mutual-inductance coefficient: %v", err)
		}
		elem.Value = val
		return elem, nil
	default:
		// R/L/C-style: nodes then trailing value
		elem.Nodes = fields[1 : len(fields)-1]
		valueStr := fields[len(fields)-1]
		value, err := ParseValue(valueStr)
		if err != nil {
			return nil, err
		}
		elem.Value = value

		return elem, nil
	}
}

func parseVoltageSource(fields []string) (*Element, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("insufficient voltage source parameters")
	}

	elem := &Element{
		Name:   fields[0],
		Type:   "V",
		Nodes:  []string{fields[1], fields[2]},
		Params: make(map[string]string),
	}

	remaining := strings.Join(fields[3:], " ")
	remaining = strings.ReplaceAll(remaining, "(", " ( ")
	remaining = strings.ReplaceAll(remaining, ")", " ) ")
	words := strings.Fields(remaining)
	if len(words) == 0 {
		return nil, fmt.Errorf("missing voltage source type")
	}

	switch strings.ToUpper(words[0]) {
	case "DC":
		if len(words) < 2 {
			return nil, fmt.Errorf("missing DC value")
		}
		elem.Params["type"] = "dc"
		value, err := ParseValue(words[1])
		if err != nil {
			return nil, err
		}
		elem.Value = value

	case "SIN":
		elem.Params["type"] = "sin"
		sinParams := strings.Join(words[1:], " ")
		sinParams = strings.Trim(sinParams, "() ")
		elem.Params["sin"] = sinParams

	case "SWEEP":
		elem.Params["type"] = "sweep"
		sweepParams := strings.Join(words[1:], " ")
		sweepParams = strings.Trim(sweepParams, "() ")
		elem.Params["sweep"] = sweepParams

	default:
		return nil, fmt.Errorf("unsupported voltage source type: %s", words[0])
	}

	return elem, nil
}

func parseCurrentSource(fields []string) (*Element, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("insufficient current source parameters")
	}

	elem := &Element{
		Name:   fields[0],
		Type:   "I",
		Nodes:  []string{fields[1], fields[2]},
		Params: make(map[string]string),
	}

	remaining := strings.Join(fields[3:], " ")
	remaining = strings.ReplaceAll(remaining, "(", " ( ")
	remaining = strings.ReplaceAll(remaining, ")", " ) ")
	words := strings.Fields(remaining)
	if len(words) == 0 {
		return nil, fmt.Errorf("missing current source type")
	}

	switch strings.ToUpper(words[0]) {
	case "DC":
		if len(words) < 2 {
			return nil, fmt.Errorf("missing DC value")
		}
		elem.Params["type"] = "dc"
		value, err := ParseValue(words[1])
		if err != nil {
			return nil, err
		}
		elem.Value = value

	case "SIN":
		elem.Params["type"] = "sin"
		sinParams := strings.Join(words[1:], " ")
		sinParams = strings.Trim(sinParams, "() ")
		elem.Params["sin"] = sinParams

	case "PULSE":
		elem.Params["type"] = "pulse"
		pulseParams := strings.Join(words[1:], " ")
		pulseParams = strings.Trim(pulseParams, "() ")
		elem.Params["pulse"] = pulseParams

	case "PWL":
		elem.Params["type"] = "pwl"
		pwlParams := strings.Join(words[1:], " ")
		pwlParams = strings.Trim(pwlParams, "() ")
		elem.Params["pwl"] = pwlParams

	default:
		return nil, fmt.Errorf("unsupported current source type: %s", words[0])
	}

	return elem, nil
}

// ParseValue parses a decimal or exponential value with an optional
// SPICE unit suffix (1k -> 1000, 1e-14 -> 1e-14).
func ParseValue(val string) (float64, error) {
	re := regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(meg|[TGMKkmunpf])?s?$`)
	matches := re.FindStringSubmatch(strings.TrimSpace(val))

	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	if len(matches) > 2 && matches[2] != "" {
		if multiplier, ok := unitMap[matches[2]]; ok {
			num *= multiplier
		}
	}

	return num, nil
}

// CreateDevice builds the Device corresponding to a parsed Element.
// Node names are carried through as-is; the circuit resolves them to
// indices when it is finalised. models holds .model cards, keyed
// by upper-cased name, consulted for D/M/Q/O elements that reference
// one.
func CreateDevice(elem Element, models map[string]device.ModelParam) (device.Device, error) {
	switch elem.Type {
	case "R":
		return device.NewResistor(elem.Name, elem.Nodes, elem.Value)
	case "L":
		return device.NewInductor(elem.Name, elem.Nodes, elem.Value)
	case "C":
		return device.NewCapacitor(elem.Name, elem.Nodes, elem.Value)
	case "D":
		is, n, bv := 1e-12, 1.0, 40.0
		if m, ok := models[strings.ToUpper(elem.Params["model"])]; ok {
			is, n, bv = modelFloat(m, "is", is), modelFloat(m, "n", n), modelFloat(m, "bv", bv)
		}
		return device.NewDiode(elem.Name, elem.Nodes, is, n, bv)

	case "M":
		vth, beta := 1.0, 1e-3
		if m, ok := models[strings.ToUpper(elem.Params["model"])]; ok {
			vth, beta = modelFloat(m, "vth", vth), modelFloat(m, "beta", beta)
		}
		return device.NewMOSFET(elem.Name, elem.Nodes, vth, beta)

	case "Q":
		is, bf, br := 1e-16, 100.0, 1.0
		if m, ok := models[strings.ToUpper(elem.Params["model"])]; ok {
			is, bf, br = modelFloat(m, "is", is), modelFloat(m, "bf", bf), modelFloat(m, "br", br)
		}
		return device.NewBJT(elem.Name, elem.Nodes, is, bf, br)

	case "E":
		return device.NewVCVS(elem.Name, elem.Nodes, elem.Value)

	case "S":
		closed := strings.EqualFold(elem.Params["state"], "on") || elem.Params["state"] == "1"
		return device.NewSwitch(elem.Name, elem.Nodes, closed), nil

	case "O":
		gain, rin, rout, slew, satoff, offset := 1e5, 1e6, 75.0, 0.5e6, 1.5, 0.0
		if m, ok := models[strings.ToUpper(elem.Params["model"])]; ok {
			gain = modelFloat(m, "gain", gain)
			rin = modelFloat(m, "rin", rin)
			rout = modelFloat(m, "rout", rout)
			slew = modelFloat(m, "slew", slew)
			satoff = modelFloat(m, "satoff", satoff)
			offset = modelFloat(m, "offset", offset)
		}
		return device.NewOpAmp(elem.Name, elem.Nodes, gain, rin, rout, slew, satoff, offset)

	case "K":
		k := device.NewMutual(elem.Name, []string{elem.Params["l1"], elem.Params["l2"]}, elem.Value)
		return k, nil

	case "V":
		switch elem.Params["type"] {
		case "dc":
			return device.NewDCVoltageSource(elem.Name, elem.Nodes, elem.Value), nil
		case "sin":
			_, amplitude, freq, phase, err := parseSinParams(elem.Params["sin"])
			if err != nil {
				return nil, err
			}
			return device.NewACVoltageSource(elem.Name, elem.Nodes, amplitude, freq, phase), nil
		case "sweep":
			start, rate, err := parseSweepParams(elem.Params["sweep"])
			if err != nil {
				return nil, err
			}
			return device.NewSweepVoltageSource(elem.Name, elem.Nodes, start, rate), nil
		default:
			return nil, fmt.Errorf("unsupported voltage source type: %s", elem.Params["type"])
		}

	case "I":
		switch elem.Params["type"] {
		case "dc":
			return device.NewDCCurrentSource(elem.Name, elem.Nodes, elem.Value), nil
		case "sin":
			offset, amplitude, freq, phase, err := parseSinParams(elem.Params["sin"])
			if err != nil {
				return nil, err
			}
			return device.NewSinCurrentSource(elem.Name, elem.Nodes, offset, amplitude, freq, phase), nil
		case "pulse":
			i1, i2, delay, rise, fall, pWidth, period, err := parsePulseParams(elem.Params["pulse"])
			if err != nil {
				return nil, err
			}
			return device.NewPulseCurrentSource(elem.Name, elem.Nodes, i1, i2, delay, rise, fall, pWidth, period), nil
		case "pwl":
			times, values, err := parsePWLParams(elem.Params["pwl"])
			if err != nil {
				return nil, err
			}
			return device.NewPWLCurrentSource(elem.Name, elem.Nodes, times, values), nil
		default:
			return nil, fmt.Errorf("unsupported current source type: %s", elem.Params["type"])
		}
	}
	return nil, fmt.Errorf("unsupported device type: %s", elem.Type)
}

func modelFloat(m device.ModelParam, key string, fallback float64) float64 {
	if v, ok := m.Params[key]; ok {
		return v
	}
	return fallback
}

func parseSinParams(params string) (offset, amplitude, freq, phase float64, err error) {
	sinParams := strings.Fields(params)
	if len(sinParams) < 3 {
		return 0, 0, 0, 0, fmt.Errorf("insufficient SIN parameters")
	}

	if offset, err = ParseValue(sinParams[0]); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid SIN offset: %v", err)
	}
	if amplitude, err = ParseValue(sinParams[1]); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid SIN amplitude: %v", err)
	}
	if freq, err = ParseValue(sinParams[2]); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid SIN frequency: %v", err)
	}

	phase = 0.0
	if len(sinParams) > 3 {
		if phase, err = ParseValue(sinParams[3]); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid SIN phase: %v", err)
		}
	}

	return offset, amplitude, freq, phase, nil
}

func parseSweepParams(params string) (start, rate float64, err error) {
	fields := strings.Fields(params)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("insufficient SWEEP parameters")
	}
	if start, err = ParseValue(fields[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid SWEEP start: %v", err)
	}
	if rate, err = ParseValue(fields[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid SWEEP rate: %v", err)
	}
	return start, rate, nil
}

func parsePulseParams(params string) (v1, v2, delay, rise, fall, pWidth, period float64, err error) {
	pulseParams := strings.Fields(params)
	if len(pulseParams) < 7 {
		return 0, 0, 0, 0, 0, 0, 0, fmt.Errorf("insufficient PULSE parameters")
	}

	if v1, err = ParseValue(pulseParams[0]); err != nil {
		return 0, 0, 0, 0, 0, 0, 0, fmt.Errorf("invalid PULSE V1: %v", err)
	}
	if v2, err = ParseValue(pulseParams[1]); err != nil {
		return 0, 0, 0, 0, 0, 0, 0, fmt.Errorf("invalid PULSE V2: %v", err)
	}
	if delay, err = ParseValue(pulseParams[2]); err != nil {
		return 0, 0, 0, 0, 0, 0, 0, fmt.Errorf("invalid PULSE delay: %v", err)
	}
	if rise, err = ParseValue(pulseParams[3]); err != nil {
		return 0, 0, 0, 0, 0, 0, 0, fmt.Errorf("invalid PULSE rise: %v", err)
	}
	if fall, err = ParseValue(pulseParams[4]); err != nil {
		return 0, 0, 0, 0, 0, 0, 0, fmt.Errorf("invalid PULSE fall: %v", err)
	}
	if pWidth, err = ParseValue(pulseParams[5]); err != nil {
		return 0, 0, 0, 0, 0, 0, 0, fmt.Errorf("invalid PULSE width: %v", err)
	}
	if period, err = ParseValue(pulseParams[6]); err != nil {
		return 0, 0, 0, 0, 0, 0, 0, fmt.Errorf("invalid PULSE period: %v", err)
	}

	return v1, v2, delay, rise, fall, pWidth, period, nil
}

func parsePWLParams(params string) (times []float64, values []float64, err error) {
	pwlParams := strings.Fields(params)
	if len(pwlParams) < 4 || len(pwlParams)%2 != 0 {
		return nil, nil, fmt.Errorf("insufficient or invalid PWL parameters, need pairs of time-value")
	}

	numPoints := len(pwlParams) / 2
	times = make([]float64, numPoints)
	values = make([]float64, numPoints)

	for i := 0; i < numPoints; i++ {
		if times[i], err = ParseValue(pwlParams[2*i]); err != nil {
			return nil, nil, fmt.Errorf("invalid PWL time[%d]: %v", i, err)
		}
		if values[i], err = ParseValue(pwlParams[2*i+1]); err != nil {
			return nil, nil, fmt.Errorf("invalid PWL value[%d]: %v", i, err)
		}
		if i > 0 && times[i] <= times[i-1] {
			return nil, nil, fmt.Errorf("PWL time points must be strictly increasing")
		}
	}

	return times, values, nil
}
