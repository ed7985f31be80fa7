package device

import (
	"github.com/voltframe/mnacore/pkg/env"
	"github.com/voltframe/mnacore/pkg/matrix"
)

// Device is the minimal contract every stamp-capable component
// implements. GetNodes returns the resolved node-index slots
// (ground resolves to the silent-sink index 0) assigned by the
// circuit at build time.
type Device interface {
	GetName() string
	GetType() string
	GetNodeNames() []string
	GetNodes() []int
	Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error
	GetValue() float64
	SetNodes(nodes []int)
}

// BaseDevice is the common embedding for every concrete component.
type BaseDevice struct {
	Name      string
	Nodes     []int
	Value     float64
	NodeNames []string
}

func (d *BaseDevice) GetName() string { return d.Name }
func (d *BaseDevice) GetNodes() []int { return d.Nodes }
func (d *BaseDevice) GetNodeNames() []string { return d.NodeNames }
func (d *BaseDevice) GetValue() float64 { return d.Value }
func (d *BaseDevice) SetNodes(nodes []int) { d.Nodes = nodes }

func NewBaseDevice(name string, value float64, nodeNames []string) BaseDevice {
	return BaseDevice{
		Name:      name,
		Value:     value,
		NodeNames: nodeNames,
		Nodes:     make([]int, len(nodeNames)),
	}
}

// ModelParam carries a named .model card's key/value parameters,
// bound to components by the netlist's model-name reference.
type ModelParam struct {
	Type   string
	Name   string
	Params map[string]float64
}

// BranchRequester is implemented by components that introduce a
// cross-node unknown (a branch current) — voltage sources, inductors,
// VCVS, op-amps. The circuit queries this interface generically
// instead of switching on element type, per the spec's "component is
// asked for its required cross-node unknowns" design.
type BranchRequester interface {
	Device
	RequestsBranch() bool
	SetBranchIndex(idx int)
	BranchIndex() int
}

// TimeDependent is implemented by components whose stamp depends on
// companion-model memory (old ← value between accepted transient
// steps).
type TimeDependent interface {
	SetTimeStep(dt float64)
	UpdateState(voltages []float64, status *CircuitStatus)
}

// NonLinear is implemented by components whose conductance/current
// depend on the previous Newton iterate and must be refreshed from
// the working solution before the next stamp.
type NonLinear interface {
	UpdateVoltages(voltages []float64) error
}

// InductorComponent is the subset of behaviour the mutual-inductance
// element needs from any branch-carrying inductive device.
type InductorComponent interface {
	Device
	BranchRequester
	GetCurrent() float64
	GetPreviousCurrent() float64
}

// AnalysisMode selects which companion model a stamp should apply.
type AnalysisMode int

const (
	OperatingPointAnalysis AnalysisMode = iota
	TransientAnalysis
)

// CircuitStatus is the read-only context passed to every Stamp call:
// the Environment plus the analysis mode and step size in effect.
type CircuitStatus struct {
	Mode     AnalysisMode
	TimeStep float64
	Env      *env.Environment
}
