// Package circuit assembles components into a Modified Nodal Analysis
// system: node voltages plus the cross-node unknowns (branch currents)
// that voltage-defining elements require.
package circuit

import (
	"fmt"

	"github.com/voltframe/mnacore/internal/simerr"
	"github.com/voltframe/mnacore/pkg/device"
	"github.com/voltframe/mnacore/pkg/env"
	"github.com/voltframe/mnacore/pkg/matrix"
)

// Circuit holds the node/branch index space, the component list, and
// (once finalised) the backing matrix. Node index 0 is always ground,
// a silent sink: reads return 0, writes are discarded. The ground
// label itself isn't fixed until Finalise, so components may be added
// with whatever terminal labels the caller has on hand.
type Circuit struct {
	name        string
	groundLabel string

	nodeMap   map[string]int
	branchMap map[string]int

	devices          []device.Device
	deviceNames      map[string]bool
	deviceByName     map[string]device.Device
	branchRequesters []device.BranchRequester
	nonlinear        []device.NonLinear
	timeDependent    []device.TimeDependent
	mutuals          []*device.Mutual

	numNodes  int
	finalised bool

	Matrix *matrix.CircuitMatrix
	Status *device.CircuitStatus
	Env    *env.Environment
}

// New constructs an empty circuit. Its node labels are resolved, and
// its ground/reference label chosen, at Finalise.
func New(name string, environment *env.Environment) *Circuit {
	return &Circuit{
		name:         name,
		nodeMap:      make(map[string]int),
		branchMap:    make(map[string]int),
		deviceNames:  make(map[string]bool),
		deviceByName: make(map[string]device.Device),
		Env:          environment,
	}
}

func (c *Circuit) Name() string { return c.name }

// resolveNode returns the node index for a terminal label, assigning
// the next free index the first time a non-ground label is seen.
// Only valid once c.groundLabel has been set by Finalise.
func (c *Circuit) resolveNode(label string) int {
	if label == c.groundLabel || label == "gnd" {
		return 0
	}
	if idx, ok := c.nodeMap[label]; ok {
		return idx
	}
	idx := len(c.nodeMap) + 1
	c.nodeMap[label] = idx
	return idx
}

// Add registers a component's terminal labels (as set at construction,
// via its NodeNames) for stamping. Labels are resolved into the
// node-index space at Finalise, once the ground label is known.
// Pre-finalise only.
func (c *Circuit) Add(dev device.Device) error {
	if c.finalised {
		return fmt.Errorf("circuit %s: add after finalise: %w", c.name, simerr.TopologyError)
	}
	if c.deviceNames[dev.GetName()] {
		return fmt.Errorf("circuit %s: duplicate component name %q: %w", c.name, dev.GetName(), simerr.TopologyError)
	}
	c.deviceNames[dev.GetName()] = true
	c.deviceByName[dev.GetName()] = dev

	if mu, ok := dev.(*device.Mutual); ok {
		c.mutuals = append(c.mutuals, mu)
	}

	c.devices = append(c.devices, dev)

	if br, ok := dev.(device.BranchRequester); ok && br.RequestsBranch() {
		if _, dup := c.branchMap[dev.GetName()]; dup {
			return fmt.Errorf("circuit %s: duplicate branch unknown for %q: %w", c.name, dev.GetName(), simerr.TopologyError)
		}
		c.branchMap[dev.GetName()] = -1 // assigned at Finalise
		c.branchRequesters = append(c.branchRequesters, br)
	}
	if nl, ok := dev.(device.NonLinear); ok {
		c.nonlinear = append(c.nonlinear, nl)
	}
	if td, ok := dev.(device.TimeDependent); ok {
		c.timeDependent = append(c.timeDependent, td)
	}

	return nil
}

// Finalise resolves every added component's terminal labels against
// groundLabel (ground compacts to index 0; every other label gets the
// next free index in insertion order), assigns branch-unknown indices
// (which must follow every node index), and builds the backing
// matrix. One-shot: a second call is a no-op.
func (c *Circuit) Finalise(groundLabel string) error {
	if c.finalised {
		return nil
	}
	c.groundLabel = groundLabel

	groundSeen := false
	for _, dev := range c.devices {
		names := dev.GetNodeNames()
		nodes := make([]int, len(names))
		for i, n := range names {
			nodes[i] = c.resolveNode(n)
			if n == groundLabel || n == "gnd" {
				groundSeen = true
			}
		}
		dev.SetNodes(nodes)
	}
	if !groundSeen {
		return fmt.Errorf("circuit %s: no ground reference declared: %w", c.name, simerr.TopologyError)
	}

	for _, mu := range c.mutuals {
		for i, indName := range mu.GetInductorNames() {
			dev, ok := c.deviceByName[indName]
			if !ok {
				return fmt.Errorf("circuit %s: mutual coupling %s references unknown inductor %q: %w", c.name, mu.GetName(), indName, simerr.TopologyError)
			}
			ind, ok := dev.(device.InductorComponent)
			if !ok {
				return fmt.Errorf("circuit %s: mutual coupling %s: %q is not an inductor: %w", c.name, mu.GetName(), indName, simerr.TopologyError)
			}
			if err := mu.SetInductor(i, ind); err != nil {
				return fmt.Errorf("circuit %s: %w", c.name, err)
			}
		}
	}

	c.numNodes = len(c.nodeMap)
	idx := c.numNodes + 1
	for _, br := range c.branchRequesters {
		br.SetBranchIndex(idx)
		c.branchMap[br.GetName()] = idx
		idx++
	}

	size := idx - 1
	mat, err := matrix.NewMatrix(size)
	if err != nil {
		return fmt.Errorf("circuit %s: %w", c.name, err)
	}
	mat.SetupElements()
	c.Matrix = mat
	c.Status = &device.CircuitStatus{Mode: device.OperatingPointAnalysis, Env: c.Env}
	c.finalised = true
	return nil
}

// Size returns the total unknown count (nodes + branch currents).
func (c *Circuit) Size() int {
	if c.Matrix == nil {
		return 0
	}
	return c.Matrix.Size
}

// Stamp clears the working matrix and asks every component to add its
// residual/Jacobian contribution under the given analysis context.
func (c *Circuit) Stamp(status *device.CircuitStatus) error {
	c.Matrix.Clear()
	for _, dev := range c.devices {
		if err := dev.Stamp(c.Matrix, status); err != nil {
			return fmt.Errorf("stamping %s: %w", dev.GetName(), err)
		}
	}
	return nil
}

// UpdateNonlinearVoltages refreshes every nonlinear device's companion
// operating point from the current working solution, ahead of the
// next Stamp call in a Newton iteration.
func (c *Circuit) UpdateNonlinearVoltages(solution []float64) error {
	for _, nl := range c.nonlinear {
		if err := nl.UpdateVoltages(solution); err != nil {
			return fmt.Errorf("updating voltages: %w", err)
		}
	}
	return nil
}

// SetTimeStep notifies every time-dependent component of the fixed
// integration step in effect for the next transient stamp.
func (c *Circuit) SetTimeStep(dt float64) {
	c.Status.TimeStep = dt
	for _, td := range c.timeDependent {
		td.SetTimeStep(dt)
	}
}

// AdvanceState commits the accepted solution into every time-dependent
// component's companion memory (old <- value), ending a transient
// step.
func (c *Circuit) AdvanceState(solution []float64) {
	for _, td := range c.timeDependent {
		td.UpdateState(solution, c.Status)
	}
}

// NodeVoltage returns the solved voltage at a terminal label; ground
// always reads 0.
func (c *Circuit) NodeVoltage(label string) float64 {
	if label == c.groundLabel || label == "gnd" {
		return 0
	}
	idx, ok := c.nodeMap[label]
	if !ok {
		return 0
	}
	return c.Matrix.Solution()[idx]
}

// BranchCurrent returns the solved branch current introduced by the
// named component, or 0 if it did not request one.
func (c *Circuit) BranchCurrent(name string) float64 {
	idx, ok := c.branchMap[name]
	if !ok || idx <= 0 {
		return 0
	}
	return c.Matrix.Solution()[idx]
}

func (c *Circuit) GetNodeMap() map[string]int { return c.nodeMap }
func (c *Circuit) GetBranchMap() map[string]int { return c.branchMap }
func (c *Circuit) GetDevices() []device.Device { return c.devices }
func (c *Circuit) GetNumNodes() int { return c.numNodes }

// GetSolution renders the current working solution keyed by V(label)
// and I(component), including derived resistor currents.
func (c *Circuit) GetSolution() map[string]float64 {
	out := make(map[string]float64)
	sol := c.Matrix.Solution()

	for name, idx := range c.nodeMap {
		out[fmt.Sprintf("V(%s)", name)] = sol[idx]
	}
	for name, idx := range c.branchMap {
		if idx <= 0 {
			continue
		}
		out[fmt.Sprintf("I(%s)", name)] = -sol[idx]
	}
	for _, dev := range c.devices {
		if dev.GetType() != "R" {
			continue
		}
		nodes := dev.GetNodes()
		v1, v2 := 0.0, 0.0
		if nodes[0] != 0 {
			v1 = sol[nodes[0]]
		}
		if nodes[1] != 0 {
			v2 = sol[nodes[1]]
		}
		out[fmt.Sprintf("I(%s)", dev.GetName())] = (v1 - v2) / dev.GetValue()
	}

	return out
}

func (c *Circuit) Destroy() {
	if c.Matrix != nil {
		c.Matrix.Destroy()
	}
}
