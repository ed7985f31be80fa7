package device

import (
	"fmt"

	"github.com/voltframe/mnacore/pkg/matrix"
)

// VCVS is a four-terminal voltage-controlled voltage source: anode,
// cathode, control-anode, control-cathode. It introduces one branch
// current (through the anode-cathode pair) and enforces
// v_anode - v_cathode = mu * (v_controlAnode - v_controlCathode).
type VCVS struct {
	BaseDevice
	mu        float64
	branchIdx int
}

var _ BranchRequester = (*VCVS)(nil)

func NewVCVS(name string, nodeNames []string, mu float64) (*VCVS, error) {
	if len(nodeNames) != 4 {
		return nil, fmt.Errorf("vcvs %s: requires exactly 4 nodes (anode, cathode, control+, control-)", name)
	}
	return &VCVS{BaseDevice: NewBaseDevice(name, mu, nodeNames), mu: mu}, nil
}

func (v *VCVS) GetType() string { return "E" }

func (v *VCVS) RequestsBranch() bool { return true }
func (v *VCVS) BranchIndex() int { return v.branchIdx }
func (v *VCVS) SetBranchIndex(i int) { v.branchIdx = i }

func (v *VCVS) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	anode, cathode, ctrlA, ctrlC := v.Nodes[0], v.Nodes[1], v.Nodes[2], v.Nodes[3]
	bIdx := v.branchIdx

	if anode != 0 {
		m.AddElement(anode, bIdx, 1)
		m.AddElement(bIdx, anode, 1)
	}
	if cathode != 0 {
		m.AddElement(cathode, bIdx, -1)
		m.AddElement(bIdx, cathode, -1)
	}
	if ctrlA != 0 {
		m.AddElement(bIdx, ctrlA, -v.mu)
	}
	if ctrlC != 0 {
		m.AddElement(bIdx, ctrlC, v.mu)
	}

	return nil
}
