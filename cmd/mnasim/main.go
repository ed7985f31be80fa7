// Command mnasim reads a netlist file, builds a circuit, and runs its
// requested analysis (operating point, transient, or DC sweep),
// printing the solved node voltages and branch currents.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/voltframe/mnacore/pkg/circuit"
	"github.com/voltframe/mnacore/pkg/env"
	"github.com/voltframe/mnacore/pkg/netlist"
	"github.com/voltframe/mnacore/pkg/simulation"
	"github.com/voltframe/mnacore/pkg/util"
)

func main() {
	convergenceLimit := flag.Int("iters", 100, "maximum Newton iterations per solve")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatalf("usage: mnasim [-iters N] <netlist file>")
	}

	content, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("reading netlist file: %v", err)
	}

	parsed, err := netlist.Parse(string(content))
	if err != nil {
		log.Fatalf("parsing netlist: %v", err)
	}

	environment := env.New()
	ckt := circuit.New(parsed.Title, environment)

	for _, elem := range parsed.Elements {
		dev, err := netlist.CreateDevice(elem, parsed.Models)
		if err != nil {
			log.Fatalf("creating device %s: %v", elem.Name, err)
		}
		if err := ckt.Add(dev); err != nil {
			log.Fatalf("adding device %s: %v", elem.Name, err)
		}
	}

	if err := ckt.Finalise("0"); err != nil {
		log.Fatalf("finalising circuit: %v", err)
	}
	defer ckt.Destroy()

	switch parsed.Analysis {
	case netlist.AnalysisTRAN:
		runTransient(ckt, parsed, *convergenceLimit)
	case netlist.AnalysisDC:
		runSweep(ckt, parsed, *convergenceLimit)
	default:
		runOperatingPoint(ckt, *convergenceLimit)
	}
}

func runOperatingPoint(ckt *circuit.Circuit, convergenceLimit int) {
	sim := simulation.NewStaticSim(ckt, convergenceLimit)
	if _, err := sim.Simulate(); err != nil {
		log.Fatalf("operating-point solve: %v", err)
	}
	printSolution(ckt.GetSolution())
}

func runTransient(ckt *circuit.Circuit, parsed *netlist.Circuit, convergenceLimit int) {
	sim := simulation.NewTransientSim(ckt, convergenceLimit, parsed.TranParam.TStep)

	fmt.Println("Time         Node Voltages / Branch Currents")
	fmt.Println("-------------------------------------------------")
	for t := 0.0; t <= parsed.TranParam.TStop; t += parsed.TranParam.TStep {
		if _, err := sim.Step(); err != nil {
			log.Fatalf("transient step at t=%g: %v", t, err)
		}
		fmt.Printf("%s  ", util.FormatValueFactor(ckt.Env.Time, "s"))
		printInline(ckt.GetSolution())
	}
}

func runSweep(ckt *circuit.Circuit, parsed *netlist.Circuit, convergenceLimit int) {
	sweep := simulation.NewSweepSim(ckt, convergenceLimit, parsed.DCParam.Source1,
		parsed.DCParam.Start1, parsed.DCParam.Stop1, parsed.DCParam.Increment1)

	points, err := sweep.Run()
	if err != nil {
		log.Fatalf("DC sweep: %v", err)
	}

	fmt.Println("Sweep value  Node Voltages / Branch Currents")
	fmt.Println("-------------------------------------------------")
	for _, p := range points {
		fmt.Printf("%s  ", util.FormatValueFactor(p.Value, "V"))
		results := make(map[string]float64)
		for name, idx := range ckt.GetNodeMap() {
			results[fmt.Sprintf("V(%s)", name)] = p.Solution[idx]
		}
		for name, idx := range ckt.GetBranchMap() {
			if idx > 0 {
				results[fmt.Sprintf("I(%s)", name)] = -p.Solution[idx]
			}
		}
		printInline(results)
	}
}

func printSolution(results map[string]float64) {
	fmt.Println("\nNode Voltages:")
	for _, name := range sortedKeys(results, "V(") {
		fmt.Printf("%s = %s\n", name, util.FormatValueFactor(results[name], "V"))
	}
	fmt.Println("\nBranch Currents:")
	for _, name := range sortedKeys(results, "I(") {
		fmt.Printf("%s = %s\n", name, util.FormatValueFactor(results[name], "A"))
	}
}

func printInline(results map[string]float64) {
	for _, name := range sortedKeys(results, "V(") {
		fmt.Printf("%s=%s  ", name, util.FormatValueFactor(results[name], "V"))
	}
	for _, name := range sortedKeys(results, "I(") {
		fmt.Printf("%s=%s  ", name, util.FormatValueFactor(results[name], "A"))
	}
	fmt.Println()
}

func sortedKeys(m map[string]float64, prefix string) []string {
	var keys []string
	for k := range m {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
