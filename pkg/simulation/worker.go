package simulation

import (
	"fmt"

	"github.com/voltframe/mnacore/pkg/device"
)

// CommandKind enumerates the inbound commands a transient worker
// polls between steps.
type CommandKind int

const (
	ChangeWatchSet CommandKind = iota
	ToggleSwitch
	Stop
)

// Command is one inbound instruction to a running Worker, delivered
// over an ordered, non-blocking channel.
type Command struct {
	Kind       CommandKind
	WatchSet   []string // ChangeWatchSet: terminal labels to report
	SwitchName string   // ToggleSwitch: target component name
}

// Snapshot is a point-in-time report of the watched unknowns, pushed
// every resultInterval seconds of simulated time.
type Snapshot struct {
	Time   float64
	Values map[string]float64
}

// WorkerResult is the single outbound message a Worker sends when it
// stops, either cooperatively (Stop command) or on an uncaught
// failure.
type WorkerResult struct {
	Err error
}

// Worker runs transient step batches in the background. Foreground
// code communicates only via Commands in and Snapshots/WorkerResult
// out; the engine itself remains single-threaded and cooperative —
// the worker never shares the circuit's working arrays with any
// other goroutine while a step is in flight.
type Worker struct {
	sim            *TransientSim
	resultInterval float64
	watchSet       map[string]bool

	Commands  chan Command
	Snapshots chan Snapshot
	Done      chan WorkerResult
}

// NewWorker constructs a worker over an already-configured transient
// driver. Buffered channels keep Commands non-blocking for the
// foreground and Snapshots non-blocking for the worker.
func NewWorker(sim *TransientSim, resultInterval float64, initialWatchSet []string) *Worker {
	w := &Worker{
		sim:            sim,
		resultInterval: resultInterval,
		watchSet:       make(map[string]bool),
		Commands:       make(chan Command, 16),
		Snapshots:      make(chan Snapshot, 16),
		Done:           make(chan WorkerResult, 1),
	}
	for _, label := range initialWatchSet {
		w.watchSet[label] = true
	}
	return w
}

// Run steps the transient driver until a Stop command is polled or a
// step fails. Intended to be launched with `go worker.Run()`.
func (w *Worker) Run() {
	nextSnapshot := w.sim.Circuit.Env.Time + w.resultInterval

	for {
		select {
		case cmd := <-w.Commands:
			if stop, err := w.handle(cmd); stop {
				w.Done <- WorkerResult{Err: err}
				return
			}
			continue
		default:
		}

		if _, err := w.sim.Step(); err != nil {
			w.Done <- WorkerResult{Err: fmt.Errorf("transient worker: %w", err)}
			return
		}

		if w.sim.Circuit.Env.Time >= nextSnapshot {
			w.emitSnapshot()
			nextSnapshot += w.resultInterval
		}
	}
}

// handle applies one command and reports whether the worker should
// stop.
func (w *Worker) handle(cmd Command) (bool, error) {
	switch cmd.Kind {
	case ChangeWatchSet:
		w.watchSet = make(map[string]bool, len(cmd.WatchSet))
		for _, label := range cmd.WatchSet {
			w.watchSet[label] = true
		}
		return false, nil

	case ToggleSwitch:
		for _, dev := range w.sim.Circuit.GetDevices() {
			if sw, ok := dev.(*device.Switch); ok && sw.GetName() == cmd.SwitchName {
				sw.Toggle()
			}
		}
		return false, nil

	case Stop:
		return true, nil

	default:
		return false, nil
	}
}

func (w *Worker) emitSnapshot() {
	values := make(map[string]float64, len(w.watchSet))
	for label := range w.watchSet {
		values[label] = w.sim.Circuit.NodeVoltage(label)
	}
	snap := Snapshot{Time: w.sim.Circuit.Env.Time, Values: values}

	select {
	case w.Snapshots <- snap:
	default:
		// Drop the snapshot rather than block the step loop; the
		// foreground is expected to keep pace with resultInterval.
	}
}
