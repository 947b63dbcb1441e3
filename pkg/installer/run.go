package installer

import (
	"errors"
	"fmt"

	"ocm.software/open-component-model/bindings/go/dag"

	"github.com/glorpus-work/yapm/pkg/errutils"
)

// run is the state shared by every package installed during one Install or InstallBatch
// call. The graph records each "depends on" edge seen so far, which rejects cycles as
// soon as they close; done memoizes packages that finished installing.
type run struct {
	graph *dag.DirectedAcyclicGraph[string]
	done  map[string]bool
}

func newRun() *run {
	return &run{
		graph: dag.NewDirectedAcyclicGraph[string](),
		done:  make(map[string]bool),
	}
}

// enter records that parent depends on name. parent is empty for requested packages.
func (r *run) enter(parent, name string) error {
	if !r.graph.Contains(name) {
		if err := r.graph.AddVertex(name); err != nil {
			return err
		}
	}
	if parent == "" {
		return nil
	}

	if err := r.graph.AddEdge(parent, name); err != nil {
		var cycleErr *dag.CycleError
		if errors.Is(err, dag.ErrSelfReference) || errors.As(err, &cycleErr) {
			return fmt.Errorf("%w: %s depends on %s: %v", errutils.ErrDependencyCycle, parent, name, err)
		}
		return err
	}
	return nil
}

func (r *run) installed(name string) bool {
	return r.done[name]
}

func (r *run) markInstalled(name string) {
	r.done[name] = true
}
