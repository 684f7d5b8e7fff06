package loader

import (
	"context"
	"fmt"
	"sort"

	"github.com/c360studio/semforge/rules"
)

// ViewPlan is one step of the per-view iteration order.
type ViewPlan struct {
	View  rules.DMSView
	Type  string
	Count int
}

// Plan queries the instance count of every view's RDF type, skips
// views with no instances, and orders the survivors: first a
// topological order derived from container requires-constraints, so a
// view whose storage requires another container's data runs after that
// container's view, then a stable re-sort placing node views before
// all-kind views before pure edge views. The stable sort preserves the
// topological tie-break within each group.
func (l *Loader) Plan(ctx context.Context) ([]ViewPlan, error) {
	var surviving []ViewPlan
	for _, v := range l.dms.Views {
		rdfType := l.info.ClassIRI(rules.ClassEntity{Prefix: v.Class.Prefix, Suffix: v.Class.Suffix})
		count, err := l.reader.CountByType(ctx, rdfType)
		if err != nil {
			return nil, fmt.Errorf("count instances of %s: %w", rdfType, err)
		}
		if count == 0 {
			continue
		}
		surviving = append(surviving, ViewPlan{View: v, Type: rdfType, Count: count})
	}

	ordered := l.topologicalOrder(surviving)

	rank := func(v rules.DMSView) int {
		switch v.Usage() {
		case rules.UsageNode:
			return 0
		case rules.UsageAll:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank(ordered[i].View) < rank(ordered[j].View)
	})
	return ordered, nil
}

// topologicalOrder sorts plans so a view depending on another view's
// container data comes after it. The dependency graph follows the
// requires-constraints of the containers each view maps.
func (l *Loader) topologicalOrder(plans []ViewPlan) []ViewPlan {
	// Containers each view stores into.
	viewContainers := make(map[rules.ViewEntity]map[rules.ContainerEntity]bool)
	for _, p := range l.dms.Properties {
		if !p.HasContainer() {
			continue
		}
		if viewContainers[p.View] == nil {
			viewContainers[p.View] = make(map[rules.ContainerEntity]bool)
		}
		viewContainers[p.View][p.Container] = true
	}

	// Views providing each container's data.
	providers := make(map[rules.ContainerEntity][]int)
	for i, vp := range plans {
		for c := range viewContainers[vp.View.View] {
			providers[c] = append(providers[c], i)
		}
	}

	requires := make(map[rules.ContainerEntity][]rules.ContainerEntity)
	for _, c := range l.dms.Containers {
		requires[c.Container] = c.Constraints
	}

	// deps[i] lists plan indexes that must precede plan i.
	deps := make(map[int]map[int]bool, len(plans))
	indegree := make([]int, len(plans))
	for i, vp := range plans {
		for c := range viewContainers[vp.View.View] {
			for _, required := range requires[c] {
				for _, j := range providers[required] {
					if j == i {
						continue
					}
					if deps[i] == nil {
						deps[i] = make(map[int]bool)
					}
					if !deps[i][j] {
						deps[i][j] = true
						indegree[i]++
					}
				}
			}
		}
	}

	dependents := make(map[int][]int)
	for i, preds := range deps {
		for j := range preds {
			dependents[j] = append(dependents[j], i)
		}
	}

	// Kahn's algorithm with the plan order as deterministic
	// tie-break. Cycles (mutual requires) fall back to plan order.
	var ready []int
	for i := range plans {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	var order []int
	emitted := make([]bool, len(plans))
	for len(ready) > 0 {
		sort.Ints(ready)
		i := ready[0]
		ready = ready[1:]
		order = append(order, i)
		emitted[i] = true
		for _, dep := range dependents[i] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	for i := range plans {
		if !emitted[i] {
			order = append(order, i)
		}
	}

	out := make([]ViewPlan, len(order))
	for n, i := range order {
		out[n] = plans[i]
	}
	return out
}
