package querybuilder

import (
	"sort"

	"github.com/nexadash/dcx/pkg/catalog"
)

// joinStep is one edge on a resolved join path
type joinStep struct {
	Alias string
	Join  catalog.JoinDef
}

// crumb records how an alias was reached during the search
type crumb struct {
	prev string
	step joinStep
}

// findJoinPath searches the table graph for a path from one alias to another.
// Breadth-first with neighbor keys visited in sorted order, so the first path
// found is deterministic across platforms. The visited set keeps lookup cycles
// from looping. Returns nil when no path exists.
func findJoinPath(tables map[string]catalog.TableDef, from, to string) []joinStep {
	if from == to {
		return []joinStep{}
	}

	visited := map[string]struct{}{from: {}}
	crumbs := make(map[string]crumb)
	queue := []string{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		table, ok := tables[current]
		if !ok {
			continue
		}

		keys := make([]string, 0, len(table.Joins))
		for k := range table.Joins {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, key := range keys {
			join := table.Joins[key]

			next := join.TargetTable
			if next == "" {
				next = key
			}

			if _, seen := visited[next]; seen {
				continue
			}

			visited[next] = struct{}{}
			crumbs[next] = crumb{prev: current, step: joinStep{Alias: next, Join: join}}

			if next == to {
				return backtrack(crumbs, from, to)
			}

			queue = append(queue, next)
		}
	}

	return nil
}

func backtrack(crumbs map[string]crumb, from, to string) []joinStep {
	var path []joinStep

	for at := to; at != from; {
		c := crumbs[at]
		path = append([]joinStep{c.step}, path...)
		at = c.prev
	}

	return path
}
