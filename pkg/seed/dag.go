package seed

import "fmt"

// BuildOrder topologically sorts tables by their ForeignKey generator
// edges (A -> B iff A has a column with a ForeignKey generator whose
// RefTable is B), per §3/§4.3. Self-edges (RefTable == table) are
// excluded from the graph since they never block ordering; handling
// them is the seeder's row-generation concern, not the DAG's.
func BuildOrder(tables []TableRule) ([]string, error) {
	indegree := map[string]int{}
	edges := map[string][]string{} // table -> tables that depend on it
	names := map[string]bool{}

	for _, t := range tables {
		names[t.Name] = true
		if _, ok := indegree[t.Name]; !ok {
			indegree[t.Name] = 0
		}
	}

	for _, t := range tables {
		for _, c := range t.Columns {
			if c.Generator.Kind != GenForeignKey {
				continue
			}
			ref := c.Generator.RefTable
			if ref == t.Name {
				continue // self-edge
			}
			if !names[ref] {
				return nil, fmt.Errorf("table %s references unknown table %s", t.Name, ref)
			}
			edges[ref] = append(edges[ref], t.Name)
			indegree[t.Name]++
		}
	}

	var queue, order []string
	for name, deg := range indegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	for len(queue) > 0 {
		// Stable iteration: process in the order tables were declared.
		next := stablePick(queue, tables)
		queue = removeOne(queue, next)
		order = append(order, next)

		for _, dependent := range edges[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(tables) {
		return nil, fmt.Errorf("cyclic foreign key dependency detected among tables")
	}
	return order, nil
}

func stablePick(queue []string, tables []TableRule) string {
	inQueue := map[string]bool{}
	for _, q := range queue {
		inQueue[q] = true
	}
	for _, t := range tables {
		if inQueue[t.Name] {
			return t.Name
		}
	}
	return queue[0]
}

func removeOne(queue []string, target string) []string {
	out := make([]string, 0, len(queue)-1)
	removed := false
	for _, q := range queue {
		if !removed && q == target {
			removed = true
			continue
		}
		out = append(out, q)
	}
	return out
}
