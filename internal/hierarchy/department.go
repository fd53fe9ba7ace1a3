package hierarchy

import "fmt"

// DepartmentNode is one row of the organizational snapshot. ParentID of 0
// marks a top-level department.
type DepartmentNode struct {
	ID       int64
	Name     string
	ParentID int64
}

// DepartmentLabels is one resolved three-level label stack for a department.
// A department id can map to more than one stack when it is reachable from
// both seed closures; callers must expect fan-out.
type DepartmentLabels struct {
	Sector     string
	Section    string
	Department string
}

// SeedConfig defines where the two closures start and which ids form the
// synthetic top level. Injected rather than hardcoded so tests can run
// against synthetic forests.
type SeedConfig struct {
	// SetAParents: closure A seeds are the direct children of these ids.
	SetAParents []int64
	// SetBRoots: closure B seeds are these ids themselves.
	SetBRoots []int64
	// SyntheticTopIDs are emitted as single-level rows naming themselves on
	// all three levels.
	SyntheticTopIDs []int64
}

// CycleError reports a parent-link cycle discovered during closure
// expansion. The source system assumes an acyclic forest; rather than loop,
// the resolver fails naming the first id it saw twice.
type CycleError struct {
	ID int64
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("department hierarchy: parent-link cycle at id %d", e.ID)
}

// reached is one (node, seed root) pair produced by a closure.
type reached struct {
	node   DepartmentNode
	rootID int64
}

// expandClosure walks downward from the seeds, tagging every reached node
// with the root id of the seed branch it descended from. A node reachable
// from two different seeds legitimately yields two entries; seeing the same
// (node, root) pair twice is only possible through a cycle.
func expandClosure(seeds []reached, children map[int64][]DepartmentNode) ([]reached, error) {
	type key struct{ id, root int64 }
	visited := make(map[key]struct{}, len(seeds))

	out := make([]reached, 0, len(seeds))
	work := append([]reached(nil), seeds...)
	for len(work) > 0 {
		cur := work[0]
		work = work[1:]

		k := key{cur.node.ID, cur.rootID}
		if _, dup := visited[k]; dup {
			return nil, &CycleError{ID: cur.node.ID}
		}
		visited[k] = struct{}{}
		out = append(out, cur)

		for _, ch := range children[cur.node.ID] {
			work = append(work, reached{node: ch, rootID: cur.rootID})
		}
	}
	return out, nil
}

// ResolveDepartments builds the department-id → label-stack map from the
// snapshot and the seed configuration.
//
// Closure A seeds are children of the configured parent ids and carry two
// ancestor levels above themselves: sector is the reached node, section the
// seed, department the seed's own parent. Closure B seeds are the
// configured ids and carry one ancestor level: section and department both
// name the seed. The synthetic top ids, when present in the snapshot, name
// themselves on every level.
//
// Ids reachable from both closures keep every row; nothing deduplicates
// across closures, so downstream joins on such ids fan out. An empty
// snapshot yields an empty map and no error.
func ResolveDepartments(nodes []DepartmentNode, cfg SeedConfig) (map[int64][]DepartmentLabels, error) {
	byID := make(map[int64]DepartmentNode, len(nodes))
	children := make(map[int64][]DepartmentNode)
	for _, n := range nodes {
		byID[n.ID] = n
		children[n.ParentID] = append(children[n.ParentID], n)
	}

	setAParents := make(map[int64]struct{}, len(cfg.SetAParents))
	for _, id := range cfg.SetAParents {
		setAParents[id] = struct{}{}
	}

	var seedsA []reached
	for _, n := range nodes {
		if _, ok := setAParents[n.ParentID]; ok {
			seedsA = append(seedsA, reached{node: n, rootID: n.ID})
		}
	}

	var seedsB []reached
	for _, id := range cfg.SetBRoots {
		if n, ok := byID[id]; ok {
			seedsB = append(seedsB, reached{node: n, rootID: n.ID})
		}
	}

	closureA, err := expandClosure(seedsA, children)
	if err != nil {
		return nil, err
	}
	closureB, err := expandClosure(seedsB, children)
	if err != nil {
		return nil, err
	}

	out := make(map[int64][]DepartmentLabels)

	for _, r := range closureA {
		root, ok := byID[r.rootID]
		if !ok {
			continue
		}
		parent, ok := byID[root.ParentID]
		if !ok {
			// Seed lost its parent between snapshot rows; without the top
			// label the stack is meaningless, so the row is dropped the way
			// an inner join would drop it.
			continue
		}
		out[r.node.ID] = append(out[r.node.ID], DepartmentLabels{
			Sector:     r.node.Name,
			Section:    root.Name,
			Department: parent.Name,
		})
	}

	for _, r := range closureB {
		root, ok := byID[r.rootID]
		if !ok {
			continue
		}
		out[r.node.ID] = append(out[r.node.ID], DepartmentLabels{
			Sector:     r.node.Name,
			Section:    root.Name,
			Department: root.Name,
		})
	}

	for _, id := range cfg.SyntheticTopIDs {
		n, ok := byID[id]
		if !ok {
			continue
		}
		out[id] = append(out[id], DepartmentLabels{
			Sector:     n.Name,
			Section:    n.Name,
			Department: n.Name,
		})
	}

	return out, nil
}

// DepartmentRoots maps every department to its topmost ancestor. The walk
// follows parent links until they run out; a link chain that revisits a
// node is a cycle and fails the resolution.
func DepartmentRoots(nodes []DepartmentNode) (map[int64]int64, error) {
	byID := make(map[int64]DepartmentNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	roots := make(map[int64]int64, len(nodes))
	for _, n := range nodes {
		seen := make(map[int64]struct{})
		cur := n
		for {
			if _, dup := seen[cur.ID]; dup {
				return nil, &CycleError{ID: cur.ID}
			}
			seen[cur.ID] = struct{}{}

			parent, ok := byID[cur.ParentID]
			if !ok {
				break
			}
			cur = parent
		}
		roots[n.ID] = cur.ID
	}
	return roots, nil
}
