package thread

import (
	"context"
	"fmt"
)

// Index is an in-memory parent → children map built from a flat list of
// already loaded nodes, e.g. every comment of one post.
type Index[K comparable] struct {
	children map[K][]K
	roots    []K
}

// NewIndex returns an empty index.
func NewIndex[K comparable]() *Index[K] {
	return &Index[K]{children: make(map[K][]K)}
}

// Add registers id.  parent is ignored when hasParent is false and the node
// becomes a root.  Insertion order is kept for Children and Roots.
func (ix *Index[K]) Add(id, parent K, hasParent bool) {
	if !hasParent {
		ix.roots = append(ix.roots, id)
		return
	}
	ix.children[parent] = append(ix.children[parent], id)
}

// Roots returns nodes added without a parent.
func (ix *Index[K]) Roots() []K { return ix.roots }

// Children returns the direct children of id.
func (ix *Index[K]) Children(id K) []K { return ix.children[id] }

// Expand implements ExpandFunc over the index.
func (ix *Index[K]) Expand(_ context.Context, frontier []K) ([]K, error) {
	var out []K
	for _, id := range frontier {
		out = append(out, ix.children[id]...)
	}
	return out, nil
}

// Count returns the number of descendants of id.
func (ix *Index[K]) Count(id K) (int, error) {
	return CountDescendants(context.Background(), id, ix.Expand)
}

// Counts returns the descendant count of every node that has children.
// Leaves are absent from the map and count as zero.  Every node is visited
// once, children before parents, so a long chain costs O(n) rather than one
// walk per ancestor.  A node listed under two parents, or reachable from
// itself, yields ErrCycle.
func (ix *Index[K]) Counts() (map[K]int, error) {
	parentOf := make(map[K]K)
	for p, kids := range ix.children {
		for _, c := range kids {
			if _, dup := parentOf[c]; dup {
				return nil, fmt.Errorf("%w: node %v", ErrCycle, c)
			}
			parentOf[c] = p
		}
	}

	type frame struct {
		id   K
		next int
	}
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[K]uint8, len(parentOf))
	out := make(map[K]int, len(ix.children))

	for start := range ix.children {
		if state[start] == done {
			continue
		}
		stack := []frame{{id: start}}
		state[start] = visiting
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := ix.children[top.id]
			if top.next < len(kids) {
				c := kids[top.next]
				top.next++
				switch state[c] {
				case visiting:
					return nil, fmt.Errorf("%w: node %v", ErrCycle, c)
				case done:
					continue
				}
				state[c] = visiting
				stack = append(stack, frame{id: c})
				continue
			}

			n := 0
			for _, c := range kids {
				n += 1 + out[c]
			}
			if len(kids) > 0 {
				out[top.id] = n
			}
			state[top.id] = done
			stack = stack[:len(stack)-1]
		}
	}
	return out, nil
}
