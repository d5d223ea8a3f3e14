// Package thread counts replies in self-referential comment trees.
//
// Blog comments, recipe comments, forum posts and VIP comments all share
// the same walk: starting from one node, expand the frontier one level at a
// time until no children remain.  Depth is unbounded and a node seen twice
// aborts the walk with ErrCycle.
package thread

import (
	"context"
	"errors"
	"fmt"
)

// ErrCycle is returned when a node is reachable from itself.
var ErrCycle = errors.New("thread: cycle in reply tree")

// ExpandFunc returns the direct children of every node in frontier.
type ExpandFunc[K comparable] func(ctx context.Context, frontier []K) ([]K, error)

// CountDescendants returns how many nodes sit below root at any depth.
// root itself is not counted.
func CountDescendants[K comparable](ctx context.Context, root K, expand ExpandFunc[K]) (int, error) {
	seen := map[K]struct{}{root: {}}
	frontier := []K{root}
	total := 0
	for depth := 1; len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		children, err := expand(ctx, frontier)
		if err != nil {
			return 0, fmt.Errorf("expand level %d: %w", depth, err)
		}
		for _, c := range children {
			if _, dup := seen[c]; dup {
				return 0, fmt.Errorf("%w: node %v", ErrCycle, c)
			}
			seen[c] = struct{}{}
		}
		total += len(children)
		frontier = children
	}
	return total, nil
}
