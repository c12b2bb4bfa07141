package diferenco

import (
	"context"

	lcspkg "github.com/mergetools/diff3/modules/diferenco/lcs"
)

// MinimalDiff computes the edit script with the Hunt-McIlroy LCS of the lcs
// package (not Myers' O(ND) algorithm). ctx is checked once, before it runs.
func MinimalDiff[E comparable](ctx context.Context, L1 []E, L2 []E) ([]Change, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	diffs := lcspkg.DiffSlices(L1, L2)
	changes := make([]Change, 0, len(diffs))
	for _, d := range diffs {
		changes = append(changes, Change{P1: d.Start, P2: d.ReplStart, Del: d.End - d.Start, Ins: d.ReplEnd - d.ReplStart})
	}
	return changes, nil
}
