package archive

import (
	"context"

	"github.com/utsmok/ea-cli/internal/catalog"
	"github.com/utsmok/ea-cli/internal/diff"
)

// Compare classifies an external snapshot against the archive's active rows
// for the same partition.
//
// partition is a faculty name, or "all" (or empty) for no scoping. The
// archive is read, never mutated; the classification itself is the pure
// diff.Classify over the two row sets.
func (a *Archive) Compare(ctx context.Context, snapshot *catalog.Batch, partition string) ([]diff.Result, error) {
	records, err := a.Get(ctx, GetOptions{Faculty: partition})
	if err != nil {
		return nil, err
	}
	archived := make([]*catalog.Row, len(records))
	for i, rec := range records {
		archived[i] = rec.Row
	}
	return diff.Classify(snapshot.Rows, archived), nil
}
