// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"context"

	"github.com/pdiddy/bibmatch/pkg/types"
)

// ProgressFunc is called before each reference is reconciled, with its
// zero-based position, the total count, and the reference title.
type ProgressFunc func(index, total int, title string)

// ValidateAndEnrich reconciles a batch of references in order. When
// validation is disabled in the config the input passes through unchanged
// with all-valid reports. Cancelling the context stops the batch between
// references; a partially processed batch is not returned.
func (e *Engine) ValidateAndEnrich(ctx context.Context, refs []types.ExtractedReference, progress ProgressFunc) ([]types.ExtractedReference, []types.ValidationResult, error) {
	out := make([]types.ExtractedReference, len(refs))
	results := make([]types.ValidationResult, len(refs))

	if !e.cfg.Enabled {
		copy(out, refs)
		for i := range results {
			results[i] = types.ValidResult()
		}
		return out, results, nil
	}

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if progress != nil {
			progress(i, len(refs), ref.Title)
		}
		out[i], results[i] = e.Reconcile(ctx, ref)
	}
	return out, results, nil
}
