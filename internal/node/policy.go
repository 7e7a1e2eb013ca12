package node

import (
	"context"
	"log/slog"

	"github.com/tombee/nodekit/internal/log"
)

// Policy decides what happens when processing one item fails.
type Policy struct {
	// ContinueOnFail appends {error: message} in place of the failed item's
	// output and moves on. When false the first failure aborts the run.
	ContinueOnFail bool
}

// Recover applies the policy to a single failure. It returns the error item
// and a nil error when failures are tolerated, or the error itself otherwise.
func (p Policy) Recover(err error) ([]Item, error) {
	if p.ContinueOnFail {
		return []Item{ErrorItem(err)}, nil
	}
	return nil, err
}

// ItemFunc processes one input item and returns its output items.
type ItemFunc func(ctx context.Context, index int, item Item) ([]Item, error)

// ProcessItems runs fn for each input item in order and concatenates the
// results. Items are processed sequentially. Context cancellation always
// aborts, regardless of the policy.
func ProcessItems(ctx context.Context, items []Item, policy Policy, logger *slog.Logger, fn ItemFunc) ([]Item, error) {
	if logger == nil {
		logger = log.Discard()
	}

	out := make([]Item, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := fn(ctx, i, item)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			recovered, rerr := policy.Recover(err)
			if rerr != nil {
				return nil, rerr
			}
			logger.Warn("item failed, continuing",
				slog.Int(log.ItemIndexKey, i),
				log.Error(err))
			out = append(out, recovered...)
			continue
		}
		out = append(out, res...)
	}
	return out, nil
}
