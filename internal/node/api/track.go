package api

import (
	"context"

	"github.com/tombee/nodekit/internal/metrics"
	"github.com/tombee/nodekit/internal/node"
)

// TrackItems wraps fn so every processed item is counted by outcome.
func (c *ProviderConfig) TrackItems(adapter, operation string, fn node.ItemFunc) node.ItemFunc {
	return func(ctx context.Context, index int, item node.Item) ([]node.Item, error) {
		out, err := fn(ctx, index, item)
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		c.Metrics.RecordItem(adapter, operation, outcome)
		return out, err
	}
}
