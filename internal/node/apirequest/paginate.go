package apirequest

import (
	"context"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/tombee/nodekit/internal/credential"
	"github.com/tombee/nodekit/internal/node"
)

// DefaultPageSize is the page_size the paginator requests.
const DefaultPageSize = 200

// RequestAllItems fetches every page of a list endpoint and returns
// {"items": [...]} with the pages' items concatenated in order.
//
// Paging starts at page 1 and stops when a response has no page_count or
// the current page reaches page_count. When the provider config sets
// MaxPages, the paginator stops after that many pages and returns what it
// has.
func (b *Builder) RequestAllItems(ctx context.Context, creds credential.Source, method, endpoint string, body any, query map[string]any) (map[string]any, error) {
	q := make(map[string]any, len(query)+2)
	for k, v := range query {
		q[k] = v
	}
	q["page_size"] = DefaultPageSize

	items := make([]any, 0)
	for page := int64(1); ; page++ {
		q["page"] = page

		raw, err := b.do(ctx, creds, method, endpoint, body, q, "", nil)
		if err != nil {
			return nil, err
		}
		b.provider.Metrics.RecordPage(b.cfg.Adapter)

		for _, entry := range gjson.GetBytes(raw, "items").Array() {
			items = append(items, entry.Value())
		}

		pageCount := gjson.GetBytes(raw, "page_count")
		if !pageCount.Exists() || page >= pageCount.Int() {
			break
		}
		if b.provider.MaxPages > 0 && page >= int64(b.provider.MaxPages) {
			b.logger.Warn("page limit reached, returning partial results",
				slog.Int("max_pages", b.provider.MaxPages),
				slog.Int64("page_count", pageCount.Int()),
				slog.Int("items", len(items)))
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, node.NewAPIError(err)
		}
	}

	return map[string]any{"items": items}, nil
}
