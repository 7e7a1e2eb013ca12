package fetias

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	nodelog "github.com/tombee/nodekit/internal/log"
	"github.com/tombee/nodekit/internal/node"
)

const (
	entriesEndpoint = "Activity/Form"
	profileEndpoint = "profile"

	defaultLimit = 50
)

// createEntries posts each input item as a single-record entry. The item's
// id is never sent; the server assigns one.
func (c *FetiasIntegration) createEntries(ctx context.Context, exec *node.Execution, logger *slog.Logger) ([]node.Item, error) {
	workspace, err := node.String(exec.Params, "workspace", 0)
	if err != nil {
		return nil, err
	}
	module, err := node.String(exec.Params, "module", 0)
	if err != nil {
		return nil, err
	}
	logger.Debug("creating entries",
		slog.String("workspace", workspace),
		slog.String("module", module),
		slog.Int("items", len(exec.Items)))

	create := func(ctx context.Context, index int, item node.Item) ([]node.Item, error) {
		fields, err := recordFields(item)
		if err != nil {
			return nil, err
		}
		body := map[string]any{
			"records": []any{
				map[string]any{"fields": fields},
			},
		}

		raw, err := c.client.RequestRaw(ctx, exec.Credentials, http.MethodPost, entriesEndpoint, body, nil, "", nil)
		if err != nil {
			return nil, err
		}
		if !gjson.GetBytes(raw, "records").IsArray() {
			return nil, &node.Error{Type: node.ErrorTypeAPI, Message: "The response contains no records"}
		}
		return itemsAt(raw, "records"), nil
	}

	return node.ProcessItems(ctx, exec.Items, exec.Policy, nodelog.WithAdapter(logger, c.Name()),
		c.config.TrackItems(c.Name(), "create", create))
}

// recordFields returns the item's fields with "id" removed.
func recordFields(item node.Item) (map[string]any, error) {
	raw, err := json.Marshal(item.JSON)
	if err != nil {
		return nil, node.NewOperationError("item is not valid JSON: %v", err)
	}
	raw, err = sjson.DeleteBytes(raw, "id")
	if err != nil {
		return nil, fmt.Errorf("remove id: %w", err)
	}

	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}

// readProfile reads the authenticated profile once for the whole run.
func (c *FetiasIntegration) readProfile(ctx context.Context, exec *node.Execution) ([]node.Item, error) {
	resp, err := c.client.Request(ctx, exec.Credentials, http.MethodGet, profileEndpoint, nil, nil, "", nil)
	if err != nil {
		return exec.Policy.Recover(err)
	}
	return node.ItemsFromValue(resp), nil
}

// listEntries lists entries, either one page of up to limit entries or every
// page when returnAll is set.
func (c *FetiasIntegration) listEntries(ctx context.Context, exec *node.Execution) ([]node.Item, error) {
	returnAll, err := node.Bool(exec.Params, "returnAll", 0, false)
	if err != nil {
		return nil, err
	}

	if returnAll {
		out, err := c.client.RequestAllItems(ctx, exec.Credentials, http.MethodGet, entriesEndpoint, nil, nil)
		if err != nil {
			return exec.Policy.Recover(err)
		}
		return node.ItemsFromValue(out["items"]), nil
	}

	limit, err := node.Int(exec.Params, "limit", 0, defaultLimit)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, node.NewOperationError("the parameter %q must be at least 1", "limit")
	}

	query := map[string]any{"page": 1, "page_size": limit}
	raw, err := c.client.RequestRaw(ctx, exec.Credentials, http.MethodGet, entriesEndpoint, nil, query, "", nil)
	if err != nil {
		return exec.Policy.Recover(err)
	}
	items := itemsAt(raw, "items")
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// itemsAt converts the array at path in a JSON response into items.
func itemsAt(raw []byte, path string) []node.Item {
	result := gjson.GetBytes(raw, path)
	items := make([]node.Item, 0, len(result.Array()))
	for _, entry := range result.Array() {
		items = append(items, node.ItemsFromValue(entry.Value())...)
	}
	return items
}
