package halopsa

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tombee/nodekit/internal/log"
	"github.com/tombee/nodekit/internal/node"
	"github.com/tombee/nodekit/internal/node/api"
	"github.com/tombee/nodekit/internal/node/apirequest"
)

// HaloPSAIntegration implements node.Adapter for the HaloPSA resource API.
// Requests authenticate with an OAuth2 client-credentials token that is
// fetched once per run.
type HaloPSAIntegration struct {
	config *api.ProviderConfig
}

// NewHaloPSAIntegration creates a new HaloPSA integration.
func NewHaloPSAIntegration(config *api.ProviderConfig) (node.Adapter, error) {
	return &HaloPSAIntegration{config: config.WithDefaults()}, nil
}

// Name returns "halopsa".
func (c *HaloPSAIntegration) Name() string {
	return "halopsa"
}

// CredentialType returns "haloPSAApi".
func (c *HaloPSAIntegration) CredentialType() string {
	return CredentialType
}

var operationDescriptions = []struct {
	name, description string
}{
	{"create", "Create a %s"},
	{"delete", "Delete a %s"},
	{"get", "Get a %s"},
	{"getAll", "Get all %s records"},
	{"update", "Update a %s"},
}

// Operations returns every resource/operation pair.
func (c *HaloPSAIntegration) Operations() []node.OperationInfo {
	ops := make([]node.OperationInfo, 0, len(Resources)*len(operationDescriptions))
	for _, r := range Resources {
		for _, d := range operationDescriptions {
			ops = append(ops, node.OperationInfo{
				Resource:    string(r),
				Name:        d.name,
				Description: fmt.Sprintf(d.description, r),
			})
		}
	}
	return ops
}

// Execute runs the selected operation for every input item.
func (c *HaloPSAIntegration) Execute(ctx context.Context, exec *node.Execution) ([]node.Item, error) {
	resource := Resource(exec.Resource)
	if _, ok := assemblers[resource]; !ok {
		return nil, node.UnknownOperation(exec.Resource, exec.Operation)
	}

	var op func(ctx context.Context, s *session, exec *node.Execution, i int) ([]node.Item, error)
	switch exec.Operation {
	case "create":
		op = c.create
	case "delete":
		op = c.delete
	case "get":
		op = c.get
	case "getAll":
		op = c.getAll
	case "update":
		op = c.update
	default:
		return nil, node.UnknownOperation(exec.Resource, exec.Operation)
	}

	logger := exec.Logger
	if logger == nil {
		logger = c.config.Logger
	}
	logger = log.WithOperation(log.WithAdapter(logger, c.Name()), exec.Resource, exec.Operation)

	s, err := c.openSession(ctx, exec.Credentials, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("processing items", slog.Int("items", len(exec.Items)))

	fn := func(ctx context.Context, i int, _ node.Item) ([]node.Item, error) {
		return op(ctx, s, exec, i)
	}
	return node.ProcessItems(ctx, exec.Items, exec.Policy, logger,
		c.config.TrackItems(c.Name(), exec.Operation, fn))
}

// request sends one authenticated request to <resourceApiUrl>/<path>.
func (c *HaloPSAIntegration) request(ctx context.Context, s *session, method, path string, body any, query map[string]any) (any, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + s.token,
		"Accept":        "application/json",
	}
	d := apirequest.NewDescriptor(method, s.baseURL+"/"+path, headers, body, query)

	raw, err := apirequest.Send(ctx, c.config.Transport, d, apirequest.Observer{
		Adapter: c.Name(),
		Logger:  s.logger,
		Metrics: c.config.Metrics,
		Tracer:  c.config.Tracer,
	})
	if err != nil {
		return nil, err
	}
	return apirequest.Decode(raw)
}

func (c *HaloPSAIntegration) create(ctx context.Context, s *session, exec *node.Execution, i int) ([]node.Item, error) {
	rec, err := createRecord(Resource(exec.Resource), exec.Params, i)
	if err != nil {
		return nil, err
	}
	resp, err := c.request(ctx, s, http.MethodPost, exec.Resource, []Record{rec}, nil)
	if err != nil {
		return nil, err
	}
	return node.ItemsFromValue(resp), nil
}

func (c *HaloPSAIntegration) delete(ctx context.Context, s *session, exec *node.Execution, i int) ([]node.Item, error) {
	id, err := node.String(exec.Params, "item_id", i)
	if err != nil {
		return nil, err
	}
	reason, err := node.StringOr(exec.Params, "reasonForDeletion", i, "")
	if err != nil {
		return nil, err
	}

	var query map[string]any
	if reason != "" {
		query = map[string]any{"reason": reason}
	}
	resp, err := c.request(ctx, s, http.MethodDelete, exec.Resource+"/"+url.PathEscape(id), nil, query)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return []node.Item{node.NewItem(map[string]any{"success": true})}, nil
	}
	return node.ItemsFromValue(resp), nil
}

func (c *HaloPSAIntegration) get(ctx context.Context, s *session, exec *node.Execution, i int) ([]node.Item, error) {
	id, err := node.String(exec.Params, "item_id", i)
	if err != nil {
		return nil, err
	}
	resp, err := c.request(ctx, s, http.MethodGet, exec.Resource+"/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return node.ItemsFromValue(resp), nil
}

func (c *HaloPSAIntegration) getAll(ctx context.Context, s *session, exec *node.Execution, i int) ([]node.Item, error) {
	returnAll, err := node.Bool(exec.Params, "returnAll", i, false)
	if err != nil {
		return nil, err
	}

	var query map[string]any
	if !returnAll {
		limit, err := node.Int(exec.Params, "limit", i, 50)
		if err != nil {
			return nil, err
		}
		if limit < 1 {
			return nil, node.NewOperationError("the parameter %q must be at least 1", "limit")
		}
		query = map[string]any{"count": limit}
	}

	resp, err := c.request(ctx, s, http.MethodGet, exec.Resource, nil, query)
	if err != nil {
		return nil, err
	}
	return node.ItemsFromValue(resp), nil
}

func (c *HaloPSAIntegration) update(ctx context.Context, s *session, exec *node.Execution, i int) ([]node.Item, error) {
	id, err := node.String(exec.Params, "item_id", i)
	if err != nil {
		return nil, err
	}
	rec, err := customFields(exec.Params, i)
	if err != nil {
		return nil, err
	}
	rec["id"] = recordID(id)

	resp, err := c.request(ctx, s, http.MethodPost, exec.Resource, []Record{rec}, nil)
	if err != nil {
		return nil, err
	}
	return node.ItemsFromValue(resp), nil
}
