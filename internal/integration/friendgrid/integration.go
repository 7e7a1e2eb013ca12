package friendgrid

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tombee/nodekit/internal/log"
	"github.com/tombee/nodekit/internal/node"
	"github.com/tombee/nodekit/internal/node/api"
	"github.com/tombee/nodekit/internal/node/apirequest"
)

const (
	// CredentialType is the credential FriendGrid requests authenticate with.
	CredentialType = "friendGridApi"

	// DefaultBaseURL is the FriendGrid profile endpoint.
	DefaultBaseURL = "https://app01.fetias.com/api/profile/"
)

// FriendGridIntegration implements node.Adapter for FriendGrid contacts.
type FriendGridIntegration struct {
	config *api.ProviderConfig
	client *apirequest.Builder
}

// NewFriendGridIntegration creates a new FriendGrid integration.
func NewFriendGridIntegration(config *api.ProviderConfig) (node.Adapter, error) {
	config = config.WithDefaults()

	client := apirequest.New(apirequest.Config{
		Adapter:        "friendgrid",
		CredentialType: CredentialType,
		AuthPrefix:     "Bearer",
		BaseURL:        DefaultBaseURL,
		Headers:        map[string]string{"Accept": "application/json"},
	}, config)

	return &FriendGridIntegration{config: config, client: client}, nil
}

// Name returns "friendgrid".
func (c *FriendGridIntegration) Name() string {
	return "friendgrid"
}

// CredentialType returns "friendGridApi".
func (c *FriendGridIntegration) CredentialType() string {
	return CredentialType
}

// Operations returns the list of available operations.
func (c *FriendGridIntegration) Operations() []node.OperationInfo {
	return []node.OperationInfo{
		{Name: "create", Description: "Create a contact entry"},
		{Name: "read", Description: "Read the profile entry"},
	}
}

// Execute runs the selected operation for every input item.
func (c *FriendGridIntegration) Execute(ctx context.Context, exec *node.Execution) ([]node.Item, error) {
	var fn node.ItemFunc
	switch exec.Operation {
	case "create":
		fn = func(ctx context.Context, i int, _ node.Item) ([]node.Item, error) {
			return c.createContact(ctx, exec, i)
		}
	case "read":
		fn = func(ctx context.Context, _ int, _ node.Item) ([]node.Item, error) {
			return c.readEntry(ctx, exec)
		}
	default:
		return nil, node.UnknownOperation("", exec.Operation)
	}

	logger := exec.Logger
	if logger == nil {
		logger = c.config.Logger
	}
	logger = log.WithOperation(log.WithAdapter(logger, c.Name()), "", exec.Operation)
	logger.Debug("processing items", slog.Int("items", len(exec.Items)))

	return node.ProcessItems(ctx, exec.Items, exec.Policy, logger,
		c.config.TrackItems(c.Name(), exec.Operation, fn))
}

// contactFields are the optional fields merged into a contact.
type contactFields struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

func (c *FriendGridIntegration) createContact(ctx context.Context, exec *node.Execution, i int) ([]node.Item, error) {
	workspace, err := node.String(exec.Params, "workspace", i)
	if err != nil {
		return nil, err
	}
	module, err := node.String(exec.Params, "module", i)
	if err != nil {
		return nil, err
	}

	var extra contactFields
	if err := node.Decode(exec.Params, "additionalFields", i, &extra); err != nil {
		return nil, err
	}

	contact := map[string]any{
		"workspace": workspace,
		"module":    module,
	}
	if extra.FirstName != "" {
		contact["firstName"] = extra.FirstName
	}
	if extra.LastName != "" {
		contact["lastName"] = extra.LastName
	}

	body := map[string]any{"contacts": []any{contact}}
	resp, err := c.client.Request(ctx, exec.Credentials, http.MethodPost, "", body, nil, "", nil)
	if err != nil {
		return nil, err
	}
	return node.ItemsFromValue(resp), nil
}

func (c *FriendGridIntegration) readEntry(ctx context.Context, exec *node.Execution) ([]node.Item, error) {
	resp, err := c.client.Request(ctx, exec.Credentials, http.MethodGet, "", nil, nil, "", nil)
	if err != nil {
		return nil, err
	}
	return node.ItemsFromValue(resp), nil
}
