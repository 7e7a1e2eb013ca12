package fetias

import (
	"context"

	"github.com/tombee/nodekit/internal/log"
	"github.com/tombee/nodekit/internal/node"
	"github.com/tombee/nodekit/internal/node/api"
	"github.com/tombee/nodekit/internal/node/apirequest"
)

const (
	// CredentialType is the credential FETIAS requests authenticate with.
	CredentialType = "fetiasApi"

	// AuthPrefix precedes the API key in the Authorization header.
	AuthPrefix = "fsk"
)

// FetiasIntegration implements node.Adapter for the FETIAS API.
type FetiasIntegration struct {
	config *api.ProviderConfig
	client *apirequest.Builder
}

// NewFetiasIntegration creates a new FETIAS integration.
func NewFetiasIntegration(config *api.ProviderConfig) (node.Adapter, error) {
	config = config.WithDefaults()

	client := apirequest.New(apirequest.Config{
		Adapter:        "fetias",
		CredentialType: CredentialType,
		AuthPrefix:     AuthPrefix,
		BaseURL:        apirequest.DefaultBaseURL,
	}, config)

	return &FetiasIntegration{config: config, client: client}, nil
}

// Name returns "fetias".
func (c *FetiasIntegration) Name() string {
	return "fetias"
}

// CredentialType returns "fetiasApi".
func (c *FetiasIntegration) CredentialType() string {
	return CredentialType
}

// Execute runs the selected operation.
func (c *FetiasIntegration) Execute(ctx context.Context, exec *node.Execution) ([]node.Item, error) {
	logger := exec.Logger
	if logger == nil {
		logger = c.config.Logger
	}
	logger = log.WithOperation(logger, "", exec.Operation)

	switch exec.Operation {
	case "create":
		return c.createEntries(ctx, exec, logger)
	case "read":
		return c.readProfile(ctx, exec)
	case "getAll":
		return c.listEntries(ctx, exec)
	default:
		return nil, node.UnknownOperation("", exec.Operation)
	}
}

// Operations returns the list of available operations.
func (c *FetiasIntegration) Operations() []node.OperationInfo {
	return []node.OperationInfo{
		{Name: "create", Description: "Create an entry in a workspace module"},
		{Name: "read", Description: "Read the username of the authenticated profile"},
		{Name: "getAll", Description: "List entries, optionally following every page"},
	}
}
