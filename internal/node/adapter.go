package node

import (
	"context"
	"log/slog"

	"github.com/tombee/nodekit/internal/credential"
)

// Execution is one invocation of an adapter by the host.
type Execution struct {
	// Resource selects the API resource. Empty for single-resource adapters.
	Resource string

	// Operation selects what to do with the resource.
	Operation string

	// Items are the input items, in order.
	Items []Item

	// Params resolves per-item parameters.
	Params Params

	// Credentials provides the active credential set.
	Credentials credential.Source

	// Policy decides how per-item failures are handled.
	Policy Policy

	// Logger is scoped to this run. May be nil.
	Logger *slog.Logger
}

// OperationInfo describes an operation an adapter supports.
type OperationInfo struct {
	Resource    string `json:"resource,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Adapter executes resource/operation pairs against one third-party API.
type Adapter interface {
	// Name returns the adapter identifier (e.g. "fetias").
	Name() string

	// CredentialType returns the credential type name the adapter needs.
	CredentialType() string

	// Operations lists the supported resource/operation pairs.
	Operations() []OperationInfo

	// Execute runs one invocation and returns the output items.
	Execute(ctx context.Context, exec *Execution) ([]Item, error)
}

// Option is one entry of a dropdown list.
type Option struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// OptionLoader is implemented by adapters that populate dropdowns from the
// remote service.
type OptionLoader interface {
	// OptionLoaders lists the loader names.
	OptionLoaders() []string

	// LoadOptions runs the named loader.
	LoadOptions(ctx context.Context, loader string, creds credential.Source) ([]Option, error)
}

// CredentialTestResult is the outcome of a credential test.
type CredentialTestResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Credential test statuses.
const (
	CredentialStatusOK    = "OK"
	CredentialStatusError = "Error"
)

// CredentialTester is implemented by adapters that can verify a credential
// against the remote service.
type CredentialTester interface {
	TestCredential(ctx context.Context, cred *credential.Credential) CredentialTestResult
}
