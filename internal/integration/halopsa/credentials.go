package halopsa

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tombee/nodekit/internal/credential"
	"github.com/tombee/nodekit/internal/node"
	"github.com/tombee/nodekit/internal/node/transport"
)

// CredentialType is the credential HaloPSA requests authenticate with.
const CredentialType = "haloPSAApi"

// tokenScopes are requested on every token exchange.
var tokenScopes = []string{"admin", "edit:tickets", "edit:customers"}

// haloCredential is the decoded haloPSAApi credential.
type haloCredential struct {
	AuthURL        string `mapstructure:"authUrl"`
	ResourceAPIURL string `mapstructure:"resourceApiUrl"`
	ClientID       string `mapstructure:"client_id"`
	ClientSecret   string `mapstructure:"client_secret"`
	Tenant         string `mapstructure:"tenant"`
}

func decodeCredential(cred *credential.Credential) (*haloCredential, error) {
	var hc haloCredential
	if err := cred.Decode(&hc); err != nil {
		return nil, &node.Error{Type: node.ErrorTypeAuth, Message: err.Error(), Cause: err}
	}
	switch {
	case hc.AuthURL == "":
		return nil, node.NewAuthError("The credential %q has no authUrl", CredentialType)
	case hc.ResourceAPIURL == "":
		return nil, node.NewAuthError("The credential %q has no resourceApiUrl", CredentialType)
	case hc.ClientID == "" || hc.ClientSecret == "":
		return nil, node.NewAuthError("The credential %q needs client_id and client_secret", CredentialType)
	}
	return &hc, nil
}

// tokenURL returns <authUrl>/token, with the tenant as a query parameter
// for hosted instances.
func (hc *haloCredential) tokenURL() string {
	u := strings.TrimRight(hc.AuthURL, "/") + "/token"
	if hc.Tenant != "" {
		u += "?tenant=" + url.QueryEscape(hc.Tenant)
	}
	return u
}

// httpClientProvider is implemented by transports that expose their client.
type httpClientProvider interface {
	HTTPClient() *http.Client
}

// accessToken exchanges the client credentials for a bearer token.
func (c *HaloPSAIntegration) accessToken(ctx context.Context, hc *haloCredential) (string, error) {
	cc := &transport.ClientCredentials{
		TokenURL:     hc.tokenURL(),
		ClientID:     hc.ClientID,
		ClientSecret: hc.ClientSecret,
		Scopes:       tokenScopes,
	}
	if p, ok := c.config.Transport.(httpClientProvider); ok {
		cc.HTTPClient = p.HTTPClient()
	}

	token, err := cc.Token(ctx)
	if err != nil {
		return "", &node.Error{Type: node.ErrorTypeAuth, Message: err.Error(), Cause: err}
	}
	return token, nil
}

// session is the per-run state: the resource base URL, the token and the
// logger requests are reported to.
type session struct {
	baseURL string
	token   string
	logger  *slog.Logger
}

// openSession resolves the credential and fetches a token.
func (c *HaloPSAIntegration) openSession(ctx context.Context, creds credential.Source, logger *slog.Logger) (*session, error) {
	if creds == nil {
		return nil, node.NewAuthError("No credentials got returned!")
	}
	cred, err := creds.Credential(ctx, CredentialType)
	if err != nil {
		return nil, &node.Error{Type: node.ErrorTypeAuth, Message: err.Error(), Cause: err}
	}
	hc, err := decodeCredential(cred)
	if err != nil {
		return nil, err
	}

	token, err := c.accessToken(ctx, hc)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = c.config.Logger
	}
	return &session{baseURL: strings.TrimRight(hc.ResourceAPIURL, "/"), token: token, logger: logger}, nil
}

// TestCredential verifies the credential by performing a token exchange.
func (c *HaloPSAIntegration) TestCredential(ctx context.Context, cred *credential.Credential) node.CredentialTestResult {
	hc, err := decodeCredential(cred)
	if err == nil {
		_, err = c.accessToken(ctx, hc)
	}
	if err != nil {
		c.config.Logger.Debug("credential test failed", "error", err.Error())
		return node.CredentialTestResult{
			Status:  node.CredentialStatusError,
			Message: "The API Key included in the request is invalid",
		}
	}
	return node.CredentialTestResult{
		Status:  node.CredentialStatusOK,
		Message: "Connection successful!",
	}
}
