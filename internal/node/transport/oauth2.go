package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentials exchanges a client id and secret for an access token
// using the OAuth2 client credentials grant. Credentials are sent in the
// form body.
type ClientCredentials struct {
	// TokenURL is the token endpoint, including any query string.
	TokenURL string

	ClientID     string
	ClientSecret string
	Scopes       []string

	// HTTPClient is used for the exchange. Optional.
	HTTPClient *http.Client
}

// Token performs one token exchange and returns the access token. Tokens are
// not cached here; callers fetch once per run.
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	if strings.TrimSpace(c.TokenURL) == "" {
		return "", &TransportError{Type: ErrorTypeInvalidReq, Message: "token URL is required"}
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return "", &TransportError{Type: ErrorTypeAuth, Message: "client_id and client_secret are required"}
	}

	cfg := &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	if c.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
	}

	tok, err := cfg.Token(ctx)
	if err != nil {
		return "", classifyTokenError(ctx, err)
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return "", &TransportError{Type: ErrorTypeAuth, Message: "token endpoint returned an empty access token"}
	}
	return tok.AccessToken, nil
}

func classifyTokenError(ctx context.Context, err error) *TransportError {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		msg := rerr.ErrorDescription
		if msg == "" {
			msg = rerr.ErrorCode
		}
		if msg == "" {
			msg = fmt.Sprintf("token request failed with status %d", status)
		}
		return &TransportError{
			Type:       ErrorTypeAuth,
			StatusCode: status,
			Message:    msg,
			Body:       rerr.Body,
			Cause:      err,
		}
	}
	return classifyHTTPError(ctx, err)
}
