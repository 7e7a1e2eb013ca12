package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets map[string]string

func (f fakeSecrets) Resolve(_ context.Context, ref string) (string, error) {
	if v, ok := f[ref]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func TestStatic(t *testing.T) {
	src := Static{"fetiasApi": {"apiKey": "k1"}}

	cred, err := src.Credential(context.Background(), "fetiasApi")
	require.NoError(t, err)
	assert.Equal(t, "k1", cred.String("apiKey"))
	assert.Equal(t, "", cred.String("missing"))

	_, err = src.Credential(context.Background(), "haloPSAApi")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCredential_Decode(t *testing.T) {
	cred := &Credential{Type: "haloPSAApi", Data: map[string]any{
		"authUrl":       "https://auth.example.test",
		"client_id":     "id",
		"client_secret": "secret",
	}}

	var out struct {
		AuthURL      string `mapstructure:"authUrl"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		Tenant       string `mapstructure:"tenant"`
	}
	require.NoError(t, cred.Decode(&out))
	assert.Equal(t, "https://auth.example.test", out.AuthURL)
	assert.Equal(t, "id", out.ClientID)
	assert.Equal(t, "", out.Tenant)
}

func TestResolver(t *testing.T) {
	r := NewResolver(
		map[string]map[string]string{
			"fetiasApi":     {"apiKey": "env:FETIAS_API_KEY"},
			"friendGridApi": {"apiKey": "env:MISSING"},
		},
		fakeSecrets{"env:FETIAS_API_KEY": "resolved"},
	)

	cred, err := r.Credential(context.Background(), "fetiasApi")
	require.NoError(t, err)
	assert.Equal(t, "resolved", cred.String("apiKey"))

	_, err = r.Credential(context.Background(), "friendGridApi")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)

	_, err = r.Credential(context.Background(), "haloPSAApi")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
