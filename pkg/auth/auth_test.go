package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/repsly-export/pkg/errors"
)

func TestBasicAuthHeader(t *testing.T) {
	h, err := NewBasicAuth("user", "pass")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "https://api.repsly.com/v3/export/clients/0", nil)
	require.NoError(t, err)
	require.NoError(t, h.ApplyAuth(req))

	// base64("user:pass")
	want := "Basic dXNlcjpwYXNz"
	assert.Equal(t, want, req.Header.Get("Authorization"))
	assert.Equal(t, want, h.Header())

	u, p, ok := req.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "user", u)
	assert.Equal(t, "pass", p)
}

func TestBasicAuthRequiresUsername(t *testing.T) {
	_, err := NewBasicAuth("", "pass")
	assert.True(t, errors.Is(err, errors.ErrCredentials), "got %v", err)
}

func TestBasicAuthStringHidesPassword(t *testing.T) {
	h, err := NewBasicAuth("user", "secret")
	require.NoError(t, err)
	assert.Equal(t, "BasicAuth(username: user)", h.String())
}
