package auth

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/saturnines/repsly-export/pkg/errors"
)

// BasicAuth implements the interface for HTTP basic authentication
type BasicAuth struct {
	Username string // Username for Basic auth
	header   string // precomputed "Basic ..." value
}

// NewBasicAuth builds the Authorization header once. An empty username is a
// credentials error; the password may be empty.
func NewBasicAuth(username, password string) (*BasicAuth, error) {
	if username == "" {
		return nil, errors.WrapError(
			fmt.Errorf("username is required"),
			errors.ErrCredentials,
			"basic auth",
		)
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return &BasicAuth{
		Username: username,
		header:   "Basic " + encoded,
	}, nil
}

// Header returns the Authorization header value.
func (b *BasicAuth) Header() string {
	return b.header
}

// ApplyAuth adds the basic auth header to the request
func (b *BasicAuth) ApplyAuth(req *http.Request) error {
	req.Header.Set("Authorization", b.header)
	return nil
}

// String returns a string representation of this auth method
func (b *BasicAuth) String() string {
	return fmt.Sprintf("BasicAuth(username: %s)", b.Username)
}
