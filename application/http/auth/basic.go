package auth

import (
	"encoding/base64"
	"httpclient/application/http"
	"strings"
)

// Basic implements the "Basic" scheme.
// Reference: https://datatracker.ietf.org/doc/html/rfc7617
type Basic struct {
	credentials string
}

var _ Provider = (*Basic)(nil)

// NewBasic fails with [http.ErrInvalidArgument] if username contains a colon.
func NewBasic(username, password string) (*Basic, error) {
	if strings.Contains(username, ":") {
		return nil, http.InvalidArgument("the user name cannot contain ':' in Basic authentication")
	}

	raw := username + ":" + password
	return &Basic{credentials: base64.StdEncoding.EncodeToString([]byte(raw))}, nil
}

func (b *Basic) Authenticate(req *http.Request) error {
	req.Headers.Set("Authorization", "Basic "+b.credentials)
	return nil
}
