package auth

import (
	"httpclient/application/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasic(t *testing.T) {
	// Reference: https://datatracker.ietf.org/doc/html/rfc7617#section-2
	b, err := NewBasic("Aladdin", "open sesame")
	require.NoError(t, err)

	req, err := http.NewRequest("GET", "http://example.com/", nil)
	require.NoError(t, err)

	require.NoError(t, b.Authenticate(req))
	assert.Equal(t, "Basic QWxhZGRpbjpvcGVuIHNlc2FtZQ==", req.Headers.Get("Authorization"))

	// Authenticating twice does not duplicate the field.
	require.NoError(t, b.Authenticate(req))
	assert.Len(t, req.Headers.Values("Authorization"), 1)
}

func TestBasicColonInUsername(t *testing.T) {
	_, err := NewBasic("user:name", "pass")
	assert.ErrorIs(t, err, http.ErrInvalidArgument)
}
