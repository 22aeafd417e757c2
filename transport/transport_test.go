package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitHostPort(t *testing.T) {
	testcases := []struct {
		desc    string
		input   string
		host    string
		port    uint16
		wantErr bool
	}{
		{desc: "name", input: "example.com:80", host: "example.com", port: 80},
		{desc: "ipv6", input: "[::1]:8443", host: "::1", port: 8443},
		{desc: "no port", input: "example.com", wantErr: true},
		{desc: "out of range", input: "example.com:70000", wantErr: true},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			host, port, err := SplitHostPort(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.host, host)
			assert.Equal(t, tc.port, port)
		})
	}
}
