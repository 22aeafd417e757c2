package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChallenges(t *testing.T) {
	testcases := []struct {
		desc     string
		input    []string
		expected []Challenge
		wantErr  bool
	}{
		{
			desc: "rfc 2617 digest",
			input: []string{`Digest realm="testrealm@host.com", qop="auth,auth-int", ` +
				`nonce="dcd98b7102dd2f0e8b11d0f600bfb0c093", opaque="5ccc069c403ebaf9f0171e9517f40e41"`},
			expected: []Challenge{{
				Scheme: "Digest",
				Params: map[string]string{
					"realm":  "testrealm@host.com",
					"qop":    "auth,auth-int",
					"nonce":  "dcd98b7102dd2f0e8b11d0f600bfb0c093",
					"opaque": "5ccc069c403ebaf9f0171e9517f40e41",
				},
			}},
		},
		{
			desc: "several challenges in one value",
			input: []string{`Newauth realm="apps", type=1, title="Login to \"apps\"", ` +
				`Basic realm="simple"`},
			expected: []Challenge{
				{
					Scheme: "Newauth",
					Params: map[string]string{"realm": "apps", "type": "1", "title": `Login to "apps"`},
				},
				{
					Scheme: "Basic",
					Params: map[string]string{"realm": "simple"},
				},
			},
		},
		{
			desc:  "several values",
			input: []string{`Basic realm="a"`, `Digest Realm = "b" , nonce=xyz`},
			expected: []Challenge{
				{Scheme: "Basic", Params: map[string]string{"realm": "a"}},
				{Scheme: "Digest", Params: map[string]string{"realm": "b", "nonce": "xyz"}},
			},
		},
		{
			desc:  "token68",
			input: []string{"Bearer abc.def/ghi==, Basic"},
			expected: []Challenge{
				{Scheme: "Bearer", Params: map[string]string{}, Token68: "abc.def/ghi=="},
				{Scheme: "Basic", Params: map[string]string{}},
			},
		},
		{
			desc:     "empty",
			input:    []string{""},
			expected: []Challenge{},
		},
		{
			desc:    "unterminated quote",
			input:   []string{`Digest realm="oops`},
			wantErr: true,
		},
		{
			desc:    "not a token",
			input:   []string{`"Digest"`},
			wantErr: true,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			challenges, err := ParseChallenges(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, challenges)
		})
	}
}
