package cookie

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSetCookie(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	testcases := []struct {
		desc     string
		input    string
		expected []Cookie
		wantErr  bool
	}{
		{
			desc:     "simple",
			input:    "SID=31d4d96e407aad42",
			expected: []Cookie{{Name: "SID", Value: "31d4d96e407aad42"}},
		},
		{
			desc:  "attributes",
			input: "SID=31d4d96e407aad42; Path=/docs; Domain=.Example.COM; Secure; HttpOnly",
			expected: []Cookie{{
				Name: "SID", Value: "31d4d96e407aad42",
				Domain: "example.com", Path: "/docs",
				Secure: true, HTTPOnly: true,
			}},
		},
		{
			desc:  "expires",
			input: "lang=en-US; Expires=Wed, 09 Jun 2021 10:18:14 GMT",
			expected: []Cookie{{
				Name: "lang", Value: "en-US",
				Expires: time.Date(2021, 6, 9, 10, 18, 14, 0, time.UTC),
			}},
		},
		{
			desc:  "max-age wins over expires",
			input: "a=b; Max-Age=60; Expires=Wed, 09 Jun 2021 10:18:14 GMT",
			expected: []Cookie{{
				Name: "a", Value: "b",
				Expires: now.Add(time.Minute),
			}},
		},
		{
			desc:  "non-positive max-age",
			input: "a=b; Max-Age=0",
			expected: []Cookie{{
				Name: "a", Value: "b",
				Expires: time.Unix(0, 0).UTC(),
			}},
		},
		{
			desc:  "folded cookies with expires",
			input: "a=1; expires=Wed, 09 Jun 2021 10:18:14 GMT; path=/, b=2, c=\"3\"; Secure",
			expected: []Cookie{
				{Name: "a", Value: "1", Path: "/", Expires: time.Date(2021, 6, 9, 10, 18, 14, 0, time.UTC)},
				{Name: "b", Value: "2"},
				{Name: "c", Value: "3", Secure: true},
			},
		},
		{
			desc:  "rfc 850 expires",
			input: "a=1; expires=Wednesday, 09-Jun-21 10:18:14 GMT",
			expected: []Cookie{
				{Name: "a", Value: "1", Expires: time.Date(2021, 6, 9, 10, 18, 14, 0, time.UTC)},
			},
		},
		{
			desc:     "invalid attributes are ignored",
			input:    "a=1; expires=someday; max-age=soon; path=relative",
			expected: []Cookie{{Name: "a", Value: "1"}},
		},
		{
			desc:     "internationalized domain",
			input:    "a=1; domain=bücher.example",
			expected: []Cookie{{Name: "a", Value: "1", Domain: "xn--bcher-kva.example"}},
		},
		{
			desc:     "empty value",
			input:    "a=",
			expected: []Cookie{{Name: "a", Value: ""}},
		},
		{desc: "no equal sign", input: "garbage", wantErr: true},
		{desc: "empty name", input: "=value", wantErr: true},
		{desc: "empty", input: "", wantErr: true},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			cookies, err := ParseSetCookie(tc.input, now)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, cookies)
		})
	}
}

func TestParseCookieHeader(t *testing.T) {
	pairs := ParseCookieHeader("a=1; b = 2;; c=; =x; d")
	assert.Equal(t, [][2]string{{"a", "1"}, {"b", "2"}, {"c", ""}, {"d", ""}}, pairs)

	assert.Empty(t, ParseCookieHeader(""))
}

func TestRender(t *testing.T) {
	pairs := [][2]string{{"a", "b"}, {"c", "hello world;"}}

	assert.Equal(t, "a=b; c=hello world;", Render(pairs, false))
	assert.Equal(t, "a=b; c=hello%20world%3B", Render(pairs, true))
	assert.Equal(t, "", Render(nil, true))
}

func TestEncodeValue(t *testing.T) {
	assert.Equal(t, "abc-123", EncodeValue("abc-123"))
	assert.Equal(t, "%22q%22%2C%5C%25", EncodeValue(`"q",\%`))
	assert.Equal(t, "%C3%BC", EncodeValue("ü"))
}
