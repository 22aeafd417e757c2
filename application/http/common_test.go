package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	testcases := []struct {
		desc     string
		input    []byte
		expected Version
		wantErr  bool
	}{
		{
			desc:     "http 1.1",
			input:    []byte("HTTP/1.1"),
			expected: Version11,
		},
		{
			desc:     "http 1.0",
			input:    []byte("HTTP/1.0"),
			expected: Version10,
		},
		{
			desc:     "major only",
			input:    []byte("HTTP/2"),
			expected: Version{2, 0},
		},
		{
			desc:    "missing prefix",
			input:   []byte("1.1"),
			wantErr: true,
		},
		{
			desc:    "two seperators",
			input:   []byte("HTTP/1.1.1"),
			wantErr: true,
		},
		{
			desc:    "version not convertable to int",
			input:   []byte("HTTP/ayo.2"),
			wantErr: true,
		},
		{
			desc:    "signed version",
			input:   []byte("HTTP/1.+1"),
			wantErr: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			ver, err := ParseVersion(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, ver)
		})
	}
}

func TestVersionText(t *testing.T) {
	assert.Equal(t, "HTTP/1.1", Version11.String())
	assert.Equal(t, []byte("HTTP/1.0"), Version10.Text())
	assert.True(t, Version10.Supported())
	assert.False(t, Version{2, 0}.Supported())
}

func TestParseMethod(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected Method
		wantErr  bool
	}{
		{desc: "known uppercase", input: "GET", expected: MethodGet},
		{desc: "known lowercase is normalized", input: "post", expected: MethodPost},
		{desc: "known mixed case is normalized", input: "PaTcH", expected: MethodPatch},
		{desc: "custom token keeps case", input: "PropFind", expected: Method("PropFind")},
		{desc: "space is not a token", input: "GE T", wantErr: true},
		{desc: "empty", input: "", wantErr: true},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			m, err := ParseMethod(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, m)
		})
	}
}

func TestParseField(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected Field
		wantErr  bool
	}{
		{
			desc:     "simple",
			input:    "Content-Length: 10",
			expected: Field{Name: "Content-Length", Value: "10"},
		},
		{
			desc:     "value with colon is cut on first colon",
			input:    "Location: http://example.com/",
			expected: Field{Name: "Location", Value: "http://example.com/"},
		},
		{
			desc:     "surrounding whitespace is trimmed",
			input:    "  X-Foo \t:\t bar baz  ",
			expected: Field{Name: "X-Foo", Value: "bar baz"},
		},
		{
			desc:     "empty value",
			input:    "X-Empty:",
			expected: Field{Name: "X-Empty", Value: ""},
		},
		{
			desc:    "no colon",
			input:   "garbage line",
			wantErr: true,
		},
		{
			desc:    "empty name",
			input:   ": value",
			wantErr: true,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			f, err := ParseField([]byte(tc.input))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, f)
		})
	}
}

func TestFieldText(t *testing.T) {
	f := Field{Name: "Host", Value: "example.com"}
	assert.Equal(t, []byte("Host: example.com"), f.Text())
}
