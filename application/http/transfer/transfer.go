package transfer

import (
	"httpclient/application/http"
	"httpclient/application/util/rule"
	"io"
	"strings"
)

type Coding string

const (
	CodingChunked Coding = "chunked"
)

// ParseCodings parses the list of a Transfer-Encoding field.
// Coding names are lowercased and their parameters are dropped.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.1
func ParseCodings(values []string) ([]Coding, error) {
	codings := make([]Coding, 0, len(values))
	for _, value := range values {
		for _, elem := range strings.Split(value, ",") {
			name, _, _ := strings.Cut(elem, ";")
			name = rule.TrimOWS(name)
			if name == "" {
				// Empty list elements are allowed.
				continue
			}
			if !rule.IsValidToken(name) {
				return nil, http.ProtocolError("transfer coding %q is not a token", name)
			}
			codings = append(codings, Coding(strings.ToLower(name)))
		}
	}
	return codings, nil
}

// NewDecoder returns a reader removing the given transfer codings from r.
// Only a sole chunked coding is supported.
func NewDecoder(r io.Reader, codings []Coding, opts http.DecodeOptions) (*ChunkedReader, error) {
	if len(codings) != 1 || codings[0] != CodingChunked {
		return nil, http.ProtocolError("unsupported transfer coding %q", joinCodings(codings))
	}
	return NewChunkedReader(r, opts), nil
}

func joinCodings(codings []Coding) string {
	names := make([]string, 0, len(codings))
	for _, c := range codings {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
