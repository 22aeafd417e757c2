package uri

import (
	"strings"

	"github.com/pkg/errors"
)

type RefResolver struct {
	base URI
}

func NewRefResolver(baseURI URI) (*RefResolver, error) {
	if baseURI.IsRelativeRef() {
		return nil, errors.New("baseURI cannot be relative ref")
	}
	return &RefResolver{base: baseURI.Clone()}, nil
}

// Resolve transforms ref into its target URI.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.2
func (rr *RefResolver) Resolve(ref URI) URI {
	out := ref.Clone()
	base := rr.base.Clone()

	if out.Scheme != "" {
		out.Path = removeDotSegments(out.Path)
		return out
	}
	out.Scheme = base.Scheme

	if out.Authority != nil {
		out.Path = removeDotSegments(out.Path)
		return out
	}
	out.Authority = base.Authority

	if out.Path == "" {
		out.Path = base.Path
		if out.Query == nil {
			out.Query = base.Query
		}
		return out
	}

	if !strings.HasPrefix(out.Path, "/") {
		out.Path = mergePath(base, out)
	}
	out.Path = removeDotSegments(out.Path)

	return out
}

// Resolve resolves ref against base. base must be an absolute URI.
func Resolve(base URI, ref string) (URI, error) {
	rr, err := NewRefResolver(base)
	if err != nil {
		return URI{}, err
	}

	parsed, err := Parse(ref)
	if err != nil {
		return URI{}, errors.Wrapf(err, "parsing reference %q", ref)
	}

	return rr.Resolve(parsed), nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.3
func mergePath(base, ref URI) string {
	if base.Authority != nil && base.Path == "" {
		return "/" + ref.Path
	}

	if idx := strings.LastIndexByte(base.Path, '/'); idx >= 0 {
		return base.Path[:idx+1] + ref.Path
	}

	return ref.Path
}
