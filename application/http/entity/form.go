package entity

import (
	"httpclient/application/http"
	"net/url"
	"strconv"
	"strings"
)

const ContentTypeForm = "application/x-www-form-urlencoded"

// Form is an ordered URL-encoded form body.
type Form struct {
	pairs [][2]string

	encoded *String
}

var _ http.FormDataHandler = (*Form)(nil)

func NewForm() *Form { return &Form{} }

// Add appends a field. Repeated names are kept.
func (f *Form) Add(name, value string) *Form {
	f.pairs = append(f.pairs, [2]string{name, value})
	f.encoded = nil
	return f
}

// Encode renders the form with RFC 3986 percent-encoding.
// Spaces are encoded as %20.
func (f *Form) Encode() string {
	b := new(strings.Builder)
	for idx, pair := range f.pairs {
		if idx > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(pair[0]))
		b.WriteByte('=')
		b.WriteString(escape(pair[1]))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (f *Form) body() *String {
	if f.encoded == nil {
		f.encoded = NewString(f.Encode())
	}
	return f.encoded
}

func (f *Form) Read() ([]byte, error) { return f.body().Read() }

func (f *Form) Len() int64 { return f.body().Len() }

func (f *Form) Rewind() error { return f.body().Rewind() }

func (f *Form) PrepareHeaders(h *http.Headers) {
	h.Set("Content-Type", ContentTypeForm)
	h.Set("Content-Length", strconv.FormatInt(f.Len(), 10))
}
