package http

import (
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Headers is an ordered collection of fields.
// Names compare case-insensitively and keep the spelling they were added with.
// The zero value is an empty collection ready to use.
type Headers struct {
	fields []Field
}

func NewHeaders(fields ...Field) Headers {
	h := Headers{fields: make([]Field, 0, len(fields))}
	h.fields = append(h.fields, fields...)
	return h
}

// Add appends a field, keeping existing fields with the same name.
func (h *Headers) Add(name, value string) {
	h.fields = append(h.fields, Field{Name: name, Value: value})
}

// Set replaces every field named name with a single one.
// The new field takes the position of the first replaced field.
func (h *Headers) Set(name, value string) {
	for idx, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			h.fields[idx] = Field{Name: name, Value: value}
			h.fields = append(h.fields[:idx+1], deleteName(h.fields[idx+1:], name)...)
			return
		}
	}
	h.Add(name, value)
}

// Get returns the first value of name, or "" if absent.
func (h *Headers) Get(name string) string {
	v, _ := h.Lookup(name)
	return v
}

func (h *Headers) Lookup(name string) (string, bool) {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value of name in order.
func (h *Headers) Values(name string) []string {
	var values []string
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			values = append(values, f.Value)
		}
	}
	return values
}

func (h *Headers) Has(name string) bool {
	_, ok := h.Lookup(name)
	return ok
}

func (h *Headers) Del(name string) {
	h.fields = deleteName(h.fields, name)
}

func deleteName(fields []Field, name string) []Field {
	out := fields[:0]
	for _, f := range fields {
		if !strings.EqualFold(f.Name, name) {
			out = append(out, f)
		}
	}
	return out
}

// Fields returns a copy of all fields in order.
func (h *Headers) Fields() []Field {
	out := make([]Field, len(h.fields))
	copy(out, h.fields)
	return out
}

func (h *Headers) Len() int { return len(h.fields) }

func (h *Headers) Clone() Headers {
	return NewHeaders(h.fields...)
}

// ContainsToken reports whether any comma-separated element of name's
// values equals token, case-insensitively.
func (h *Headers) ContainsToken(name, token string) bool {
	return httpguts.HeaderValuesContainsToken(h.Values(name), token)
}

// Validate checks every field name is a token and every value is free of CTLs.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.5
func (h *Headers) Validate() error {
	for _, f := range h.fields {
		if !httpguts.ValidHeaderFieldName(f.Name) {
			return InvalidArgument("invalid header field name %q", f.Name)
		}
		if !httpguts.ValidHeaderFieldValue(f.Value) {
			return InvalidArgument("invalid value for header field %q", f.Name)
		}
	}
	return nil
}
