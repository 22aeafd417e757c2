// Package uri implements Uniform Resource Identifier (URI) parsing,
// normalization and reference resolution, plus the http(s) specific
// accessors an HTTP client needs.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986
//
// - https://datatracker.ietf.org/doc/html/rfc9110#section-4.2
package uri
