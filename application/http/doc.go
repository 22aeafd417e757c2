// Package http implements the HTTP/1.x message model used by the client:
// versions, methods, header fields, requests, responses and the wire
// encoding of request heads and response heads.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
