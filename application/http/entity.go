package http

// Entity produces a request body.
type Entity interface {
	// Read pulls the next piece of the body. It returns io.EOF after the last piece.
	Read() ([]byte, error)
	// Len returns the total body length, or -1 if unknown.
	Len() int64
	// Rewind restarts reading from the first byte.
	Rewind() error
}

// FormDataHandler is an [Entity] that knows its own content headers.
type FormDataHandler interface {
	Entity
	PrepareHeaders(h *Headers)
}
