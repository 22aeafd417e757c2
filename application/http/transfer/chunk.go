package transfer

import (
	"bufio"
	"bytes"
	"httpclient/application/http"
	"httpclient/application/util/rule"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Chunk struct {
	Size       uint64
	Extensions [][2]string
}

// ChunkedReader converts a chunked message body into a byte stream.
// Malformed framing is reported as [http.ErrProtocol].
// Errors of the underlying reader other than EOF are passed through.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7.1
type ChunkedReader struct {
	br   *bufio.Reader
	opts http.DecodeOptions

	chunk  *Chunk
	remain uint64 // reset for each chunk
	done   bool

	trailers http.Headers
}

var _ io.Reader = (*ChunkedReader)(nil)

// NewChunkedReader reads chunks from r.
// If r is a [bufio.Reader] it is used as is, so no buffered bytes are lost.
func NewChunkedReader(r io.Reader, opts http.DecodeOptions) *ChunkedReader {
	return &ChunkedReader{
		br:   bufio.NewReader(r),
		opts: opts,
	}
}

// LastChunk returns the header of the chunk being read.
func (cr *ChunkedReader) LastChunk() *Chunk { return cr.chunk }

// Trailers returns the trailer section. It is filled once Read returns io.EOF.
func (cr *ChunkedReader) Trailers() http.Headers { return cr.trailers.Clone() }

func (cr *ChunkedReader) Read(b []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}

	if cr.remain == 0 {
		if err := cr.decodeChunk(); err != nil {
			return 0, err
		}

		if cr.chunk.Size == 0 {
			// Last chunk.
			if err := cr.decodeTrailers(); err != nil {
				return 0, err
			}
			cr.done = true
			return 0, io.EOF
		}

		cr.remain = cr.chunk.Size
	}

	if len(b) == 0 {
		return 0, nil
	}
	if uint64(len(b)) > cr.remain {
		b = b[:cr.remain]
	}

	n, err := cr.br.Read(b)
	cr.remain -= uint64(n)
	if err != nil {
		if err == io.EOF {
			return n, http.ProtocolError("unexpected end of stream, still expecting %d bytes of chunk", cr.remain)
		}
		return n, errors.Wrap(err, "reading chunk data")
	}

	if cr.remain == 0 {
		if err := cr.readDelimiter(); err != nil {
			return n, err
		}
	}

	return n, nil
}

func (cr *ChunkedReader) readLine(what string) ([]byte, error) {
	line, err := http.ReadLine(cr.br, cr.opts.MaxLineLength, true)
	if err == nil {
		return line, nil
	}

	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return nil, http.ProtocolError("unexpected end of stream while reading %s", what)
	case errors.Is(err, http.ErrLineTooLong):
		return nil, http.ProtocolErrorWrap(err, "reading %s", what)
	}
	return nil, errors.Wrapf(err, "reading %s", what)
}

func (cr *ChunkedReader) readDelimiter() error {
	line, err := cr.readLine("chunk delimiter")
	if err != nil {
		return err
	}
	if len(line) != 0 {
		return http.ProtocolError("chunk data is not followed by CRLF")
	}
	return nil
}

func (cr *ChunkedReader) decodeChunk() error {
	line, err := cr.readLine("chunk size")
	if err != nil {
		return err
	}

	chunk, err := ParseChunkHeader(string(line))
	if err != nil {
		return err
	}

	cr.chunk = &chunk
	return nil
}

// ParseChunkHeader parses chunk-size and chunk-ext of a chunk line.
func ParseChunkHeader(line string) (Chunk, error) {
	sizeRaw, extRaw := line, ""
	if idx := strings.IndexAny(line, "; \t"); idx >= 0 {
		sizeRaw, extRaw = line[:idx], line[idx:]
	}

	if sizeRaw == "" || !rule.IsAllHex(sizeRaw) {
		return Chunk{}, http.ProtocolError("chunk size %q is not hexadecimal", sizeRaw)
	}

	size, err := strconv.ParseUint(sizeRaw, 16, 63)
	if err != nil {
		return Chunk{}, http.ProtocolErrorWrap(err, "chunk size %q is too large", sizeRaw)
	}

	chunk := Chunk{Size: size}

	// Trim BWS before the first extension.
	extRaw = rule.TrimOWS(extRaw)
	if extRaw == "" {
		return chunk, nil
	}
	if extRaw[0] != ';' {
		return Chunk{}, http.ProtocolError("malformed chunk line %q", line)
	}

	for _, part := range strings.Split(extRaw[1:], ";") {
		k, v, _ := strings.Cut(part, "=")
		k, v = rule.TrimOWS(k), rule.TrimOWS(v)
		if k == "" {
			continue
		}
		chunk.Extensions = append(chunk.Extensions, [2]string{k, rule.Unquote(v)})
	}

	return chunk, nil
}

func (cr *ChunkedReader) decodeTrailers() error {
	for {
		line, err := cr.readLine("trailer section")
		if err != nil {
			return err
		}

		if len(line) == 0 {
			// Last field.
			return nil
		}

		field, err := http.ParseField(line)
		if err != nil {
			// Same as header section: malformed lines are skipped.
			continue
		}

		if limit := cr.opts.MaxFieldCount; limit > 0 && uint(cr.trailers.Len()) >= limit {
			return http.ProtocolError("trailer field count exceeds limit(%d)", limit)
		}
		cr.trailers.Add(field.Name, field.Value)
	}
}

type ChunkedWriter struct {
	w         io.Writer
	headerBuf *bytes.Buffer

	extensions [][2]string
	trailers   http.Headers
	closed     bool
}

var _ io.WriteCloser = (*ChunkedWriter)(nil)

func NewChunkedWriter(w io.Writer) *ChunkedWriter {
	return &ChunkedWriter{
		w:         w,
		headerBuf: bytes.NewBuffer(nil),
	}
}

// SetExtensions sets extension to the chunk.
// extension lives until [ChunkedWriter.Write].
func (cw *ChunkedWriter) SetExtensions(extensions [][2]string) {
	cw.extensions = extensions
}

// SetTrailers sets the fields sent after the last chunk.
func (cw *ChunkedWriter) SetTrailers(trailers http.Headers) {
	cw.trailers = trailers.Clone()
}

func (cw *ChunkedWriter) Write(p []byte) (n int, err error) {
	if cw.closed {
		return 0, errors.New("write on closed chunked writer")
	}
	if len(p) == 0 {
		// We should ignore 0 length chunks since it means EOF.
		return 0, nil
	}

	if err := cw.writeChunkHeader(uint64(len(p))); err != nil {
		return 0, errors.Wrap(err, "writing chunk header")
	}

	n, err = cw.w.Write(p)
	if err != nil {
		return n, errors.Wrap(err, "writing chunk data")
	}

	if _, err := cw.w.Write(rule.CRLF); err != nil {
		return n, errors.Wrap(err, "writing chunk delimiter")
	}

	return n, nil
}

// Close writes the last chunk and the trailer section.
// It does not close the underlying writer.
func (cw *ChunkedWriter) Close() error {
	if cw.closed {
		return nil
	}
	cw.closed = true

	if err := cw.writeChunkHeader(0); err != nil {
		return errors.Wrap(err, "writing last chunk")
	}

	buf := cw.headerBuf
	buf.Reset()
	for _, field := range cw.trailers.Fields() {
		buf.Write(field.Text())
		buf.Write(rule.CRLF)
	}
	buf.Write(rule.CRLF)

	if _, err := cw.w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing trailers")
	}

	return nil
}

func (cw *ChunkedWriter) writeChunkHeader(size uint64) error {
	buf := cw.headerBuf
	buf.Reset()
	buf.WriteString(strconv.FormatUint(size, 16))
	for _, ext := range cw.extensions {
		buf.WriteByte(';')
		buf.WriteString(ext[0])
		if ext[1] != "" {
			buf.WriteByte('=')
			buf.WriteString(quoteIfNeeded(ext[1]))
		}
	}
	buf.Write(rule.CRLF)
	cw.extensions = nil

	_, err := cw.w.Write(buf.Bytes())
	return err
}

func quoteIfNeeded(v string) string {
	if rule.IsValidToken(v) {
		return v
	}
	return rule.Quote(v)
}
