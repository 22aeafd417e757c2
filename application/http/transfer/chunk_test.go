package transfer

import (
	"bytes"
	"httpclient/application/http"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ChunkedReaderTestSuite struct {
	suite.Suite
}

func TestChunkedReaderTestSuite(t *testing.T) {
	suite.Run(t, new(ChunkedReaderTestSuite))
}

func (s *ChunkedReaderTestSuite) newReader(input string) *ChunkedReader {
	return NewChunkedReader(strings.NewReader(input), http.DefaultDecodeOptions)
}

func (s *ChunkedReaderTestSuite) TestRead() {
	cr := s.newReader("" +
		"5;ext=foo\r\n" +
		"ABCDE\r\n" +
		"a\r\n" +
		"FGHIJKLNMO\r\n" +
		"0\r\n" + // last chunk
		"Hello: World\r\n" + // trailer
		"\r\n", // empty trailer (last trailer)
	)

	buf := make([]byte, 2)
	// First read reads only AB
	n, err := cr.Read(buf)
	s.Require().NoError(err)
	s.Equal(len(buf), n)
	s.Equal([]byte("AB"), buf)
	s.Equal([][2]string{{"ext", "foo"}}, cr.LastChunk().Extensions)

	buf = make([]byte, 10)
	// Second read reads all the data in first chunk.
	n, err = cr.Read(buf)
	s.Require().NoError(err)
	s.Equal(3, n)
	s.Equal([]byte("CDE"), buf[:n])

	// Third read reads all the data in second chunk.
	n, err = cr.Read(buf)
	s.Require().NoError(err)
	s.Equal(len(buf), n)
	s.Equal([]byte("FGHIJKLNMO"), buf)

	// Fourth read reads last chunk.
	n, err = cr.Read(buf)
	s.Require().ErrorIs(err, io.EOF)
	s.Equal(0, n)

	trailers := cr.Trailers()
	s.Equal(1, trailers.Len())
	s.Equal("World", trailers.Get("Hello"))

	// Stays at EOF.
	_, err = cr.Read(buf)
	s.ErrorIs(err, io.EOF)
}

func (s *ChunkedReaderTestSuite) TestMalformed() {
	testcases := []struct {
		desc  string
		input string
	}{
		{desc: "empty chunk line", input: "\r\n"},
		{desc: "non hex size", input: "zz\r\nAB\r\n0\r\n\r\n"},
		{desc: "negative size", input: "-1\r\n"},
		{desc: "size overflow", input: "ffffffffffffffffff\r\n"},
		{desc: "missing delimiter", input: "2\r\nABCD\r\n0\r\n\r\n"},
		{desc: "eof inside data", input: "5\r\nAB"},
		{desc: "eof before last chunk", input: "2\r\nAB\r\n"},
		{desc: "eof inside trailers", input: "0\r\nX: 1\r\n"},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			_, err := io.ReadAll(s.newReader(tc.input))
			s.ErrorIs(err, http.ErrProtocol)
		})
	}
}

func (s *ChunkedReaderTestSuite) TestUnderlyingErrorIsNotProtocolError() {
	r := io.MultiReader(strings.NewReader("5\r\nAB"), iotest.ErrReader(io.ErrClosedPipe))
	cr := NewChunkedReader(r, http.DefaultDecodeOptions)

	_, err := io.ReadAll(cr)
	s.ErrorIs(err, io.ErrClosedPipe)
	s.NotErrorIs(err, http.ErrProtocol)
}

func (s *ChunkedReaderTestSuite) TestSharesBufferedReader() {
	// The chunked body is followed by the next response on the same stream.
	input := "3\r\nabc\r\n0\r\n\r\nHTTP/1.1 200 OK\r\n"
	dec := http.NewResponseDecoder(strings.NewReader(input), http.DefaultDecodeOptions)

	body, err := io.ReadAll(NewChunkedReader(dec.Reader(), http.DefaultDecodeOptions))
	s.Require().NoError(err)
	s.Equal("abc", string(body))

	rest, err := io.ReadAll(dec.Reader())
	s.Require().NoError(err)
	s.Equal("HTTP/1.1 200 OK\r\n", string(rest))
}

func TestParseChunkHeader(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected Chunk
		wantErr  bool
	}{
		{
			desc:     "example chunk",
			input:    "5;ext=foo",
			expected: Chunk{Size: 5, Extensions: [][2]string{{"ext", "foo"}}},
		},
		{
			desc:     "BWS inside chunk",
			input:    "5 ; ext = foo",
			expected: Chunk{Size: 5, Extensions: [][2]string{{"ext", "foo"}}},
		},
		{
			desc:     "quoted extension",
			input:    `1A;name="a \"b\""`,
			expected: Chunk{Size: 26, Extensions: [][2]string{{"name", `a "b"`}}},
		},
		{
			desc:     "extension without value",
			input:    "ff;flag",
			expected: Chunk{Size: 255, Extensions: [][2]string{{"flag", ""}}},
		},
		{
			desc:     "last chunk",
			input:    "0",
			expected: Chunk{Size: 0},
		},
		{
			desc:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			desc:    "garbage after size",
			input:   "5 x",
			wantErr: true,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			chunk, err := ParseChunkHeader(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, http.ErrProtocol)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, chunk)
		})
	}
}

type ChunkedWriterTestSuite struct {
	suite.Suite

	buf *bytes.Buffer
	cw  *ChunkedWriter
}

func TestChunkedWriterTestSuite(t *testing.T) {
	suite.Run(t, new(ChunkedWriterTestSuite))
}

func (s *ChunkedWriterTestSuite) SetupTest() {
	s.buf = bytes.NewBuffer(nil)
	s.cw = NewChunkedWriter(s.buf)
}

func (s *ChunkedWriterTestSuite) TestWrite() {
	s.cw.SetExtensions([][2]string{{"ext", "foo bar"}})
	n, err := s.cw.Write([]byte("ABCDE"))
	s.Require().NoError(err)
	s.Equal(5, n)

	n, err = s.cw.Write([]byte("FGHIJKLNMO"))
	s.Require().NoError(err)
	s.Equal(10, n)

	// Empty writes must not produce the last chunk.
	n, err = s.cw.Write(nil)
	s.Require().NoError(err)
	s.Equal(0, n)

	s.cw.SetTrailers(http.NewHeaders(http.Field{Name: "Hello", Value: "World"}))
	s.Require().NoError(s.cw.Close())

	expected := "" +
		"5;ext=\"foo bar\"\r\n" +
		"ABCDE\r\n" +
		"a\r\n" +
		"FGHIJKLNMO\r\n" +
		"0\r\n" +
		"Hello: World\r\n" +
		"\r\n"
	s.Equal(expected, s.buf.String())
}

func (s *ChunkedWriterTestSuite) TestWriteAfterClose() {
	s.Require().NoError(s.cw.Close())
	s.Require().NoError(s.cw.Close())

	_, err := s.cw.Write([]byte("late"))
	s.Error(err)
	s.Equal("0\r\n\r\n", s.buf.String())
}

func (s *ChunkedWriterTestSuite) TestRoundTripAtAnyBoundary() {
	payload := []byte(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20))

	for _, size := range []int{1, 2, 3, 7, 64, 100, len(payload)} {
		s.buf.Reset()
		cw := NewChunkedWriter(s.buf)

		for rest := payload; len(rest) > 0; {
			n := min(size, len(rest))
			_, err := cw.Write(rest[:n])
			s.Require().NoError(err)
			rest = rest[n:]
		}
		s.Require().NoError(cw.Close())

		// Read back with the smallest possible reads.
		cr := NewChunkedReader(iotest.OneByteReader(bytes.NewReader(s.buf.Bytes())), http.DefaultDecodeOptions)
		got, err := io.ReadAll(cr)
		s.Require().NoError(err)
		s.Equal(payload, got, "chunk size %d", size)
	}
}
