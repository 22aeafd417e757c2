package entity

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
)

type BufferTestSuite struct {
	suite.Suite
}

func TestBufferTestSuite(t *testing.T) {
	suite.Run(t, new(BufferTestSuite))
}

func (s *BufferTestSuite) TestInMemory() {
	b := NewBuffer(0)
	defer b.Close()

	_, err := b.Write([]byte("hello "))
	s.Require().NoError(err)
	_, err = b.Write([]byte("world"))
	s.Require().NoError(err)

	s.False(b.IsSpilled())
	s.Equal(int64(11), b.Len())

	got, err := ReadAll(b)
	s.Require().NoError(err)
	s.Equal("hello world", string(got))
}

func (s *BufferTestSuite) TestSpill() {
	b := NewBuffer(16)

	data := bytes.Repeat([]byte("0123456789"), ReadSize/5)
	for rest := data; len(rest) > 0; rest = rest[min(7, len(rest)):] {
		_, err := b.Write(rest[:min(7, len(rest))])
		s.Require().NoError(err)
	}

	s.True(b.IsSpilled())
	s.Equal(int64(len(data)), b.Len())

	// Pieces never exceed ReadSize.
	s.Require().NoError(b.Rewind())
	p, err := b.Read()
	s.Require().NoError(err)
	s.Len(p, ReadSize)

	got, err := ReadAll(b)
	s.Require().NoError(err)
	s.Equal(data, got)

	// Read twice.
	got, err = ReadAll(b)
	s.Require().NoError(err)
	s.Equal(data, got)

	name := b.file.Name()
	s.Require().NoError(b.Close())

	_, err = os.Stat(name)
	s.True(os.IsNotExist(err))
}

func (s *BufferTestSuite) TestWriteAfterRead() {
	b := NewBuffer(4)
	defer b.Close()

	_, err := b.Write([]byte("abc"))
	s.Require().NoError(err)
	_, err = b.Read()
	s.Require().NoError(err)

	_, err = b.Write([]byte("def"))
	s.Require().NoError(err)

	got, err := ReadAll(b)
	s.Require().NoError(err)
	s.Equal("abcdef", string(got))
}

func (s *BufferTestSuite) TestClosed() {
	b := NewBuffer(0)
	s.Require().NoError(b.Close())
	s.Require().NoError(b.Close())

	_, err := b.Write([]byte("x"))
	s.Error(err)
	_, err = b.Read()
	s.Error(err)
	s.Error(b.Rewind())
}

func (s *BufferTestSuite) TestEmpty() {
	b := NewBuffer(0)
	defer b.Close()

	_, err := b.Read()
	s.ErrorIs(err, io.EOF)
}
