package http

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type HeadersTestSuite struct {
	suite.Suite

	headers Headers
}

func TestHeadersTestSuite(t *testing.T) {
	suite.Run(t, new(HeadersTestSuite))
}

func (s *HeadersTestSuite) SetupTest() {
	s.headers = NewHeaders(
		Field{Name: "Host", Value: "example.com"},
		Field{Name: "Set-Cookie", Value: "a=1"},
		Field{Name: "Accept", Value: "*/*"},
		Field{Name: "set-cookie", Value: "b=2"},
	)
}

func (s *HeadersTestSuite) TestGetIsCaseInsensitive() {
	s.Equal("example.com", s.headers.Get("HOST"))
	s.Equal("a=1", s.headers.Get("set-COOKIE"))
	s.Equal("", s.headers.Get("Missing"))

	_, ok := s.headers.Lookup("Missing")
	s.False(ok)
}

func (s *HeadersTestSuite) TestValuesKeepOrder() {
	s.Equal([]string{"a=1", "b=2"}, s.headers.Values("Set-Cookie"))
}

func (s *HeadersTestSuite) TestSetReplacesInPlace() {
	s.headers.Set("SET-COOKIE", "c=3")

	s.Equal([]Field{
		{Name: "Host", Value: "example.com"},
		{Name: "SET-COOKIE", Value: "c=3"},
		{Name: "Accept", Value: "*/*"},
	}, s.headers.Fields())
}

func (s *HeadersTestSuite) TestSetAppendsWhenAbsent() {
	s.headers.Set("Connection", "close")

	fields := s.headers.Fields()
	s.Equal(Field{Name: "Connection", Value: "close"}, fields[len(fields)-1])
}

func (s *HeadersTestSuite) TestDel() {
	s.headers.Del("set-cookie")

	s.False(s.headers.Has("Set-Cookie"))
	s.Equal(2, s.headers.Len())
}

func (s *HeadersTestSuite) TestCloneIsIndependent() {
	cloned := s.headers.Clone()
	cloned.Set("Host", "other.example.com")
	cloned.Add("X-New", "1")

	s.Equal("example.com", s.headers.Get("Host"))
	s.False(s.headers.Has("X-New"))
}

func (s *HeadersTestSuite) TestFieldsIsACopy() {
	fields := s.headers.Fields()
	fields[0].Value = "mutated"

	s.Equal("example.com", s.headers.Get("Host"))
}

func (s *HeadersTestSuite) TestContainsToken() {
	s.headers.Add("Connection", "keep-alive, Close")
	s.True(s.headers.ContainsToken("connection", "close"))
	s.False(s.headers.ContainsToken("connection", "upgrade"))
}

func (s *HeadersTestSuite) TestZeroValue() {
	var h Headers
	s.False(h.Has("Host"))
	h.Add("Host", "a")
	s.Equal("a", h.Get("host"))
}

func (s *HeadersTestSuite) TestValidate() {
	s.NoError(s.headers.Validate())

	bad := NewHeaders(Field{Name: "Bad Name", Value: "x"})
	s.ErrorIs(bad.Validate(), ErrInvalidArgument)

	bad = NewHeaders(Field{Name: "X-Injected", Value: "a\r\nEvil: 1"})
	s.ErrorIs(bad.Validate(), ErrInvalidArgument)
}
