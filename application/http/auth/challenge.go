package auth

import (
	"httpclient/application/util/rule"
	"strings"

	"github.com/pkg/errors"
)

// Challenge is a single challenge of a WWW-Authenticate field.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-11.3
type Challenge struct {
	Scheme string
	// Params holds auth-params. Names are lowercased.
	Params  map[string]string
	Token68 string
}

// ParseChallenges parses WWW-Authenticate field values.
// A single value may hold several challenges.
func ParseChallenges(values []string) ([]Challenge, error) {
	challenges := make([]Challenge, 0, len(values))
	for _, value := range values {
		parsed, err := parseChallenges(value)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing challenge %q", value)
		}
		challenges = append(challenges, parsed...)
	}
	return challenges, nil
}

func parseChallenges(s string) ([]Challenge, error) {
	var challenges []Challenge

	sc := &scanner{s: s}
	for {
		sc.skip(" \t,")
		if sc.eof() {
			return challenges, nil
		}

		scheme := sc.token()
		if scheme == "" {
			return nil, errors.Errorf("expected auth-scheme at offset %d", sc.pos)
		}
		c := Challenge{Scheme: scheme, Params: make(map[string]string)}

		sc.skip(" \t")
		start := sc.pos
		if t68 := sc.token68(); t68 != "" {
			sc.skip(" \t")
			if sc.eof() || sc.peek() == ',' {
				c.Token68 = t68
				challenges = append(challenges, c)
				continue
			}
			sc.pos = start
		}

		if err := sc.params(c.Params); err != nil {
			return nil, err
		}
		challenges = append(challenges, c)
	}
}

type scanner struct {
	s   string
	pos int
}

func (sc *scanner) eof() bool { return sc.pos >= len(sc.s) }

func (sc *scanner) peek() byte {
	if sc.eof() {
		return 0
	}
	return sc.s[sc.pos]
}

func (sc *scanner) skip(set string) {
	for !sc.eof() && strings.IndexByte(set, sc.s[sc.pos]) >= 0 {
		sc.pos++
	}
}

func (sc *scanner) token() string {
	start := sc.pos
	for !sc.eof() && rule.IsTokenChar(rune(sc.s[sc.pos])) {
		sc.pos++
	}
	return sc.s[start:sc.pos]
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-11.2
func (sc *scanner) token68() string {
	start := sc.pos
	for !sc.eof() {
		c := sc.s[sc.pos]
		if !(rule.IsAlpha(rune(c)) || rule.IsDigit(rune(c)) || strings.IndexByte("-._~+/", c) >= 0) {
			break
		}
		sc.pos++
	}
	for !sc.eof() && sc.s[sc.pos] == '=' {
		sc.pos++
	}
	return sc.s[start:sc.pos]
}

func (sc *scanner) quoted() (string, error) {
	start := sc.pos
	// Skip opening quote.
	sc.pos++
	for !sc.eof() {
		switch sc.s[sc.pos] {
		case '\\':
			sc.pos += 2
			continue
		case '"':
			sc.pos++
			return rule.Unquote(sc.s[start:sc.pos]), nil
		}
		sc.pos++
	}
	return "", errors.New("unterminated quoted-string")
}

// params reads auth-params until the next challenge starts.
func (sc *scanner) params(into map[string]string) error {
	for {
		save := sc.pos
		sc.skip(" \t,")
		if sc.eof() {
			return nil
		}

		name := sc.token()
		if name == "" {
			return errors.Errorf("expected auth-param at offset %d", sc.pos)
		}

		sc.skip(" \t")
		if sc.peek() != '=' {
			// Start of the next challenge.
			sc.pos = save
			return nil
		}
		sc.pos++
		sc.skip(" \t")

		var value string
		if sc.peek() == '"' {
			v, err := sc.quoted()
			if err != nil {
				return err
			}
			value = v
		} else {
			value = sc.token()
		}

		into[strings.ToLower(name)] = value
	}
}
