package cfgattr

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// ErrPredicate is returned for malformed configuration predicates.
var ErrPredicate = errors.New("invalid configuration predicate")

// BuildConfig is the set of active configuration options. An option is
// either a bare flag (unix, test) or a key with one or more values
// (target_os = "linux", feature = "std").
type BuildConfig struct {
	Flags  map[string]bool
	Values map[string][]string
}

// NewBuildConfig builds a configuration from option specs of the form
// name, name=value or name="value".
func NewBuildConfig(specs ...string) BuildConfig {
	bc := BuildConfig{Flags: make(map[string]bool), Values: make(map[string][]string)}

	for _, spec := range specs {
		key, value, hasValue := strings.Cut(spec, "=")
		key = strings.TrimSpace(key)

		if !hasValue {
			bc.Flags[key] = true

			continue
		}

		value = strings.Trim(strings.TrimSpace(value), `"`)
		bc.Values[key] = append(bc.Values[key], value)
	}

	return bc
}

// Eval evaluates a predicate such as all(unix, not(feature = "std")).
func (c BuildConfig) Eval(pred string) (bool, error) {
	p := &predParser{src: pred}

	v, err := p.parse()
	if err != nil {
		return false, err
	}

	p.skipSpace()

	if p.pos != len(p.src) {
		return false, fmt.Errorf("%w: trailing input %q", ErrPredicate, p.src[p.pos:])
	}

	return v(c), nil
}

type predicate func(BuildConfig) bool

type predParser struct {
	src string
	pos int
}

func (p *predParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *predParser) peek() byte {
	p.skipSpace()

	if p.pos >= len(p.src) {
		return 0
	}

	return p.src[p.pos]
}

func (p *predParser) word() string {
	p.skipSpace()

	start := p.pos
	for p.pos < len(p.src) && isWordByte(p.src[p.pos]) {
		p.pos++
	}

	return p.src[start:p.pos]
}

func isWordByte(b byte) bool {
	return b == '_' || b == ':' || b == '-' || b == '.' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

func (p *predParser) value() (string, error) {
	if p.peek() != '"' {
		v := p.word()
		if v == "" {
			return "", fmt.Errorf("%w: expected value at offset %d", ErrPredicate, p.pos)
		}

		return v, nil
	}

	p.pos++

	end := strings.IndexByte(p.src[p.pos:], '"')
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string", ErrPredicate)
	}

	v := p.src[p.pos : p.pos+end]
	p.pos += end + 1

	return v, nil
}

func (p *predParser) parse() (predicate, error) {
	name := p.word()
	if name == "" {
		return nil, fmt.Errorf("%w: expected option name at offset %d", ErrPredicate, p.pos)
	}

	switch p.peek() {
	case '=':
		p.pos++

		v, err := p.value()
		if err != nil {
			return nil, err
		}

		return func(c BuildConfig) bool { return slices.Contains(c.Values[name], v) }, nil
	case '(':
		return p.combinator(name)
	}

	return func(c BuildConfig) bool { return c.Flags[name] }, nil
}

func (p *predParser) combinator(name string) (predicate, error) {
	p.pos++

	var args []predicate

	for p.peek() != ')' {
		if p.peek() == 0 {
			return nil, fmt.Errorf("%w: unclosed %s(", ErrPredicate, name)
		}

		arg, err := p.parse()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		if p.peek() == ',' {
			p.pos++
		}
	}

	p.pos++

	switch name {
	case "all":
		return func(c BuildConfig) bool {
			for _, a := range args {
				if !a(c) {
					return false
				}
			}

			return true
		}, nil
	case "any":
		return func(c BuildConfig) bool {
			for _, a := range args {
				if a(c) {
					return true
				}
			}

			return false
		}, nil
	case "not":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: not() takes one argument, got %d", ErrPredicate, len(args))
		}

		return func(c BuildConfig) bool { return !args[0](c) }, nil
	}

	return nil, fmt.Errorf("%w: unknown combinator %q", ErrPredicate, name)
}
