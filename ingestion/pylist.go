package ingestion

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrMalformedList is returned by ParseList for text that is not a
// stringified list literal.
var ErrMalformedList = errors.New("malformed list literal")

// ParseList parses a stringified list as found in the Food.com dump, e.g.
// ['winter squash', "baker's yeast", 1.5]. Quoted elements may use single
// or double quotes with backslash escapes. Bare elements (numbers, True,
// None) are kept as their literal text. Every element is trimmed.
func ParseList(s string) ([]string, error) {
	p := &listParser{src: strings.TrimSpace(s)}
	items, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedList, err)
	}
	return items, nil
}

type listParser struct {
	src string
	pos int
}

func (p *listParser) parse() ([]string, error) {
	if !p.consume('[') {
		return nil, errors.New("expected '['")
	}
	items := []string{}
	p.skipSpace()
	if p.consume(']') {
		return items, p.end()
	}
	for {
		p.skipSpace()
		item, err := p.element()
		if err != nil {
			return nil, err
		}
		items = append(items, strings.TrimSpace(item))
		p.skipSpace()
		if p.consume(']') {
			return items, p.end()
		}
		if !p.consume(',') {
			return nil, fmt.Errorf("expected ',' or ']' at offset %d", p.pos)
		}
		p.skipSpace()
		// trailing comma
		if p.consume(']') {
			return items, p.end()
		}
	}
}

func (p *listParser) end() error {
	p.skipSpace()
	if p.pos != len(p.src) {
		return fmt.Errorf("unexpected text after list at offset %d", p.pos)
	}
	return nil
}

func (p *listParser) consume(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *listParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *listParser) element() (string, error) {
	if p.pos >= len(p.src) {
		return "", errors.New("unexpected end of input")
	}
	switch p.src[p.pos] {
	case '\'', '"':
		return p.quoted()
	default:
		return p.bare()
	}
}

// bare reads an unquoted literal up to the next ',' or ']'.
func (p *listParser) bare() (string, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != ',' && p.src[p.pos] != ']' {
		switch p.src[p.pos] {
		case '[', '\'', '"', '{', '(':
			return "", fmt.Errorf("unsupported element at offset %d", p.pos)
		}
		p.pos++
	}
	lit := strings.TrimSpace(p.src[start:p.pos])
	if lit == "" {
		return "", fmt.Errorf("empty element at offset %d", start)
	}
	switch lit {
	case "None", "True", "False":
		return lit, nil
	}
	if _, err := strconv.ParseFloat(lit, 64); err != nil {
		return "", fmt.Errorf("unsupported literal %q", lit)
	}
	return lit, nil
}

func (p *listParser) quoted() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", errors.New("unterminated string")
}

func (p *listParser) escape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return errors.New("dangling escape")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'x':
		return p.hexRune(b, 2)
	case 'u':
		return p.hexRune(b, 4)
	case 'U':
		return p.hexRune(b, 8)
	default:
		// unknown escapes are kept verbatim
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (p *listParser) hexRune(b *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return errors.New("short hex escape")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil {
		return fmt.Errorf("bad hex escape: %w", err)
	}
	p.pos += digits
	r := rune(v)
	if !utf8.ValidRune(r) {
		return fmt.Errorf("invalid code point %#x", v)
	}
	b.WriteRune(r)
	return nil
}

// ParseCalories returns the first element of a stringified nutrition list
// as a calorie count. Empty, malformed or non-numeric input yields nil.
func ParseCalories(s string) *float64 {
	items, err := ParseList(s)
	if err != nil || len(items) == 0 {
		return nil
	}
	v, err := strconv.ParseFloat(items[0], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseNullableInt accepts integers and integral floats such as "40.0".
func parseNullableInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	v := int(f)
	return &v
}
