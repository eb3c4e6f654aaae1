package codec

import "strconv"

func isTextWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n'
}

// peekNonWhitespace returns the next non-whitespace byte without consuming
// anything, or ok=false at end of input.
func (c *Context) peekNonWhitespace() (byte, bool) {
	i := c.pos
	for i < len(c.text) && isTextWhitespace(c.text[i]) {
		i++
	}
	if i >= len(c.text) {
		return 0, false
	}
	return c.text[i], true
}

func (c *Context) skipWhitespace() {
	for c.pos < len(c.text) && isTextWhitespace(c.text[c.pos]) {
		c.pos++
	}
}

// expectLiteral consumes whitespace then the exact literal s, or fails with
// UNEXPECTED_TOKEN.
func (c *Context) expectLiteral(s string, info Info) error {
	c.skipWhitespace()
	if c.pos+len(s) > len(c.text) || c.text[c.pos:c.pos+len(s)] != s {
		return c.newError(UnexpectedToken, info, "expected %q", s)
	}
	c.pos += len(s)
	return nil
}

func (c *Context) indent() string {
	return indentString(len(c.scopes))
}

func indentString(depth int) string {
	b := make([]byte, depth*2)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func hexDigitValue(ch byte) (int, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0'), true
	case ch >= 'A' && ch <= 'F':
		return 10 + int(ch-'A'), true
	case ch >= 'a' && ch <= 'f':
		return 10 + int(ch-'a'), true
	default:
		return 0, false
	}
}

// readTextValue consumes "<name>: <value>" and returns the parsed value.
// Accepts 0x hex, 0b binary, otherwise decimal.
func (c *Context) readTextValue(info Info) (uint32, error) {
	if err := c.expectLiteral(info.Name, info); err != nil {
		return 0, err
	}
	if err := c.expectLiteral(":", info); err != nil {
		return 0, err
	}
	c.skipWhitespace()
	if c.pos+2 <= len(c.text) && c.text[c.pos] == '0' && (c.text[c.pos+1] == 'x' || c.text[c.pos+1] == 'X') {
		c.pos += 2
		var v uint32
		start := c.pos
		for c.pos < len(c.text) {
			d, ok := hexDigitValue(c.text[c.pos])
			if !ok {
				break
			}
			v = v*16 + uint32(d)
			c.pos++
		}
		if c.pos == start {
			return 0, c.newError(UnexpectedToken, info, "expected hex digits")
		}
		return v, nil
	}
	if c.pos+2 <= len(c.text) && c.text[c.pos] == '0' && c.text[c.pos+1] == 'b' {
		c.pos += 2
		var v uint32
		start := c.pos
		for c.pos < len(c.text) && (c.text[c.pos] == '0' || c.text[c.pos] == '1') {
			v = v*2 + uint32(c.text[c.pos]-'0')
			c.pos++
		}
		if c.pos == start {
			return 0, c.newError(UnexpectedToken, info, "expected binary digits")
		}
		return v, nil
	}
	start := c.pos
	var v uint32
	for c.pos < len(c.text) && c.text[c.pos] >= '0' && c.text[c.pos] <= '9' {
		v = v*10 + uint32(c.text[c.pos]-'0')
		c.pos++
	}
	if c.pos == start {
		return 0, c.newError(UnexpectedToken, info, "expected decimal digits")
	}
	return v, nil
}

// writeTextValue emits "<name>: <value>\n" at the current indent, formatted
// per info.Hint.
func (c *Context) writeTextValue(info Info, v uint32) {
	c.out.WriteString(c.indent())
	c.out.WriteString(info.Name)
	c.out.WriteString(": ")
	switch info.Hint {
	case Hex:
		c.out.WriteString("0x")
		c.out.WriteString(strconv.FormatUint(uint64(v), 16))
	case Binary:
		c.out.WriteString("0b")
		c.out.WriteString(formatBinary(v))
	default:
		c.out.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	c.out.WriteString("\n")
}

// formatBinary renders v as its minimal binary digit string, MSB-first,
// matching the actual bits of v (the source's write_bin inverts 0/1; this
// does not).
func formatBinary(v uint32) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatUint(uint64(v), 2)
}
