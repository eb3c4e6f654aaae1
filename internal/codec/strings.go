package codec

import "fmt"

// ShortString codes a one-byte length prefix followed by that many raw bytes
// (binary modes) or a quoted escaped form (text modes). Max 255 bytes.
func (c *Context) ShortString(s *string, info Info) error {
	if c.bitpos%8 != 0 {
		return c.newError(Alignment, info, "string does not start byte-aligned")
	}
	if c.IsParsing() {
		if c.IsBinary() {
			var n uint32
			if err := c.Uint(8, &n, info); err != nil {
				return err
			}
			v, err := c.readRawBytes(int(n), info)
			if err != nil {
				return err
			}
			*s = string(v)
			return nil
		}
		v, err := c.readTextString(info)
		if err != nil {
			return err
		}
		if len(v) > 255 {
			return c.newError(StringTooLong, info, "string of %d bytes exceeds 255", len(v))
		}
		*s = v
		c.bitpos += uint32(len(v)) * 8
		return nil
	}
	if len(*s) > 255 {
		return c.newError(StringTooLong, info, "string of %d bytes exceeds 255", len(*s))
	}
	if c.IsBinary() {
		n := uint32(len(*s))
		if err := c.Uint(8, &n, info); err != nil {
			return err
		}
		return c.writeRawBytes([]byte(*s), info)
	}
	c.writeTextString(info, *s)
	c.bitpos += uint32(len(*s)) * 8
	return nil
}

// FixedString codes exactly n bytes, no length prefix.
func (c *Context) FixedString(n int, s *string, info Info) error {
	if c.bitpos%8 != 0 {
		return c.newError(Alignment, info, "string does not start byte-aligned")
	}
	if c.IsParsing() {
		if c.IsBinary() {
			v, err := c.readRawBytes(n, info)
			if err != nil {
				return err
			}
			*s = string(v)
			return nil
		}
		v, err := c.readTextString(info)
		if err != nil {
			return err
		}
		*s = v
		c.bitpos += uint32(len(v)) * 8
		return nil
	}
	if len(*s) != n {
		return c.newError(LengthExceeded, info, "fixed string must be exactly %d bytes, got %d", n, len(*s))
	}
	if c.IsBinary() {
		return c.writeRawBytes([]byte(*s), info)
	}
	c.writeTextString(info, *s)
	c.bitpos += uint32(n) * 8
	return nil
}

func (c *Context) readRawBytes(n int, info Info) ([]byte, error) {
	if c.bitpos+uint32(n)*8 > c.bitlimit {
		return nil, c.newError(OutOfSpace, info, "not enough bytes to read %d-byte string", n)
	}
	start := c.bitpos / 8
	v := make([]byte, n)
	copy(v, c.src[start:int(start)+n])
	c.bitpos += uint32(n) * 8
	return v, nil
}

func (c *Context) writeRawBytes(v []byte, info Info) error {
	if c.bitpos+uint32(len(v))*8 > c.bitlimit {
		return c.newError(OutOfSpace, info, "not enough space to write %d-byte string", len(v))
	}
	start := c.bitpos / 8
	copy(c.dst[start:int(start)+len(v)], v)
	c.bitpos += uint32(len(v)) * 8
	return nil
}

// writeTextString emits "<name>:'<escaped>'\n". Printable ASCII (32..126)
// passes through unescaped except for the four characters with dedicated
// escapes; everything else is a three-digit octal escape.
func (c *Context) writeTextString(info Info, s string) {
	c.out.WriteString(c.indent())
	c.out.WriteString(info.Name)
	c.out.WriteString(":'")
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '\\':
			c.out.WriteString(`\\`)
		case '\'':
			c.out.WriteString(`\'`)
		case '\r':
			c.out.WriteString(`\r`)
		case '\n':
			c.out.WriteString(`\n`)
		default:
			if ch >= 32 && ch <= 126 {
				c.out.WriteByte(ch)
			} else {
				fmt.Fprintf(&c.out, `\%03o`, ch)
			}
		}
	}
	c.out.WriteString("'\n")
}

func (c *Context) readTextString(info Info) (string, error) {
	if err := c.expectLiteral(info.Name, info); err != nil {
		return "", err
	}
	if err := c.expectLiteral(":", info); err != nil {
		return "", err
	}
	if err := c.expectLiteral("'", info); err != nil {
		return "", err
	}
	var out []byte
	for {
		if c.pos >= len(c.text) {
			return "", c.newError(UnexpectedToken, info, "unterminated string")
		}
		ch := c.text[c.pos]
		if ch == '\'' {
			c.pos++
			break
		}
		if ch == '\\' {
			c.pos++
			if c.pos >= len(c.text) {
				return "", c.newError(UnexpectedToken, info, "unterminated escape")
			}
			esc := c.text[c.pos]
			switch esc {
			case '\\':
				out = append(out, '\\')
				c.pos++
			case '\'':
				out = append(out, '\'')
				c.pos++
			case 'r':
				out = append(out, '\r')
				c.pos++
			case 'n':
				out = append(out, '\n')
				c.pos++
			default:
				if esc < '0' || esc > '7' {
					return "", c.newError(IllegalChar, info, "invalid escape %q", esc)
				}
				if c.pos+3 > len(c.text) {
					return "", c.newError(IllegalChar, info, "truncated octal escape")
				}
				v := 0
				for k := 0; k < 3; k++ {
					d := c.text[c.pos+k]
					if d < '0' || d > '7' {
						return "", c.newError(IllegalChar, info, "invalid octal digit %q", d)
					}
					v = v*8 + int(d-'0')
				}
				if v > 255 {
					return "", c.newError(IllegalChar, info, "octal escape %d exceeds 255", v)
				}
				out = append(out, byte(v))
				c.pos += 3
			}
			continue
		}
		if ch < 32 || ch > 126 {
			return "", c.newError(IllegalChar, info, "illegal character %q in string", ch)
		}
		out = append(out, ch)
		c.pos++
	}
	return string(out), nil
}
