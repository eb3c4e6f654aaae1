package codec

// Uint reads (parse modes) or writes (construct modes) an n-bit (1..32)
// unsigned value at the current position, advancing by n bits.
func (c *Context) Uint(n int, v *uint32, info Info) error {
	switch c.mode {
	case ModeParseBinary:
		if c.bitpos+uint32(n) > c.bitlimit {
			return c.newError(OutOfSpace, info, "not enough bits to read %d-bit field", n)
		}
		*v = readBits(c.src, c.bitpos, n)
		c.bitpos += uint32(n)
		return nil
	case ModeConstructBinary:
		if n < 32 && *v >= uint32(1)<<uint(n) {
			return c.newError(ValueTooLarge, info, "value %d does not fit in %d bits", *v, n)
		}
		if c.bitpos+uint32(n) > c.bitlimit {
			return c.newError(OutOfSpace, info, "not enough bits to write %d-bit field", n)
		}
		writeBits(c.dst, c.bitpos, n, *v)
		c.bitpos += uint32(n)
		return nil
	case ModeParseText:
		val, err := c.readTextValue(info)
		if err != nil {
			return err
		}
		*v = val
		c.bitpos += uint32(n)
		return nil
	case ModeConstructText:
		c.writeTextValue(info, *v)
		c.bitpos += uint32(n)
		return nil
	default:
		panic("codec: unknown mode")
	}
}

// UintReq parses-and-compares (parse modes) or writes (construct modes) a
// fixed, already-known value such as a reserved bit pattern.
func (c *Context) UintReq(n int, expected uint32, info Info) error {
	if c.IsParsing() {
		var got uint32
		if err := c.Uint(n, &got, info); err != nil {
			return err
		}
		if got != expected {
			return c.newError(ValueMismatch, info, "expected %d, got %d", expected, got)
		}
		return nil
	}
	v := expected
	return c.Uint(n, &v, info)
}
