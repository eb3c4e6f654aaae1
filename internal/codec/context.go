package codec

import "strings"

// Mode is the tagged-sum discriminant replacing the source's inheritance
// hierarchy of context variants (ibCtx/obCtx/icCtx/ocCtx): one struct, one
// switch per operation, instead of four classes.
type Mode int

const (
	ModeParseBinary Mode = iota
	ModeConstructBinary
	ModeParseText
	ModeConstructText
)

// scope is one frame of the nested-block stack. writePos/writeBits are only
// meaningful in binary-construct mode, where the length prefix is written
// back once the block's true size is known.
type scope struct {
	info            Info
	bitposAtEnter   uint32
	bitlimitAtEnter uint32
	writePos        uint32 // bit offset of the reserved length field (binary construct only)
	writeBits       int    // width of the reserved length field
}

// Context is the single mode-polymorphic I/O handle. Exactly one of the
// binary/text source/destination fields is populated, selected by mode.
type Context struct {
	mode     Mode
	bitpos   uint32
	bitlimit uint32
	scopes   []scope

	src []byte // ModeParseBinary
	dst []byte // ModeConstructBinary

	text string // ModeParseText
	pos  int    // byte offset into text, ASCII-only so also a rune offset

	out strings.Builder // ModeConstructText
}

// ParseBinary creates a context that reads data from the start.
func ParseBinary(data []byte) *Context {
	return &Context{mode: ModeParseBinary, src: data, bitlimit: uint32(len(data)) * 8}
}

// ConstructBinary creates a context that writes into dest, which must be sized
// for the largest message the caller intends to build; Bytes() reports the
// bytes actually written.
func ConstructBinary(dest []byte) *Context {
	return &Context{mode: ModeConstructBinary, dst: dest, bitlimit: uint32(len(dest)) * 8}
}

// ParseText creates a context that reads the textual dump format from s.
func ParseText(s string) *Context {
	return &Context{mode: ModeParseText, text: s, bitlimit: ^uint32(0)}
}

// ConstructText creates a context that builds the textual dump format.
func ConstructText() *Context {
	return &Context{mode: ModeConstructText, bitlimit: ^uint32(0)}
}

func (c *Context) IsParsing() bool {
	return c.mode == ModeParseBinary || c.mode == ModeParseText
}

func (c *Context) IsBinary() bool {
	return c.mode == ModeParseBinary || c.mode == ModeConstructBinary
}

// Bytes returns the bytes written so far in ModeConstructBinary, i.e. the
// prefix of the destination buffer actually produced, including a final
// partially written byte.
func (c *Context) Bytes() []byte {
	return c.dst[:(c.bitpos+7)/8]
}

// Text returns the textual dump built so far in ModeConstructText.
func (c *Context) Text() string {
	return c.out.String()
}

// BitPos reports the current bit cursor, binary position or simulated text
// position depending on mode.
func (c *Context) BitPos() uint32 {
	return c.bitpos
}

// BlockSizeLeft reports how many bits remain in the innermost open scope (or
// the whole message if no scope is open). In text-parse mode a pending '}'
// short-circuits this to 0 regardless of the simulated bit budget, which is
// what lets a heterogeneous list terminate correctly even though the textual
// form never writes the declared length that bounds it in binary mode.
func (c *Context) BlockSizeLeft() uint32 {
	if c.mode == ModeParseText {
		if b, ok := c.peekNonWhitespace(); ok && b == '}' {
			return 0
		}
	}
	if c.bitpos >= c.bitlimit {
		return 0
	}
	return c.bitlimit - c.bitpos
}

func (c *Context) currentScope() *scope {
	if len(c.scopes) == 0 {
		return nil
	}
	return &c.scopes[len(c.scopes)-1]
}
