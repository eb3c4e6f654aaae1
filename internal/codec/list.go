package codec

// Coder is satisfied by any message element that can drive itself through a
// Context in all four modes.
type Coder interface {
	IO(c *Context) error
}

// ListIO codes a homogeneous repeated field filling the remainder of the
// enclosing scope: parse appends decoded items until BlockSizeLeft reaches 0,
// construct simply iterates the slice already populated by the caller.
func ListIO[T any, PT interface {
	*T
	Coder
}](c *Context, list *[]T) error {
	if c.IsParsing() {
		*list = nil
		for c.BlockSizeLeft() > 0 {
			var item T
			if err := PT(&item).IO(c); err != nil {
				return err
			}
			*list = append(*list, item)
		}
		return nil
	}
	for i := range *list {
		if err := PT(&(*list)[i]).IO(c); err != nil {
			return err
		}
	}
	return nil
}

// PolyListIO codes a heterogeneous repeated field (e.g. a descriptor loop).
// On parse, the tag byte is consumed by the list iterator (not by the
// element's own IO), a variant is produced by factory already carrying that
// tag, and the rest of its payload is decoded by delegating to IO. On
// construct, the element's own IO writes its tag as the first thing it does.
// This asymmetry mirrors the source's descriptor_vector::io exactly.
func PolyListIO[T Coder](c *Context, list *[]T, factory func(tag uint8) T) error {
	if c.IsParsing() {
		*list = nil
		for c.BlockSizeLeft() > 0 {
			var tag uint32
			if err := c.Uint(8, &tag, NewInfo("tag")); err != nil {
				return err
			}
			item := factory(uint8(tag))
			if err := item.IO(c); err != nil {
				return err
			}
			*list = append(*list, item)
		}
		return nil
	}
	for _, item := range *list {
		if err := item.IO(c); err != nil {
			return err
		}
	}
	return nil
}
