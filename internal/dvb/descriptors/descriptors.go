// Package descriptors implements the DVB SI descriptor loop: a tag-dispatched
// polymorphic element type used inside NIT (and, generally, any other SI
// table's) descriptor loops.
package descriptors

import "github.com/aclamk-go/dvbsi/internal/codec"

const (
	TagServiceList         uint8 = 0x41
	TagCableDeliverySystem uint8 = 0x44
	TagAdaptationFieldData uint8 = 0x70
)

// Descriptor is any element of a descriptor loop. In construct mode IO
// writes its own tag as the first thing it does; in parse mode the tag has
// already been consumed by the list iterator, which used it to pick the
// variant via New.
type Descriptor interface {
	codec.Coder
	DescriptorTag() uint8
}

// New dispatches on tag to produce the right concrete variant for
// PolyListIO's factory parameter.
func New(tag uint8) Descriptor {
	switch tag {
	case TagServiceList:
		return &ServiceListDescriptor{}
	case TagCableDeliverySystem:
		return &CableDeliverySystemDescriptor{}
	case TagAdaptationFieldData:
		return &AdaptationFieldDataDescriptor{}
	default:
		return &UnknownDescriptor{Tag: tag}
	}
}

// ServiceListDescriptor (tag 0x41) carries a repeated list of
// (service_id, service_type) pairs filling the descriptor body.
type ServiceListDescriptor struct {
	Services []ServiceListEntry
}

func (d *ServiceListDescriptor) DescriptorTag() uint8 { return TagServiceList }

// ServiceListEntry is one element of a ServiceListDescriptor's body.
type ServiceListEntry struct {
	ServiceID   uint32
	ServiceType uint32
}

func (e *ServiceListEntry) IO(c *codec.Context) error {
	if err := c.Uint(16, &e.ServiceID, codec.NewInfo("service_id")); err != nil {
		return err
	}
	return c.Uint(8, &e.ServiceType, codec.NewInfo("service_type"))
}

func (d *ServiceListDescriptor) IO(c *codec.Context) error {
	if !c.IsParsing() {
		tag := uint32(TagServiceList)
		if err := c.Uint(8, &tag, codec.NewInfo("tag")); err != nil {
			return err
		}
	}
	if err := c.NamedBlockBegin(8, codec.NewInfo("length")); err != nil {
		return err
	}
	if err := codec.ListIO[ServiceListEntry](c, &d.Services); err != nil {
		return err
	}
	_, err := c.NamedBlockEnd(codec.NewInfo("descriptor_content"))
	return err
}

// CableDeliverySystemDescriptor (tag 0x44) describes a DVB-C physical
// transmission parameter set.
type CableDeliverySystemDescriptor struct {
	Frequency  uint32
	FECOuter   uint32
	Modulation uint32
	SymbolRate uint32
	FECInner   uint32
}

func (d *CableDeliverySystemDescriptor) DescriptorTag() uint8 { return TagCableDeliverySystem }

func (d *CableDeliverySystemDescriptor) IO(c *codec.Context) error {
	if !c.IsParsing() {
		tag := uint32(TagCableDeliverySystem)
		if err := c.Uint(8, &tag, codec.NewInfo("tag")); err != nil {
			return err
		}
	}
	if err := c.NamedBlockBegin(8, codec.NewInfo("length")); err != nil {
		return err
	}
	if err := c.Uint(32, &d.Frequency, codec.NewHintInfo("frequency", codec.Hex)); err != nil {
		return err
	}
	if err := c.UintReq(12, (1<<12)-1, codec.NewInfo("reserved_future_use")); err != nil {
		return err
	}
	if err := c.Uint(4, &d.FECOuter, codec.NewInfo("fec_outer")); err != nil {
		return err
	}
	if err := c.Uint(8, &d.Modulation, codec.NewInfo("modulation")); err != nil {
		return err
	}
	if err := c.Uint(28, &d.SymbolRate, codec.NewInfo("symbol_rate")); err != nil {
		return err
	}
	if err := c.Uint(4, &d.FECInner, codec.NewInfo("fec_inner")); err != nil {
		return err
	}
	_, err := c.NamedBlockEnd(codec.NewInfo("descriptor_content"))
	return err
}

// AdaptationFieldDataDescriptor (tag 0x70) carries a single identifier byte.
type AdaptationFieldDataDescriptor struct {
	AdaptationFieldDataIdentifier uint32
}

func (d *AdaptationFieldDataDescriptor) DescriptorTag() uint8 { return TagAdaptationFieldData }

func (d *AdaptationFieldDataDescriptor) IO(c *codec.Context) error {
	if !c.IsParsing() {
		tag := uint32(TagAdaptationFieldData)
		if err := c.Uint(8, &tag, codec.NewInfo("tag")); err != nil {
			return err
		}
	}
	if err := c.NamedBlockBegin(8, codec.NewInfo("length")); err != nil {
		return err
	}
	if err := c.Uint(8, &d.AdaptationFieldDataIdentifier, codec.NewInfo("adaptation_field_data_identifier")); err != nil {
		return err
	}
	_, err := c.NamedBlockEnd(codec.NewInfo("descriptor_content"))
	return err
}

// UnknownDescriptor preserves the opaque body of any tag without a dedicated
// variant, byte-for-byte, so round-tripping a section never loses data.
type UnknownDescriptor struct {
	Tag  uint8
	Data string
}

func (d *UnknownDescriptor) DescriptorTag() uint8 { return d.Tag }

func (d *UnknownDescriptor) IO(c *codec.Context) error {
	if !c.IsParsing() {
		tag := uint32(d.Tag)
		if err := c.Uint(8, &tag, codec.NewInfo("tag")); err != nil {
			return err
		}
	}
	length := uint32(len(d.Data))
	if err := c.Uint(8, &length, codec.NewInfo("length")); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	return c.FixedString(int(length), &d.Data, codec.NewInfo("data"))
}
