// Package nit implements the DVB Network Information Section and its
// transport-stream loop entries.
package nit

import (
	"github.com/aclamk-go/dvbsi/internal/codec"
	"github.com/aclamk-go/dvbsi/internal/dvb/descriptors"
)

// maxSectionLength is the corrected NIT size cap: section_length + 3 <= 1024,
// i.e. section_length <= 1021. The source checked section_length > 1021
// against the wrong field at the wrong time (see TSSpecification's sibling
// NetworkInformationSection.IO for where the check actually happens here).
const maxSectionLength = 1021

// TSSpecification is one entry of a NIT's transport-stream loop.
type TSSpecification struct {
	TransportStreamID    uint32
	OriginalNetworkID    uint32
	TransportDescriptors []descriptors.Descriptor
}

func (t *TSSpecification) IO(c *codec.Context) error {
	if err := c.Uint(16, &t.TransportStreamID, codec.NewInfo("transport_stream_id")); err != nil {
		return err
	}
	if err := c.Uint(16, &t.OriginalNetworkID, codec.NewInfo("original_network_id")); err != nil {
		return err
	}
	if err := c.UintReq(4, 0xf, codec.NewInfo("reserved_future_use")); err != nil {
		return err
	}
	if err := c.NamedBlockBegin(12, codec.NewInfo("transport_descriptors_length")); err != nil {
		return err
	}
	if err := codec.PolyListIO(c, &t.TransportDescriptors, descriptors.New); err != nil {
		return err
	}
	_, err := c.NamedBlockEnd(codec.NewInfo("transport_descriptors"))
	return err
}

// NetworkInformationSection is the top-level NIT table.
type NetworkInformationSection struct {
	TableID                   uint32
	SectionSyntaxIndicator    uint32
	SectionLength             uint32
	NetworkID                 uint32
	VersionNumber             uint32
	CurrentNextIndicator      uint32
	SectionNumber             uint32
	LastSectionNumber         uint32
	NetworkDescriptorsLength  uint32
	NetworkDescriptors        []descriptors.Descriptor
	TransportStreamLoopLength uint32
	TSLoop                    []TSSpecification
	CRC                       uint32
}

func (n *NetworkInformationSection) IO(c *codec.Context) error {
	nitBegin := c.BitPos()

	if err := c.Uint(8, &n.TableID, codec.NewInfo("table_id")); err != nil {
		return err
	}
	if err := c.Uint(1, &n.SectionSyntaxIndicator, codec.NewInfo("section_syntax_indicator")); err != nil {
		return err
	}
	if err := c.UintReq(1, 1, codec.NewInfo("reserved_future_use")); err != nil {
		return err
	}
	if err := c.UintReq(2, 0x3, codec.NewInfo("reserved")); err != nil {
		return err
	}

	if err := c.NamedBlockBegin(12, codec.NewInfo("section_length")); err != nil {
		return err
	}

	if err := c.Uint(16, &n.NetworkID, codec.NewInfo("network_id")); err != nil {
		return err
	}
	if err := c.UintReq(2, 0x3, codec.NewInfo("reserved")); err != nil {
		return err
	}
	if err := c.Uint(5, &n.VersionNumber, codec.NewInfo("version_number")); err != nil {
		return err
	}
	if err := c.Uint(1, &n.CurrentNextIndicator, codec.NewInfo("current_next_indicator")); err != nil {
		return err
	}
	if err := c.Uint(8, &n.SectionNumber, codec.NewInfo("section_number")); err != nil {
		return err
	}
	if err := c.Uint(8, &n.LastSectionNumber, codec.NewInfo("last_section_number")); err != nil {
		return err
	}
	if err := c.UintReq(4, 0xf, codec.NewInfo("reserved_future_use")); err != nil {
		return err
	}

	if err := c.NamedBlockBegin(12, codec.NewInfo("network_descriptors_length")); err != nil {
		return err
	}
	if err := codec.PolyListIO(c, &n.NetworkDescriptors, descriptors.New); err != nil {
		return err
	}
	nl, err := c.NamedBlockEnd(codec.NewInfo("network_descriptors_length"))
	if err != nil {
		return err
	}
	n.NetworkDescriptorsLength = nl

	if err := c.UintReq(4, 0xf, codec.NewInfo("reserved_future_use")); err != nil {
		return err
	}
	if err := c.NamedBlockBegin(12, codec.NewInfo("transport_stream_loop_length")); err != nil {
		return err
	}
	if err := codec.ListIO[TSSpecification](c, &n.TSLoop); err != nil {
		return err
	}
	tl, err := c.NamedBlockEnd(codec.NewInfo("transport_stream_loop_length"))
	if err != nil {
		return err
	}
	n.TransportStreamLoopLength = tl

	crcPos, err := c.CRC(nitBegin, &n.CRC, codec.NewInfo("CRC"))
	if err != nil {
		return err
	}
	sl, err := c.NamedBlockEnd(codec.NewInfo("section_length"))
	if err != nil {
		return err
	}
	n.SectionLength = sl
	if err := c.CRCLateFix(nitBegin, crcPos, &n.CRC, codec.NewInfo("CRC")); err != nil {
		return err
	}

	if n.SectionLength > maxSectionLength {
		return c.NewFault(codec.LengthExceeded, codec.NewInfo("section_length"), "NIT size exceeds 1024")
	}
	return nil
}
