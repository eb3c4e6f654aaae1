package codec

// DVBCRC32 computes the Annex B CRC-32 used throughout DVB SI: polynomial
// 0x04C11DB7, initial value 0xFFFFFFFF, MSB-first, no reflection, no final
// XOR. Grounded in the teacher's own mpegTSCRC32 (internal/tuner/psi_keepalive.go),
// adapted from a fixed PAT/PMT byte range to an arbitrary byte slice.
func DVBCRC32(data []byte) uint32 {
	const poly = 0x04C11DB7
	crc := uint32(0xFFFFFFFF)
	for _, b := range data {
		crc ^= uint32(b) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// CRC handles the crc_32 field of a section. In binary-parse mode it reads
// the trailer and verifies it against DVBCRC32 of the bytes spanning
// [sectionStart, current bitpos). In binary-construct mode it reserves the
// field with a provisional value (overwritten by CRCLateFix once surrounding
// length prefixes have settled) and returns the reserved bit position in
// crcPos. Text modes round-trip the raw value without recomputation, since
// the textual form is a diagnostic dump rather than a reverifiable wire
// format.
func (c *Context) CRC(sectionStart uint32, crc *uint32, info Info) (crcPos uint32, err error) {
	crcPos = c.bitpos
	if c.mode == ModeParseBinary {
		computed := DVBCRC32(c.src[sectionStart/8 : c.bitpos/8])
		var got uint32
		if err := c.Uint(32, &got, info); err != nil {
			return crcPos, err
		}
		if got != computed {
			return crcPos, c.newError(CRCMismatch, info, "crc mismatch: got 0x%08x, want 0x%08x", got, computed)
		}
		*crc = got
		return crcPos, nil
	}
	return crcPos, c.Uint(32, crc, info)
}

// CRCLateFix recomputes the CRC over [sectionStart, crcPos) now that every
// interior named_block_end in the section has back-patched its length, and
// overwrites the reserved field at crcPos. A no-op outside binary-construct
// mode, mirroring the source's crc_late_fix which only acts when
// is_binary() && !is_parsing().
func (c *Context) CRCLateFix(sectionStart, crcPos uint32, crc *uint32, info Info) error {
	if c.mode != ModeConstructBinary {
		return nil
	}
	computed := DVBCRC32(c.dst[sectionStart/8 : crcPos/8])
	*crc = computed
	writeBits(c.dst, crcPos, 32, computed)
	return nil
}
