// Package snapshot stores a sequence of captured DVB SI sections, each
// tagged with its PID and capture time, as a brotli-compressed stream of
// length-prefixed records. It lets a capture session be replayed
// byte-for-byte in tests and offline analysis without shipping raw .ts
// fixtures.
//
// The length-prefixed-record-over-a-compressed-stream shape mirrors the
// teacher's internal/dvbdb.Save, which writes to a temp file and renames
// into place atomically; snapshot.Writer leaves the atomic-rename decision
// to its caller (who already owns the destination io.Writer) and focuses on
// the framing and compression, since unlike dvbdb's single JSON blob this is
// an append-as-you-go stream of many small records.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/andybalholm/brotli"
)

// recordHeaderLen is pid(2) + captured_at unix seconds(8) + length(4).
const recordHeaderLen = 2 + 8 + 4

// Writer appends brotli-compressed, length-prefixed section records to an
// underlying io.Writer.
type Writer struct {
	bw *brotli.Writer
}

// NewWriter wraps w with a brotli compressor at the default quality.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: brotli.NewWriter(w)}
}

// WriteSection appends one record: pid, the current time as capture
// timestamp, and data verbatim.
func (w *Writer) WriteSection(pid uint16, data []byte) error {
	return w.WriteSectionAt(pid, time.Now(), data)
}

// WriteSectionAt is like WriteSection but with an explicit capture
// timestamp, for callers that need a deterministic capture time.
func (w *Writer) WriteSectionAt(pid uint16, capturedAt time.Time, data []byte) error {
	var hdr [recordHeaderLen]byte
	binary.BigEndian.PutUint16(hdr[0:2], pid)
	binary.BigEndian.PutUint64(hdr[2:10], uint64(capturedAt.Unix()))
	binary.BigEndian.PutUint32(hdr[10:14], uint32(len(data)))
	if _, err := w.bw.Write(hdr[:]); err != nil {
		return fmt.Errorf("snapshot: write record header: %w", err)
	}
	if _, err := w.bw.Write(data); err != nil {
		return fmt.Errorf("snapshot: write record body: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying brotli stream. It does not close
// the wrapped io.Writer.
func (w *Writer) Close() error {
	return w.bw.Close()
}

// Reader reads back records written by Writer.
type Reader struct {
	br *brotli.Reader
}

// NewReader wraps r with a brotli decompressor.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: brotli.NewReader(r)}
}

// ReadSection returns the next record's PID and section bytes, or io.EOF
// once the stream is exhausted.
func (r *Reader) ReadSection() (pid uint16, data []byte, err error) {
	pid, _, data, err = r.ReadSectionAt()
	return pid, data, err
}

// ReadSectionAt is like ReadSection but also returns the capture timestamp.
func (r *Reader) ReadSectionAt() (pid uint16, capturedAt time.Time, data []byte, err error) {
	var hdr [recordHeaderLen]byte
	if _, err = io.ReadFull(r.br, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = fmt.Errorf("snapshot: truncated record header: %w", err)
		}
		return 0, time.Time{}, nil, err
	}
	pid = binary.BigEndian.Uint16(hdr[0:2])
	capturedAt = time.Unix(int64(binary.BigEndian.Uint64(hdr[2:10])), 0).UTC()
	length := binary.BigEndian.Uint32(hdr[10:14])
	data = make([]byte, length)
	if _, err = io.ReadFull(r.br, data); err != nil {
		return 0, time.Time{}, nil, fmt.Errorf("snapshot: truncated record body: %w", err)
	}
	return pid, capturedAt, data, nil
}
