package dex

import (
	"bytes"
	"encoding/binary"
	"fmt"

	apperrors "github.com/resopt/pkg/errors"
	"github.com/resopt/pkg/resid"
)

// fill-array-data-payload block layout (all fields little-endian):
//
//	u2 ident = 0x0300
//	u2 element_width
//	u4 element_count
//	u1 data[element_count * element_width]
//	u1 pad[] to a 2-byte code-unit boundary
const (
	// PayloadIdent tags a fill-array-data-payload block.
	PayloadIdent = 0x0300

	// ResourceElementWidth is the element width of resource-ID arrays.
	// Holder classes only ever declare int[] constants.
	ResourceElementWidth = 4

	payloadHeaderSize = 8
)

func malformedPayload(format string, args ...interface{}) error {
	return apperrors.Wrap(apperrors.CodeMalformedPayload, "malformed array payload", fmt.Errorf(format, args...))
}

// DecodeResourcePayload decodes a fill-array-data payload block into
// the resource identifiers it holds. The block must be a complete,
// exactly padded int-array payload; anything else means the method is
// not a holder initializer this pass understands and is rejected.
func DecodeResourcePayload(raw []byte) ([]resid.ID, error) {
	if len(raw) < payloadHeaderSize {
		return nil, malformedPayload("payload header truncated: %d bytes", len(raw))
	}

	r := NewReader(bytes.NewReader(raw))

	ident, err := r.ReadUint16()
	if err != nil {
		return nil, malformedPayload("reading ident: %v", err)
	}
	if ident != PayloadIdent {
		return nil, malformedPayload("bad payload ident 0x%04x", ident)
	}

	width, err := r.ReadUint16()
	if err != nil {
		return nil, malformedPayload("reading element width: %v", err)
	}
	if width != ResourceElementWidth {
		return nil, malformedPayload("unsupported element width %d", width)
	}

	count, err := r.ReadUint32()
	if err != nil {
		return nil, malformedPayload("reading element count: %v", err)
	}

	dataLen := int64(count) * int64(width)
	if dataLen > int64(len(raw)-payloadHeaderSize) {
		return nil, malformedPayload("%d elements overrun %d data bytes", count, len(raw)-payloadHeaderSize)
	}
	if padded := paddedSize(int(dataLen)); len(raw) != padded {
		return nil, malformedPayload("%d trailing bytes after padded end", len(raw)-padded)
	}

	ids := make([]resid.ID, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := r.ReadUint32()
		if err != nil {
			return nil, malformedPayload("reading element %d: %v", i, err)
		}
		ids = append(ids, resid.ID(v))
	}
	return ids, nil
}

// EncodeResourcePayload encodes resource identifiers into a
// fill-array-data payload block. It is the exact left inverse of
// DecodeResourcePayload, with zero pad bytes for determinism.
func EncodeResourcePayload(ids []resid.ID) []byte {
	dataLen := len(ids) * ResourceElementWidth
	buf := make([]byte, paddedSize(dataLen))

	binary.LittleEndian.PutUint16(buf[0:2], PayloadIdent)
	binary.LittleEndian.PutUint16(buf[2:4], ResourceElementWidth)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(ids)))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[payloadHeaderSize+i*ResourceElementWidth:], uint32(id))
	}
	return buf
}

// paddedSize returns the full block size for dataLen data bytes,
// padded so the block covers a whole number of 2-byte code units.
func paddedSize(dataLen int) int {
	total := payloadHeaderSize + dataLen
	return total + total%2
}
