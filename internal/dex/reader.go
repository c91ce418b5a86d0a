package dex

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Reader provides buffered little-endian reading of DEX binary data.
type Reader struct {
	r       *bufio.Reader
	byteBuf []byte
}

// NewReader creates a new DEX reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:       bufio.NewReaderSize(r, 64*1024), // 64KB buffer
		byteBuf: make([]byte, 8),
	}
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	return r.r.ReadByte()
}

// ReadBytes reads n bytes into a new slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(r.r, buf)
	return buf, err
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	_, err := io.ReadFull(r.r, r.byteBuf[:2])
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.byteBuf[:2]), nil
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	_, err := io.ReadFull(r.r, r.byteBuf[:4])
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.byteBuf[:4]), nil
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	_, err := io.ReadFull(r.r, r.byteBuf[:8])
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.byteBuf[:8]), nil
}

// Skip skips n bytes.
func (r *Reader) Skip(n int64) error {
	_, err := r.r.Discard(int(n))
	return err
}
