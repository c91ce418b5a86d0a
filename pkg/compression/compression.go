// Package compression provides the codecs used for program dumps and
// stored artifacts, selected by file extension or by magic bytes.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Type identifies a compression algorithm.
type Type uint8

const (
	// TypeNone stores data uncompressed.
	TypeNone Type = 0
	// TypeGzip uses gzip, the widely compatible fallback.
	TypeGzip Type = 1
	// TypeZstd uses zstd, the preferred codec for new artifacts.
	TypeZstd Type = 2
)

// String returns the codec name used in flags and file extensions.
func (t Type) String() string {
	switch t {
	case TypeGzip:
		return "gzip"
	case TypeZstd:
		return "zstd"
	default:
		return "none"
	}
}

// ParseType maps a codec name to its Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TypeNone, nil
	case "gzip", "gz":
		return TypeGzip, nil
	case "zstd", "zst":
		return TypeZstd, nil
	default:
		return TypeNone, fmt.Errorf("unknown compression type %q", s)
	}
}

// Level selects the speed versus ratio trade-off.
type Level int

const (
	LevelFastest Level = 1
	LevelDefault Level = 3
	LevelBest    Level = 9
)

// ParseLevel maps a level name to its Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast", "fastest":
		return LevelFastest, nil
	case "", "default":
		return LevelDefault, nil
	case "best":
		return LevelBest, nil
	default:
		return LevelDefault, fmt.Errorf("unknown compression level %q", s)
	}
}

// Compressor compresses and decompresses whole buffers.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Type() Type
	Name() string
}

// GzipCompressor implements Compressor using compress/gzip.
type GzipCompressor struct {
	level int
}

// NewGzipCompressor creates a gzip compressor at the given level.
func NewGzipCompressor(level Level) *GzipCompressor {
	gzLevel := gzip.DefaultCompression
	switch level {
	case LevelFastest:
		gzLevel = gzip.BestSpeed
	case LevelBest:
		gzLevel = gzip.BestCompression
	}
	return &GzipCompressor{level: gzLevel}
}

func (c *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("write gzip data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (c *GzipCompressor) Type() Type { return TypeGzip }

func (c *GzipCompressor) Name() string { return "gzip" }

// ZstdCompressor implements Compressor using klauspost/compress.
// A single instance is safe for concurrent use.
type ZstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCompressor creates a zstd compressor at the given level.
func NewZstdCompressor(level Level) (*ZstdCompressor, error) {
	zLevel := zstd.SpeedDefault
	switch level {
	case LevelFastest:
		zLevel = zstd.SpeedFastest
	case LevelBest:
		zLevel = zstd.SpeedBestCompression
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zLevel))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &ZstdCompressor{encoder: encoder, decoder: decoder}, nil
}

func (c *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (c *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

func (c *ZstdCompressor) Type() Type { return TypeZstd }

func (c *ZstdCompressor) Name() string { return "zstd" }

// Close releases the encoder and decoder.
func (c *ZstdCompressor) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

// NoOpCompressor passes data through unchanged.
type NoOpCompressor struct{}

func NewNoOpCompressor() *NoOpCompressor { return &NoOpCompressor{} }

func (c *NoOpCompressor) Compress(data []byte) ([]byte, error) { return data, nil }

func (c *NoOpCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

func (c *NoOpCompressor) Type() Type { return TypeNone }

func (c *NoOpCompressor) Name() string { return "none" }

// New creates a compressor for the given type and level.
func New(t Type, level Level) (Compressor, error) {
	switch t {
	case TypeZstd:
		return NewZstdCompressor(level)
	case TypeGzip:
		return NewGzipCompressor(level), nil
	case TypeNone:
		return NewNoOpCompressor(), nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}

// Default returns the preferred compressor, falling back to gzip when
// zstd initialization fails.
func Default() Compressor {
	c, err := NewZstdCompressor(LevelDefault)
	if err != nil {
		return NewGzipCompressor(LevelDefault)
	}
	return c
}

// TypeForPath derives the codec from a file name: ".gz" selects gzip,
// ".zst" and ".zstd" select zstd, anything else is uncompressed.
func TypeForPath(path string) Type {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return TypeGzip
	case strings.HasSuffix(path, ".zst"), strings.HasSuffix(path, ".zstd"):
		return TypeZstd
	default:
		return TypeNone
	}
}

// ForPath creates the compressor matching the file name's extension.
func ForPath(path string, level Level) (Compressor, error) {
	return New(TypeForPath(path), level)
}

// DetectType inspects magic bytes. Data that is neither gzip
// (0x1f 0x8b) nor zstd (0x28 0xb5 0x2f 0xfd) is reported uncompressed.
func DetectType(data []byte) Type {
	if len(data) >= 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd {
		return TypeZstd
	}
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return TypeGzip
	}
	return TypeNone
}

// AutoDecompress detects the codec from magic bytes and decompresses.
// Uncompressed data is returned unchanged.
func AutoDecompress(data []byte) ([]byte, error) {
	switch DetectType(data) {
	case TypeZstd:
		c, err := NewZstdCompressor(LevelDefault)
		if err != nil {
			return nil, fmt.Errorf("create zstd decompressor: %w", err)
		}
		defer c.Close()
		return c.Decompress(data)
	case TypeGzip:
		return NewGzipCompressor(LevelDefault).Decompress(data)
	default:
		return data, nil
	}
}

// Closeable is implemented by compressors that hold resources.
type Closeable interface {
	Close()
}

// Close closes c if it implements Closeable.
func Close(c Compressor) {
	if closer, ok := c.(Closeable); ok {
		closer.Close()
	}
}
