// Package writer provides JSON writers for program dumps and reports,
// with optional gzip or zstd framing selected by file extension.
package writer

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/resopt/pkg/compression"
)

// FileWriter writes a value as JSON to a stream or a file.
type FileWriter[T any] interface {
	Write(data T, w io.Writer) error
	WriteToFile(data T, path string) error
}

// JSONWriter writes plain JSON.
type JSONWriter[T any] struct {
	// Indent enables pretty printing when non-empty.
	Indent string
}

// NewJSONWriter creates a compact JSON writer.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{}
}

// NewPrettyJSONWriter creates an indenting JSON writer.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

func (w *JSONWriter[T]) Write(data T, out io.Writer) error {
	enc := json.NewEncoder(out)
	if w.Indent != "" {
		enc.SetIndent("", w.Indent)
	}
	return enc.Encode(data)
}

func (w *JSONWriter[T]) WriteToFile(data T, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()
	return w.Write(data, file)
}

// GzipWriter writes gzip-framed JSON.
type GzipWriter[T any] struct {
	// Level is the gzip compression level.
	Level int
}

// NewGzipWriter creates a gzip JSON writer with the default level.
func NewGzipWriter[T any]() *GzipWriter[T] {
	return &GzipWriter[T]{Level: gzip.DefaultCompression}
}

func (w *GzipWriter[T]) Write(data T, out io.Writer) error {
	gz, err := gzip.NewWriterLevel(out, w.Level)
	if err != nil {
		return fmt.Errorf("create gzip writer: %w", err)
	}
	if err := json.NewEncoder(gz).Encode(data); err != nil {
		gz.Close()
		return fmt.Errorf("encode data: %w", err)
	}
	return gz.Close()
}

func (w *GzipWriter[T]) WriteToFile(data T, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()
	return w.Write(data, file)
}

// ZstdWriter writes zstd-framed JSON.
type ZstdWriter[T any] struct {
	level zstd.EncoderLevel
}

// NewZstdWriter creates a zstd JSON writer with the default level.
func NewZstdWriter[T any]() *ZstdWriter[T] {
	return &ZstdWriter[T]{level: zstd.SpeedDefault}
}

func (w *ZstdWriter[T]) Write(data T, out io.Writer) error {
	zw, err := zstd.NewWriter(out, zstd.WithEncoderLevel(w.level))
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(data); err != nil {
		zw.Close()
		return fmt.Errorf("encode data: %w", err)
	}
	return zw.Close()
}

func (w *ZstdWriter[T]) WriteToFile(data T, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()
	return w.Write(data, file)
}

// ForPath selects the writer matching the file name's extension.
func ForPath[T any](path string) FileWriter[T] {
	switch compression.TypeForPath(path) {
	case compression.TypeGzip:
		return NewGzipWriter[T]()
	case compression.TypeZstd:
		return NewZstdWriter[T]()
	default:
		return NewJSONWriter[T]()
	}
}

// WriteResult reports the raw and written sizes of an output file.
type WriteResult struct {
	RawSize     int64
	WrittenSize int64
	Ratio       float64
}

// WriteFileWithStats writes data as JSON to path, compressing per the
// extension, and reports the size before and after compression.
func WriteFileWithStats[T any](data T, path string) (*WriteResult, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}

	comp, err := compression.ForPath(path, compression.LevelDefault)
	if err != nil {
		return nil, err
	}
	defer compression.Close(comp)

	out, err := comp.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("compress data: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	ratio := 0.0
	if len(raw) > 0 {
		ratio = float64(len(out)) / float64(len(raw)) * 100
	}
	return &WriteResult{
		RawSize:     int64(len(raw)),
		WrittenSize: int64(len(out)),
		Ratio:       ratio,
	}, nil
}
