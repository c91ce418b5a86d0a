package dex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/resopt/pkg/compression"
)

// Program dumps are the interchange format between the DEX frontend
// and this pass: a JSON serialization of Program, optionally gzip or
// zstd compressed depending on the file extension (.json, .json.gz,
// .json.zst).

// LoadProgram reads a program dump from path.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program dump: %w", err)
	}
	return UnmarshalProgram(data)
}

// UnmarshalProgram decodes dump bytes, decompressing by magic bytes so
// piped input works without a file name.
func UnmarshalProgram(data []byte) (*Program, error) {
	plain, err := compression.AutoDecompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompressing program dump: %w", err)
	}
	var p Program
	if err := json.Unmarshal(plain, &p); err != nil {
		return nil, fmt.Errorf("parsing program dump: %w", err)
	}
	return &p, nil
}

// SaveProgram writes a program dump to path, compressed per the
// extension.
func SaveProgram(p *Program, path string) error {
	plain, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("serializing program dump: %w", err)
	}

	c, err := compression.ForPath(path, compression.LevelDefault)
	if err != nil {
		return fmt.Errorf("selecting dump compressor: %w", err)
	}
	defer compression.Close(c)

	data, err := c.Compress(plain)
	if err != nil {
		return fmt.Errorf("compressing program dump: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating dump directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing program dump: %w", err)
	}
	return nil
}
