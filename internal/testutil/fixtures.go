// Package testutil provides fixture builders and assertions shared by
// tests across packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/resopt/internal/dex"
	"github.com/resopt/pkg/resid"
)

// HolderClass builds a class whose static initializer fills one int
// array field with the given resource identifiers.
func HolderClass(className string, ids []resid.ID) *dex.Class {
	field := className + ".ids:[I"
	return &dex.Class{
		Name: className,
		Methods: []*dex.Method{{Name: dex.StaticInitName, Code: &dex.MethodCode{Instrs: []*dex.Instruction{
			dex.NewConst(1, int64(len(ids))),
			dex.NewNewArray(2, 1),
			dex.NewFillArrayData(2, dex.EncodeResourcePayload(ids)),
			dex.NewSPutObject(2, field),
			{Op: dex.OpReturnVoid},
		}}}},
	}
}

// Program wraps classes into a single-store program.
func Program(classes ...*dex.Class) *dex.Program {
	return &dex.Program{Stores: []*dex.Store{
		{Name: "classes.dex", Classes: classes},
	}}
}

// TableJSON renders a remap table in its JSON artifact form.
func TableJSON(t *testing.T, entries []resid.Entry) []byte {
	t.Helper()

	table, err := resid.NewTable(entries)
	if err != nil {
		t.Fatalf("failed to build remap table: %v", err)
	}
	data, err := table.MarshalJSON()
	if err != nil {
		t.Fatalf("failed to marshal remap table: %v", err)
	}
	return data
}

// ShiftTable builds a table remapping each identifier to id+delta.
func ShiftTable(t *testing.T, ids []resid.ID, delta int64) *resid.Table {
	t.Helper()

	entries := make([]resid.Entry, len(ids))
	for i, id := range ids {
		entries[i] = resid.Entry{Old: id, New: resid.ID(int64(id) + delta)}
	}
	table, err := resid.NewTable(entries)
	if err != nil {
		t.Fatalf("failed to build remap table: %v", err)
	}
	return table
}

// TempDir creates a temporary directory cleaned up with the test.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "resopt-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// WriteFile writes content to a file in the given directory.
func WriteFile(t *testing.T, dir, filename string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

// ReadFile reads a file and returns its contents.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return data
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
