package storage

import (
	"path"
	"strings"
)

// Artifact key layout. A job references its dump and remap table by
// key; the rewritten dump and the report are stored next to them.
const (
	dumpPrefix   = "dumps/"
	outputPrefix = "outputs/"
	reportPrefix = "reports/"
)

// OutputKeyFor derives the storage key for the rewritten dump from the
// original dump key. The compression extension is preserved so the
// output round-trips through the same codec.
func OutputKeyFor(dumpKey string) string {
	name := strings.TrimPrefix(dumpKey, dumpPrefix)
	return outputPrefix + name
}

// ReportKeyFor derives the storage key for a job's pass report.
func ReportKeyFor(jobUUID string) string {
	return reportPrefix + jobUUID + ".json"
}

// BaseName returns the file name part of a storage key.
func BaseName(key string) string {
	return path.Base(key)
}
