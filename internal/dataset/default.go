package dataset

import _ "embed"

//go:embed default_snapshot.yaml
var defaultSnapshot []byte

// Default parses the snapshot bundled with the binary.
func Default() (*Snapshot, error) {
	return Parse(defaultSnapshot)
}

// DefaultBytes exposes the raw bundled document, e.g. for database imports.
func DefaultBytes() []byte {
	return defaultSnapshot
}
