package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load decodes a snapshot document. JSON documents are accepted as well since
// they are valid YAML.
func Load(r io.Reader) (*Snapshot, error) {
	var snapshot Snapshot
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&snapshot); err != nil {
		if errors.Is(err, io.EOF) {
			return &Snapshot{}, nil
		}
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// Parse decodes a snapshot held in memory, e.g. the embedded default.
func Parse(data []byte) (*Snapshot, error) {
	return Load(bytes.NewReader(data))
}

// LoadFile reads a snapshot from disk.
func LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// DecodeStage decodes one stage document, as stored per row in Postgres.
// Breakdown key order is preserved.
func DecodeStage(data []byte) (FunnelStage, error) {
	var stage FunnelStage
	if err := yaml.Unmarshal(data, &stage); err != nil {
		return FunnelStage{}, fmt.Errorf("failed to decode stage: %w", err)
	}
	return stage, nil
}
