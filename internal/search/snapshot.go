// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litfinder/pkg/types"
)

// Snapshot is the on-disk form of a raw fetch: the request that produced it
// and the merged, uncleaned records. A saved snapshot can be fed back into
// the pipeline without querying the APIs again.
type Snapshot struct {
	Query   SnapshotQuery   `yaml:"query"`
	Records []types.Record  `yaml:"records"`
	Summary SnapshotSummary `yaml:"summary"`
}

// SnapshotQuery stores the fetch parameters.
type SnapshotQuery struct {
	Text       string             `yaml:"text"`
	MaxResults int                `yaml:"max_results"`
	Sources    []types.SourceName `yaml:"sources"`
}

// SnapshotSummary stores per-source counts and a timestamp.
type SnapshotSummary struct {
	Total     int                      `yaml:"total"`
	BySource  map[types.SourceName]int `yaml:"by_source"`
	Timestamp time.Time                `yaml:"timestamp"`
}

// WriteSnapshot saves a fetched table to a YAML file.
func WriteSnapshot(path string, query string, maxResults int, sources []types.SourceName, table types.Table) error {
	snap := Snapshot{
		Query: SnapshotQuery{
			Text:       query,
			MaxResults: maxResults,
			Sources:    sources,
		},
		Records: table.Records,
		Summary: SnapshotSummary{
			Total:     table.Len(),
			BySource:  make(map[types.SourceName]int),
			Timestamp: time.Now().UTC(),
		},
	}
	for _, r := range table.Records {
		snap.Summary.BySource[r.Source]++
	}

	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a previously saved snapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &snap, nil
}

// Table returns the snapshot records as a table. An empty snapshot is
// reported as ErrNoData, like an empty fetch.
func (s *Snapshot) Table() (types.Table, error) {
	if len(s.Records) == 0 {
		return types.Table{}, ErrNoData
	}
	records := make([]types.Record, len(s.Records))
	copy(records, s.Records)
	return types.Table{Records: records}, nil
}
