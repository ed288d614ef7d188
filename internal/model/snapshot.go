package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// snapshotPrefix is the filename prefix for snapshot files.
const snapshotPrefix = "inspector-snapshot-"

// SnapshotStore saves captured trees to a directory so a later capture can be
// diffed against them.
type SnapshotStore struct {
	Dir string
}

// NewSnapshotStore returns a store rooted at dir, or os.TempDir() when dir
// is empty.
func NewSnapshotStore(dir string) *SnapshotStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &SnapshotStore{Dir: dir}
}

func (s *SnapshotStore) path(label string, ts int64) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s%s-%d.json", snapshotPrefix, safeLabel(label), ts))
}

func safeLabel(label string) string {
	r := strings.NewReplacer("/", "_", " ", "_", ":", "_")
	return r.Replace(label)
}

// Save writes the tree under label and ts.
func (s *SnapshotStore) Save(label string, ts int64, tree *Tree) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	return os.WriteFile(s.path(label, ts), data, 0o644)
}

// Load reads a previously saved snapshot.
func (s *SnapshotStore) Load(label string, ts int64) (*Tree, error) {
	data, err := os.ReadFile(s.path(label, ts))
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &tree, nil
}

// Clean removes snapshots for label older than maxAge.
func (s *SnapshotStore) Clean(label string, maxAge time.Duration) {
	prefix := snapshotPrefix + safeLabel(label) + "-"

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.Dir, entry.Name()))
		}
	}
}
