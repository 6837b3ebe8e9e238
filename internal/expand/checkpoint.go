// Package expand implements the hop-and-batch expansion of a seed entity
// set against the knowledge base, with checkpointed resume.
package expand

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ottersome/tripletforge/internal/model"
)

const snapshotVersion = 1

// snapshotFile is the checkpoint filename inside the checkpoint directory.
const snapshotFile = "expansion.json"

// Snapshot is the on-disk expansion state. One snapshot file holds
// everything resume needs; it is replaced atomically after every batch.
type Snapshot struct {
	Version       int                        `json:"version"`
	HopsRemaining int                        `json:"hops_remaining"`
	Frontier      []string                   `json:"frontier"`
	NextFrontier  []string                   `json:"next_frontier"`
	Processed     []string                   `json:"processed"`
	Triplets      []model.Triplet            `json:"triplets"`
	Qualifiers    map[string]json.RawMessage `json:"qualifiers,omitempty"`
}

// snapshotPath returns the checkpoint file location for a directory.
func snapshotPath(dir string) string {
	return filepath.Join(dir, snapshotFile)
}

// SnapshotExists reports whether a checkpoint is present in dir.
func SnapshotExists(dir string) bool {
	if dir == "" {
		return false
	}
	_, err := os.Stat(snapshotPath(dir))
	return err == nil
}

// SaveSnapshot writes the snapshot to dir atomically: the state is written
// to a temporary file first and renamed over the previous snapshot, so a
// crash mid-write can never leave a torn checkpoint behind.
func SaveSnapshot(dir string, snap *Snapshot) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	snap.Version = snapshotVersion
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, snapshotFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, snapshotPath(dir)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("install snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the checkpoint from dir.
func LoadSnapshot(dir string) (*Snapshot, error) {
	data, err := os.ReadFile(snapshotPath(dir))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return &snap, nil
}

// RemoveSnapshot deletes the checkpoint once an expansion has completed.
func RemoveSnapshot(dir string) error {
	if dir == "" {
		return nil
	}
	err := os.Remove(snapshotPath(dir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// snapshotFromState converts live expansion state into its on-disk form.
// Slices are sorted so consecutive snapshots of the same state are
// byte-identical.
func snapshotFromState(s *State) *Snapshot {
	snap := &Snapshot{
		HopsRemaining: s.HopsRemaining,
		Frontier:      append([]string(nil), s.Frontier...),
		NextFrontier:  append([]string(nil), s.NextFrontier...),
		Processed:     s.Processed.Slice(),
		Triplets:      s.Triplets.Sorted(),
	}
	sort.Strings(snap.Processed)

	if len(s.Qualifiers) > 0 {
		snap.Qualifiers = make(map[string]json.RawMessage, len(s.Qualifiers))
		for t, payload := range s.Qualifiers {
			snap.Qualifiers[t.Key()] = payload
		}
	}
	return snap
}

// stateFromSnapshot rebuilds live expansion state from a loaded snapshot.
func stateFromSnapshot(snap *Snapshot) (*State, error) {
	s := &State{
		HopsRemaining: snap.HopsRemaining,
		Frontier:      append([]string(nil), snap.Frontier...),
		NextFrontier:  append([]string(nil), snap.NextFrontier...),
		Processed:     make(model.IDSet, len(snap.Processed)),
		Triplets:      make(model.TripletSet, len(snap.Triplets)),
		Qualifiers:    make(model.QualifierMap, len(snap.Qualifiers)),
	}
	s.nextSeen = model.NewIDSet(s.NextFrontier...)
	for _, id := range snap.Processed {
		s.Processed.Add(id)
	}
	for _, t := range snap.Triplets {
		s.Triplets.Add(t)
	}
	for key, payload := range snap.Qualifiers {
		t, err := model.ParseTripletKey(key)
		if err != nil {
			return nil, fmt.Errorf("snapshot qualifier key %q: %w", key, err)
		}
		s.Qualifiers[t] = payload
	}
	return s, nil
}
