package requestlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"sla-tracker/internal/stats"
)

// Store provides thread-safe storage for fetched request records, partitioned by source.
type Store struct {
	mu   sync.RWMutex
	logs map[string][]stats.Request
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{
		logs: make(map[string][]stats.Request),
	}
}

// Upsert merges records into a source. A record whose ID is already known
// replaces the stored copy, since the API reports the latest state.
// The log stays sorted by request date, then ID.
func (s *Store) Upsert(sourceID string, records []stats.Request) (added, updated int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.logs[sourceID]
	index := make(map[string]int, len(entries))
	for i, r := range entries {
		index[r.ID] = i
	}

	for _, r := range records {
		if i, ok := index[r.ID]; ok {
			entries[i] = r
			updated++
			continue
		}
		index[r.ID] = len(entries)
		entries = append(entries, r)
		added++
	}

	if added == 0 && updated == 0 {
		return 0, 0
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].RequestDate.Equal(entries[j].RequestDate) {
			return entries[i].RequestDate.Before(entries[j].RequestDate)
		}
		return entries[i].ID < entries[j].ID
	})

	s.logs[sourceID] = entries
	return added, updated
}

// Records returns a copy of every record for a source.
func (s *Store) Records(sourceID string) []stats.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]stats.Request(nil), s.logs[sourceID]...)
}

// InRange returns a copy of the records whose request date falls within
// [start, end]. A zero bound leaves that side open.
func (s *Store) InRange(sourceID string, start, end time.Time) []stats.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []stats.Request
	for _, r := range s.logs[sourceID] {
		if !start.IsZero() && r.RequestDate.Before(start) {
			continue
		}
		if !end.IsZero() && r.RequestDate.After(end) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// Count returns the number of records in the store for a source.
func (s *Store) Count(sourceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[sourceID])
}

// Latest returns the most recent request date for a source.
func (s *Store) Latest(sourceID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[sourceID]
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[len(entries)-1].RequestDate
}

// Clear drops every record for a source.
func (s *Store) Clear(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, sourceID)
}

// SnapshotPath is where a source is persisted inside cacheDir.
func SnapshotPath(cacheDir, sourceID string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("%s.jsonl", sourceID))
}

// Load reads records from a JSONL snapshot for the given source.
// A missing snapshot is not an error.
func (s *Store) Load(cacheDir, sourceID string) error {
	records, err := ReadSnapshot(SnapshotPath(cacheDir, sourceID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	log.Info().Str("source", sourceID).Int("count", len(records)).Msg("Loaded requests from snapshot")
	s.Upsert(sourceID, records)
	return nil
}

// ReadSnapshot decodes a JSONL snapshot file. Invalid lines are skipped.
func ReadSnapshot(path string) ([]stats.Request, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	var records []stats.Request
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var r stats.Request
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			log.Warn().Err(err).Str("path", path).Int("line", line).Msg("Skipping invalid JSON line in snapshot")
			continue
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading snapshot: %w", err)
	}
	return records, nil
}

// Save persists a source to a JSONL snapshot using an atomic rename.
func (s *Store) Save(cacheDir, sourceID string) error {
	s.mu.RLock()
	entries := append([]stats.Request(nil), s.logs[sourceID]...)
	s.mu.RUnlock()

	if len(entries) == 0 {
		return nil
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	if err := WriteSnapshot(SnapshotPath(cacheDir, sourceID), entries); err != nil {
		return err
	}

	log.Info().Str("source", sourceID).Int("count", len(entries)).Msg("Request snapshot saved")
	return nil
}

// WriteSnapshot writes records as JSONL to path via a temp file and rename.
func WriteSnapshot(path string, records []stats.Request) error {
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode request %s: %w", r.ID, err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}
	return nil
}

// DeleteSnapshot removes the persisted snapshot for a source.
func DeleteSnapshot(cacheDir, sourceID string) error {
	err := os.Remove(SnapshotPath(cacheDir, sourceID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
