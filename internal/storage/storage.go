// /internal/storage/storage.go
package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/keshon/datastore"
)

// Storage is a table-scoped JSON document store on top of the datastore
// file engine. Each table lives under one datastore key as a map of
// key -> raw document; tables are created on demand. Documents are opaque,
// callers own their schema.
type Storage struct {
	ds *datastore.DataStore
	mu sync.Mutex
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// readTable loads a whole table. The datastore hands values back as generic
// JSON shapes after a reload, so round-trip through encoding/json regardless
// of whether the value was added this run or loaded from disk.
func (s *Storage) readTable(table string) (map[string]json.RawMessage, error) {
	raw, exists := s.ds.Get(table)
	if !exists {
		return map[string]json.RawMessage{}, nil
	}

	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("error marshalling table '%s': %w", table, err)
	}

	records := map[string]json.RawMessage{}
	if err := json.Unmarshal(buf, &records); err != nil {
		return nil, fmt.Errorf("error unmarshalling table '%s': %w", table, err)
	}
	return records, nil
}

// GetJSON reads one document into out. The second return reports whether the
// record exists; a miss is not an error.
func (s *Storage) GetJSON(table, key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readTable(table)
	if err != nil {
		return false, err
	}

	doc, ok := records[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return false, fmt.Errorf("error unmarshalling record '%s/%s': %w", table, key, err)
	}
	return true, nil
}

// SetJSON writes one document, creating the table if needed.
func (s *Storage) SetJSON(table, key string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readTable(table)
	if err != nil {
		return err
	}

	buf, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshalling record '%s/%s': %w", table, key, err)
	}

	records[key] = buf
	s.ds.Add(table, records)
	return nil
}

// GetTable returns every document of a table keyed by record key.
// A missing table is an empty one.
func (s *Storage) GetTable(table string) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readTable(table)
}

// Keys returns the record keys of a table in sorted order.
func (s *Storage) Keys(table string) ([]string, error) {
	records, err := s.GetTable(table)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// DeleteRecord removes one document. Deleting a missing record is a no-op.
func (s *Storage) DeleteRecord(table, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readTable(table)
	if err != nil {
		return err
	}
	if _, ok := records[key]; !ok {
		return nil
	}
	delete(records, key)
	s.ds.Add(table, records)
	return nil
}

// DeleteTable drops a whole table.
func (s *Storage) DeleteTable(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds.Delete(table)
}
