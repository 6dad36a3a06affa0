package storage

import (
	"path/filepath"
	"reflect"
	"testing"
)

type pagerDoc struct {
	Answers []answerDoc `json:"answers"`
	Index   int         `json:"index"`
	Deleted bool        `json:"deleted"`
}

type answerDoc struct {
	Content string    `json:"content"`
	Files   []fileDoc `json:"files,omitempty"`
}

type fileDoc struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "datastore.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetJSONRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	original := pagerDoc{
		Answers: []answerDoc{
			{Content: "first answer"},
			{Content: "second answer", Files: []fileDoc{
				{URL: "https://example.com/a.txt", Name: "a.txt"},
				{URL: "https://example.com/b.txt", Name: "b.txt"},
			}},
		},
		Index:   1,
		Deleted: false,
	}

	if err := s.SetJSON("pager", "msg-1", original); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	var got pagerDoc
	found, err := s.GetJSON("pager", "msg-1", &got)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !found {
		t.Fatal("record not found after write")
	}
	if !reflect.DeepEqual(original, got) {
		t.Errorf("round trip mismatch:\n want %+v\n got  %+v", original, got)
	}
}

func TestGetJSONMissingIsNotError(t *testing.T) {
	s := newTestStorage(t)

	var got pagerDoc
	found, err := s.GetJSON("pager", "nope", &got)
	if err != nil {
		t.Fatalf("GetJSON on missing record: %v", err)
	}
	if found {
		t.Error("missing record reported as found")
	}
}

func TestGetTableAndDelete(t *testing.T) {
	s := newTestStorage(t)

	for _, key := range []string{"a", "b", "c"} {
		if err := s.SetJSON("settings", key, map[string]string{"field": key}); err != nil {
			t.Fatalf("SetJSON(%s): %v", key, err)
		}
	}

	table, err := s.GetTable("settings")
	if err != nil {
		t.Fatalf("GetTable: %v", err)
	}
	if len(table) != 3 {
		t.Fatalf("expected 3 records, got %d", len(table))
	}

	if err := s.DeleteRecord("settings", "b"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	keys, err := s.Keys("settings")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"a", "c"}) {
		t.Errorf("keys after delete = %v", keys)
	}

	// Deleting a missing record is a no-op.
	if err := s.DeleteRecord("settings", "b"); err != nil {
		t.Errorf("DeleteRecord on missing record: %v", err)
	}

	s.DeleteTable("settings")
	table, err = s.GetTable("settings")
	if err != nil {
		t.Fatalf("GetTable after drop: %v", err)
	}
	if len(table) != 0 {
		t.Errorf("expected empty table after drop, got %d records", len(table))
	}
}
