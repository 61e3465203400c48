package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"mnemosyne/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenPath(filepath.Join(t.TempDir(), "content.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInsertAssignsIncreasingIDs(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first, err := s.Insert(ctx, store.Content{Image: "aW1n", Description: "a desk", Timestamp: "2024-05-01 10:00:00", DeviceID: "192.168.1.20"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	second, err := s.Insert(ctx, store.Content{Image: "aW1n", Description: "a chair", Timestamp: "2024-05-01 10:01:00", DeviceID: "192.168.1.20"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if second <= first {
		t.Fatalf("expected increasing ids, got %d then %d", first, second)
	}

	got, err := s.GetByID(ctx, first)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Description != "a desk" || got.DeviceID != "192.168.1.20" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestInsertFillsBlankTimestamp(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, store.Content{Image: "aW1n", Description: "kitchen", DeviceID: "dev"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := s.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Timestamp == "" {
		t.Fatal("expected timestamp to be assigned")
	}
	if _, err := store.ParseTimestamp(got.Timestamp); err != nil {
		t.Fatalf("timestamp not in stored layout: %v", err)
	}
}

func TestListRangeIsInclusive(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	stamps := []string{
		"2024-05-01 09:59:59",
		"2024-05-01 10:00:00",
		"2024-05-01 10:30:00",
		"2024-05-01 11:00:00",
		"2024-05-01 11:00:01",
	}
	for i, ts := range stamps {
		if _, err := s.Insert(ctx, store.Content{Image: "aW1n", Description: "capture", Timestamp: ts, DeviceID: "dev"}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	rows, err := s.ListRange(ctx, "2024-05-01 10:00:00", "2024-05-01 11:00:00")
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows in range, got %d", len(rows))
	}
	if rows[0].Timestamp != "2024-05-01 10:00:00" || rows[2].Timestamp != "2024-05-01 11:00:00" {
		t.Fatalf("range boundaries not inclusive: %+v", rows)
	}
}

func TestListEntriesOrdersChronologically(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, store.Content{Image: "aW1n", Description: "later", Timestamp: "2024-05-01 12:00:00", DeviceID: "dev"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Insert(ctx, store.Content{Image: "aW1n", Description: "earlier", Timestamp: "2024-05-01 08:00:00", DeviceID: "dev"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	entries, err := s.ListEntries(ctx, "2024-05-01 00:00:00", "2024-05-01 23:59:59")
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Description != "earlier" || entries[1].Description != "later" {
		t.Fatalf("entries out of order: %+v", entries)
	}
}

func TestDeleteByIDsIgnoresUnknown(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, store.Content{Image: "aW1n", Description: "doomed", Timestamp: "2024-05-01 10:00:00", DeviceID: "dev"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	removed, err := s.DeleteByIDs(ctx, []int64{id, 9999})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 row removed, got %d", removed)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty table, got %d rows", count)
	}

	removed, err = s.DeleteByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("delete empty: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no rows removed, got %d", removed)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	s := openStore(t)

	got, err := s.GetByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing row, got %+v", got)
	}
}
