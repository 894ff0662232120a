package sessionstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSQLiteStoreRecordAndSchema(t *testing.T) {
	store, err := OpenSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	defer store.Close()

	run := NewRun("example.jf", time.Now(), 42*time.Millisecond, "7\n", "")
	if err := store.RecordRun(context.Background(), run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE id = ?`, run.ID).Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row for run %s, got %d", run.ID, count)
	}
}

func TestRunSummaryIncludesStatus(t *testing.T) {
	ok := NewRun("a.jf", time.Now(), time.Second, "output", "")
	if got := ok.Summary(); !containsAll(got, "a.jf", "ok") {
		t.Fatalf("expected success summary to mention ok, got %q", got)
	}

	failed := NewRun("b.jf", time.Now(), time.Second, "", "division by zero")
	if got := failed.Summary(); !containsAll(got, "b.jf", "division by zero") {
		t.Fatalf("expected failure summary to mention the error, got %q", got)
	}
}

type fakeStore struct {
	recorded []Run
	failNext bool
	closed   bool
}

func (f *fakeStore) RecordRun(ctx context.Context, run Run) error {
	if f.failNext {
		return errors.New("boom")
	}
	f.recorded = append(f.recorded, run)
	return nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func TestMultiStoreFansOutAndCollectsFirstError(t *testing.T) {
	a := &fakeStore{failNext: true}
	b := &fakeStore{}
	multi := MultiStore{Stores: []Store{a, b}}

	run := NewRun("x.jf", time.Now(), 0, "", "")
	err := multi.RecordRun(context.Background(), run)
	if err == nil {
		t.Fatal("expected the first store's error to surface")
	}
	if len(b.recorded) != 1 {
		t.Fatalf("expected the second store to still receive the run, got %d records", len(b.recorded))
	}
}

func TestMultiStoreCloseClosesAll(t *testing.T) {
	a := &fakeStore{}
	b := &fakeStore{}
	multi := MultiStore{Stores: []Store{a, b}}
	if err := multi.Close(); err != nil {
		t.Fatalf("unexpected Close error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatal("expected both stores to be closed")
	}
}

func containsAll(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
