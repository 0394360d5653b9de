// Package journal persists order outcomes to daily Parquet files for
// end-of-day reconciliation and audit.
package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// Entry is the Parquet schema for one journalled order outcome.
type Entry struct {
	ID        string `parquet:"id"`
	Timestamp int64  `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Principal string `parquet:"principal"`
	Strategy  string `parquet:"strategy"`
	Symbol    string `parquet:"symbol"`
	Exchange  string `parquet:"exchange"`
	Product   string `parquet:"product"`
	Side      string `parquet:"side"`
	Kind      string `parquet:"kind"`
	Quantity  int64  `parquet:"quantity"`
	Price     string `parquet:"price"`
	OrderID   string `parquet:"order_id"`
	Outcome   string `parquet:"outcome"` // submitted | rejected | failed
	Message   string `parquet:"message"`
}

// Outcome values for Entry.Outcome.
const (
	OutcomeSubmitted = "submitted"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Writer appends order outcomes to one Parquet file per calendar day at:
//
//	<DataDir>/orders/<YYYY-MM-DD>.parquet
//
// Writes merge into the existing day file, deduplicating by entry ID, so a
// replayed record does not produce a duplicate row.
type Writer struct {
	DataDir string

	mu sync.Mutex
}

// New creates a Writer rooted at the given data directory.
func New(dataDir string) *Writer {
	return &Writer{DataDir: dataDir}
}

// Record journals one order outcome. A missing ID is assigned, a missing
// timestamp is stamped with the current time.
func (w *Writer) Record(_ context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.dayPath(time.UnixMilli(entry.Timestamp))
	existing, _ := parquet.ReadFile[Entry](path)
	merged := mergeEntries(existing, []Entry{entry})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, merged); err != nil {
		return fmt.Errorf("journalling order for %s: %w", entry.Principal, err)
	}
	return nil
}

// ReadDay returns all journalled entries for one calendar day, sorted by
// timestamp. A day with no file yields an empty result, not an error.
func (w *Writer) ReadDay(_ context.Context, day time.Time) ([]Entry, error) {
	entries, err := parquet.ReadFile[Entry](w.dayPath(day))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading journal for %s: %w", day.Format("2006-01-02"), err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})
	return entries, nil
}

// ReadRange returns journalled entries across a span of days, inclusive.
func (w *Writer) ReadRange(ctx context.Context, start, end time.Time) ([]Entry, error) {
	var all []Entry
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		entries, err := w.ReadDay(ctx, d)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// dayPath returns the journal file path for the given day.
// Layout: <dataDir>/orders/<YYYY-MM-DD>.parquet
func (w *Writer) dayPath(t time.Time) string {
	return filepath.Join(w.DataDir, "orders", t.Format("2006-01-02")+".parquet")
}

// mergeEntries deduplicates entries by ID, preferring incoming over existing.
// Results are sorted by timestamp.
func mergeEntries(existing, incoming []Entry) []Entry {
	seen := make(map[string]Entry, len(existing)+len(incoming))
	for _, e := range existing {
		seen[e.ID] = e
	}
	for _, e := range incoming {
		seen[e.ID] = e
	}

	merged := make([]Entry, 0, len(seen))
	for _, e := range seen {
		merged = append(merged, e)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
