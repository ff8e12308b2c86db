// Package memory is an in-process remote, used by tests and as a stand-in
// when no real backend is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/MrJamesThe3rd/oficina/internal/mirror"
)

type Remote struct {
	mu          sync.RWMutex
	collections map[mirror.Collection][]mirror.Record
	down        bool
}

func New() *Remote {
	return &Remote{collections: make(map[mirror.Collection][]mirror.Record)}
}

// SetDown makes every call fail, simulating an unreachable backend.
func (r *Remote) SetDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.down = down
}

func (r *Remote) Ping(_ context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.down {
		return fmt.Errorf("memory remote is down")
	}

	return nil
}

func (r *Remote) Replace(ctx context.Context, c mirror.Collection, records []mirror.Record) error {
	if err := r.Ping(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.collections[c] = append([]mirror.Record(nil), records...)

	return nil
}

// Page serves records sorted by the order field then key. The cursor is
// the offset of the next page.
func (r *Remote) Page(ctx context.Context, c mirror.Collection, q mirror.PageQuery) (mirror.Page, error) {
	if err := r.Ping(ctx); err != nil {
		return mirror.Page{}, err
	}

	if q.OrderBy != "" && !mirror.ValidField(q.OrderBy) {
		return mirror.Page{}, fmt.Errorf("invalid order field %q", q.OrderBy)
	}

	offset := 0

	if q.Cursor != "" {
		n, err := strconv.Atoi(q.Cursor)
		if err != nil || n < 0 {
			return mirror.Page{}, fmt.Errorf("invalid cursor %q", q.Cursor)
		}

		offset = n
	}

	r.mu.RLock()
	records := append([]mirror.Record(nil), r.collections[c]...)
	r.mu.RUnlock()

	keys := make(map[string]string, len(records))
	for _, rec := range records {
		keys[rec.Key] = mirror.RecordSortKey(rec, q.OrderBy)
	}

	sort.SliceStable(records, func(i, j int) bool {
		ki, kj := keys[records[i].Key], keys[records[j].Key]
		if ki != kj {
			return ki < kj
		}

		return records[i].Key < records[j].Key
	})

	if offset >= len(records) {
		return mirror.Page{}, nil
	}

	size := q.Size
	if size <= 0 {
		size = len(records)
	}

	end := min(offset+size, len(records))
	page := mirror.Page{Records: records[offset:end]}

	if end < len(records) {
		page.Next = strconv.Itoa(end)
	}

	return page, nil
}
