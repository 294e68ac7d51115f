package revision

import (
	"context"
)

// defaultPageSize is how many revisions an iterator fetches per store call.
const defaultPageSize = 100

// History returns a restartable, lazily-paged iterator over a resource's
// revisions in descending version order. The iterator is finite: it ends
// after version 1. Calling History again yields a fresh iteration from the
// latest revision.
func History(store Store, resourceID int64) *HistoryIterator {
	return HistoryWithPageSize(store, resourceID, defaultPageSize)
}

// HistoryWithPageSize is History with an explicit page size, for tests and
// callers that know their access pattern.
func HistoryWithPageSize(store Store, resourceID int64, pageSize int) *HistoryIterator {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &HistoryIterator{
		store:      store,
		resourceID: resourceID,
		pageSize:   pageSize,
		before:     0, // 0 means start from the latest
	}
}

// HistoryIterator walks revisions newest-first, one page at a time. It is not
// safe for concurrent use; create one iterator per traversal.
type HistoryIterator struct {
	store      Store
	resourceID int64
	pageSize   int

	before    int64
	buf       []*Revision
	pos       int
	exhausted bool
	err       error
}

// Next advances to the next revision. It returns false when the history is
// exhausted or an error occurred; check Err after a false return.
func (it *HistoryIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if it.pos < len(it.buf) {
		it.pos++
		return true
	}
	if it.exhausted {
		return false
	}

	page, err := it.store.Page(ctx, it.resourceID, it.before, it.pageSize)
	if err != nil {
		it.err = err
		return false
	}
	if len(page) == 0 {
		it.exhausted = true
		return false
	}
	it.buf = page
	it.pos = 1
	it.before = page[len(page)-1].Version
	if len(page) < it.pageSize {
		it.exhausted = true
	}
	return true
}

// Revision returns the revision at the iterator's current position. Only
// valid after Next returned true.
func (it *HistoryIterator) Revision() *Revision {
	return it.buf[it.pos-1]
}

// Err returns the first error encountered during iteration, if any.
func (it *HistoryIterator) Err() error {
	return it.err
}

// Collect drains the iterator into a slice. Convenience for handlers that
// return bounded histories.
func (it *HistoryIterator) Collect(ctx context.Context) ([]*Revision, error) {
	var revisions []*Revision
	for it.Next(ctx) {
		revisions = append(revisions, it.Revision())
	}
	return revisions, it.Err()
}
