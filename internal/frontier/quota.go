package frontier

import "sync/atomic"

// Quota tracks saved records against the wanted count.
//
// Saving is a two-step claim: Reserve takes a slot only while
// reserved < wanted, in a single compare-and-swap, and Commit or Cancel
// settles it. Saved never decreases, so once Met reports true it stays
// true.
type Quota struct {
	wanted   int64
	maxPages int

	reserved atomic.Int64
	saved    atomic.Int64
}

// NewQuota creates a Quota. saved pre-seeds the counter from a previous run.
func NewQuota(wanted int64, maxPages int, saved int64) *Quota {
	if wanted < 1 {
		wanted = 1
	}
	if maxPages < 1 {
		maxPages = 1
	}
	if saved < 0 {
		saved = 0
	}
	q := &Quota{wanted: wanted, maxPages: maxPages}
	q.saved.Store(saved)
	q.reserved.Store(saved)
	return q
}

// Wanted returns the number of records wanted.
func (q *Quota) Wanted() int64 {
	return q.wanted
}

// MaxPages returns the highest LIST page number.
func (q *Quota) MaxPages() int {
	return q.maxPages
}

// Saved returns the number of records saved.
func (q *Quota) Saved() int64 {
	return q.saved.Load()
}

// Met reports whether the wanted number of records has been saved.
func (q *Quota) Met() bool {
	return q.saved.Load() >= q.wanted
}

// Remaining returns how many more records are wanted, never negative.
func (q *Quota) Remaining() int64 {
	return max(q.wanted-q.saved.Load(), 0)
}

// ShouldPaginate reports whether a LIST page may enqueue its successor.
func (q *Quota) ShouldPaginate(pageNumber int) bool {
	return !q.Met() && pageNumber < q.maxPages
}

// Reserve claims one slot. It returns false when every slot is taken.
func (q *Quota) Reserve() bool {
	return q.ReserveUpTo(1) == 1
}

// ReserveUpTo claims up to n slots at once and returns how many it got.
func (q *Quota) ReserveUpTo(n int64) int64 {
	if n <= 0 {
		return 0
	}
	for {
		cur := q.reserved.Load()
		free := q.wanted - cur
		if free <= 0 {
			return 0
		}
		take := min(n, free)
		if q.reserved.CompareAndSwap(cur, cur+take) {
			return take
		}
	}
}

// Commit marks n reserved slots as saved and returns the new saved count.
func (q *Quota) Commit(n int64) int64 {
	return q.saved.Add(n)
}

// Cancel gives back n reserved slots that were not saved.
func (q *Quota) Cancel(n int64) {
	q.reserved.Add(-n)
}
