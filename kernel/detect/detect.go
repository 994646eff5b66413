// Package detect implements the resource-accounting tables and the Banker's
// algorithm safety check behind the kernel's deadlock detector.
//
// Tables are kept per process. Resource ids index columns, thread ids index
// rows; both grow on first use and are never shrunk. Entries are signed: the
// acquisition protocol commits an allocation before the acquiring task
// actually holds the primitive, so Available can go transiently negative
// while a lock handoff is pending. Signed arithmetic keeps the conservation
// invariant (Available[r] + sum of Allocation[*][r] == units granted for r)
// intact where unsigned counters would underflow.
package detect

// Tables holds the Banker's algorithm bookkeeping for one process.
type Tables struct {
	// Available tracks the free units of each resource.
	Available []int64

	// Allocation tracks the units of each resource held per thread.
	Allocation [][]int64

	// Need tracks the units a thread is requesting per resource. Outside
	// a request in flight every entry is zero.
	Need [][]int64
}

// Grant introduces units of resource res into the process. Called when a
// primitive is created: one unit for a mutex, the initial count for a
// semaphore.
func (t *Tables) Grant(res int, units int64) {
	growRow(&t.Available, res)
	t.Available[res] += units
}

// Revoke withdraws units of resource res from the process. Called when a
// primitive slot is destroyed.
func (t *Tables) Revoke(res int, units int64) {
	growRow(&t.Available, res)
	t.Available[res] -= units
}

// AddNeed registers a hypothetical pending request for one unit of res by
// thread tid.
func (t *Tables) AddNeed(tid, res int) {
	growCell(&t.Need, tid, res)
	t.Need[tid][res]++
}

// RemoveNeed reverts a pending request registered by AddNeed.
func (t *Tables) RemoveNeed(tid, res int) {
	growCell(&t.Need, tid, res)
	t.Need[tid][res]--
}

// Allocate commits a checked request: one unit of res moves from the free
// pool to thread tid and the pending request is cleared.
func (t *Tables) Allocate(tid, res int) {
	growRow(&t.Available, res)
	growCell(&t.Allocation, tid, res)
	growCell(&t.Need, tid, res)

	t.Available[res]--
	t.Allocation[tid][res]++
	t.Need[tid][res]--
}

// Release returns one unit of res held by thread tid to the free pool.
func (t *Tables) Release(tid, res int) {
	growRow(&t.Available, res)
	growCell(&t.Allocation, tid, res)

	t.Available[res]++
	t.Allocation[tid][res]--
}

// Safe runs the Banker's algorithm safety simulation over the current table
// contents and reports whether every thread can run to completion in some
// order. taskCount is the number of thread slots in the owning process;
// threads without a recorded row are treated as holding and needing
// nothing. The check is a pure function over a single snapshot; it does not
// mutate the tables.
func (t *Tables) Safe(taskCount int) bool {
	numTasks := taskCount
	if len(t.Allocation) > numTasks {
		numTasks = len(t.Allocation)
	}
	if len(t.Need) > numTasks {
		numTasks = len(t.Need)
	}

	work := make([]int64, len(t.Available))
	copy(work, t.Available)

	// Threads that hold nothing cannot be part of a circular wait.
	finish := make([]bool, numTasks)
	for tid := 0; tid < numTasks; tid++ {
		finish[tid] = rowIsZero(rowAt(t.Allocation, tid))
	}

	for {
		found := false
		for tid := 0; tid < numTasks; tid++ {
			if finish[tid] || !rowLessEq(rowAt(t.Need, tid), work) {
				continue
			}

			for res, units := range rowAt(t.Allocation, tid) {
				if res < len(work) {
					work[res] += units
				}
			}
			finish[tid] = true
			found = true
		}

		if !found {
			break
		}
	}

	for _, done := range finish {
		if !done {
			return false
		}
	}
	return true
}

// growRow extends row so index idx is valid.
func growRow(row *[]int64, idx int) {
	for len(*row) <= idx {
		*row = append(*row, 0)
	}
}

// growCell extends table so cell [tid][res] is valid.
func growCell(table *[][]int64, tid, res int) {
	for len(*table) <= tid {
		*table = append(*table, nil)
	}
	growRow(&(*table)[tid], res)
}

// rowAt returns the tid-th row of table or nil if no row is recorded.
func rowAt(table [][]int64, tid int) []int64 {
	if tid >= len(table) {
		return nil
	}
	return table[tid]
}

func rowIsZero(row []int64) bool {
	for _, units := range row {
		if units != 0 {
			return false
		}
	}
	return true
}

// rowLessEq reports whether row[r] <= work[r] elementwise. Entries past the
// end of either slice count as zero.
func rowLessEq(row, work []int64) bool {
	for res, units := range row {
		var free int64
		if res < len(work) {
			free = work[res]
		}
		if units > free {
			return false
		}
	}
	return true
}
