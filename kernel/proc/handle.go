package proc

// HandleTable is a sparse table mapping small integer handles to live
// primitive instances. Alloc reuses the lowest freed slot before growing
// the table, so handle ids are recycled; the resource ids used by the
// deadlock detector are allocated separately and never reused.
type HandleTable struct {
	slots []interface{}
}

// Alloc stores v in the lowest free slot and returns its handle.
func (t *HandleTable) Alloc(v interface{}) int {
	for id, slot := range t.slots {
		if slot == nil {
			t.slots[id] = v
			return id
		}
	}
	t.slots = append(t.slots, v)
	return len(t.slots) - 1
}

// Get returns the value stored under id. The second return value is false
// for out-of-range ids and freed slots; an invalid handle is a recoverable
// lookup failure, never a fault.
func (t *HandleTable) Get(id int) (interface{}, bool) {
	if id < 0 || id >= len(t.slots) || t.slots[id] == nil {
		return nil, false
	}
	return t.slots[id], true
}

// Remove frees the slot under id so it can be reused. It reports whether
// the slot was live.
func (t *HandleTable) Remove(id int) bool {
	if id < 0 || id >= len(t.slots) || t.slots[id] == nil {
		return false
	}
	t.slots[id] = nil
	return true
}

// Len returns the number of slots ever allocated, including freed ones.
func (t *HandleTable) Len() int {
	return len(t.slots)
}
