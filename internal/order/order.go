// Package order maintains dense, zero-based orderings for projects within an
// organization and tasks within a project. Every operation returns the new ID
// list plus the minimal set of (id, index) writes needed to persist it: a full
// re-index is computed, but positions that did not change are not emitted.
//
// Dense re-indexing trades write amplification for simplicity: after any
// single move the persisted indexes are again a permutation of [0, n).
package order

// Write is one persisted (entity, newIndex) pair.
type Write struct {
	ID    string
	Index int
}

// Move removes id from its current position and inserts it at the clamped
// target index. The boolean is false when the move is a no-op (id absent, or
// source equals destination): callers must then skip persistence and the
// snapshot refresh entirely.
func Move(ids []string, id string, to int) ([]string, []Write, bool) {
	from := indexOf(ids, id)
	if from < 0 {
		return ids, nil, false
	}

	without := make([]string, 0, len(ids)-1)
	without = append(without, ids[:from]...)
	without = append(without, ids[from+1:]...)

	to = clamp(to, len(without))
	if to == from {
		return ids, nil, false
	}

	next := insertAt(without, id, to)
	return next, diff(ids, next), true
}

// Remove drops id from the list and re-indexes the remainder, restoring
// density after a delete.
func Remove(ids []string, id string) ([]string, []Write) {
	from := indexOf(ids, id)
	if from < 0 {
		return ids, nil
	}
	next := make([]string, 0, len(ids)-1)
	next = append(next, ids[:from]...)
	next = append(next, ids[from+1:]...)
	return next, diff(ids, next)
}

// Insert places id at the clamped index. The inserted entity always appears
// in the write set.
func Insert(ids []string, id string, at int) ([]string, []Write) {
	at = clamp(at, len(ids))
	next := insertAt(ids, id, at)
	return next, diff(ids, next)
}

// Reindex emits writes for every element whose position disagrees with its
// stored index. Used to repair gaps left by partial failures.
func Reindex(ids []string, stored map[string]int) []Write {
	var writes []Write
	for i, id := range ids {
		if current, ok := stored[id]; !ok || current != i {
			writes = append(writes, Write{ID: id, Index: i})
		}
	}
	return writes
}

func indexOf(ids []string, id string) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}

// clamp bounds a target index to [0, length]; length is the append position.
func clamp(i, length int) int {
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func insertAt(ids []string, id string, at int) []string {
	next := make([]string, 0, len(ids)+1)
	next = append(next, ids[:at]...)
	next = append(next, id)
	next = append(next, ids[at:]...)
	return next
}

// diff compares new positions against old ones and emits only changes. IDs
// absent from the old list are always emitted.
func diff(old, next []string) []Write {
	oldIndex := make(map[string]int, len(old))
	for i, id := range old {
		oldIndex[id] = i
	}
	var writes []Write
	for i, id := range next {
		if previous, ok := oldIndex[id]; !ok || previous != i {
			writes = append(writes, Write{ID: id, Index: i})
		}
	}
	return writes
}
