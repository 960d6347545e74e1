package order

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
)

func TestMoveToFront(t *testing.T) {
	// [P1, P2], move P2 to index 0 -> [P2, P1], both rows rewritten.
	next, writes, changed := Move([]string{"P1", "P2"}, "P2", 0)
	if !changed {
		t.Fatal("expected a change")
	}
	if !reflect.DeepEqual(next, []string{"P2", "P1"}) {
		t.Errorf("order = %v", next)
	}
	wantWrites := []Write{{ID: "P2", Index: 0}, {ID: "P1", Index: 1}}
	if !reflect.DeepEqual(writes, wantWrites) {
		t.Errorf("writes = %v, want %v", writes, wantWrites)
	}
}

func TestMoveToEnd(t *testing.T) {
	// [T1, T2, T3], move T1 to index 2 -> [T2, T3, T1].
	next, writes, changed := Move([]string{"T1", "T2", "T3"}, "T1", 2)
	if !changed {
		t.Fatal("expected a change")
	}
	if !reflect.DeepEqual(next, []string{"T2", "T3", "T1"}) {
		t.Errorf("order = %v", next)
	}
	if len(writes) != 3 {
		t.Errorf("expected all three rows rewritten, got %v", writes)
	}
}

func TestMoveNoOp(t *testing.T) {
	ids := []string{"T1", "T2", "T3"}
	next, writes, changed := Move(ids, "T2", 1)
	if changed {
		t.Error("same-index move must be a no-op")
	}
	if writes != nil {
		t.Errorf("no-op move must emit no writes, got %v", writes)
	}
	if !reflect.DeepEqual(next, ids) {
		t.Errorf("order changed on no-op: %v", next)
	}
}

func TestMoveUnknownID(t *testing.T) {
	_, writes, changed := Move([]string{"T1"}, "T9", 0)
	if changed || writes != nil {
		t.Error("moving an unknown id must be a no-op")
	}
}

func TestMoveClampsTarget(t *testing.T) {
	next, _, changed := Move([]string{"T1", "T2", "T3"}, "T1", 99)
	if !changed {
		t.Fatal("expected a change")
	}
	if next[len(next)-1] != "T1" {
		t.Errorf("overshooting index should clamp to the end, got %v", next)
	}

	next, _, changed = Move([]string{"T1", "T2", "T3"}, "T3", -4)
	if !changed || next[0] != "T3" {
		t.Errorf("negative index should clamp to the front, got %v", next)
	}
}

func TestMoveEmitsOnlyChangedRows(t *testing.T) {
	// Moving T4 between T1 and T2 leaves T1 (index 0) untouched.
	_, writes, _ := Move([]string{"T1", "T2", "T3", "T4"}, "T4", 1)
	for _, w := range writes {
		if w.ID == "T1" {
			t.Errorf("T1 did not change position, writes = %v", writes)
		}
	}
	if len(writes) != 3 {
		t.Errorf("expected 3 writes, got %v", writes)
	}
}

func TestRemoveReindexes(t *testing.T) {
	next, writes := Remove([]string{"T1", "T2", "T3"}, "T1")
	if !reflect.DeepEqual(next, []string{"T2", "T3"}) {
		t.Errorf("order = %v", next)
	}
	wantWrites := []Write{{ID: "T2", Index: 0}, {ID: "T3", Index: 1}}
	if !reflect.DeepEqual(writes, wantWrites) {
		t.Errorf("writes = %v, want %v", writes, wantWrites)
	}
}

func TestRemoveLastElementNoWrites(t *testing.T) {
	_, writes := Remove([]string{"T1", "T2", "T3"}, "T3")
	if writes != nil {
		t.Errorf("removing the tail shifts nothing, got %v", writes)
	}
}

func TestInsertIntoEmpty(t *testing.T) {
	next, writes := Insert(nil, "T1", 0)
	if !reflect.DeepEqual(next, []string{"T1"}) {
		t.Errorf("order = %v", next)
	}
	if !reflect.DeepEqual(writes, []Write{{ID: "T1", Index: 0}}) {
		t.Errorf("writes = %v", writes)
	}
}

func TestInsertShiftsFollowers(t *testing.T) {
	next, writes := Insert([]string{"T1", "T2"}, "T3", 1)
	if !reflect.DeepEqual(next, []string{"T1", "T3", "T2"}) {
		t.Errorf("order = %v", next)
	}
	wantWrites := []Write{{ID: "T3", Index: 1}, {ID: "T2", Index: 2}}
	if !reflect.DeepEqual(writes, wantWrites) {
		t.Errorf("writes = %v, want %v", writes, wantWrites)
	}
}

func TestReindexRepairsGaps(t *testing.T) {
	stored := map[string]int{"T1": 0, "T2": 3, "T3": 7}
	writes := Reindex([]string{"T1", "T2", "T3"}, stored)
	wantWrites := []Write{{ID: "T2", Index: 1}, {ID: "T3", Index: 2}}
	if !reflect.DeepEqual(writes, wantWrites) {
		t.Errorf("writes = %v, want %v", writes, wantWrites)
	}
}

// After any sequence of moves, removes, and inserts the implied indexes stay a
// dense permutation of [0, n).
func TestDensePermutationUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []string{"a", "b", "c", "d", "e"}
	nextID := 0

	for step := 0; step < 500; step++ {
		switch op := rng.Intn(3); {
		case op == 0 && len(ids) > 0:
			target := ids[rng.Intn(len(ids))]
			ids, _, _ = Move(ids, target, rng.Intn(len(ids)+2)-1)
		case op == 1 && len(ids) > 1:
			ids, _ = Remove(ids, ids[rng.Intn(len(ids))])
		default:
			ids, _ = Insert(ids, fmt.Sprintf("n%d", nextID), rng.Intn(len(ids)+2))
			nextID++
		}

		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				t.Fatalf("step %d: duplicate id %s in %v", step, id, ids)
			}
			seen[id] = true
		}
	}
}
