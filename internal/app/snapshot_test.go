package app

import (
	"testing"
	"time"

	"taskboard/api/internal/store"
)

func TestBuildSnapshot(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("re-sorts corrupted indexes deterministically", func(t *testing.T) {
		projects := []store.Project{
			{ID: "p-c", OrderIndex: 7, CreatedAt: base.Add(2 * time.Hour)},
			{ID: "p-a", OrderIndex: 3, CreatedAt: base},
			{ID: "p-b", OrderIndex: 3, CreatedAt: base.Add(time.Hour)},
		}
		snapshot := buildSnapshot(projects, nil)
		if !equalIDs(snapshot.ProjectOrder, []string{"p-a", "p-b", "p-c"}) {
			t.Fatalf("unexpected project order %v", snapshot.ProjectOrder)
		}
	})

	t.Run("ties on index and time fall back to id", func(t *testing.T) {
		projects := []store.Project{
			{ID: "p-b", OrderIndex: 0, CreatedAt: base},
			{ID: "p-a", OrderIndex: 0, CreatedAt: base},
		}
		snapshot := buildSnapshot(projects, nil)
		if !equalIDs(snapshot.ProjectOrder, []string{"p-a", "p-b"}) {
			t.Fatalf("unexpected project order %v", snapshot.ProjectOrder)
		}
	})

	t.Run("drops tasks whose project is missing", func(t *testing.T) {
		projects := []store.Project{{ID: "p-a", OrderIndex: 0, CreatedAt: base}}
		tasks := []store.Task{
			{ID: "t-1", ProjectID: "p-a", OrderIndex: 0, CreatedAt: base},
			{ID: "t-orphan", ProjectID: "p-gone", OrderIndex: 0, CreatedAt: base},
		}
		snapshot := buildSnapshot(projects, tasks)
		if _, ok := snapshot.Tasks["t-orphan"]; ok {
			t.Fatal("orphan task must not appear in the snapshot")
		}
		if !equalIDs(snapshot.Projects["p-a"].TaskIDs, []string{"t-1"}) {
			t.Fatalf("unexpected task ids %v", snapshot.Projects["p-a"].TaskIDs)
		}
	})

	t.Run("empty columns carry a non-nil task list", func(t *testing.T) {
		projects := []store.Project{{ID: "p-a", OrderIndex: 0, CreatedAt: base}}
		snapshot := buildSnapshot(projects, nil)
		if snapshot.Projects["p-a"].TaskIDs == nil {
			t.Fatal("TaskIDs must serialize as [] not null")
		}
	})
}
