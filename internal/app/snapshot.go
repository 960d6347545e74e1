package app

import (
	"sort"

	"taskboard/api/internal/store"
)

// SnapshotProject is a project plus the IDs of its tasks in board order.
type SnapshotProject struct {
	Project store.Project
	TaskIDs []string
}

// Snapshot is the normalized board shape: projects and tasks keyed by ID,
// with explicit ordering arrays. Clients index into the maps while rendering
// ProjectOrder and each project's TaskIDs.
type Snapshot struct {
	Projects     map[string]SnapshotProject
	Tasks        map[string]store.Task
	ProjectOrder []string
}

// buildSnapshot assembles a Snapshot from raw store rows. Rows are re-sorted
// by order_index (ties broken by creation time, then ID) so a corrupted or
// stale index column still yields a deterministic board. Tasks pointing at a
// project that is not part of the board are dropped.
func buildSnapshot(projects []store.Project, tasks []store.Task) Snapshot {
	sorted := make([]store.Project, len(projects))
	copy(sorted, projects)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].OrderIndex != sorted[j].OrderIndex {
			return sorted[i].OrderIndex < sorted[j].OrderIndex
		}
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	snapshot := Snapshot{
		Projects:     make(map[string]SnapshotProject, len(sorted)),
		Tasks:        make(map[string]store.Task, len(tasks)),
		ProjectOrder: make([]string, 0, len(sorted)),
	}
	for _, project := range sorted {
		snapshot.Projects[project.ID] = SnapshotProject{Project: project, TaskIDs: []string{}}
		snapshot.ProjectOrder = append(snapshot.ProjectOrder, project.ID)
	}

	sortedTasks := make([]store.Task, len(tasks))
	copy(sortedTasks, tasks)
	sort.SliceStable(sortedTasks, func(i, j int) bool {
		if sortedTasks[i].ProjectID != sortedTasks[j].ProjectID {
			return sortedTasks[i].ProjectID < sortedTasks[j].ProjectID
		}
		if sortedTasks[i].OrderIndex != sortedTasks[j].OrderIndex {
			return sortedTasks[i].OrderIndex < sortedTasks[j].OrderIndex
		}
		if !sortedTasks[i].CreatedAt.Equal(sortedTasks[j].CreatedAt) {
			return sortedTasks[i].CreatedAt.Before(sortedTasks[j].CreatedAt)
		}
		return sortedTasks[i].ID < sortedTasks[j].ID
	})

	for _, task := range sortedTasks {
		entry, ok := snapshot.Projects[task.ProjectID]
		if !ok {
			continue
		}
		entry.TaskIDs = append(entry.TaskIDs, task.ID)
		snapshot.Projects[task.ProjectID] = entry
		snapshot.Tasks[task.ID] = task
	}
	return snapshot
}
