package search

import (
	"context"
	"log"

	"taskboard/api/internal/store"
)

// Service is the facade that tries Meilisearch first and falls back to the
// Postgres searcher. It accepts store rows and flattens them into index
// records.
type Service struct {
	meili *Meili
	pg    *PgSearch
}

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured.
func NewService(meili *Meili, pg *PgSearch) *Service {
	return &Service{meili: meili, pg: pg}
}

// Search tries Meilisearch if healthy, otherwise falls back to Postgres.
func (s *Service) Search(ctx context.Context, organizationID, query string, limit int) (Results, error) {
	q := Query{
		Text:           query,
		OrganizationID: organizationID,
		Limit:          limit,
	}
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Results{Results: nonNil(results), Total: total, Query: query}, nil
		}
		log.Printf("search: meilisearch error, falling back to postgres: %v", err)
	}

	results, total, err := s.pg.Search(q)
	if err != nil {
		return Results{}, err
	}
	return Results{Results: nonNil(results), Total: total, Query: query}, nil
}

func (s *Service) IndexProject(ctx context.Context, project store.Project) error {
	if s.meili == nil || !s.meili.Healthy() {
		return nil
	}
	return s.meili.IndexProject(ProjectRecord{
		ID:             project.ID,
		OrganizationID: project.OrganizationID,
		Title:          project.Title,
	})
}

func (s *Service) RemoveProject(ctx context.Context, projectID string) error {
	if s.meili == nil || !s.meili.Healthy() {
		return nil
	}
	return s.meili.DeleteProject(projectID)
}

func (s *Service) IndexTask(ctx context.Context, organizationID string, task store.Task) error {
	if s.meili == nil || !s.meili.Healthy() {
		return nil
	}
	return s.meili.IndexTask(TaskRecord{
		ID:             task.ID,
		OrganizationID: organizationID,
		ProjectID:      task.ProjectID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		Tags:           task.Tags,
	})
}

func (s *Service) RemoveTask(ctx context.Context, taskID string) error {
	if s.meili == nil || !s.meili.Healthy() {
		return nil
	}
	return s.meili.DeleteTask(taskID)
}

// ReindexAllFromPG pushes every project and task from Postgres into
// Meilisearch. Called once at startup when Meilisearch is healthy.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pg == nil {
		return
	}
	projects, tasks, err := s.pg.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if err := s.meili.IndexProjects(projects); err != nil {
		log.Printf("search: reindex projects: %v", err)
	}
	if err := s.meili.IndexTasks(tasks); err != nil {
		log.Printf("search: reindex tasks: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
