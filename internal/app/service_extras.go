package app

import (
	"context"
	"net/http"
	"time"

	"taskboard/api/internal/ai"
	"taskboard/api/internal/export"
	"taskboard/api/internal/rbac"
	"taskboard/api/internal/search"
	"taskboard/api/internal/store"
	"taskboard/api/internal/util"
)

func unavailableError(what string) *DomainError {
	return domainError(http.StatusServiceUnavailable, "UNAVAILABLE", what+" is not configured", nil)
}

// ----- AI -----

// PrioritizeProject sends the project's tasks to the AI collaborator and
// persists the returned scores. Tasks the model omits keep their prior score;
// ids the model invents are dropped before the write.
func (s *Service) PrioritizeProject(ctx context.Context, session Session, projectID string) ([]ai.PriorityResult, error) {
	if s.ai == nil {
		return nil, unavailableError("AI prioritization")
	}
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return nil, err
	}
	project, err := s.projectInOrg(ctx, session, projectID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanEditTask(actor, rbac.ProjectRef{ID: project.ID, OrganizationID: project.OrganizationID}) {
		return nil, forbiddenError("not allowed to prioritize this project")
	}

	tasks, err := s.store.ListProjectTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return []ai.PriorityResult{}, nil
	}

	summaries := make([]ai.TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		summaries = append(summaries, ai.TaskSummary{
			ID:          task.ID,
			Title:       task.Title,
			Deadline:    task.ETA,
			Importance:  task.Priority,
			Description: task.Description,
		})
	}

	results, err := s.ai.Prioritize(ctx, summaries)
	if err != nil {
		return nil, err
	}

	writes := make([]store.PriorityWrite, 0, len(results))
	for _, result := range results {
		writes = append(writes, store.PriorityWrite{
			TaskID: result.ID,
			Score:  result.PriorityScore,
			Reason: result.Reason,
		})
	}
	if err := s.store.UpdateTaskPriorityScores(ctx, writes); err != nil {
		return nil, err
	}
	return results, nil
}

// ReactToTask asks the AI collaborator for a one-emoji reaction to the task
// and stores it on the card.
func (s *Service) ReactToTask(ctx context.Context, session Session, taskID string) (string, error) {
	if s.ai == nil {
		return "", unavailableError("AI reactions")
	}
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return "", err
	}
	task, project, err := s.taskInOrg(ctx, session, taskID)
	if err != nil {
		return "", err
	}
	if !rbac.CanComment(actor, rbac.TaskRef{
		ID:             task.ID,
		ProjectID:      task.ProjectID,
		OrganizationID: project.OrganizationID,
		AssigneeIDs:    task.AssigneeIDs,
	}) {
		return "", forbiddenError("not allowed to react to this task")
	}

	description := task.Description
	if description == "" {
		description = task.Title
	}
	emoji, err := s.ai.ReactTo(ctx, description)
	if err != nil {
		return "", err
	}
	if err := s.store.UpdateTaskReaction(ctx, taskID, emoji); err != nil {
		return "", err
	}
	return emoji, nil
}

// ----- Search -----

func (s *Service) Search(ctx context.Context, session Session, query string, limit int) (search.Results, error) {
	if s.search == nil {
		return search.Results{}, unavailableError("search")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.search.Search(ctx, session.OrganizationID, query, limit)
}

// ----- Avatars -----

// AvatarUploadURL presigns a PUT for the caller's avatar object and records
// the key. The client uploads directly to object storage.
func (s *Service) AvatarUploadURL(ctx context.Context, session Session) (string, string, error) {
	if s.avatars == nil {
		return "", "", unavailableError("avatar storage")
	}
	key := "avatars/" + session.UserID + "/" + util.ShortID()
	url, err := s.avatars.PresignUpload(ctx, key)
	if err != nil {
		return "", "", err
	}
	if err := s.store.UpdateUserAvatarKey(ctx, session.UserID, key); err != nil {
		return "", "", err
	}
	return url, key, nil
}

// AvatarURL presigns a GET for another member's avatar.
func (s *Service) AvatarURL(ctx context.Context, session Session, userID string) (string, error) {
	if s.avatars == nil {
		return "", unavailableError("avatar storage")
	}
	user, err := s.userInOrg(ctx, session, userID)
	if err != nil {
		return "", err
	}
	if user.AvatarKey == "" {
		return "", notFoundError("user has no avatar")
	}
	return s.avatars.PresignGet(ctx, user.AvatarKey)
}

// ----- Export -----

// BoardExporter renders a board view to a PDF document.
type BoardExporter interface {
	BoardPDF(ctx context.Context, view export.BoardView) ([]byte, error)
}

// ExportBoardPDF renders the caller's current board as a PDF.
func (s *Service) ExportBoardPDF(ctx context.Context, session Session) ([]byte, error) {
	if s.exporter == nil {
		return nil, unavailableError("board export")
	}
	org, err := s.store.GetOrganization(ctx, session.OrganizationID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.Board(ctx, session)
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, session.OrganizationID)
	if err != nil {
		return nil, err
	}
	nameByID := make(map[string]string, len(users))
	for _, user := range users {
		nameByID[user.ID] = user.Name
	}

	view := export.BoardView{
		OrganizationName: org.Name,
		GeneratedAt:      time.Now(),
	}
	for _, projectID := range snapshot.ProjectOrder {
		entry := snapshot.Projects[projectID]
		projectView := export.ProjectView{Title: entry.Project.Title}
		for _, taskID := range entry.TaskIDs {
			task := snapshot.Tasks[taskID]
			taskView := export.TaskView{
				Title:        task.Title,
				Status:       task.Status,
				Priority:     task.Priority,
				CommentCount: task.CommentCount,
			}
			if task.ETA != nil {
				taskView.ETA = task.ETA.Format("2006-01-02")
			}
			for _, assigneeID := range task.AssigneeIDs {
				if name, ok := nameByID[assigneeID]; ok {
					taskView.Assignees = append(taskView.Assignees, name)
				}
			}
			projectView.Tasks = append(projectView.Tasks, taskView)
		}
		view.Projects = append(view.Projects, projectView)
	}
	return s.exporter.BoardPDF(ctx, view)
}
