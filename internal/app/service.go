package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"taskboard/api/internal/ai"
	"taskboard/api/internal/auth"
	"taskboard/api/internal/authpw"
	"taskboard/api/internal/config"
	"taskboard/api/internal/order"
	"taskboard/api/internal/rbac"
	"taskboard/api/internal/search"
	"taskboard/api/internal/store"
	"taskboard/api/internal/util"
)

type Session struct {
	Token          string
	RefreshToken   string
	UserID         string
	UserName       string
	OrganizationID string
	Role           string
	JTI            string
	ExpiresAt      time.Time
}

type CreateProjectInput struct {
	Title string `json:"title"`
}

type UpdateProjectInput struct {
	Title string `json:"title"`
}

type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssigneeIDs []string   `json:"assigneeIds"`
	ETA         *time.Time `json:"eta"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Tags        []string   `json:"tags"`
}

type MoveProjectInput struct {
	ToIndex int `json:"toIndex"`
}

type MoveTaskInput struct {
	ToProjectID string `json:"toProjectId"`
	ToIndex     int    `json:"toIndex"`
}

type CommentInput struct {
	Content          string   `json:"content"`
	MentionedUserIDs []string `json:"mentionedUserIds"`
}

var allowedTaskStatuses = map[string]struct{}{
	"TODO":        {},
	"IN_PROGRESS": {},
	"DONE":        {},
	"BLOCKED":     {},
}

var allowedTaskPriorities = map[string]struct{}{
	"P0": {},
	"P1": {},
	"P2": {},
	"P3": {},
}

type dataStore interface {
	Ping(ctx context.Context) error
	GetOrganization(context.Context, string) (store.Organization, error)
	UpdateOrganizationName(context.Context, string, string) error
	GetUserByID(context.Context, string) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	ListUsers(context.Context, string) ([]store.User, error)
	CreateUser(context.Context, store.User) error
	UpdateUserProfile(context.Context, string, string, string) error
	UpdateUserAvatarKey(context.Context, string, string) error
	DeleteUserCascade(context.Context, string) error
	ListUserMemberships(context.Context, string) ([]store.ProjectMembership, error)
	ListProjectMembers(context.Context, string) ([]store.ProjectMembership, error)
	UpsertProjectMembership(context.Context, string, string, string) error
	DeleteProjectMembership(context.Context, string, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	ListProjects(context.Context, string) ([]store.Project, error)
	GetProject(context.Context, string) (store.Project, error)
	InsertProject(context.Context, store.Project) error
	UpdateProjectTitle(context.Context, string, string) error
	DeleteProjectCascade(context.Context, string) error
	ApplyProjectOrder(context.Context, []store.OrderWrite) error
	ProjectCount(context.Context, string) (int, error)
	ListTasks(context.Context, string) ([]store.Task, error)
	ListProjectTasks(context.Context, string) ([]store.Task, error)
	GetTask(context.Context, string) (store.Task, error)
	InsertTask(context.Context, store.Task) error
	UpdateTask(context.Context, string, store.TaskUpdate) error
	DeleteTaskCascade(context.Context, string) error
	ApplyTaskOrder(context.Context, []store.OrderWrite) error
	MoveTaskToProject(context.Context, string, string, int) error
	TaskCount(context.Context, string) (int, error)
	UpdateTaskPriorityScores(context.Context, []store.PriorityWrite) error
	UpdateTaskReaction(context.Context, string, string) error
	InsertComment(context.Context, store.Comment) error
	GetComment(context.Context, string) (store.Comment, error)
	DeleteComment(context.Context, string) error
	ListTaskComments(context.Context, string) ([]store.Comment, error)
}

// SessionStore persists refresh tokens. Backed by Redis in production and by
// the relational store when Redis is not configured.
type SessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// SearchIndex mirrors board entities into the search backend.
type SearchIndex interface {
	IndexProject(ctx context.Context, project store.Project) error
	RemoveProject(ctx context.Context, projectID string) error
	IndexTask(ctx context.Context, organizationID string, task store.Task) error
	RemoveTask(ctx context.Context, taskID string) error
	Search(ctx context.Context, organizationID, query string, limit int) (search.Results, error)
}

// Prioritizer is the opaque AI collaborator.
type Prioritizer interface {
	Prioritize(ctx context.Context, tasks []ai.TaskSummary) ([]ai.PriorityResult, error)
	ReactTo(ctx context.Context, description string) (string, error)
}

// Notifier delivers outbound email. Failures are logged, never surfaced to
// the mutating request.
type Notifier interface {
	SendMentionNotification(ctx context.Context, recipient store.User, authorName, taskTitle, content string) error
	SendInviteNotification(ctx context.Context, recipient store.User, organizationName, inviterName string) error
}

// AvatarSigner produces presigned object-storage URLs for avatar upload and
// download.
type AvatarSigner interface {
	PresignUpload(ctx context.Context, key string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// Collaborators bundles the optional outward-facing services. Any of them may
// be nil; the corresponding feature then degrades or is reported unavailable.
type Collaborators struct {
	Search SearchIndex
	AI     Prioritizer
	Email  Notifier
	Avatar AvatarSigner
	Export BoardExporter
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions SessionStore
	auth     *authpw.Service
	search   SearchIndex
	ai       Prioritizer
	email    Notifier
	avatars  AvatarSigner
	exporter BoardExporter
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions SessionStore, authSvc *authpw.Service, collab Collaborators) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		auth:     authSvc,
		search:   collab.Search,
		ai:       collab.AI,
		email:    collab.Email,
		avatars:  collab.Avatar,
		exporter: collab.Export,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ----- Sessions -----

func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (Session, *authpw.SignUpResponse, error) {
	resp, err := s.auth.SignUp(ctx, req)
	if err != nil {
		return Session{}, nil, validationError(err.Error())
	}
	user, err := s.store.GetUserByID(ctx, resp.UserID)
	if err != nil {
		return Session{}, nil, err
	}
	session, err := s.issueSession(ctx, user)
	if err != nil {
		return Session{}, nil, err
	}
	return session, resp, nil
}

func (s *Service) SignIn(ctx context.Context, req authpw.SignInRequest) (Session, bool, error) {
	resp, err := s.auth.SignIn(ctx, req)
	if err != nil {
		return Session{}, false, domainError(401, "UNAUTHORIZED", err.Error(), nil)
	}
	if resp.RequiresVerify {
		return Session{}, true, nil
	}
	session, err := s.issueSession(ctx, resp.User)
	if err != nil {
		return Session{}, false, err
	}
	return session, false, nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if err := s.auth.VerifyEmail(ctx, token); err != nil {
		return validationError(err.Error())
	}
	return nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return s.auth.RequestPasswordReset(ctx, email)
}

func (s *Service) ResetPassword(ctx context.Context, req authpw.ResetPasswordRequest) error {
	if err := s.auth.ResetPassword(ctx, req); err != nil {
		return validationError(err.Error())
	}
	return nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.Name,
		Role: user.Role,
		Org:  user.OrganizationID,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:          token,
		RefreshToken:   refresh,
		UserID:         user.ID,
		UserName:       user.Name,
		OrganizationID: user.OrganizationID,
		Role:           user.Role,
		JTI:            jti,
		ExpiresAt:      expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:          token,
		UserID:         user.ID,
		UserName:       user.Name,
		OrganizationID: user.OrganizationID,
		Role:           user.Role,
		JTI:            claims.JTI,
		ExpiresAt:      time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// actorFor resolves a session into the permission evaluator's view of the
// user, loading explicit project memberships.
func (s *Service) actorFor(ctx context.Context, session Session) (rbac.Actor, error) {
	memberships, err := s.store.ListUserMemberships(ctx, session.UserID)
	if err != nil {
		return rbac.Actor{}, err
	}
	roles := make(map[string]rbac.ProjectRole, len(memberships))
	for _, membership := range memberships {
		roles[membership.ProjectID] = rbac.NormalizeProjectRole(membership.Role)
	}
	return rbac.Actor{
		UserID:         session.UserID,
		OrganizationID: session.OrganizationID,
		OrgRole:        rbac.NormalizeOrgRole(session.Role),
		ProjectRoles:   roles,
	}, nil
}

// ----- Board snapshot -----

// Board rebuilds the full normalized snapshot for the actor's organization.
// Every mutation path answers with a fresh snapshot so clients get
// read-your-writes without incremental patching.
func (s *Service) Board(ctx context.Context, session Session) (Snapshot, error) {
	projects, err := s.store.ListProjects(ctx, session.OrganizationID)
	if err != nil {
		return Snapshot{}, err
	}
	tasks, err := s.store.ListTasks(ctx, session.OrganizationID)
	if err != nil {
		return Snapshot{}, err
	}
	return buildSnapshot(projects, tasks), nil
}

// ----- Projects -----

func (s *Service) CreateProject(ctx context.Context, session Session, input CreateProjectInput) (store.Project, error) {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return store.Project{}, err
	}
	if !rbac.CanCreateProject(actor, session.OrganizationID) {
		return store.Project{}, forbiddenError("not allowed to create projects")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return store.Project{}, validationError("title is required")
	}
	if len([]rune(title)) > 200 {
		return store.Project{}, validationError("title is too long")
	}

	count, err := s.store.ProjectCount(ctx, session.OrganizationID)
	if err != nil {
		return store.Project{}, err
	}
	project := store.Project{
		ID:             util.NewID("prj"),
		OrganizationID: session.OrganizationID,
		Title:          title,
		OrderIndex:     count,
	}
	if err := s.store.InsertProject(ctx, project); err != nil {
		return store.Project{}, err
	}
	s.indexProject(ctx, project)
	return project, nil
}

func (s *Service) UpdateProject(ctx context.Context, session Session, projectID string, input UpdateProjectInput) error {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return err
	}
	project, err := s.projectInOrg(ctx, session, projectID)
	if err != nil {
		return err
	}
	if !rbac.CanEditProject(actor, rbac.ProjectRef{ID: project.ID, OrganizationID: project.OrganizationID}) {
		return forbiddenError("not allowed to edit this project")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return validationError("title is required")
	}
	if err := s.store.UpdateProjectTitle(ctx, projectID, title); err != nil {
		return err
	}
	project.Title = title
	s.indexProject(ctx, project)
	return nil
}

// DeleteProject removes a project with its tasks and comments, then
// re-indexes the surviving projects so their order stays a dense permutation.
func (s *Service) DeleteProject(ctx context.Context, session Session, projectID string) error {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return err
	}
	project, err := s.projectInOrg(ctx, session, projectID)
	if err != nil {
		return err
	}
	if !rbac.CanDeleteProject(actor, rbac.ProjectRef{ID: project.ID, OrganizationID: project.OrganizationID}) {
		return forbiddenError("only the organization admin can delete projects")
	}

	tasks, err := s.store.ListProjectTasks(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProjectCascade(ctx, projectID); err != nil {
		return err
	}

	projects, err := s.store.ListProjects(ctx, session.OrganizationID)
	if err != nil {
		return err
	}
	ids := make([]string, len(projects))
	stored := make(map[string]int, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
		stored[p.ID] = p.OrderIndex
	}
	if writes := order.Reindex(ids, stored); len(writes) > 0 {
		if err := s.store.ApplyProjectOrder(ctx, toOrderWrites(writes)); err != nil {
			return err
		}
	}

	s.removeProjectFromIndex(ctx, projectID, tasks)
	return nil
}

func (s *Service) MoveProject(ctx context.Context, session Session, projectID string, input MoveProjectInput) error {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return err
	}
	if !rbac.CanReorderProjects(actor, session.OrganizationID) {
		return forbiddenError("not allowed to reorder projects")
	}
	if _, err := s.projectInOrg(ctx, session, projectID); err != nil {
		return err
	}

	projects, err := s.store.ListProjects(ctx, session.OrganizationID)
	if err != nil {
		return err
	}
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	_, writes, moved := order.Move(ids, projectID, input.ToIndex)
	if !moved {
		return nil
	}
	return s.store.ApplyProjectOrder(ctx, toOrderWrites(writes))
}

// ----- Tasks -----

func (s *Service) CreateTask(ctx context.Context, session Session, projectID string, input TaskInput) (store.Task, error) {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return store.Task{}, err
	}
	project, err := s.projectInOrg(ctx, session, projectID)
	if err != nil {
		return store.Task{}, err
	}
	if !rbac.CanEditTask(actor, rbac.ProjectRef{ID: project.ID, OrganizationID: project.OrganizationID}) {
		return store.Task{}, forbiddenError("not allowed to create tasks in this project")
	}
	if err := validateTaskInput(&input); err != nil {
		return store.Task{}, err
	}

	count, err := s.store.TaskCount(ctx, projectID)
	if err != nil {
		return store.Task{}, err
	}
	task := store.Task{
		ID:          util.NewID("tsk"),
		ProjectID:   projectID,
		Title:       input.Title,
		Description: input.Description,
		AssigneeIDs: input.AssigneeIDs,
		ETA:         input.ETA,
		Status:      input.Status,
		Priority:    input.Priority,
		Tags:        input.Tags,
		OrderIndex:  count,
		CreatedBy:   session.UserID,
	}
	if err := s.store.InsertTask(ctx, task); err != nil {
		return store.Task{}, err
	}
	s.indexTask(ctx, session.OrganizationID, task)
	return task, nil
}

// UpdateTask edits the mutable fields of a task. orderIndex and projectId are
// untouchable here; only move operations change them.
func (s *Service) UpdateTask(ctx context.Context, session Session, taskID string, input TaskInput) error {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return err
	}
	task, project, err := s.taskInOrg(ctx, session, taskID)
	if err != nil {
		return err
	}
	if !rbac.CanEditTask(actor, rbac.ProjectRef{ID: project.ID, OrganizationID: project.OrganizationID}) {
		return forbiddenError("not allowed to edit this task")
	}
	if err := validateTaskInput(&input); err != nil {
		return err
	}

	if err := s.store.UpdateTask(ctx, taskID, store.TaskUpdate{
		Title:       input.Title,
		Description: input.Description,
		AssigneeIDs: input.AssigneeIDs,
		ETA:         input.ETA,
		Status:      input.Status,
		Priority:    input.Priority,
		Tags:        input.Tags,
	}); err != nil {
		return err
	}

	task.Title = input.Title
	task.Description = input.Description
	task.AssigneeIDs = input.AssigneeIDs
	task.ETA = input.ETA
	task.Status = input.Status
	task.Priority = input.Priority
	task.Tags = input.Tags
	s.indexTask(ctx, session.OrganizationID, task)
	return nil
}

func (s *Service) DeleteTask(ctx context.Context, session Session, taskID string) error {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return err
	}
	task, project, err := s.taskInOrg(ctx, session, taskID)
	if err != nil {
		return err
	}
	if !rbac.CanEditTask(actor, rbac.ProjectRef{ID: project.ID, OrganizationID: project.OrganizationID}) {
		return forbiddenError("not allowed to delete this task")
	}

	if err := s.store.DeleteTaskCascade(ctx, taskID); err != nil {
		return err
	}

	remaining, err := s.store.ListProjectTasks(ctx, task.ProjectID)
	if err != nil {
		return err
	}
	ids := make([]string, len(remaining))
	stored := make(map[string]int, len(remaining))
	for i, t := range remaining {
		ids[i] = t.ID
		stored[t.ID] = t.OrderIndex
	}
	if writes := order.Reindex(ids, stored); len(writes) > 0 {
		if err := s.store.ApplyTaskOrder(ctx, toOrderWrites(writes)); err != nil {
			return err
		}
	}

	s.removeTaskFromIndex(ctx, taskID)
	return nil
}

func (s *Service) MoveTaskWithinProject(ctx context.Context, session Session, taskID string, toIndex int) error {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return err
	}
	task, project, err := s.taskInOrg(ctx, session, taskID)
	if err != nil {
		return err
	}
	if !rbac.CanEditTask(actor, rbac.ProjectRef{ID: project.ID, OrganizationID: project.OrganizationID}) {
		return forbiddenError("not allowed to move tasks in this project")
	}

	tasks, err := s.store.ListProjectTasks(ctx, task.ProjectID)
	if err != nil {
		return err
	}
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	_, writes, moved := order.Move(ids, taskID, toIndex)
	if !moved {
		return nil
	}
	return s.store.ApplyTaskOrder(ctx, toOrderWrites(writes))
}

// MoveTaskBetweenProjects re-indexes the source list with the task removed,
// rewrites the task's project and target index, then re-indexes the shifted
// destination siblings. The three writes are deliberately not wrapped in one
// transaction; a partial failure is surfaced and the client resynchronizes
// with a fresh snapshot.
func (s *Service) MoveTaskBetweenProjects(ctx context.Context, session Session, taskID, toProjectID string, toIndex int) error {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return err
	}
	task, sourceProject, err := s.taskInOrg(ctx, session, taskID)
	if err != nil {
		return err
	}
	destProject, err := s.projectInOrg(ctx, session, toProjectID)
	if err != nil {
		return err
	}
	// The actor must be able to maintain both columns, not just the source.
	if !rbac.CanEditTask(actor, rbac.ProjectRef{ID: sourceProject.ID, OrganizationID: sourceProject.OrganizationID}) {
		return forbiddenError("not allowed to move tasks out of the source project")
	}
	if !rbac.CanEditTask(actor, rbac.ProjectRef{ID: destProject.ID, OrganizationID: destProject.OrganizationID}) {
		return forbiddenError("not allowed to move tasks into the destination project")
	}
	if sourceProject.ID == destProject.ID {
		return s.MoveTaskWithinProject(ctx, session, taskID, toIndex)
	}

	sourceTasks, err := s.store.ListProjectTasks(ctx, task.ProjectID)
	if err != nil {
		return err
	}
	sourceIDs := make([]string, len(sourceTasks))
	for i, t := range sourceTasks {
		sourceIDs[i] = t.ID
	}
	_, sourceWrites := order.Remove(sourceIDs, taskID)

	destTasks, err := s.store.ListProjectTasks(ctx, toProjectID)
	if err != nil {
		return err
	}
	destIDs := make([]string, len(destTasks))
	for i, t := range destTasks {
		destIDs[i] = t.ID
	}
	destList, destWrites := order.Insert(destIDs, taskID, toIndex)

	targetIndex := 0
	for i, id := range destList {
		if id == taskID {
			targetIndex = i
			break
		}
	}

	if err := s.store.ApplyTaskOrder(ctx, toOrderWrites(sourceWrites)); err != nil {
		return err
	}
	if err := s.store.MoveTaskToProject(ctx, taskID, toProjectID, targetIndex); err != nil {
		return err
	}
	shifted := make([]store.OrderWrite, 0, len(destWrites))
	for _, w := range destWrites {
		if w.ID == taskID {
			continue
		}
		shifted = append(shifted, store.OrderWrite{ID: w.ID, Index: w.Index})
	}
	if err := s.store.ApplyTaskOrder(ctx, shifted); err != nil {
		return err
	}

	task.ProjectID = toProjectID
	s.indexTask(ctx, session.OrganizationID, task)
	return nil
}

// ReconcileDragEnd turns a raw client drag gesture into the matching board
// mutation. Before dispatching, the dragged entity and both containers are
// re-validated against current state; a stale gesture is rejected with a
// NotFound so the client refetches instead of corrupting order.
func (s *Service) ReconcileDragEnd(ctx context.Context, session Session, gesture DragGesture) error {
	kind, derr := classifyGesture(gesture)
	if derr != nil {
		return derr
	}
	switch kind {
	case gestureNone:
		return nil
	case gestureProjectMove:
		return s.MoveProject(ctx, session, gesture.DraggableID, MoveProjectInput{ToIndex: gesture.Destination.Index})
	case gestureTaskWithin:
		task, _, err := s.taskInOrg(ctx, session, gesture.DraggableID)
		if err != nil {
			return err
		}
		if task.ProjectID != gesture.Source.ContainerID {
			return notFoundError("task moved since the drag started")
		}
		return s.MoveTaskWithinProject(ctx, session, gesture.DraggableID, gesture.Destination.Index)
	case gestureTaskAcross:
		task, _, err := s.taskInOrg(ctx, session, gesture.DraggableID)
		if err != nil {
			return err
		}
		if task.ProjectID != gesture.Source.ContainerID {
			return notFoundError("task moved since the drag started")
		}
		if _, err := s.projectInOrg(ctx, session, gesture.Destination.ContainerID); err != nil {
			return err
		}
		return s.MoveTaskBetweenProjects(ctx, session, gesture.DraggableID, gesture.Destination.ContainerID, gesture.Destination.Index)
	}
	return nil
}

// ----- Comments -----

func (s *Service) AddComment(ctx context.Context, session Session, taskID string, input CommentInput) (store.Comment, error) {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return store.Comment{}, err
	}
	task, project, err := s.taskInOrg(ctx, session, taskID)
	if err != nil {
		return store.Comment{}, err
	}
	if !rbac.CanComment(actor, rbac.TaskRef{
		ID:             task.ID,
		ProjectID:      task.ProjectID,
		OrganizationID: project.OrganizationID,
		AssigneeIDs:    task.AssigneeIDs,
	}) {
		return store.Comment{}, forbiddenError("not allowed to comment on this task")
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return store.Comment{}, validationError("content is required")
	}

	// Mentions are restricted to users of the same organization; unknown or
	// foreign IDs are dropped silently.
	mentioned := make([]string, 0, len(input.MentionedUserIDs))
	mentionedUsers := make([]store.User, 0, len(input.MentionedUserIDs))
	seen := make(map[string]struct{}, len(input.MentionedUserIDs))
	for _, userID := range input.MentionedUserIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		user, err := s.store.GetUserByID(ctx, userID)
		if err != nil || user.OrganizationID != session.OrganizationID {
			continue
		}
		mentioned = append(mentioned, userID)
		mentionedUsers = append(mentionedUsers, user)
	}

	comment := store.Comment{
		ID:               util.NewID("cmt"),
		TaskID:           taskID,
		UserID:           session.UserID,
		Content:          content,
		MentionedUserIDs: mentioned,
	}
	if err := s.store.InsertComment(ctx, comment); err != nil {
		return store.Comment{}, err
	}

	if s.email != nil {
		for _, recipient := range mentionedUsers {
			if recipient.ID == session.UserID {
				continue
			}
			if err := s.email.SendMentionNotification(ctx, recipient, session.UserName, task.Title, content); err != nil {
				log.Printf("mention notification to %s: %v", recipient.Email, err)
			}
		}
	}
	return comment, nil
}

func (s *Service) DeleteComment(ctx context.Context, session Session, commentID string) error {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return err
	}
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if _, _, err := s.taskInOrg(ctx, session, comment.TaskID); err != nil {
		return err
	}
	author, err := s.store.GetUserByID(ctx, comment.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if !rbac.CanDeleteComment(actor, rbac.CommentRef{
		ID:             comment.ID,
		OrganizationID: session.OrganizationID,
		AuthorID:       comment.UserID,
		AuthorOrgRole:  rbac.NormalizeOrgRole(author.Role),
	}) {
		return forbiddenError("not allowed to delete this comment")
	}
	return s.store.DeleteComment(ctx, commentID)
}

func (s *Service) ListTaskComments(ctx context.Context, session Session, taskID string) ([]store.Comment, error) {
	if _, _, err := s.taskInOrg(ctx, session, taskID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListTaskComments(ctx, taskID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		full, err := s.store.GetComment(ctx, comments[i].ID)
		if err == nil {
			comments[i].MentionedUserIDs = full.MentionedUserIDs
		}
	}
	return comments, nil
}

// ----- Helpers -----

// projectInOrg loads a project and hides other tenants' projects behind a
// NotFound instead of a Forbidden, so probing cannot confirm existence.
func (s *Service) projectInOrg(ctx context.Context, session Session, projectID string) (store.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return store.Project{}, err
	}
	if project.OrganizationID != session.OrganizationID {
		return store.Project{}, sql.ErrNoRows
	}
	return project, nil
}

func (s *Service) taskInOrg(ctx context.Context, session Session, taskID string) (store.Task, store.Project, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return store.Task{}, store.Project{}, err
	}
	project, err := s.projectInOrg(ctx, session, task.ProjectID)
	if err != nil {
		return store.Task{}, store.Project{}, err
	}
	return task, project, nil
}

func validateTaskInput(input *TaskInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return validationError("title is required")
	}
	if len([]rune(input.Title)) > 200 {
		return validationError("title is too long")
	}
	if input.Status == "" {
		input.Status = "TODO"
	}
	if _, ok := allowedTaskStatuses[input.Status]; !ok {
		return validationError("status must be one of TODO, IN_PROGRESS, DONE, BLOCKED")
	}
	if input.Priority == "" {
		input.Priority = "P2"
	}
	if _, ok := allowedTaskPriorities[input.Priority]; !ok {
		return validationError("priority must be one of P0, P1, P2, P3")
	}
	if input.AssigneeIDs == nil {
		input.AssigneeIDs = []string{}
	}
	if input.Tags == nil {
		input.Tags = []string{}
	}
	return nil
}

func toOrderWrites(writes []order.Write) []store.OrderWrite {
	out := make([]store.OrderWrite, len(writes))
	for i, w := range writes {
		out[i] = store.OrderWrite{ID: w.ID, Index: w.Index}
	}
	return out
}

func (s *Service) indexProject(ctx context.Context, project store.Project) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexProject(ctx, project); err != nil {
		log.Printf("index project %s: %v", project.ID, err)
	}
}

func (s *Service) removeProjectFromIndex(ctx context.Context, projectID string, tasks []store.Task) {
	if s.search == nil {
		return
	}
	if err := s.search.RemoveProject(ctx, projectID); err != nil {
		log.Printf("remove project %s from index: %v", projectID, err)
	}
	for _, task := range tasks {
		if err := s.search.RemoveTask(ctx, task.ID); err != nil {
			log.Printf("remove task %s from index: %v", task.ID, err)
		}
	}
}

func (s *Service) indexTask(ctx context.Context, organizationID string, task store.Task) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexTask(ctx, organizationID, task); err != nil {
		log.Printf("index task %s: %v", task.ID, err)
	}
}

func (s *Service) removeTaskFromIndex(ctx context.Context, taskID string) {
	if s.search == nil {
		return
	}
	if err := s.search.RemoveTask(ctx, taskID); err != nil {
		log.Printf("remove task %s from index: %v", taskID, err)
	}
}
