package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"taskboard/api/internal/rbac"
	"taskboard/api/internal/store"
	"taskboard/api/internal/util"
)

type InviteUserInput struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type UpdateUserInput struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type MembershipInput struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (s *Service) Organization(ctx context.Context, session Session) (store.Organization, error) {
	return s.store.GetOrganization(ctx, session.OrganizationID)
}

// RenameOrganization is ADMIN-only: the organization name is the tenant's
// public identity, not a board detail.
func (s *Service) RenameOrganization(ctx context.Context, session Session, name string) error {
	if rbac.NormalizeOrgRole(session.Role) != rbac.OrgRoleAdmin {
		return forbiddenError("only the organization admin can rename it")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return validationError("name is required")
	}
	if err := s.store.UpdateOrganizationName(ctx, session.OrganizationID, name); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return conflictError("an organization with that name already exists", nil)
		}
		return err
	}
	return nil
}

// ListUsers returns the organization roster. Any signed-in member may read
// it; the roster feeds assignee and mention pickers.
func (s *Service) ListUsers(ctx context.Context, session Session) ([]store.User, error) {
	return s.store.ListUsers(ctx, session.OrganizationID)
}

// InviteUser creates a member account without a password. The invitee signs
// in after completing the password-reset flow from the invite email.
func (s *Service) InviteUser(ctx context.Context, session Session, input InviteUserInput) (store.User, error) {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return store.User{}, err
	}
	role := rbac.NormalizeOrgRole(input.Role)
	if !rbac.CanManageUser(actor, session.OrganizationID, role) {
		return store.User{}, forbiddenError("not allowed to invite users with that role")
	}
	email := strings.TrimSpace(strings.ToLower(input.Email))
	name := strings.TrimSpace(input.Name)
	if email == "" || !strings.Contains(email, "@") {
		return store.User{}, validationError("a valid email is required")
	}
	if name == "" {
		return store.User{}, validationError("name is required")
	}
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return store.User{}, conflictError("a user with that email already exists", nil)
	}

	user := store.User{
		ID:                util.NewID("usr"),
		OrganizationID:    session.OrganizationID,
		Email:             email,
		Name:              name,
		Role:              string(role),
		VerificationToken: util.NewID("vt") + util.ShortID(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return store.User{}, conflictError("a user with that email already exists", nil)
		}
		return store.User{}, err
	}

	if s.email != nil {
		org, err := s.store.GetOrganization(ctx, session.OrganizationID)
		if err == nil {
			if err := s.email.SendInviteNotification(ctx, user, org.Name, session.UserName); err != nil {
				log.Printf("invite notification to %s: %v", user.Email, err)
			}
		}
	}
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, session Session, userID string, input UpdateUserInput) error {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return err
	}
	target, err := s.userInOrg(ctx, session, userID)
	if err != nil {
		return err
	}
	if !rbac.CanManageUser(actor, session.OrganizationID, rbac.NormalizeOrgRole(target.Role)) {
		return forbiddenError("not allowed to manage this user")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = target.Name
	}
	role := target.Role
	if input.Role != "" {
		nextRole := rbac.NormalizeOrgRole(input.Role)
		if !rbac.CanManageUser(actor, session.OrganizationID, nextRole) {
			return forbiddenError("not allowed to assign that role")
		}
		org, err := s.store.GetOrganization(ctx, session.OrganizationID)
		if err != nil {
			return err
		}
		if target.ID == org.AdminUserID && nextRole != rbac.OrgRoleAdmin {
			return conflictError("the organization's admin of record cannot be demoted", nil)
		}
		role = string(nextRole)
	}
	return s.store.UpdateUserProfile(ctx, userID, name, role)
}

// DeleteUser removes a user, their memberships and assignments, and their
// comments. The organization's admin of record cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, session Session, userID string) error {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return err
	}
	target, err := s.userInOrg(ctx, session, userID)
	if err != nil {
		return err
	}
	if !rbac.CanManageUser(actor, session.OrganizationID, rbac.NormalizeOrgRole(target.Role)) {
		return forbiddenError("not allowed to delete this user")
	}
	org, err := s.store.GetOrganization(ctx, session.OrganizationID)
	if err != nil {
		return err
	}
	if target.ID == org.AdminUserID {
		return conflictError("the organization's admin of record cannot be deleted", nil)
	}
	if err := s.store.DeleteUserCascade(ctx, userID); err != nil {
		return err
	}
	if session.JTI != "" && session.UserID == userID {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, time.Now().Add(s.cfg.AccessTTL))
	}
	return nil
}

// SetProjectMembership grants or changes a user's role on a project. Managing
// maintainers is part of editing the project.
func (s *Service) SetProjectMembership(ctx context.Context, session Session, projectID string, input MembershipInput) error {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return err
	}
	project, err := s.projectInOrg(ctx, session, projectID)
	if err != nil {
		return err
	}
	if !rbac.CanEditProject(actor, rbac.ProjectRef{ID: project.ID, OrganizationID: project.OrganizationID}) {
		return forbiddenError("not allowed to manage members of this project")
	}
	if _, err := s.userInOrg(ctx, session, input.UserID); err != nil {
		return err
	}
	role := rbac.NormalizeProjectRole(input.Role)
	return s.store.UpsertProjectMembership(ctx, projectID, input.UserID, string(role))
}

func (s *Service) RemoveProjectMembership(ctx context.Context, session Session, projectID, userID string) error {
	actor, err := s.actorFor(ctx, session)
	if err != nil {
		return err
	}
	project, err := s.projectInOrg(ctx, session, projectID)
	if err != nil {
		return err
	}
	if !rbac.CanEditProject(actor, rbac.ProjectRef{ID: project.ID, OrganizationID: project.OrganizationID}) {
		return forbiddenError("not allowed to manage members of this project")
	}
	return s.store.DeleteProjectMembership(ctx, projectID, userID)
}

func (s *Service) ProjectMembers(ctx context.Context, session Session, projectID string) ([]store.ProjectMembership, error) {
	if _, err := s.projectInOrg(ctx, session, projectID); err != nil {
		return nil, err
	}
	return s.store.ListProjectMembers(ctx, projectID)
}

// userInOrg hides other tenants' users behind a NotFound, matching
// projectInOrg.
func (s *Service) userInOrg(ctx context.Context, session Session, userID string) (store.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return store.User{}, err
	}
	if user.OrganizationID != session.OrganizationID {
		return store.User{}, notFoundError("user not found")
	}
	return user, nil
}
