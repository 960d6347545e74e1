// Package rbac evaluates whether a user may perform an action on a board
// entity. All checks are pure functions over the actor's organization role and
// per-project memberships; nothing here touches storage.
package rbac

type OrgRole string
type ProjectRole string

const (
	OrgRoleAdmin      OrgRole = "ADMIN"
	OrgRoleMaintainer OrgRole = "ORG_MAINTAINER"
	OrgRoleMember     OrgRole = "MEMBER"
)

const (
	ProjectRoleMaintainer ProjectRole = "MAINTAINER"
	ProjectRoleMember     ProjectRole = "MEMBER"
)

// Actor is the authenticated user as seen by every permission check.
// ProjectRoles is keyed by project ID and holds only explicit memberships.
type Actor struct {
	UserID         string
	OrganizationID string
	OrgRole        OrgRole
	ProjectRoles   map[string]ProjectRole
}

// ProjectRef identifies a project for entity-scoped checks.
type ProjectRef struct {
	ID             string
	OrganizationID string
}

// TaskRef identifies a task together with the fields permission rules need.
type TaskRef struct {
	ID             string
	ProjectID      string
	OrganizationID string
	AssigneeIDs    []string
}

// CommentRef identifies a comment together with its author's standing.
type CommentRef struct {
	ID             string
	OrganizationID string
	AuthorID       string
	AuthorOrgRole  OrgRole
}

// sameTenant is the outermost gate: cross-tenant access is denied no matter
// the role.
func sameTenant(actor Actor, organizationID string) bool {
	return actor.OrganizationID != "" && actor.OrganizationID == organizationID
}

func (a Actor) projectRole(projectID string) (ProjectRole, bool) {
	role, ok := a.ProjectRoles[projectID]
	return role, ok
}

// CanCreateProject allows ADMIN and ORG_MAINTAINER to add projects to their
// own organization.
func CanCreateProject(actor Actor, organizationID string) bool {
	if !sameTenant(actor, organizationID) {
		return false
	}
	return actor.OrgRole == OrgRoleAdmin || actor.OrgRole == OrgRoleMaintainer
}

// CanDeleteProject is ADMIN-only.
func CanDeleteProject(actor Actor, project ProjectRef) bool {
	if !sameTenant(actor, project.OrganizationID) {
		return false
	}
	return actor.OrgRole == OrgRoleAdmin
}

// CanEditProject covers title edits, maintainer changes, and all task
// mutations within the project: ADMIN, ORG_MAINTAINER, or a MAINTAINER
// membership on this specific project.
func CanEditProject(actor Actor, project ProjectRef) bool {
	if !sameTenant(actor, project.OrganizationID) {
		return false
	}
	switch actor.OrgRole {
	case OrgRoleAdmin, OrgRoleMaintainer:
		return true
	}
	role, ok := actor.projectRole(project.ID)
	return ok && role == ProjectRoleMaintainer
}

// CanReorderProjects gates project drag ordering. Unlike CanEditProject this
// excludes project MAINTAINERs: reordering rearranges the whole organization's
// board, not a single column. The edit/reorder asymmetry is intentional.
func CanReorderProjects(actor Actor, organizationID string) bool {
	if !sameTenant(actor, organizationID) {
		return false
	}
	return actor.OrgRole == OrgRoleAdmin || actor.OrgRole == OrgRoleMaintainer
}

// CanEditTask covers create, edit, delete, and move of tasks in the given
// project. Same rule as project editing.
func CanEditTask(actor Actor, project ProjectRef) bool {
	return CanEditProject(actor, project)
}

// CanManageUser covers user create/edit/delete and access management.
// ADMIN may act on anyone in the organization; ORG_MAINTAINER may manage
// everyone except ADMIN accounts.
func CanManageUser(actor Actor, targetOrganizationID string, targetRole OrgRole) bool {
	if !sameTenant(actor, targetOrganizationID) {
		return false
	}
	switch actor.OrgRole {
	case OrgRoleAdmin:
		return true
	case OrgRoleMaintainer:
		return targetRole != OrgRoleAdmin
	}
	return false
}

// CanComment allows ADMIN, ORG_MAINTAINER, any member of the task's project,
// or any assignee of the task even without a project membership.
func CanComment(actor Actor, task TaskRef) bool {
	if !sameTenant(actor, task.OrganizationID) {
		return false
	}
	switch actor.OrgRole {
	case OrgRoleAdmin, OrgRoleMaintainer:
		return true
	}
	if _, ok := actor.projectRole(task.ProjectID); ok {
		return true
	}
	for _, assignee := range task.AssigneeIDs {
		if assignee == actor.UserID {
			return true
		}
	}
	return false
}

// CanDeleteComment allows the author, ADMIN on any comment, and
// ORG_MAINTAINER on any comment not authored by an ADMIN.
func CanDeleteComment(actor Actor, comment CommentRef) bool {
	if !sameTenant(actor, comment.OrganizationID) {
		return false
	}
	if actor.UserID == comment.AuthorID {
		return true
	}
	switch actor.OrgRole {
	case OrgRoleAdmin:
		return true
	case OrgRoleMaintainer:
		return comment.AuthorOrgRole != OrgRoleAdmin
	}
	return false
}

// NormalizeOrgRole maps unknown values to the least privileged role.
func NormalizeOrgRole(role string) OrgRole {
	switch OrgRole(role) {
	case OrgRoleAdmin, OrgRoleMaintainer, OrgRoleMember:
		return OrgRole(role)
	default:
		return OrgRoleMember
	}
}

// NormalizeProjectRole maps unknown values to the least privileged role.
func NormalizeProjectRole(role string) ProjectRole {
	switch ProjectRole(role) {
	case ProjectRoleMaintainer, ProjectRoleMember:
		return ProjectRole(role)
	default:
		return ProjectRoleMember
	}
}
