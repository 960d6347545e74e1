package rbac

import "testing"

func actorWith(role OrgRole, projectRoles map[string]ProjectRole) Actor {
	return Actor{
		UserID:         "usr_actor",
		OrganizationID: "org_1",
		OrgRole:        role,
		ProjectRoles:   projectRoles,
	}
}

var project = ProjectRef{ID: "prj_1", OrganizationID: "org_1"}

func TestCanCreateProject(t *testing.T) {
	cases := []struct {
		role OrgRole
		want bool
	}{
		{OrgRoleAdmin, true},
		{OrgRoleMaintainer, true},
		{OrgRoleMember, false},
	}
	for _, tc := range cases {
		if got := CanCreateProject(actorWith(tc.role, nil), "org_1"); got != tc.want {
			t.Errorf("CanCreateProject(%s) = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestCanDeleteProjectAdminOnly(t *testing.T) {
	if !CanDeleteProject(actorWith(OrgRoleAdmin, nil), project) {
		t.Error("ADMIN should delete projects")
	}
	if CanDeleteProject(actorWith(OrgRoleMaintainer, nil), project) {
		t.Error("ORG_MAINTAINER must not delete projects")
	}
	maintainer := actorWith(OrgRoleMember, map[string]ProjectRole{"prj_1": ProjectRoleMaintainer})
	if CanDeleteProject(maintainer, project) {
		t.Error("project MAINTAINER must not delete projects")
	}
}

func TestCanEditProject(t *testing.T) {
	cases := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"admin", actorWith(OrgRoleAdmin, nil), true},
		{"org maintainer", actorWith(OrgRoleMaintainer, nil), true},
		{"project maintainer", actorWith(OrgRoleMember, map[string]ProjectRole{"prj_1": ProjectRoleMaintainer}), true},
		{"project member", actorWith(OrgRoleMember, map[string]ProjectRole{"prj_1": ProjectRoleMember}), false},
		{"maintainer elsewhere", actorWith(OrgRoleMember, map[string]ProjectRole{"prj_2": ProjectRoleMaintainer}), false},
		{"plain member", actorWith(OrgRoleMember, nil), false},
	}
	for _, tc := range cases {
		if got := CanEditProject(tc.actor, project); got != tc.want {
			t.Errorf("%s: CanEditProject = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// Reordering the project list is an organization-wide structural change; a
// project MAINTAINER may edit the project but not reorder the board.
func TestReorderExcludesProjectMaintainer(t *testing.T) {
	maintainer := actorWith(OrgRoleMember, map[string]ProjectRole{"prj_1": ProjectRoleMaintainer})
	if !CanEditProject(maintainer, project) {
		t.Fatal("project MAINTAINER should be able to edit")
	}
	if CanReorderProjects(maintainer, "org_1") {
		t.Error("project MAINTAINER must not reorder projects")
	}
	if !CanReorderProjects(actorWith(OrgRoleMaintainer, nil), "org_1") {
		t.Error("ORG_MAINTAINER should reorder projects")
	}
}

func TestCanManageUser(t *testing.T) {
	if !CanManageUser(actorWith(OrgRoleAdmin, nil), "org_1", OrgRoleAdmin) {
		t.Error("ADMIN should manage any account")
	}
	if !CanManageUser(actorWith(OrgRoleMaintainer, nil), "org_1", OrgRoleMember) {
		t.Error("ORG_MAINTAINER should manage members")
	}
	if CanManageUser(actorWith(OrgRoleMaintainer, nil), "org_1", OrgRoleAdmin) {
		t.Error("ORG_MAINTAINER must not act on ADMIN accounts")
	}
	if CanManageUser(actorWith(OrgRoleMember, nil), "org_1", OrgRoleMember) {
		t.Error("MEMBER must not manage users")
	}
}

func TestCanComment(t *testing.T) {
	task := TaskRef{ID: "tsk_1", ProjectID: "prj_1", OrganizationID: "org_1"}
	assigned := task
	assigned.AssigneeIDs = []string{"usr_actor"}

	cases := []struct {
		name  string
		actor Actor
		task  TaskRef
		want  bool
	}{
		{"admin", actorWith(OrgRoleAdmin, nil), task, true},
		{"org maintainer", actorWith(OrgRoleMaintainer, nil), task, true},
		{"project member", actorWith(OrgRoleMember, map[string]ProjectRole{"prj_1": ProjectRoleMember}), task, true},
		{"project maintainer", actorWith(OrgRoleMember, map[string]ProjectRole{"prj_1": ProjectRoleMaintainer}), task, true},
		{"assignee without membership", actorWith(OrgRoleMember, nil), assigned, true},
		{"outsider member", actorWith(OrgRoleMember, nil), task, false},
	}
	for _, tc := range cases {
		if got := CanComment(tc.actor, tc.task); got != tc.want {
			t.Errorf("%s: CanComment = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanDeleteComment(t *testing.T) {
	memberComment := CommentRef{ID: "cmt_1", OrganizationID: "org_1", AuthorID: "usr_author", AuthorOrgRole: OrgRoleMember}
	adminComment := CommentRef{ID: "cmt_2", OrganizationID: "org_1", AuthorID: "usr_admin", AuthorOrgRole: OrgRoleAdmin}

	author := Actor{UserID: "usr_author", OrganizationID: "org_1", OrgRole: OrgRoleMember}
	if !CanDeleteComment(author, memberComment) {
		t.Error("author should delete own comment")
	}
	if !CanDeleteComment(actorWith(OrgRoleAdmin, nil), adminComment) {
		t.Error("ADMIN should delete any comment")
	}
	if !CanDeleteComment(actorWith(OrgRoleMaintainer, nil), memberComment) {
		t.Error("ORG_MAINTAINER should delete member comments")
	}
	if CanDeleteComment(actorWith(OrgRoleMaintainer, nil), adminComment) {
		t.Error("ORG_MAINTAINER must not delete ADMIN comments")
	}
	if CanDeleteComment(actorWith(OrgRoleMember, nil), memberComment) {
		t.Error("unrelated MEMBER must not delete comments")
	}
}

// If a role is denied an action, every strictly less privileged role must be
// denied too: MEMBER < project MAINTAINER < ORG_MAINTAINER < ADMIN.
func TestPermissionMonotonicity(t *testing.T) {
	ladder := []Actor{
		actorWith(OrgRoleMember, nil),
		actorWith(OrgRoleMember, map[string]ProjectRole{"prj_1": ProjectRoleMaintainer}),
		actorWith(OrgRoleMaintainer, nil),
		actorWith(OrgRoleAdmin, nil),
	}
	checks := []struct {
		name string
		eval func(Actor) bool
	}{
		{"create project", func(a Actor) bool { return CanCreateProject(a, "org_1") }},
		{"delete project", func(a Actor) bool { return CanDeleteProject(a, project) }},
		{"edit project", func(a Actor) bool { return CanEditProject(a, project) }},
		{"reorder projects", func(a Actor) bool { return CanReorderProjects(a, "org_1") }},
		{"manage member", func(a Actor) bool { return CanManageUser(a, "org_1", OrgRoleMember) }},
	}
	for _, check := range checks {
		// The set of allowed rungs must be a suffix of the ladder.
		for i := 1; i < len(ladder); i++ {
			lower := check.eval(ladder[i-1])
			higher := check.eval(ladder[i])
			if lower && !higher {
				t.Errorf("%s: rung %d allowed while rung %d denied", check.name, i-1, i)
			}
		}
	}
}

func TestCrossTenantAlwaysDenied(t *testing.T) {
	foreignProject := ProjectRef{ID: "prj_x", OrganizationID: "org_2"}
	foreignTask := TaskRef{ID: "tsk_x", ProjectID: "prj_x", OrganizationID: "org_2", AssigneeIDs: []string{"usr_actor"}}
	foreignComment := CommentRef{ID: "cmt_x", OrganizationID: "org_2", AuthorID: "usr_actor"}

	for _, role := range []OrgRole{OrgRoleAdmin, OrgRoleMaintainer, OrgRoleMember} {
		actor := actorWith(role, map[string]ProjectRole{"prj_x": ProjectRoleMaintainer})
		if CanCreateProject(actor, "org_2") {
			t.Errorf("%s: cross-tenant create allowed", role)
		}
		if CanDeleteProject(actor, foreignProject) || CanEditProject(actor, foreignProject) {
			t.Errorf("%s: cross-tenant project mutation allowed", role)
		}
		if CanReorderProjects(actor, "org_2") {
			t.Errorf("%s: cross-tenant reorder allowed", role)
		}
		if CanManageUser(actor, "org_2", OrgRoleMember) {
			t.Errorf("%s: cross-tenant user management allowed", role)
		}
		if CanComment(actor, foreignTask) {
			t.Errorf("%s: cross-tenant comment allowed even as assignee", role)
		}
		if CanDeleteComment(actor, foreignComment) {
			t.Errorf("%s: cross-tenant comment delete allowed even as author", role)
		}
	}
}

func TestNormalizeRoles(t *testing.T) {
	if NormalizeOrgRole("SUPERUSER") != OrgRoleMember {
		t.Error("unknown org role should normalize to MEMBER")
	}
	if NormalizeOrgRole("ADMIN") != OrgRoleAdmin {
		t.Error("ADMIN should pass through")
	}
	if NormalizeProjectRole("") != ProjectRoleMember {
		t.Error("unknown project role should normalize to MEMBER")
	}
}
