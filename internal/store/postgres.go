package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConflict wraps unique-constraint violations (duplicate org name or
// email) so callers can surface a specific conflict message.
var ErrConflict = errors.New("conflict")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// conflictWrap converts a Postgres unique violation into ErrConflict.
func conflictWrap(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ----- Organizations -----

func (s *PostgresStore) CreateOrganization(ctx context.Context, org Organization) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, admin_user_id)
		VALUES ($1, $2, $3)
	`, org.ID, org.Name, org.AdminUserID)
	if err != nil {
		return conflictWrap("insert organization", err)
	}
	return nil
}

func (s *PostgresStore) GetOrganization(ctx context.Context, id string) (Organization, error) {
	var org Organization
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, admin_user_id, created_at, updated_at
		FROM organizations WHERE id=$1
	`, id).Scan(&org.ID, &org.Name, &org.AdminUserID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return Organization{}, err
	}
	return org, nil
}

func (s *PostgresStore) UpdateOrganizationName(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE organizations SET name=$2, updated_at=NOW() WHERE id=$1
	`, id, name)
	if err != nil {
		return conflictWrap("update organization name", err)
	}
	return nil
}

func (s *PostgresStore) DeleteOrganization(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM organizations WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	return nil
}

// ----- Users -----

const userColumns = `id, COALESCE(organization_id, ''), email, name, password_hash, role, avatar_key,
	is_email_verified, verification_token, verification_expires_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.OrganizationID, &user.Email, &user.Name, &user.PasswordHash,
		&user.Role, &user.AvatarKey, &user.IsEmailVerified, &user.VerificationToken,
		&user.VerificationExpiresAt, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	var orgID any
	if user.OrganizationID != "" {
		orgID = user.OrganizationID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, organization_id, email, name, password_hash, role, is_email_verified, verification_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, orgID, user.Email, user.Name, user.PasswordHash, user.Role, user.IsEmailVerified, user.VerificationToken)
	if err != nil {
		return conflictWrap("insert user", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email))
}

func (s *PostgresStore) ListUsers(ctx context.Context, organizationID string) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE organization_id=$1 ORDER BY name
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// AssignUserToOrganization attaches a freshly signed-up identity to its
// organization. Used once per signup, after the organization row exists.
func (s *PostgresStore) AssignUserToOrganization(ctx context.Context, userID, organizationID, role string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET organization_id=$2, role=$3, updated_at=NOW() WHERE id=$1
	`, userID, organizationID, role)
	if err != nil {
		return fmt.Errorf("assign user to organization: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUserProfile(ctx context.Context, id, name, role string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET name=$2, role=$3, updated_at=NOW() WHERE id=$1
	`, id, name, role)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) UpdateUserAvatarKey(ctx context.Context, id, key string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET avatar_key=$2, updated_at=NOW() WHERE id=$1`, id, key)
	if err != nil {
		return fmt.Errorf("update avatar key: %w", err)
	}
	return nil
}

// DeleteUserCascade removes a user together with their memberships, task
// assignments, and comments. Comment counts on affected tasks are recounted
// in the same transaction.
func (s *PostgresStore) DeleteUserCascade(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_assignees WHERE user_id=$1`, id); err != nil {
		return fmt.Errorf("delete assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE user_id=$1`, id); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE tasks SET comment_count = (SELECT COUNT(*) FROM comments WHERE comments.task_id = tasks.id)
	`); err != nil {
		return fmt.Errorf("recount comments: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// ----- Auth support (verification, password reset) -----

func (s *PostgresStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET verification_token=$2, verification_expires_at=$3, updated_at=NOW() WHERE id=$1
	`, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("set verification token: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyUserEmail(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_email_verified=TRUE, verification_token='', verification_expires_at=NULL, updated_at=NOW()
		WHERE verification_token=$1 AND verification_expires_at > NOW()
	`, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at) VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM password_resets WHERE token=$1 AND used_at IS NULL AND expires_at > NOW()
	`, token).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE token=$1`, token)
	if err != nil {
		return fmt.Errorf("mark reset used: %w", err)
	}
	return nil
}

// ----- Refresh sessions and token revocation -----

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash string, user User, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, user.ID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, COALESCE(u.organization_id, ''), u.email, u.name, u.password_hash, u.role, u.avatar_key,
			u.is_email_verified, u.verification_token, u.verification_expires_at, u.created_at, u.updated_at
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	return scanUser(s.db.QueryRowContext(ctx, query, tokenHash))
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// ----- Project memberships -----

func (s *PostgresStore) ListUserMemberships(ctx context.Context, userID string) ([]ProjectMembership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, user_id, role, created_at FROM project_memberships WHERE user_id=$1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	memberships := make([]ProjectMembership, 0)
	for rows.Next() {
		var m ProjectMembership
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	return memberships, nil
}

func (s *PostgresStore) ListProjectMembers(ctx context.Context, projectID string) ([]ProjectMembership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, user_id, role, created_at FROM project_memberships WHERE project_id=$1
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	defer rows.Close()

	members := make([]ProjectMembership, 0)
	for rows.Next() {
		var m ProjectMembership
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project members: %w", err)
	}
	return members, nil
}

func (s *PostgresStore) UpsertProjectMembership(ctx context.Context, projectID, userID, role string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_memberships (project_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO UPDATE SET role=EXCLUDED.role
	`, projectID, userID, role)
	if err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteProjectMembership(ctx context.Context, projectID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM project_memberships WHERE project_id=$1 AND user_id=$2
	`, projectID, userID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// ----- Projects -----

func (s *PostgresStore) ListProjects(ctx context.Context, organizationID string) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organization_id, title, order_index, created_at, updated_at
		FROM projects
		WHERE organization_id=$1
		ORDER BY order_index
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Title, &p.OrderIndex, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (Project, error) {
	var p Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, organization_id, title, order_index, created_at, updated_at
		FROM projects WHERE id=$1
	`, id).Scan(&p.ID, &p.OrganizationID, &p.Title, &p.OrderIndex, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

func (s *PostgresStore) InsertProject(ctx context.Context, p Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, organization_id, title, order_index)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.OrganizationID, p.Title, p.OrderIndex)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProjectTitle(ctx context.Context, id, title string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects SET title=$2, updated_at=NOW() WHERE id=$1
	`, id, title)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteProjectCascade removes a project with its tasks and their comments as
// an explicit ordered sequence (comments, assignees, tasks, memberships,
// project) instead of leaning on FK cascade behavior, so the same order holds
// on any backend.
func (s *PostgresStore) DeleteProjectCascade(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete project: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM comments WHERE task_id IN (SELECT id FROM tasks WHERE project_id=$1)
	`, id); err != nil {
		return fmt.Errorf("delete project comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM task_assignees WHERE task_id IN (SELECT id FROM tasks WHERE project_id=$1)
	`, id); err != nil {
		return fmt.Errorf("delete project assignees: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id=$1`, id); err != nil {
		return fmt.Errorf("delete project tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM project_memberships WHERE project_id=$1`, id); err != nil {
		return fmt.Errorf("delete project memberships: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// ApplyProjectOrder persists one re-index batch as update-by-id statements in
// a single transaction.
func (s *PostgresStore) ApplyProjectOrder(ctx context.Context, writes []OrderWrite) error {
	if len(writes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin project reorder: %w", err)
	}
	defer tx.Rollback()

	for _, w := range writes {
		if _, err := tx.ExecContext(ctx, `
			UPDATE projects SET order_index=$2, updated_at=NOW() WHERE id=$1
		`, w.ID, w.Index); err != nil {
			return fmt.Errorf("reorder project %s: %w", w.ID, err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ProjectCount(ctx context.Context, organizationID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE organization_id=$1`, organizationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return count, nil
}

// ----- Tasks -----

const taskColumns = `id, project_id, title, description, eta, status, priority, tags,
	order_index, comment_count, priority_score, priority_reason, reaction, created_by, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var task Task
	var tags string
	err := row.Scan(&task.ID, &task.ProjectID, &task.Title, &task.Description, &task.ETA,
		&task.Status, &task.Priority, &tags, &task.OrderIndex, &task.CommentCount,
		&task.PriorityScore, &task.PriorityReason, &task.Reaction, &task.CreatedBy,
		&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return Task{}, err
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &task.Tags); err != nil {
			task.Tags = nil
		}
	}
	return task, nil
}

func marshalTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// ListTasks returns every task in the organization ordered by
// (project_id, order_index), with assignees attached.
func (s *PostgresStore) ListTasks(ctx context.Context, organizationID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.project_id, t.title, t.description, t.eta, t.status, t.priority, t.tags,
			t.order_index, t.comment_count, t.priority_score, t.priority_reason, t.reaction, t.created_by, t.created_at, t.updated_at
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE p.organization_id=$1
		ORDER BY t.project_id, t.order_index
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return s.attachAssignees(ctx, tasks)
}

func (s *PostgresStore) ListProjectTasks(ctx context.Context, projectID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE project_id=$1 ORDER BY order_index
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return s.attachAssignees(ctx, tasks)
}

func (s *PostgresStore) attachAssignees(ctx context.Context, tasks []Task) ([]Task, error) {
	if len(tasks) == 0 {
		return tasks, nil
	}
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, user_id FROM task_assignees WHERE task_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	byTask := make(map[string][]string)
	for rows.Next() {
		var taskID, userID string
		if err := rows.Scan(&taskID, &userID); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		byTask[taskID] = append(byTask[taskID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignees: %w", err)
	}
	for i := range tasks {
		tasks[i].AssigneeIDs = byTask[tasks[i].ID]
	}
	return tasks, nil
}

func (s *PostgresStore) GetTask(ctx context.Context, id string) (Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, id))
	if err != nil {
		return Task{}, err
	}
	tasks, err := s.attachAssignees(ctx, []Task{task})
	if err != nil {
		return Task{}, err
	}
	return tasks[0], nil
}

func (s *PostgresStore) InsertTask(ctx context.Context, task Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert task: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, title, description, eta, status, priority, tags, order_index, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, task.ID, task.ProjectID, task.Title, task.Description, task.ETA, task.Status,
		task.Priority, marshalTags(task.Tags), task.OrderIndex, task.CreatedBy); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	for _, userID := range task.AssigneeIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, task.ID, userID); err != nil {
			return fmt.Errorf("insert assignee: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) UpdateTask(ctx context.Context, id string, update TaskUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update task: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE tasks SET title=$2, description=$3, eta=$4, status=$5, priority=$6, tags=$7, updated_at=NOW()
		WHERE id=$1
	`, id, update.Title, update.Description, update.ETA, update.Status, update.Priority, marshalTags(update.Tags))
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_assignees WHERE task_id=$1`, id); err != nil {
		return fmt.Errorf("clear assignees: %w", err)
	}
	for _, userID := range update.AssigneeIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, id, userID); err != nil {
			return fmt.Errorf("insert assignee: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) DeleteTaskCascade(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete task: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE task_id=$1`, id); err != nil {
		return fmt.Errorf("delete task comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_assignees WHERE task_id=$1`, id); err != nil {
		return fmt.Errorf("delete task assignees: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func (s *PostgresStore) ApplyTaskOrder(ctx context.Context, writes []OrderWrite) error {
	if len(writes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin task reorder: %w", err)
	}
	defer tx.Rollback()

	for _, w := range writes {
		if _, err := tx.ExecContext(ctx, `
			UPDATE tasks SET order_index=$2, updated_at=NOW() WHERE id=$1
		`, w.ID, w.Index); err != nil {
			return fmt.Errorf("reorder task %s: %w", w.ID, err)
		}
	}
	return tx.Commit()
}

// MoveTaskToProject rewrites a task's project and target index in one
// statement: the destination-side half of a cross-column move.
func (s *PostgresStore) MoveTaskToProject(ctx context.Context, taskID, projectID string, orderIndex int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET project_id=$2, order_index=$3, updated_at=NOW() WHERE id=$1
	`, taskID, projectID, orderIndex)
	if err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) TaskCount(ctx context.Context, projectID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE project_id=$1`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) UpdateTaskPriorityScores(ctx context.Context, writes []PriorityWrite) error {
	if len(writes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin priority update: %w", err)
	}
	defer tx.Rollback()

	for _, w := range writes {
		if _, err := tx.ExecContext(ctx, `
			UPDATE tasks SET priority_score=$2, priority_reason=$3, updated_at=NOW() WHERE id=$1
		`, w.TaskID, w.Score, w.Reason); err != nil {
			return fmt.Errorf("update priority for %s: %w", w.TaskID, err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) UpdateTaskReaction(ctx context.Context, taskID, emoji string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE tasks SET reaction=$2, updated_at=NOW() WHERE id=$1`, taskID, emoji)
	if err != nil {
		return fmt.Errorf("update reaction: %w", err)
	}
	return nil
}

// ----- Comments -----

// InsertComment stores the comment, its mentions, and bumps the task's
// comment_count in one transaction.
func (s *PostgresStore) InsertComment(ctx context.Context, comment Comment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert comment: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO comments (id, task_id, user_id, content) VALUES ($1, $2, $3, $4)
	`, comment.ID, comment.TaskID, comment.UserID, comment.Content); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	for _, userID := range comment.MentionedUserIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO comment_mentions (comment_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, comment.ID, userID); err != nil {
			return fmt.Errorf("insert mention: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE tasks SET comment_count = comment_count + 1, updated_at=NOW() WHERE id=$1
	`, comment.TaskID); err != nil {
		return fmt.Errorf("bump comment count: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) GetComment(ctx context.Context, id string) (Comment, error) {
	var comment Comment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, task_id, user_id, content, created_at FROM comments WHERE id=$1
	`, id).Scan(&comment.ID, &comment.TaskID, &comment.UserID, &comment.Content, &comment.CreatedAt)
	if err != nil {
		return Comment{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM comment_mentions WHERE comment_id=$1`, id)
	if err != nil {
		return Comment{}, fmt.Errorf("list mentions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return Comment{}, fmt.Errorf("scan mention: %w", err)
		}
		comment.MentionedUserIDs = append(comment.MentionedUserIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return Comment{}, fmt.Errorf("iterate mentions: %w", err)
	}
	return comment, nil
}

// DeleteComment removes the comment and decrements the task's comment_count
// in one transaction.
func (s *PostgresStore) DeleteComment(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete comment: %w", err)
	}
	defer tx.Rollback()

	var taskID string
	if err := tx.QueryRowContext(ctx, `SELECT task_id FROM comments WHERE id=$1`, id).Scan(&taskID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE tasks SET comment_count = GREATEST(comment_count - 1, 0), updated_at=NOW() WHERE id=$1
	`, taskID); err != nil {
		return fmt.Errorf("drop comment count: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) ListTaskComments(ctx context.Context, taskID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, user_id, content, created_at FROM comments WHERE task_id=$1 ORDER BY created_at
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]Comment, 0)
	for rows.Next() {
		var comment Comment
		if err := rows.Scan(&comment.ID, &comment.TaskID, &comment.UserID, &comment.Content, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}
