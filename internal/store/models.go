package store

import "time"

type Organization struct {
	ID          string
	Name        string
	AdminUserID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type User struct {
	ID                    string
	OrganizationID        string
	Email                 string
	Name                  string
	PasswordHash          string
	Role                  string // ADMIN, ORG_MAINTAINER, MEMBER
	AvatarKey             string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ProjectMembership is a per-project role override; users without a row fall
// back to their organization role.
type ProjectMembership struct {
	ProjectID string
	UserID    string
	Role      string // MAINTAINER, MEMBER
	CreatedAt time.Time
}

type Project struct {
	ID             string
	OrganizationID string
	Title          string
	OrderIndex     int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Task struct {
	ID             string
	ProjectID      string
	Title          string
	Description    string
	AssigneeIDs    []string
	ETA            *time.Time
	Status         string // TODO, IN_PROGRESS, DONE, BLOCKED
	Priority       string // P0, P1, P2, P3
	Tags           []string
	OrderIndex     int
	CommentCount   int
	PriorityScore  *float64
	PriorityReason string
	Reaction       string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Comment struct {
	ID               string
	TaskID           string
	UserID           string
	Content          string
	MentionedUserIDs []string
	CreatedAt        time.Time
}

// OrderWrite is one (row, order_index) pair of a re-index batch.
type OrderWrite struct {
	ID    string
	Index int
}

// PriorityWrite carries one AI prioritization result to persist.
type PriorityWrite struct {
	TaskID string
	Score  float64
	Reason string
}

// TaskUpdate carries the editable fields of a task. OrderIndex and ProjectID
// are deliberately absent: those change only through move operations.
type TaskUpdate struct {
	Title       string
	Description string
	AssigneeIDs []string
	ETA         *time.Time
	Status      string
	Priority    string
	Tags        []string
}
