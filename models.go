package tasktrack

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is a regular account (own tasks and comments only)
	RoleUser UserRole = "USER"
	// RoleAdmin can manage every user, task, and comment
	RoleAdmin UserRole = "ADMIN"
)

// TaskStatus is the task's lifecycle state
type TaskStatus = string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// TaskPriority ranks tasks for triage
type TaskPriority = string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Task is the task model. AuthorID is the creator, AssigneeID the user the
// task is currently assigned to; both reference users.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tsk"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string       `bun:"title,notnull" json:"title,omitempty"`
	Description   string       `bun:"description" json:"description,omitempty"`
	Status        TaskStatus   `bun:"status,notnull" json:"status,omitempty"`
	Priority      TaskPriority `bun:"priority,notnull" json:"priority,omitempty"`
	AuthorID      uuid.UUID    `bun:"author_id,notnull,type:uuid" json:"author_id,omitempty"`
	AssigneeID    *uuid.UUID   `bun:"assignee_id,type:uuid" json:"assignee_id,omitempty"`
	Author        *User        `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Assignee      *User        `bun:"rel:belongs-to,join:assignee_id=id" json:"assignee,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Comment is a note attached to a task by a user
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:cmt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Body          string     `bun:"body,notnull" json:"body,omitempty"`
	TaskID        uuid.UUID  `bun:"task_id,notnull,type:uuid" json:"task_id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// ValidTaskStatus reports whether s is one of the known lifecycle states.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// ValidTaskPriority reports whether p is a known priority.
func ValidTaskPriority(p string) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}
