package domain

import "time"

// Task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is the aggregate root for a user-owned activity item. Subtasks are an
// owned collection and are persisted by rewriting the parent row. Dependencies
// and BlockedBy hold plain task ids with no referential integrity on delete.
type Task struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Categories   []string   `json:"categories,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Dependencies []string   `json:"dependencies,omitempty"`
	BlockedBy    []string   `json:"blocked_by,omitempty"`
	Subtasks     []Subtask  `json:"subtasks"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Subtask lives inside its parent Task and cannot exist independently.
// Assignee references a user identity for display purposes only; it does not
// transfer ownership.
type Subtask struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Assignee  string     `json:"assignee,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// IsOwnedBy reports whether the task belongs to the given user identity.
func (t *Task) IsOwnedBy(userID string) bool {
	return t != nil && userID != "" && t.UserID == userID
}

// SubtaskByID returns a pointer into the task's subtask slice, or nil.
func (t *Task) SubtaskByID(id string) *Subtask {
	if t == nil {
		return nil
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return &t.Subtasks[i]
		}
	}
	return nil
}

// RemoveSubtask deletes the subtask with the given id from the owned
// collection and reports whether it was present.
func (t *Task) RemoveSubtask(id string) bool {
	if t == nil {
		return false
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			t.Subtasks = append(t.Subtasks[:i], t.Subtasks[i+1:]...)
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is one of the allowed task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the allowed task priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
