package transport

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the authenticated user and its bearer token.
type AuthResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// ProfileUpdateRequest changes mutable account fields.
type ProfileUpdateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TaskCreateRequest carries the fields for a new task.
type TaskCreateRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Status       string   `json:"status"`
	Priority     string   `json:"priority"`
	DueDate      string   `json:"due_date"`
	Categories   []string `json:"categories"`
	Tags         []string `json:"tags"`
	Dependencies []string `json:"dependencies"`
	BlockedBy    []string `json:"blocked_by"`
}

// TaskUpdateRequest carries a partial update; absent fields stay untouched.
type TaskUpdateRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Status       *string  `json:"status"`
	Priority     *string  `json:"priority"`
	DueDate      *string  `json:"due_date"`
	Categories   []string `json:"categories"`
	Tags         []string `json:"tags"`
	Dependencies []string `json:"dependencies"`
	BlockedBy    []string `json:"blocked_by"`
}

// SubtaskCreateRequest appends a subtask to a task.
type SubtaskCreateRequest struct {
	Title    string `json:"title"`
	DueDate  string `json:"due_date"`
	Assignee string `json:"assignee"`
}

// SubtaskUpdateRequest mutates one subtask in place.
type SubtaskUpdateRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
	DueDate   *string `json:"due_date"`
	Assignee  *string `json:"assignee"`
}
