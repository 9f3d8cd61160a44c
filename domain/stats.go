package domain

import "time"

// TaskStats summarizes a user's task set for dashboard and analytics views.
type TaskStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	Overdue    int            `json:"overdue"`
	Completed  []DailyCount   `json:"completed,omitempty"`
}

// DailyCount is the number of tasks completed on a given day.
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}
