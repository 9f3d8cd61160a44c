package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOwnedBy(t *testing.T) {
	task := &Task{UserID: "u1"}

	assert.True(t, task.IsOwnedBy("u1"))
	assert.False(t, task.IsOwnedBy("u2"))
	assert.False(t, task.IsOwnedBy(""))
	assert.False(t, (*Task)(nil).IsOwnedBy("u1"))
}

func TestSubtaskByIDReturnsMutablePointer(t *testing.T) {
	task := &Task{Subtasks: []Subtask{{ID: "s1", Title: "one"}, {ID: "s2", Title: "two"}}}

	sub := task.SubtaskByID("s2")
	require.NotNil(t, sub)
	sub.Completed = true

	assert.True(t, task.Subtasks[1].Completed)
	assert.Nil(t, task.SubtaskByID("missing"))
}

func TestRemoveSubtask(t *testing.T) {
	task := &Task{Subtasks: []Subtask{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}}

	assert.True(t, task.RemoveSubtask("s2"))
	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, "s1", task.Subtasks[0].ID)
	assert.Equal(t, "s3", task.Subtasks[1].ID)

	assert.False(t, task.RemoveSubtask("s2"))
}

func TestValidStatusAndPriority(t *testing.T) {
	for _, s := range []string{StatusPending, StatusInProgress, StatusCompleted} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("done"))
	assert.False(t, ValidStatus(""))

	for _, p := range []string{PriorityLow, PriorityMedium, PriorityHigh} {
		assert.True(t, ValidPriority(p), p)
	}
	assert.False(t, ValidPriority("urgent"))
}
