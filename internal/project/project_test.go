package project

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{"string", `"abc-1"`, "abc-1", false},
		{"number", `42`, "42", false},
		{"null", `null`, "", false},
		{"bool", `true`, "", true},
		{"object", `{}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestTask_NumericIDsRoundTrip(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"projectId":1,"title":"T","description":"D","status":"pending"}`), &task))

	assert.Equal(t, ID("7"), task.ID)
	assert.Equal(t, ID("1"), task.ProjectID)

	out, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"id":"7"`)
	assert.Contains(t, string(out), `"projectId":"1"`)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"todo", StatusPending, false},
		{"Not Started", StatusPending, false},
		{"in progress", StatusInProgress, false},
		{"in_progress", StatusInProgress, false},
		{"in-progress", StatusInProgress, false},
		{"completed", StatusCompleted, false},
		{" DONE ", StatusCompleted, false},
		{"archived", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_Workflow(t *testing.T) {
	assert.Equal(t, StatusInProgress, StatusPending.Next())
	assert.Equal(t, StatusCompleted, StatusInProgress.Next())
	assert.Equal(t, StatusCompleted, StatusCompleted.Next())

	assert.Less(t, StatusPending.Rank(), StatusInProgress.Rank())
	assert.Less(t, StatusInProgress.Rank(), StatusCompleted.Rank())
	assert.Equal(t, -1, Status("archived").Rank())
	assert.False(t, Status("done").Valid())
}

func TestStatus_UnmarshalJSON(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","status":"done"}`), &task))
	assert.Equal(t, StatusCompleted, task.Status)

	err := json.Unmarshal([]byte(`{"id":"1","status":"archived"}`), &task)
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestProject_Validate(t *testing.T) {
	tests := []struct {
		name    string
		project Project
		wantErr bool
	}{
		{"valid", Project{ID: "1", Tasks: []Task{{ID: "7", Status: StatusPending}}}, false},
		{"no tasks", Project{ID: "1"}, false},
		{"missing id", Project{Name: "x"}, true},
		{"task missing id", Project{ID: "1", Tasks: []Task{{Status: StatusPending}}}, true},
		{"task bad status", Project{ID: "1", Tasks: []Task{{ID: "7", Status: "done"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.project.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProject_Task(t *testing.T) {
	p := Project{ID: "1", Tasks: []Task{{ID: "7", Title: "T"}, {ID: "8"}}}

	task, ok := p.Task("7")
	assert.True(t, ok)
	assert.Equal(t, "T", task.Title)

	_, ok = p.Task("9")
	assert.False(t, ok)
}

func TestNewTask_Normalize(t *testing.T) {
	n, err := NewTask{ProjectID: "1", Title: "  Write docs "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "Write docs", n.Title)
	assert.Equal(t, StatusPending, n.Status)

	_, err = NewTask{Title: "x"}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidTask)

	_, err = NewTask{ProjectID: "1", Title: "   "}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidTask)

	_, err = NewTask{ProjectID: "1", Title: "x", Status: "blocked"}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidTask)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestProject_Clone(t *testing.T) {
	p := Project{
		ID: "1",
		Tasks: []Task{
			{ID: "7", Status: StatusPending, AssignedTo: &User{ID: "u1", Name: "Ada"}},
			{ID: "8", Status: StatusPending},
		},
	}

	c := p.Clone()
	assert.Equal(t, p, c)

	c.Tasks[0].Title = "changed"
	c.Tasks[0].AssignedTo.Name = "Grace"
	assert.Empty(t, p.Tasks[0].Title)
	assert.Equal(t, "Ada", p.Tasks[0].AssignedTo.Name)

	assert.Nil(t, Project{ID: "2"}.Clone().Tasks)
}
