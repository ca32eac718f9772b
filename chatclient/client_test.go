package chatclient_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/LubyRuffy/kanbanchat/chatclient"
	"github.com/stretchr/testify/require"
)

func TestClient_TaskLifecycle(t *testing.T) {
	srv, _ := newKanbanServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := chatclient.NewClient(srv.URL+"/api/", nil)
	ctx := context.Background()

	tasks, err := c.ListTasks(ctx)
	require.NoError(t, err)
	require.Empty(t, tasks)

	estimate := "2h"
	a, err := c.CreateTask(ctx, board.TaskInput{Title: "A", TimeEstimate: &estimate})
	require.NoError(t, err)
	require.Equal(t, "todo", a.Status)
	require.Equal(t, "2h", *a.TimeEstimate)
	b, err := c.CreateTask(ctx, board.TaskInput{Title: "B"})
	require.NoError(t, err)

	moved, err := c.MoveTask(ctx, a.ID, "in_progress")
	require.NoError(t, err)
	require.Equal(t, "in_progress", moved.Status)

	title := "B2"
	updated, err := c.UpdateTask(ctx, b.ID, board.TaskUpdate{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "B2", updated.Title)

	require.NoError(t, c.ReorderTasks(ctx, "in_progress", []string{b.ID, a.ID}))
	tasks, err = c.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	for _, task := range tasks {
		require.Equal(t, "in_progress", task.Status)
	}
	require.Equal(t, b.ID, tasks[0].ID)

	require.NoError(t, c.DeleteTask(ctx, a.ID))
	err = c.DeleteTask(ctx, a.ID)
	var statusErr *chatclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusNotFound, statusErr.Status)
	require.Equal(t, board.ErrNotFound.Error(), statusErr.Error())

	_, err = c.CreateTask(ctx, board.TaskInput{Title: ""})
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusBadRequest, statusErr.Status)
}
