package board

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostgRESTStore_Insert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rest/v1/tasks", r.URL.Path)
		require.Equal(t, "svc-key", r.Header.Get("apikey"))
		require.Equal(t, "Bearer svc-key", r.Header.Get("Authorization"))
		require.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Ship it", body["title"])
		require.Equal(t, "todo", body["status"])
		require.Nil(t, body["description"])
		require.Contains(t, body, "description")
		require.Equal(t, float64(0), body["position"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `[{"id":"t1","title":"Ship it","status":"todo","description":null,"position":0,"created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z"}]`)
	}))
	t.Cleanup(srv.Close)

	s, err := NewPostgRESTStore(PostgRESTConfig{BaseURL: srv.URL + "/", APIKey: "svc-key", HTTPClient: srv.Client()})
	require.NoError(t, err)

	task, err := s.Insert(context.Background(), TaskInput{Title: "Ship it"})
	require.NoError(t, err)
	require.Equal(t, "t1", task.ID)
	require.Nil(t, task.Description)
}

func TestPostgRESTStore_ErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":"23502","message":"null value in column \"title\" violates not-null constraint"}`)
	}))
	t.Cleanup(srv.Close)

	s, err := NewPostgRESTStore(PostgRESTConfig{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = s.List(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "violates not-null constraint")
}

func TestPostgRESTStore_ListAndNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			require.Equal(t, "*", r.URL.Query().Get("select"))
			require.Equal(t, "position.asc,created_at.asc", r.URL.Query().Get("order"))
			fmt.Fprint(w, `[{"id":"a","title":"A","status":"todo","position":0},{"id":"b","title":"B","status":"in_progress","position":1}]`)
		case http.MethodDelete, http.MethodPatch:
			require.Equal(t, "eq.missing", r.URL.Query().Get("id"))
			fmt.Fprint(w, `[]`)
		}
	}))
	t.Cleanup(srv.Close)

	s, err := NewPostgRESTStore(PostgRESTConfig{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	require.NoError(t, err)

	tasks, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, "B", tasks[1].Title)

	require.ErrorIs(t, s.Delete(context.Background(), "missing"), ErrNotFound)
	title := "x"
	_, err = s.Update(context.Background(), "missing", TaskUpdate{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
}
