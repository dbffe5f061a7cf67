package googletasks_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/backend/googletasks"
	"tasksync/internal/service"
)

// fakeTasksAPI serves the subset of the Tasks REST API the client uses.
type fakeTasksAPI struct {
	mu      sync.Mutex
	items   []map[string]any
	queries []string
}

func (f *fakeTasksAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/tasks/v1/lists/@default/tasks"
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(strings.TrimPrefix(path, prefix), "/")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && id == "":
		f.queries = append(f.queries, r.URL.RawQuery)
		showCompleted := r.URL.Query().Get("showCompleted") == "true"
		var items []map[string]any
		for _, it := range f.items {
			if it["status"] == "completed" && !showCompleted {
				continue
			}
			items = append(items, it)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})

	case r.Method == http.MethodPost && id == "":
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		in["id"] = "t" + string(rune('0'+len(f.items)+1))
		in["status"] = "needsAction"
		f.items = append(f.items, in)
		_ = json.NewEncoder(w).Encode(in)

	case r.Method == http.MethodPatch:
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		for _, it := range f.items {
			if it["id"] == id {
				it["status"] = in["status"]
				_ = json.NewEncoder(w).Encode(it)
				return
			}
		}
		writeError(w, http.StatusNotFound)

	case r.Method == http.MethodDelete:
		for i, it := range f.items {
			if it["id"] == id {
				f.items = append(f.items[:i], f.items[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeError(w, http.StatusNotFound)

	default:
		writeError(w, http.StatusBadRequest)
	}
}

func writeError(w http.ResponseWriter, code int) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": http.StatusText(code)},
	})
}

func newClient(t *testing.T, api *fakeTasksAPI) *googletasks.Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := googletasks.NewWithHTTPClient(context.Background(), srv.Client(), srv.URL+"/", "")
	require.NoError(t, err)
	return c
}

func TestQueryAllMapsStatuses(t *testing.T) {
	api := &fakeTasksAPI{items: []map[string]any{
		{"id": "a", "title": "open", "status": "needsAction"},
		{"id": "b", "title": "done", "status": "completed"},
	}}
	c := newClient(t, api)

	all, err := c.QueryAll(context.Background(), service.AllStatuses)
	require.NoError(t, err)
	assert.Equal(t, []service.Task{
		{ID: "a", Body: "open", Status: service.StatusPending},
		{ID: "b", Body: "done", Status: service.StatusCompleted},
	}, all)

	completed, err := c.QueryAll(context.Background(), []service.Status{service.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, []service.Task{{ID: "b", Body: "done", Status: service.StatusCompleted}}, completed)

	pending, err := c.QueryAll(context.Background(), []service.Status{service.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, []service.Task{{ID: "a", Body: "open", Status: service.StatusPending}}, pending)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Contains(t, api.queries[2], "showCompleted=false")
}

func TestMutations(t *testing.T) {
	api := &fakeTasksAPI{}
	c := newClient(t, api)
	ctx := context.Background()

	created, err := c.Create(ctx, "write tests")
	require.NoError(t, err)
	assert.Equal(t, "write tests", created.Body)
	assert.Equal(t, service.StatusPending, created.Status)

	require.NoError(t, c.UpdateStatus(ctx, created.ID, service.StatusCompleted))
	all, err := c.QueryAll(ctx, service.AllStatuses)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, service.StatusCompleted, all[0].Status)

	require.NoError(t, c.Delete(ctx, created.ID))
	all, err = c.QueryAll(ctx, service.AllStatuses)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNotFound(t *testing.T) {
	c := newClient(t, &fakeTasksAPI{})

	err := c.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.True(t, service.IsRemote(err))
}
