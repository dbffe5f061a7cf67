// Package googletasks implements the service.Service interface using Google Tasks API.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"tasksync/internal/config"
	"tasksync/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks requested per API page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	statusNeedsAction = "needsAction"
	statusCompleted   = "completed"
)

// Client implements service.Service on one Google Tasks list.
type Client struct {
	svc     *tasks.Service
	listID  string
	timeout time.Duration
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := LoadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg)
	if err != nil {
		return nil, err
	}

	// Token source refreshes on demand
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}

	return &Client{
		svc:     svc,
		listID:  listOrDefault(cfg.ListID),
		timeout: timeoutOrDefault(cfg.RequestTimeout),
	}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client and
// endpoint (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint, listID string) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc, listID: listOrDefault(listID), timeout: APITimeout}, nil
}

func listOrDefault(id string) string {
	if id == "" {
		return DefaultListID
	}
	return id
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return APITimeout
	}
	return d
}

// QueryAll returns the list's tasks with the requested statuses, in API order.
func (c *Client) QueryAll(ctx context.Context, statuses []service.Status) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	want := make(map[service.Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	// Completed tasks are hidden unless both flags are set.
	showCompleted := want[service.StatusCompleted]
	call := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(showCompleted).
		ShowHidden(showCompleted).
		ShowDeleted(false)

	var result []service.Task
	err := call.Pages(ctx, func(resp *tasks.Tasks) error {
		for _, t := range resp.Items {
			if t.Deleted {
				continue
			}
			task := service.Task{
				ID:     t.Id,
				Body:   t.Title,
				Status: fromAPIStatus(t.Status),
			}
			if want[task.Status] {
				result = append(result, task)
			}
		}
		return nil
	})
	if err != nil {
		return nil, service.NewRemoteError("query", "", wrapError(err))
	}

	return result, nil
}

// UpdateStatus patches a task's status.
func (c *Client) UpdateStatus(ctx context.Context, taskID string, status service.Status) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	patch := &tasks.Task{Status: toAPIStatus(status)}
	if status == service.StatusPending {
		// Clearing the completion date is what reopens a task.
		patch.NullFields = []string{"Completed"}
	}
	_, err := c.svc.Tasks.Patch(c.listID, taskID, patch).Context(ctx).Do()
	if err != nil {
		return service.NewRemoteError("update", taskID, wrapError(err))
	}
	return nil
}

// Delete deletes a task.
func (c *Client) Delete(ctx context.Context, taskID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.svc.Tasks.Delete(c.listID, taskID).Context(ctx).Do()
	if err != nil {
		return service.NewRemoteError("delete", taskID, wrapError(err))
	}
	return nil
}

// Create creates a new task in the list.
func (c *Client) Create(ctx context.Context, body string) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	created, err := c.svc.Tasks.Insert(c.listID, &tasks.Task{Title: body}).Context(ctx).Do()
	if err != nil {
		return service.Task{}, service.NewRemoteError("create", "", wrapError(err))
	}
	return service.Task{
		ID:     created.Id,
		Body:   created.Title,
		Status: fromAPIStatus(created.Status),
	}, nil
}

func fromAPIStatus(s string) service.Status {
	if s == statusCompleted {
		return service.StatusCompleted
	}
	return service.StatusPending
}

func toAPIStatus(s service.Status) string {
	if s == service.StatusCompleted {
		return statusCompleted
	}
	return statusNeedsAction
}

// wrapError classifies API errors into the service sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return service.ErrTimeout
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: token expired or revoked (run: tasksync login)", service.ErrUnauthorized)
		case http.StatusNotFound:
			return service.ErrNotFound
		case http.StatusServiceUnavailable, http.StatusBadGateway:
			return fmt.Errorf("%w: %s", service.ErrUnavailable, apiErr.Message)
		}
	}

	return err
}
