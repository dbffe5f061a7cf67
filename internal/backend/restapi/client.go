// Package restapi implements service.Service against a JSON todo server
// speaking the success/error envelope:
//
//	{"status":"success","data":...}
//	{"status":"error","code":"NOT_FOUND","error":"todo not found"}
package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"tasksync/internal/service"
)

const (
	// DefaultTimeout is the timeout for API calls.
	DefaultTimeout = 5 * time.Second

	todosPath = "/api/v1/todos"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the server root, e.g. http://localhost:3000.
	BaseURL string

	// Token is sent as a bearer token when non-empty.
	Token string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// Dial overrides how connections are made (for testing).
	Dial func(addr string) (net.Conn, error)
}

// Client implements service.Service over HTTP.
type Client struct {
	http    *fasthttp.Client
	base    string
	token   string
	timeout time.Duration
}

// New creates a REST client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url: %q", opts.BaseURL)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := &fasthttp.Client{
		Name:                "tasksync",
		ReadTimeout:         timeout,
		WriteTimeout:        timeout,
		MaxIdleConnDuration: 30 * time.Second,
	}
	if opts.Dial != nil {
		hc.Dial = opts.Dial
	}
	return &Client{
		http:    hc,
		base:    strings.TrimRight(u.String(), "/"),
		token:   opts.Token,
		timeout: timeout,
	}, nil
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// todo is the wire form of a task. Servers use numeric or string ids.
type todo struct {
	ID     wireID `json:"id"`
	Body   string `json:"body"`
	Status string `json:"status"`
}

type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("todo id: %w", err)
	}
	*id = wireID(n.String())
	return nil
}

func (t todo) task() (service.Task, error) {
	status, err := service.ParseStatus(t.Status)
	if err != nil {
		return service.Task{}, err
	}
	return service.Task{ID: string(t.ID), Body: t.Body, Status: status}, nil
}

// QueryAll implements service.Service.
func (c *Client) QueryAll(ctx context.Context, statuses []service.Status) ([]service.Task, error) {
	query := make([][2]string, 0, len(statuses))
	for _, s := range statuses {
		query = append(query, [2]string{"status", string(s)})
	}

	var todos []todo
	if err := c.do(ctx, fasthttp.MethodGet, todosPath, query, nil, &todos); err != nil {
		return nil, service.NewRemoteError("query", "", err)
	}

	result := make([]service.Task, 0, len(todos))
	for _, t := range todos {
		task, err := t.task()
		if err != nil {
			return nil, service.NewRemoteError("query", string(t.ID), err)
		}
		result = append(result, task)
	}
	return result, nil
}

// UpdateStatus implements service.Service.
func (c *Client) UpdateStatus(ctx context.Context, taskID string, status service.Status) error {
	path := todosPath + "/" + url.PathEscape(taskID) + "/status"
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, fasthttp.MethodPatch, path, nil, body, nil); err != nil {
		return service.NewRemoteError("update", taskID, err)
	}
	return nil
}

// Delete implements service.Service.
func (c *Client) Delete(ctx context.Context, taskID string) error {
	path := todosPath + "/" + url.PathEscape(taskID)
	if err := c.do(ctx, fasthttp.MethodDelete, path, nil, nil, nil); err != nil {
		return service.NewRemoteError("delete", taskID, err)
	}
	return nil
}

// Create implements service.Service.
func (c *Client) Create(ctx context.Context, body string) (service.Task, error) {
	var created todo
	if err := c.do(ctx, fasthttp.MethodPost, todosPath, nil, map[string]string{"body": body}, &created); err != nil {
		return service.Task{}, service.NewRemoteError("create", "", err)
	}
	task, err := created.task()
	if err != nil {
		return service.Task{}, service.NewRemoteError("create", string(created.ID), err)
	}
	return task, nil
}

func (c *Client) do(ctx context.Context, method, path string, query [][2]string, in, out any) error {
	if err := ctx.Err(); err != nil {
		return classifyTransport(err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.base + path)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	args := req.URI().QueryArgs()
	for _, kv := range query {
		args.Add(kv[0], kv[1])
	}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return classifyTransport(err)
	}

	return decode(resp.StatusCode(), resp.Body(), out)
}

func decode(code int, body []byte, out any) error {
	var env envelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil && code < 300 {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	if code >= 300 || (env.Status != "" && env.Status != "success") {
		msg := errorMessage(env.Error)
		if msg == "" {
			msg = "HTTP " + strconv.Itoa(code)
		}
		switch {
		case code == fasthttp.StatusUnauthorized || code == fasthttp.StatusForbidden || env.Code == "UNAUTHORIZED" || env.Code == "FORBIDDEN":
			return fmt.Errorf("%w: %s", service.ErrUnauthorized, msg)
		case code == fasthttp.StatusNotFound || env.Code == "NOT_FOUND":
			return fmt.Errorf("%w: %s", service.ErrNotFound, msg)
		case code == fasthttp.StatusServiceUnavailable || code == fasthttp.StatusBadGateway:
			return fmt.Errorf("%w: %s", service.ErrUnavailable, msg)
		default:
			return errors.New(msg)
		}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// errorMessage accepts either a string or an object with a message field.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return string(raw)
}

func classifyTransport(err error) error {
	switch {
	case errors.Is(err, fasthttp.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return service.ErrTimeout
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", service.ErrUnavailable, err)
	}
}
