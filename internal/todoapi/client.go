package todoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/todos/internal/domain"
)

const userAgent = "todos/1.0"

// Client implements domain.TodoRepository against a REST collection resource.
// Every failure is returned to the caller; there are no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.TodoRepository = (*Client)(nil)

// NewClient creates a client for the collection at baseURL (e.g. https://host/todos).
// A zero timeout means requests run until the server answers or ctx ends.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// doRequest performs one request and returns the response body of a 2xx answer
func (c *Client) doRequest(ctx context.Context, method, path string, payload any, kinds statusKinds) ([]byte, error) {
	reqURL := c.baseURL + path

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("todo request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("todo request failed", "method", method, "url", reqURL, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", domain.ErrTransport, err)
	}

	c.logger.Debug("todo response", "method", method, "url", reqURL, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("todo request error", "method", method, "url", reqURL, "status", resp.StatusCode, "body", truncateBody(body))
		return nil, &StatusError{
			Method:     method,
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(bytes.TrimSpace(body)),
			Kind:       kinds.classify(resp.StatusCode),
		}
	}

	return body, nil
}

// decodeTodo parses a single todo object
func (c *Client) decodeTodo(body []byte) (domain.Todo, error) {
	var dto todoDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return domain.Todo{}, fmt.Errorf("%w: failed to parse response: %w", domain.ErrTransport, err)
	}
	return MapTodo(dto), nil
}

func itemPath(id string) string {
	return "/" + url.PathEscape(id)
}

// FetchAll returns the full current collection
func (c *Client) FetchAll(ctx context.Context) ([]domain.Todo, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "", nil, fetchStatuses)
	if err != nil {
		return nil, err
	}

	var dtos []todoDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("%w: failed to parse response: %w", domain.ErrTransport, err)
	}

	return MapTodos(dtos), nil
}

// Create submits a new incomplete todo and returns the server's copy
func (c *Client) Create(ctx context.Context, body string) (domain.Todo, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, "", createRequest{Body: body, Completed: false}, createStatuses)
	if err != nil {
		return domain.Todo{}, err
	}

	todo, err := c.decodeTodo(respBody)
	if err != nil {
		return domain.Todo{}, err
	}
	if todo.ID == "" {
		return domain.Todo{}, fmt.Errorf("%w: created todo has no id", domain.ErrTransport)
	}
	return todo, nil
}

// Update sends a partial update for an existing todo
func (c *Client) Update(ctx context.Context, id string, patch domain.Patch) (domain.Todo, error) {
	if id == "" {
		return domain.Todo{}, fmt.Errorf("%w: empty id", domain.ErrNotFound)
	}
	if patch.IsEmpty() {
		return domain.Todo{}, fmt.Errorf("%w: empty update", domain.ErrValidation)
	}

	respBody, err := c.doRequest(ctx, http.MethodPut, itemPath(id), toUpdateRequest(patch), updateStatuses)
	if err != nil {
		return domain.Todo{}, err
	}

	todo, err := c.decodeTodo(respBody)
	if err != nil {
		return domain.Todo{}, err
	}
	if todo.ID == "" {
		todo.ID = id
	}
	return todo, nil
}

// Delete removes a todo and returns its last known representation.
// When the server sends no body the requested id is returned.
func (c *Client) Delete(ctx context.Context, id string) (domain.Todo, error) {
	if id == "" {
		return domain.Todo{}, fmt.Errorf("%w: empty id", domain.ErrNotFound)
	}

	respBody, err := c.doRequest(ctx, http.MethodDelete, itemPath(id), nil, deleteStatuses)
	if err != nil {
		return domain.Todo{}, err
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return domain.Todo{ID: id}, nil
	}

	todo, err := c.decodeTodo(respBody)
	if err != nil {
		return domain.Todo{}, err
	}
	if todo.ID == "" {
		todo.ID = id
	}
	return todo, nil
}
