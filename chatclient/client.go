package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/LubyRuffy/kanbanchat/openaiapi"
)

const maxErrorBodyBytes = 8 << 10

// ErrNoBody 表示服务端返回成功状态但没有可读的流。
var ErrNoBody = errors.New("no stream body")

// StatusError 是服务端非成功状态。Message 取自 {"error": ...} 响应体，缺失时为 "Error <status>"。
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return fmt.Sprintf("Error %d", e.Status)
}

// ChatRequest 是 POST /chat 的请求体。
type ChatRequest struct {
	Messages []openaiapi.ChatMessage `json:"messages"`
	Tasks    []board.Summary         `json:"tasks"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient baseURL 形如 http://127.0.0.1:8080/api；httpClient 为 nil 时使用 &http.Client{}。
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// StreamChat 发送聊天请求，成功时返回 SSE 响应体，由调用方关闭。
func (c *Client) StreamChat(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodPost, "/chat", req, "text/event-stream")
	if err != nil {
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrNoBody
	}
	return resp.Body, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]board.Task, error) {
	var tasks []board.Task
	if err := c.doJSON(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, in board.TaskInput) (*board.Task, error) {
	var task board.Task
	if err := c.doJSON(ctx, http.MethodPost, "/tasks", in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, u board.TaskUpdate) (*board.Task, error) {
	var task board.Task
	if err := c.doJSON(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), u, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

// MoveTask 把任务移到 status 列。
func (c *Client) MoveTask(ctx context.Context, id, status string) (*board.Task, error) {
	var task board.Task
	body := map[string]string{"status": status}
	if err := c.doJSON(ctx, http.MethodPost, "/tasks/"+url.PathEscape(id)+"/move", body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ReorderTasks 把 ids 依次放入 status 列。
func (c *Client) ReorderTasks(ctx context.Context, status string, ids []string) error {
	body := map[string]any{"status": status, "ids": ids}
	return c.doJSON(ctx, http.MethodPost, "/tasks/reorder", body, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// do 发送请求；非 2xx 时读取错误体并返回 *StatusError。
func (c *Client) do(ctx context.Context, method, path string, body any, accept string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}
	defer resp.Body.Close()

	statusErr := &StatusError{Status: resp.StatusCode}
	var errBody openaiapi.ErrorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if json.Unmarshal(data, &errBody) == nil {
		statusErr.Message = errBody.Error
	}
	return nil, statusErr
}
