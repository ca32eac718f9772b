package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxPostgRESTErrBytes = 8 << 10

// PostgRESTConfig 托管后端（PostgREST/Supabase REST）配置。
type PostgRESTConfig struct {
	// BaseURL 项目地址，例如 https://xyz.supabase.co；请求路径为 <BaseURL>/rest/v1/<Table>。
	BaseURL string
	// APIKey 同时作为 apikey 头与 Bearer token 发送。
	APIKey string
	// Table 默认 "tasks"。
	Table string
	// HTTPClient 可选，nil 时内部使用 &http.Client{}。
	HTTPClient *http.Client
}

// PostgRESTStore 通过 REST 接口读写托管后端中的 tasks 表。
type PostgRESTStore struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewPostgRESTStore(cfg PostgRESTConfig) (*PostgRESTStore, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("postgrest base url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("postgrest api key is required")
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		table = "tasks"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &PostgRESTStore{
		endpoint: base + "/rest/v1/" + url.PathEscape(table),
		apiKey:   strings.TrimSpace(cfg.APIKey),
		client:   client,
	}, nil
}

type postgrestRow struct {
	Title        string  `json:"title"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	DueDate      *string `json:"due_date"`
	TimeEstimate *string `json:"time_estimate"`
	Status       string  `json:"status"`
	Position     int     `json:"position"`
}

func (s *PostgRESTStore) Insert(ctx context.Context, in TaskInput) (*Task, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	row := postgrestRow{
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		DueDate:      in.DueDate,
		TimeEstimate: in.TimeEstimate,
		Status:       in.Status,
		Position:     in.Position,
	}
	var out []Task
	if err := s.do(ctx, http.MethodPost, nil, row, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("postgrest: insert returned no rows")
	}
	return &out[0], nil
}

func (s *PostgRESTStore) List(ctx context.Context) ([]Task, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "position.asc,created_at.asc")
	var out []Task
	if err := s.do(ctx, http.MethodGet, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgRESTStore) Update(ctx context.Context, id string, u TaskUpdate) (*Task, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	var out []Task
	if err := s.do(ctx, http.MethodPatch, idFilter(id), u.Fields(), &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *PostgRESTStore) Delete(ctx context.Context, id string) error {
	var out []Task
	if err := s.do(ctx, http.MethodDelete, idFilter(id), nil, &out); err != nil {
		return err
	}
	if len(out) == 0 {
		return ErrNotFound
	}
	return nil
}

// Reorder 逐条 PATCH；PostgREST 没有批量按序更新的原语。
func (s *PostgRESTStore) Reorder(ctx context.Context, status string, ids []string) error {
	for i, id := range ids {
		pos := i
		if _, err := s.Update(ctx, id, TaskUpdate{Status: &status, Position: &pos}); err != nil {
			return fmt.Errorf("failed to reorder task %s: %w", id, err)
		}
	}
	return nil
}

func idFilter(id string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	return q
}

type postgrestError struct {
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
	Code    string `json:"code"`
}

func (s *PostgRESTStore) do(ctx context.Context, method string, query url.Values, body any, out any) error {
	target := s.endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode postgrest request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build postgrest request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("postgrest request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxPostgRESTErrBytes))
		var pgErr postgrestError
		if json.Unmarshal(raw, &pgErr) == nil && strings.TrimSpace(pgErr.Message) != "" {
			return fmt.Errorf("postgrest: %s", pgErr.Message)
		}
		return fmt.Errorf("postgrest request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode postgrest response: %w", err)
	}
	return nil
}
