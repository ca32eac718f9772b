package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LubyRuffy/kanbanchat"
)

var (
	ErrNotFound    = errors.New("task not found")
	ErrInvalidTask = errors.New("invalid task")
)

// Task 是持久化的看板任务。可选字段为 nil 时按 null 存储。
type Task struct {
	ID           string    `gorm:"primaryKey;type:text" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Description  *string   `json:"description"`
	Status       string    `gorm:"not null;default:todo;index" json:"status"`
	Category     *string   `json:"category"`
	DueDate      *string   `json:"due_date"`
	TimeEstimate *string   `json:"time_estimate"`
	Position     int       `gorm:"not null;default:0;index" json:"position"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }

// Summary 返回用于 prompt 上下文的任务摘要。
func (t Task) Summary() Summary {
	return Summary{
		Title:        t.Title,
		Status:       t.Status,
		Category:     deref(t.Category),
		DueDate:      deref(t.DueDate),
		TimeEstimate: deref(t.TimeEstimate),
	}
}

// TaskInput 是创建任务的载荷（create_task 工具参数与 POST /tasks 共用）。
type TaskInput struct {
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
	TimeEstimate *string `json:"time_estimate,omitempty"`
	Status       string  `json:"status,omitempty"`
	Position     int     `json:"position"`
}

// Normalize 清洗载荷：空白可选字段置 nil，status 为空时默认 todo。
func (in TaskInput) Normalize() TaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = optional(in.Description)
	in.Category = optional(in.Category)
	in.DueDate = optional(in.DueDate)
	in.TimeEstimate = optional(in.TimeEstimate)
	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" {
		in.Status = kanbanchat.StatusTodo
	}
	return in
}

func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if in.Status != "" && !kanbanchat.IsValidStatus(in.Status) {
		return fmt.Errorf("%w: unsupported status %q", ErrInvalidTask, in.Status)
	}
	return nil
}

// TaskUpdate 是部分更新；nil 字段保持不变。
type TaskUpdate struct {
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
	TimeEstimate *string `json:"time_estimate,omitempty"`
	Status       *string `json:"status,omitempty"`
	Position     *int    `json:"position,omitempty"`
}

func (u TaskUpdate) Validate() error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if u.Status != nil && !kanbanchat.IsValidStatus(*u.Status) {
		return fmt.Errorf("%w: unsupported status %q", ErrInvalidTask, *u.Status)
	}
	return nil
}

// Fields 返回需要写入的列；可选文本字段传空串表示清空（写 null）。
func (u TaskUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	if u.Title != nil {
		fields["title"] = strings.TrimSpace(*u.Title)
	}
	setOptional := func(column string, v *string) {
		if v == nil {
			return
		}
		if cleaned := optional(v); cleaned != nil {
			fields[column] = *cleaned
		} else {
			fields[column] = nil
		}
	}
	setOptional("description", u.Description)
	setOptional("category", u.Category)
	setOptional("due_date", u.DueDate)
	setOptional("time_estimate", u.TimeEstimate)
	if u.Status != nil {
		fields["status"] = strings.TrimSpace(*u.Status)
	}
	if u.Position != nil {
		fields["position"] = *u.Position
	}
	return fields
}

// Store 是任务持久化契约。
type Store interface {
	Insert(ctx context.Context, in TaskInput) (*Task, error)
	// List 按 position 升序返回全部任务（position 相同时按创建时间）。
	List(ctx context.Context) ([]Task, error)
	Update(ctx context.Context, id string, u TaskUpdate) (*Task, error)
	Delete(ctx context.Context, id string) error
	// Reorder 把 ids 依次放入 status 列，position 从 0 开始。
	Reorder(ctx context.Context, status string, ids []string) error
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
