package kanbanchat

import "strings"

const (
	// DefaultGatewayURL 是 OpenAI 兼容 chat.completions 网关的默认地址。
	DefaultGatewayURL = "https://ai.gateway.lovable.dev/v1/chat/completions"
	// DefaultModel 是转发给网关时使用的默认模型。
	DefaultModel = "google/gemini-3-flash-preview"

	StatusTodo       = "todo"
	StatusInProgress = "in_progress"

	// CreateTaskToolName 是唯一被 relay 识别并执行的工具名。
	CreateTaskToolName = "create_task"
)

var categories = []string{"Design", "Development", "Marketing", "Data", "Media"}

var columnNames = map[string]string{
	StatusTodo:       "To-Do",
	StatusInProgress: "In Progress",
}

// Categories 返回内置的任务分类（顺序固定，用于工具 schema 的 enum）。
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// Statuses 返回看板列对应的状态取值。
func Statuses() []string {
	return []string{StatusTodo, StatusInProgress}
}

// IsKnownCategory 判断分类是否在内置列表中（大小写敏感，与工具 schema 保持一致）。
func IsKnownCategory(category string) bool {
	category = strings.TrimSpace(category)
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}

func IsValidStatus(status string) bool {
	_, ok := columnNames[strings.TrimSpace(status)]
	return ok
}

// NormalizeStatus 清洗状态值；空值与未知值都回落到 todo。
func NormalizeStatus(status string) string {
	trimmed := strings.TrimSpace(status)
	if IsValidStatus(trimmed) {
		return trimmed
	}
	return StatusTodo
}

// ColumnName 返回状态对应的看板列展示名。
func ColumnName(status string) string {
	return columnNames[NormalizeStatus(status)]
}
