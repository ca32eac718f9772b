package board

import (
	"fmt"
	"strings"
)

// EmptyBoardDigest 是看板为空时的占位文本。
const EmptyBoardDigest = "No tasks on the board yet."

// Summary 是客户端随聊天请求上送的任务摘要。
type Summary struct {
	Title        string `json:"title"`
	Status       string `json:"status"`
	Category     string `json:"category,omitempty"`
	DueDate      string `json:"due_date,omitempty"`
	TimeEstimate string `json:"time_estimate,omitempty"`
}

// Digest 渲染任务摘要，每个任务一行：
//
//	- [status] "title" (category, due 2025-01-31, est. 3h)
func Digest(tasks []Summary) string {
	if len(tasks) == 0 {
		return EmptyBoardDigest
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		category := strings.TrimSpace(t.Category)
		if category == "" {
			category = "No category"
		}
		var b strings.Builder
		b.WriteString(category)
		if due := strings.TrimSpace(t.DueDate); due != "" {
			b.WriteString(", due ")
			b.WriteString(due)
		}
		if est := strings.TrimSpace(t.TimeEstimate); est != "" {
			b.WriteString(", est. ")
			b.WriteString(est)
		}
		lines = append(lines, fmt.Sprintf("- [%s] \"%s\" (%s)", t.Status, t.Title, b.String()))
	}
	return strings.Join(lines, "\n")
}

// Summaries 把任务列表转换为摘要列表。
func Summaries(tasks []Task) []Summary {
	out := make([]Summary, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Summary())
	}
	return out
}
