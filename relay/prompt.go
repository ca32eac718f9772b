package relay

import (
	"fmt"
	"strings"

	"github.com/LubyRuffy/kanbanchat"
	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/LubyRuffy/kanbanchat/openaiapi"
	"github.com/cloudwego/eino/schema"
)

const systemPromptTemplate = `You are a helpful Kanban board AI assistant. You help users manage their tasks and provide productivity insights.

Current board state:
%s

You can do two things:
1. **Create tasks**: When the user asks to add/create a task, use the create_task tool. Extract title, description, category (%s), due_date (YYYY-MM-DD format), time_estimate (e.g. "3h"), and status (todo or in_progress, default: todo).
2. **Productivity insights**: Analyze the board and give helpful summaries, suggestions, or answer questions about workload.

Keep responses concise, friendly, and actionable. Use markdown formatting.`

// SystemPrompt 渲染包含看板摘要的系统指令。
func SystemPrompt(tasks []board.Summary) string {
	return fmt.Sprintf(systemPromptTemplate, board.Digest(tasks), strings.Join(kanbanchat.Categories(), "/"))
}

// CreateTaskTool 返回唯一挂载到网关请求上的工具定义。
func CreateTaskTool() openaiapi.Tool {
	return openaiapi.Tool{
		Type: "function",
		Function: openaiapi.ToolFunction{
			Name:        kanbanchat.CreateTaskToolName,
			Description: "Create a new task on the Kanban board",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string", "description": "Task title"},
					"description": map[string]any{"type": "string", "description": "Task description"},
					"category": map[string]any{
						"type":        "string",
						"enum":        kanbanchat.Categories(),
						"description": "Task category",
					},
					"due_date":      map[string]any{"type": "string", "description": "Due date in YYYY-MM-DD format"},
					"time_estimate": map[string]any{"type": "string", "description": "Time estimate like 2h, 5h"},
					"status": map[string]any{
						"type":        "string",
						"enum":        kanbanchat.Statuses(),
						"description": "Which column: todo or in_progress",
					},
				},
				"required":             []string{"title"},
				"additionalProperties": false,
			},
		},
	}
}

// ChatInput 是客户端发往 relay 的请求体。
type ChatInput struct {
	Messages []openaiapi.ChatMessage `json:"messages"`
	Tasks    []board.Summary         `json:"tasks"`
}

func buildConversation(in ChatInput) ([]*schema.Message, error) {
	if len(in.Messages) == 0 {
		return nil, fmt.Errorf("messages is required")
	}

	out := make([]*schema.Message, 0, len(in.Messages)+1)
	out = append(out, schema.SystemMessage(SystemPrompt(in.Tasks)))
	for _, msg := range in.Messages {
		role := strings.TrimSpace(msg.Role)
		switch role {
		case "":
			return nil, fmt.Errorf("message role is required")
		case string(schema.User):
			out = append(out, schema.UserMessage(msg.Content))
		case string(schema.Assistant):
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		default:
			return nil, fmt.Errorf("unsupported role: %s", role)
		}
	}
	return out, nil
}

func gatewayMessages(conversation []*schema.Message) []openaiapi.ChatMessage {
	out := make([]openaiapi.ChatMessage, 0, len(conversation))
	for _, msg := range conversation {
		if msg == nil {
			continue
		}
		out = append(out, openaiapi.ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}
	return out
}
