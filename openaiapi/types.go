package openaiapi

// ChatMessage 对话消息（仅文本内容）。
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool OpenAI 工具定义。
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction OpenAI 工具函数定义。
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatRequest 发往上游网关的聊天请求。
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Tools    []Tool        `json:"tools,omitempty"`
}

// ToolCallFunction 流式工具调用中的函数片段，name 通常只在第一个片段出现。
type ToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// ToolCallDelta 流式 delta 中的单个工具调用片段。
type ToolCallDelta struct {
	Index    int              `json:"index"`
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function ToolCallFunction `json:"function"`
}

// Delta 流式响应的 delta。
type Delta struct {
	Role      string          `json:"role,omitempty"`
	Content   *string         `json:"content,omitempty"` // 使用指针以便 omitempty 正确工作
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ChunkChoice 流式响应选项。
type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason,omitempty"`
}

// ChatChunk 流式响应块。
// Event 不属于 OpenAI 协议：relay 在合成的确认 chunk 上附带看板事件，客户端据此刷新看板。
type ChatChunk struct {
	ID      string        `json:"id,omitempty"`
	Object  string        `json:"object,omitempty"`
	Created int64         `json:"created,omitempty"`
	Model   string        `json:"model,omitempty"`
	Choices []ChunkChoice `json:"choices"`
	Event   *BoardEvent   `json:"kanban_event,omitempty"`
}

const EventTaskCreated = "task_created"

// BoardEvent 看板侧效事件。
type BoardEvent struct {
	Type   string `json:"type"`
	TaskID string `json:"task_id,omitempty"`
	Title  string `json:"title,omitempty"`
	Status string `json:"status,omitempty"`
}

// ErrorBody 流开始前失败时返回的 JSON 错误体。
type ErrorBody struct {
	Error string `json:"error"`
}

// ContentChunk 创建只含文本 delta 的 chunk：{choices:[{index:0,delta:{content}}]}。
func ContentChunk(content string) ChatChunk {
	return ChatChunk{
		Choices: []ChunkChoice{
			{
				Index: 0,
				Delta: Delta{Content: &content},
			},
		},
	}
}
