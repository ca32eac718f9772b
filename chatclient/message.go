package chatclient

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Greeting 是新会话的第一条助手消息。
const Greeting = "Hey! 👋 I'm your Kanban assistant. I can **create tasks** for you or give **productivity insights**. Try saying:\n\n- *\"Add a task to design the landing page by Friday\"*\n- *\"What's my workload look like?\"*"

const errorMessagePrefix = "Sorry, something went wrong: "

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Upsert 合并或追加助手消息：最后一条是紧跟用户消息的助手消息时，用 text 覆盖其内容；否则追加一条新的助手消息。
// text 是本轮累积的完整文本，而不是增量。
func Upsert(messages []Message, text string) []Message {
	n := len(messages)
	if n > 1 && messages[n-1].Role == RoleAssistant && messages[n-2].Role == RoleUser {
		out := append([]Message(nil), messages...)
		out[n-1].Content = text
		return out
	}
	return append(messages, Message{Role: RoleAssistant, Content: text})
}
