package chatclient

import (
	"strings"

	"github.com/LubyRuffy/kanbanchat/openaiapi"
	"github.com/LubyRuffy/kanbanchat/sse"
)

// Consumer 增量解析 relay 的 SSE 响应，不可并发使用。
//
// 与 relay 不同，data 载荷解析失败时整行放回缓冲区并停止本轮解析，等待更多字节；
// 若该行永远无法解析，其后的内容会一直停留在缓冲区，直到 Flush 逐行尝试。
type Consumer struct {
	lines    sse.Splitter
	text     strings.Builder
	toolSeen bool
	event    *openaiapi.BoardEvent
	done     bool
}

// Feed 追加响应字节，返回本次解析出的文本片段（按到达顺序）。
func (c *Consumer) Feed(p []byte) []string {
	if c.done {
		return nil
	}
	c.lines.Write(p)

	var fragments []string
	for !c.done {
		line, ok := c.lines.Next()
		if !ok {
			break
		}
		content, complete := c.handleLine(line)
		if !complete {
			c.lines.Unread(line)
			break
		}
		if content != "" {
			fragments = append(fragments, content)
		}
	}
	return fragments
}

// Flush 在响应结束后处理缓冲区剩余内容（最后一块可能没有换行），无法解析的行直接丢弃。
func (c *Consumer) Flush() []string {
	rest := c.lines.Rest()
	c.lines.Reset()
	if c.done || strings.TrimSpace(rest) == "" {
		return nil
	}

	var fragments []string
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if frame := sse.Classify(line); frame.Kind == sse.FrameDone {
			continue
		}
		if content, _ := c.handleLine(line); content != "" {
			fragments = append(fragments, content)
		}
	}
	return fragments
}

// handleLine 返回 complete=false 表示 data 载荷暂不可解析。
func (c *Consumer) handleLine(line string) (content string, complete bool) {
	frame := sse.Classify(line)
	switch frame.Kind {
	case sse.FrameDone:
		c.done = true
		return "", true
	case sse.FrameData:
	default:
		return "", true
	}

	delta, err := sse.DecodeDelta(frame.Payload)
	if err != nil {
		return "", false
	}
	if delta.Event != nil && c.event == nil {
		c.event = delta.Event
	}
	switch delta.Kind {
	case sse.DeltaToolCalls:
		c.toolSeen = true
	case sse.DeltaContent:
		c.text.WriteString(delta.Content)
		return delta.Content, true
	}
	return "", true
}

// AssistantText 返回目前累积的助手文本。
func (c *Consumer) AssistantText() string { return c.text.String() }

// ToolCallSeen 是否直接观察到 tool_calls 片段（正常情况下 relay 会拦截）。
func (c *Consumer) ToolCallSeen() bool { return c.toolSeen }

// Event 返回 relay 附带的第一个看板事件。
func (c *Consumer) Event() *openaiapi.BoardEvent { return c.event }

// Done 是否已读到 [DONE]。
func (c *Consumer) Done() bool { return c.done }

// TaskCreated 判定本轮对话是否创建了任务：显式事件或 tool_calls 信号优先；
// heuristic 为 true 时，文本包含 created/added（不区分大小写）也视为创建。
func TaskCreated(toolSeen bool, event *openaiapi.BoardEvent, text string, heuristic bool) bool {
	if event != nil && event.Type == openaiapi.EventTaskCreated {
		return true
	}
	if toolSeen {
		return true
	}
	if !heuristic {
		return false
	}
	lower := strings.ToLower(text)
	return strings.Contains(lower, "created") || strings.Contains(lower, "added")
}
