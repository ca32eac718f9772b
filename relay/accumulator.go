package relay

import (
	"strings"

	"github.com/LubyRuffy/kanbanchat/openaiapi"
)

// ToolCallAccumulator 跨多个 delta 累积单个工具调用：函数名取第一个非空值，参数片段按序拼接。
type ToolCallAccumulator struct {
	name      string
	arguments strings.Builder
	seen      bool
}

func (a *ToolCallAccumulator) Add(calls []openaiapi.ToolCallDelta) {
	a.seen = true
	for _, call := range calls {
		if a.name == "" {
			a.name = strings.TrimSpace(call.Function.Name)
		}
		a.arguments.WriteString(call.Function.Arguments)
	}
}

// Seen 是否收到过任何 tool_calls delta。
func (a *ToolCallAccumulator) Seen() bool { return a.seen }

func (a *ToolCallAccumulator) Name() string { return a.name }

func (a *ToolCallAccumulator) Arguments() string { return a.arguments.String() }
