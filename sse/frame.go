package sse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LubyRuffy/kanbanchat/openaiapi"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// DoneFrame 是流结束帧。
var DoneFrame = []byte("data: [DONE]\n\n")

type FrameKind int

const (
	// FrameSkip 空行或以 ':' 开头的注释行。
	FrameSkip FrameKind = iota
	// FrameRaw 非 data 行（例如 event:/id:）。
	FrameRaw
	// FrameDone data: [DONE]
	FrameDone
	// FrameData data 行，Payload 为去掉前缀并 trim 后的文本。
	FrameData
)

type Frame struct {
	Kind    FrameKind
	Line    string
	Payload string
}

// Classify 对一条完整行归类。
func Classify(line string) Frame {
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
		return Frame{Kind: FrameSkip, Line: line}
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return Frame{Kind: FrameRaw, Line: line}
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if payload == doneSentinel {
		return Frame{Kind: FrameDone, Line: line}
	}
	return Frame{Kind: FrameData, Line: line, Payload: payload}
}

type DeltaKind int

const (
	// DeltaNone 既无文本也无工具调用（例如只有 role 或 finish_reason 的 chunk）。
	DeltaNone DeltaKind = iota
	DeltaContent
	DeltaToolCalls
)

func (k DeltaKind) String() string {
	switch k {
	case DeltaContent:
		return "content"
	case DeltaToolCalls:
		return "tool_calls"
	default:
		return "none"
	}
}

// Delta 是一个 data 载荷的解析结果。Kind 决定哪个字段有效；tool_calls 优先于 content。
// Event 与 Kind 正交：relay 合成的确认 chunk 会同时携带文本与看板事件。
type Delta struct {
	Kind      DeltaKind
	Content   string
	ToolCalls []openaiapi.ToolCallDelta
	Event     *openaiapi.BoardEvent
}

// DecodeDelta 解析 data 载荷。返回的 error 只表示载荷不是合法 JSON，由调用方决定如何处理。
func DecodeDelta(payload string) (Delta, error) {
	var chunk openaiapi.ChatChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return Delta{}, fmt.Errorf("invalid sse payload: %w", err)
	}

	out := Delta{Kind: DeltaNone, Event: chunk.Event}
	if len(chunk.Choices) == 0 {
		return out, nil
	}
	delta := chunk.Choices[0].Delta
	switch {
	case delta.ToolCalls != nil:
		out.Kind = DeltaToolCalls
		out.ToolCalls = delta.ToolCalls
	case delta.Content != nil && *delta.Content != "":
		out.Kind = DeltaContent
		out.Content = *delta.Content
	}
	return out, nil
}

// Encode 把 chunk 编码为一个完整的 data 帧。
func Encode(chunk openaiapi.ChatChunk) ([]byte, error) {
	data, err := json.Marshal(chunk)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sse chunk: %w", err)
	}
	frame := make([]byte, 0, len(data)+len(dataPrefix)+3)
	frame = append(frame, "data: "...)
	frame = append(frame, data...)
	frame = append(frame, '\n', '\n')
	return frame, nil
}

// DataFrame 原样转发一条 data 行，补齐事件分隔空行。
func DataFrame(line string) []byte {
	return []byte(line + "\n\n")
}

// RawLine 原样转发一条非 data 行。
func RawLine(line string) []byte {
	return []byte(line + "\n")
}
