package relay

import (
	"context"
	"strings"

	"github.com/LubyRuffy/kanbanchat/openaiapi"
	"github.com/LubyRuffy/kanbanchat/sse"
	"github.com/sirupsen/logrus"
)

// IncompleteToolCallMessage 是上游在 [DONE] 之前中断、工具调用被丢弃时注入的消息。
const IncompleteToolCallMessage = "❌ Error creating task: the response ended before the task details were complete."

// Emitter 把一个完整帧写往下游；返回错误会终止转换。
type Emitter func(frame []byte) error

// Finalizer 在 [DONE] 时被调用一次，返回需要注入的 chunk；nil 表示无需注入。
type Finalizer func(ctx context.Context, call *ToolCallAccumulator) *openaiapi.ChatChunk

// Transformer 是单个请求的流转换状态机，不可并发使用。
type Transformer struct {
	lines    sse.Splitter
	call     ToolCallAccumulator
	finalize Finalizer
	logger   logrus.FieldLogger
	done     bool
}

func NewTransformer(finalize Finalizer, logger logrus.FieldLogger) *Transformer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Transformer{finalize: finalize, logger: logger}
}

// Done 是否已经输出过 [DONE]。
func (t *Transformer) Done() bool { return t.done }

// Feed 追加上游字节并处理其中所有完整行。输出 [DONE] 之后的字节会被忽略。
func (t *Transformer) Feed(ctx context.Context, p []byte, emit Emitter) error {
	if t.done {
		return nil
	}
	t.lines.Write(p)
	for !t.done {
		line, ok := t.lines.Next()
		if !ok {
			return nil
		}
		if err := t.handleLine(ctx, line, emit); err != nil {
			return err
		}
	}
	return nil
}

// Close 在上游结束或读失败时调用：处理残留半行；若仍未见到 [DONE]，不执行工具调用，
// 只在收到过 create_task 片段时注入一条错误消息，然后输出 [DONE]。
func (t *Transformer) Close(ctx context.Context, emit Emitter) error {
	if t.done {
		return nil
	}
	rest := t.lines.Rest()
	t.lines.Reset()
	if strings.TrimSpace(rest) != "" {
		if err := t.handleLine(ctx, strings.TrimSuffix(rest, "\r"), emit); err != nil {
			return err
		}
	}
	if t.done {
		return nil
	}
	return t.abort(emit)
}

func (t *Transformer) abort(emit Emitter) error {
	t.done = true
	if t.call.Seen() {
		t.logger.WithFields(logrus.Fields{
			"kind": KindUpstreamService,
			"tool": t.call.Name(),
		}).Warn("upstream ended before [DONE], tool call discarded")
		frame, err := sse.Encode(openaiapi.ContentChunk(IncompleteToolCallMessage))
		if err != nil {
			return err
		}
		if err := emit(frame); err != nil {
			return err
		}
	}
	return emit(sse.DoneFrame)
}

func (t *Transformer) handleLine(ctx context.Context, line string, emit Emitter) error {
	frame := sse.Classify(line)
	switch frame.Kind {
	case sse.FrameSkip:
		return nil
	case sse.FrameRaw:
		return emit(sse.RawLine(line))
	case sse.FrameDone:
		return t.finish(ctx, emit)
	}

	delta, err := sse.DecodeDelta(frame.Payload)
	if err != nil {
		t.logger.WithField("kind", KindMalformedFrame).Debugf("forward malformed frame as-is: %v", err)
		return emit(sse.DataFrame(line))
	}
	switch delta.Kind {
	case sse.DeltaToolCalls:
		t.call.Add(delta.ToolCalls)
		return nil
	case sse.DeltaContent:
		return emit(sse.DataFrame(line))
	default:
		return nil
	}
}

func (t *Transformer) finish(ctx context.Context, emit Emitter) error {
	t.done = true
	if t.finalize != nil {
		if chunk := t.finalize(ctx, &t.call); chunk != nil {
			frame, err := sse.Encode(*chunk)
			if err != nil {
				return err
			}
			if err := emit(frame); err != nil {
				return err
			}
		}
	}
	return emit(sse.DoneFrame)
}
