package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LubyRuffy/kanbanchat"
	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/LubyRuffy/kanbanchat/openaiapi"
)

type createTaskArgs struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	DueDate      string `json:"due_date"`
	TimeEstimate string `json:"time_estimate"`
	Status       string `json:"status"`
}

func (a createTaskArgs) taskInput(position int) board.TaskInput {
	return board.TaskInput{
		Title:        a.Title,
		Description:  &a.Description,
		Category:     &a.Category,
		DueDate:      &a.DueDate,
		TimeEstimate: &a.TimeEstimate,
		Status:       kanbanchat.NormalizeStatus(a.Status),
		Position:     position,
	}.Normalize()
}

// finalizeToolCall 执行累积到的 create_task 调用，每个请求最多调用一次。
func (r *Relay) finalizeToolCall(ctx context.Context, call *ToolCallAccumulator) *openaiapi.ChatChunk {
	if call == nil || !call.Seen() || call.Name() != kanbanchat.CreateTaskToolName {
		return nil
	}
	logger := r.cfg.Logger.WithField("tool", call.Name())

	var args createTaskArgs
	if err := json.Unmarshal([]byte(call.Arguments()), &args); err != nil {
		logger.WithField("kind", KindToolArgumentParse).WithError(err).Warn("failed to parse tool arguments")
		chunk := openaiapi.ContentChunk(fmt.Sprintf("❌ Error creating task: %v", err))
		return &chunk
	}

	in := args.taskInput(r.cfg.InitialPosition)
	if in.Category != nil && !kanbanchat.IsKnownCategory(*in.Category) {
		logger.WithField("category", *in.Category).Warn("tool call uses a category outside the known list")
	}
	task, err := r.cfg.Store.Insert(ctx, in)
	if err != nil {
		logger.WithField("kind", KindPersistence).WithError(err).Error("failed to persist task")
		chunk := openaiapi.ContentChunk(fmt.Sprintf("❌ Failed to create task: %s", err.Error()))
		return &chunk
	}

	logger.WithField("task_id", task.ID).Info("task created from chat")
	chunk := openaiapi.ContentChunk(ConfirmationMessage(in))
	chunk.Event = &openaiapi.BoardEvent{
		Type:   openaiapi.EventTaskCreated,
		TaskID: task.ID,
		Title:  task.Title,
		Status: task.Status,
	}
	return &chunk
}

// ConfirmationMessage 渲染任务创建成功后的确认文本。
func ConfirmationMessage(in board.TaskInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Created task **\"%s\"** in %s", in.Title, kanbanchat.ColumnName(in.Status))
	if in.Category != nil {
		fmt.Fprintf(&b, " (%s)", *in.Category)
	}
	if in.DueDate != nil {
		fmt.Fprintf(&b, " due %s", *in.DueDate)
	}
	b.WriteString(".")
	return b.String()
}
