package relay_test

import (
	"testing"

	"github.com/LubyRuffy/kanbanchat"
	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/LubyRuffy/kanbanchat/openaiapi"
	"github.com/LubyRuffy/kanbanchat/relay"
	"github.com/stretchr/testify/require"
)

func TestSystemPrompt_EmptyBoard(t *testing.T) {
	prompt := relay.SystemPrompt(nil)
	require.Contains(t, prompt, board.EmptyBoardDigest)
	require.Contains(t, prompt, "Design/Development/Marketing/Data/Media")
}

func TestSystemPrompt_ListsTasks(t *testing.T) {
	prompt := relay.SystemPrompt([]board.Summary{
		{Title: "Logo", Status: "in_progress", DueDate: "2025-02-01", TimeEstimate: "2h"},
	})
	require.Contains(t, prompt, `- [in_progress] "Logo" (No category, due 2025-02-01, est. 2h)`)
}

func TestCreateTaskTool_Schema(t *testing.T) {
	tool := relay.CreateTaskTool()
	require.Equal(t, "function", tool.Type)
	require.Equal(t, kanbanchat.CreateTaskToolName, tool.Function.Name)
	require.Equal(t, []string{"title"}, tool.Function.Parameters["required"])
	require.Equal(t, false, tool.Function.Parameters["additionalProperties"])

	props := tool.Function.Parameters["properties"].(map[string]any)
	status := props["status"].(map[string]any)
	require.Equal(t, kanbanchat.Statuses(), status["enum"])
	category := props["category"].(map[string]any)
	require.Equal(t, kanbanchat.Categories(), category["enum"])
}

func TestConfirmationMessage(t *testing.T) {
	category := "Media"
	require.Equal(t, `✅ Created task **"Edit video"** in To-Do (Media).`, relay.ConfirmationMessage(board.TaskInput{
		Title:    "Edit video",
		Status:   kanbanchat.StatusTodo,
		Category: &category,
	}))
}

func TestToolCallAccumulator_FirstNameWins(t *testing.T) {
	var acc relay.ToolCallAccumulator
	require.False(t, acc.Seen())

	acc.Add([]openaiapi.ToolCallDelta{{Function: openaiapi.ToolCallFunction{Name: "create_task", Arguments: `{"ti`}}})
	acc.Add([]openaiapi.ToolCallDelta{{Function: openaiapi.ToolCallFunction{Name: "other", Arguments: `tle":"A"}`}}})

	require.True(t, acc.Seen())
	require.Equal(t, "create_task", acc.Name())
	require.Equal(t, `{"title":"A"}`, acc.Arguments())
}
