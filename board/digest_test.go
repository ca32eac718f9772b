package board

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigest_Empty(t *testing.T) {
	require.Equal(t, EmptyBoardDigest, Digest(nil))
}

func TestDigest_OmitsAbsentFields(t *testing.T) {
	got := Digest([]Summary{
		{Title: "Landing page", Status: "todo", Category: "Design", DueDate: "2025-03-01", TimeEstimate: "3h"},
		{Title: "Fix login", Status: "in_progress", TimeEstimate: "1h"},
		{Title: "Write blog", Status: "todo", Category: "Marketing", DueDate: "2025-03-07"},
	})
	require.Equal(t, ""+
		"- [todo] \"Landing page\" (Design, due 2025-03-01, est. 3h)\n"+
		"- [in_progress] \"Fix login\" (No category, est. 1h)\n"+
		"- [todo] \"Write blog\" (Marketing, due 2025-03-07)", got)
}

func TestTaskInput_NormalizeAndValidate(t *testing.T) {
	blank := "  "
	cat := " Data "
	in := TaskInput{Title: " Report ", Description: &blank, Category: &cat}.Normalize()
	require.NoError(t, in.Validate())
	require.Equal(t, "Report", in.Title)
	require.Nil(t, in.Description)
	require.Equal(t, "Data", *in.Category)
	require.Equal(t, "todo", in.Status)

	require.ErrorIs(t, TaskInput{}.Normalize().Validate(), ErrInvalidTask)
	require.ErrorIs(t, TaskInput{Title: "x", Status: "done"}.Validate(), ErrInvalidTask)
}

func TestTaskUpdate_Fields(t *testing.T) {
	empty := ""
	status := "in_progress"
	pos := 0
	fields := TaskUpdate{Description: &empty, Status: &status, Position: &pos}.Fields()
	require.Equal(t, map[string]any{
		"description": nil,
		"status":      "in_progress",
		"position":    0,
	}, fields)
}
