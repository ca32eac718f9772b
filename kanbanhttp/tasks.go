package kanbanhttp

import (
	"errors"
	"net/http"
	"strings"

	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type taskHandlers struct {
	store  board.Store
	logger logrus.FieldLogger
}

func (h *taskHandlers) list(c *gin.Context) {
	tasks, err := h.store.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if tasks == nil {
		tasks = []board.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *taskHandlers) create(c *gin.Context) {
	var in board.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c.Writer, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	task, err := h.store.Insert(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *taskHandlers) update(c *gin.Context) {
	var u board.TaskUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		writeError(c.Writer, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	task, err := h.store.Update(c.Request.Context(), c.Param("id"), u)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *taskHandlers) remove(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// move 把任务移到另一列；position 可选，缺省时保持原值。
func (h *taskHandlers) move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c.Writer, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	status := strings.TrimSpace(req.Status)
	task, err := h.store.Update(c.Request.Context(), c.Param("id"), board.TaskUpdate{
		Status:   &status,
		Position: req.Position,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *taskHandlers) reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c.Writer, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.store.Reorder(c.Request.Context(), req.Status, req.IDs); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *taskHandlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, board.ErrNotFound):
		writeError(c.Writer, http.StatusNotFound, err.Error())
	case errors.Is(err, board.ErrInvalidTask):
		writeError(c.Writer, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("task store failed")
		writeError(c.Writer, http.StatusInternalServerError, err.Error())
	}
}
