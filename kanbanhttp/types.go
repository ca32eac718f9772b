package kanbanhttp

import (
	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/LubyRuffy/kanbanchat/relay"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// BasePath 仅用于 Gin 注册路由时拼接路径，默认 "/api"。
	BasePath string
	// Relay 必填：聊天端点的流转换器。
	Relay *relay.Relay
	// Store 必填：任务端点的持久化。
	Store board.Store
	// Logger 可选，nil 时使用 logrus 标准 logger。
	Logger logrus.FieldLogger
}

// moveRequest 是 POST /tasks/:id/move 的请求体。
type moveRequest struct {
	Status   string `json:"status"`
	Position *int   `json:"position,omitempty"`
}

// reorderRequest 是 POST /tasks/reorder 的请求体：ids 依次落入 status 列。
type reorderRequest struct {
	Status string   `json:"status"`
	IDs    []string `json:"ids"`
}
