package kanbanhttp

import (
	"fmt"
	"net/http"

	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/LubyRuffy/kanbanchat/relay"
	"github.com/sirupsen/logrus"
)

type resolvedConfig struct {
	BasePath string
	Relay    *relay.Relay
	Store    board.Store
	Logger   logrus.FieldLogger
}

func resolveConfig(cfg Config) (resolvedConfig, error) {
	if cfg.Relay == nil {
		return resolvedConfig{}, fmt.Errorf("Relay is required")
	}
	if cfg.Store == nil {
		return resolvedConfig{}, fmt.Errorf("Store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return resolvedConfig{
		BasePath: normalizeBasePath(cfg.BasePath),
		Relay:    cfg.Relay,
		Store:    cfg.Store,
		Logger:   logger,
	}, nil
}

// Handlers 返回 net/http 形式的聊天处理器（含 CORS 预检）。任务端点依赖路径参数，只通过 RegisterGinRoutes 提供。
func Handlers(cfg Config) (chatHandler http.HandlerFunc, err error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	h := &chatHandlers{relay: resolved.Relay, logger: resolved.Logger}
	return h.handleChat, nil
}
