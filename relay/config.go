package relay

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/LubyRuffy/kanbanchat"
	"github.com/LubyRuffy/kanbanchat/auth"
	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// GatewayURL chat.completions 端点地址，默认 kanbanchat.DefaultGatewayURL。
	GatewayURL string
	// Model 默认 kanbanchat.DefaultModel。
	Model string
	// HTTPClient 可选，nil 时内部使用 &http.Client{}（不设超时）。
	HTTPClient *http.Client
	// Credentials 必填：每次请求读取网关 API key。
	Credentials auth.Provider
	// Store 必填：create_task 的落库目标。
	Store board.Store
	// Logger 可选，nil 时使用 logrus 标准 logger。
	Logger logrus.FieldLogger
	// InitialPosition 新建任务的 position。
	InitialPosition int
}

type resolvedConfig struct {
	GatewayURL      string
	Model           string
	HTTPClient      *http.Client
	Credentials     auth.Provider
	Store           board.Store
	Logger          logrus.FieldLogger
	InitialPosition int
}

func resolveConfig(cfg Config) (resolvedConfig, error) {
	if cfg.Credentials == nil {
		return resolvedConfig{}, fmt.Errorf("Credentials is required")
	}
	if cfg.Store == nil {
		return resolvedConfig{}, fmt.Errorf("Store is required")
	}

	gatewayURL := strings.TrimSpace(cfg.GatewayURL)
	if gatewayURL == "" {
		gatewayURL = kanbanchat.DefaultGatewayURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = kanbanchat.DefaultModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return resolvedConfig{
		GatewayURL:      gatewayURL,
		Model:           model,
		HTTPClient:      client,
		Credentials:     cfg.Credentials,
		Store:           cfg.Store,
		Logger:          logger,
		InitialPosition: cfg.InitialPosition,
	}, nil
}

// Relay 持有不可变配置，可被多个请求并发使用。
type Relay struct {
	cfg resolvedConfig
}

func New(cfg Config) (*Relay, error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Relay{cfg: resolved}, nil
}
