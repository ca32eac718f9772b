package main

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/LubyRuffy/kanbanchat"
	"github.com/spf13/viper"
)

const envPrefix = "KANBANCHAT"

const (
	storeSQLite    = "sqlite"
	storePostgREST = "postgrest"
)

type settings struct {
	Listen       string        `mapstructure:"listen"`
	BasePath     string        `mapstructure:"base_path"`
	GatewayURL   string        `mapstructure:"gateway_url"`
	Model        string        `mapstructure:"model"`
	AuthSource   string        `mapstructure:"auth_source"`
	APIKeyFile   string        `mapstructure:"api_key_file"`
	Store        string        `mapstructure:"store"`
	SQLitePath   string        `mapstructure:"sqlite_path"`
	PostgRESTURL string        `mapstructure:"postgrest_url"`
	PostgRESTKey string        `mapstructure:"postgrest_key"`
	ServerURL    string        `mapstructure:"server_url"`
	RefreshDelay time.Duration `mapstructure:"refresh_delay"`
	Verbose      bool          `mapstructure:"verbose"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", "127.0.0.1:8080")
	v.SetDefault("base_path", "/api")
	v.SetDefault("gateway_url", kanbanchat.DefaultGatewayURL)
	v.SetDefault("model", kanbanchat.DefaultModel)
	v.SetDefault("auth_source", "env")
	v.SetDefault("api_key_file", "")
	v.SetDefault("store", storeSQLite)
	v.SetDefault("sqlite_path", "~/.config/kanbanchat/tasks.db")
	v.SetDefault("postgrest_url", "")
	v.SetDefault("postgrest_key", "")
	v.SetDefault("server_url", "")
	v.SetDefault("refresh_delay", 500*time.Millisecond)
	v.SetDefault("verbose", false)
	return v
}

// loadSettings 合并默认值、配置文件（可选）、环境变量与已绑定的命令行参数。
func loadSettings(v *viper.Viper, configFile string) (settings, error) {
	if configFile = strings.TrimSpace(configFile); configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	s.Store = strings.ToLower(strings.TrimSpace(s.Store))
	if s.ServerURL == "" {
		s.ServerURL = "http://" + addrForLocalClient(s.Listen) + normalizeBasePath(s.BasePath)
	}
	return s, nil
}

func normalizeBasePath(basePath string) string {
	basePath = strings.TrimRight(strings.TrimSpace(basePath), "/")
	if basePath == "" {
		return ""
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return basePath
}

// addrForLocalClient 把监听地址转换为本机客户端可连接的地址（通配地址改为 127.0.0.1）。
func addrForLocalClient(listen string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(listen))
	if err != nil {
		return listen
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
