package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LubyRuffy/kanbanchat/auth"
	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/LubyRuffy/kanbanchat/kanbanhttp"
	"github.com/LubyRuffy/kanbanchat/relay"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper, load func() (settings, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat relay and task API",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, s)
		},
	}

	flags := cmd.Flags()
	flags.String("listen", "127.0.0.1:8080", "listen address")
	flags.String("base-path", "/api", "base path prefix")
	flags.String("gateway-url", "", "OpenAI-compatible chat completions url")
	flags.String("model", "", "model id sent to the gateway")
	flags.String("auth-source", "env", "api key source: env|file|auto")
	flags.String("api-key-file", "", "api key file for file/auto sources (default ~/.config/kanbanchat/auth.json)")
	flags.String("store", "sqlite", "task store: sqlite|postgrest")
	flags.String("sqlite-path", "", "sqlite database path")
	flags.String("postgrest-url", "", "hosted backend url for the postgrest store")
	flags.String("postgrest-key", "", "hosted backend service key for the postgrest store")
	for key, flag := range map[string]string{
		"listen":        "listen",
		"base_path":     "base-path",
		"gateway_url":   "gateway-url",
		"model":         "model",
		"auth_source":   "auth-source",
		"api_key_file":  "api-key-file",
		"store":         "store",
		"sqlite_path":   "sqlite-path",
		"postgrest_url": "postgrest-url",
		"postgrest_key": "postgrest-key",
	} {
		bindFlag(v, cmd, key, flag)
	}
	return cmd
}

func runServe(ctx context.Context, s settings) error {
	logger := logrus.StandardLogger()

	store, closeStore, err := openStore(s)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.WithError(err).Warn("close store failed")
		}
	}()

	provider, err := auth.NewProvider(s.AuthSource, s.APIKeyFile)
	if err != nil {
		return fmt.Errorf("invalid auth-source: %w", err)
	}

	r, err := relay.New(relay.Config{
		GatewayURL:  s.GatewayURL,
		Model:       s.Model,
		Credentials: provider,
		Store:       store,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	if err := kanbanhttp.RegisterGinRoutes(engine, kanbanhttp.Config{
		BasePath: s.BasePath,
		Relay:    r,
		Store:    store,
		Logger:   logger,
	}); err != nil {
		return fmt.Errorf("register routes failed: %w", err)
	}

	srv := &http.Server{
		Addr:              s.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	local := "http://" + addrForLocalClient(s.Listen) + normalizeBasePath(s.BasePath)
	logger.WithFields(logrus.Fields{"store": s.Store, "model": s.Model}).Infof("kanbanchat server listening on %s", local)
	logger.Infof("try: curl %s/tasks", local)
	logger.Infof("try: curl -N %s/chat -H 'Content-Type: application/json' -d '{\"messages\":[{\"role\":\"user\",\"content\":\"hi\"}],\"tasks\":[]}'", local)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// openStore 按配置创建任务存储，返回的 close 函数总是非 nil。
func openStore(s settings) (board.Store, func() error, error) {
	switch s.Store {
	case "", storeSQLite:
		store, err := board.OpenSQLite(s.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case storePostgREST:
		store, err := board.NewPostgRESTStore(board.PostgRESTConfig{
			BaseURL: s.PostgRESTURL,
			APIKey:  s.PostgRESTKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store: %s", s.Store)
	}
}
