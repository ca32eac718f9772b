package auth

import (
	"context"
	"errors"
)

// ErrMissingCredential 表示上游网关 API key 未配置。
var ErrMissingCredential = errors.New("upstream api key is not configured")

// Provider 用于在每次请求时读取上游网关的 API key。
// 读取发生在请求期而不是启动期：缺失凭据只会让当前请求失败。
type Provider interface {
	APIKey(ctx context.Context) (string, error)
}

type Source string

const (
	SourceEnv  Source = "env"
	SourceFile Source = "file"
	SourceAuto Source = "auto"
)

// Static 返回固定 key 的 Provider；空 key 等价于未配置。
func Static(key string) Provider {
	return staticProvider(key)
}

type staticProvider string

func (p staticProvider) APIKey(ctx context.Context) (string, error) {
	if string(p) == "" {
		return "", ErrMissingCredential
	}
	return string(p), nil
}
