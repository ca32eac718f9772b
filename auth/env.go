package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const (
	EnvAPIKey = "KANBANCHAT_API_KEY"
	// EnvLegacyAPIKey 兼容旧部署使用的变量名。
	EnvLegacyAPIKey = "LOVABLE_API_KEY"
)

type envProvider struct{}

func (p *envProvider) APIKey(ctx context.Context) (string, error) {
	for _, name := range []string{EnvAPIKey, EnvLegacyAPIKey} {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %s is not set", ErrMissingCredential, EnvAPIKey)
}
