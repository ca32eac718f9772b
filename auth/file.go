package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type keyFile struct {
	APIKey string `json:"api_key"`
}

// ReadKeyFile 读取形如 {"api_key": "..."} 的凭据文件。
func ReadKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}

	var f keyFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("failed to parse key file: %w", err)
	}

	key := strings.TrimSpace(f.APIKey)
	if key == "" {
		return "", fmt.Errorf("%w: key file missing api_key", ErrMissingCredential)
	}
	return key, nil
}

// DefaultKeyFilePath 返回 ~/.config/kanbanchat/auth.json。
func DefaultKeyFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "kanbanchat", "auth.json"), nil
}

type fileProvider struct {
	path string
}

func (p *fileProvider) APIKey(ctx context.Context) (string, error) {
	path := p.path
	if path == "" {
		var err error
		if path, err = DefaultKeyFilePath(); err != nil {
			return "", err
		}
	}
	return ReadKeyFile(path)
}
