package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const refreshTokensKey = "refresh_tokens"

// FileCredentialRepository reads and rewrites the refresh_tokens key of a
// TOML config file. Other keys are kept as they are.
type FileCredentialRepository struct {
	Path string
}

func (r *FileCredentialRepository) LoadRefreshTokens(ctx context.Context) ([]string, error) {
	doc, err := r.read()
	if err != nil {
		return nil, err
	}

	switch v := doc[refreshTokensKey].(type) {
	case nil:
		return nil, nil
	case string:
		return CleanTokens(strings.Split(v, ",")), nil
	case []any:
		tokens := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s: %s must contain strings", r.Path, refreshTokensKey)
			}
			tokens = append(tokens, s)
		}
		return CleanTokens(tokens), nil
	default:
		return nil, fmt.Errorf("%s: unsupported %s value %T", r.Path, refreshTokensKey, v)
	}
}

func (r *FileCredentialRepository) SaveRefreshTokens(ctx context.Context, tokens []string) error {
	doc, err := r.read()
	if err != nil {
		return err
	}
	doc[refreshTokensKey] = tokens

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("encoding %s: %w", r.Path, err)
	}

	// Write next to the target and rename so a crash never leaves half a file.
	tmp, err := os.CreateTemp(filepath.Dir(r.Path), ".credentials-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.Path)
}

func (r *FileCredentialRepository) read() (map[string]any, error) {
	doc := map[string]any{}
	if _, err := toml.DecodeFile(r.Path, &doc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("reading %s: %w", r.Path, err)
	}
	return doc, nil
}
