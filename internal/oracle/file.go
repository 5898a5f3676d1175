package oracle

import (
	"bytes"
	"context"
	"fmt"
	"os"
)

// FileProvider replays a saved oracle payload. Useful offline and for
// evaluating the same evidence under different settings.
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider reading from cfg.PayloadPath
func NewFileProvider(cfg Config) (*FileProvider, error) {
	if cfg.PayloadPath == "" {
		return nil, fmt.Errorf("file provider requires a payload path")
	}
	return &FileProvider{path: cfg.PayloadPath}, nil
}

func (p *FileProvider) Name() string {
	return "file"
}

func (p *FileProvider) Evaluate(ctx context.Context, _ Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyResponse
	}

	return &Response{Raw: data, Model: p.path}, nil
}
