package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"tickrunner/internal/collector"
	"tickrunner/internal/config"
	"tickrunner/internal/logger"
)

// FileSender appends samples to a rotating file as JSON lines. Pretty output
// spreads each document over several lines.
type FileSender struct {
	filePath string
	writer   *lumberjack.Logger
	pretty   bool
	mu       sync.Mutex
	closed   bool
}

// NewFileSender creates a new FileSender with the given configuration.
func NewFileSender(cfg config.FileConfig) (*FileSender, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("file sender requires a FilePath")
	}

	dir := filepath.Dir(cfg.FilePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create sample directory: %w", err)
		}
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}

	log := logger.WithComponent("file-sender")
	log.Info().
		Str("file_path", cfg.FilePath).
		Bool("pretty", cfg.Pretty).
		Msg("FileSender initialized")

	return &FileSender{
		filePath: cfg.FilePath,
		writer:   writer,
		pretty:   cfg.Pretty,
	}, nil
}

// Send writes one sample.
func (s *FileSender) Send(ctx context.Context, sample *collector.Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	var data []byte
	var err error
	if s.pretty {
		data, err = json.MarshalIndent(sample, "", "  ")
	} else {
		data, err = json.Marshal(sample)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	if _, err := s.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

// Close releases resources held by the FileSender.
func (s *FileSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.writer.Close()
}
