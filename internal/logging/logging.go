package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Open initializes a file-backed zerolog logger. The terminal belongs to
// the UI, so nothing is ever written to stdout.
func Open(dir string) (zerolog.Logger, io.Closer, error) {
	path := filepath.Join(dir, "visitledger.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	logger := zerolog.New(f).With().Timestamp().Logger()
	return logger, f, nil
}
