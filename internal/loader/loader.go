// Package loader reads raw device logs from disk and hands them to the parsers.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sebasr/avt-ingest/internal/models"
	"github.com/sebasr/avt-ingest/internal/parser"
)

// Loader reads whole files into memory and parses them
type Loader struct {
	parser     *parser.Parser
	translator Translator
	logger     *slog.Logger
}

// New creates a Loader. translator may be nil, in which case raw engine files
// are parsed as they are.
func New(p *parser.Parser, translator Translator, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{parser: p, translator: translator, logger: logger}
}

// Load reads and parses one inventory file. Raw engine files go through the
// translator first.
func (l *Loader) Load(ctx context.Context, file models.RawFile) (*parser.Parsed, error) {
	path := file.Path
	if file.Stream == models.StreamEngine && !file.Translated && l.translator != nil {
		translated, err := l.translator.Translate(ctx, file.Path)
		if err != nil {
			return nil, fmt.Errorf("translate %s: %w", file.Path, err)
		}
		path = translated
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	parsed, err := l.parser.Parse(file.Stream, data)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("file loaded",
		"file", path,
		"stream", file.Stream,
		"samples", parsed.Len(),
		"discarded", len(parsed.Discards))

	return parsed, nil
}
