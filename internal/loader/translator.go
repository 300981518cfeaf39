package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// TranslatedSuffix marks an engine log that has already been decoded
const TranslatedSuffix = "_TRADUCIDO"

// ErrNoTranslation is returned when the decoder ran but produced no output file
var ErrNoTranslation = errors.New("translator produced no output")

// Translator decodes a raw engine-bus log into a readable file and returns its path
type Translator interface {
	Translate(ctx context.Context, rawPath string) (string, error)
}

// TranslatedPath returns where the decoded sibling of a raw engine file lives
func TranslatedPath(rawPath string) string {
	base := strings.TrimSuffix(rawPath, ".txt")
	return base + TranslatedSuffix + ".txt"
}

// ExecTranslator runs an external decoder command with the raw path as its
// last argument
type ExecTranslator struct {
	command []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewExecTranslator parses command (program plus fixed arguments, space
// separated). A zero timeout means no limit beyond the caller's context.
func NewExecTranslator(command string, timeout time.Duration, logger *slog.Logger) (*ExecTranslator, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("translator command is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecTranslator{command: fields, timeout: timeout, logger: logger}, nil
}

// Translate runs the decoder unless an up-to-date translation already exists
func (t *ExecTranslator) Translate(ctx context.Context, rawPath string) (string, error) {
	out := TranslatedPath(rawPath)
	if fresh(rawPath, out) {
		return out, nil
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	args := append(append([]string{}, t.command[1:]...), rawPath)
	cmd := exec.CommandContext(ctx, t.command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("translator %s: %w", t.command[0], ctx.Err())
		}
		return "", fmt.Errorf("translator %s: %w: %s", t.command[0], err, strings.TrimSpace(stderr.String()))
	}

	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("%s: %w", out, ErrNoTranslation)
	}

	t.logger.Info("engine log translated", "file", rawPath, "output", out, "duration", time.Since(start))
	return out, nil
}

// fresh reports whether out exists and is not older than raw
func fresh(raw, out string) bool {
	outInfo, err := os.Stat(out)
	if err != nil {
		return false
	}
	rawInfo, err := os.Stat(raw)
	if err != nil {
		return true
	}
	return !outInfo.ModTime().Before(rawInfo.ModTime())
}
