// Package inventory enumerates the closed device logs available for a vehicle.
package inventory

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sebasr/avt-ingest/internal/loader"
	"github.com/sebasr/avt-ingest/internal/models"
)

// FileInventory lists the raw files recorded for a vehicle
type FileInventory interface {
	List(ctx context.Context, vehicleName string) ([]models.RawFile, error)
}

// fileName matches <PREFIX>_<VEHICLE>_<YYYYMMDD>[_suffix].txt
var fileName = regexp.MustCompile(`(?i)^([a-z]+)_([a-z0-9-]+)_(\d{8})(?:_([a-z0-9_-]+))?\.txt$`)

var prefixes = map[string]models.StreamType{
	"GPS":         models.StreamGPS,
	"ESTABILIDAD": models.StreamInertial,
	"INERTIAL":    models.StreamInertial,
	"CAN":         models.StreamEngine,
	"ENGINE":      models.StreamEngine,
	"ROTATIVO":    models.StreamBeacon,
	"BEACON":      models.StreamBeacon,
}

// FileSystemInventory walks a directory tree for device logs
type FileSystemInventory struct {
	root   string
	logger *slog.Logger
}

// NewFileSystemInventory creates an inventory rooted at dir
func NewFileSystemInventory(dir string, logger *slog.Logger) *FileSystemInventory {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSystemInventory{root: dir, logger: logger}
}

// List returns the vehicle's files ordered by day, stream and path. A decoded
// engine file replaces its raw sibling.
func (inv *FileSystemInventory) List(ctx context.Context, vehicleName string) ([]models.RawFile, error) {
	var files []models.RawFile

	err := filepath.WalkDir(inv.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		f, ok := Classify(path)
		if !ok {
			return nil
		}
		if strings.EqualFold(f.VehicleID, vehicleName) {
			files = append(files, f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", inv.root, err)
	}

	files = supersedeRaw(files)
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if !a.CalendarDate.Equal(b.CalendarDate) {
			return a.CalendarDate.Before(b.CalendarDate)
		}
		if a.Stream != b.Stream {
			return streamRank(a.Stream) < streamRank(b.Stream)
		}
		return a.Path < b.Path
	})

	inv.logger.Debug("inventory listed", "vehicle", vehicleName, "files", len(files))
	return files, nil
}

// Classify recognises a device log by its file name
func Classify(path string) (models.RawFile, bool) {
	m := fileName.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return models.RawFile{}, false
	}
	stream, ok := prefixes[strings.ToUpper(m[1])]
	if !ok {
		return models.RawFile{}, false
	}
	day, err := time.Parse("20060102", m[3])
	if err != nil {
		return models.RawFile{}, false
	}
	suffix := strings.ToUpper(m[4])
	return models.RawFile{
		Path:         path,
		VehicleID:    m[2],
		Stream:       stream,
		CalendarDate: day,
		Translated: stream == models.StreamEngine &&
			strings.HasSuffix(suffix, strings.TrimPrefix(loader.TranslatedSuffix, "_")),
	}, true
}

func supersedeRaw(files []models.RawFile) []models.RawFile {
	decoded := make(map[string]bool)
	for _, f := range files {
		if f.Translated {
			decoded[f.Path] = true
		}
	}
	out := files[:0]
	for _, f := range files {
		if f.Stream == models.StreamEngine && !f.Translated && decoded[loader.TranslatedPath(f.Path)] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func streamRank(s models.StreamType) int {
	for i, c := range models.AllStreams() {
		if c == s {
			return i
		}
	}
	return len(models.AllStreams())
}
