package inventory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebasr/avt-ingest/internal/logging"
	"github.com/sebasr/avt-ingest/internal/models"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		path := filepath.Join(dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		stream     models.StreamType
		vehicle    string
		translated bool
		ok         bool
	}{
		{"GPS_DOBACK024_20250715.txt", models.StreamGPS, "DOBACK024", false, true},
		{"ESTABILIDAD_DOBACK024_20250715.txt", models.StreamInertial, "DOBACK024", false, true},
		{"CAN_DOBACK024_20250715.txt", models.StreamEngine, "DOBACK024", false, true},
		{"CAN_DOBACK024_20250715_TRADUCIDO.txt", models.StreamEngine, "DOBACK024", true, true},
		{"ROTATIVO_DOBACK024_20250715_2.txt", models.StreamBeacon, "DOBACK024", false, true},
		{"gps_doback024_20250715.TXT", models.StreamGPS, "doback024", false, true},
		{"RADAR_DOBACK024_20250715.txt", "", "", false, false},
		{"GPS_DOBACK024_2025071.txt", "", "", false, false},
		{"GPS_DOBACK024_20251345.txt", "", "", false, false},
		{"notes.txt", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := Classify(filepath.Join("/data", tt.name))
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.stream, f.Stream)
			assert.Equal(t, tt.vehicle, f.VehicleID)
			assert.Equal(t, tt.translated, f.Translated)
			assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), f.CalendarDate)
		})
	}
}

func TestFileSystemInventory_List(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"ROTATIVO_DOBACK024_20250716.txt",
		"GPS_DOBACK024_20250715.txt",
		"sub/ESTABILIDAD_DOBACK024_20250715.txt",
		"CAN_DOBACK024_20250715.txt",
		"CAN_DOBACK024_20250715_TRADUCIDO.txt",
		"CAN_DOBACK024_20250716.txt",
		"GPS_DOBACK027_20250715.txt",
		"readme.md",
	)

	inv := NewFileSystemInventory(dir, logging.Discard())
	files, err := inv.List(context.Background(), "doback024")
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f.Path))
	}
	assert.Equal(t, []string{
		"GPS_DOBACK024_20250715.txt",
		"ESTABILIDAD_DOBACK024_20250715.txt",
		"CAN_DOBACK024_20250715_TRADUCIDO.txt",
		"CAN_DOBACK024_20250716.txt",
		"ROTATIVO_DOBACK024_20250716.txt",
	}, names)
}

func TestFileSystemInventory_MissingRoot(t *testing.T) {
	inv := NewFileSystemInventory(filepath.Join(t.TempDir(), "absent"), logging.Discard())
	_, err := inv.List(context.Background(), "DOBACK024")
	assert.Error(t, err)
}

func TestFileSystemInventory_Cancelled(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "GPS_DOBACK024_20250715.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileSystemInventory(dir, logging.Discard()).List(ctx, "DOBACK024")
	assert.ErrorIs(t, err, context.Canceled)
}
