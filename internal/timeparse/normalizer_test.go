package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebasr/avt-ingest/internal/clock"
	"github.com/sebasr/avt-ingest/internal/models"
)

func newTestNormalizer() *Normalizer {
	return New(time.UTC, clock.NewFixed(time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC)))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		stream     models.StreamType
		want       time.Time
		wantLayout Layout
		wantOrder  DayOrder
		wantWrap   bool
	}{
		{
			name:       "ISO calendar",
			raw:        "2025-07-15 10:00:49",
			stream:     models.StreamGPS,
			want:       time.Date(2025, 7, 15, 10, 0, 49, 0, time.UTC),
			wantLayout: LayoutCalendar,
		},
		{
			name:       "RFC3339 with zone",
			raw:        "2025-07-15T10:00:49+02:00",
			stream:     models.StreamEngine,
			want:       time.Date(2025, 7, 15, 8, 0, 49, 0, time.UTC),
			wantLayout: LayoutCalendar,
		},
		{
			name:       "DD/MM/YYYY 24h",
			raw:        "15/07/2025 10:00:49",
			stream:     models.StreamGPS,
			want:       time.Date(2025, 7, 15, 10, 0, 49, 0, time.UTC),
			wantLayout: LayoutSlash,
			wantOrder:  DayFirst,
		},
		{
			name:       "dash between date and clock",
			raw:        "15/07/2025-10:00:49",
			stream:     models.StreamBeacon,
			want:       time.Date(2025, 7, 15, 10, 0, 49, 0, time.UTC),
			wantLayout: LayoutSlash,
			wantOrder:  DayFirst,
		},
		{
			name:       "12h inertial header",
			raw:        "15/07/2025 10:00:49AM",
			stream:     models.StreamInertial,
			want:       time.Date(2025, 7, 15, 10, 0, 49, 0, time.UTC),
			wantLayout: LayoutSlash12h,
			wantOrder:  DayFirst,
		},
		{
			name:       "12h PM",
			raw:        "15/07/2025 03:15:00 PM",
			stream:     models.StreamInertial,
			want:       time.Date(2025, 7, 15, 15, 15, 0, 0, time.UTC),
			wantLayout: LayoutSlash12h,
			wantOrder:  DayFirst,
		},
		{
			name:       "12 AM is midnight",
			raw:        "15/07/2025 12:30:00AM",
			stream:     models.StreamInertial,
			want:       time.Date(2025, 7, 15, 0, 30, 0, 0, time.UTC),
			wantLayout: LayoutSlash12h,
			wantOrder:  DayFirst,
		},
		{
			name:       "month first when second component exceeds 12",
			raw:        "07/15/2025 10:00:49",
			stream:     models.StreamGPS,
			want:       time.Date(2025, 7, 15, 10, 0, 49, 0, time.UTC),
			wantLayout: LayoutSlash,
			wantOrder:  MonthFirst,
		},
		{
			name:       "ambiguous engine date defaults to month first",
			raw:        "07/08/2025 10:00:49",
			stream:     models.StreamEngine,
			want:       time.Date(2025, 7, 8, 10, 0, 49, 0, time.UTC),
			wantLayout: LayoutSlash,
			wantOrder:  MonthFirst,
		},
		{
			name:       "ambiguous GPS date defaults to day first",
			raw:        "07/08/2025 10:00:49",
			stream:     models.StreamGPS,
			want:       time.Date(2025, 8, 7, 10, 0, 49, 0, time.UTC),
			wantLayout: LayoutSlash,
			wantOrder:  DayFirst,
		},
		{
			name:       "fractional seconds",
			raw:        "15/07/2025 10:00:49.250",
			stream:     models.StreamEngine,
			want:       time.Date(2025, 7, 15, 10, 0, 49, 250_000_000, time.UTC),
			wantLayout: LayoutSlash,
			wantOrder:  DayFirst,
		},
		{
			name:       "extra colon group in range",
			raw:        "15/07/2025 10:00:49:12:30",
			stream:     models.StreamEngine,
			want:       time.Date(2025, 7, 15, 10, 0, 49, 0, time.UTC),
			wantLayout: LayoutExtraGroups,
			wantOrder:  DayFirst,
		},
		{
			name:       "GPS overflow wraps",
			raw:        "15/07/2025 24:61:75",
			stream:     models.StreamGPS,
			want:       time.Date(2025, 7, 15, 0, 1, 15, 0, time.UTC),
			wantLayout: LayoutSlash,
			wantOrder:  DayFirst,
			wantWrap:   true,
		},
		{
			name:       "date only",
			raw:        "15/07/2025",
			stream:     models.StreamGPS,
			want:       time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
			wantLayout: LayoutSlash,
			wantOrder:  DayFirst,
		},
	}

	n := newTestNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw, tt.stream)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Time), "want %s, got %s", tt.want, got.Time)
			assert.Equal(t, tt.wantLayout, got.Layout)
			assert.Equal(t, tt.wantOrder, got.DayOrder)
			assert.Equal(t, tt.wantWrap, got.Wrapped)
		})
	}
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		stream  models.StreamType
		wantErr error
	}{
		{"empty", "   ", models.StreamGPS, ErrUnrecognized},
		{"garbage", "sin datos GPS", models.StreamGPS, ErrUnrecognized},
		{"both components above 12", "15/17/2025 10:00:00", models.StreamGPS, ErrOutOfRange},
		{"day zero", "00/07/2025 10:00:00", models.StreamGPS, ErrOutOfRange},
		{"31st of a 30 day month", "31/06/2025 10:00:00", models.StreamGPS, ErrOutOfRange},
		{"overflow outside GPS", "15/07/2025 24:61:75", models.StreamEngine, ErrOutOfRange},
		{"extra group out of range", "15/07/2025 10:00:49:75:30", models.StreamEngine, ErrOutOfRange},
		{"extra group never wraps", "15/07/2025 10:00:49:75:30", models.StreamGPS, ErrOutOfRange},
		{"13 PM", "15/07/2025 13:00:00PM", models.StreamInertial, ErrOutOfRange},
		{"too many groups", "15/07/2025 10:00:49:12:30:01", models.StreamEngine, ErrUnrecognized},
		{"letters in clock", "15/07/2025 10:x0:49", models.StreamEngine, ErrUnrecognized},
	}

	n := newTestNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.raw, tt.stream)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolveDayOrder(t *testing.T) {
	assert.Equal(t, DayFirst, ResolveDayOrder(15, 7, models.StreamEngine))
	assert.Equal(t, MonthFirst, ResolveDayOrder(7, 15, models.StreamGPS))
	assert.Equal(t, MonthFirst, ResolveDayOrder(7, 8, models.StreamEngine))
	assert.Equal(t, DayFirst, ResolveDayOrder(7, 8, models.StreamInertial))
	assert.Equal(t, DayOrderInvalid, ResolveDayOrder(13, 14, models.StreamGPS))
	assert.Equal(t, DayOrderInvalid, ResolveDayOrder(0, 5, models.StreamGPS))
	assert.Equal(t, DayOrderInvalid, ResolveDayOrder(32, 5, models.StreamGPS))
}

func TestBaseDate(t *testing.T) {
	n := newTestNormalizer()
	now := n.Now()

	t.Run("plausible date is kept", func(t *testing.T) {
		got, ok := n.BaseDate("15/07/2025 10:00:49AM", models.StreamInertial)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2025, 7, 15, 10, 0, 49, 0, time.UTC), got)
	})

	t.Run("date more than a year away falls back to now", func(t *testing.T) {
		got, ok := n.BaseDate("15/07/2019 10:00:49", models.StreamGPS)
		assert.False(t, ok)
		assert.Equal(t, now, got)
	})

	t.Run("unparsable date falls back to now", func(t *testing.T) {
		got, ok := n.BaseDate("not a date", models.StreamGPS)
		assert.False(t, ok)
		assert.Equal(t, now, got)
	})
}

func TestTimeOfDay(t *testing.T) {
	n := newTestNormalizer()

	got, err := n.TimeOfDay("10:01:00AM", models.StreamInertial)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Hour+time.Minute, got)

	got, err = n.TimeOfDay("01:02:03 PM", models.StreamInertial)
	require.NoError(t, err)
	assert.Equal(t, 13*time.Hour+2*time.Minute+3*time.Second, got)

	_, err = n.TimeOfDay("25:00:00", models.StreamInertial)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
