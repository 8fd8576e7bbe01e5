package features

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shenikar/fire_risk_grid/internal/models"
)

func pacific(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return loc
}

func TestDayNight_Boundaries(t *testing.T) {
	loc := pacific(t)

	// 15 июля: PDT = UTC-7
	tests := []struct {
		name  string
		utc   time.Time
		local string
		want  int
	}{
		{"06:00 is day", time.Date(2025, 7, 15, 13, 0, 0, 0, time.UTC), "06:00", 0},
		{"17:59 is day", time.Date(2025, 7, 16, 0, 59, 0, 0, time.UTC), "17:59", 0},
		{"18:00 is night", time.Date(2025, 7, 16, 1, 0, 0, 0, time.UTC), "18:00", 1},
		{"05:59 is night", time.Date(2025, 7, 15, 12, 59, 0, 0, time.UTC), "05:59", 1},
		{"midnight is night", time.Date(2025, 7, 15, 7, 0, 0, 0, time.UTC), "00:00", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.local, tt.utc.In(loc).Format("15:04"))
			assert.Equal(t, tt.want, DayNight(tt.utc, loc))
		})
	}
}

func TestDayNight_Winter(t *testing.T) {
	loc := pacific(t)

	// 15 января: PST = UTC-8, 14:00 UTC - это 06:00 по местному
	assert.Equal(t, 0, DayNight(time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC), loc))
	assert.Equal(t, 1, DayNight(time.Date(2025, 1, 15, 13, 59, 0, 0, time.UTC), loc))
}

func TestDayNight_NilZoneIsUTC(t *testing.T) {
	assert.Equal(t, 0, DayNight(time.Date(2025, 7, 15, 6, 0, 0, 0, time.UTC), nil))
	assert.Equal(t, 1, DayNight(time.Date(2025, 7, 15, 18, 0, 0, 0, time.UTC), nil))
}

func TestAssemble(t *testing.T) {
	weather := Vector{models.FieldTemp: 70.5, models.FieldGust: 999.9}

	vec := Assemble(models.GridPoint{Latitude: 34.1, Longitude: -118.1}, weather, 1)

	assert.Equal(t, Vector{
		FeatureLatitude:  34.1,
		FeatureLongitude: -118.1,
		models.FieldTemp: 70.5,
		models.FieldGust: 999.9,
		FeatureDayNight:  1,
	}, vec)
}

func TestOrdered(t *testing.T) {
	vec := Vector{"a": 1, "b": 2, "c": 3}

	got, err := vec.Ordered([]string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, got)
}

func TestOrdered_MissingFeature(t *testing.T) {
	vec := Vector{"a": 1}

	_, err := vec.Ordered([]string{"a", "TEMP"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingFeature)
	assert.ErrorContains(t, err, "TEMP")
}
