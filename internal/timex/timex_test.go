package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "string", in: `"15m"`, want: 15 * time.Minute},
		{name: "nanoseconds", in: `1000000000`, want: time.Second},
		{name: "bad string", in: `"soon"`, wantErr: true},
		{name: "bool", in: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{90 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))
}

func TestStamper_Stamp(t *testing.T) {
	s, err := NewStamper("", "")
	require.NoError(t, err)
	s.Now = func() time.Time { return time.Date(2026, 10, 18, 15, 4, 5, 0, time.UTC) }

	// São Paulo is UTC-3 with no DST.
	assert.Equal(t, "18/10/2026, 12:04:05", s.Stamp())
}

func TestStamper_CustomLayout(t *testing.T) {
	s, err := NewStamper(time.RFC3339, "UTC")
	require.NoError(t, err)
	s.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	assert.Equal(t, "2026-01-02T03:04:05Z", s.Stamp())
}

func TestNewStamper_UnknownZone(t *testing.T) {
	_, err := NewStamper("", "Mars/Olympus_Mons")
	require.Error(t, err)
}

func TestStamper_ZeroValue(t *testing.T) {
	var s Stamper
	assert.NotEmpty(t, s.Stamp())
}
