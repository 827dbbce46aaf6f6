package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var clockStart = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func TestRemainingSecondsBeforeStart(t *testing.T) {
	remaining, err := RemainingSeconds(nil, 60, clockStart)
	require.NoError(t, err)
	require.Equal(t, 3600, remaining)
}

func TestRemainingSecondsCountsDown(t *testing.T) {
	startedAt := clockStart

	remaining, err := RemainingSeconds(&startedAt, 60, clockStart.Add(10*time.Second))
	require.NoError(t, err)
	require.Equal(t, 3590, remaining)

	remaining, err = RemainingSeconds(&startedAt, 1, clockStart.Add(90*time.Second))
	require.NoError(t, err)
	require.Equal(t, 0, remaining)
}

func TestRemainingSecondsFloorsSubSecond(t *testing.T) {
	startedAt := clockStart

	remaining, err := RemainingSeconds(&startedAt, 1, clockStart.Add(500*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 60, remaining)

	remaining, err = RemainingSeconds(&startedAt, 1, clockStart.Add(1500*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 59, remaining)
}

func TestRemainingSecondsInvalidLimit(t *testing.T) {
	_, err := RemainingSeconds(nil, 0, clockStart)
	require.ErrorIs(t, err, ErrInvalidTimeLimit)

	_, err = RemainingSeconds(nil, -5, clockStart)
	require.ErrorIs(t, err, ErrInvalidTimeLimit)
}

func TestExpired(t *testing.T) {
	expired, err := Expired(nil, 60, clockStart)
	require.NoError(t, err)
	require.False(t, expired)

	startedAt := clockStart

	expired, err = Expired(&startedAt, 60, clockStart.Add(59*time.Minute))
	require.NoError(t, err)
	require.False(t, expired)

	// Exactly at the limit counts as expired.
	expired, err = Expired(&startedAt, 60, clockStart.Add(60*time.Minute))
	require.NoError(t, err)
	require.True(t, expired)

	expired, err = Expired(&startedAt, 60, clockStart.Add(2*time.Hour))
	require.NoError(t, err)
	require.True(t, expired)

	_, err = Expired(&startedAt, 0, clockStart)
	require.ErrorIs(t, err, ErrInvalidTimeLimit)
}

// Remaining time reaches zero exactly when the expiry flag flips.
func TestRemainingAndExpiredAgree(t *testing.T) {
	startedAt := clockStart
	offsets := []time.Duration{
		0,
		time.Second,
		59*time.Minute + 59*time.Second,
		60 * time.Minute,
		61 * time.Minute,
		24 * time.Hour,
	}

	for _, offset := range offsets {
		now := clockStart.Add(offset)

		remaining, err := RemainingSeconds(&startedAt, 60, now)
		require.NoError(t, err)
		expired, err := Expired(&startedAt, 60, now)
		require.NoError(t, err)

		require.Equal(t, expired, remaining == 0, "offset %s", offset)
	}
}

func TestExpiresAt(t *testing.T) {
	expiry, err := ExpiresAt(nil, 60)
	require.NoError(t, err)
	require.Nil(t, expiry)

	startedAt := clockStart
	expiry, err = ExpiresAt(&startedAt, 90)
	require.NoError(t, err)
	require.NotNil(t, expiry)
	require.True(t, expiry.Equal(clockStart.Add(90*time.Minute)))

	_, err = ExpiresAt(&startedAt, 0)
	require.ErrorIs(t, err, ErrInvalidTimeLimit)
}

func TestFormatSeconds(t *testing.T) {
	require.Equal(t, "00:00", FormatSeconds(0))
	require.Equal(t, "00:59", FormatSeconds(59))
	require.Equal(t, "01:00", FormatSeconds(60))
	require.Equal(t, "60:00", FormatSeconds(3600))
	// Minutes are not capped at two digits.
	require.Equal(t, "120:00", FormatSeconds(7200))
	require.Equal(t, "00:00", FormatSeconds(-5))
}
