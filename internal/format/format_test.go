package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonthLabel(t *testing.T) {
	require.Equal(t, "October 2023", MonthLabel("https://api.chess.com/pub/player/bob/games/2023/10"))
	require.Equal(t, "January 2024", MonthLabel("https://api.chess.com/pub/player/bob/games/2024/01/"))
	require.Equal(t, "xx games", MonthLabel("https://example.com/games/xx"))
}

func TestParseMonthURL(t *testing.T) {
	y, m, err := ParseMonthURL("https://api.chess.com/pub/player/bob/games/2021/07")
	require.NoError(t, err)
	require.Equal(t, 2021, y)
	require.Equal(t, 7, m)

	_, _, err = ParseMonthURL("https://api.chess.com/pub/player/bob/games/2021/13")
	require.Error(t, err)
	_, _, err = ParseMonthURL("nonsense")
	require.Error(t, err)
}

func TestPercent(t *testing.T) {
	require.Equal(t, 0.0, Percent(3, 0))
	require.Equal(t, 33.3, Percent(1, 3))
	require.Equal(t, 66.7, Percent(2, 3))
	require.Equal(t, "50.0%", PercentString(1, 2))
}

func TestLabels(t *testing.T) {
	require.Equal(t, "Win", ResultLabel("win"))
	require.Equal(t, "Draw", ResultLabel("agreed"))
	require.Equal(t, "Black", ColorLabel("black"))
	require.Equal(t, "07:00", HourLabel(7))
	require.Equal(t, "Blitz", TimeClassLabel("blitz"))
	require.Equal(t, "-", Rating(0))
	require.Equal(t, "2024-03-01", ShortDate("2024-03-01 10:11:12"))
	require.Equal(t, "13", MonthName(13))
}
