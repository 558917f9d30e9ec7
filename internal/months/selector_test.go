package months

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlie0129/chess-stats-go/internal/models"
)

func ref(year, month int) models.MonthRef {
	u := fmt.Sprintf("https://api.chess.com/pub/player/bob/games/%d/%02d", year, month)
	return models.MonthRef{URL: u, Label: fmt.Sprintf("%d-%02d", year, month)}
}

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestBuildGroupsByYearNewestFirst(t *testing.T) {
	refs := []models.MonthRef{ref(2024, 2), ref(2024, 1), ref(2023, 12), ref(2023, 3), ref(2022, 7)}
	s := Build(refs, now)

	require.Len(t, s.Years, 3)
	require.Equal(t, []int{2024, 2023, 2022}, []int{s.Years[0].Year, s.Years[1].Year, s.Years[2].Year})
	require.Equal(t, 12, s.Years[1].Months[0].Month)
	require.Equal(t, 3, s.Years[1].Months[1].Month)

	require.True(t, s.Years[0].Expanded)
	require.False(t, s.Years[1].Expanded)
	require.False(t, s.Years[2].Expanded)

	require.Equal(t, []string{refs[0].URL}, s.Selected())
}

func TestBuildEveryItemInExactlyOneGroup(t *testing.T) {
	// oldest-first input and a junk url: grouping must not depend on order
	refs := []models.MonthRef{
		ref(2020, 1), ref(2021, 5), ref(2020, 11), {URL: "https://x/broken"}, ref(2021, 2), ref(2019, 9),
	}
	s := Build(refs, now)

	count := make(map[string]int)
	for _, g := range s.Years {
		for i, m := range g.Months {
			count[m.URL]++
			if i > 0 {
				require.GreaterOrEqual(t, g.Months[i-1].Month, m.Month)
			}
		}
	}
	require.Len(t, count, len(refs))
	for _, c := range count {
		require.Equal(t, 1, c)
	}
	require.Equal(t, UnknownYear, s.Years[len(s.Years)-1].Year)
	require.Equal(t, []string{ref(2021, 5).URL}, s.Selected())
}

func TestSelectYearIsScopedAndKeepsExpansion(t *testing.T) {
	refs := []models.MonthRef{ref(2024, 2), ref(2024, 1), ref(2023, 12), ref(2023, 3)}
	s := Build(refs, now)

	require.True(t, s.SelectYear(2023))
	require.False(t, s.Years[1].Expanded)
	require.ElementsMatch(t, []string{refs[0].URL, refs[2].URL, refs[3].URL}, s.Selected())

	require.True(t, s.UnselectYear(2024))
	require.True(t, s.Years[0].Expanded)
	require.ElementsMatch(t, []string{refs[2].URL, refs[3].URL}, s.Selected())

	require.False(t, s.SelectYear(1999))
}

func TestGlobalSelection(t *testing.T) {
	refs := []models.MonthRef{ref(2024, 2), ref(2023, 12), ref(2022, 1)}
	s := Build(refs, now)

	s.SelectAll()
	require.Len(t, s.Selected(), 3)
	s.UnselectAll()
	require.Empty(t, s.Selected())

	s.SetSelected([]string{refs[2].URL, "https://unknown"})
	require.Equal(t, []string{refs[2].URL}, s.Selected())

	require.True(t, s.ToggleYear(2022))
	require.True(t, s.Years[2].Expanded)
}

func TestBuildEmpty(t *testing.T) {
	s := Build(nil, now)
	require.True(t, s.Empty())
	require.Empty(t, s.Selected())
}

func TestBuildCollapsesDuplicateURLs(t *testing.T) {
	// one option per distinct url: the checkbox value is the url
	refs := []models.MonthRef{ref(2024, 2), ref(2024, 1), ref(2024, 2), ref(2023, 12)}
	s := Build(refs, now)

	require.Equal(t, 3, s.Len())
	var urls []string
	for _, g := range s.Years {
		for _, m := range g.Months {
			urls = append(urls, m.URL)
		}
	}
	require.Equal(t, []string{ref(2024, 2).URL, ref(2024, 1).URL, ref(2023, 12).URL}, urls)
	require.Equal(t, []string{ref(2024, 2).URL}, s.Selected())
}
