// Package format turns raw values into display strings.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charlie0129/chess-stats-go/internal/models"
)

const DateLayout = "2006-01-02 15:04:05"

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English name of a 1-based month number, or the
// number itself when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return strconv.Itoa(month)
	}
	return monthNames[month-1]
}

// ParseMonthURL extracts year and month from the trailing ".../YYYY/MM"
// segments of an archive URL.
func ParseMonthURL(archiveURL string) (year, month int, err error) {
	parts := strings.Split(strings.TrimRight(archiveURL, "/"), "/")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("archive url %q has no year/month segments", archiveURL)
	}
	year, err = strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0, 0, fmt.Errorf("archive url %q: bad year: %w", archiveURL, err)
	}
	month, err = strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, 0, fmt.Errorf("archive url %q: bad month: %w", archiveURL, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("archive url %q: month %d out of range", archiveURL, month)
	}
	return year, month, nil
}

// MonthLabel renders ".../games/2023/10" as "October 2023". Unparseable
// URLs fall back to their raw trailing segments.
func MonthLabel(archiveURL string) string {
	year, month, err := ParseMonthURL(archiveURL)
	if err != nil {
		parts := strings.Split(strings.TrimRight(archiveURL, "/"), "/")
		if len(parts) >= 2 {
			return parts[len(parts)-1] + " " + parts[len(parts)-2]
		}
		return archiveURL
	}
	return fmt.Sprintf("%s %d", MonthName(month), year)
}

// YearMonth renders "2023-10" style period bounds.
func YearMonth(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// ShortDate renders a game's date string as "2006-01-02" for axis labels.
func ShortDate(date string) string {
	if len(date) >= 10 {
		return date[:10]
	}
	return date
}

func Rating(r int) string {
	if r <= 0 {
		return "-"
	}
	return strconv.Itoa(r)
}

// Percent returns count/total*100 rounded to one decimal, 0 for an empty total.
func Percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

func PercentString(count, total int) string {
	return strconv.FormatFloat(Percent(count, total), 'f', 1, 64) + "%"
}

func ResultLabel(result string) string {
	switch result {
	case models.ResultWin:
		return "Win"
	case models.ResultLoss:
		return "Loss"
	default:
		return "Draw"
	}
}

func ColorLabel(color string) string {
	if color == models.ColorWhite {
		return "White"
	}
	return "Black"
}

func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// TimeClassLabel capitalizes a time class, "all" included.
func TimeClassLabel(tc string) string {
	if tc == "" {
		return "All"
	}
	return strings.ToUpper(tc[:1]) + tc[1:]
}
