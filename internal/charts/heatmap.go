package charts

import (
	"errors"
	"fmt"

	"github.com/charlie0129/chess-stats-go/internal/models"
)

type Matrix string

const (
	MatrixWins   Matrix = "wins"
	MatrixLosses Matrix = "losses"
	MatrixDraws  Matrix = "draws"
	MatrixTotal  Matrix = "total"
)

var Matrices = []Matrix{MatrixTotal, MatrixWins, MatrixDraws, MatrixLosses}

var ErrUnknownMatrix = errors.New("unknown heatmap matrix")

func ParseMatrix(s string) (Matrix, error) {
	switch m := Matrix(s); m {
	case MatrixWins, MatrixLosses, MatrixDraws, MatrixTotal:
		return m, nil
	case "":
		return MatrixTotal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMatrix, s)
	}
}

// EmptyShade is used for zero cells whatever the bucket math says.
const EmptyShade = "#ebedf0"

// Buckets is the number of intensity steps.
const Buckets = 5

var shades = map[Matrix][Buckets]string{
	MatrixWins:   {"#c8e6c9", "#a5d6a7", "#81c784", "#4caf50", "#2e7d32"},
	MatrixLosses: {"#ffcdd2", "#ef9a9a", "#e57373", "#f44336", "#c62828"},
	MatrixDraws:  {"#eeeeee", "#e0e0e0", "#bdbdbd", "#9e9e9e", "#616161"},
	MatrixTotal:  {"#bbdefb", "#90caf9", "#64b5f6", "#2196f3", "#1565c0"},
}

type HeatCell struct {
	Value  int
	Bucket int // -1 for empty cells
	Shade  string
}

type HeatmapChart struct {
	Matrix Matrix
	Days   []string
	Hours  []int
	Cells  [][]HeatCell // [day][hour]
	Max    int
}

func (m Matrix) rows(data *models.HeatmapData) [][]int {
	switch m {
	case MatrixWins:
		return data.Wins
	case MatrixLosses:
		return data.Losses
	case MatrixDraws:
		return data.Draws
	default:
		return data.Totals
	}
}

// Bucket maps a value onto 0..Buckets-1 linearly against max. Zero values
// and a zero max return -1.
func Bucket(value, max int) int {
	if value <= 0 || max <= 0 {
		return -1
	}
	b := value * Buckets / max
	if b >= Buckets {
		b = Buckets - 1
	}
	return b
}

// BuildHeatmap selects one matrix out of already fetched data.
func BuildHeatmap(data *models.HeatmapData, m Matrix) (HeatmapChart, error) {
	if data == nil {
		return HeatmapChart{}, errors.New("no heatmap data")
	}
	if _, ok := shades[m]; !ok {
		return HeatmapChart{}, fmt.Errorf("%w: %q", ErrUnknownMatrix, m)
	}
	rows := m.rows(data)
	if len(rows) != len(data.Days) {
		return HeatmapChart{}, fmt.Errorf("heatmap %s has %d rows for %d days", m, len(rows), len(data.Days))
	}

	c := HeatmapChart{Matrix: m, Days: data.Days, Hours: data.Hours}
	for _, row := range rows {
		for _, v := range row {
			if v > c.Max {
				c.Max = v
			}
		}
	}

	ramp := shades[m]
	c.Cells = make([][]HeatCell, len(rows))
	for d, row := range rows {
		if len(row) != len(data.Hours) {
			return HeatmapChart{}, fmt.Errorf("heatmap %s row %d has %d hours, want %d", m, d, len(row), len(data.Hours))
		}
		c.Cells[d] = make([]HeatCell, len(row))
		for h, v := range row {
			cell := HeatCell{Value: v, Bucket: Bucket(v, c.Max), Shade: EmptyShade}
			if cell.Bucket >= 0 {
				cell.Shade = ramp[cell.Bucket]
			}
			c.Cells[d][h] = cell
		}
	}
	return c, nil
}
