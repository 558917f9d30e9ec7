package models

import (
	"encoding/json"
	"fmt"
)

const (
	ColorWhite = "white"
	ColorBlack = "black"

	ResultWin  = "win"
	ResultLoss = "loss"
	ResultDraw = "draw"
)

// Game is a single played match seen from the requested user's side.
type Game struct {
	Date           string `json:"date"`      // "2006-01-02 15:04:05"
	Timestamp      int64  `json:"timestamp"` // UNIX end time
	UserColor      string `json:"user_color"`
	Opponent       string `json:"opponent"`
	Result         string `json:"result"`
	TimeControl    string `json:"time_control"`
	TimeClass      string `json:"time_class"`
	Variant        string `json:"variant"`
	UserRating     int    `json:"user_rating"`
	OpponentRating int    `json:"opponent_rating"`
	PGN            string `json:"pgn"`
	URL            string `json:"url"`
	ECO            string `json:"eco,omitempty"`
	Opening        string `json:"opening,omitempty"`
	Moves          int    `json:"moves,omitempty"`
}

// MonthRef identifies a fetchable month of history. On the wire it is a
// two element array: [url, label].
type MonthRef struct {
	URL   string
	Label string
}

func (m MonthRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{m.URL, m.Label})
}

func (m *MonthRef) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("month reference must have 2 elements, got %d", len(pair))
	}
	m.URL, m.Label = pair[0], pair[1]
	return nil
}

type Period struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Months int    `json:"months,omitempty"`
}

type CacheInfo struct {
	MonthsFromCache int `json:"months_from_cache"`
	MonthsFromAPI   int `json:"months_from_api"`
}

// Summary holds aggregate counts over a game collection.
type Summary struct {
	TotalGames int        `json:"total_games"`
	Wins       int        `json:"wins"`
	Draws      int        `json:"draws"`
	Losses     int        `json:"losses"`
	AsWhite    int        `json:"as_white"`
	AsBlack    int        `json:"as_black"`
	Period     *Period    `json:"period,omitempty"`
	CacheInfo  *CacheInfo `json:"cache_info,omitempty"`
	CSVPath    string     `json:"csv_path,omitempty"`
	JSONPath   string     `json:"json_path,omitempty"`
}

// HeatmapData holds weekday x hour counts, one matrix per result plus totals.
type HeatmapData struct {
	Days   []string `json:"days"`
	Hours  []int    `json:"hours"`
	Wins   [][]int  `json:"wins"`
	Losses [][]int  `json:"losses"`
	Draws  [][]int  `json:"draws"`
	Totals [][]int  `json:"totals"`
}

// Profile is the chess.com player document, kept free-form.
type Profile map[string]any

// --- API payloads ---

type CheckUsernameResponse struct {
	Exists  bool       `json:"exists"`
	Months  []MonthRef `json:"months,omitempty"`
	Profile Profile    `json:"profile,omitempty"`
	Error   string     `json:"error,omitempty"`
}

type DownloadGamesResponse struct {
	Success bool    `json:"success"`
	Summary Summary `json:"summary"`
	Data    []Game  `json:"data"`
	Error   string  `json:"error,omitempty"`
}

type HeatmapResponse struct {
	Success     bool         `json:"success"`
	HeatmapData *HeatmapData `json:"heatmap_data,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// FileResponse carries a stored export. FileContent is hex encoded despite
// the field name.
type FileResponse struct {
	FileName    string `json:"file_name"`
	FileContent string `json:"file_content_base64"`
	MimeType    string `json:"mime_type"`
}
