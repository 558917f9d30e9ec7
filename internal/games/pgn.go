package games

import (
	"log/slog"
	"strings"

	"github.com/notnil/chess"
)

type PGNInfo struct {
	Moves   int // full moves
	ECO     string
	Opening string
}

// AnalyzePGN extracts the move count and opening tags. Unparseable PGN
// yields a zero PGNInfo.
func AnalyzePGN(pgn string) PGNInfo {
	if strings.TrimSpace(pgn) == "" {
		return PGNInfo{}
	}
	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		slog.Debug("skipping unparseable pgn", "error", err)
		return PGNInfo{}
	}
	game := chess.NewGame(opt)

	info := PGNInfo{Moves: (len(game.Moves()) + 1) / 2}
	if tp := game.GetTagPair("ECO"); tp != nil {
		info.ECO = tp.Value
	}
	if tp := game.GetTagPair("ECOUrl"); tp != nil {
		info.Opening = openingFromURL(tp.Value)
	}
	if info.Opening == "" {
		if tp := game.GetTagPair("Opening"); tp != nil {
			info.Opening = tp.Value
		}
	}
	return info
}

// openingFromURL turns ".../openings/Sicilian-Defense-Najdorf" into
// "Sicilian Defense Najdorf".
func openingFromURL(u string) string {
	u = strings.TrimRight(u, "/")
	i := strings.LastIndex(u, "/openings/")
	if i < 0 {
		return ""
	}
	return strings.ReplaceAll(u[i+len("/openings/"):], "-", " ")
}
