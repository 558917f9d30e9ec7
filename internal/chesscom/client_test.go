package chesscom

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientEndpoints(t *testing.T) {
	var gotUA string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /player/bob", func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"username":"bob","followers":3}`))
	})
	mux.HandleFunc("GET /player/bob/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chess_blitz":{"last":{"rating":1200}}}`))
	})
	mux.HandleFunc("GET /player/bob/games/archives", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"archives":["x/2024/01","x/2024/02"]}`))
	})
	mux.HandleFunc("GET /player/bob/games/2024/01", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"games":[{"url":"g1","end_time":100,"time_class":"blitz","white":{"username":"Bob","rating":1200,"result":"win"},"black":{"username":"amy","rating":1100,"result":"checkmated"}}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClientWithBaseURL("test-agent", "", srv.URL)
	ctx := context.Background()

	p, err := c.GetPlayer(ctx, "Bob")
	require.NoError(t, err)
	require.Equal(t, "bob", p["username"])
	require.Equal(t, "test-agent", gotUA)

	s, err := c.GetPlayerStats(ctx, "bob")
	require.NoError(t, err)
	require.Contains(t, s, "chess_blitz")

	a, err := c.GetArchives(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, a, 2)

	games, err := c.GetMonthGames(ctx, srv.URL+"/player/bob/games/2024/01")
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, "Bob", games[0].White.Username)
	require.Equal(t, int64(100), games[0].EndTime)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClientWithBaseURL("ua", "", srv.URL).GetPlayer(context.Background(), "bob")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusForbidden, StatusCode(err))
	require.Equal(t, 0, StatusCode(errors.New("other")))
}
