package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/quizbattle/go/internal/game"
)

func TestStartGame(t *testing.T) {
	var gotPath string
	var gotBody startRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pin":"AB12","status":"in_progress"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL + "/").StartGame(context.Background(), "ab12", 1)
	require.NoError(t, err)
	assert.Equal(t, "/games/AB12/start", gotPath)
	assert.Equal(t, 1, gotBody.HostPlayerID)
}

func TestStartGameRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"need at least two players"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).StartGame(context.Background(), "AB12", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, game.ErrStartRequestFailed)
	assert.Contains(t, err.Error(), "need at least two players")
	assert.False(t, game.IsFatal(err))
}

func TestGameState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games/AB12", r.URL.Path)
		w.Write([]byte(`{
			"pin": "AB12",
			"status": "waiting",
			"phase": "none",
			"topic": "space",
			"difficulty": "easy",
			"score_a": 0,
			"score_b": 0,
			"vote_percentages": {},
			"players": [{"id": 1, "name": "host", "team": null, "is_host": true, "is_captain": false}]
		}`))
	}))
	defer srv.Close()

	s, err := NewClient(srv.URL).GameState(context.Background(), "AB12")
	require.NoError(t, err)
	assert.Equal(t, game.StatusWaiting, s.Status)
	require.Len(t, s.Players, 1)
	assert.True(t, s.Players[0].IsHost)
	assert.Equal(t, game.TeamNone, s.Players[0].Team)
}

func TestGameStateNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GameState(context.Background(), "ZZ99")
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "not found", statusErr.Detail)
}

func TestDetailOf(t *testing.T) {
	assert.Equal(t, "bad", detailOf([]byte(`{"detail":"bad"}`)))
	assert.Equal(t, `[{"msg":"x"}]`, detailOf([]byte(`{"detail":[{"msg":"x"}]}`)))
	assert.Equal(t, "plain", detailOf([]byte("plain\n")))
}
